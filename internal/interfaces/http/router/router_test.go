package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubRegistrar struct {
	path string
}

func (s *stubRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET(s.path, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

func TestRouter_MountsVersionedAndCallbackGroups(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	NewRouter(engine).
		Register(&stubRegistrar{path: "/products"}).
		RegisterCallback(&stubRegistrar{path: "/webhook"}).
		Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/buyma/webhook", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/products", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CustomAPIVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	NewRouter(engine, WithAPIVersion("v2")).
		Register(&stubRegistrar{path: "/products"}).
		Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/products", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
