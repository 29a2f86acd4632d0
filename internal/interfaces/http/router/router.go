package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. Operator endpoints live under a
// versioned prefix; the marketplace callback keeps its own stable path
// because the marketplace's webhook URL is configured once and never
// versioned.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
	callbacks  []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
		callbacks:  make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar under the versioned API group
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// RegisterCallback adds a RouteRegistrar under the unversioned callback
// group
func (r *Router) RegisterCallback(registrar RouteRegistrar) *Router {
	r.callbacks = append(r.callbacks, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	callback := r.engine.Group("/api/buyma")
	for _, registrar := range r.callbacks {
		registrar.RegisterRoutes(callback)
	}
}
