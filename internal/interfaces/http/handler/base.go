package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorahyong/buyma/internal/domain/shared"
	"github.com/dorahyong/buyma/internal/interfaces/http/dto"
	"github.com/dorahyong/buyma/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDContextKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Internal sends a 500 internal error response
func (h *BaseHandler) Internal(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleDomainError maps domain errors onto the response envelope
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		h.NotFound(c, err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		h.ErrorWithCode(c, dto.ErrCodeAlreadyExists, err.Error())
	case errors.Is(err, shared.ErrConcurrencyConflict):
		h.ErrorWithCode(c, dto.ErrCodeConcurrencyConflict, err.Error())
	default:
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			h.ErrorWithCode(c, dto.ErrCodeValidation, domainErr.Message)
			return
		}
		h.Internal(c, err.Error())
	}
}
