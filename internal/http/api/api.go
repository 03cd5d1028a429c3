package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
)

type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

type HandlerFuncWithAuth func(ctx *gin.Context, guardian *model.Guardian) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// Controller is the gin group a Module attaches its endpoints to.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFuncWithAuth) {
	c.Group.GET(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) POST(path string, h HandlerFuncWithAuth) {
	c.Group.POST(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUT(path string, h HandlerFuncWithAuth) {
	c.Group.PUT(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) DELETE(path string, h HandlerFuncWithAuth) {
	c.Group.DELETE(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_DELETE(path string, h HandlerFunc) {
	c.Group.DELETE(path, ResolveEndpoint(h))
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		guardian, ok := middleware.GetCurrentGuardian(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, guardian)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

// FromError maps a scheduling error onto a response. Persistence failures are
// reported as 503 since every mutating path is safe to retry; fallback is the
// message used for anything unclassified.
func FromError(err error, fallback string) *APIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, scheduling.ErrValidation):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, scheduling.ErrNotFound):
		return &APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, scheduling.ErrForbidden):
		return &APIError{Code: http.StatusForbidden, Message: "forbidden"}
	case errors.Is(err, scheduling.ErrConflict):
		return &APIError{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, scheduling.ErrPersistence):
		return &APIError{Code: http.StatusServiceUnavailable, Message: fallback}
	}
	return &APIError{Code: http.StatusInternalServerError, Message: fallback}
}
