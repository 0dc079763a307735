package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/clinic-records-api/internal/middleware"
	"github.com/harentsoaR/clinic-records-api/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const internalErrorMessage = "Internal server error"

// Envelope is the body of every JSON response.
type Envelope struct {
	Success    bool                 `json:"success"`
	Data       any                  `json:"data,omitempty"`
	Message    string               `json:"message,omitempty"`
	Count      *int                 `json:"count,omitempty"`
	Pagination *services.Pagination `json:"pagination,omitempty"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func respondList[T any](c *gin.Context, items []T, p *services.Pagination) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	c.JSON(http.StatusOK, Envelope{Success: true, Data: items, Count: &n, Pagination: p})
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Success: false, Message: msg})
}

func statusFor(k services.Kind) int {
	switch k {
	case services.KindValidation, services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError renders a service error. Errors outside the service taxonomy
// are logged and attached to the context for reporting; the caller only sees
// a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		respondMessage(c, statusFor(svcErr.Kind), svcErr.Message)
		return
	}
	_ = c.Error(err)
	h.Log.ErrorContext(c.Request.Context(), "request failed",
		"error", err,
		"method", c.Request.Method,
		"route", c.FullPath(),
		"request_id", c.GetString(middleware.RequestIDKey),
	)
	respondMessage(c, http.StatusInternalServerError, internalErrorMessage)
}

// parseID reads an ObjectID path parameter, answering 400 when it is not one.
func parseID(c *gin.Context, param, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid "+what+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

// callerID returns the authenticated user's id set by the auth middleware.
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.UserIDKey))
	if err != nil {
		respondMessage(c, http.StatusUnauthorized, "User not authenticated")
		return primitive.NilObjectID, false
	}
	return id, true
}
