package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP statuses and the message shown to
// the caller. Integrity and internal failures never expose their cause.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or missing token"
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, common.ErrIntegrity):
		return http.StatusUnprocessableEntity, common.ErrIntegrity.Error()
	case errors.Is(err, common.ErrUnconfirmed):
		return http.StatusPreconditionRequired, common.ErrUnconfirmed.Error()
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// writeError logs unexpected failures and answers with the mapped status.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
