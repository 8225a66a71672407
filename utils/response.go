package utils

import (
	"net/http"

	"cityfix-be/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByKind = map[errs.Kind]int{
	errs.Unauthenticated:   http.StatusUnauthorized,
	errs.Forbidden:         http.StatusForbidden,
	errs.NotFound:          http.StatusNotFound,
	errs.InvalidInput:      http.StatusBadRequest,
	errs.InvalidState:      http.StatusConflict,
	errs.InvalidOperation:  http.StatusBadRequest,
	errs.AlreadyDone:       http.StatusConflict,
	errs.AlreadyAssigned:   http.StatusConflict,
	errs.PaymentIncomplete: http.StatusPaymentRequired,
	errs.RateLimited:       http.StatusTooManyRequests,
	errs.UpstreamFailure:   http.StatusBadGateway,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind errs.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Fail aborts the request with the structured error body.
func Fail(c *gin.Context, log *zap.Logger, err error) {
	kind := errs.KindOf(err)
	status := StatusFor(kind)

	fields := []zap.Field{
		zap.String("request_id", RequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Warn("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"kind":    kind,
		"message": errs.Message(err),
	})
}

// BadRequest reports a body or query that failed binding.
func BadRequest(c *gin.Context, log *zap.Logger, err error) {
	Fail(c, log, errs.Wrap(err, errs.InvalidInput, err.Error()))
}

// OK writes body merged with success: true.
func OK(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}
