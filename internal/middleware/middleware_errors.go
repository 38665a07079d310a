package middleware

import (
	"net/http"

	"go-timeoff/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

var (
	ErrTokenNotFound   = apperror.New(apperror.CodeUnauthorized, "token not found", http.StatusUnauthorized)
	ErrInvalidToken    = apperror.New(apperror.CodeUnauthorized, "invalid token", http.StatusUnauthorized)
	ErrTokenExpired    = apperror.New(apperror.CodeUnauthorized, "token expired", http.StatusUnauthorized)
	ErrMissingAuth     = apperror.New(apperror.CodeUnauthorized, "missing auth context", http.StatusUnauthorized)
	ErrTooManyRequests = apperror.New("TOO_MANY_REQUESTS", "too many requests", http.StatusTooManyRequests)
	ErrProcessing      = apperror.New(apperror.CodeConflict, "a request with this idempotency key is still being processed", http.StatusConflict)
)

// abortWith writes the standard error envelope and stops the chain.
func abortWith(c *gin.Context, err *apperror.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, gin.H{
		"ok": false,
		"error": gin.H{
			"code":    err.Code,
			"message": err.Message,
		},
	})
}
