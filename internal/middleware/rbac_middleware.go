package middleware

import (
	"context"
	"net/http"

	"go-timeoff/internal/domain"
	"go-timeoff/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

type ContextKey string

const (
	ContextEmployeeID ContextKey = "employee_id"

	// ContextRequestAdmin is set by RBACMark when the caller holds request:admin.
	ContextRequestAdmin = "is_request_admin"
)

// RBACService is satisfied by anything that can answer an EnforceRequest.
type RBACService interface {
	Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error)
}

func forbidden() *apperror.AppError {
	return apperror.New(apperror.CodeForbidden, "You do not have permission to access this resource", http.StatusForbidden)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID := c.GetString(string(ContextEmployeeID))
		if employeeID == "" {
			abortWith(c, ErrMissingAuth)
			return
		}

		allowed, err := service.Enforce(c.Request.Context(), domain.EnforceRequest{
			EmployeeID: employeeID,
			Resource:   resource,
			Action:     action,
		})
		if err != nil {
			abortWith(c, apperror.WithCause(apperror.ErrInternal, err))
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"ok": false,
				"error": gin.H{
					"code":     apperror.CodeForbidden,
					"message":  "You do not have permission to access this resource",
					"required": resource + ":" + action,
				},
			})
			return
		}
		c.Next()
	}
}

// RBACMark records whether the caller holds resource:action under key and never aborts.
func RBACMark(service RBACService, resource, action, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID := c.GetString(string(ContextEmployeeID))
		allowed := false
		if employeeID != "" {
			allowed, _ = service.Enforce(c.Request.Context(), domain.EnforceRequest{
				EmployeeID: employeeID,
				Resource:   resource,
				Action:     action,
			})
		}
		c.Set(key, allowed)
		c.Next()
	}
}
