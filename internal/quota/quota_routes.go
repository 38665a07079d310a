package quota

import (
	"go-timeoff/internal/domain"
	"go-timeoff/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	jwtSecret string,
) {
	quotas := r.Group("/quotas")
	quotas.Use(middleware.AuthMiddleware(jwtSecret))
	{
		quotas.GET("/me", handler.GetMine)
		quotas.GET("/employees/:id", middleware.RBACAuthorize(rbacService, domain.ResourceQuota, domain.ActionRead), handler.GetEmployeeYear)
		quotas.PUT("/employees/:id/:year/:month", middleware.RBACAuthorize(rbacService, domain.ResourceQuota, domain.ActionManage), handler.SetAllowance)
		quotas.POST("/reconcile", middleware.RBACAuthorize(rbacService, domain.ResourceQuota, domain.ActionManage), handler.Reconcile)
	}
}
