package approval

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
	approvers := r.Group("/approvers")
	approvers.Use(middleware.AuthMiddleware(jwtSecret))
	{
		approvers.GET("/eligible/:employeeId",
			middleware.RBACAuthorize(rbacService, domain.ResourceRequest, domain.ActionRead),
			handler.GetEligibleApprovers,
		)
	}
}
