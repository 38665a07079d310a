package request

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
	writeGuards ...gin.HandlerFunc,
) {
	// writeGuards run after authentication on every mutating route.
	writes := func(h ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writeGuards...), h...)
	}
	markAdmin := middleware.RBACMark(rbacService, domain.ResourceRequest, domain.ActionAdmin, middleware.ContextRequestAdmin)
	canCreate := middleware.RBACAuthorize(rbacService, domain.ResourceRequest, domain.ActionCreate)
	canRead := middleware.RBACAuthorize(rbacService, domain.ResourceRequest, domain.ActionRead)
	canApprove := middleware.RBACAuthorize(rbacService, domain.ResourceRequest, domain.ActionApprove)

	requests := r.Group("/requests")
	requests.Use(middleware.AuthMiddleware(jwtSecret))
	{
		requests.POST("", writes(canCreate, handler.Create)...)
		requests.GET("", canRead, markAdmin, handler.List)
		requests.GET("/mine", handler.Mine)
		requests.GET("/pending-approval", canApprove, handler.PendingApproval)
		requests.GET("/pending-approval/count", canApprove, handler.CountPendingApproval)
		requests.GET("/stats", canRead, markAdmin, handler.Stats)
		requests.GET("/:id", canRead, markAdmin, handler.GetByID)
		requests.PUT("/:id", writes(canCreate, handler.Update)...)
		requests.POST("/:id/cancel", writes(canCreate, handler.Cancel)...)
		requests.POST("/:id/approve", writes(canApprove, handler.Approve)...)
		requests.POST("/:id/reject", writes(canApprove, handler.Reject)...)
		requests.DELETE("/:id", writes(canCreate, markAdmin, handler.Delete)...)
	}
}
