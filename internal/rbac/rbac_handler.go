package rbac

import (
	"net/http"
	"strings"

	"go-timeoff/internal/domain"
	"go-timeoff/internal/shared/apperror"
	"go-timeoff/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

type enforceBody struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type PermissionsResponse struct {
	EmployeeID  string   `json:"employee_id"`
	Permissions []string `json:"permissions"`
}

// Enforce answers whether the caller holds resource:action.
func (h *Handler) Enforce(c *gin.Context) {
	var body enforceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	req := domain.EnforceRequest{
		EmployeeID: c.GetString("employee_id"),
		Resource:   strings.TrimSpace(body.Resource),
		Action:     strings.TrimSpace(body.Action),
	}

	allowed, err := h.service.Enforce(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("rbac enforce failed", zap.Error(err))
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, domain.EnforceResponse{Allowed: allowed}, nil)
}

func (h *Handler) MyPermissions(c *gin.Context) {
	employeeID := c.GetString("employee_id")
	perms, err := h.service.Permissions(c.Request.Context(), employeeID)
	if err != nil {
		h.logger.Error("rbac permissions lookup failed", zap.Error(err))
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, PermissionsResponse{EmployeeID: employeeID, Permissions: perms}, nil)
}
