package quota

import (
	"net/http"
	"strconv"
	"time"

	quotaerrors "go-timeoff/internal/quota/errors"
	"go-timeoff/internal/shared/apperror"
	"go-timeoff/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	ledger Ledger
	logger *zap.Logger
}

func NewHandler(ledger Ledger, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("quota.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("quota.handler")
	}
	return &Handler{ledger: ledger, logger: l}
}

func getActorID(c *gin.Context) string {
	actorID := c.GetString("employee_id")
	if actorID == "" {
		actorID = c.GetString("user_id_validated")
	}
	return actorID
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("quota request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// intQuery reads an integer query parameter, falling back when absent.
func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, quotaerrors.ErrInvalidPeriod
	}
	return n, nil
}

func (h *Handler) GetMine(c *gin.Context) {
	now := time.Now().UTC()
	year, err := intQuery(c, "year", now.Year())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	month, err := intQuery(c, "month", int(now.Month()))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.ledger.GetMonth(c.Request.Context(), getActorID(c), year, month)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetEmployeeYear(c *gin.Context) {
	year, err := intQuery(c, "year", time.Now().UTC().Year())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.ledger.GetYear(c.Request.Context(), c.Param("id"), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) SetAllowance(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.writeServiceError(c, quotaerrors.ErrInvalidPeriod)
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		h.writeServiceError(c, quotaerrors.ErrInvalidPeriod)
		return
	}

	var req SetAllowanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http set allowance validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.ledger.SetAllowance(c.Request.Context(), c.Param("id"), year, month, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reconcile(c *gin.Context) {
	now := time.Now().UTC()
	year, err := intQuery(c, "year", now.Year())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	month, err := intQuery(c, "month", int(now.Month()))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	n, err := h.ledger.ReconcileMonth(c.Request.Context(), year, month)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ReconcileResponse{Year: year, Month: month, Employees: n}, nil)
}
