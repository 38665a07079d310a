package rbac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-timeoff/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// =========================================
// Mock Service
// =========================================

type mockService struct {
	Service
	lastReq domain.EnforceRequest
	err     error
}

func (m *mockService) Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error) {
	m.lastReq = req
	if m.err != nil {
		return false, m.err
	}
	return req.Resource == "request" && req.Action == "read", nil
}

func (m *mockService) Permissions(ctx context.Context, employeeID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{"request:read"}, nil
}

func newRBACContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("employee_id", "emp-1")
	return c, w
}

// =========================================
// TEST: Handler Enforce
// =========================================

func TestHandler_Enforce(t *testing.T) {
	svc := &mockService{}
	handler := NewHandler(svc)

	body, _ := json.Marshal(map[string]string{
		"employee_id": "someone-else",
		"resource":    " request ",
		"action":      "read",
	})
	c, w := newRBACContext(http.MethodPost, "/rbac/enforce", body)

	handler.Enforce(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "emp-1", svc.lastReq.EmployeeID)
	assert.Equal(t, "request", svc.lastReq.Resource)

	var resp struct {
		OK   bool                   `json:"ok"`
		Data domain.EnforceResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.True(t, resp.Data.Allowed)
}

func TestHandler_Enforce_InvalidBody(t *testing.T) {
	handler := NewHandler(&mockService{})

	c, w := newRBACContext(http.MethodPost, "/rbac/enforce", []byte(`{"resource":"request"}`))
	handler.Enforce(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Enforce_ServiceError(t *testing.T) {
	handler := NewHandler(&mockService{err: errors.New("boom")})

	c, w := newRBACContext(http.MethodPost, "/rbac/enforce", []byte(`{"resource":"request","action":"read"}`))
	handler.Enforce(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_MyPermissions(t *testing.T) {
	handler := NewHandler(&mockService{})

	c, w := newRBACContext(http.MethodGet, "/rbac/me/permissions", nil)
	handler.MyPermissions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data PermissionsResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "emp-1", resp.Data.EmployeeID)
	assert.Equal(t, []string{"request:read"}, resp.Data.Permissions)
}
