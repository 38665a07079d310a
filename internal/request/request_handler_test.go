package request_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-timeoff/internal/middleware"
	"go-timeoff/internal/request"
	requesterrors "go-timeoff/internal/request/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
	Meta  *apiMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeService struct {
	request.Service
	createFn  func(ctx context.Context, requesterID string, req request.CreateRequest) (request.RequestResponse, error)
	cancelFn  func(ctx context.Context, actorID, id string) (bool, error)
	approveFn func(ctx context.Context, approverID, id string, note *string) (request.RequestResponse, error)
	rejectFn  func(ctx context.Context, approverID, id, note string) (request.RequestResponse, error)
	deleteFn  func(ctx context.Context, actorID, id string, isAdmin bool) (bool, error)
	getFn     func(ctx context.Context, viewer request.Viewer, id string) (request.RequestResponse, error)
	listFn    func(ctx context.Context, viewer request.Viewer, q request.ListQuery) ([]request.RequestResponse, int64, error)
	countFn   func(ctx context.Context, approverID string) (int64, error)
}

func (f *fakeService) Create(ctx context.Context, requesterID string, req request.CreateRequest) (request.RequestResponse, error) {
	return f.createFn(ctx, requesterID, req)
}

func (f *fakeService) Cancel(ctx context.Context, actorID, id string) (bool, error) {
	return f.cancelFn(ctx, actorID, id)
}

func (f *fakeService) Approve(ctx context.Context, approverID, id string, note *string) (request.RequestResponse, error) {
	return f.approveFn(ctx, approverID, id, note)
}

func (f *fakeService) Reject(ctx context.Context, approverID, id, note string) (request.RequestResponse, error) {
	return f.rejectFn(ctx, approverID, id, note)
}

func (f *fakeService) Delete(ctx context.Context, actorID, id string, isAdmin bool) (bool, error) {
	return f.deleteFn(ctx, actorID, id, isAdmin)
}

func (f *fakeService) GetByID(ctx context.Context, viewer request.Viewer, id string) (request.RequestResponse, error) {
	return f.getFn(ctx, viewer, id)
}

func (f *fakeService) List(ctx context.Context, viewer request.Viewer, q request.ListQuery) ([]request.RequestResponse, int64, error) {
	return f.listFn(ctx, viewer, q)
}

func (f *fakeService) CountPendingForApproval(ctx context.Context, approverID string) (int64, error) {
	return f.countFn(ctx, approverID)
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func TestRequestHandler_Create(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakeService{
			createFn: func(ctx context.Context, requesterID string, req request.CreateRequest) (request.RequestResponse, error) {
				assert.Equal(t, actorID, requesterID)
				assert.Equal(t, "LEAVE", req.Type)
				assert.Equal(t, "FULL_DAY", req.Leave.Granularity)
				return request.RequestResponse{Code: "NP-2025-001", Status: "PENDING"}, nil
			},
		}
		h := request.NewHandler(svc)
		c, w := newTestContext(http.MethodPost, "/requests",
			`{"type":"LEAVE","reason":"personal","leave":{"granularity":"FULL_DAY","start_date":"2025-01-05","end_date":"2025-01-05"}}`)
		c.Set("employee_id", actorID)

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got request.RequestResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "NP-2025-001", got.Code)
	})

	t.Run("binding failure", func(t *testing.T) {
		h := request.NewHandler(&fakeService{})
		c, w := newTestContext(http.MethodPost, "/requests", `{"type":"HOLIDAY"}`)

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		svc := &fakeService{
			createFn: func(ctx context.Context, requesterID string, req request.CreateRequest) (request.RequestResponse, error) {
				return request.RequestResponse{}, requesterrors.ErrLeaveConflict
			},
		}
		h := request.NewHandler(svc)
		c, w := newTestContext(http.MethodPost, "/requests",
			`{"type":"LEAVE","reason":"x","leave":{"granularity":"MORNING","start_date":"2025-01-05","end_date":"2025-01-05"}}`)
		c.Set("employee_id", actorID)

		h.Create(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONFLICT", decodeEnvelope(t, w.Body.Bytes()).Error.Code)
	})
}

func TestRequestHandler_Cancel(t *testing.T) {
	id := uuid.New().String()
	svc := &fakeService{
		cancelFn: func(ctx context.Context, actorID, reqID string) (bool, error) {
			assert.Equal(t, id, reqID)
			return false, requesterrors.ErrNotPending
		},
	}
	h := request.NewHandler(svc)
	c, w := newTestContext(http.MethodPost, "/requests/"+id+"/cancel", "")
	c.Params = gin.Params{{Key: "id", Value: id}}
	c.Set("employee_id", uuid.NewString())

	h.Cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decodeEnvelope(t, w.Body.Bytes()).Error.Code)
}

func TestRequestHandler_Approve(t *testing.T) {
	id := uuid.New().String()

	t.Run("without body", func(t *testing.T) {
		svc := &fakeService{
			approveFn: func(ctx context.Context, approverID, reqID string, note *string) (request.RequestResponse, error) {
				assert.Nil(t, note)
				return request.RequestResponse{Status: "APPROVED"}, nil
			},
		}
		h := request.NewHandler(svc)
		c, w := newTestContext(http.MethodPost, "/requests/"+id+"/approve", "")
		c.Params = gin.Params{{Key: "id", Value: id}}

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("with note", func(t *testing.T) {
		svc := &fakeService{
			approveFn: func(ctx context.Context, approverID, reqID string, note *string) (request.RequestResponse, error) {
				assert.Equal(t, "ok", *note)
				return request.RequestResponse{Status: "APPROVED"}, nil
			},
		}
		h := request.NewHandler(svc)
		c, w := newTestContext(http.MethodPost, "/requests/"+id+"/approve", `{"note":"ok"}`)
		c.Params = gin.Params{{Key: "id", Value: id}}

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequestHandler_Reject(t *testing.T) {
	id := uuid.New().String()
	svc := &fakeService{
		rejectFn: func(ctx context.Context, approverID, reqID, note string) (request.RequestResponse, error) {
			if note == "" {
				return request.RequestResponse{}, requesterrors.ErrRejectNoteRequired
			}
			return request.RequestResponse{Status: "REJECTED"}, nil
		},
	}
	h := request.NewHandler(svc)

	c, w := newTestContext(http.MethodPost, "/requests/"+id+"/reject", `{}`)
	c.Params = gin.Params{{Key: "id", Value: id}}
	h.Reject(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPost, "/requests/"+id+"/reject", `{"note":"budget"}`)
	c.Params = gin.Params{{Key: "id", Value: id}}
	h.Reject(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestHandler_Delete(t *testing.T) {
	id := uuid.New().String()
	svc := &fakeService{
		deleteFn: func(ctx context.Context, actorID, reqID string, isAdmin bool) (bool, error) {
			assert.True(t, isAdmin)
			return false, requesterrors.ErrAuditRetained
		},
	}
	h := request.NewHandler(svc)
	c, w := newTestContext(http.MethodDelete, "/requests/"+id, "")
	c.Params = gin.Params{{Key: "id", Value: id}}
	c.Set(middleware.ContextRequestAdmin, true)

	h.Delete(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRequestHandler_GetByID(t *testing.T) {
	viewerID := uuid.New().String()
	svc := &fakeService{
		getFn: func(ctx context.Context, viewer request.Viewer, id string) (request.RequestResponse, error) {
			assert.Equal(t, viewerID, viewer.EmployeeID)
			assert.False(t, viewer.Admin)
			return request.RequestResponse{}, requesterrors.ErrRequestNotFound
		},
	}
	h := request.NewHandler(svc)
	c, w := newTestContext(http.MethodGet, "/requests/x", "")
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	c.Set("employee_id", viewerID)

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestHandler_List(t *testing.T) {
	svc := &fakeService{
		listFn: func(ctx context.Context, viewer request.Viewer, q request.ListQuery) ([]request.RequestResponse, int64, error) {
			assert.True(t, viewer.Admin)
			assert.Equal(t, "LEAVE", q.Type)
			assert.Equal(t, 2, q.Page)
			return []request.RequestResponse{{Code: "NP-2025-001"}}, 11, nil
		},
	}
	h := request.NewHandler(svc)
	c, w := newTestContext(http.MethodGet, "/requests?type=LEAVE&page=2&page_size=10", "")
	c.Set(middleware.ContextRequestAdmin, true)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, int64(11), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.Page)
	assert.Equal(t, 10, env.Meta.PageSize)
}

func TestRequestHandler_CountPendingApproval(t *testing.T) {
	svc := &fakeService{
		countFn: func(ctx context.Context, approverID string) (int64, error) { return 4, nil },
	}
	h := request.NewHandler(svc)
	c, w := newTestContext(http.MethodGet, "/requests/pending-approval/count", "")
	c.Set("employee_id", uuid.NewString())

	h.CountPendingApproval(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var got request.CountResponse
	assert.NoError(t, json.Unmarshal(decodeEnvelope(t, w.Body.Bytes()).Data, &got))
	assert.Equal(t, int64(4), got.Count)
}
