package rbac

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go-timeoff/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPolicy = `
roles:
  EMPLOYEE:
    permissions: [request:create, request:read]
  MANAGER:
    inherits: [EMPLOYEE]
    permissions: [request:approve, quota:read]
  ADMIN:
    inherits: [MANAGER]
    permissions: [request:admin, quota:manage]
`

// =========================================
// Fake Repository
// =========================================

type fakeRepo struct {
	roles   map[string]domain.Role
	err     error
	lookups int
}

func (f *fakeRepo) GetEmployeeRole(ctx context.Context, employeeID string) (domain.Role, error) {
	f.lookups++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[employeeID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return role, nil
}

func (f *fakeRepo) ListEmployeeRoles(ctx context.Context) ([]EmployeeRoleRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var rows []EmployeeRoleRow
	for id, role := range f.roles {
		rows = append(rows, EmployeeRoleRow{EmployeeID: id, Role: role})
	}
	return rows, nil
}

func newTestService(t *testing.T, repo *fakeRepo) Service {
	t.Helper()
	p, err := ParsePolicy([]byte(testPolicy))
	require.NoError(t, err)
	e, err := NewEnforcer(p)
	require.NoError(t, err)
	return NewService(repo, e)
}

// =========================================
// TEST: Policy
// =========================================

func TestParsePolicy_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: "roles: {}"},
		{name: "unknown role", yaml: "roles:\n  INTERN:\n    permissions: [request:read]"},
		{name: "undeclared parent", yaml: "roles:\n  MANAGER:\n    inherits: [EMPLOYEE]"},
		{name: "bad permission", yaml: "roles:\n  EMPLOYEE:\n    permissions: [request]"},
		{name: "invalid yaml", yaml: "roles: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPolicy), 0o600))

	p, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Len(t, p.Roles, 3)
	assert.Equal(t, []string{"MANAGER"}, p.Roles["ADMIN"].Inherits)

	_, err = LoadPolicyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// =========================================
// TEST: Enforce
// =========================================

func TestService_Enforce_RoleInheritance(t *testing.T) {
	repo := &fakeRepo{roles: map[string]domain.Role{
		"emp-1": domain.RoleEmployee,
		"mgr-1": domain.RoleManager,
		"adm-1": domain.RoleAdmin,
	}}
	svc := newTestService(t, repo)

	tests := []struct {
		employee string
		resource string
		action   string
		allowed  bool
	}{
		{"emp-1", domain.ResourceRequest, domain.ActionCreate, true},
		{"emp-1", domain.ResourceRequest, domain.ActionApprove, false},
		{"emp-1", domain.ResourceQuota, domain.ActionRead, false},
		{"mgr-1", domain.ResourceRequest, domain.ActionCreate, true},
		{"mgr-1", domain.ResourceRequest, domain.ActionApprove, true},
		{"mgr-1", domain.ResourceRequest, domain.ActionAdmin, false},
		{"adm-1", domain.ResourceRequest, domain.ActionApprove, true},
		{"adm-1", domain.ResourceRequest, domain.ActionAdmin, true},
		{"adm-1", domain.ResourceQuota, domain.ActionManage, true},
		{"ghost", domain.ResourceRequest, domain.ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.employee+"/"+tt.resource+":"+tt.action, func(t *testing.T) {
			allowed, err := svc.Enforce(context.Background(), domain.EnforceRequest{
				EmployeeID: tt.employee,
				Resource:   tt.resource,
				Action:     tt.action,
			})
			assert.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestService_Enforce_PicksUpRoleChange(t *testing.T) {
	repo := &fakeRepo{roles: map[string]domain.Role{"emp-1": domain.RoleManager}}
	svc := newTestService(t, repo)
	req := domain.EnforceRequest{EmployeeID: "emp-1", Resource: domain.ResourceRequest, Action: domain.ActionApprove}

	allowed, err := svc.Enforce(context.Background(), req)
	assert.NoError(t, err)
	assert.True(t, allowed)

	repo.roles["emp-1"] = domain.RoleEmployee

	allowed, err = svc.Enforce(context.Background(), req)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestService_Enforce_RepoError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	svc := newTestService(t, repo)

	allowed, err := svc.Enforce(context.Background(), domain.EnforceRequest{EmployeeID: "emp-1", Resource: "request", Action: "read"})
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestService_Enforce_UsesCallerContext(t *testing.T) {
	repo := &fakeRepo{roles: map[string]domain.Role{"adm-1": domain.RoleAdmin}}
	svc := newTestService(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	allowed, err := svc.Enforce(ctx, domain.EnforceRequest{EmployeeID: "adm-1", Resource: domain.ResourceRequest, Action: domain.ActionRead})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, allowed)

	_, err = svc.Permissions(ctx, "adm-1")
	assert.ErrorIs(t, err, context.Canceled)

	allowed, err = svc.Enforce(context.Background(), domain.EnforceRequest{EmployeeID: "adm-1", Resource: domain.ResourceRequest, Action: domain.ActionRead})
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestService_LoadEmployeeRoles(t *testing.T) {
	repo := &fakeRepo{roles: map[string]domain.Role{
		"emp-1": domain.RoleEmployee,
		"adm-1": domain.RoleAdmin,
	}}
	svc := newTestService(t, repo)

	assert.NoError(t, svc.LoadEmployeeRoles(context.Background()))

	repo.err = errors.New("db down")
	assert.Error(t, svc.LoadEmployeeRoles(context.Background()))
}

func TestService_Permissions(t *testing.T) {
	repo := &fakeRepo{roles: map[string]domain.Role{"mgr-1": domain.RoleManager}}
	svc := newTestService(t, repo)

	perms, err := svc.Permissions(context.Background(), "mgr-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"quota:read", "request:approve", "request:create", "request:read"}, perms)

	perms, err = svc.Permissions(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Empty(t, perms)
}
