package rbac

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go-timeoff/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	// LoadEmployeeRoles replaces every employee assignment with the roles stored in the employees table.
	LoadEmployeeRoles(ctx context.Context) error
	Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error)
	Permissions(ctx context.Context, employeeID string) ([]string, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{
		repo:     repo,
		enforcer: enforcer,
		logger:   l,
	}
}

func (s *service) LoadEmployeeRoles(ctx context.Context) error {
	rows, err := s.repo.ListEmployeeRoles(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		if err := s.assignUnlocked(row.EmployeeID, row.Role); err != nil {
			return err
		}
	}
	s.logger.Info("rbac employee roles loaded", zap.Int("employees", len(rows)))
	return nil
}

// assignUnlocked keeps exactly one role per employee.
func (s *service) assignUnlocked(employeeID string, role domain.Role) error {
	current, err := s.enforcer.GetRolesForUser(employeeID)
	if err != nil {
		return err
	}
	if len(current) == 1 && current[0] == string(role) {
		return nil
	}
	if _, err := s.enforcer.DeleteRolesForUser(employeeID); err != nil {
		return err
	}
	if !role.Valid() {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(employeeID, string(role))
	return err
}

// currentRole re-reads the employee's role so role changes apply on the next call.
// An unknown employee has no role.
func (s *service) currentRole(ctx context.Context, employeeID string) (domain.Role, error) {
	role, err := s.repo.GetEmployeeRole(ctx, employeeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return role, err
}

func (s *service) Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error) {
	role, err := s.currentRole(ctx, req.EmployeeID)
	if err != nil {
		s.logger.Error("rbac role lookup failed", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assignUnlocked(req.EmployeeID, role); err != nil {
		return false, err
	}

	allowed, err := s.enforcer.Enforce(req.EmployeeID, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("employee_id", req.EmployeeID),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) Permissions(ctx context.Context, employeeID string) ([]string, error) {
	role, err := s.currentRole(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assignUnlocked(employeeID, role); err != nil {
		return nil, err
	}
	perms, err := s.enforcer.GetImplicitPermissionsForUser(employeeID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if len(p) < 3 {
			continue
		}
		key := p[1] + ":" + p[2]
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}
