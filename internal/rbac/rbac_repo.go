package rbac

import (
	"context"

	"go-timeoff/internal/domain"

	"gorm.io/gorm"
)

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetEmployeeRole(ctx context.Context, employeeID string) (domain.Role, error)
	ListEmployeeRoles(ctx context.Context) ([]EmployeeRoleRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type EmployeeRoleRow struct {
	EmployeeID string
	Role       domain.Role
}

func (r *repository) GetEmployeeRole(ctx context.Context, employeeID string) (domain.Role, error) {
	var row EmployeeRoleRow
	err := r.db.WithContext(ctx).
		Table("employees").
		Select("employees.id AS employee_id, employees.role").
		Where("employees.id = ?", employeeID).
		Take(&row).Error
	if err != nil {
		return "", err
	}
	return row.Role, nil
}

func (r *repository) ListEmployeeRoles(ctx context.Context) ([]EmployeeRoleRow, error) {
	var result []EmployeeRoleRow
	err := r.db.WithContext(ctx).
		Table("employees").
		Select("employees.id AS employee_id, employees.role").
		Scan(&result).Error
	return result, err
}
