package employee

import (
	"context"

	"go-timeoff/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindAll(ctx context.Context) ([]Employee, error)
	FindDepartmentByID(ctx context.Context, id string) (*Department, error)
	FindManagerIDsByDepartment(ctx context.Context, departmentID string) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var emps []Employee
	err := r.db.WithContext(ctx).Order("full_name ASC").Find(&emps).Error
	return emps, err
}

func (r *repository) FindDepartmentByID(ctx context.Context, id string) (*Department, error) {
	var d Department
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindManagerIDsByDepartment returns the department head plus every MANAGER assigned to it.
func (r *repository) FindManagerIDsByDepartment(ctx context.Context, departmentID string) ([]uuid.UUID, error) {
	var rows []struct {
		ID uuid.UUID
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT manager_id AS id FROM departments WHERE id = ? AND manager_id IS NOT NULL
		UNION
		SELECT id FROM employees WHERE department_id = ? AND role = ?
	`, departmentID, departmentID, domain.RoleManager).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}
