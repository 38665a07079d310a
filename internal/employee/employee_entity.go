package employee

import (
	"time"

	"go-timeoff/internal/domain"

	"github.com/google/uuid"
)

type Employee struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey"`
	DepartmentID   *uuid.UUID  `gorm:"type:uuid;index"`
	ManagerID      *uuid.UUID  `gorm:"type:uuid"`
	FullName       string      `gorm:"not null"`
	Email          string      `gorm:"uniqueIndex"`
	Role           domain.Role `gorm:"type:varchar(20);not null;default:'EMPLOYEE'"`
	TelegramChatID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Department struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name      string     `gorm:"not null"`
	ManagerID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the directory view of an employee used by approval routing and notifications.
type Profile struct {
	EmployeeID     uuid.UUID   `json:"employee_id"`
	FullName       string      `json:"full_name"`
	Email          string      `json:"email"`
	DepartmentID   *uuid.UUID  `json:"department_id,omitempty"`
	ManagerID      *uuid.UUID  `json:"manager_id,omitempty"`
	Role           domain.Role `json:"role"`
	TelegramChatID *string     `json:"telegram_chat_id,omitempty"`
}

func (p Profile) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}

func (p Profile) InDepartment(departmentID uuid.UUID) bool {
	return p.DepartmentID != nil && *p.DepartmentID == departmentID
}

func toProfile(e Employee) Profile {
	return Profile{
		EmployeeID:     e.ID,
		FullName:       e.FullName,
		Email:          e.Email,
		DepartmentID:   e.DepartmentID,
		ManagerID:      e.ManagerID,
		Role:           e.Role,
		TelegramChatID: e.TelegramChatID,
	}
}
