package quota

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is one employee's leave allowance and usage for a calendar month.
// DaysUsed and OvertimeHoursUsed are derived from approved requests.
type Record struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_quota_employee_period"`
	Year              int             `gorm:"not null;uniqueIndex:uq_quota_employee_period"`
	Month             int             `gorm:"not null;uniqueIndex:uq_quota_employee_period"`
	Allowance         decimal.Decimal `gorm:"type:numeric(5,2);not null;default:1"`
	DaysUsed          decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	OvertimeHoursUsed decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Note              *string         `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Record) TableName() string {
	return "quota_records"
}

func (r Record) Exceeded() bool {
	return r.DaysUsed.GreaterThan(r.Allowance)
}
