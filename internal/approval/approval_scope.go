package approval

import (
	"go-timeoff/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApproverScope bounds the requests an approver may act on. A nil DepartmentID
// means company-wide.
type ApproverScope struct {
	ApproverID   uuid.UUID  `json:"approver_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
}

func (s ApproverScope) CompanyWide() bool {
	return s.DepartmentID == nil
}

// InScope is the in-memory form of PendingFor without the status filter.
func (s ApproverScope) InScope(requesterID uuid.UUID, requesterDept *uuid.UUID) bool {
	if requesterID == s.ApproverID {
		return false
	}
	if s.CompanyWide() {
		return true
	}
	return requesterDept != nil && *requesterDept == *s.DepartmentID
}

// PendingFor narrows a query on the requests table to Pending requests the
// approver may decide on.
func PendingFor(s ApproverScope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("requests.status = ?", domain.StatusPending).
			Where("requests.requester_id <> ?", s.ApproverID)
		if !s.CompanyWide() {
			db = db.Where("requests.requester_id IN (SELECT id FROM employees WHERE department_id = ?)", *s.DepartmentID)
		}
		return db
	}
}

// VisibleTo narrows the requests listing for a department-scoped approver.
// Own requests stay visible.
func VisibleTo(s ApproverScope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.CompanyWide() {
			return db
		}
		return db.Where("(requests.requester_id = ? OR requests.requester_id IN (SELECT id FROM employees WHERE department_id = ?))",
			s.ApproverID, *s.DepartmentID)
	}
}
