package request

import (
	"context"
	"time"

	"go-timeoff/internal/domain"

	"github.com/google/uuid"
)

// LeaveConflicts reports whether two leaves may not coexist. Ranges must
// intersect; two half days only collide when they claim the same half.
func LeaveConflicts(candidate, existing LeaveDetails) bool {
	if !domain.RangesIntersect(candidate.StartDate, candidate.EndDate, existing.StartDate, existing.EndDate) {
		return false
	}
	if candidate.Granularity.IsHalfDay() && existing.Granularity.IsHalfDay() {
		return candidate.Granularity == existing.Granularity
	}
	return true
}

// HasLeaveConflict checks candidate against active leave requests. Records
// that are not active leaves, or that match excludeID, are ignored.
func HasLeaveConflict(candidate LeaveDetails, existing []Request, excludeID *uuid.UUID) bool {
	for _, r := range existing {
		if !isActiveCandidate(r, domain.TypeLeave, excludeID) {
			continue
		}
		if LeaveConflicts(candidate, r.Details().(LeaveDetails)) {
			return true
		}
	}
	return false
}

// HasLateArrivalConflict reports an active late arrival on the same calendar date.
func HasLateArrivalConflict(date time.Time, existing []Request, excludeID *uuid.UUID) bool {
	day := domain.DateOf(date)
	for _, r := range existing {
		if !isActiveCandidate(r, domain.TypeLateArrival, excludeID) {
			continue
		}
		if domain.DateOf(r.StartDate).Equal(day) {
			return true
		}
	}
	return false
}

func isActiveCandidate(r Request, typ domain.RequestType, excludeID *uuid.UUID) bool {
	if r.Type != typ {
		return false
	}
	if r.Status != domain.StatusPending && r.Status != domain.StatusApproved {
		return false
	}
	return excludeID == nil || r.ID != *excludeID
}

// ConflictValidator loads an employee's active requests and applies the
// conflict predicates. It never writes.
type ConflictValidator struct {
	repo Repository
}

func NewConflictValidator(repo Repository) *ConflictValidator {
	return &ConflictValidator{repo: repo}
}

func (v *ConflictValidator) LeaveConflict(ctx context.Context, employeeID uuid.UUID, d LeaveDetails, excludeID *uuid.UUID) (bool, error) {
	existing, err := v.repo.ActiveInRange(ctx, employeeID, domain.TypeLeave, d.StartDate, d.EndDate, excludeID)
	if err != nil {
		return false, err
	}
	return HasLeaveConflict(d, existing, excludeID), nil
}

func (v *ConflictValidator) LateArrivalConflict(ctx context.Context, employeeID uuid.UUID, date time.Time, excludeID *uuid.UUID) (bool, error) {
	existing, err := v.repo.ActiveInRange(ctx, employeeID, domain.TypeLateArrival, date, date, excludeID)
	if err != nil {
		return false, err
	}
	return HasLateArrivalConflict(date, existing, excludeID), nil
}
