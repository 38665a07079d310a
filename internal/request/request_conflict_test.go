package request_test

import (
	"context"
	"testing"
	"time"

	"go-timeoff/internal/domain"
	"go-timeoff/internal/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func leaveDetails(g domain.LeaveGranularity, start, end string) request.LeaveDetails {
	return request.LeaveDetails{Granularity: g, StartDate: date(start), EndDate: date(end)}
}

func TestLeaveConflicts(t *testing.T) {
	cases := []struct {
		name      string
		candidate request.LeaveDetails
		existing  request.LeaveDetails
		want      bool
	}{
		{"full day over morning", leaveDetails(domain.GranularityFullDay, "2025-06-10", "2025-06-10"), leaveDetails(domain.GranularityMorning, "2025-06-10", "2025-06-10"), true},
		{"morning and afternoon", leaveDetails(domain.GranularityMorning, "2025-06-10", "2025-06-10"), leaveDetails(domain.GranularityAfternoon, "2025-06-10", "2025-06-10"), false},
		{"same half", leaveDetails(domain.GranularityAfternoon, "2025-06-10", "2025-06-10"), leaveDetails(domain.GranularityAfternoon, "2025-06-10", "2025-06-10"), true},
		{"half inside multi day", leaveDetails(domain.GranularityMorning, "2025-06-11", "2025-06-11"), leaveDetails(domain.GranularityMultiDay, "2025-06-10", "2025-06-12"), true},
		{"touching ranges", leaveDetails(domain.GranularityMultiDay, "2025-06-12", "2025-06-14"), leaveDetails(domain.GranularityMultiDay, "2025-06-10", "2025-06-12"), true},
		{"adjacent ranges", leaveDetails(domain.GranularityMultiDay, "2025-06-13", "2025-06-14"), leaveDetails(domain.GranularityMultiDay, "2025-06-10", "2025-06-12"), false},
		{"different days", leaveDetails(domain.GranularityMorning, "2025-06-11", "2025-06-11"), leaveDetails(domain.GranularityMorning, "2025-06-10", "2025-06-10"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, request.LeaveConflicts(tc.candidate, tc.existing))
			assert.Equal(t, tc.want, request.LeaveConflicts(tc.existing, tc.candidate))
		})
	}
}

func TestHasLeaveConflict(t *testing.T) {
	emp := uuid.New()
	pending := seededLeave(emp, domain.StatusPending, domain.GranularityFullDay, "2025-06-10", "2025-06-10")
	cancelled := seededLeave(emp, domain.StatusCancelled, domain.GranularityFullDay, "2025-06-11", "2025-06-11")
	rejected := seededLeave(emp, domain.StatusRejected, domain.GranularityFullDay, "2025-06-12", "2025-06-12")
	existing := []request.Request{pending, cancelled, rejected}

	assert.True(t, request.HasLeaveConflict(leaveDetails(domain.GranularityMorning, "2025-06-10", "2025-06-10"), existing, nil))
	assert.False(t, request.HasLeaveConflict(leaveDetails(domain.GranularityMorning, "2025-06-10", "2025-06-10"), existing, &pending.ID))
	assert.False(t, request.HasLeaveConflict(leaveDetails(domain.GranularityMultiDay, "2025-06-11", "2025-06-12"), existing, nil))
}

func TestHasLateArrivalConflict(t *testing.T) {
	emp := uuid.New()
	r := request.Request{ID: uuid.New(), Type: domain.TypeLateArrival, Status: domain.StatusApproved, RequesterID: emp}
	r.SetDetails(request.LateArrivalDetails{Date: date("2025-06-10"), ExpectedArrival: date("2025-06-10").Add(10 * time.Hour)})

	assert.True(t, request.HasLateArrivalConflict(date("2025-06-10"), []request.Request{r}, nil))
	assert.False(t, request.HasLateArrivalConflict(date("2025-06-11"), []request.Request{r}, nil))
	assert.False(t, request.HasLateArrivalConflict(date("2025-06-10"), []request.Request{r}, &r.ID))

	leave := seededLeave(emp, domain.StatusApproved, domain.GranularityFullDay, "2025-06-10", "2025-06-10")
	assert.False(t, request.HasLateArrivalConflict(date("2025-06-10"), []request.Request{leave}, nil))
}

func TestConflictValidator(t *testing.T) {
	repo := newMemRequestRepository()
	emp, other := uuid.New(), uuid.New()
	existing := repo.seed(seededLeave(emp, domain.StatusApproved, domain.GranularityMultiDay, "2025-06-09", "2025-06-13"))
	repo.seed(seededLeave(other, domain.StatusApproved, domain.GranularityFullDay, "2025-06-16", "2025-06-16"))
	v := request.NewConflictValidator(repo)
	ctx := context.Background()

	got, err := v.LeaveConflict(ctx, emp, leaveDetails(domain.GranularityAfternoon, "2025-06-13", "2025-06-13"), nil)
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = v.LeaveConflict(ctx, emp, leaveDetails(domain.GranularityAfternoon, "2025-06-13", "2025-06-13"), &existing.ID)
	assert.NoError(t, err)
	assert.False(t, got)

	got, err = v.LeaveConflict(ctx, emp, leaveDetails(domain.GranularityFullDay, "2025-06-16", "2025-06-16"), nil)
	assert.NoError(t, err)
	assert.False(t, got)

	got, err = v.LateArrivalConflict(ctx, emp, date("2025-06-10"), nil)
	assert.NoError(t, err)
	assert.False(t, got)
}
