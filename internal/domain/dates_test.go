package domain_test

import (
	"testing"
	"time"

	"go-timeoff/internal/domain"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, _ := domain.ParseDate(s)
	return t
}

func TestInclusiveDays(t *testing.T) {
	assert.Equal(t, 1, domain.InclusiveDays(date("2025-01-05"), date("2025-01-05")))
	assert.Equal(t, 4, domain.InclusiveDays(date("2025-11-18"), date("2025-11-21")))
	assert.Equal(t, 0, domain.InclusiveDays(date("2025-11-21"), date("2025-11-18")))

	// time of day is ignored
	start := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 0, 15, 0, 0, time.UTC)
	assert.Equal(t, 2, domain.InclusiveDays(start, end))
}

func TestRangesIntersect(t *testing.T) {
	assert.True(t, domain.RangesIntersect(date("2025-06-10"), date("2025-06-10"), date("2025-06-10"), date("2025-06-12")))
	assert.True(t, domain.RangesIntersect(date("2025-06-08"), date("2025-06-10"), date("2025-06-10"), date("2025-06-12")))
	assert.False(t, domain.RangesIntersect(date("2025-06-08"), date("2025-06-09"), date("2025-06-10"), date("2025-06-12")))
}

func TestMonthBounds(t *testing.T) {
	start, end := domain.MonthBounds(2024, time.February)
	assert.Equal(t, "2024-02-01", start.Format(domain.DateLayout))
	assert.Equal(t, "2024-02-29", end.Format(domain.DateLayout))

	start, end = domain.MonthBounds(2025, time.December)
	assert.Equal(t, "2025-12-01", start.Format(domain.DateLayout))
	assert.Equal(t, "2025-12-31", end.Format(domain.DateLayout))
}

func TestRequestType(t *testing.T) {
	assert.Equal(t, "NP", domain.TypeLeave.CodePrefix())
	assert.Equal(t, "TC", domain.TypeOvertime.CodePrefix())
	assert.Equal(t, "DM", domain.TypeLateArrival.CodePrefix())
	assert.Equal(t, "CT", domain.TypeBusinessTrip.CodePrefix())
	assert.True(t, domain.TypeLeave.AffectsQuota())
	assert.True(t, domain.TypeOvertime.AffectsQuota())
	assert.False(t, domain.TypeLateArrival.AffectsQuota())
	assert.False(t, domain.RequestType("VACATION").Valid())
}

func TestRequestStatus(t *testing.T) {
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.True(t, domain.StatusCancelled.IsTerminal())
	assert.True(t, domain.StatusApproved.AuditRetained())
	assert.True(t, domain.StatusRejected.AuditRetained())
	assert.False(t, domain.StatusCancelled.AuditRetained())
}

func TestYearSupported(t *testing.T) {
	assert.True(t, domain.YearSupported(domain.MinYear))
	assert.True(t, domain.YearSupported(domain.MaxYear))
	assert.False(t, domain.YearSupported(1999))
	assert.False(t, domain.YearSupported(2101))
}
