package quota

import (
	"time"

	"go-timeoff/internal/domain"

	"github.com/shopspring/decimal"
)

var halfDay = decimal.RequireFromString("0.5")

type LeaveEntry struct {
	Granularity domain.LeaveGranularity
	StartDate   time.Time
	EndDate     time.Time
}

type OvertimeEntry struct {
	Date  time.Time
	Hours decimal.Decimal
}

type Usage struct {
	DaysUsed      decimal.Decimal
	OvertimeHours decimal.Decimal
}

// LeaveDaysInMonth is the contribution of one approved leave to the given month.
// Half days count 0.5, a full day 1, and a multi-day span counts only its dates
// inside the month.
func LeaveDaysInMonth(e LeaveEntry, year int, month time.Month) decimal.Decimal {
	monthStart, monthEnd := domain.MonthBounds(year, month)

	if e.Granularity.SingleDay() {
		d := domain.DateOf(e.StartDate)
		if d.Before(monthStart) || d.After(monthEnd) {
			return decimal.Zero
		}
		if e.Granularity.IsHalfDay() {
			return halfDay
		}
		return decimal.NewFromInt(1)
	}

	start := domain.DateOf(e.StartDate)
	if start.Before(monthStart) {
		start = monthStart
	}
	end := domain.DateOf(e.EndDate)
	if end.After(monthEnd) {
		end = monthEnd
	}
	return decimal.NewFromInt(int64(domain.InclusiveDays(start, end)))
}

// ComputeUsage recomputes a month's usage from approved history only. Entries
// outside the month contribute nothing, so the result does not depend on how
// broadly the caller queried.
func ComputeUsage(year int, month time.Month, leaves []LeaveEntry, overtime []OvertimeEntry) Usage {
	u := Usage{DaysUsed: decimal.Zero, OvertimeHours: decimal.Zero}
	for _, l := range leaves {
		u.DaysUsed = u.DaysUsed.Add(LeaveDaysInMonth(l, year, month))
	}

	monthStart, monthEnd := domain.MonthBounds(year, month)
	for _, o := range overtime {
		d := domain.DateOf(o.Date)
		if d.Before(monthStart) || d.After(monthEnd) {
			continue
		}
		u.OvertimeHours = u.OvertimeHours.Add(o.Hours)
	}
	return u
}

// MonthsTouched lists every (year, month) between two dates inclusive.
func MonthsTouched(start, end time.Time) []time.Time {
	s := domain.DateOf(start)
	e := domain.DateOf(end)
	if e.Before(s) {
		e = s
	}

	var months []time.Time
	cur := time.Date(s.Year(), s.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(e) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}
