package request

import (
	"strings"
	"time"
	"unicode/utf8"

	"go-timeoff/internal/domain"
	requesterrors "go-timeoff/internal/request/errors"

	"github.com/shopspring/decimal"
)

const maxTextLength = 500

var (
	minOvertimeHours = decimal.NewFromFloat(0.5)
	maxOvertimeHours = decimal.NewFromInt(24)
	half             = decimal.NewFromFloat(0.5)
)

// detailsInput is the union of per-type input blocks shared by create and update.
type detailsInput struct {
	leave        *LeaveInput
	overtime     *OvertimeInput
	lateArrival  *LateArrivalInput
	businessTrip *BusinessTripInput
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", requesterrors.ErrReasonRequired
	}
	if utf8.RuneCountInString(reason) > maxTextLength {
		return "", requesterrors.ErrReasonTooLong
	}
	return reason, nil
}

func parseRequiredDate(v string, missing error) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return time.Time{}, missing
	}
	t, err := domain.ParseDate(strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, requesterrors.ErrInvalidDate
	}
	return t, nil
}

// parseDetails turns the input block for typ into a Details value. Only field
// presence and format are checked here; rules live in validateDetails.
func parseDetails(typ domain.RequestType, in detailsInput) (Details, error) {
	switch typ {
	case domain.TypeLeave:
		if in.leave == nil {
			return nil, requesterrors.ErrDetailsRequired
		}
		if in.leave.Granularity == "" {
			return nil, requesterrors.ErrGranularityRequired
		}
		g := domain.LeaveGranularity(strings.ToUpper(in.leave.Granularity))
		if !g.Valid() {
			return nil, requesterrors.ErrInvalidGranularity
		}
		start, err := parseRequiredDate(in.leave.StartDate, requesterrors.ErrStartDateRequired)
		if err != nil {
			return nil, err
		}
		end, err := parseRequiredDate(in.leave.EndDate, requesterrors.ErrEndDateRequired)
		if err != nil {
			return nil, err
		}
		return LeaveDetails{Granularity: g, StartDate: start, EndDate: end}, nil

	case domain.TypeOvertime:
		if in.overtime == nil {
			return nil, requesterrors.ErrDetailsRequired
		}
		date, err := parseRequiredDate(in.overtime.Date, requesterrors.ErrDateRequired)
		if err != nil {
			return nil, err
		}
		return OvertimeDetails{Date: date, Hours: decimal.NewFromFloat(in.overtime.Hours)}, nil

	case domain.TypeLateArrival:
		if in.lateArrival == nil {
			return nil, requesterrors.ErrDetailsRequired
		}
		date, err := parseRequiredDate(in.lateArrival.Date, requesterrors.ErrDateRequired)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.lateArrival.ExpectedArrival) == "" {
			return nil, requesterrors.ErrExpectedArrivalRequired
		}
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(in.lateArrival.ExpectedArrival))
		if err != nil {
			return nil, requesterrors.ErrInvalidExpectedArrival
		}
		return LateArrivalDetails{Date: date, ExpectedArrival: at.UTC()}, nil

	case domain.TypeBusinessTrip:
		if in.businessTrip == nil {
			return nil, requesterrors.ErrDetailsRequired
		}
		start, err := parseRequiredDate(in.businessTrip.StartDate, requesterrors.ErrStartDateRequired)
		if err != nil {
			return nil, err
		}
		end, err := parseRequiredDate(in.businessTrip.EndDate, requesterrors.ErrEndDateRequired)
		if err != nil {
			return nil, err
		}
		return BusinessTripDetails{
			Location:  strings.TrimSpace(in.businessTrip.Location),
			Purpose:   strings.TrimSpace(in.businessTrip.Purpose),
			StartDate: start,
			EndDate:   end,
		}, nil
	}
	return nil, requesterrors.ErrInvalidType
}

// validateDetails applies the per-type rules. now is only used to reject leave
// starting before today's UTC date.
func validateDetails(d Details, now time.Time) error {
	switch v := d.(type) {
	case LeaveDetails:
		if !v.Granularity.Valid() {
			return requesterrors.ErrInvalidGranularity
		}
		if v.StartDate.IsZero() {
			return requesterrors.ErrStartDateRequired
		}
		if v.EndDate.IsZero() {
			return requesterrors.ErrEndDateRequired
		}
		if v.StartDate.After(v.EndDate) {
			return requesterrors.ErrInvalidDateRange
		}
		if v.Granularity.SingleDay() && !v.StartDate.Equal(v.EndDate) {
			return requesterrors.ErrSingleDaySpan
		}
		if err := checkYears(v.StartDate, v.EndDate); err != nil {
			return err
		}
		if v.StartDate.Before(domain.DateOf(now)) {
			return requesterrors.ErrStartInPast
		}
		return nil

	case OvertimeDetails:
		if v.Date.IsZero() {
			return requesterrors.ErrDateRequired
		}
		if v.Hours.LessThan(minOvertimeHours) || v.Hours.GreaterThan(maxOvertimeHours) {
			return requesterrors.ErrInvalidHours
		}
		if !v.Hours.Mod(half).IsZero() {
			return requesterrors.ErrInvalidHours
		}
		return checkYears(v.Date)

	case LateArrivalDetails:
		if v.Date.IsZero() {
			return requesterrors.ErrDateRequired
		}
		if v.ExpectedArrival.IsZero() {
			return requesterrors.ErrExpectedArrivalRequired
		}
		if !domain.DateOf(v.ExpectedArrival).Equal(v.Date) {
			return requesterrors.ErrInvalidExpectedArrival
		}
		return checkYears(v.Date)

	case BusinessTripDetails:
		if v.Location == "" {
			return requesterrors.ErrLocationRequired
		}
		if utf8.RuneCountInString(v.Location) > 255 {
			return requesterrors.ErrInvalidDetails("location")
		}
		if v.Purpose == "" {
			return requesterrors.ErrPurposeRequired
		}
		if utf8.RuneCountInString(v.Purpose) > maxTextLength {
			return requesterrors.ErrInvalidDetails("purpose")
		}
		if v.StartDate.IsZero() {
			return requesterrors.ErrStartDateRequired
		}
		if v.EndDate.IsZero() {
			return requesterrors.ErrEndDateRequired
		}
		if v.StartDate.After(v.EndDate) {
			return requesterrors.ErrInvalidDateRange
		}
		return checkYears(v.StartDate, v.EndDate)
	}
	return requesterrors.ErrInvalidType
}

// checkYears keeps every request inside the years the quota ledger can record.
func checkYears(dates ...time.Time) error {
	for _, d := range dates {
		if !domain.YearSupported(d.Year()) {
			return requesterrors.ErrYearOutOfRange
		}
	}
	return nil
}

// LeaveDays is the display day count of a leave: 0.5 per half day, otherwise
// the inclusive number of dates.
func LeaveDays(d LeaveDetails) decimal.Decimal {
	if d.Granularity.IsHalfDay() {
		return half
	}
	return decimal.NewFromInt(int64(domain.InclusiveDays(d.StartDate, d.EndDate)))
}
