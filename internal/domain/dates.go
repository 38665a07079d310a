package domain

import "time"

const DateLayout = "2006-01-02"

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// InclusiveDays counts calendar dates in [start, end]; zero when end precedes start.
func InclusiveDays(start, end time.Time) int {
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// RangesIntersect compares inclusive date-only ranges.
func RangesIntersect(start1, end1, start2, end2 time.Time) bool {
	return !DateOf(start1).After(DateOf(end2)) && !DateOf(end1).Before(DateOf(start2))
}

// MonthBounds returns the first and last calendar date of a month in UTC.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// Supported request years. Quota periods outside this range cannot be stored.
const (
	MinYear = 2000
	MaxYear = 2100
)

func YearSupported(year int) bool {
	return year >= MinYear && year <= MaxYear
}
