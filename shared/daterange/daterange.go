// Package daterange converts calendar-date inputs (YYYYMMDD) into inclusive timestamp bounds.
//
// A start date maps to 00:00:00 of that day and an end date maps to 23:59:59 of that day,
// both in the application timezone.
package daterange

import (
	"fmt"
	"rental/shared/constant"
	"rental/shared/failure"
	"rental/shared/timezone"
	"time"
)

const (
	DefaultMaxDays = 90

	hoursPerDay = 24
)

// Range is an inclusive [Start, End] window.
type Range struct {
	Start time.Time
	End   time.Time
}

// Parse normalizes a pair of YYYYMMDD strings into a Range.
func Parse(startDate, endDate string) (Range, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return Range{}, err
	}

	end, err := ParseDate(endDate)
	if err != nil {
		return Range{}, err
	}

	return FromDates(start, end), nil
}

// ParseDate parses a single YYYYMMDD value at midnight in the application timezone.
func ParseDate(value string) (time.Time, error) {
	date, err := timezone.Parse(constant.DateFormatCompact, value)
	if err != nil {
		return time.Time{}, failure.BadRequestFromString(fmt.Sprintf("invalid date %q, expected format YYYYMMDD", value)) // nolint:wrapcheck
	}

	return date, nil
}

// FromDates builds a Range covering the whole calendar days of start through end.
func FromDates(start, end time.Time) Range {
	return Range{
		Start: StartOfDay(start),
		End:   EndOfDay(end),
	}
}

// Default returns the window used when a caller omits one or both dates: the start falls back to
// today and the end to start plus days.
func Default(startDate, endDate string, days int) (Range, error) {
	start := timezone.Now()

	if startDate != "" {
		parsed, err := ParseDate(startDate)
		if err != nil {
			return Range{}, err
		}

		start = parsed
	}

	end := start.AddDate(0, 0, days)

	if endDate != "" {
		parsed, err := ParseDate(endDate)
		if err != nil {
			return Range{}, err
		}

		end = parsed
	}

	return FromDates(start, end), nil
}

func StartOfDay(t time.Time) time.Time {
	t = timezone.ToAppTime(t)

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Second)
}

// Validate rejects ranges whose end precedes the start or that span more than maxDays.
// A non-positive maxDays falls back to DefaultMaxDays.
func (r Range) Validate(maxDays int) error {
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}

	if !r.Start.Before(r.End) {
		return failure.BadRequestFromString("end date must not be before start date") // nolint:wrapcheck
	}

	if r.TotalDays() > float64(maxDays) {
		return failure.BadRequestFromString(fmt.Sprintf("date range must not exceed %d days", maxDays)) // nolint:wrapcheck
	}

	return nil
}

// TotalDays is the fractional length of the range in days.
func (r Range) TotalDays() float64 {
	return r.End.Sub(r.Start).Hours() / hoursPerDay
}

// Contains reports whether t falls inside the inclusive range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Dates expands the range into one YYYYMMDD entry per calendar day.
func (r Range) Dates() []string {
	dates := []string{}

	for day := StartOfDay(r.Start); !day.After(r.End); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format(constant.DateFormatCompact))
	}

	return dates
}

// Clip returns the intersection of r and other. ok is false when they do not intersect.
func (r Range) Clip(other Range) (clipped Range, ok bool) {
	if r.Start.After(other.End) || other.Start.After(r.End) {
		return Range{}, false
	}

	clipped = r

	if other.Start.After(clipped.Start) {
		clipped.Start = other.Start
	}

	if other.End.Before(clipped.End) {
		clipped.End = other.End
	}

	return clipped, true
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", Format(r.Start), Format(r.End))
}

// Format renders t as YYYYMMDD in the application timezone.
func Format(t time.Time) string {
	return timezone.Format(t, constant.DateFormatCompact)
}
