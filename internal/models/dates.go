package models

import "time"

// DateParts holds the string fragments used in remote addresses and file names
type DateParts struct {
	Year  string // 2006
	Month string // 01
	Day   string // 20060102
}

// PartsOf renders the calendar date of t as DateParts
func PartsOf(t time.Time) DateParts {
	return DateParts{
		Year:  t.Format("2006"),
		Month: t.Format("01"),
		Day:   t.Format("20060102"),
	}
}

// RunDates contains the dates a single run works with
type RunDates struct {
	Today  time.Time // Invocation date, midnight
	Input  time.Time // Forecast run date, published one day late
	Output time.Time // Date stamped on every output artifact
}

// ResolveDates computes the input and output dates for a run started on today.
// Only the calendar date of today is used.
func ResolveDates(today time.Time) RunDates {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return RunDates{
		Today:  day,
		Input:  day.AddDate(0, 0, -1),
		Output: day,
	}
}

// InputParts returns the fragments for the forecast run date
func (d RunDates) InputParts() DateParts {
	return PartsOf(d.Input)
}

// OutputParts returns the fragments for the output date
func (d RunDates) OutputParts() DateParts {
	return PartsOf(d.Output)
}

// ParseRunDate parses a YYYY-MM-DD override for the invocation date
func ParseRunDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}
