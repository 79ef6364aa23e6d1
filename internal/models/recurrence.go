package models

import "time"

// RecurringInterval is the cadence of a recurring transaction.
type RecurringInterval string

const (
	RecurringDaily   RecurringInterval = "DAILY"
	RecurringWeekly  RecurringInterval = "WEEKLY"
	RecurringMonthly RecurringInterval = "MONTHLY"
	RecurringYearly  RecurringInterval = "YEARLY"
)

// IsValid reports whether r is a known interval.
func (r RecurringInterval) IsValid() bool {
	switch r {
	case RecurringDaily, RecurringWeekly, RecurringMonthly, RecurringYearly:
		return true
	}
	return false
}

// Next returns the occurrence following from.
//
// Monthly and yearly steps keep the day of month but clamp to the last day of
// the target month, so Jan 31 is followed by the end of February and Feb 29
// by Feb 28 in non-leap years. The clock time and location are preserved.
func (r RecurringInterval) Next(from time.Time) time.Time {
	switch r {
	case RecurringDaily:
		return from.AddDate(0, 0, 1)
	case RecurringWeekly:
		return from.AddDate(0, 0, 7)
	case RecurringMonthly:
		return addMonthsClamped(from, 1)
	case RecurringYearly:
		return addMonthsClamped(from, 12)
	}
	return from
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	// Day 1 never overflows, so this lands in the intended month.
	first := time.Date(year, month+time.Month(months), 1, hour, min, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
