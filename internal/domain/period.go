package domain

import "time"

// AddMonths advances t by n calendar months, clamping the day to the end of
// the target month instead of normalizing into the following one
// (Jan 31 + 1 month = Feb 28/29, not Mar 2/3). Time of day is preserved.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	month += time.Month(n)
	// time.Date normalizes month overflow for us; day overflow is what we
	// clamp by probing the first of the following month.
	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	h, m, s := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, h, m, s, t.Nanosecond(), t.Location())
}

// NextPeriodStart advances t by one frequency step.
func NextPeriodStart(t time.Time, f Frequency) time.Time {
	switch f {
	case FrequencyQuarterly:
		return AddMonths(t, 3)
	case FrequencyYearly:
		return AddMonths(t, 12)
	default:
		return AddMonths(t, 1)
	}
}

// monthsBetween returns the number of whole clamped calendar months from
// start to end and whether leftover days remain beyond the last whole month.
func monthsBetween(start, end time.Time) (months int, leftover bool) {
	months = (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
	if months < 0 {
		return 0, false
	}
	if months > 0 && AddMonths(start, months).After(end) {
		months--
	}
	return months, AddMonths(start, months).Before(end)
}

// PeriodCount returns the number of amortization periods spanned by
// [start, end] at the given frequency. A partial trailing month or year
// counts as one extra period; quarterly counts whole months only. The
// result is at least 1 for any end after start.
func PeriodCount(start, end time.Time, f Frequency) (int, error) {
	if !end.After(start) {
		return 0, ErrInvalidPeriod
	}
	months, leftover := monthsBetween(start, end)
	var n int
	switch f {
	case FrequencyMonthly:
		n = months
		if leftover {
			n++
		}
	case FrequencyQuarterly:
		n = (months + 2) / 3
	case FrequencyYearly:
		n = months / 12
		if months%12 > 0 || leftover {
			n++
		}
	default:
		return 0, ErrInvalidFrequency
	}
	if n < 1 {
		n = 1
	}
	return n, nil
}

// daysBetween counts whole days from a to b, flooring both to midnight UTC
// so time-of-day noise does not shift the count.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
