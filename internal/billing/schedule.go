package billing

import "time"

// DateOnly returns midnight UTC of t's calendar day in loc.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ScheduleDateFor is the day a renewal invoice goes out: leadDays before the
// subscription ends, pulled back to Friday when that lands on a weekend.
func ScheduleDateFor(subscriptionEnd time.Time, leadDays int) time.Time {
	d := DateOnly(subscriptionEnd, time.UTC).AddDate(0, 0, -leadDays)
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, -1)
	case time.Sunday:
		d = d.AddDate(0, 0, -2)
	}
	return d
}

// DueDateFromToday is the fixed-offset due date used by manual generation.
func DueDateFromToday(today time.Time, days int) time.Time {
	return DateOnly(today, time.UTC).AddDate(0, 0, days)
}
