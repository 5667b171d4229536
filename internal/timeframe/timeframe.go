package timeframe

import (
	"fmt"
	"time"
)

// SQLiteDateFormat is the strftime format used to bucket event timestamps
// into calendar dates.
const SQLiteDateFormat = "%Y-%m-%d"

// DateLayout is the Go layout matching SQLiteDateFormat.
const DateLayout = "2006-01-02"

// DefaultDays is the window size applied when a caller does not specify one.
const DefaultDays = 30

// Window is a span of whole calendar days ending "today". All boundaries are
// computed in UTC so that date bucketing in queries and label generation
// agree on day boundaries.
type Window struct {
	From time.Time
	To   time.Time
	Days int
}

// NewDayWindow builds a window covering days whole calendar days ending at
// now's date. From is the start of the earliest day, To the end of now's
// day. Non-positive day counts fall back to DefaultDays.
func NewDayWindow(days int, now time.Time) Window {
	if days <= 0 {
		days = DefaultDays
	}

	now = now.UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return Window{
		From: startOfToday.AddDate(0, 0, -(days - 1)),
		To:   startOfToday.AddDate(0, 0, 1).Add(-time.Second),
		Days: days,
	}
}

// WithPreviousPeriod returns a window twice the size of w, ending at the
// same instant. Callers diff its results against w's to get a
// period-over-period comparison.
func (w Window) WithPreviousPeriod() Window {
	return NewDayWindow(w.Days*2, w.To)
}

// DateLabels returns the calendar dates covered by the window, ascending,
// formatted with DateLayout. The result always holds exactly Days entries.
func (w Window) DateLabels() []string {
	labels := make([]string, 0, w.Days)
	for day := w.From; !day.After(w.To); day = day.AddDate(0, 0, 1) {
		labels = append(labels, day.Format(DateLayout))
	}
	return labels
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.From) && !t.After(w.To)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s (%dd)", w.From.Format(DateLayout), w.To.Format(DateLayout), w.Days)
}
