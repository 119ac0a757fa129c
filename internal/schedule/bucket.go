// Package schedule holds the calendar logic at the heart of the tracker:
// resolving which bucket date a goal completion belongs to, grouping tasks
// and goals into category- or date-keyed collections, windowing date groups
// into pages, and collapsing recurrence-generated duplicate rows.
//
// Everything in this package is a pure transform: plain data in, plain data
// out, no persistence calls and no clock reads. Callers pass the reference
// date in explicitly, which is what makes the calendar arithmetic testable
// against fixed dates instead of time.Now().
package schedule

import (
	"time"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/model"
)

// BucketDate resolves the canonical calendar-day key under which a goal's
// completion for the period containing ref is recorded.
//
//   - daily:   ref's own calendar day
//   - weekly:  the most recent Sunday on or before ref (a Sunday maps to itself)
//   - monthly: the first day of ref's month
//
// The weekly case leans on Go's time.Weekday numbering: Sunday is 0, so
// subtracting int(Weekday()) days always lands on the week's Sunday.
//
// An unrecognized frequency is an error, not an empty bucket — a completion
// filed under "" would silently vanish from every read.
func BucketDate(ref time.Time, freq model.Frequency) (string, error) {
	switch freq {
	case model.FrequencyDaily:
		return ref.Format(model.DateFormat), nil

	case model.FrequencyWeekly:
		sunday := ref.AddDate(0, 0, -int(ref.Weekday()))
		return sunday.Format(model.DateFormat), nil

	case model.FrequencyMonthly:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return first.Format(model.DateFormat), nil

	default:
		return "", apperror.InvalidFrequency(string(freq))
	}
}
