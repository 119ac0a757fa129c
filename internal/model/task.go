// Package model defines the data structures used throughout the application.
package model

import "time"

// DateFormat is the calendar-day layout used everywhere a date crosses a
// boundary: task dates, completion bucket dates, URL parameters. All date
// arithmetic in this app is local-calendar-day based — no timezones.
const DateFormat = "2006-01-02"

// Task represents one dated occurrence of a (possibly recurring) task.
//
// MULTIPLE ROWS PER ID:
// Rows sharing an ID are occurrences of the same logical task on different
// dates — the recurrence materializer inserts a fresh row each time a task
// comes due again. The tasks table therefore has a composite primary key
// (id, date), not id alone. "Delete a task" always means "delete one
// occurrence"; the last occurrence takes the recurrence rules with it.
//
// Recurrence holds the weekday labels ("Sunday"…"Saturday") this task
// regenerates on. Zero entries means non-recurring; it is loaded from the
// recurrences table on reads and rewritten wholesale on update.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Category    string    `json:"category"`
	UserID      string    `json:"-"`
	Recurrence  []string  `json:"recurrence,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidWeekday reports whether label is one of Go's time.Weekday names
// ("Sunday" through "Saturday"). Recurrence rules store these labels.
func ValidWeekday(label string) bool {
	switch label {
	case "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday":
		return true
	}
	return false
}
