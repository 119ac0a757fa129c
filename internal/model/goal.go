// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Frequency is how often a goal resets: every day, every week (Sunday to
// Saturday), or every calendar month. It determines which bucket date a
// completion record is filed under — see internal/schedule.BucketDate.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is one of the three recognized frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Goal represents a recurring personal goal, e.g. "walk a quarter mile" with
// frequency=daily and quantity=2.
//
// Completed is NOT a stored column on the goals table — it is the completion
// count recorded under the goal's current bucket date, filled in at read time.
// TaskIDs holds the ids of tasks linked to this goal (goal_tasks rows); it is
// populated on single-goal reads and reconciled on update.
type Goal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Frequency   Frequency `json:"frequency"`
	Quantity    int       `json:"quantity"` // target count per period
	Category    string    `json:"category"`
	UserID      string    `json:"-"`
	Completed   int       `json:"completed"`
	TaskIDs     []string  `json:"taskIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GoalCompletion is one goal's completion count for one bucket date.
// The (GoalID, Date) pair is the natural key — one row per goal per period.
type GoalCompletion struct {
	GoalID    string `json:"goalId"`
	Date      string `json:"date"` // bucket date, YYYY-MM-DD
	Completed int    `json:"completed"`
}
