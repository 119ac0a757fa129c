package schedule

import (
	"fmt"
	"time"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/model"
)

// PageSize is the number of date groups served per page of history.
// A fixed design constant, not configuration.
const PageSize = 5

// Page windows date-keyed groups for the paged task view.
//
// The rule the frontend relies on: everything from today forward is ALWAYS
// shown, and history is revealed five groups at a time as the user pages
// backward.
//
//   - groups must be date-ordered oldest-first (the aggregator's output after
//     SortByDate), with every key a YYYY-MM-DD string.
//   - page 0 returns only the current/future partition (group date >= today,
//     day granularity); isLastPage is true iff there is no history at all.
//   - page N (N >= 1) prepends the current/future partition to the
//     PageSize*N most recent past groups; isLastPage is true once
//     (N-1)*PageSize+PageSize reaches the end of the history. Requesting
//     pages past the end is not an error — the past contribution is simply
//     empty and isLastPage is true.
//
// The result is re-ordered oldest-first before returning. On malformed input
// (an unparseable group key, a negative page) Page returns no groups and an
// error — never a truncated page.
func Page[T any](groups []Group[T], today time.Time, page int) ([]Group[T], bool, error) {
	if page < 0 {
		return nil, false, apperror.ValidationFailed("page", fmt.Sprintf("page must be >= 0, got %d", page))
	}
	for _, g := range groups {
		if _, err := time.Parse(model.DateFormat, g.Key); err != nil {
			return nil, false, apperror.ValidationFailed("date", fmt.Sprintf("group key %q is not a date", g.Key))
		}
	}

	day := today.Format(model.DateFormat)

	// Work newest-first: walk the input backward and split at today.
	// ISO date strings order lexicographically, so >= compares days directly.
	var current, past []Group[T]
	for i := len(groups) - 1; i >= 0; i-- {
		if groups[i].Key >= day {
			current = append(current, groups[i])
		} else {
			past = append(past, groups[i])
		}
	}

	var window []Group[T]
	var lastPage bool

	if page == 0 {
		window = current
		lastPage = len(past) == 0
	} else {
		offset := (page - 1) * PageSize
		end := offset + PageSize
		lastPage = end >= len(past)
		if end > len(past) {
			end = len(past)
		}
		window = make([]Group[T], 0, len(current)+end)
		window = append(window, current...)
		window = append(window, past[:end]...)
	}

	// Back to oldest-first for the response.
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}

	return window, lastPage, nil
}
