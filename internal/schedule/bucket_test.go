package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/model"
)

// mustDate parses YYYY-MM-DD or fails the test.
func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func TestBucketDate_Daily(t *testing.T) {
	got, err := BucketDate(mustDate(t, "2025-03-12"), model.FrequencyDaily)
	assert.NoError(t, err)
	assert.Equal(t, "2025-03-12", got)
}

func TestBucketDate_Weekly(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"wednesday maps back to sunday", "2025-03-12", "2025-03-09"},
		{"sunday maps to itself", "2025-03-09", "2025-03-09"},
		{"saturday maps back six days", "2025-03-15", "2025-03-09"},
		{"crosses a month boundary", "2025-03-01", "2025-02-23"},
		{"crosses a year boundary", "2025-01-03", "2024-12-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BucketDate(mustDate(t, tt.ref), model.FrequencyWeekly)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Whatever day goes in, a Sunday label must come out.
			bucket := mustDate(t, got)
			assert.Equal(t, time.Sunday, bucket.Weekday())
		})
	}
}

func TestBucketDate_Monthly(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"mid-month", "2025-03-12", "2025-03-01"},
		{"first of month maps to itself", "2025-03-01", "2025-03-01"},
		{"last of month", "2025-02-28", "2025-02-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BucketDate(mustDate(t, tt.ref), model.FrequencyMonthly)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBucketDate_InvalidFrequency(t *testing.T) {
	for _, freq := range []string{"yearly", "DAILY", "", "fortnightly"} {
		t.Run("freq="+freq, func(t *testing.T) {
			got, err := BucketDate(mustDate(t, "2025-03-12"), model.Frequency(freq))
			assert.Empty(t, got)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrInvalidFrequency),
				"error should wrap ErrInvalidFrequency, got %v", err)
		})
	}
}

// A weekly goal completed mid-week must stay visible through Saturday and
// reset on the next Sunday: every day of one calendar week resolves to the
// same bucket, and the following Sunday resolves to a new one.
func TestBucketDate_WeeklyStableAcrossWeek(t *testing.T) {
	week := []string{
		"2025-03-09", // Sunday
		"2025-03-10",
		"2025-03-11",
		"2025-03-12",
		"2025-03-13",
		"2025-03-14",
		"2025-03-15", // Saturday
	}
	for _, day := range week {
		got, err := BucketDate(mustDate(t, day), model.FrequencyWeekly)
		assert.NoError(t, err)
		assert.Equal(t, "2025-03-09", got, "day %s", day)
	}

	next, err := BucketDate(mustDate(t, "2025-03-16"), model.FrequencyWeekly)
	assert.NoError(t, err)
	assert.Equal(t, "2025-03-16", next)
}
