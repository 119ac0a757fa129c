package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emstod/trunky-backend/internal/model"
	"github.com/emstod/trunky-backend/internal/repository"
)

// Materializer turns recurrence rules into dated task rows. Once a day it
// finds every task with a rule for the current weekday and, if the task's
// most recent occurrence predates today, inserts a fresh occurrence dated
// today.
//
// IDEMPOTENCE:
// The guard is "skip unless the latest occurrence is strictly before today".
// An occurrence dated today (a second run the same day) or in the future
// (a task created ahead of time) means there is nothing to do. Because the
// check keys off the latest occurrence, running twice in one day — or having
// several old occurrences lying around — never produces duplicates. The
// tasks table's (id, date) primary key backs this up at the storage level.
type Materializer struct {
	tasks    repository.TaskRepository
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time // injectable clock for tests
}

// NewMaterializer creates a Materializer that runs every 24 hours.
func NewMaterializer(tasks repository.TaskRepository, logger *slog.Logger) *Materializer {
	return &Materializer{
		tasks:    tasks,
		logger:   logger,
		interval: 24 * time.Hour,
		now:      time.Now,
	}
}

// Start runs the materializer until ctx is cancelled: once immediately, then
// on the interval. The immediate run is what makes missed firings harmless —
// after a restart, any task whose latest occurrence predates today is caught
// right away instead of waiting for the next tick.
func (m *Materializer) Start(ctx context.Context) {
	m.runAndLog(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("materializer stopped")
			return
		case <-ticker.C:
			m.runAndLog(ctx)
		}
	}
}

// Run performs one materialization pass for the current day and reports how
// many occurrences were created and how many tasks failed.
//
// A failure on one task must not starve the rest of the batch: per-task
// errors are logged and counted, and the loop moves on. Only a failure to
// load the day's work list aborts the pass.
func (m *Materializer) Run(ctx context.Context) (created, failed int, err error) {
	today := m.now()
	todayStr := today.Format(model.DateFormat)
	weekday := today.Weekday().String()

	ids, err := m.tasks.RecurringTaskIDs(ctx, weekday)
	if err != nil {
		return 0, 0, fmt.Errorf("loading recurrences for %s: %w", weekday, err)
	}

	for _, id := range ids {
		instances, err := m.tasks.Instances(ctx, id)
		if err != nil {
			failed++
			m.logger.Error("materializer: loading instances failed",
				slog.String("taskID", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(instances) == 0 {
			// Rule without any occurrence rows — nothing to copy from.
			continue
		}

		// Instances come back newest first; ISO dates compare as strings.
		latest := instances[0]
		if latest.Date >= todayStr {
			continue
		}

		next := latest
		next.Date = todayStr
		next.Completed = false

		if err := m.tasks.CreateInstance(ctx, &next); err != nil {
			failed++
			m.logger.Error("materializer: inserting occurrence failed",
				slog.String("taskID", id),
				slog.String("date", todayStr),
				slog.String("error", err.Error()),
			)
			continue
		}
		created++
	}

	return created, failed, nil
}

func (m *Materializer) runAndLog(ctx context.Context) {
	created, failed, err := m.Run(ctx)
	if err != nil {
		m.logger.Error("materializer run failed", slog.String("error", err.Error()))
		return
	}
	m.logger.Info("materializer run complete",
		slog.Int("created", created),
		slog.Int("failed", failed),
	)
}
