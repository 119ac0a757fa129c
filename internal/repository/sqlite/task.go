package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/model"
	"github.com/emstod/trunky-backend/internal/repository"
)

// compile-time check that *DB implements repository.TaskRepository
var _ repository.TaskRepository = (*DB)(nil)

// CreateTask inserts a task's first occurrence plus its recurrence rules, in one
// transaction. The generated id is shared by every future occurrence the
// materializer inserts.
func (db *DB) CreateTask(ctx context.Context, task *model.Task, weekdays []string) error {
	task.ID = xid.New().String()

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Recurrence = weekdays

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, date, user_id, title, description, completed, category, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			task.ID,
			task.Date,
			task.UserID,
			task.Title,
			task.Description,
			task.Completed,
			task.Category,
			task.CreatedAt,
			task.UpdatedAt,
		); err != nil {
			return fmt.Errorf("sqlite: creating task: %w", err)
		}

		for _, day := range weekdays {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recurrences (task_id, weekday) VALUES (?, ?)`,
				task.ID, day,
			); err != nil {
				return fmt.Errorf("sqlite: adding recurrence %s for task %s: %w", day, task.ID, err)
			}
		}

		return nil
	})
}

// GetOccurrence retrieves one dated occurrence of a task, with its
// recurrence rules attached.
func (db *DB) GetOccurrence(ctx context.Context, id, date string) (*model.Task, error) {
	var t model.Task

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, date, user_id, title, description, completed, category, created_at, updated_at
		 FROM tasks
		 WHERE id = ? AND date = ?`,
		id, date,
	).Scan(
		&t.ID, &t.Date, &t.UserID, &t.Title, &t.Description,
		&t.Completed, &t.Category, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s on %s: %w", id, date, err)
	}

	recurrence, err := db.Recurrence(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Recurrence = recurrence

	return &t, nil
}

// ListTasksByUser returns all of one user's task occurrences, every dated row,
// ordered oldest first. Grouping, paging, and deduplication happen upstream
// in the schedule package — this is just the flat projection.
func (db *DB) ListTasksByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, date, user_id, title, description, completed, category, created_at, updated_at
		 FROM tasks
		 WHERE user_id = ?
		 ORDER BY date, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// Instances returns every occurrence sharing the task id, newest first.
// The materializer reads index 0 to find the most recent occurrence.
func (db *DB) Instances(ctx context.Context, id string) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, date, user_id, title, description, completed, category, created_at, updated_at
		 FROM tasks
		 WHERE id = ?
		 ORDER BY date DESC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing instances of task %s: %w", id, err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// CreateInstance inserts one additional occurrence of an existing task.
// The composite (id, date) primary key rejects a second row for the same
// day, which backs up the materializer's idempotence check at the storage
// level.
func (db *DB) CreateInstance(ctx context.Context, task *model.Task) error {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tasks (id, date, user_id, title, description, completed, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Date,
		task.UserID,
		task.Title,
		task.Description,
		task.Completed,
		task.Category,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting instance of task %s on %s: %w", task.ID, task.Date, err)
	}

	return nil
}

// UpdateTask rewrites one occurrence and, when weekdays is non-nil, replaces the
// task's recurrence rules wholesale (delete all, insert requested) in the
// same transaction.
func (db *DB) UpdateTask(ctx context.Context, task *model.Task, weekdays []string) error {
	task.UpdatedAt = time.Now()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE tasks
			 SET title = ?, description = ?, completed = ?, category = ?, updated_at = ?
			 WHERE id = ? AND date = ?`,
			task.Title,
			task.Description,
			task.Completed,
			task.Category,
			task.UpdatedAt,
			task.ID,
			task.Date,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating task %s on %s: %w", task.ID, task.Date, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("task", task.ID)
		}

		if weekdays == nil {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recurrences WHERE task_id = ?`, task.ID,
		); err != nil {
			return fmt.Errorf("sqlite: clearing recurrences for task %s: %w", task.ID, err)
		}
		for _, day := range weekdays {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recurrences (task_id, weekday) VALUES (?, ?)`,
				task.ID, day,
			); err != nil {
				return fmt.Errorf("sqlite: adding recurrence %s for task %s: %w", day, task.ID, err)
			}
		}
		task.Recurrence = weekdays

		return nil
	})
}

// DeleteOccurrence removes one dated row. When it was the last occurrence of
// the task, the recurrence rules and any goal links go with it — a task with
// no occurrences left is gone entirely.
func (db *DB) DeleteOccurrence(ctx context.Context, id, date string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM tasks WHERE id = ? AND date = ?`, id, date,
		)
		if err != nil {
			return fmt.Errorf("sqlite: deleting task %s on %s: %w", id, date, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("task", id)
		}

		var remaining int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tasks WHERE id = ?`, id,
		).Scan(&remaining); err != nil {
			return fmt.Errorf("sqlite: counting remaining occurrences of task %s: %w", id, err)
		}

		if remaining == 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM recurrences WHERE task_id = ?`, id,
			); err != nil {
				return fmt.Errorf("sqlite: deleting recurrences for task %s: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM goal_tasks WHERE task_id = ?`, id,
			); err != nil {
				return fmt.Errorf("sqlite: deleting goal links for task %s: %w", id, err)
			}
		}

		return nil
	})
}

// RecurringTaskIDs returns the ids of tasks that regenerate on the given
// weekday label. This is the materializer's daily work list.
func (db *DB) RecurringTaskIDs(ctx context.Context, weekday string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT task_id FROM recurrences WHERE weekday = ? ORDER BY task_id`,
		weekday,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recurrences for %s: %w", weekday, err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// Recurrence returns the weekday labels a task regenerates on.
func (db *DB) Recurrence(ctx context.Context, id string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT weekday FROM recurrences WHERE task_id = ? ORDER BY weekday`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recurrence for task %s: %w", id, err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.Date, &t.UserID, &t.Title, &t.Description,
			&t.Completed, &t.Category, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}
	return tasks, nil
}
