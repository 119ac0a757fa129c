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

// compile-time check that *DB implements repository.GoalRepository
var _ repository.GoalRepository = (*DB)(nil)

// CreateGoal inserts a new goal. The ID and timestamps are generated here and
// written back onto the caller's struct (pointer receiver argument).
func (db *DB) CreateGoal(ctx context.Context, goal *model.Goal) error {
	goal.ID = xid.New().String()

	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, title, description, frequency, quantity, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		string(goal.Frequency),
		goal.Quantity,
		goal.Category,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating goal: %w", err)
	}

	return nil
}

// GetGoalByID retrieves a single goal by its ID.
func (db *DB) GetGoalByID(ctx context.Context, id string) (*model.Goal, error) {
	var g model.Goal
	var freq string

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, frequency, quantity, category, created_at, updated_at
		 FROM goals
		 WHERE id = ?`,
		id,
	).Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &freq,
		&g.Quantity, &g.Category, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("goal", id)
		}
		return nil, fmt.Errorf("sqlite: getting goal %s: %w", id, err)
	}

	g.Frequency = model.Frequency(freq)
	return &g, nil
}

// ListGoalsByUser returns all of one user's goals, ordered by category then
// creation time so the category grouping upstream sees a stable order.
func (db *DB) ListGoalsByUser(ctx context.Context, userID string) ([]model.Goal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, title, description, frequency, quantity, category, created_at, updated_at
		 FROM goals
		 WHERE user_id = ?
		 ORDER BY category, created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing goals: %w", err)
	}
	defer rows.Close()

	goals := make([]model.Goal, 0)
	for rows.Next() {
		var g model.Goal
		var freq string
		if err := rows.Scan(
			&g.ID, &g.UserID, &g.Title, &g.Description, &freq,
			&g.Quantity, &g.Category, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning goal row: %w", err)
		}
		g.Frequency = model.Frequency(freq)
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating goals: %w", err)
	}

	return goals, nil
}

// UpdateGoal rewrites the goal row and, when taskIDs is non-nil, reconciles the
// goal_tasks association to exactly that set.
//
// LINK RECONCILIATION BY SET-DIFFERENCE:
// Rather than deleting every link and re-inserting (which would churn rows
// that didn't change), we compute existing-minus-requested (delete those)
// and requested-minus-existing (insert those). Both the goal update and the
// link changes ride in one transaction so a failure can't leave the
// association half-rewritten.
func (db *DB) UpdateGoal(ctx context.Context, goal *model.Goal, taskIDs []string) error {
	goal.UpdatedAt = time.Now()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE goals
			 SET title = ?, description = ?, frequency = ?, quantity = ?, category = ?, updated_at = ?
			 WHERE id = ?`,
			goal.Title,
			goal.Description,
			string(goal.Frequency),
			goal.Quantity,
			goal.Category,
			goal.UpdatedAt,
			goal.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating goal %s: %w", goal.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("goal", goal.ID)
		}

		if taskIDs == nil {
			return nil
		}

		existing, err := linkedTaskIDsTx(ctx, tx, goal.ID)
		if err != nil {
			return err
		}

		requested := make(map[string]bool, len(taskIDs))
		for _, id := range taskIDs {
			requested[id] = true
		}
		current := make(map[string]bool, len(existing))
		for _, id := range existing {
			current[id] = true
		}

		for _, id := range existing {
			if !requested[id] {
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM goal_tasks WHERE goal_id = ? AND task_id = ?`,
					goal.ID, id,
				); err != nil {
					return fmt.Errorf("sqlite: unlinking task %s from goal %s: %w", id, goal.ID, err)
				}
			}
		}
		for _, id := range taskIDs {
			if !current[id] {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO goal_tasks (goal_id, task_id) VALUES (?, ?)`,
					goal.ID, id,
				); err != nil {
					return fmt.Errorf("sqlite: linking task %s to goal %s: %w", id, goal.ID, err)
				}
			}
		}

		return nil
	})
}

// DeleteGoal removes a goal and everything hanging off it — completion records
// and task links — in one transaction, children first.
func (db *DB) DeleteGoal(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM goal_completions WHERE goal_id = ?`, id,
		); err != nil {
			return fmt.Errorf("sqlite: deleting completions for goal %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM goal_tasks WHERE goal_id = ?`, id,
		); err != nil {
			return fmt.Errorf("sqlite: deleting task links for goal %s: %w", id, err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting goal %s: %w", id, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("goal", id)
		}

		return nil
	})
}

// LinkedTaskIDs returns the ids of tasks associated with the goal.
func (db *DB) LinkedTaskIDs(ctx context.Context, goalID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT task_id FROM goal_tasks WHERE goal_id = ? ORDER BY task_id`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing task links for goal %s: %w", goalID, err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// linkedTaskIDsTx is LinkedTaskIDs inside an existing transaction.
func linkedTaskIDsTx(ctx context.Context, tx *sql.Tx, goalID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT task_id FROM goal_tasks WHERE goal_id = ? ORDER BY task_id`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing task links for goal %s: %w", goalID, err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ids: %w", err)
	}
	return ids, nil
}

// SetCompletion records the completion count for one (goal, bucket date)
// pair as a single atomic upsert.
//
// WHY ON CONFLICT AND NOT SELECT-THEN-INSERT?
// Two concurrent requests doing "check if a row exists, then insert or
// update" can both see no row and both insert — the classic check-then-act
// race. ON CONFLICT DO UPDATE is one statement, so the database serializes
// it for us and the race disappears.
func (db *DB) SetCompletion(ctx context.Context, goalID, date string, completed int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO goal_completions (goal_id, date, completed)
		 VALUES (?, ?, ?)
		 ON CONFLICT (goal_id, date) DO UPDATE SET completed = excluded.completed`,
		goalID, date, completed,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting completion for goal %s on %s: %w", goalID, date, err)
	}
	return nil
}

// Completion returns the recorded count for one bucket date. A missing row
// means the period simply hasn't been logged yet — that's 0, not an error.
func (db *DB) Completion(ctx context.Context, goalID, date string) (int, error) {
	var completed int
	err := db.conn.QueryRowContext(ctx,
		`SELECT completed FROM goal_completions WHERE goal_id = ? AND date = ?`,
		goalID, date,
	).Scan(&completed)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("sqlite: getting completion for goal %s on %s: %w", goalID, date, err)
	}
	return completed, nil
}
