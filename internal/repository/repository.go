package repository

import (
	"context"

	"github.com/emstod/trunky-backend/internal/model"
)

type GoalRepository interface {
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoalByID(ctx context.Context, id string) (*model.Goal, error)
	ListGoalsByUser(ctx context.Context, userID string) ([]model.Goal, error)
	// UpdateGoal rewrites the goal row and, when taskIDs is non-nil,
	// reconciles the goal_tasks links by set-difference inside one
	// transaction.
	UpdateGoal(ctx context.Context, goal *model.Goal, taskIDs []string) error
	// DeleteGoal removes the goal together with its completions and task links.
	DeleteGoal(ctx context.Context, id string) error
	LinkedTaskIDs(ctx context.Context, goalID string) ([]string, error)
	// SetCompletion upserts the completion count for one bucket date as a
	// single atomic statement.
	SetCompletion(ctx context.Context, goalID, date string, completed int) error
	// Completion returns the recorded count for one bucket date, 0 when no
	// row exists.
	Completion(ctx context.Context, goalID, date string) (int, error)
}

type TaskRepository interface {
	// CreateTask inserts the first occurrence plus its recurrence rules.
	CreateTask(ctx context.Context, task *model.Task, weekdays []string) error
	GetOccurrence(ctx context.Context, id, date string) (*model.Task, error)
	ListTasksByUser(ctx context.Context, userID string) ([]model.Task, error)
	// Instances returns every occurrence sharing the task id, newest first.
	Instances(ctx context.Context, id string) ([]model.Task, error)
	// CreateInstance inserts one additional occurrence of an existing task.
	CreateInstance(ctx context.Context, task *model.Task) error
	// UpdateTask rewrites one occurrence and replaces the recurrence rules
	// wholesale when weekdays is non-nil.
	UpdateTask(ctx context.Context, task *model.Task, weekdays []string) error
	// DeleteOccurrence removes one dated row; deleting the last occurrence
	// cascades to the recurrence rules and goal links.
	DeleteOccurrence(ctx context.Context, id, date string) error
	// RecurringTaskIDs returns the ids of tasks with a recurrence rule for
	// the given weekday label.
	RecurringTaskIDs(ctx context.Context, weekday string) ([]string, error)
	Recurrence(ctx context.Context, id string) ([]string, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub inserts or refreshes a user keyed on their GitHub ID.
	UpsertGitHub(ctx context.Context, user *model.User) error
}
