package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/model"
	"github.com/emstod/trunky-backend/internal/repository"
	"github.com/emstod/trunky-backend/internal/schedule"
)

// TaskService handles business logic for tasks and their occurrences.
type TaskService struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(tasks repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		logger: logger,
	}
}

// TaskInput carries the client-settable task fields. Recurrence, when
// non-nil on update, replaces the task's weekday rules wholesale.
type TaskInput struct {
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Category    string   `json:"category"`
	Recurrence  []string `json:"recurrence"`
}

func (in *TaskInput) validate(requireDate bool) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperror.ValidationFailed("title", "task title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("task title must be %d characters or less", MaxTitleLength))
	}
	if requireDate {
		if _, err := time.Parse(model.DateFormat, in.Date); err != nil {
			return apperror.ValidationFailed("date",
				fmt.Sprintf("date must be formatted %s", model.DateFormat))
		}
	}
	for _, day := range in.Recurrence {
		if !model.ValidWeekday(day) {
			return apperror.ValidationFailed("recurrence",
				fmt.Sprintf("%q is not a weekday name", day))
		}
	}
	return nil
}

// Create validates and saves a new task: its first dated occurrence plus any
// recurrence rules.
func (s *TaskService) Create(ctx context.Context, userID string, in TaskInput) (*model.Task, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:       in.Title,
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
		Completed:   in.Completed,
		Category:    strings.TrimSpace(in.Category),
		UserID:      userID,
	}

	if err := s.tasks.CreateTask(ctx, task, in.Recurrence); err != nil {
		s.logger.Error("failed to create task",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("date", task.Date),
		slog.String("userID", userID),
	)

	return task, nil
}

// List returns the user's tasks as a flat list, newest first, with
// recurrence-generated occurrences collapsed to one row per task id (the
// most recent one). This is the view where "the same task, different
// occurrence" should read as a single task.
func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.tasks.ListTasksByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	schedule.SortByDate(tasks, func(t model.Task) string { return t.Date })

	// Newest first, then keep the first (latest) occurrence per id.
	for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
		tasks[i], tasks[j] = tasks[j], tasks[i]
	}
	return schedule.DedupeByID(tasks, func(t model.Task) string { return t.ID }), nil
}

// Get returns one dated occurrence of the user's task, recurrence attached.
func (s *TaskService) Get(ctx context.Context, userID, id, date string) (*model.Task, error) {
	return s.ownedOccurrence(ctx, userID, id, date)
}

// ListGroupedByCategory returns the user's tasks grouped by category label in
// first-seen order, each group's contents sorted oldest first.
func (s *TaskService) ListGroupedByCategory(ctx context.Context, userID string) ([]schedule.Group[model.Task], error) {
	tasks, err := s.tasks.ListTasksByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	schedule.SortByDate(tasks, func(t model.Task) string { return t.Date })
	return schedule.GroupBy(tasks, func(t model.Task) string { return t.Category }), nil
}

// ListGroupedByDate returns one page of the user's tasks grouped by date:
// everything from today forward plus a five-group window into the past.
// Unlike the flat view, duplicates are kept — each occurrence belongs to its
// own date group.
func (s *TaskService) ListGroupedByDate(ctx context.Context, userID string, today time.Time, page int) ([]schedule.Group[model.Task], bool, error) {
	tasks, err := s.tasks.ListTasksByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, false, fmt.Errorf("listing tasks: %w", err)
	}

	schedule.SortByDate(tasks, func(t model.Task) string { return t.Date })
	groups := schedule.GroupBy(tasks, func(t model.Task) string { return t.Date })

	return schedule.Page(groups, today, page)
}

// Update modifies one dated occurrence of the user's task. When
// in.Recurrence is non-nil the task's weekday rules are deleted and
// recreated from it.
func (s *TaskService) Update(ctx context.Context, userID, id, date string, in TaskInput) (*model.Task, error) {
	task, err := s.ownedOccurrence(ctx, userID, id, date)
	if err != nil {
		return nil, err
	}

	if err := in.validate(false); err != nil {
		return nil, err
	}

	task.Title = in.Title
	task.Description = strings.TrimSpace(in.Description)
	task.Completed = in.Completed
	task.Category = strings.TrimSpace(in.Category)

	if err := s.tasks.UpdateTask(ctx, task, in.Recurrence); err != nil {
		s.logger.Error("failed to update task",
			slog.String("id", id),
			slog.String("date", date),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated", slog.String("id", id), slog.String("date", date))
	return task, nil
}

// Delete removes one dated occurrence of the user's task. Deleting the last
// occurrence removes the task entirely, recurrence rules included.
func (s *TaskService) Delete(ctx context.Context, userID, id, date string) error {
	if _, err := s.ownedOccurrence(ctx, userID, id, date); err != nil {
		return err
	}

	if err := s.tasks.DeleteOccurrence(ctx, id, date); err != nil {
		return err
	}

	s.logger.Info("task occurrence deleted", slog.String("id", id), slog.String("date", date))
	return nil
}

// ownedOccurrence fetches one occurrence and verifies it belongs to the user.
func (s *TaskService) ownedOccurrence(ctx context.Context, userID, id, date string) (*model.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return nil, apperror.ValidationFailed("date",
			fmt.Sprintf("date must be formatted %s", model.DateFormat))
	}

	task, err := s.tasks.GetOccurrence(ctx, id, date)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, apperror.NotFound("task", id)
	}
	return task, nil
}
