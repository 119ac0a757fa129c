// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes to the database
//
// Services accept plain data and repository interfaces, never HTTP types, so
// the same logic serves the handlers, the recurrence materializer's timer,
// and the tests. All reads and writes are scoped to the requesting user and
// recomputed from the database on every call — nothing is cached in process
// globals.
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

const MaxTitleLength = 200

// GoalService handles business logic for goals and their completion records.
type GoalService struct {
	goals  repository.GoalRepository
	logger *slog.Logger
}

// NewGoalService creates a GoalService.
func NewGoalService(goals repository.GoalRepository, logger *slog.Logger) *GoalService {
	return &GoalService{
		goals:  goals,
		logger: logger,
	}
}

// GoalInput carries the client-settable goal fields. TaskIDs, when non-nil
// on update, is the complete requested set of linked tasks.
type GoalInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Frequency   model.Frequency `json:"frequency"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	TaskIDs     []string        `json:"taskIds"`
}

func (in *GoalInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperror.ValidationFailed("title", "goal title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("goal title must be %d characters or less", MaxTitleLength))
	}
	if !in.Frequency.Valid() {
		return apperror.InvalidFrequency(string(in.Frequency))
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	return nil
}

// Create validates and saves a new goal for the user.
func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*model.Goal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	goal := &model.Goal{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Frequency:   in.Frequency,
		Quantity:    in.Quantity,
		Category:    strings.TrimSpace(in.Category),
		UserID:      userID,
	}

	if err := s.goals.CreateGoal(ctx, goal); err != nil {
		s.logger.Error("failed to create goal",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating goal: %w", err)
	}

	s.logger.Info("goal created",
		slog.String("id", goal.ID),
		slog.String("userID", userID),
	)

	return goal, nil
}

// Get returns one of the user's goals with its linked task ids attached.
// Another user's goal reads as not-found rather than forbidden — the id's
// existence is not leaked.
func (s *GoalService) Get(ctx context.Context, userID, id string) (*model.Goal, error) {
	goal, err := s.ownedGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	taskIDs, err := s.goals.LinkedTaskIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading task links: %w", err)
	}
	goal.TaskIDs = taskIDs

	return goal, nil
}

// ListGrouped returns the user's goals grouped by category in first-seen
// order, each annotated with the completion count recorded under its current
// bucket date (resolved from the goal's own frequency at ref).
//
// On any failure the caller gets no groups at all, never a partial set.
func (s *GoalService) ListGrouped(ctx context.Context, userID string, ref time.Time) ([]schedule.Group[model.Goal], error) {
	goals, err := s.goals.ListGoalsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list goals", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing goals: %w", err)
	}

	for i := range goals {
		// The frequency is already in hand from the list query — no extra
		// lookup per goal, just the resolution itself.
		bucket, err := schedule.BucketDate(ref, goals[i].Frequency)
		if err != nil {
			return nil, err
		}

		completed, err := s.goals.Completion(ctx, goals[i].ID, bucket)
		if err != nil {
			return nil, fmt.Errorf("loading completion for goal %s: %w", goals[i].ID, err)
		}
		goals[i].Completed = completed
	}

	return schedule.GroupBy(goals, func(g model.Goal) string { return g.Category }), nil
}

// Update modifies one of the user's goals, reconciling task links when
// in.TaskIDs is non-nil.
func (s *GoalService) Update(ctx context.Context, userID, id string, in GoalInput) (*model.Goal, error) {
	goal, err := s.ownedGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	goal.Title = in.Title
	goal.Description = strings.TrimSpace(in.Description)
	goal.Frequency = in.Frequency
	goal.Quantity = in.Quantity
	goal.Category = strings.TrimSpace(in.Category)

	if err := s.goals.UpdateGoal(ctx, goal, in.TaskIDs); err != nil {
		s.logger.Error("failed to update goal",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating goal: %w", err)
	}

	if in.TaskIDs != nil {
		goal.TaskIDs = in.TaskIDs
	}

	s.logger.Info("goal updated", slog.String("id", id))
	return goal, nil
}

// Delete removes one of the user's goals, cascading to its completion
// records and task links.
func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedGoal(ctx, userID, id); err != nil {
		return err
	}

	if err := s.goals.DeleteGoal(ctx, id); err != nil {
		return err
	}

	s.logger.Info("goal deleted", slog.String("id", id))
	return nil
}

// SetCompletion records a completion count for the period containing ref.
// The bucket date is resolved from the goal's frequency, so a weekly goal
// completed on a Wednesday is filed under the preceding Sunday and stays
// "completed" for reads until the next Sunday starts a fresh bucket.
func (s *GoalService) SetCompletion(ctx context.Context, userID, goalID string, ref time.Time, completed int) (*model.GoalCompletion, error) {
	goal, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if completed < 0 {
		return nil, apperror.ValidationFailed("completed", "completed count must be >= 0")
	}

	bucket, err := schedule.BucketDate(ref, goal.Frequency)
	if err != nil {
		return nil, err
	}

	if err := s.goals.SetCompletion(ctx, goalID, bucket, completed); err != nil {
		s.logger.Error("failed to set completion",
			slog.String("goalID", goalID),
			slog.String("bucket", bucket),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("setting completion: %w", err)
	}

	return &model.GoalCompletion{GoalID: goalID, Date: bucket, Completed: completed}, nil
}

// CompletionStatus reports the completion recorded for the period containing
// ref. A period nobody has logged reads as 0.
func (s *GoalService) CompletionStatus(ctx context.Context, userID, goalID string, ref time.Time) (*model.GoalCompletion, error) {
	goal, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	bucket, err := schedule.BucketDate(ref, goal.Frequency)
	if err != nil {
		return nil, err
	}

	completed, err := s.goals.Completion(ctx, goalID, bucket)
	if err != nil {
		return nil, fmt.Errorf("loading completion: %w", err)
	}

	return &model.GoalCompletion{GoalID: goalID, Date: bucket, Completed: completed}, nil
}

// ownedGoal fetches a goal and verifies it belongs to the user.
func (s *GoalService) ownedGoal(ctx context.Context, userID, id string) (*model.Goal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "goal ID is required")
	}

	goal, err := s.goals.GetGoalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, apperror.NotFound("goal", id)
	}
	return goal, nil
}
