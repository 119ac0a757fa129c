package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/model"
)

// =========================================================================
// MOCK GOAL REPOSITORY
// =========================================================================

type mockGoalRepo struct {
	goals       map[string]*model.Goal
	completions map[string]int      // keyed "goalID|bucketDate"
	links       map[string][]string // goal id → task ids
	nextID      int

	failCompletion error
}

func newMockGoalRepo() *mockGoalRepo {
	return &mockGoalRepo{
		goals:       make(map[string]*model.Goal),
		completions: make(map[string]int),
		links:       make(map[string][]string),
	}
}

func (m *mockGoalRepo) CreateGoal(_ context.Context, goal *model.Goal) error {
	m.nextID++
	goal.ID = fmt.Sprintf("goal-%d", m.nextID)
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = goal.CreatedAt
	stored := *goal
	m.goals[goal.ID] = &stored
	return nil
}

func (m *mockGoalRepo) GetGoalByID(_ context.Context, id string) (*model.Goal, error) {
	goal, ok := m.goals[id]
	if !ok {
		return nil, apperror.NotFound("goal", id)
	}
	result := *goal
	return &result, nil
}

func (m *mockGoalRepo) ListGoalsByUser(_ context.Context, userID string) ([]model.Goal, error) {
	var result []model.Goal
	for _, goal := range m.goals {
		if goal.UserID == userID {
			result = append(result, *goal)
		}
	}
	// Match the real repository's ordering: category, then creation order.
	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *mockGoalRepo) UpdateGoal(_ context.Context, goal *model.Goal, taskIDs []string) error {
	if _, ok := m.goals[goal.ID]; !ok {
		return apperror.NotFound("goal", goal.ID)
	}
	stored := *goal
	m.goals[goal.ID] = &stored
	if taskIDs != nil {
		m.links[goal.ID] = append([]string(nil), taskIDs...)
	}
	return nil
}

func (m *mockGoalRepo) DeleteGoal(_ context.Context, id string) error {
	if _, ok := m.goals[id]; !ok {
		return apperror.NotFound("goal", id)
	}
	delete(m.goals, id)
	delete(m.links, id)
	for key := range m.completions {
		if strings.HasPrefix(key, id+"|") {
			delete(m.completions, key)
		}
	}
	return nil
}

func (m *mockGoalRepo) LinkedTaskIDs(_ context.Context, goalID string) ([]string, error) {
	return append([]string(nil), m.links[goalID]...), nil
}

func (m *mockGoalRepo) SetCompletion(_ context.Context, goalID, date string, completed int) error {
	m.completions[goalID+"|"+date] = completed
	return nil
}

func (m *mockGoalRepo) Completion(_ context.Context, goalID, date string) (int, error) {
	if m.failCompletion != nil {
		return 0, m.failCompletion
	}
	return m.completions[goalID+"|"+date], nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestGoalService(t *testing.T) (*GoalService, *mockGoalRepo) {
	t.Helper()
	repo := newMockGoalRepo()
	return NewGoalService(repo, testLogger()), repo
}

func createTestGoal(t *testing.T, svc *GoalService, userID, title string, freq model.Frequency, category string) *model.Goal {
	t.Helper()
	goal, err := svc.Create(context.Background(), userID, GoalInput{
		Title:     title,
		Frequency: freq,
		Quantity:  1,
		Category:  category,
	})
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}
	return goal
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestGoalCreate_Success(t *testing.T) {
	svc, _ := newTestGoalService(t)

	goal, err := svc.Create(context.Background(), "user-1", GoalInput{
		Title:     "  Read more  ",
		Frequency: model.FrequencyWeekly,
		Quantity:  3,
		Category:  "Learning",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if goal.ID == "" {
		t.Error("expected goal to have an ID")
	}
	if goal.Title != "Read more" {
		t.Errorf("Title = %q, want trimmed %q", goal.Title, "Read more")
	}
	if goal.Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", goal.Quantity)
	}
}

func TestGoalCreate_EmptyTitle(t *testing.T) {
	svc, _ := newTestGoalService(t)

	_, err := svc.Create(context.Background(), "user-1", GoalInput{
		Title:     "   ",
		Frequency: model.FrequencyDaily,
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestGoalCreate_InvalidFrequency(t *testing.T) {
	svc, _ := newTestGoalService(t)

	for _, freq := range []string{"yearly", "", "Daily"} {
		_, err := svc.Create(context.Background(), "user-1", GoalInput{
			Title:     "x",
			Frequency: model.Frequency(freq),
		})
		if !errors.Is(err, apperror.ErrInvalidFrequency) {
			t.Errorf("Create(freq=%q) error = %v, want ErrInvalidFrequency", freq, err)
		}
	}
}

func TestGoalCreate_QuantityDefaultsToOne(t *testing.T) {
	svc, _ := newTestGoalService(t)

	goal, err := svc.Create(context.Background(), "user-1", GoalInput{
		Title:     "x",
		Frequency: model.FrequencyDaily,
		Quantity:  0,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if goal.Quantity != 1 {
		t.Errorf("Quantity = %d, want default 1", goal.Quantity)
	}
}

// =========================================================================
// OWNERSHIP TESTS
// =========================================================================

func TestGoalGet_OtherUsersGoalReadsNotFound(t *testing.T) {
	svc, _ := newTestGoalService(t)
	goal := createTestGoal(t, svc, "user-1", "Private", model.FrequencyDaily, "")

	_, err := svc.Get(context.Background(), "user-2", goal.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound (existence must not leak)", err)
	}
}

func TestGoalDelete_OtherUsersGoalReadsNotFound(t *testing.T) {
	svc, repo := newTestGoalService(t)
	goal := createTestGoal(t, svc, "user-1", "Private", model.FrequencyDaily, "")

	if err := svc.Delete(context.Background(), "user-2", goal.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if _, ok := repo.goals[goal.ID]; !ok {
		t.Error("goal should survive another user's delete attempt")
	}
}

// =========================================================================
// COMPLETION TESTS
// =========================================================================

// The weekly bucket behavior users actually see: completing a weekly goal on
// Wednesday files it under the week's Sunday, so it reads as completed all
// the way through Saturday and resets the following Sunday.
func TestGoalCompletion_WeeklyBucketLifecycle(t *testing.T) {
	svc, _ := newTestGoalService(t)
	goal := createTestGoal(t, svc, "user-1", "Exercise", model.FrequencyWeekly, "Health")

	completion, err := svc.SetCompletion(context.Background(), "user-1", goal.ID, day(t, "2025-03-12"), 1)
	if err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}
	if completion.Date != "2025-03-09" {
		t.Fatalf("bucket = %s, want the week's Sunday 2025-03-09", completion.Date)
	}

	// Saturday of the same week still reads as completed.
	status, err := svc.CompletionStatus(context.Background(), "user-1", goal.ID, day(t, "2025-03-15"))
	if err != nil {
		t.Fatalf("CompletionStatus() error = %v", err)
	}
	if status.Completed != 1 {
		t.Errorf("Saturday read = %d, want 1", status.Completed)
	}

	// The next Monday falls into a fresh bucket.
	status, err = svc.CompletionStatus(context.Background(), "user-1", goal.ID, day(t, "2025-03-17"))
	if err != nil {
		t.Fatalf("CompletionStatus() error = %v", err)
	}
	if status.Completed != 0 {
		t.Errorf("next-week read = %d, want 0", status.Completed)
	}
}

func TestGoalSetCompletion_MonthlyResolvesToFirstOfMonth(t *testing.T) {
	svc, _ := newTestGoalService(t)
	goal := createTestGoal(t, svc, "user-1", "Budget review", model.FrequencyMonthly, "")

	completion, err := svc.SetCompletion(context.Background(), "user-1", goal.ID, day(t, "2025-03-12"), 1)
	if err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}
	if completion.Date != "2025-03-01" {
		t.Errorf("bucket = %s, want 2025-03-01", completion.Date)
	}
}

func TestGoalSetCompletion_OverwritesSameBucket(t *testing.T) {
	svc, _ := newTestGoalService(t)
	goal := createTestGoal(t, svc, "user-1", "Steps", model.FrequencyDaily, "")
	ref := day(t, "2025-03-12")

	if _, err := svc.SetCompletion(context.Background(), "user-1", goal.ID, ref, 1); err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}
	if _, err := svc.SetCompletion(context.Background(), "user-1", goal.ID, ref, 3); err != nil {
		t.Fatalf("second SetCompletion() error = %v", err)
	}

	status, err := svc.CompletionStatus(context.Background(), "user-1", goal.ID, ref)
	if err != nil {
		t.Fatalf("CompletionStatus() error = %v", err)
	}
	if status.Completed != 3 {
		t.Errorf("read = %d, want the later write 3", status.Completed)
	}
}

func TestGoalSetCompletion_NegativeCount(t *testing.T) {
	svc, _ := newTestGoalService(t)
	goal := createTestGoal(t, svc, "user-1", "Steps", model.FrequencyDaily, "")

	_, err := svc.SetCompletion(context.Background(), "user-1", goal.ID, day(t, "2025-03-12"), -1)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SetCompletion() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestGoalListGrouped_AnnotatesPerFrequency(t *testing.T) {
	svc, _ := newTestGoalService(t)

	daily := createTestGoal(t, svc, "user-1", "Steps", model.FrequencyDaily, "Health")
	weekly := createTestGoal(t, svc, "user-1", "Exercise", model.FrequencyWeekly, "Health")
	createTestGoal(t, svc, "user-1", "Read", model.FrequencyDaily, "Learning")

	// Complete the daily goal today and the weekly one earlier in the week.
	if _, err := svc.SetCompletion(context.Background(), "user-1", daily.ID, day(t, "2025-03-14"), 1); err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}
	if _, err := svc.SetCompletion(context.Background(), "user-1", weekly.ID, day(t, "2025-03-11"), 1); err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}

	groups, err := svc.ListGrouped(context.Background(), "user-1", day(t, "2025-03-14"))
	if err != nil {
		t.Fatalf("ListGrouped() error = %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	byTitle := make(map[string]model.Goal)
	for _, g := range groups {
		for _, goal := range g.Items {
			byTitle[goal.Title] = goal
		}
	}

	if byTitle["Steps"].Completed != 1 {
		t.Errorf("daily goal Completed = %d, want 1", byTitle["Steps"].Completed)
	}
	// Tuesday's completion is still visible on Friday — same weekly bucket.
	if byTitle["Exercise"].Completed != 1 {
		t.Errorf("weekly goal Completed = %d, want 1", byTitle["Exercise"].Completed)
	}
	if byTitle["Read"].Completed != 0 {
		t.Errorf("untouched goal Completed = %d, want 0", byTitle["Read"].Completed)
	}
}

func TestGoalListGrouped_ReadFailureReturnsNothing(t *testing.T) {
	svc, repo := newTestGoalService(t)
	createTestGoal(t, svc, "user-1", "Steps", model.FrequencyDaily, "Health")
	repo.failCompletion = errors.New("database locked")

	groups, err := svc.ListGrouped(context.Background(), "user-1", day(t, "2025-03-14"))
	if err == nil {
		t.Fatal("ListGrouped() should fail when a completion read fails")
	}
	if groups != nil {
		t.Errorf("groups = %v, want none at all on failure", groups)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestGoalUpdate_ReconcilesTaskLinks(t *testing.T) {
	svc, repo := newTestGoalService(t)
	goal := createTestGoal(t, svc, "user-1", "Exercise", model.FrequencyWeekly, "Health")
	repo.links[goal.ID] = []string{"task-a", "task-b"}

	updated, err := svc.Update(context.Background(), "user-1", goal.ID, GoalInput{
		Title:     "Exercise",
		Frequency: model.FrequencyWeekly,
		Quantity:  1,
		TaskIDs:   []string{"task-b", "task-c"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(updated.TaskIDs) != 2 || updated.TaskIDs[0] != "task-b" {
		t.Errorf("TaskIDs = %v, want [task-b task-c]", updated.TaskIDs)
	}
	if got := repo.links[goal.ID]; len(got) != 2 || got[1] != "task-c" {
		t.Errorf("stored links = %v, want [task-b task-c]", got)
	}
}

func TestGoalUpdate_NilTaskIDsLeavesLinksAlone(t *testing.T) {
	svc, repo := newTestGoalService(t)
	goal := createTestGoal(t, svc, "user-1", "Exercise", model.FrequencyWeekly, "Health")
	repo.links[goal.ID] = []string{"task-a"}

	_, err := svc.Update(context.Background(), "user-1", goal.ID, GoalInput{
		Title:     "Exercise, renamed",
		Frequency: model.FrequencyWeekly,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := repo.links[goal.ID]; len(got) != 1 || got[0] != "task-a" {
		t.Errorf("stored links = %v, want untouched [task-a]", got)
	}
}
