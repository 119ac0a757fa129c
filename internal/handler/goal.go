// Package handler is the HTTP layer: it parses requests, calls services, and
// writes JSON responses. No business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/auth"
	"github.com/emstod/trunky-backend/internal/model"
	"github.com/emstod/trunky-backend/internal/service"
)

// GoalHandler manages CRUD and completion endpoints for goals.
type GoalHandler struct {
	goals  *service.GoalService
	logger *slog.Logger
}

// NewGoalHandler creates a GoalHandler.
func NewGoalHandler(goals *service.GoalService, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: goals, logger: logger}
}

// HandleList returns the user's goals grouped by category.
//
// HTTP: GET /api/goals?date=YYYY-MM-DD
//
// Each goal carries the completion count for its current period; the
// optional date parameter is the reference day for resolving periods
// (defaults to the server's today). Response shape is the flattened group
// array the frontend iterates positionally:
//
//	[["School", {...goal}, {...goal}], ["Physical", {...goal}]]
func (h *GoalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	ref, err := refDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}

	groups, err := h.goals.ListGrouped(r.Context(), userID, ref)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// HandleCreate saves a new goal.
//
// HTTP: POST /api/goals
// BODY: {"title": "...", "frequency": "daily|weekly|monthly", "quantity": 2, ...}
func (h *GoalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.GoalInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	goal, err := h.goals.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

// HandleGet returns a single goal with its linked task ids.
//
// HTTP: GET /api/goals/{id}
func (h *GoalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	goal, err := h.goals.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// HandleUpdate modifies a goal and reconciles its task links.
//
// HTTP: PUT /api/goals/{id}
func (h *GoalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.GoalInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	goal, err := h.goals.Update(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// HandleDelete removes a goal and its completion records and task links.
//
// HTTP: DELETE /api/goals/{id}
func (h *GoalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.goals.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// completionRequest is the body for HandleSetCompletion.
type completionRequest struct {
	Completed int `json:"completed"`
}

// HandleSetCompletion records a completion count for the period containing
// the given date.
//
// HTTP: PUT /api/goals/{id}/completion/{date}
// BODY: {"completed": 2}
//
// The {date} is the reference day (usually the client's today), NOT the
// bucket key — the server resolves the bucket from the goal's frequency and
// returns it in the response.
func (h *GoalHandler) HandleSetCompletion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	ref, err := refDate(r.PathValue("date"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	completion, err := h.goals.SetCompletion(r.Context(), userID, r.PathValue("id"), ref, req.Completed)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

// HandleGetCompletion reports the completion recorded for the period
// containing the given date.
//
// HTTP: GET /api/goals/{id}/completion/{date}
func (h *GoalHandler) HandleGetCompletion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	ref, err := refDate(r.PathValue("date"))
	if err != nil {
		writeError(w, err)
		return
	}

	completion, err := h.goals.CompletionStatus(r.Context(), userID, r.PathValue("id"), ref)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

// refDate parses a YYYY-MM-DD reference date, defaulting to now when empty.
func refDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	ref, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("date", "date must be formatted "+model.DateFormat)
	}
	return ref, nil
}
