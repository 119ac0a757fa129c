package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/emstod/trunky-backend/internal/apperror"
	"github.com/emstod/trunky-backend/internal/auth"
	"github.com/emstod/trunky-backend/internal/model"
	"github.com/emstod/trunky-backend/internal/schedule"
	"github.com/emstod/trunky-backend/internal/service"
)

// TaskHandler manages CRUD endpoints for tasks and their occurrences.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// pagedGroups is the response envelope for the date-grouped view.
type pagedGroups struct {
	Groups   []schedule.Group[model.Task] `json:"groups"`
	LastPage bool                         `json:"lastPage"`
}

// HandleList returns the user's tasks in one of three shapes:
//
//	GET /api/tasks                      → flat list, newest first, recurrence
//	                                      duplicates collapsed to one row per task
//	GET /api/tasks?group=category       → flattened category groups
//	GET /api/tasks?group=date&page=N    → flattened date groups, windowed:
//	                                      today-and-future always included,
//	                                      history five groups per page
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	switch r.URL.Query().Get("group") {
	case "":
		tasks, err := h.tasks.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)

	case "category":
		groups, err := h.tasks.ListGroupedByCategory(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)

	case "date":
		page := 0
		if pageStr := r.URL.Query().Get("page"); pageStr != "" {
			var err error
			page, err = strconv.Atoi(pageStr)
			if err != nil {
				writeError(w, apperror.ValidationFailed("page", "page must be an integer"))
				return
			}
		}

		today, err := refDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, err)
			return
		}

		groups, lastPage, err := h.tasks.ListGroupedByDate(r.Context(), userID, today, page)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pagedGroups{Groups: groups, LastPage: lastPage})

	default:
		writeError(w, apperror.ValidationFailed("group", `group must be "category" or "date"`))
	}
}

// HandleCreate saves a new task: its first occurrence plus recurrence rules.
//
// HTTP: POST /api/tasks
// BODY: {"title": "...", "date": "2024-04-17", "recurrence": ["Monday","Thursday"], ...}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// HandleGet returns one dated occurrence of a task.
//
// HTTP: GET /api/tasks/{id}/{date}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	task, err := h.tasks.Get(r.Context(), userID, r.PathValue("id"), r.PathValue("date"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleUpdate modifies one dated occurrence; a recurrence field in the body
// replaces the task's weekday rules wholesale.
//
// HTTP: PUT /api/tasks/{id}/{date}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, r.PathValue("id"), r.PathValue("date"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes one dated occurrence of a task.
//
// HTTP: DELETE /api/tasks/{id}/{date}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.tasks.Delete(r.Context(), userID, r.PathValue("id"), r.PathValue("date")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
