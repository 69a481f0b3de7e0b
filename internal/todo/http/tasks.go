package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/internal/todo/service"
	"github.com/tasklet-dev/tasklet/pkg/httpx"
)

// TasksHandler serves the owner-scoped task CRUD endpoints. The owner is
// always the session user; task ids from other owners read as 404.
type TasksHandler struct {
	Tasks *service.TaskService
}

// taskPayload is the wire shape for both create and patch. Pointer fields
// distinguish "absent" from a legitimate zero value (priority 0, empty
// description); done always overwrites.
type taskPayload struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Difficulty  *string    `json:"difficulty"`
	Priority    *int       `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	Done        bool       `json:"done"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Difficulty  *string    `json:"difficulty,omitempty"`
	Priority    int        `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Done        bool       `json:"done"`
	OwnerIDs    []string   `json:"owner_ids"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskResponse(t domain.Task) taskResponse {
	var difficulty *string
	if t.Difficulty != nil {
		s := t.Difficulty.String()
		difficulty = &s
	}
	return taskResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Difficulty:  difficulty,
		Priority:    t.Priority,
		Deadline:    t.Deadline,
		Done:        t.Done,
		OwnerIDs:    t.OwnerIDs,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskResponses(tasks []domain.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskResponse(t)
	}
	return out
}

func decodeTaskPayload(w http.ResponseWriter, r *http.Request) (taskPayload, bool) {
	var p taskPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:   "invalid_input",
			Message: "malformed JSON body",
		})
		return taskPayload{}, false
	}
	return p, true
}

// parseDifficulty maps the optional wire difficulty onto the domain enum,
// case-insensitively.
func parseDifficulty(w http.ResponseWriter, r *http.Request, raw *string) (*domain.Difficulty, bool) {
	if raw == nil {
		return nil, true
	}
	d, err := domain.ParseDifficulty(*raw)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return &d, true
}

// List returns every task owned by the caller.
// GET /v1/tasks
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromCtx(r.Context())

	tasks, err := h.Tasks.List(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// Get returns a single task owned by the caller.
// GET /v1/tasks/{id}
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromCtx(r.Context())

	task, err := h.Tasks.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTaskResponse(task))
}

// Create validates and stores a new task owned by the caller.
// POST /v1/tasks
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromCtx(r.Context())

	p, ok := decodeTaskPayload(w, r)
	if !ok {
		return
	}
	difficulty, ok := parseDifficulty(w, r, p.Difficulty)
	if !ok {
		return
	}

	draft := domain.TaskDraft{
		Difficulty: difficulty,
		Deadline:   p.Deadline,
		Done:       p.Done,
	}
	if p.Name != nil {
		draft.Name = *p.Name
	}
	if p.Description != nil {
		draft.Description = *p.Description
	}
	if p.Priority != nil {
		draft.Priority = *p.Priority
	}

	task, err := h.Tasks.Create(r.Context(), user.ID, draft)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toTaskResponse(task))
}

// Update merges a partial patch over an owned task.
// PATCH /v1/tasks/{id}
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromCtx(r.Context())

	p, ok := decodeTaskPayload(w, r)
	if !ok {
		return
	}
	difficulty, ok := parseDifficulty(w, r, p.Difficulty)
	if !ok {
		return
	}

	patch := domain.TaskPatch{
		Name:        p.Name,
		Description: p.Description,
		Difficulty:  difficulty,
		Priority:    p.Priority,
		Deadline:    p.Deadline,
		Done:        p.Done,
	}

	task, err := h.Tasks.Update(r.Context(), user.ID, r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTaskResponse(task))
}

// Delete removes an owned task and returns what was removed.
// DELETE /v1/tasks/{id}
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromCtx(r.Context())

	task, err := h.Tasks.Delete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTaskResponse(task))
}

// DeleteAll removes every task owned by the caller, best effort.
// DELETE /v1/tasks
func (h *TasksHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromCtx(r.Context())

	deleted, err := h.Tasks.DeleteAll(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTaskResponses(deleted))
}

// GenerateSamples bulk-creates random demo tasks for the caller.
// POST /v1/tasks/samples
func (h *TasksHandler) GenerateSamples(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromCtx(r.Context())

	tasks, err := h.Tasks.GenerateSamples(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toTaskResponses(tasks))
}
