package http

import (
	"net/http"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// TaskHandler handles HTTP requests related to tasks
type TaskHandler struct {
	service domain.TaskService
	logger  logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(service domain.TaskService, logger logger.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the task-related routes
func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("/api/tasks.list", requireAuth(http.HandlerFunc(h.ListTasks)))
	mux.Handle("/api/tasks.get", requireAuth(http.HandlerFunc(h.GetTask)))
	mux.Handle("/api/tasks.create", requireAuth(http.HandlerFunc(h.CreateTask)))
	mux.Handle("/api/tasks.update", requireAuth(http.HandlerFunc(h.UpdateTask)))
	mux.Handle("/api/tasks.complete", requireAuth(http.HandlerFunc(h.CompleteTask)))
	mux.Handle("/api/tasks.delete", requireAuth(http.HandlerFunc(h.DeleteTask)))
}

// ListTasks handles listing tasks with optional filtering
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params, err := domain.ParseListParams(query.Get("skip"), query.Get("limit"), query.Get("search"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list tasks")
		return
	}

	filter := domain.TaskFilter{ListParams: params, ContactID: optionalQuery(r, "contact_id")}
	if v := optionalQuery(r, "status"); v != nil {
		s := domain.TaskStatus(*v)
		if !s.IsValid() {
			WriteJSONError(w, "invalid task status: "+*v, http.StatusBadRequest)
			return
		}
		filter.Status = &s
	}
	if v := optionalQuery(r, "priority"); v != nil {
		p := domain.TaskPriority(*v)
		if !p.IsValid() {
			WriteJSONError(w, "invalid priority: "+*v, http.StatusBadRequest)
			return
		}
		filter.Priority = &p
	}
	if v := optionalQuery(r, "task_type"); v != nil {
		tt := domain.TaskType(*v)
		if !tt.IsValid() {
			WriteJSONError(w, "invalid task_type: "+*v, http.StatusBadRequest)
			return
		}
		filter.TaskType = &tt
	}

	tasks, err := h.service.ListTasks(r.Context(), user.ID, filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "list tasks")
		return
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
	})
}

// GetTask handles retrieval of a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	task, err := h.service.GetTask(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task": task,
	})
}

// CreateTask handles creation of a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	patch, err := domain.TaskPatchFromJSON(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "create task")
		return
	}

	task, err := h.service.CreateTask(r.Context(), user.ID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "create task")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"task": task,
	})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := idFromBody(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "update task")
		return
	}
	patch, err := domain.TaskPatchFromJSON(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "update task")
		return
	}

	task, err := h.service.UpdateTask(r.Context(), user.ID, id, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "update task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task": task,
	})
}

// CompleteTask marks a task done. Completing a completed task returns it unchanged.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := idFromBody(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "complete task")
		return
	}

	task, err := h.service.CompleteTask(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "complete task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task": task,
	})
}

// DeleteTask handles deletion of a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := idFromBody(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "delete task")
		return
	}

	if err := h.service.DeleteTask(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, h.logger, err, "delete task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task deleted successfully",
	})
}
