package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/todo-service/internal/auth"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
	"github.com/sakif/todo-service/internal/service"
	"github.com/sakif/todo-service/internal/validation"
)

// TodoHandler exposes the todo resource over HTTP.
//
// It only knows about HTTP: decoding bodies, parsing path and query values,
// and picking status codes. Validation rules and ownership live in
// service.TodoService.
type TodoHandler struct {
	todos  *service.TodoService
	logger *slog.Logger
}

func NewTodoHandler(todos *service.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{todos: todos, logger: logger}
}

// HandleList returns all todos in storage order.
//
// HTTP: GET / and GET /todo
// QUERY (all optional, exact match): owner_id, complete, priority
func (h *TodoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter repository.TodoFilter
	var err error
	if filter.OwnerID, err = validation.OptionalInt64("owner_id", q.Get("owner_id")); err != nil {
		writeError(w, err)
		return
	}
	if filter.Complete, err = validation.OptionalBool("complete", q.Get("complete")); err != nil {
		writeError(w, err)
		return
	}
	if filter.Priority, err = validation.OptionalInt("priority", q.Get("priority")); err != nil {
		writeError(w, err)
		return
	}

	todos, err := h.todos.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// HandleGet returns one todo.
//
// HTTP: GET /todo/{id}
func (h *TodoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	todo, err := h.todos.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// HandleCreate saves a new todo and returns it with its assigned id.
//
// HTTP: POST /todo
// REQUEST BODY: {"title":"...","description":"...","priority":1,"complete":false}
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input model.TodoInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	var caller *auth.Identity
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		caller = &id
	}

	todo, err := h.todos.Create(r.Context(), caller, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

// HandleUpdate replaces a todo.
//
// HTTP: PUT /todo/{id} → 204 No Content
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input model.TodoInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	if err := h.todos.Update(r.Context(), id, input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a todo.
//
// HTTP: DELETE /todo/{id} → 204 No Content
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.todos.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
