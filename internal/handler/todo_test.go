package handler_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/todo-service/internal/auth"
	"github.com/sakif/todo-service/internal/handler"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository/memory"
	"github.com/sakif/todo-service/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTodoRouter mounts a TodoHandler over a fresh memory store. Routing
// through chi fills in the {id} path values the handlers read.
func newTodoRouter() http.Handler {
	h := handler.NewTodoHandler(service.NewTodoService(memory.New(), testLogger()), testLogger())

	r := chi.NewRouter()
	r.Get("/todo", h.HandleList)
	r.Post("/todo", h.HandleCreate)
	r.Get("/todo/{id}", h.HandleGet)
	r.Put("/todo/{id}", h.HandleUpdate)
	r.Delete("/todo/{id}", h.HandleDelete)
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestTodoHandler_Create(t *testing.T) {
	r := newTodoRouter()

	req := httptest.NewRequest(http.MethodPost, "/todo",
		strings.NewReader(`{"id":50,"title":"Test Todo","description":"Test Description","priority":1,"complete":false}`))
	rr := serve(r, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var todo model.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&todo))
	assert.Equal(t, int64(1), todo.ID, "payload id is ignored")
	assert.Equal(t, "Test Todo", todo.Title)
}

func TestTodoHandler_CreateUsesCallerIdentity(t *testing.T) {
	store := memory.New()
	users := service.NewUserService(store, auth.NewPasswordServiceWithCost(4), nil, testLogger())
	user, err := users.Register(t.Context(), model.UserInput{
		Email: "a@example.com", Username: "alice", FirstName: "A", LastName: "B", Password: "secret1",
	})
	require.NoError(t, err)

	h := handler.NewTodoHandler(service.NewTodoService(store, testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/todo",
		strings.NewReader(`{"title":"Test Todo","description":"Test Description","priority":1}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: user.ID, Role: "user"}))
	rr := serve(http.HandlerFunc(h.HandleCreate), req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var todo model.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&todo))
	assert.Equal(t, user.ID, todo.OwnerID)
}

func TestTodoHandler_MissingTitle(t *testing.T) {
	r := newTodoRouter()

	rr := serve(r, httptest.NewRequest(http.MethodPost, "/todo",
		strings.NewReader(`{"description":"Test","priority":1,"complete":false}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestTodoHandler_UpdateNotFound(t *testing.T) {
	r := newTodoRouter()

	rr := serve(r, httptest.NewRequest(http.MethodPut, "/todo/999",
		strings.NewReader(`{"title":"Valid Title","description":"Valid description","priority":2,"complete":true}`)))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"not_found","detail":"Todo not found."}`, rr.Body.String())
}

func TestTodoHandler_UpdateThenGet(t *testing.T) {
	r := newTodoRouter()

	rr := serve(r, httptest.NewRequest(http.MethodPost, "/todo",
		strings.NewReader(`{"title":"Test Todo","description":"Test Description","priority":1}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = serve(r, httptest.NewRequest(http.MethodPut, "/todo/1",
		strings.NewReader(`{"title":"Updated","description":"New desc","priority":3,"complete":true}`)))
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = serve(r, httptest.NewRequest(http.MethodGet, "/todo/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var todo model.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&todo))
	assert.Equal(t, "Updated", todo.Title)
	assert.True(t, todo.Complete)
}

func TestTodoHandler_DeleteAndList(t *testing.T) {
	r := newTodoRouter()

	for i := 0; i < 3; i++ {
		rr := serve(r, httptest.NewRequest(http.MethodPost, "/todo",
			strings.NewReader(`{"title":"Test Todo","description":"Test Description","priority":2}`)))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := serve(r, httptest.NewRequest(http.MethodDelete, "/todo/2", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(r, httptest.NewRequest(http.MethodDelete, "/todo/2", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(r, httptest.NewRequest(http.MethodGet, "/todo?priority=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var todos []model.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&todos))
	require.Len(t, todos, 2)
	assert.Equal(t, int64(1), todos[0].ID)
	assert.Equal(t, int64(3), todos[1].ID)
}

func TestTodoHandler_BadIDs(t *testing.T) {
	r := newTodoRouter()

	for _, path := range []string{"/todo/0", "/todo/-1", "/todo/abc", "/todo/1.5"} {
		rr := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, path)
	}
}
