// Package memory is a process-local implementation of repository.Store.
//
// It keeps the same rules as the SQLite store (auto-increment ids that are
// never reused, unique email/username, todo owners must exist, owners with
// todos cannot be deleted) so either store can back the services.
//
// A unit of work holds the store lock for its whole duration and works on
// the live state; if the callback fails, the state captured at the start is
// put back. That gives all-or-nothing writes without per-row bookkeeping.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sakif/todo-service/internal/apperror"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
)

var (
	_ repository.Store          = (*Store)(nil)
	_ repository.TodoRepository = (*todoRepo)(nil)
	_ repository.UserRepository = (*userRepo)(nil)
	_ repository.BookRepository = (*bookRepo)(nil)
)

// state is everything the store holds. Slices keep insertion order, which
// is also id order because ids only grow.
type state struct {
	todos []model.Todo
	users []model.User
	books []model.Book

	lastTodoID int64
	lastUserID int64
	lastBookID int64
}

func (s state) clone() state {
	s.todos = slices.Clone(s.todos)
	s.users = slices.Clone(s.users)
	s.books = slices.Clone(s.books)
	return s
}

// Store is safe for concurrent use; units of work are serialized.
type Store struct {
	mu sync.Mutex
	st state
}

// New returns an empty store holding only the bootstrap owner.
func New() *Store {
	s := &Store{}
	s.st.lastUserID++
	s.st.users = append(s.st.users, model.User{
		ID:        s.st.lastUserID,
		Email:     repository.DefaultOwnerUsername + "@localhost",
		Username:  repository.DefaultOwnerUsername,
		FirstName: "Default",
		LastName:  "Owner",
		IsActive:  true,
		Role:      model.RoleUser,
		CreatedAt: time.Now().UTC(),
	})
	return s
}

// WithinTx runs fn with exclusive access to the store. The state is
// restored if fn returns an error or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: beginning transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(&txScope{st: &s.st})
}

type txScope struct {
	st *state
}

func (t *txScope) Todos() repository.TodoRepository { return &todoRepo{st: t.st} }
func (t *txScope) Users() repository.UserRepository { return &userRepo{st: t.st} }
func (t *txScope) Books() repository.BookRepository { return &bookRepo{st: t.st} }

// --- todos ---

type todoRepo struct {
	st *state
}

func (r *todoRepo) ownerExists(id int64) bool {
	return slices.ContainsFunc(r.st.users, func(u model.User) bool { return u.ID == id })
}

func (r *todoRepo) index(id int64) int {
	return slices.IndexFunc(r.st.todos, func(t model.Todo) bool { return t.ID == id })
}

func (r *todoRepo) Create(_ context.Context, todo *model.Todo) error {
	if !r.ownerExists(todo.OwnerID) {
		return apperror.Conflict(fmt.Sprintf("owner %d does not exist", todo.OwnerID))
	}
	r.st.lastTodoID++
	todo.ID = r.st.lastTodoID
	r.st.todos = append(r.st.todos, *todo)
	return nil
}

func (r *todoRepo) GetByID(_ context.Context, id int64) (*model.Todo, error) {
	i := r.index(id)
	if i < 0 {
		return nil, apperror.NotFound("Todo")
	}
	t := r.st.todos[i]
	return &t, nil
}

func (r *todoRepo) List(_ context.Context, filter repository.TodoFilter) ([]model.Todo, error) {
	todos := make([]model.Todo, 0)
	for _, t := range r.st.todos {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Complete != nil && t.Complete != *filter.Complete {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func (r *todoRepo) Update(_ context.Context, todo *model.Todo) error {
	i := r.index(todo.ID)
	if i < 0 {
		return apperror.NotFound("Todo")
	}
	if !r.ownerExists(todo.OwnerID) {
		return apperror.Conflict(fmt.Sprintf("owner %d does not exist", todo.OwnerID))
	}
	r.st.todos[i] = *todo
	return nil
}

func (r *todoRepo) Delete(_ context.Context, id int64) error {
	i := r.index(id)
	if i < 0 {
		return apperror.NotFound("Todo")
	}
	r.st.todos = slices.Delete(r.st.todos, i, i+1)
	return nil
}

// --- users ---

type userRepo struct {
	st *state
}

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.st.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperror.Conflict("email or username already registered")
		}
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	user.CreatedAt = time.Now().UTC()
	r.st.lastUserID++
	user.ID = r.st.lastUserID
	r.st.users = append(r.st.users, *user)
	return nil
}

func (r *userRepo) find(match func(model.User) bool) (*model.User, error) {
	i := slices.IndexFunc(r.st.users, match)
	if i < 0 {
		return nil, apperror.NotFound("User")
	}
	u := r.st.users[i]
	return &u, nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	i := slices.IndexFunc(r.st.users, func(u model.User) bool { return u.ID == id })
	if i < 0 {
		return apperror.NotFound("User")
	}
	if slices.ContainsFunc(r.st.todos, func(t model.Todo) bool { return t.OwnerID == id }) {
		return apperror.Conflict(fmt.Sprintf("user %d still owns todos", id))
	}
	r.st.users = slices.Delete(r.st.users, i, i+1)
	return nil
}

// --- books ---

type bookRepo struct {
	st *state
}

func (r *bookRepo) index(id int64) int {
	return slices.IndexFunc(r.st.books, func(b model.Book) bool { return b.ID == id })
}

func (r *bookRepo) Create(_ context.Context, book *model.Book) error {
	r.st.lastBookID++
	book.ID = r.st.lastBookID
	r.st.books = append(r.st.books, *book)
	return nil
}

func (r *bookRepo) GetByID(_ context.Context, id int64) (*model.Book, error) {
	i := r.index(id)
	if i < 0 {
		return nil, apperror.NotFound("Book")
	}
	b := r.st.books[i]
	return &b, nil
}

func (r *bookRepo) GetByTitle(_ context.Context, title string) (*model.Book, error) {
	i := slices.IndexFunc(r.st.books, func(b model.Book) bool { return strings.EqualFold(b.Title, title) })
	if i < 0 {
		return nil, apperror.NotFound("Book")
	}
	b := r.st.books[i]
	return &b, nil
}

func (r *bookRepo) List(_ context.Context, filter repository.BookFilter) ([]model.Book, error) {
	books := make([]model.Book, 0)
	for _, b := range r.st.books {
		if filter.Title != "" && !strings.EqualFold(b.Title, filter.Title) {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(b.Category, filter.Category) {
			continue
		}
		if filter.Author != "" && !strings.EqualFold(b.Author, filter.Author) {
			continue
		}
		if filter.Rating != nil && b.Rating != *filter.Rating {
			continue
		}
		if filter.PublishedDate != nil && b.PublishedDate != *filter.PublishedDate {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}

func (r *bookRepo) Update(_ context.Context, book *model.Book) error {
	i := r.index(book.ID)
	if i < 0 {
		return apperror.NotFound("Book")
	}
	r.st.books[i] = *book
	return nil
}

func (r *bookRepo) Delete(_ context.Context, id int64) error {
	i := r.index(id)
	if i < 0 {
		return apperror.NotFound("Book")
	}
	r.st.books = slices.Delete(r.st.books, i, i+1)
	return nil
}

func (r *bookRepo) Count(_ context.Context) (int, error) {
	return len(r.st.books), nil
}
