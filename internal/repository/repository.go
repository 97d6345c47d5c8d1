// Package repository declares the Record Store contracts.
//
// Services never see SQL. They ask a Store for a unit-of-work and use the
// repositories handed to them inside it:
//
//	err := store.WithinTx(ctx, func(tx repository.Tx) error {
//	    return tx.Todos().Create(ctx, todo)
//	})
//
// Two implementations exist: repository/sqlite (durable) and
// repository/memory (process-local, used by tests and the default book
// catalogue). Both enforce the same uniqueness and foreign-key rules.
package repository

import (
	"context"

	"github.com/sakif/todo-service/internal/model"
)

// TodoFilter narrows List to rows whose fields equal every non-nil value.
type TodoFilter struct {
	OwnerID  *int64
	Complete *bool
	Priority *int
}

// BookFilter narrows List. Text fields match case-insensitively and are
// ignored when empty.
type BookFilter struct {
	Title         string
	Category      string
	Author        string
	Rating        *int
	PublishedDate *int
}

type TodoRepository interface {
	Create(ctx context.Context, todo *model.Todo) error
	GetByID(ctx context.Context, id int64) (*model.Todo, error)
	List(ctx context.Context, filter TodoFilter) ([]model.Todo, error)
	Update(ctx context.Context, todo *model.Todo) error
	Delete(ctx context.Context, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	GetByTitle(ctx context.Context, title string) (*model.Book, error)
	List(ctx context.Context, filter BookFilter) ([]model.Book, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// Tx is one unit-of-work. Repositories obtained from it must not be used
// after the WithinTx callback returns.
type Tx interface {
	Todos() TodoRepository
	Users() UserRepository
	Books() BookRepository
}

// Store is the Session Provider.
//
// WithinTx commits when fn returns nil and rolls back when fn returns an
// error or panics, so no unit-of-work outlives the call.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// DefaultOwnerUsername names the bootstrap user that owns todos created
// without an authenticated caller or explicit owner.
const DefaultOwnerUsername = "default"
