// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// UNIT OF WORK:
// Every public method runs inside exactly one store.WithinTx call. All the
// reads and writes a request needs happen on the repositories handed to the
// callback, so they commit together or not at all. Nothing from a Tx is
// kept after the callback returns.
//
// DEPENDENCY INJECTION:
// Services take a repository.Store (interface), NOT a *sqlite.DB. Tests pass
// memory.New() and the handlers never notice the difference.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/todo-service/internal/apperror"
	"github.com/sakif/todo-service/internal/auth"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
	"github.com/sakif/todo-service/internal/validation"
)

// TodoService handles business logic for todos.
type TodoService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewTodoService creates a new TodoService.
func NewTodoService(store repository.Store, logger *slog.Logger) *TodoService {
	return &TodoService{
		store:  store,
		logger: logger,
	}
}

// List returns every todo matching filter, in id order.
func (s *TodoService) List(ctx context.Context, filter repository.TodoFilter) ([]model.Todo, error) {
	var todos []model.Todo
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		todos, err = tx.Todos().List(ctx, filter)
		return err
	})
	if err != nil {
		s.logger.Error("failed to list todos", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todos, nil
}

// GetByID returns apperror.ErrNotFound if the todo doesn't exist.
func (s *TodoService) GetByID(ctx context.Context, id int64) (*model.Todo, error) {
	var todo *model.Todo
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		todo, err = tx.Todos().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// Create validates and saves a new todo. Any id in the payload is ignored.
//
// WHO OWNS THE NEW TODO?
//  1. The authenticated caller, when there is one.
//  2. Otherwise input.OwnerID, when given. It must name an existing user.
//  3. Otherwise the bootstrap "default" user.
func (s *TodoService) Create(ctx context.Context, caller *auth.Identity, input model.TodoInput) (*model.Todo, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	todo := &model.Todo{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Complete:    input.Complete,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		owner, err := resolveOwner(ctx, tx, caller, input.OwnerID)
		if err != nil {
			return err
		}
		todo.OwnerID = owner
		return tx.Todos().Create(ctx, todo)
	})
	if err != nil {
		logFailure(s.logger, "failed to create todo", err, slog.String("title", input.Title))
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	s.logger.Info("todo created",
		slog.Int64("id", todo.ID),
		slog.Int64("owner_id", todo.OwnerID),
	)
	return todo, nil
}

// Update replaces every field of the todo at id. The path id wins over any
// id in the payload, and the owner is kept unless input.OwnerID is set.
func (s *TodoService) Update(ctx context.Context, id int64, input model.TodoInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		existing, err := tx.Todos().GetByID(ctx, id)
		if err != nil {
			return err
		}

		updated := model.Todo{
			ID:          id,
			Title:       input.Title,
			Description: input.Description,
			Priority:    input.Priority,
			Complete:    input.Complete,
			OwnerID:     existing.OwnerID,
		}
		if input.OwnerID != nil {
			updated.OwnerID = *input.OwnerID
		}
		return tx.Todos().Update(ctx, &updated)
	})
	if err != nil {
		logFailure(s.logger, "failed to update todo", err, slog.Int64("id", id))
		return fmt.Errorf("updating todo: %w", err)
	}

	s.logger.Info("todo updated", slog.Int64("id", id))
	return nil
}

// Delete removes the todo at id.
func (s *TodoService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Todos().Delete(ctx, id)
	})
	if err != nil {
		logFailure(s.logger, "failed to delete todo", err, slog.Int64("id", id))
		return fmt.Errorf("deleting todo: %w", err)
	}

	s.logger.Info("todo deleted", slog.Int64("id", id))
	return nil
}

func resolveOwner(ctx context.Context, tx repository.Tx, caller *auth.Identity, requested *int64) (int64, error) {
	if caller != nil && caller.UserID > 0 {
		return caller.UserID, nil
	}
	if requested != nil {
		return *requested, nil
	}

	owner, err := tx.Users().GetByUsername(ctx, repository.DefaultOwnerUsername)
	if err != nil {
		return 0, fmt.Errorf("looking up default owner: %w", err)
	}
	return owner.ID, nil
}

// logFailure logs store failures at error level. Client mistakes (missing
// rows, bad input, constraint conflicts) are normal responses and only get
// a debug line.
func logFailure(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		logger.Debug(msg, attrs...)
		return
	}
	logger.Error(msg, attrs...)
}
