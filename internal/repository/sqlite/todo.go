package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/todo-service/internal/apperror"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
)

var _ repository.TodoRepository = (*TodoRepo)(nil)

// TodoRepo reads and writes the todos table within one unit of work.
type TodoRepo struct {
	q querier
}

// Create inserts a todo and fills in the id assigned by SQLite.
// A missing owner surfaces as apperror.ErrConflict; nothing is written.
func (r *TodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO todos (title, description, priority, complete, owner_id)
		 VALUES (?, ?, ?, ?, ?)`,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Complete,
		todo.OwnerID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict(fmt.Sprintf("owner %d does not exist", todo.OwnerID))
		}
		return fmt.Errorf("sqlite: creating todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading todo id: %w", err)
	}
	todo.ID = id

	return nil
}

// GetByID returns apperror.ErrNotFound if no todo has that id.
func (r *TodoRepo) GetByID(ctx context.Context, id int64) (*model.Todo, error) {
	var t model.Todo

	err := r.q.QueryRowContext(ctx,
		`SELECT id, title, description, priority, complete, owner_id
		 FROM todos WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Complete, &t.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Todo")
		}
		return nil, fmt.Errorf("sqlite: getting todo %d: %w", id, err)
	}

	return &t, nil
}

// List returns todos matching every set field of filter, in id order.
func (r *TodoRepo) List(ctx context.Context, filter repository.TodoFilter) ([]model.Todo, error) {
	var (
		conds []string
		args  []any
	)
	if filter.OwnerID != nil {
		conds = append(conds, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.Complete != nil {
		conds = append(conds, "complete = ?")
		args = append(args, *filter.Complete)
	}
	if filter.Priority != nil {
		conds = append(conds, "priority = ?")
		args = append(args, *filter.Priority)
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT id, title, description, priority, complete, owner_id
		 FROM todos`+whereClause(conds)+` ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing todos: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0)
	for rows.Next() {
		var t model.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Complete, &t.OwnerID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning todo row: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating todos: %w", err)
	}

	return todos, nil
}

// Update replaces every mutable column of the row with todo.ID.
//
// RowsAffected == 0 means the WHERE clause matched nothing, i.e. not found.
func (r *TodoRepo) Update(ctx context.Context, todo *model.Todo) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE todos
		 SET title = ?, description = ?, priority = ?, complete = ?, owner_id = ?
		 WHERE id = ?`,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Complete,
		todo.OwnerID,
		todo.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict(fmt.Sprintf("owner %d does not exist", todo.OwnerID))
		}
		return fmt.Errorf("sqlite: updating todo %d: %w", todo.ID, err)
	}

	return expectOneRow(result, "Todo")
}

// Delete removes the todo with the given id.
func (r *TodoRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting todo %d: %w", id, err)
	}

	return expectOneRow(result, "Todo")
}

// expectOneRow turns a zero-row UPDATE/DELETE into a NotFound for resource.
func expectOneRow(result sql.Result, resource string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource)
	}
	return nil
}
