package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/todo-service/internal/apperror"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
)

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, email, username, first_name, last_name, hashed_password, is_active, role, created_at`

// UserRepo reads and writes the users table within one unit of work.
type UserRepo struct {
	q querier
}

// Create inserts a user. Email and username are UNIQUE columns; a clash
// returns apperror.ErrConflict and the row is not inserted.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	user.CreatedAt = time.Now().UTC()

	result, err := r.q.ExecContext(ctx,
		`INSERT INTO users (email, username, first_name, last_name, hashed_password, is_active, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.HashedPassword,
		user.IsActive,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email or username already registered")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID returns apperror.ErrNotFound if no user has that id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername looks a user up by the exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

// Delete removes a user. The todos foreign key is ON DELETE RESTRICT, so a
// user who still owns todos cannot be deleted.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict(fmt.Sprintf("user %d still owns todos", id))
		}
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}

	return expectOneRow(result, "User")
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.HashedPassword,
		&u.IsActive,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, err
	}
	return &u, nil
}
