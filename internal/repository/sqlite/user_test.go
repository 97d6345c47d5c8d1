package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/todo-service/internal/apperror"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
)

func newUser(username, email string) *model.User {
	return &model.User{
		Email:          email,
		Username:       username,
		FirstName:      "Test",
		LastName:       "User",
		HashedPassword: "hashedpass123",
		IsActive:       true,
	}
}

// createTestUser is a test helper that creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := newUser(username, username+"@example.com")
	inTx(t, db, func(tx repository.Tx) error {
		return tx.Users().Create(context.Background(), user)
	})
	return user
}

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "testuser")

	if user.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}

	inTx(t, db, func(tx repository.Tx) error {
		saved, err := tx.Users().GetByUsername(ctx, "testuser")
		if err != nil {
			return err
		}
		if saved.Email != "testuser@example.com" {
			t.Errorf("Email = %q, want %q", saved.Email, "testuser@example.com")
		}
		if !saved.IsActive {
			t.Error("IsActive = false, want true")
		}
		if saved.Role != model.RoleUser {
			t.Errorf("Role = %q, want %q", saved.Role, model.RoleUser)
		}
		return nil
	})
}

func TestUserCreate_UniqueConstraints(t *testing.T) {
	tests := []struct {
		name string
		dup  *model.User
	}{
		{name: "same email", dup: newUser("differentuser", "unique@example.com")},
		{name: "same username", dup: newUser("uniqueuser", "other@example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			ctx := context.Background()
			inTx(t, db, func(tx repository.Tx) error {
				return tx.Users().Create(ctx, newUser("uniqueuser", "unique@example.com"))
			})

			err := db.WithinTx(ctx, func(tx repository.Tx) error {
				return tx.Users().Create(ctx, tt.dup)
			})
			if !errors.Is(err, apperror.ErrConflict) {
				t.Fatalf("Create() error = %v, want ErrConflict", err)
			}

			var count int
			if err := db.conn.QueryRow(`SELECT COUNT(*) FROM users WHERE username <> ?`,
				repository.DefaultOwnerUsername).Scan(&count); err != nil {
				t.Fatalf("counting users: %v", err)
			}
			if count != 1 {
				t.Errorf("users = %d, want 1", count)
			}
		})
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithinTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Users().GetByID(ctx, 12345)
		return err
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "leaver")

	inTx(t, db, func(tx repository.Tx) error {
		return tx.Users().Delete(ctx, user.ID)
	})

	err := db.WithinTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Users().GetByID(ctx, user.ID)
		return err
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after Delete error = %v, want ErrNotFound", err)
	}
}

// TestUserDelete_RestrictedWhileOwningTodos pins the owner-removal policy:
// a user with todos cannot be deleted and both rows survive.
func TestUserDelete_RestrictedWhileOwningTodos(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "owner")

	var todo *model.Todo
	inTx(t, db, func(tx repository.Tx) error {
		todo = newTodo("keeps owner alive", user.ID)
		return tx.Todos().Create(ctx, todo)
	})

	err := db.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Users().Delete(ctx, user.ID)
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Delete() error = %v, want ErrConflict", err)
	}

	inTx(t, db, func(tx repository.Tx) error {
		if _, err := tx.Users().GetByID(ctx, user.ID); err != nil {
			return err
		}
		_, err := tx.Todos().GetByID(ctx, todo.ID)
		return err
	})
}
