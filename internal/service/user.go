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

// UserService handles registration, login and account removal.
//
// DEPENDENCIES (injected via NewUserService):
//   - store      repository.Store       → user rows
//   - passwords  *auth.PasswordService  → bcrypt hashing
//   - tokens     *auth.TokenService     → JWTs; nil when auth is disabled
//   - logger     *slog.Logger           → structured logging
type UserService struct {
	store     repository.Store
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewUserService(
	store repository.Store,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// errBadCredentials is deliberately vague: the caller must not learn
// whether the username or the password was wrong.
var errBadCredentials = apperror.Unauthorized("Incorrect username or password.")

// Register validates input, hashes the password and stores a new active user
// with RoleUser. A duplicate email or username is apperror.ErrConflict.
func (s *UserService) Register(ctx context.Context, input model.UserInput) (*model.User, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	hashed, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	user := &model.User{
		Email:          input.Email,
		Username:       input.Username,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		HashedPassword: hashed,
		IsActive:       true,
		Role:           model.RoleUser,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		logFailure(s.logger, "failed to register user", err, slog.String("username", input.Username))
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user *model.User
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user at id.
//
// PERMISSIONS:
// An authenticated caller may delete only their own account unless they are
// an admin. caller is nil when auth is disabled. The bootstrap owner is never
// deletable because anonymous todo creation depends on it.
//
// A user who still owns todos cannot be deleted (apperror.ErrConflict).
func (s *UserService) Delete(ctx context.Context, caller *auth.Identity, id int64) error {
	if caller != nil && caller.UserID != id && caller.Role != model.RoleAdmin {
		return apperror.Forbidden("You may only delete your own account.")
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user.Username == repository.DefaultOwnerUsername {
			return apperror.Forbidden("The default owner cannot be deleted.")
		}
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		logFailure(s.logger, "failed to delete user", err, slog.Int64("id", id))
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

// Login checks the credentials and issues an access token.
//
// Unknown usernames, wrong passwords, accounts without a password (the
// bootstrap owner) and inactive accounts all yield the same
// apperror.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, input model.LoginInput) (*AuthResult, error) {
	if s.tokens == nil {
		return nil, apperror.Unauthorized("Login is disabled.")
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByUsername(ctx, input.Username)
		return err
	})
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Debug("login for unknown user", slog.String("username", input.Username))
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	if err := s.passwords.Verify(user.HashedPassword, input.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Debug("login with wrong password", slog.Int64("user_id", user.ID))
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if !user.IsActive {
		return nil, errBadCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate token",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("logging in: %w", err)
	}

	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}
