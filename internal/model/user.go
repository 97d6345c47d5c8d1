package model

import "time"

// Role values accepted for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that owns todos.
//
// Email and Username are each unique across the table. HashedPassword is a
// bcrypt hash and is never serialized; the `json:"-"` tag keeps it out of
// every API response.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserInput is the registration payload. Password is plaintext here and is
// hashed by the service before it reaches the store.
//
// There is no role field: every registered account is a RoleUser. Admins are
// promoted out of band by updating users.role in the database.
type UserInput struct {
	Email     string `json:"email"      validate:"required,email,max=255"`
	Username  string `json:"username"   validate:"required,min=3,max=50"`
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name"  validate:"required,min=1,max=50"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
}

// LoginInput is the credential payload for POST /auth/login.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
