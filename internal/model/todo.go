// Package model defines the data structures used throughout the application.
//
// Each resource has two shapes: the stored row (Todo, Book, User) and the
// request payload (TodoInput, ...). Payloads carry `validate:"..."` tags,
// the declarative schema checked by the validation package before any
// service code runs.
package model

// Todo is a task owned by exactly one User.
type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
	OwnerID     int64  `json:"owner_id"`
}

// TodoInput is the create/update payload.
//
// ID is accepted so clients can echo a row back, but it is never trusted:
// the store assigns it on create and the path id wins on update.
// OwnerID is optional; see service.TodoService.Create for how the owner is chosen.
type TodoInput struct {
	ID          *int64 `json:"id,omitempty"`
	Title       string `json:"title"       validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"required,min=3,max=100"`
	Priority    int    `json:"priority"    validate:"gte=1,lte=5"`
	Complete    bool   `json:"complete"`
	OwnerID     *int64 `json:"owner_id,omitempty" validate:"omitempty,gte=1"`
}
