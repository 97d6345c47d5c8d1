package model

// Book is a catalogue entry.
type Book struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Rating        int    `json:"rating"`
	PublishedDate int    `json:"published_date"`
}

// BookInput is the create/update payload. Rating is 0..5 and the
// publication year lies strictly between 1000 and 2100.
type BookInput struct {
	ID            *int64 `json:"id,omitempty"`
	Title         string `json:"title"          validate:"required,min=3,max=100"`
	Author        string `json:"author"         validate:"required,min=1,max=100"`
	Category      string `json:"category"       validate:"max=50"`
	Description   string `json:"description"    validate:"required,min=1,max=100"`
	Rating        int    `json:"rating"         validate:"gte=0,lte=5"`
	PublishedDate int    `json:"published_date" validate:"gt=1000,lt=2100"`
}

// BookTitleUpdate rewrites every book whose title matches Title
// (case-insensitively). Omitted optional fields, category included, keep
// their stored value.
type BookTitleUpdate struct {
	Title         string `json:"title"          validate:"required,min=3,max=100"`
	Author        string `json:"author"         validate:"required,min=1,max=100"`
	Category      string `json:"category"       validate:"max=50"`
	Description   string `json:"description"    validate:"max=100"`
	Rating        *int   `json:"rating"         validate:"omitempty,gte=0,lte=5"`
	PublishedDate *int   `json:"published_date" validate:"omitempty,gt=1000,lt=2100"`
}
