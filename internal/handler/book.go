package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
	"github.com/sakif/todo-service/internal/service"
	"github.com/sakif/todo-service/internal/validation"
)

// BookHandler exposes the book catalogue.
//
// Books are addressed by numeric id (/books/{id}) or, for the lookups kept
// from the original catalogue API, by title and author under their own
// path prefixes so a title can never be mistaken for an id.
type BookHandler struct {
	books  *service.BookService
	logger *slog.Logger
}

func NewBookHandler(books *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{books: books, logger: logger}
}

// HandleList returns the catalogue, optionally filtered.
//
// HTTP: GET /books
// QUERY (all optional): category, author (case-insensitive), rating [0,5],
// published_date (1000,2100). No match is 200 with [].
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.BookFilter{
		Category: q.Get("category"),
		Author:   q.Get("author"),
	}
	var err error
	if filter.Rating, err = validation.OptionalInt("rating", q.Get("rating")); err != nil {
		writeError(w, err)
		return
	}
	if filter.PublishedDate, err = validation.OptionalInt("published_date", q.Get("published_date")); err != nil {
		writeError(w, err)
		return
	}

	books, err := h.books.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// HandleGet: GET /books/{id}
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// HandleGetByTitle: GET /books/title/{title}
//
// A missing title is 404 {"detail":"Book not found."}, never 200 with null.
func (h *BookHandler) HandleGetByTitle(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.GetByTitle(r.Context(), r.PathValue("title"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// HandleListByAuthor: GET /books/author/{author}?category=...
func (h *BookHandler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.ListByAuthor(r.Context(), r.PathValue("author"), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// HandleCreate: POST /books → 201 with the stored book
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input model.BookInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	book, err := h.books.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// HandleUpdate: PUT /books/{id} → 204
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input model.BookInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	if err := h.books.Update(r.Context(), id, input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateByTitle: PUT /books/update_book → 204
//
// The body's title selects the books to overwrite. Every case-insensitive
// match is updated.
func (h *BookHandler) HandleUpdateByTitle(w http.ResponseWriter, r *http.Request) {
	var input model.BookTitleUpdate
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.books.UpdateByTitle(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete: DELETE /books/{id} → 204
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteByTitle: DELETE /books/title/{title} → 204
func (h *BookHandler) HandleDeleteByTitle(w http.ResponseWriter, r *http.Request) {
	if err := h.books.DeleteByTitle(r.Context(), r.PathValue("title")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
