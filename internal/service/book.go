package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/todo-service/internal/apperror"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
	"github.com/sakif/todo-service/internal/validation"
)

// Bounds for the numeric book filters. Same as the BookInput schema.
const (
	MinRating           = 0
	MaxRating           = 5
	MinPublishedDateExc = 1000
	MaxPublishedDateExc = 2100
)

// InitialBooks is the catalogue a fresh, empty book store starts with.
var InitialBooks = []model.Book{
	{Title: "Title One", Author: "Author One", Category: "science", Description: "An introduction to the sciences", Rating: 5, PublishedDate: 2012},
	{Title: "Title Two", Author: "Author Two", Category: "science", Description: "More science", Rating: 4, PublishedDate: 2015},
	{Title: "Title Three", Author: "Author Three", Category: "history", Description: "A short history", Rating: 3, PublishedDate: 1998},
	{Title: "Title Four", Author: "Author Four", Category: "math", Description: "Numbers and proofs", Rating: 2, PublishedDate: 2005},
	{Title: "Title Five", Author: "Author Five", Category: "math", Description: "Algebra for everyone", Rating: 4, PublishedDate: 2020},
	{Title: "Title Six", Author: "Author Two", Category: "math", Description: "Geometry revisited", Rating: 1, PublishedDate: 2024},
}

// BookService handles business logic for the book catalogue.
//
// The catalogue can live in either store; server.New picks one from config.
type BookService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewBookService(store repository.Store, logger *slog.Logger) *BookService {
	return &BookService{
		store:  store,
		logger: logger,
	}
}

// SeedIfEmpty inserts InitialBooks when the store holds no books and
// reports how many rows it added. Count and inserts share one unit of work,
// so two processes starting together cannot both seed a durable store.
func (s *BookService) SeedIfEmpty(ctx context.Context) (int, error) {
	added := 0
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		n, err := tx.Books().Count(ctx)
		if err != nil || n > 0 {
			return err
		}
		for _, b := range InitialBooks {
			book := b
			if err := tx.Books().Create(ctx, &book); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seeding books: %w", err)
	}

	if added > 0 {
		s.logger.Info("book catalogue seeded", slog.Int("count", added))
	}
	return added, nil
}

// List returns the books matching filter. An unmatched filter yields an
// empty slice, never an error.
func (s *BookService) List(ctx context.Context, filter repository.BookFilter) ([]model.Book, error) {
	if err := checkBookFilter(filter); err != nil {
		return nil, err
	}

	var books []model.Book
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		books, err = tx.Books().List(ctx, filter)
		return err
	})
	if err != nil {
		s.logger.Error("failed to list books", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return books, nil
}

// ListByAuthor returns the author's books, optionally narrowed to category.
func (s *BookService) ListByAuthor(ctx context.Context, author, category string) ([]model.Book, error) {
	return s.List(ctx, repository.BookFilter{Author: author, Category: category})
}

func (s *BookService) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	var book *model.Book
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		book, err = tx.Books().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// GetByTitle matches title case-insensitively. A missing title is
// apperror.ErrNotFound, not an empty result.
func (s *BookService) GetByTitle(ctx context.Context, title string) (*model.Book, error) {
	var book *model.Book
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		book, err = tx.Books().GetByTitle(ctx, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *BookService) Create(ctx context.Context, input model.BookInput) (*model.Book, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	book := bookFromInput(input)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Books().Create(ctx, book)
	})
	if err != nil {
		logFailure(s.logger, "failed to create book", err, slog.String("title", input.Title))
		return nil, fmt.Errorf("creating book: %w", err)
	}

	s.logger.Info("book created", slog.Int64("id", book.ID), slog.String("title", book.Title))
	return book, nil
}

// Update replaces every field of the book at id.
func (s *BookService) Update(ctx context.Context, id int64, input model.BookInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	book := bookFromInput(input)
	book.ID = id
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Books().Update(ctx, book)
	})
	if err != nil {
		logFailure(s.logger, "failed to update book", err, slog.Int64("id", id))
		return fmt.Errorf("updating book: %w", err)
	}

	s.logger.Info("book updated", slog.Int64("id", id))
	return nil
}

// UpdateByTitle overwrites every book whose title matches input.Title
// case-insensitively and returns the updated rows. Title and author are
// always written; optional fields left out of input keep their stored value.
// No match at all is apperror.ErrNotFound.
func (s *BookService) UpdateByTitle(ctx context.Context, input model.BookTitleUpdate) ([]model.Book, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var books []model.Book
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		books, err = tx.Books().List(ctx, repository.BookFilter{Title: input.Title})
		if err != nil {
			return err
		}
		if len(books) == 0 {
			return apperror.NotFound("Book")
		}

		for i := range books {
			book := &books[i]
			book.Title = input.Title
			book.Author = input.Author
			if input.Category != "" {
				book.Category = input.Category
			}
			if input.Description != "" {
				book.Description = input.Description
			}
			if input.Rating != nil {
				book.Rating = *input.Rating
			}
			if input.PublishedDate != nil {
				book.PublishedDate = *input.PublishedDate
			}
			if err := tx.Books().Update(ctx, book); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to update book by title", err, slog.String("title", input.Title))
		return nil, fmt.Errorf("updating book: %w", err)
	}

	s.logger.Info("books updated by title",
		slog.String("title", input.Title),
		slog.Int("count", len(books)),
	)
	return books, nil
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Books().Delete(ctx, id)
	})
	if err != nil {
		logFailure(s.logger, "failed to delete book", err, slog.Int64("id", id))
		return fmt.Errorf("deleting book: %w", err)
	}

	s.logger.Info("book deleted", slog.Int64("id", id))
	return nil
}

// DeleteByTitle removes the first book whose title matches.
func (s *BookService) DeleteByTitle(ctx context.Context, title string) error {
	var id int64
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		book, err := tx.Books().GetByTitle(ctx, title)
		if err != nil {
			return err
		}
		id = book.ID
		return tx.Books().Delete(ctx, book.ID)
	})
	if err != nil {
		logFailure(s.logger, "failed to delete book by title", err, slog.String("title", title))
		return fmt.Errorf("deleting book: %w", err)
	}

	s.logger.Info("book deleted", slog.Int64("id", id))
	return nil
}

func bookFromInput(in model.BookInput) *model.Book {
	return &model.Book{
		Title:         in.Title,
		Author:        in.Author,
		Category:      in.Category,
		Description:   in.Description,
		Rating:        in.Rating,
		PublishedDate: in.PublishedDate,
	}
}

func checkBookFilter(f repository.BookFilter) error {
	if f.Rating != nil && (*f.Rating < MinRating || *f.Rating > MaxRating) {
		return apperror.ValidationFailed("rating",
			fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	if f.PublishedDate != nil && (*f.PublishedDate <= MinPublishedDateExc || *f.PublishedDate >= MaxPublishedDateExc) {
		return apperror.ValidationFailed("published_date",
			fmt.Sprintf("published_date must be greater than %d and less than %d", MinPublishedDateExc, MaxPublishedDateExc))
	}
	return nil
}
