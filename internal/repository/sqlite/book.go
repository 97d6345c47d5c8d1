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

var _ repository.BookRepository = (*BookRepo)(nil)

const bookColumns = `id, title, author, category, description, rating, published_date`

// BookRepo is the durable book catalogue.
//
// Text lookups compare with COLLATE NOCASE, which folds ASCII letters only.
// The memory store folds full Unicode; the seeded data is ASCII either way.
type BookRepo struct {
	q querier
}

func (r *BookRepo) Create(ctx context.Context, book *model.Book) error {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO books (title, author, category, description, rating, published_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		book.Title,
		book.Author,
		book.Category,
		book.Description,
		book.Rating,
		book.PublishedDate,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading book id: %w", err)
	}
	book.ID = id

	return nil
}

func (r *BookRepo) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	b, err := scanBook(r.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting book %d: %w", id, err)
	}
	return b, nil
}

// GetByTitle returns the first book (lowest id) whose title matches, ignoring case.
func (r *BookRepo) GetByTitle(ctx context.Context, title string) (*model.Book, error) {
	b, err := scanBook(r.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE title = ? COLLATE NOCASE ORDER BY id LIMIT 1`, title))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting book %q: %w", title, err)
	}
	return b, nil
}

// List applies filter as indexed equality predicates and returns rows in id order.
func (r *BookRepo) List(ctx context.Context, filter repository.BookFilter) ([]model.Book, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Title != "" {
		conds = append(conds, "title = ? COLLATE NOCASE")
		args = append(args, filter.Title)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ? COLLATE NOCASE")
		args = append(args, filter.Category)
	}
	if filter.Author != "" {
		conds = append(conds, "author = ? COLLATE NOCASE")
		args = append(args, filter.Author)
	}
	if filter.Rating != nil {
		conds = append(conds, "rating = ?")
		args = append(args, *filter.Rating)
	}
	if filter.PublishedDate != nil {
		conds = append(conds, "published_date = ?")
		args = append(args, *filter.PublishedDate)
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books`+whereClause(conds)+` ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing books: %w", err)
	}
	defer rows.Close()

	books := make([]model.Book, 0)
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.Description, &b.Rating, &b.PublishedDate); err != nil {
			return nil, fmt.Errorf("sqlite: scanning book row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating books: %w", err)
	}

	return books, nil
}

func (r *BookRepo) Update(ctx context.Context, book *model.Book) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE books
		 SET title = ?, author = ?, category = ?, description = ?, rating = ?, published_date = ?
		 WHERE id = ?`,
		book.Title,
		book.Author,
		book.Category,
		book.Description,
		book.Rating,
		book.PublishedDate,
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating book %d: %w", book.ID, err)
	}

	return expectOneRow(result, "Book")
}

func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting book %d: %w", id, err)
	}

	return expectOneRow(result, "Book")
}

func (r *BookRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting books: %w", err)
	}
	return n, nil
}

func scanBook(row *sql.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.Description, &b.Rating, &b.PublishedDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Book")
		}
		return nil, err
	}
	return &b, nil
}
