package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/todo-service/internal/apperror"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/repository"
)

func newBook(title, author, category string) *model.Book {
	return &model.Book{
		Title:         title,
		Author:        author,
		Category:      category,
		Description:   "A book",
		Rating:        4,
		PublishedDate: 2012,
	}
}

func seedBooks(t *testing.T, db *DB) {
	t.Helper()
	books := []*model.Book{
		newBook("Title One", "Author One", "science"),
		newBook("Title Two", "Author Two", "science"),
		newBook("Title Three", "Author Three", "history"),
		newBook("Title Four", "Author Four", "math"),
		newBook("Title Five", "Author Five", "math"),
		newBook("Title Six", "Author Two", "math"),
	}
	books[2].Rating = 2
	books[2].PublishedDate = 1999
	inTx(t, db, func(tx repository.Tx) error {
		for _, b := range books {
			if err := tx.Books().Create(context.Background(), b); err != nil {
				return err
			}
		}
		return nil
	})
}

func listBooks(t *testing.T, db *DB, filter repository.BookFilter) []model.Book {
	t.Helper()
	var books []model.Book
	inTx(t, db, func(tx repository.Tx) error {
		var err error
		books, err = tx.Books().List(context.Background(), filter)
		return err
	})
	return books
}

func TestBookList_All(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db)

	books := listBooks(t, db, repository.BookFilter{})
	if len(books) != 6 {
		t.Fatalf("List() = %d books, want 6", len(books))
	}
	if books[0].Title != "Title One" || books[5].Title != "Title Six" {
		t.Errorf("List() not in storage order: first=%q last=%q", books[0].Title, books[5].Title)
	}
}

func TestBookList_Filters(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db)

	two := 2
	year := 1999
	five := 5

	tests := []struct {
		name   string
		filter repository.BookFilter
		want   int
	}{
		{name: "title ignores case", filter: repository.BookFilter{Title: "TITLE four"}, want: 1},
		{name: "title is exact, not a prefix", filter: repository.BookFilter{Title: "Title"}, want: 0},
		{name: "category", filter: repository.BookFilter{Category: "science"}, want: 2},
		{name: "category ignores case", filter: repository.BookFilter{Category: "ScIeNcE"}, want: 2},
		{name: "author ignores case", filter: repository.BookFilter{Author: "author two"}, want: 2},
		{name: "author and category", filter: repository.BookFilter{Author: "Author Two", Category: "math"}, want: 1},
		{name: "rating", filter: repository.BookFilter{Rating: &two}, want: 1},
		{name: "published date", filter: repository.BookFilter{PublishedDate: &year}, want: 1},
		{name: "no match is empty", filter: repository.BookFilter{Rating: &five}, want: 0},
		{name: "unknown category is empty", filter: repository.BookFilter{Category: "poetry"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := listBooks(t, db, tt.filter)
			if got == nil {
				t.Fatal("List() returned nil slice, want empty")
			}
			if len(got) != tt.want {
				t.Errorf("List() = %d books, want %d", len(got), tt.want)
			}
		})
	}
}

func TestBookGetByTitle_IgnoresCase(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db)
	ctx := context.Background()

	inTx(t, db, func(tx repository.Tx) error {
		b, err := tx.Books().GetByTitle(ctx, "title one")
		if err != nil {
			return err
		}
		if b.Author != "Author One" || b.Category != "science" {
			t.Errorf("GetByTitle() = %+v", b)
		}
		return nil
	})

	err := db.WithinTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Books().GetByTitle(ctx, "Nonexistent")
		return err
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByTitle() error = %v, want ErrNotFound", err)
	}
}

func TestBookUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db)
	ctx := context.Background()

	inTx(t, db, func(tx repository.Tx) error {
		b, err := tx.Books().GetByTitle(ctx, "Title One")
		if err != nil {
			return err
		}
		b.Author = "New Author"
		b.Category = "New Category"
		if err := tx.Books().Update(ctx, b); err != nil {
			return err
		}
		return tx.Books().Delete(ctx, b.ID+1)
	})

	books := listBooks(t, db, repository.BookFilter{})
	if len(books) != 5 {
		t.Fatalf("List() = %d books, want 5", len(books))
	}
	if books[0].Author != "New Author" || books[0].Category != "New Category" {
		t.Errorf("updated book = %+v", books[0])
	}

	err := db.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Books().Update(ctx, &model.Book{ID: 999, Title: "ghost"})
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}

	err = db.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Books().Delete(ctx, 999)
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
