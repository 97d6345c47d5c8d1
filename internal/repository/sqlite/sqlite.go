// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// UNIT OF WORK:
// Every repository call runs inside DB.WithinTx. The callback receives a
// repository.Tx whose repositories all share one *sql.Tx, so a request's
// reads and writes commit or roll back together.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"

	"github.com/sakif/todo-service/internal/repository"
)

// compile-time checks
var (
	_ repository.Store = (*DB)(nil)
	_ repository.Tx    = (*txScope)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and hands out units of work.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath, runs migrations and makes
// sure the bootstrap owner exists.
//
// dbPath examples:
//   - "data/todos.db"  → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests)
//
// PRAGMAS VIA THE DSN:
// foreign_keys is a per-connection setting in SQLite. Setting it with a
// one-off Exec would only configure whichever pooled connection ran it, so
// it goes into the DSN, where the driver applies it to every new connection.
func New(dbPath string) (*DB, error) {
	memory := dbPath == ":memory:"

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own empty database.
	// Pin the pool to one connection so every query sees the same tables.
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	if err := db.ensureDefaultOwner(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: creating default owner: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithinTx runs fn inside a single transaction.
//
// If fn returns nil the transaction is committed. If fn returns an error
// or panics the transaction is rolled back and the error (or panic) is
// passed on unchanged.
func (db *DB) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&txScope{q: sqlTx}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// txScope exposes the repositories bound to one transaction.
type txScope struct {
	q querier
}

func (t *txScope) Todos() repository.TodoRepository { return &TodoRepo{q: t.q} }
func (t *txScope) Users() repository.UserRepository { return &UserRepo{q: t.q} }
func (t *txScope) Books() repository.BookRepository { return &BookRepo{q: t.q} }

// migrate creates the schema.
//
// AUTOINCREMENT makes SQLite keep a high-water mark per table, so ids are
// never reused even after the newest row is deleted.
//
// ON DELETE RESTRICT: a user who still owns todos cannot be removed.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			email           TEXT NOT NULL UNIQUE,
			username        TEXT NOT NULL UNIQUE,
			first_name      TEXT NOT NULL DEFAULT '',
			last_name       TEXT NOT NULL DEFAULT '',
			hashed_password TEXT NOT NULL DEFAULT '',
			is_active       BOOLEAN NOT NULL DEFAULT 1,
			role            TEXT NOT NULL DEFAULT 'user',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS todos (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority    INTEGER NOT NULL DEFAULT 0,
			complete    BOOLEAN NOT NULL DEFAULT 0,
			owner_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT
		);
		CREATE INDEX IF NOT EXISTS idx_todos_owner_id ON todos(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating todos table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			title          TEXT NOT NULL,
			author         TEXT NOT NULL,
			category       TEXT NOT NULL DEFAULT '',
			description    TEXT NOT NULL DEFAULT '',
			rating         INTEGER NOT NULL DEFAULT 0,
			published_date INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_books_category ON books(category COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_books_author ON books(author COLLATE NOCASE);
	`)
	if err != nil {
		return fmt.Errorf("creating books table: %w", err)
	}

	return nil
}

// ensureDefaultOwner inserts the bootstrap owner if it is missing. It has
// no password hash, so nobody can log in as it.
func (db *DB) ensureDefaultOwner(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (email, username, first_name, last_name, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		repository.DefaultOwnerUsername+"@localhost",
		repository.DefaultOwnerUsername,
		"Default",
		"Owner",
		"user",
		time.Now().UTC(),
	)
	return err
}

// whereClause joins conditions with AND. It returns "" for no conditions.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// SQLite result codes (sqlite3.h). The driver reports extended codes, so
// the low byte carries the primary code.
const (
	codeConstraint           = 19
	codeConstraintForeignKey = 787
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067

	// ON DELETE RESTRICT fires immediately and is reported as a trigger
	// constraint, not as a foreign-key one.
	codeConstraintTrigger = 1811
)

// constraintKind classifies a driver error. It returns the extended
// result code and true when err is a constraint violation.
func constraintKind(err error) (int, bool) {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	if se.Code()&0xff != codeConstraint {
		return 0, false
	}
	return se.Code(), true
}

// isForeignKeyViolation matches both a missing parent (787) and a
// RESTRICT action blocking a parent delete (1811).
func isForeignKeyViolation(err error) bool {
	code, ok := constraintKind(err)
	return ok && (code == codeConstraintForeignKey || code == codeConstraintTrigger)
}

func isUniqueViolation(err error) bool {
	code, ok := constraintKind(err)
	return ok && (code == codeConstraintUnique || code == codeConstraintPrimaryKey)
}
