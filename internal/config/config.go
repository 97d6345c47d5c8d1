// Package config reads the service configuration from the environment.
//
// Values come from real environment variables first. A .env file in the
// working directory, if present, fills in anything not already set, so
// local development needs no exported variables:
//
//	PORT=8080
//	DB_PATH=data/todos.db
//	BOOK_STORE=memory
//	JWT_SECRET=change-me-to-something-long
//	LOG_LEVEL=debug
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Book store backends accepted by BOOK_STORE.
const (
	BookStoreMemory = "memory"
	BookStoreSQLite = "sqlite"
)

// Config is everything main needs to build the server.
type Config struct {
	Port      int
	DBPath    string
	BookStore string
	// JWTSecret enables login and token auth when non-empty.
	JWTSecret string
	LogLevel  slog.Level
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:      8080,
		DBPath:    "data/todos.db",
		BookStore: BookStoreMemory,
		LogLevel:  slog.LevelInfo,
	}
}

// Load reads .env (when present) and then the environment.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error; a malformed one is.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of
// os.LookupEnv so tests can pass a map-backed function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v, ok := lookup("DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := lookup("BOOK_STORE"); ok && v != "" {
		switch v = strings.ToLower(v); v {
		case BookStoreMemory, BookStoreSQLite:
			cfg.BookStore = v
		default:
			return Config{}, fmt.Errorf("config: BOOK_STORE must be %q or %q, got %q", BookStoreMemory, BookStoreSQLite, v)
		}
	}

	if v, ok := lookup("JWT_SECRET"); ok {
		cfg.JWTSecret = v
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		// slog.Level understands "debug", "info", "warn", "error" and offsets like "info+2".
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	return cfg, nil
}

// AuthEnabled reports whether a JWT secret was configured.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}
