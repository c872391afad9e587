package database

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed sqlite/*.sql
var sqliteMigrations embed.FS

// MemoryDSN opens a private in-memory database
const MemoryDSN = ":memory:"

// OpenSQLite opens (creating if needed) the SQLite database at dbPath and
// brings its schema up to date.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dsn := dbPath
	if dbPath != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db path: %w", err)
		}
		// busy_timeout waits on locks, WAL with synchronous NORMAL keeps writes cheap
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", filepath.Clean(dbPath))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runSQLiteMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runSQLiteMigrations(db *sql.DB) error {
	goose.SetBaseFS(sqliteMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "sqlite"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
