package client

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/bidmarket/internal/client/migrations"
	"github.com/dmitrijs2005/bidmarket/internal/client/repositories/kv"
	"github.com/dmitrijs2005/bidmarket/internal/filex"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Repositories groups the local stores opened from one database file.
type Repositories struct {
	KV kv.TxRepository
}

func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{KV: kv.NewSQLiteRepository(db)}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite file at path and brings
// its schema up to date. Several processes may open the same file; writers
// wait on each other through the busy timeout.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("storage dir: %w", err)
		}
		dsn = "file:" + path + "?" + url.Values{
			"_pragma": {"busy_timeout(5000)", "journal_mode(WAL)"},
		}.Encode()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
