// Package migrate applies the embedded goose migrations for the snapshot,
// settings, job, and email-config tables.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var embedMigrations embed.FS

// target maps one storage driver to the goose dialect, the database/sql
// driver, and the migration directory for that backend.
type target struct {
	dialect   string
	sqlDriver string
	dir       string
}

// Only the disk-backed drivers have a schema. The memory driver builds its
// state on open and is rejected here.
var targets = map[string]target{
	"sqlite":       {dialect: "sqlite3", sqlDriver: "sqlite", dir: "migrations/sqlite"},
	"postgres":     {dialect: "postgres", sqlDriver: "pgx", dir: "migrations/postgres"},
	"postgrespool": {dialect: "postgres", sqlDriver: "pgx", dir: "migrations/postgres"},
}

func resolve(driver string) (target, error) {
	if driver == "" {
		driver = "sqlite"
	}
	t, ok := targets[driver]
	if !ok {
		return target{}, fmt.Errorf("driver %q has no migrations", driver)
	}
	return t, nil
}

func open(driver, dsn string) (*sql.DB, target, error) {
	t, err := resolve(driver)
	if err != nil {
		return nil, target{}, err
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect(t.dialect); err != nil {
		return nil, target{}, err
	}

	if dsn == "" {
		dsn = "pvweekly.db"
	}
	db, err := sql.Open(t.sqlDriver, dsn)
	if err != nil {
		return nil, target{}, err
	}
	return db, t, nil
}

// Up applies all pending migrations.
func Up(ctx context.Context, driver, dsn string) error {
	db, t, err := open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.UpContext(ctx, db, t.dir)
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, driver, dsn string) error {
	db, t, err := open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.DownContext(ctx, db, t.dir)
}

// Status prints the applied/pending state of each migration.
func Status(ctx context.Context, driver, dsn string) error {
	db, t, err := open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.StatusContext(ctx, db, t.dir)
}
