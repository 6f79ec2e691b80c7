package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/luisherrera/milltrack-agent/pkg/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Run executes a goose command against the embedded migration set. The agent
// binary ships standalone on station hardware, so migrations are embedded
// rather than read from a source checkout.
func Run(ctx context.Context, db *sql.DB, cfg config.DBConfig, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	dialect := "postgres"
	if cfg.IsSQLite() {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
