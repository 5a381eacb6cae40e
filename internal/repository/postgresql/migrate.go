package postgresql

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/migrations"
)

// Migrate applies the embedded schema files. Every statement is idempotent.
func Migrate(ctx context.Context, db *database.DB) error {
	files, err := fs.Glob(migrations.Postgres, "postgres/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, name := range files {
		body, err := fs.ReadFile(migrations.Postgres, name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		// No arguments: pgx uses the simple protocol, which allows several statements.
		if _, err := db.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
		slog.Debug("migration applied", "file", name)
	}
	return nil
}
