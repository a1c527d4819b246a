package database

import (
	"context"
	"database/sql"
	"fmt"

	"trustscore/migrations"
)

// Migrate applies every forward migration in order. The steps are written to
// be re-runnable, so this is safe on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	steps, err := migrations.Up()
	if err != nil {
		return err
	}
	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return fmt.Errorf("execute migration %s: %w", step.Name, err)
		}
	}
	return nil
}
