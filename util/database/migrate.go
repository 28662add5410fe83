package database

import (
	"context"
	"database/sql"
	_ "embed"
)

//go:embed schema.sql
var schema string

// Migrate provisions the schema. Statements are idempotent
// (CREATE ... IF NOT EXISTS) so it is safe to run at every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
