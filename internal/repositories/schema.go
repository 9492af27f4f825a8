package repositories

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// SchemaStatements returns the CREATE statements for the dialect in order.
func SchemaStatements(d Dialect) ([]string, error) {
	name := "schema/mysql.sql"
	if d.Postgres() {
		name = "schema/postgres.sql"
	}
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, stmt := range strings.Split(string(data), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// ApplySchema creates any missing tables. Statements are idempotent.
func ApplySchema(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts, err := SchemaStatements(d)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
