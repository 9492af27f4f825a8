package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Dialect adapts the repositories' MySQL-style queries to the configured
// driver. Queries are written with ? placeholders and rebound on the way out.
type Dialect struct {
	Driver string
}

func NewDialect(driver string) Dialect {
	return Dialect{Driver: driver}
}

func (d Dialect) Postgres() bool {
	return sqlx.BindType(d.Driver) == sqlx.DOLLAR
}

func (d Dialect) Rebind(query string) string {
	bind := sqlx.BindType(d.Driver)
	if bind == sqlx.UNKNOWN {
		bind = sqlx.QUESTION
	}
	return sqlx.Rebind(bind, query)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insert runs an INSERT and returns the generated id. PostgreSQL has no
// LastInsertId, so the statement gets a RETURNING clause there.
func (d Dialect) insert(ctx context.Context, q querier, query string, args ...any) (int, error) {
	if d.Postgres() {
		var id int
		if err := q.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	result, err := q.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (d Dialect) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, d.Rebind(query), args...)
}

func (d Dialect) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, d.Rebind(query), args...)
}

func (d Dialect) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, d.Rebind(query), args...)
}

// withTx runs fn inside a transaction, committing on success.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
