package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/ad-insights/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// snapshot opens a read-only repeatable-read transaction so that several
// queries observe the same data.
func snapshot(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	return db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

// nullIfEmpty stores empty strings as NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scopeArg is the industry column value of a scope; NULL for global.
func scopeArg(s domain.Scope) any {
	return nullIfEmpty(s.Industry)
}

// scopeClause matches rows of a scope using placeholder $idx.
func scopeClause(s domain.Scope, idx int) (string, []any) {
	if s.Global() {
		return "industry IS NULL", nil
	}
	return fmt.Sprintf("industry = $%d", idx), []any{s.Industry}
}
