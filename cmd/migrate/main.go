// Command migrate applies the SQL files in a migrations directory in name
// order. Applied files are recorded in schema_migrations and skipped on
// later runs.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	dir := flag.String("dir", "migrations", "directory holding *.sql files")
	listOnly := flag.Bool("list", false, "list application tables and exit")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		cfg, err := config.LoadFromEnv(*configPath)
		if err != nil {
			fatal("DATABASE_URL unset and config unreadable", err)
		}
		dsn = cfg.Database.URL
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fatal("connect", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		fatal("ping", err)
	}

	if *listOnly {
		if err := listTables(ctx, db); err != nil {
			fatal("list tables", err)
		}
		return
	}

	applied, failed, err := migrate(ctx, db, *dir)
	if err != nil {
		fatal("migrate", err)
	}
	logger.Info("[migrate] done", "applied", applied, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func listTables(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		  AND (tablename LIKE 'ads_%' OR tablename LIKE 'pattern_%'
		       OR tablename IN ('collect_jobs', 'monitoring_keywords', 'monitoring_runs', 'notifications'))
		ORDER BY tablename`)
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return err
		}
		fmt.Println(" ", t)
		n++
	}
	fmt.Printf("Total: %d tables\n", n)
	return rows.Err()
}

// migrate runs each pending file in its own transaction. A failing file is
// reported and the remaining files still run.
func migrate(ctx context.Context, db *sql.DB, dir string) (applied, failed int, err error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return 0, 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	done := make(map[string]bool)
	rows, err := db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return 0, 0, fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, 0, err
		}
		done[name] = true
	}
	rows.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") && !done[e.Name()] {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return applied, failed, fmt.Errorf("read %s: %w", f, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if err := applyFile(ctx, db, f, string(data)); err != nil {
			logger.Error("[migrate] migration failed", "file", f, "error", err)
			failed++
			continue
		}
		logger.Info("[migrate] applied", "file", f)
		applied++
	}
	return applied, failed, nil
}

func applyFile(ctx context.Context, db *sql.DB, name, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, content); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func fatal(msg string, err error) {
	logger.Error("[migrate] "+msg, "error", err)
	logger.Sync()
	os.Exit(1)
}
