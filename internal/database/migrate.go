package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/iliyamo/film-catalog/internal/logging"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one versioned schema change.  Exactly one of File and Seed is
// set: File names an embedded SQL script, Seed populates data.
type Migration struct {
	Version int
	Name    string
	File    string
	Seed    func(ctx context.Context, tx *sql.Tx, f *gofakeit.Faker) error
}

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	AppliedAt *time.Time
}

// Options tunes a migration run.
type Options struct {
	SkipSeed bool            // leave seed steps pending
	Faker    *gofakeit.Faker // nil uses a randomly seeded faker
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INT          NOT NULL PRIMARY KEY,
    name       VARCHAR(128) NOT NULL,
    applied_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Migrations returns all migrations in version order.  The list is
// append-only once a database has been migrated.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_films", File: "migrations/0001_create_films.sql"},
		{Version: 2, Name: "seed_films", Seed: seedFilms},
		{Version: 3, Name: "create_categories", File: "migrations/0003_create_categories.sql"},
		{Version: 4, Name: "assign_categories", Seed: assignCategories},
	}
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[int]time.Time, error) {
	rows, err := db.QueryContext(ctx, `SELECT version, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var (
			v  int
			at time.Time
		)
		if err := rows.Scan(&v, &at); err != nil {
			return nil, fmt.Errorf("scan migration row: %w", err)
		}
		applied[v] = at
	}
	return applied, rows.Err()
}

// Migrate applies every pending migration in order and returns how many ran.
// Each migration and its schema_migrations row share one transaction.  Note
// that MySQL commits DDL implicitly, so the CREATE statements themselves rely
// on IF NOT EXISTS to be re-runnable.
func Migrate(ctx context.Context, db *sql.DB, opts Options) (int, error) {
	if _, err := db.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return 0, fmt.Errorf("create migrations table: %w", err)
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return 0, err
	}
	faker := opts.Faker
	if faker == nil {
		faker = gofakeit.New(0)
	}

	n := 0
	for _, m := range Migrations() {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if m.Seed != nil && opts.SkipSeed {
			logging.Info().Int("version", m.Version).Str("name", m.Name).Msg("seed skipped")
			continue
		}
		if err := runMigration(ctx, db, m, faker); err != nil {
			return n, fmt.Errorf("migration v%d (%s): %w", m.Version, m.Name, err)
		}
		logging.Info().Int("version", m.Version).Str("name", m.Name).Msg("migration applied")
		n++
	}
	return n, nil
}

func runMigration(ctx context.Context, db *sql.DB, m Migration, f *gofakeit.Faker) error {
	var stmts []string
	if m.File != "" {
		raw, err := migrationFiles.ReadFile(m.File)
		if err != nil {
			return err
		}
		stmts = splitStatements(string(raw))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	if m.Seed != nil {
		if err := m.Seed(ctx, tx, f); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

// Status lists every known migration with its applied time, if any.
func Status(ctx context.Context, db *sql.DB) ([]MigrationStatus, error) {
	if _, err := db.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(Migrations()))
	for _, m := range Migrations() {
		st := MigrationStatus{Version: m.Version, Name: m.Name}
		if at, ok := applied[m.Version]; ok {
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// splitStatements breaks a script into single statements on semicolons that
// are outside quotes.  "--" line comments are dropped.
func splitStatements(script string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
			cur.WriteRune(r)
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			cur.WriteRune('\n')
		case r == ';':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
