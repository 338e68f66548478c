package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/yigit/internhub/internal/pkg/logger"
)

// Migrator manages database migrations
type Migrator struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *pgxpool.Pool) *Migrator {
	return &Migrator{
		db:  db,
		log: logger.ForComponent("migrator"),
	}
}

// ensureMigrationTableExists creates the version tracking table on first run
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a migration version has already been recorded
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// recordMigration records the version inside the migration's own transaction
func recordMigration(ctx context.Context, tx pgx.Tx, version string) error {
	_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`, version, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// Version extracts the ordering prefix of a migration file: "001_placement.sql" => "001".
func Version(filename string) string {
	base := filepath.Base(filename)
	return strings.SplitN(strings.TrimSuffix(base, filepath.Ext(base)), "_", 2)[0]
}

// MigrateFromFile applies one SQL file unless its version is already recorded.
// The file and its tracking row commit together.
func (m *Migrator) MigrateFromFile(ctx context.Context, filePath string) error {
	// Ensure migration tracking table exists
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return err
	}

	// Check if this migration has already been applied
	version := Version(filePath)
	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return err
	}
	if applied {
		m.log.Debug().Str("file", filepath.Base(filePath)).Msg("Migration already applied, skipping")
		return nil
	}

	// Read migration file content
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	// Run the SQL and its tracking row in one transaction
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("migration %s failed: %w", filepath.Base(filePath), err)
	}
	if err := recordMigration(ctx, tx, version); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	m.log.Info().Str("file", filepath.Base(filePath)).Str("version", version).Msg("Migration applied")
	return nil
}

// PendingFiles lists the .sql files of dirPath in application order.
func PendingFiles(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dirPath, e.Name()))
		}
	}
	// Version prefixes are zero-padded, so name order is apply order
	sort.Strings(files)
	return files, nil
}

// MigrateFromDirectory applies every SQL file of dirPath in name order.
func (m *Migrator) MigrateFromDirectory(ctx context.Context, dirPath string) error {
	files, err := PendingFiles(dirPath)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := m.MigrateFromFile(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
