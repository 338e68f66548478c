// Package engine owns the process resources behind every CLI command.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appServices "github.com/yigit/internhub/internal/app/services"
	"github.com/yigit/internhub/internal/app/models/dto"
	"github.com/yigit/internhub/internal/bootstrap"
	"github.com/yigit/internhub/internal/config"
	"github.com/yigit/internhub/internal/db"
	"github.com/yigit/internhub/internal/pkg/runlock"
	"github.com/yigit/internhub/internal/pkg/sheet"
)

// Options tunes engine startup.
type Options struct {
	ConfigPath string
	// Migrate applies pending migrations on startup
	Migrate bool
}

// Engine holds the state shared by commands.
type Engine struct {
	config *config.Config
	db     *db.PostgresDB
	redis  *redis.Client
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
}

// New creates and initializes an engine by calling bootstrap functions.
func New(ctx context.Context, opts Options) (*Engine, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr, opts.Migrate)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	rdb, err := bootstrap.SetupRedis(ctx, cfg, lgr)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to setup redis: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, database, rdb, lgr)
	if err != nil {
		database.Close()
		if rdb != nil {
			rdb.Close()
		}
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Engine{config: cfg, db: database, redis: rdb, deps: deps, logger: lgr}, nil
}

// Config returns the loaded configuration.
func (e *Engine) Config() *config.Config { return e.config }

// ImportFile archives and imports a spreadsheet file. When auto-assignment is
// requested the whole import runs under the assignment run lock.
func (e *Engine) ImportFile(ctx context.Context, path string, opts appServices.ImportOptions) (*dto.ImportResult, error) {
	if opts.BatchID == uuid.Nil {
		opts.BatchID = uuid.New()
	}
	if e.deps.Archive != nil {
		if err := e.archive(path, opts); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	wb, err := sheet.DecodeWorkbook(f)
	if err != nil {
		return nil, err
	}

	if !opts.AutoAssign {
		return e.deps.Ingest.Import(ctx, wb, opts)
	}
	var result *dto.ImportResult
	err = e.deps.RunLock.Do(ctx, runlock.AssignmentRunKey, func(ctx context.Context) error {
		var err error
		result, err = e.deps.Ingest.Import(ctx, wb, opts)
		return err
	})
	return result, err
}

func (e *Engine) archive(path string, opts appServices.ImportOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := e.deps.Archive.Save(string(opts.Kind), opts.BatchID, filepath.Base(path), f); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}

// Assign runs a full assignment under the run lock.
func (e *Engine) Assign(ctx context.Context) (*dto.AssignmentSummary, error) {
	var summary *dto.AssignmentSummary
	err := e.deps.RunLock.Do(ctx, runlock.AssignmentRunKey, func(ctx context.Context) error {
		var err error
		summary, err = e.deps.Assignment.Run(ctx)
		return err
	})
	return summary, err
}

// Dedup collapses every duplicated student code.
func (e *Engine) Dedup(ctx context.Context) ([]appServices.DedupResult, error) {
	return e.deps.Dedup.DedupAll(ctx)
}

// RecountResult reports how many cached counters changed.
type RecountResult struct {
	Teachers  int64 `json:"teachers"`
	Companies int64 `json:"companies"`
}

// Recount recomputes teacher and company counters from the student rows.
func (e *Engine) Recount(ctx context.Context) (*RecountResult, error) {
	t, err := e.deps.Counts.RecomputeTeacherCounts(ctx)
	if err != nil {
		return nil, err
	}
	c, err := e.deps.Counts.RecomputeCompanyCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &RecountResult{Teachers: t, Companies: c}, nil
}

// RefreshReadiness recomputes every readiness flag.
func (e *Engine) RefreshReadiness(ctx context.Context) (int64, error) {
	return e.deps.Counts.RefreshReadiness(ctx)
}

// Migrate applies pending migrations.
func (e *Engine) Migrate(ctx context.Context) error {
	return bootstrap.RunMigrations(ctx, e.config, e.db, e.logger)
}

// Close releases the database pool and redis client.
func (e *Engine) Close() {
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if e.db != nil {
		e.db.Close()
	}
	e.logger.Debug().Msg("Engine closed")
}
