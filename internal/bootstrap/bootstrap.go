package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appMigrations "github.com/yigit/internhub/internal/app/migrations"
	appRepos "github.com/yigit/internhub/internal/app/repositories"
	appServices "github.com/yigit/internhub/internal/app/services"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/config"
	"github.com/yigit/internhub/internal/db"
	"github.com/yigit/internhub/internal/pkg/filestorage"
	"github.com/yigit/internhub/internal/pkg/helpers"
	"github.com/yigit/internhub/internal/pkg/logger"
	"github.com/yigit/internhub/internal/pkg/runlock"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos      *appRepos.Repositories
	Catalog    *store.Catalog
	TxManager  store.TxManager
	Merger     *appServices.MergeUpdater
	Dedup      *appServices.Deduplicator
	Counts     *appServices.CountService
	Assignment *appServices.AssignmentService
	Reconciler *appServices.GuidanceReconciler
	Ingest     appServices.IngestService // Interface type
	Archive    filestorage.Archive       // nil when archiving is disabled
	RunLock    runlock.Locker
	Logger     zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: cfg.Logging.Format == "text",
	})

	lgr := logger.Get()
	lgr.Debug().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and, when migrate is set,
// applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger, migrate bool) (*db.PostgresDB, error) {
	lgr.Debug().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	if migrate {
		if err := RunMigrations(ctx, cfg, database, lgr); err != nil {
			database.Close()
			return nil, err
		}
	}
	return database, nil
}

// RunMigrations applies every pending migration in the configured directory.
func RunMigrations(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	dir := cfg.Database.MigrationsDir
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		lgr.Error().Str("path", dir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", dir, err)
	}

	if err := appMigrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, dir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Debug().Msg("Database migrations applied")
	return nil
}

// SetupRedis connects to redis when enabled. It returns nil when disabled.
func SetupRedis(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	lgr.Debug().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	return rdb, nil
}

// BuildDependencies initializes repositories and services. rdb may be nil.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, rdb *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database.Pool)
	deps.Catalog = deps.Repos.Catalog()
	deps.TxManager = appRepos.NewTxManager(database)

	if cfg.Import.ArchiveDir != "" {
		archive, err := filestorage.NewLocalStorage(cfg.Import.ArchiveDir)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to initialize source archive")
			return nil, fmt.Errorf("failed to initialize source archive: %w", err)
		}
		deps.Archive = archive
	}

	if rdb != nil {
		deps.RunLock = runlock.NewRedisLocker(rdb, helpers.ParseDuration(cfg.Assignment.RunLockTTL, runlock.DefaultTTL))
	} else {
		deps.RunLock = runlock.NewLocalLocker()
	}

	mode, err := appServices.ParseMergeMode(cfg.Import.DefaultMergeMode)
	if err != nil {
		return nil, err
	}

	rules := make([]appServices.QuotaRule, len(cfg.Assignment.RoleQuotas))
	for i, q := range cfg.Assignment.RoleQuotas {
		rules[i] = appServices.QuotaRule{Keyword: q.Keyword, Quota: q.Quota}
	}

	deps.Merger = appServices.NewMergeUpdater(lgr)
	deps.Dedup = appServices.NewDeduplicator(deps.TxManager, deps.Catalog, lgr)
	deps.Counts = appServices.NewCountService(deps.Catalog, deps.Dedup, lgr)
	deps.Assignment = appServices.NewAssignmentService(
		deps.Catalog,
		deps.Dedup,
		deps.Counts,
		appServices.NewQuotaPolicy(rules, cfg.Assignment.DefaultQuota),
		appServices.NewRandomShuffler(),
		cfg.Assignment.CompanyMatchThreshold,
		lgr,
	)
	deps.Reconciler = appServices.NewGuidanceReconciler(deps.TxManager, deps.Merger, lgr)
	deps.Ingest = appServices.NewIngestService(
		deps.Catalog,
		deps.TxManager,
		deps.Merger,
		deps.Reconciler,
		deps.Counts,
		deps.Assignment,
		appServices.IngestConfig{
			HeaderScanRows:   cfg.Import.HeaderScanRows,
			PhoneRegion:      cfg.Import.PhoneRegion,
			DefaultMergeMode: mode,
			Resolver: appServices.ResolverConfig{
				CodePrefix:        cfg.Import.TeacherCodePrefix,
				CodeWidth:         cfg.Import.TeacherCodeWidth,
				PlaceholderDomain: cfg.Import.PlaceholderEmailDomain,
			},
		},
		lgr,
	)

	return deps, nil
}
