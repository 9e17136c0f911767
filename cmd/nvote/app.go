package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nvandessel/voteanalysis/internal/config"
	"github.com/nvandessel/voteanalysis/internal/leaderboard"
	"github.com/nvandessel/voteanalysis/internal/logging"
	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/service"
	"github.com/nvandessel/voteanalysis/internal/store"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

// app holds what a command needs to reach the service. Close releases it.
type app struct {
	cfg     *config.Config
	dataDir string
	store   *store.SQLiteStore
	svc     *service.Service
	logger  *slog.Logger
	trace   *logging.TraceLogger
	redis   *redis.Client
}

// loadConfig reads the config file named by --config, or the default
// locations, and applies the --db and --log-level flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Path = db
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openApp opens the experiment database and builds the service. The
// leaderboard is attached when Redis is enabled and reachable.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		if dbPath, err = store.DefaultDatabasePath(); err != nil {
			return nil, err
		}
	}

	a := &app{
		cfg:     cfg,
		dataDir: filepath.Dir(dbPath),
		logger:  logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
	}
	a.trace = logging.NewTraceLogger(a.dataDir, cfg.Logging.Level)

	a.store, err = store.NewSQLiteStore(dbPath)
	if err != nil {
		a.trace.Close()
		return nil, fmt.Errorf("failed to open experiment database: %w", err)
	}

	a.svc = service.New(a.store, vote.NewRegistry(models.NewRandomSource(cfg.Generation.Seed)))
	a.svc.SetLogger(a.logger, a.trace)

	if cfg.Redis.Enabled {
		client, err := leaderboard.Connect(cmd.Context(), cfg.Redis)
		if err != nil {
			a.logger.Warn("leaderboard disabled", "redis", cfg.Redis.String(), "error", err)
		} else {
			a.redis = client
			a.svc.SetLeaderboard(leaderboard.New(client))
		}
	}

	a.logger.Debug("experiment database opened", "path", dbPath)
	return a, nil
}

// Close releases the database, the trace file and the Redis client.
func (a *app) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	a.trace.Close()
	return firstErr
}

// seedFlag returns --seed, falling back to the configured seed.
func (a *app) seedFlag(cmd *cobra.Command) uint64 {
	if seed, _ := cmd.Flags().GetUint64("seed"); seed != 0 {
		return seed
	}
	return a.cfg.Generation.Seed
}

func jsonOutput(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}

func printJSON(cmd *cobra.Command, v any) error {
	return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
}
