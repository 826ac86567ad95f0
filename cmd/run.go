package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/cassini/internal/authz"
	"github.com/abhisek/cassini/internal/config"
	"github.com/abhisek/cassini/internal/dispatch"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/logger"
	"github.com/abhisek/cassini/internal/present"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/questionbank"
	"github.com/abhisek/cassini/internal/quiz"
	"github.com/abhisek/cassini/internal/review"
	"github.com/abhisek/cassini/internal/router"
	"github.com/abhisek/cassini/internal/store"
)

// services is everything a command may need, wired from config.
type services struct {
	cfg        config.Config
	log        *logger.Logger
	store      *store.Store
	bank       *questionbank.Bank
	tracker    *progress.Tracker
	registry   *locks.Registry
	dispatcher *dispatch.Dispatcher
	redis      *redis.Client
}

func (s *services) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
	s.log.Sync()
}

// loadConfig reads config and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if d, _ := cmd.Flags().GetString("data"); d != "" {
		cfg.DataDir = d
	}
	return cfg, nil
}

// resolveDBPath returns the configured database path, falling back to the
// default XDG location.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// buildServices opens the store and wires the action pipeline.
func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	log, err := logger.New(cfg.LoggerOptions())
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	svc := &services{cfg: cfg, log: log}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	svc.store, err = store.OpenWithLogger(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var cacheOpts []locks.CacheOption
	if cfg.Redis.Addr != "" {
		svc.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := svc.redis.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, using local lock cache only", "addr", cfg.Redis.Addr, "error", err)
			svc.redis.Close()
			svc.redis = nil
		} else {
			cacheOpts = append(cacheOpts, locks.WithShared(locks.NewRedisCache(svc.redis)))
		}
	}

	st := svc.store
	svc.bank = questionbank.New(cfg.DataDir, log)
	svc.tracker = progress.NewTracker(st.Progress(), st.Users(), progress.WithThreshold(cfg.Quiz.UnlockThreshold))
	queue := review.NewQueue(st.Reviews(), nil)
	reporter := review.NewReporter(st.Flags(), nil)
	cache := locks.NewCache(st.Locks(), cfg.LockCacheTTL, cacheOpts...)
	svc.registry = locks.NewRegistry(st.Locks(), cache)
	engine := quiz.NewEngine(svc.bank, svc.tracker, queue, st.Invites(), cache,
		quiz.WithConfig(cfg.EngineConfig()),
		quiz.WithLogger(log),
	)

	svc.dispatcher = dispatch.New(dispatch.Deps{
		Sessions: st.Sessions(),
		Router:   router.New(locks.NewEvaluator(cache, log), cfg.NavStackLimit),
		Engine:   engine,
		Tracker:  svc.tracker,
		Reporter: reporter,
		Registry: svc.registry,
		Presenter: present.New(present.Deps{
			Profiles: svc.tracker,
			Reviews:  queue,
			Units:    svc.bank,
			Flags:    reporter,
			Locks:    svc.registry,
		}),
		Admins:  authz.NewAdmins(cfg.AdminIDs),
		Log:     log,
		Timeout: cfg.StoreTimeout,
	})
	return svc, nil
}

// openServices is loadConfig followed by buildServices.
func openServices(cmd *cobra.Command) (*services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return buildServices(cmd.Context(), cfg)
}

func learner(cmd *cobra.Command) (int64, string) {
	id, _ := cmd.Flags().GetInt64("user")
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = os.Getenv("USER")
	}
	return id, name
}
