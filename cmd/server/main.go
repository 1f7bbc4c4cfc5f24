// Package main is the entry point of the wiki challenge game server.
//
// The server owns the websocket protocol, the HTTP probes and the
// background jobs that keep daily challenges ahead of the calendar.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wikichallenge/wikichallenge-server/config"
	"github.com/wikichallenge/wikichallenge-server/internal/application/command"
	"github.com/wikichallenge/wikichallenge-server/internal/application/query"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/game"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/leaderboard"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/player"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/session"
	"github.com/wikichallenge/wikichallenge-server/internal/domain/topic"
	"github.com/wikichallenge/wikichallenge-server/internal/infrastructure/catalog"
	"github.com/wikichallenge/wikichallenge-server/internal/infrastructure/persistence/memory"
	"github.com/wikichallenge/wikichallenge-server/internal/infrastructure/persistence/postgres"
	"github.com/wikichallenge/wikichallenge-server/internal/infrastructure/persistence/redis"
	"github.com/wikichallenge/wikichallenge-server/internal/infrastructure/scheduler"
	"github.com/wikichallenge/wikichallenge-server/internal/infrastructure/scheduler/jobs"
	"github.com/wikichallenge/wikichallenge-server/internal/infrastructure/security"
	httpserver "github.com/wikichallenge/wikichallenge-server/internal/interface/http"
	"github.com/wikichallenge/wikichallenge-server/internal/interface/http/handlers"
	"github.com/wikichallenge/wikichallenge-server/internal/interface/realtime"
	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
	"github.com/wikichallenge/wikichallenge-server/pkg/retry"
	"github.com/wikichallenge/wikichallenge-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		AddCaller: true,
	})
	defer log.Sync()

	log.Info("starting wiki challenge server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Int("utc_offset_hours", cfg.App.UTCOffsetHours),
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE (PostgreSQL, or the in-memory store in development)
	// ─────────────────────────────────────────────────────────────────────────
	st, closeStore, err := openStore(ctx, cfg, log, health)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Sampler.SeedFile != "" {
		n, err := catalog.NewSeeder(st.importer, 0, log).SeedFile(ctx, cfg.Sampler.SeedFile)
		if err != nil {
			return fmt.Errorf("failed to seed topic catalog: %w", err)
		}
		log.Info("topic catalog seeded", logger.Int("topics", n))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional: presence and event rate limiting)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		rdb      *redis.Client
		presence *redis.Presence
		limiter  *redis.RateLimiter
	)
	if !cfg.Redis.Disabled && cfg.Redis.URL != "" {
		rdb, err = redis.NewClient(ctx, redis.Config{
			URL:         cfg.Redis.URL,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
			KeyPrefix:   cfg.Redis.KeyPrefix,
		})
		if err != nil {
			log.Warn("redis unavailable, presence and rate limiting disabled", logger.Err(err))
		} else {
			defer rdb.Close()
			health.AddCheck("redis", handlers.NewPingCheck(rdb))
			presence = redis.NewPresence(rdb, cfg.Redis.PresenceTTL)
			if cfg.Server.EventRateLimit > 0 {
				limiter = redis.NewRateLimiter(rdb, cfg.Server.EventRateLimit, time.Minute)
			}
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	sampler := topic.NewSampler(st.topics, topic.SamplerConfig{
		MinID:    cfg.Sampler.MinID,
		MaxID:    cfg.Sampler.MaxID,
		Attempts: cfg.Sampler.Attempts,
		Window:   cfg.Sampler.Window,
	}, nil)

	offset := cfg.App.UTCOffsetHours
	progress := command.NewProgressTracker(st.users, offset, nil)
	sessions := command.NewSessionManager(
		st.users, st.sessions,
		security.NewPasswordHasher(cfg.App.BcryptCost), security.NewTokenDeriver(),
		progress, nil, log,
	)

	services := realtime.Services{
		Sessions:     sessions,
		Games:        command.NewRegisterGameHandler(st.games, nil, log),
		Feedback:     command.NewFeedbackHandler(st.topics, st.challenges, offset, nil),
		Pages:        query.NewGetRandomPageHandler(sampler),
		Daily:        query.NewGetDailyChallengeHandler(st.challenges, offset, nil),
		Leaderboards: query.NewGetLeaderboardHandler(st.boards, st.sessions, st.users, cfg.App.HouseAccount, offset, nil),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REALTIME HUB
	// ─────────────────────────────────────────────────────────────────────────
	// In-flight events outlive the signal so shutdown can drain them.
	baseCtx, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()

	router := realtime.NewRouter(log)
	realtime.Register(router, services)

	hubOpts := []realtime.HubOption{realtime.WithFeatures(cfg.Features)}
	if presence != nil {
		hubOpts = append(hubOpts, realtime.WithPresence(presence))
	}
	if limiter != nil {
		hubOpts = append(hubOpts, realtime.WithRateLimiter(limiter))
	}
	hubCfg := realtime.DefaultHubConfig()
	hubCfg.EventTimeout = cfg.Server.EventTimeout
	hubCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	if presence != nil {
		hubCfg.PresenceRefresh = presence.TTL() / 3
	}
	hub := realtime.NewHub(baseCtx, router, hubCfg, log, hubOpts...)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = setupScheduler(cfg, st, sampler, presence, log)
		if err != nil {
			return err
		}
		sched.Start()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	srvCfg := httpserver.DefaultConfig()
	srvCfg.Port = cfg.Server.Port
	srvCfg.ReadTimeout = cfg.Server.ReadTimeout
	srvCfg.WriteTimeout = cfg.Server.WriteTimeout
	srvCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	srvCfg.Debug = cfg.IsDevelopment()

	server := httpserver.NewServer(srvCfg, httpserver.Dependencies{
		Realtime:      hub,
		Features:      cfg.Features,
		HealthChecker: health,
		Logger:        log,
		AppName:       cfg.App.Name,
		Version:       cfg.App.Version,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 9. RUN UNTIL SIGNAL
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
		if err := hub.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("realtime hub: %w", err))
		}
		if sched != nil {
			if err := sched.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("scheduler: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORAGE
// ══════════════════════════════════════════════════════════════════════════════

type store struct {
	users      player.Repository
	sessions   session.Repository
	topics     topic.Repository
	importer   topic.Importer
	games      game.Repository
	challenges game.DailyChallengeRepository
	boards     leaderboard.Repository
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, health handlers.HealthChecker) (store, func(), error) {
	if cfg.Database.URL == "" {
		if !cfg.IsDevelopment() {
			return store{}, nil, errors.New("DATABASE_URL is required outside development")
		}
		log.Warn("DATABASE_URL not set, using the in-memory store")
		mem := memory.New()
		health.AddCheck("memory", func(context.Context) error { return mem.Ping() })
		return store{
			users:      mem.Users(),
			sessions:   mem.Sessions(),
			topics:     mem.Topics(),
			importer:   mem.Topics(),
			games:      mem.Games(),
			challenges: mem.DailyChallenges(),
			boards:     mem.Leaderboards(),
		}, func() {}, nil
	}

	log.Info("connecting to database...")
	conn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.Connect(ctx, cfg.Database.URL, postgres.PoolOptions{
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MaxIdleConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		})
	},
		retry.WithMaxAttempts(cfg.Database.ConnectAttempts),
		retry.WithInitialDelay(cfg.Database.ConnectBackoff),
		retry.WithMaxDelay(cfg.Database.ConnectMaxDelay),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database not reachable yet",
				logger.Int("attempt", attempt),
				logger.Duration("retry_in", delay),
				logger.Err(err),
			)
		}),
	)
	if err != nil {
		return store{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	if cfg.Database.MigrateOnStart {
		applied, err := postgres.NewMigrator(conn).Migrate(ctx)
		if err != nil {
			conn.Close()
			return store{}, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date", logger.Int("applied", applied))
	}

	health.AddCheck("postgres", handlers.NewPingCheck(conn))

	repos := postgres.NewRepositories(conn)
	closeConn := func() {
		log.Info("closing database connection...")
		conn.Close()
	}
	return store{
		users:      repos.Users,
		sessions:   repos.Sessions,
		topics:     repos.Topics,
		importer:   repos.Topics,
		games:      repos.Games,
		challenges: repos.DailyChallenges,
		boards:     repos.Leaderboards,
	}, closeConn, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

func setupScheduler(cfg *config.Config, st store, sampler *topic.Sampler, presence *redis.Presence, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched, err := scheduler.New(scheduler.Config{
		Location:   timeutil.Zone(cfg.App.UTCOffsetHours),
		JobTimeout: cfg.Scheduler.JobTimeout,
	}, log)
	if err != nil {
		return nil, err
	}

	prepare := jobs.NewPrepareDailyChallengeJob(sampler, st.challenges, jobs.PrepareDailyChallengeConfig{
		Interest:       topic.Range{Low: cfg.Scheduler.ChallengeInterestLow, High: cfg.Scheduler.ChallengeInterestHigh},
		Difficulty:     topic.Range{Low: cfg.Scheduler.ChallengeDifficultyLow, High: cfg.Scheduler.ChallengeDifficultyHigh},
		UTCOffsetHours: cfg.App.UTCOffsetHours,
	}, nil, log)
	if err := sched.Every(prepare, cfg.Scheduler.DailyChallengeInterval); err != nil {
		return nil, err
	}

	if presence != nil {
		cleanup := jobs.NewCleanupPresenceJob(presence, log)
		if err := sched.Every(cleanup, cfg.Scheduler.PresenceCleanupInterval); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
