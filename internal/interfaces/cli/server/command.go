// Package server boots the full pipeline: poller, matcher, dispatcher, and
// the ops HTTP surface, all in one process.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"stagewatch/internal/application/ingest"
	"stagewatch/internal/application/notify"
	"stagewatch/internal/infrastructure/cache"
	"stagewatch/internal/infrastructure/config"
	"stagewatch/internal/infrastructure/database"
	"stagewatch/internal/infrastructure/email"
	"stagewatch/internal/infrastructure/migration"
	"stagewatch/internal/infrastructure/repository"
	"stagewatch/internal/infrastructure/scheduler"
	"stagewatch/internal/infrastructure/source"
	httpRouter "stagewatch/internal/interfaces/http"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/db"
	"stagewatch/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
	noScheduler bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "server",
		Aliases: []string{"serve"},
		Short:   "Start the poller and HTTP server",
		Long:    `Start the stagewatch pipeline: the provider poller, the notification dispatcher, and the ops HTTP surface.`,
		RunE:    run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Serve HTTP only, without the poll and dispatch jobs")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()
	log.Infow("starting stagewatch", "environment", env, "auto_migrate", autoMigrate)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration enabled in production")
		}
		if err := migration.NewManager(env).Migrate(database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	redisClient := cache.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	gormDB := database.Get()

	plays := repository.NewPlayRepository(gormDB)
	aliases := repository.NewPlayAliasRepository(gormDB)
	links := repository.NewPlaySourceLinkRepository(gormDB)
	snapshots := repository.NewPlaySnapshotRepository(gormDB)
	events := repository.NewChangeEventRepository(gormDB)
	tickets := repository.NewTicketRepository(gormDB)
	subs := repository.NewSubscriptionRepository(gormDB)
	targets := repository.NewSubscriptionTargetRepository(gormDB)
	options := repository.NewSubscriptionOptionRepository(gormDB)
	queue := repository.NewSendQueueRepository(gormDB)
	recorder := repository.NewObservabilityRepository(gormDB)

	snapCache := cache.NewRedisSnapshotCache(redisClient)
	pollLock := cache.NewRedisPollLock(redisClient)
	sources := source.NewRegistry(cfg.Sources, log)

	resolver := ingest.NewResolver(plays, aliases, links, recorder, cfg.Resolver, log)
	matcher := notify.NewMatcher(subs, targets, options, queue, log)
	cycle := ingest.NewPollCycle(
		sources, resolver, ingest.NewDiffEngine(),
		links, snapshots, events, tickets,
		pollLock, snapCache, matcher,
		db.NewTransactionManager(gormDB), recorder,
		cfg.Poller, log,
	)
	pump := ingest.NewPollPump(links, cycle, cfg.Poller, log)
	sweep := ingest.NewReviewSweep(plays, aliases, cfg.Resolver, log)
	dispatcher := notify.NewDispatcher(queue, email.NewSMTPTransport(cfg.Email), recorder, cfg.Dispatcher, log)

	if !noScheduler {
		sched, err := scheduler.NewSchedulerManager(log)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if err := sched.RegisterPollJob(pump, cfg.Poller.Interval); err != nil {
			return fmt.Errorf("failed to register poll job: %w", err)
		}
		if err := sched.RegisterDispatchJob(dispatcher, cfg.Dispatcher.PumpInterval); err != nil {
			return fmt.Errorf("failed to register dispatch job: %w", err)
		}
		if err := sched.RegisterReviewSweepJob(sweep); err != nil {
			return fmt.Errorf("failed to register review sweep: %w", err)
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				log.Errorw("scheduler shutdown failed", "error", err)
			}
		}()
	}

	reader := ingest.NewSnapshotReader(snapshots, snapCache, log)
	refresh := ingest.NewRefreshService(links, cycle, log)

	router := httpRouter.NewRouter(reader, refresh, log)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Info("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
