// The worker binary runs the dispatch side alone: it drains the send queue
// through SMTP without polling providers or serving HTTP. Use it to scale
// delivery independently of ingestion.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stagewatch/internal/application/notify"
	"stagewatch/internal/infrastructure/config"
	"stagewatch/internal/infrastructure/database"
	"stagewatch/internal/infrastructure/email"
	"stagewatch/internal/infrastructure/repository"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger()
	log.Infow("starting dispatch worker", "environment", env)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		log.Errorw("failed to initialize business timezone", "error", err)
		os.Exit(1)
	}

	if err := database.Init(&cfg.Database); err != nil {
		log.Errorw("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	queue := repository.NewSendQueueRepository(database.Get())
	recorder := repository.NewObservabilityRepository(database.Get())
	transport := email.NewSMTPTransport(cfg.Email)

	dispatcher := notify.NewDispatcher(queue, transport, recorder, cfg.Dispatcher, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
		log.Errorw("dispatcher exited", "error", err)
		os.Exit(1)
	}

	log.Info("dispatch worker stopped")
}
