package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/tone-platform/internal/app"
	"github.com/suPer8Hu/tone-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/tone-platform/internal/worker"
	"go.uber.org/zap"
)

func NewWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume research jobs from RabbitMQ",
		Long: `Run queued research jobs with WORKER_CONCURRENCY goroutines. Upstream AI
failures are retried through the retry queue up to WORKER_MAX_ATTEMPTS times;
other failures go to the dead-letter queue.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(parent context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.RabbitURL == "" {
		return errors.New("RABBIT_URL is required")
	}

	ctx, stop := signalContext(parent)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{Migrate: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if a.Jobs == nil {
		return errors.New("worker needs a database (DB_DSN)")
	}

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, cfg.WorkerConcurrency, cfg.WorkerRetryDelay)
	if err != nil {
		return err
	}
	defer func() { _ = consumer.Close() }()

	deliveries, err := consumer.Deliveries()
	if err != nil {
		return err
	}

	watchRules(ctx, a, log)

	log.Info("worker started",
		zap.String("queue", cfg.RabbitQueue),
		zap.Int("concurrency", cfg.WorkerConcurrency),
		zap.Int("max_attempts", cfg.WorkerMaxAttempts),
	)
	pool := &worker.Pool{
		Concurrency: cfg.WorkerConcurrency,
		MaxAttempts: cfg.WorkerMaxAttempts,
		Handle:      a.Jobs.Run,
		Retrier:     consumer,
		Log:         log.Named("worker"),
	}
	return pool.Run(ctx, deliveries)
}
