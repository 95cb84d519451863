package cli

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/tone-platform/internal/app"
	"github.com/suPer8Hu/tone-platform/internal/httpapi"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func NewServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve POST /research, POST /adapt, GET /health, the research job
endpoints and the admin cache listing. Configuration comes from the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create or update tables on startup")
	return cmd
}

func runServe(parent context.Context, migrate bool) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signalContext(parent)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{Migrate: migrate, Publish: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if !strings.EqualFold(cfg.LogFormat, "console") {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(a.Handler(), cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	watchRules(gctx, a, log)

	g.Go(func() error {
		log.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("ai_provider", cfg.AIProvider),
			zap.Bool("cache", a.Cache != nil),
			zap.Bool("jobs", cfg.RabbitURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("http server shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
