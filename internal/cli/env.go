// Package cli holds the cobra commands of the tone and worker binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/suPer8Hu/tone-platform/internal/app"
	"github.com/suPer8Hu/tone-platform/internal/config"
	"github.com/suPer8Hu/tone-platform/internal/logging"
	"github.com/suPer8Hu/tone-platform/internal/rules"
	"go.uber.org/zap"
)

// setup loads the environment config and builds the logger.
func setup() (config.Config, *zap.Logger, error) {
	cfg := config.Load()
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return cfg, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// watchRules starts hot reload of the rules file when one is configured.
func watchRules(ctx context.Context, a *app.App, log *zap.Logger) {
	if a.Cfg.RulesFile == "" {
		return
	}
	if err := rules.Watch(ctx, a.Cfg.RulesFile, a.Rules, log.Named("rules")); err != nil {
		log.Warn("rules hot reload disabled", zap.String("path", a.Cfg.RulesFile), zap.Error(err))
	}
}
