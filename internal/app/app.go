// Package app wires configuration into the services shared by the server,
// the worker and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/suPer8Hu/tone-platform/internal/adapt"
	"github.com/suPer8Hu/tone-platform/internal/ai"
	"github.com/suPer8Hu/tone-platform/internal/cache"
	"github.com/suPer8Hu/tone-platform/internal/config"
	"github.com/suPer8Hu/tone-platform/internal/db"
	"github.com/suPer8Hu/tone-platform/internal/httpapi/handlers"
	"github.com/suPer8Hu/tone-platform/internal/research"
	"github.com/suPer8Hu/tone-platform/internal/rules"
	"github.com/suPer8Hu/tone-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/tone-platform/internal/store/redisstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	// Migrate creates the cache and job tables on startup.
	Migrate bool
	// Publish connects a RabbitMQ publisher so research jobs can be queued.
	Publish bool
}

type App struct {
	Cfg   config.Config
	Log   *zap.Logger
	DB    *gorm.DB    // nil when no database is configured
	Cache cache.Store // nil when DB is nil
	Rules *rules.Set

	Providers *ai.Registry
	Research  *research.Service
	Adapt     *adapt.Service
	Jobs      *research.Jobs // nil when DB is nil

	closers []func() error
}

// New builds the application graph. Missing optional backends (database,
// redis, rabbitmq) leave their features disabled instead of failing.
func New(ctx context.Context, cfg config.Config, log *zap.Logger, opts Options) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	r, err := rules.LoadFile(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	a.Rules = rules.NewSet(r)

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	switch {
	case errors.Is(err, db.ErrNotConfigured):
		log.Warn("database not configured; cache, jobs and /health disabled")
	case err != nil:
		return nil, err
	default:
		a.DB = gdb
		if opts.Migrate {
			if err := a.Migrate(); err != nil {
				_ = a.Close()
				return nil, err
			}
		}
	}

	if a.DB != nil {
		a.Cache = cache.NewGormStore(a.DB)
		if cfg.RedisAddr != "" {
			hot := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			a.closers = append(a.closers, hot.Close)
			if err := hot.Ping(ctx); err != nil {
				log.Warn("redis unreachable; reads fall through to the database", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			}
			a.Cache = redisstore.NewTiered(hot, a.Cache, cfg.CacheTTL, log)
		}
	}

	a.Providers = Providers(cfg)
	provider := ai.Memoize(func(ctx context.Context) (ai.Provider, error) {
		return a.Providers.Get(ctx, cfg.AIProvider)
	})

	a.Research = research.NewService(a.Cache, provider, a.Rules, research.Options{
		ResearchModel: cfg.ResearchModel,
		FallbackModel: cfg.FallbackModel,
		TTL:           cfg.CacheTTL,
	}, log.Named("research"))
	a.Adapt = adapt.NewService(provider, cfg.AdaptModel, a.Rules, log.Named("adapt"))

	if a.DB != nil {
		var pub research.Publisher
		if opts.Publish && cfg.RabbitURL != "" {
			p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
			if err != nil {
				_ = a.Close()
				return nil, err
			}
			a.closers = append(a.closers, p.Close)
			pub = p
		}
		a.Jobs = research.NewJobs(research.NewJobRepo(a.DB), a.Research, pub, log.Named("jobs"))
	}
	return a, nil
}

// Providers registers every supported AI backend. Each factory reports
// ai.ErrNotConfigured when its credentials are missing.
func Providers(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context) (ai.Provider, error) {
		p, err := ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	reg.Register("gemini", func(ctx context.Context) (ai.Provider, error) {
		p, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	reg.Register("openrouter", func(ctx context.Context) (ai.Provider, error) {
		p, err := ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	reg.Register("ollama", func(ctx context.Context) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL), nil
	})
	return reg
}

func (a *App) Migrate() error {
	if a.DB == nil {
		return db.ErrNotConfigured
	}
	return db.Migrate(a.DB, &cache.Entry{}, &research.Job{})
}

// Handler returns the HTTP handler set over the app's services.
func (a *App) Handler() *handlers.Handler {
	return handlers.NewHandler(handlers.Deps{
		Research: a.Research,
		Adapt:    a.Adapt,
		Jobs:     a.Jobs,
		Cache:    a.Cache,
		CacheTTL: a.Cfg.CacheTTL,
		Log:      a.Log.Named("http"),
	})
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close db: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
