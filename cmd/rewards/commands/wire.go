package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/beetlebot/rewards-cli/internal/adapters/mock"
	"github.com/beetlebot/rewards-cli/internal/adapters/postgres"
	"github.com/beetlebot/rewards-cli/internal/adapters/throttle"
	"github.com/beetlebot/rewards-cli/internal/cache"
	"github.com/beetlebot/rewards-cli/internal/config"
	"github.com/beetlebot/rewards-cli/internal/core"
	"github.com/beetlebot/rewards-cli/internal/metrics"
	"github.com/beetlebot/rewards-cli/internal/output"
	"github.com/beetlebot/rewards-cli/internal/refdata"
	"github.com/spf13/cobra"
)

type app struct {
	cfg     *config.Config
	ref     core.ReferenceData
	log     *slog.Logger
	router  *core.Router
	metrics *metrics.SearchMetrics
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// setup loads config and reference data. Failures are reported as JSON and
// returned so the caller can stop.
func setup(cmd *cobra.Command) (*app, error) {
	configFlag, _ := cmd.Flags().GetString("config")
	modeFlag, _ := cmd.Flags().GetString("mode")

	cfg, err := config.Load(configFlag)
	if err != nil {
		output.JSONError("invalid configuration", output.CodeInvalidInput, err.Error())
		return nil, err
	}
	cfg.WithMode(modeFlag)

	ref, err := refdata.Load(cfg.RefData)
	if err != nil {
		output.JSONError("invalid reference data", output.CodeInvalidInput, err.Error())
		return nil, err
	}

	a := &app{cfg: cfg, ref: ref, log: newLogger(cfg.Log)}
	a.metrics = metrics.NewSearchMetrics(nil)
	return a, nil
}

func newLogger(cfg config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Router wires every provider on first use.
func (a *app) Router(ctx context.Context) *core.Router {
	if a.router == nil {
		a.router = a.buildRouter(ctx)
	}
	return a.router
}

func (a *app) buildRouter(ctx context.Context) *core.Router {
	router := core.NewRouter(a.cfg).WithLogger(a.log)

	router.Register(mock.NewOffersAdapter())

	pg := postgres.NewOffersAdapter(a.cfg.Postgres, a.log)
	a.closers = append(a.closers, pg.Close)
	router.Register(a.decorate(ctx, pg))

	return router
}

// decorate adds rate limiting and caching around a live provider.
func (a *app) decorate(ctx context.Context, adapter core.OfferAdapter) core.OfferAdapter {
	adapter = throttle.Wrap(adapter, a.cfg.Engine.RateLimitPerSecond, 1)

	store := a.cacheStore(ctx)
	if store == nil {
		return adapter
	}
	return cache.Wrap(adapter, store, a.cfg.Cache.TTL, a.log)
}

func (a *app) cacheStore(ctx context.Context) cache.Store {
	if ctx == nil {
		ctx = context.Background()
	}
	switch a.cfg.Cache.Backend {
	case "file":
		fc, err := cache.NewFileCache(a.cfg.Cache.Dir)
		if err != nil {
			a.log.Warn("offer cache disabled", "backend", "file", "error", err)
			return nil
		}
		return fc
	case "redis":
		rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     a.cfg.Cache.RedisAddr,
			Password: a.cfg.Cache.RedisPassword,
			DB:       a.cfg.Cache.RedisDB,
		})
		if err != nil {
			a.log.Warn("offer cache disabled", "backend", "redis", "error", err)
			return nil
		}
		a.closers = append(a.closers, func() { _ = rs.Close() })
		return rs
	}
	return nil
}

func (a *app) orchestrator(ctx context.Context) *core.Orchestrator {
	e := a.cfg.Engine
	return core.NewOrchestrator(a.Router(ctx), a.ref, core.OrchestratorOptions{
		Synthesizer: core.SynthesizerOptions{
			MaxWorkers:       e.MaxWorkers,
			SearchTimeout:    e.SearchTimeout,
			MaxLayoverHours:  e.MaxLayoverHours,
			LayoverDayOffset: e.LayoverDayOffset,
			UnknownLayover:   core.UnknownLayoverPolicy(e.UnknownLayover),
			MaxLegOptions:    e.MaxLegOptions,
			Observer:         a.metrics,
		},
		FeeEstimateRate: e.FeeEstimateRate,
		Limit:           e.Limit,
		Logger:          a.log,
	})
}

func (a *app) flushMetrics() {
	if a.cfg.Metrics.TextFile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.TextFile); err != nil {
		a.log.Warn("metrics export failed", "path", a.cfg.Metrics.TextFile, "error", err)
	}
}

var inputErrors = []error{
	core.ErrInvalidDate,
	core.ErrInvalidAirport,
	core.ErrNegativeBalance,
	core.ErrUnknownPreference,
	core.ErrInvalidValuation,
	core.ErrCurrencyMismatch,
	core.ErrTierUndeterminable,
}

func errorCode(err error) output.Code {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return output.CodeInvalidInput
		}
	}
	return output.CodeEngineError
}

func emit(cmd *cobra.Command, v any) error {
	if compact, _ := cmd.Flags().GetBool("compact"); compact {
		return output.JSONCompact(v)
	}
	return output.JSON(v)
}
