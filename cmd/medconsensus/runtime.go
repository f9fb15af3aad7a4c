package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/config"
	"github.com/mohammad-safakhou/medconsensus/internal/agents"
	"github.com/mohammad-safakhou/medconsensus/internal/logging"
	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/report"
	"github.com/mohammad-safakhou/medconsensus/internal/telemetry"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
	"github.com/mohammad-safakhou/medconsensus/provider"
	"github.com/mohammad-safakhou/medconsensus/repository/redis_repository"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search"
)

// runtime is everything a command needs to execute consensus runs.
type runtime struct {
	cfg          *config.Config
	logger       *zap.Logger
	telemetry    *telemetry.Telemetry
	completer    provider.TextCompleter
	catalog      []oncology.Trial
	orchestrator *workflow.Orchestrator
	closers      []func() error
}

func newRuntime(ctx context.Context, cfgPath string, reg prometheus.Registerer) (*runtime, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.General.LogLevel, cfg.General.Debug)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}
	rt.closers = append(rt.closers, func() error { _ = logger.Sync(); return nil })

	if cfg.Telemetry.Enabled {
		if rt.telemetry, err = telemetry.New(reg); err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
	}
	if rt.completer, err = provider.New(cfg.LLM, logger); err != nil {
		return nil, err
	}
	if rt.catalog, err = oncology.DefaultCatalog(); err != nil {
		return nil, fmt.Errorf("load trial catalog: %w", err)
	}

	searcher, err := rt.searcher(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	var fetcher web_fetch.WebFetcher
	if cfg.Sources.WebFetch.Enabled {
		fetcher, err = web_fetch.NewWebFetcher(cfg.Sources.WebFetch)
		if err != nil {
			rt.Close()
			return nil, err
		}
	}

	steps, err := agents.Steps(cfg, agents.Deps{
		Completer: rt.completer,
		Searcher:  searcher,
		Fetcher:   fetcher,
		Catalog:   rt.catalog,
		Logger:    logger,
		Telemetry: rt.telemetry,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	reentry, err := workflow.ParseStepID(cfg.Workflow.LungReentry)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.orchestrator, err = workflow.New(steps,
		workflow.WithLogger(logger),
		workflow.WithTelemetry(rt.telemetry),
		workflow.WithBudget(cfg.Workflow.Budget()),
		workflow.WithLungReentry(reentry),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// searcher returns nil when realtime search is off or no key is configured;
// research then falls back to simulated findings.
func (rt *runtime) searcher(ctx context.Context) (web_search.Searcher, error) {
	ws := rt.cfg.Sources.WebSearch
	if !ws.Realtime {
		return nil, nil
	}
	if ws.APIKey() == "" {
		rt.logger.Warn("no web search API key configured, research will use simulated findings",
			zap.String("provider", ws.Provider))
		return nil, nil
	}
	s, err := web_search.NewSearcher(ws, nil, rt.logger)
	if err != nil {
		return nil, err
	}
	if !ws.Cache.Enabled {
		return s, nil
	}

	var cache web_search.Cache
	if r := rt.cfg.Storage.Redis; r.Enabled {
		client, err := redis_repository.Conn(ctx, r, rt.logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		cache = redis_repository.NewSearchCache(client)
	} else {
		cache = web_search.NewMemoryCache(ws.Cache.Size, ws.Cache.TTL)
	}
	var opts []web_search.CachedOption
	if rt.telemetry != nil {
		opts = append(opts, web_search.WithCacheObserver(rt.telemetry))
	}
	return web_search.Cached(s, cache, ws.Cache.TTL, rt.logger, opts...), nil
}

// translator is nil unless translation is enabled.
func (rt *runtime) translator() report.Translator {
	if !rt.cfg.Translation.Enabled {
		return nil
	}
	return report.LLMTranslator{Completer: rt.completer}
}

func (rt *runtime) Close() {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		rt.logger.Warn("shutdown", zap.Error(err))
	}
}
