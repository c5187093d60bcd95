package runtime

import (
	"context"

	"github.com/Borislavv/advanced-memory/internal/runtime/api"
	"github.com/Borislavv/advanced-memory/pkg/affinity"
	"github.com/Borislavv/advanced-memory/pkg/alloc"
	"github.com/Borislavv/advanced-memory/pkg/config"
	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
	"github.com/Borislavv/advanced-memory/pkg/prometheus/metrics"
	httpserver "github.com/Borislavv/advanced-memory/pkg/server"
	"github.com/Borislavv/advanced-memory/pkg/server/controller"
	"github.com/Borislavv/advanced-memory/pkg/server/middleware"
	"github.com/Borislavv/advanced-memory/pkg/shutdown"
	"github.com/Borislavv/advanced-memory/pkg/watchdog"
	"github.com/rs/zerolog/log"
)

// App is the ownership runtime's host process: it installs the configured
// allocator and tracer as process-wide defaults and runs the diagnostics
// plane (watchdog, leak reporter, debug HTTP server) around them.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Runtime

	allocator *alloc.Budget
	tracer    *lifetrace.Tracer
	server    *httpserver.HTTP
}

// NewApp wires allocator, tracer and the debug server from config.
func NewApp(ctx context.Context, cfg *config.Runtime) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)

	if *cfg.Runtime.Affinity.Enabled {
		affinity.Enable()
	}

	allocator := alloc.NewBudget(cfg.Runtime.Allocator.BudgetBytes)
	alloc.SetDefault(allocator)

	tracer, err := lifetrace.New(lifetrace.Config{
		Enabled:       cfg.Runtime.Trace.Enabled,
		MaxSites:      cfg.Runtime.Trace.MaxSites,
		RingSize:      cfg.Runtime.Trace.EventRingSize,
		ReportsPerMin: cfg.Runtime.Trace.LeakReportsPerMin,
		Meter:         metrics.New(),
	})
	if err != nil {
		cancel()
		return nil, err
	}
	lifetrace.SetDefault(tracer)

	app := &App{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		allocator: allocator,
		tracer:    tracer,
	}

	if cfg.Runtime.API.Enabled {
		srv, err := httpserver.New(ctx, cfg, app.controllers(), app.middlewares())
		if err != nil {
			cancel()
			return nil, err
		}
		app.server = srv
	}

	return app, nil
}

// Start runs the diagnostics plane and blocks until the context is canceled.
// The Gracefuller is expected to receive Done() when shutdown completes.
func (a *App) Start(gc shutdown.Gracefuller) {
	defer func() {
		a.stop()
		gc.Done()
	}()

	log.Info().Msg("[app] starting ownership runtime")

	a.tracer.Run(a.ctx, a.cfg.Runtime.Trace.LeakReportInterval)

	if a.cfg.Runtime.Watchdog.Enabled {
		watchdog.Run(a.ctx, a.cfg, a.allocator, a.tracer)
	}

	if a.server != nil {
		a.server.ListenAndServe()
	}

	<-a.ctx.Done()
}

// Allocator returns the configured allocator instance.
func (a *App) Allocator() *alloc.Budget { return a.allocator }

// Tracer returns the configured tracer instance.
func (a *App) Tracer() *lifetrace.Tracer { return a.tracer }

func (a *App) stop() {
	a.cancel()
	log.Info().Msg("[app] ownership runtime stopped")
}

func (a *App) controllers() []controller.HttpController {
	return []controller.HttpController{
		api.NewStatsController(a.allocator, a.tracer),
		api.NewTraceController(a.tracer),
		api.NewMetricsController(),
	}
}

func (a *App) middlewares() []middleware.HttpMiddleware {
	return []middleware.HttpMiddleware{
		/** exec 1st. */ middleware.NewApplicationJsonMiddleware(), // Sets Content-Type
	}
}
