package app

import (
	"context"
	"errors"

	"github.com/raysh454/trimetric/internal/live"
	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/metrics"
	"github.com/raysh454/trimetric/internal/schema"
	"github.com/raysh454/trimetric/internal/store"
)

// Application is the runtime state container: config plus the services
// shared by the server and the CLI. Pass it into modules that need them
// rather than using package-level variables.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Store   *store.Store
	Hub     *live.Hub
	Metrics *metrics.Metrics
	Orch    *Orchestrator
}

// NewApplication opens the configured database and wires the services on top.
func NewApplication(ctx context.Context, cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	storeCfg, err := cfg.StoreConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, storeCfg, schema.Default(), logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	hub := live.NewHub(logger, m.LiveSubscribers)
	return &Application{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Hub:     hub,
		Metrics: m,
		Orch:    NewOrchestrator(st, hub, m, logger),
	}, nil
}

// Client returns the in-process score client.
func (a *Application) Client() *Local {
	return NewLocal(a.Orch)
}

// Shutdown closes live subscriptions, then the database.
func (a *Application) Shutdown() error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")
	if a.Hub != nil {
		a.Hub.Shutdown()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
