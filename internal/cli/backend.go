package cli

import (
	"context"

	"github.com/raysh454/trimetric/internal/app"
	"github.com/raysh454/trimetric/internal/client"
	"github.com/raysh454/trimetric/internal/editor"
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/score"
)

// service is what the firm and score commands run against: the HTTP API
// when --server is set, the local database otherwise.
type service interface {
	editor.ScoreClient
	CreateFirm(ctx context.Context, in model.NewFirm) (*model.Firm, error)
	ListFirms(ctx context.Context) ([]model.Firm, error)
	SetPTIScore(ctx context.Context, firm string, pti *float64) (*model.ScoresData, error)
	Summary(ctx context.Context, firm string) (*score.Breakdown, error)
	Integrity(ctx context.Context, firm string) ([]score.Issue, error)
	History(ctx context.Context, firm string, limit int) ([]model.ScoreEvent, error)
	Close() error
}

func (rt *env) service(ctx context.Context) (service, error) {
	if rt.cfg.Server != "" {
		c, err := client.New(rt.cfg.Server,
			client.WithTimeout(rt.cfg.Timeout),
			client.WithLogger(rt.logger))
		if err != nil {
			return nil, err
		}
		return remoteService{c}, nil
	}

	a, err := app.NewApplication(ctx, rt.cfg, rt.logger)
	if err != nil {
		return nil, err
	}
	return &localService{Local: a.Client(), app: a}, nil
}

type remoteService struct {
	*client.Client
}

func (remoteService) Close() error { return nil }

// localService runs commands in-process. Editor traffic goes through
// app.Local so failures look the same as over HTTP.
type localService struct {
	*app.Local
	app *app.Application
}

func (l *localService) CreateFirm(ctx context.Context, in model.NewFirm) (*model.Firm, error) {
	return l.app.Orch.CreateFirm(ctx, in)
}

func (l *localService) ListFirms(ctx context.Context) ([]model.Firm, error) {
	return l.app.Orch.ListFirms(ctx)
}

func (l *localService) SetPTIScore(ctx context.Context, firm string, pti *float64) (*model.ScoresData, error) {
	return l.app.Orch.SetPTIScore(ctx, firm, pti)
}

func (l *localService) Summary(ctx context.Context, firm string) (*score.Breakdown, error) {
	b, err := l.app.Orch.Summary(ctx, firm)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (l *localService) Integrity(ctx context.Context, firm string) ([]score.Issue, error) {
	return l.app.Orch.Integrity(ctx, firm)
}

func (l *localService) History(ctx context.Context, firm string, limit int) ([]model.ScoreEvent, error) {
	return l.app.Orch.History(ctx, firm, limit)
}

func (l *localService) Close() error {
	return l.app.Shutdown()
}
