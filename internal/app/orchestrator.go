package app

import (
	"context"
	"net/http"

	"github.com/raysh454/trimetric/internal/live"
	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/metrics"
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
	"github.com/raysh454/trimetric/internal/score"
)

// ScoreStore is the persistence the orchestrator drives. *store.Store
// implements it.
type ScoreStore interface {
	Schema() *schema.Schema
	CreateFirm(ctx context.Context, in model.NewFirm) (*model.Firm, error)
	GetFirm(ctx context.Context, identifier string) (*model.Firm, error)
	ListFirms(ctx context.Context) ([]model.Firm, error)
	GetScores(ctx context.Context, firmIdentifier string) (*model.ScoresData, error)
	UpdateFactor(ctx context.Context, u model.FactorUpdate) (*model.ScoresData, error)
	SetPTIScore(ctx context.Context, firmIdentifier string, pti *float64) (*model.ScoresData, error)
	History(ctx context.Context, firmIdentifier string, limit int) ([]model.ScoreEvent, error)
}

// Orchestrator is the service layer behind the HTTP API and the in-process
// client: it persists through the store, pushes committed documents to live
// subscribers and counts update outcomes.
type Orchestrator struct {
	store   ScoreStore
	hub     *live.Hub
	metrics *metrics.Metrics
	logger  logging.Logger
}

// NewOrchestrator ties together store, hub, metrics and logger. hub and
// metrics may be nil.
func NewOrchestrator(st ScoreStore, hub *live.Hub, m *metrics.Metrics, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Orchestrator{
		store:   st,
		hub:     hub,
		metrics: m,
		logger:  logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
	}
}

// Schema returns the scoring schema documents are validated against.
func (o *Orchestrator) Schema() *schema.Schema { return o.store.Schema() }

// Hub returns the live hub, nil when push is disabled.
func (o *Orchestrator) Hub() *live.Hub { return o.hub }

func (o *Orchestrator) CreateFirm(ctx context.Context, in model.NewFirm) (*model.Firm, error) {
	return o.store.CreateFirm(ctx, in)
}

func (o *Orchestrator) GetFirm(ctx context.Context, identifier string) (*model.Firm, error) {
	return o.store.GetFirm(ctx, identifier)
}

func (o *Orchestrator) ListFirms(ctx context.Context) ([]model.Firm, error) {
	return o.store.ListFirms(ctx)
}

// GetScores loads a firm's whole document.
func (o *Orchestrator) GetScores(ctx context.Context, firm string) (*model.ScoresData, error) {
	return o.store.GetScores(ctx, firm)
}

// UpdateFactor persists one factor and returns the whole updated document.
func (o *Orchestrator) UpdateFactor(ctx context.Context, u model.FactorUpdate) (*model.ScoresData, error) {
	doc, err := o.store.UpdateFactor(ctx, u)
	if err != nil {
		outcome := metrics.OutcomeRejected
		if HTTPStatus(err) >= http.StatusInternalServerError {
			outcome = metrics.OutcomeError
			o.logger.Error("factor update failed",
				logging.Field{Key: "firm", Value: u.FirmID},
				logging.Field{Key: "factor", Value: u.Ref().String()},
				logging.Err(err))
		}
		o.metrics.ObserveFactorUpdate(outcome)
		return nil, err
	}
	o.metrics.ObserveFactorUpdate(metrics.OutcomeOK)
	o.publish(doc)
	return doc, nil
}

// SetPTIScore replaces the display-only PTI score.
func (o *Orchestrator) SetPTIScore(ctx context.Context, firm string, pti *float64) (*model.ScoresData, error) {
	doc, err := o.store.SetPTIScore(ctx, firm, pti)
	if err != nil {
		return nil, err
	}
	o.publish(doc)
	return doc, nil
}

// Summary derives the breakdown tree for a firm.
func (o *Orchestrator) Summary(ctx context.Context, firm string) (score.Breakdown, error) {
	doc, err := o.store.GetScores(ctx, firm)
	if err != nil {
		return score.Breakdown{}, err
	}
	return score.Summarize(o.store.Schema(), doc), nil
}

// Integrity reports stored values the schema does not allow.
func (o *Orchestrator) Integrity(ctx context.Context, firm string) ([]score.Issue, error) {
	doc, err := o.store.GetScores(ctx, firm)
	if err != nil {
		return nil, err
	}
	issues := score.CheckIntegrity(o.store.Schema(), doc)
	if len(issues) > 0 {
		o.logger.Warn("integrity issues found",
			logging.Field{Key: "firm_id", Value: doc.FirmID},
			logging.Field{Key: "count", Value: len(issues)})
	}
	return issues, nil
}

func (o *Orchestrator) History(ctx context.Context, firm string, limit int) ([]model.ScoreEvent, error) {
	return o.store.History(ctx, firm, limit)
}

func (o *Orchestrator) publish(doc *model.ScoresData) {
	if o.hub != nil {
		o.hub.Publish(doc)
	}
}
