package app

import (
	"context"

	"github.com/raysh454/trimetric/internal/model"
)

// Local is the in-process editor transport. Errors come back as
// *model.RemoteError so callers cannot tell it apart from the HTTP client.
type Local struct {
	orch *Orchestrator
}

// NewLocal wraps an orchestrator as a score client.
func NewLocal(o *Orchestrator) *Local {
	return &Local{orch: o}
}

func (l *Local) FetchScores(ctx context.Context, firmID string) (*model.ScoresData, error) {
	doc, err := l.orch.GetScores(ctx, firmID)
	if err != nil {
		return nil, AsRemoteError(err)
	}
	return doc, nil
}

func (l *Local) UpdateFactor(ctx context.Context, u model.FactorUpdate) (*model.ScoresData, error) {
	doc, err := l.orch.UpdateFactor(ctx, u)
	if err != nil {
		return nil, AsRemoteError(err)
	}
	return doc, nil
}
