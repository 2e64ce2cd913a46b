// Package editor implements the per-firm score view and its single-factor
// edit/commit workflow. A View owns one ScoresData document: it is loaded
// once, read by the aggregation functions, and replaced wholesale by the
// server's response after each successful commit.
package editor

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
	"github.com/raysh454/trimetric/internal/score"
)

// ScoreClient is the fetch-score and partial-update transport.
type ScoreClient interface {
	FetchScores(ctx context.Context, firmID string) (*model.ScoresData, error)
	UpdateFactor(ctx context.Context, u model.FactorUpdate) (*model.ScoresData, error)
}

// State is where the view is in the edit workflow.
type State int

const (
	Viewing State = iota
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "viewing"
	}
}

// Session is the one open edit.
type Session struct {
	Ref    model.FactorRef
	Max    float64
	Buffer string
}

// View holds one firm's document and at most one edit session.
type View struct {
	firmID string
	schema *schema.Schema
	client ScoreClient
	logger logging.Logger

	mu      sync.Mutex
	doc     *model.ScoresData
	session *Session
	saving  bool
	// commits counts successful commits.
	commits uint64
}

// NewView creates an unloaded view for firmID.
func NewView(firmID string, sch *schema.Schema, client ScoreClient, logger logging.Logger) *View {
	if sch == nil {
		sch = schema.Default()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &View{
		firmID: firmID,
		schema: sch,
		client: client,
		logger: logger.With(
			logging.Field{Key: "component", Value: "editor"},
			logging.Field{Key: "firm", Value: firmID}),
	}
}

// Load fetches the firm's document. A failed fetch or an absent document
// leaves the view without data and returns *MissingDataError. A commit that
// starts during the fetch makes Load return ErrSaveInFlight; one that
// finishes during it keeps its document unless the fetched one is newer.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.saving {
		v.mu.Unlock()
		return ErrSaveInFlight
	}
	commits := v.commits
	v.mu.Unlock()

	doc, err := v.client.FetchScores(ctx, v.firmID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.saving {
		return ErrSaveInFlight
	}
	if v.commits != commits && v.doc != nil {
		if err == nil && doc != nil && doc.Revision > v.doc.Revision {
			v.doc = doc
		}
		return nil
	}
	if err != nil || doc == nil {
		v.logger.Warn("no evaluation data", logging.Err(err))
		v.doc = nil
		return &MissingDataError{FirmID: v.firmID, Err: err}
	}
	v.doc = doc
	return nil
}

// FirmID returns the firm the view was created for.
func (v *View) FirmID() string { return v.firmID }

// Schema returns the schema the view validates against.
func (v *View) Schema() *schema.Schema { return v.schema }

// Document returns a copy of the current document, nil before a successful Load.
func (v *View) Document() *model.ScoresData {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.Clone()
}

// Summary derives the full breakdown from the current document.
func (v *View) Summary() (score.Breakdown, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.doc == nil {
		return score.Breakdown{}, &MissingDataError{FirmID: v.firmID}
	}
	return score.Summarize(v.schema, v.doc), nil
}

// CategoryScore derives one category's total from the current document.
func (v *View) CategoryScore(pillarID, categoryID string) (score.Total, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.doc == nil {
		return score.Total{}, &MissingDataError{FirmID: v.firmID}
	}
	p, ok := v.schema.Pillar(pillarID)
	if !ok {
		return score.Total{}, ErrUnknownFactor
	}
	c, ok := p.Category(categoryID)
	if !ok {
		return score.Total{}, ErrUnknownFactor
	}
	return score.CategoryScore(pillarID, categoryID, c.Factors, v.doc), nil
}

// State reports the workflow state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case v.saving:
		return Saving
	case v.session != nil:
		return Editing
	default:
		return Viewing
	}
}

// Session returns a copy of the open session.
func (v *View) Session() (Session, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil {
		return Session{}, false
	}
	return *v.session, true
}

// Begin opens an edit session on ref with the committed value as the buffer.
func (v *View) Begin(ref model.FactorRef) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.doc == nil {
		return &MissingDataError{FirmID: v.firmID}
	}
	if v.saving {
		return ErrSaveInFlight
	}
	if v.session != nil {
		return ErrSessionOpen
	}
	f, ok := v.schema.Factor(ref.PillarID, ref.CategoryID, ref.FactorKey)
	if !ok {
		return ErrUnknownFactor
	}
	current := v.doc.Value(ref.PillarID, ref.CategoryID, ref.FactorKey)
	v.session = &Session{
		Ref:    ref,
		Max:    f.Max,
		Buffer: strconv.FormatFloat(current, 'f', -1, 64),
	}
	return nil
}

// SetBuffer replaces the edit buffer text. Nothing is validated here.
func (v *View) SetBuffer(text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.saving {
		return ErrSaveInFlight
	}
	if v.session == nil {
		return ErrNoSession
	}
	v.session.Buffer = text
	return nil
}

// Cancel discards the open session without a request.
func (v *View) Cancel() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.saving {
		return ErrSaveInFlight
	}
	if v.session == nil {
		return ErrNoSession
	}
	v.session = nil
	return nil
}

// Commit validates the buffer and persists it. Invalid input returns
// *ValidationError without a request. A failed request returns
// *PersistenceError and keeps both the document and the session. On success
// the server's document replaces the local one and the session closes.
func (v *View) Commit(ctx context.Context) (*model.ScoresData, error) {
	v.mu.Lock()
	if v.saving {
		v.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	if v.session == nil {
		v.mu.Unlock()
		return nil, ErrNoSession
	}
	sess := *v.session
	value, ok := parseValue(sess.Buffer, sess.Max)
	if !ok {
		v.mu.Unlock()
		return nil, &ValidationError{Ref: sess.Ref, Input: sess.Buffer, Max: sess.Max}
	}
	v.saving = true
	v.mu.Unlock()

	doc, err := v.client.UpdateFactor(ctx, model.FactorUpdate{
		FirmID:     v.firmID,
		PillarID:   sess.Ref.PillarID,
		CategoryID: sess.Ref.CategoryID,
		FactorKey:  sess.Ref.FactorKey,
		Value:      value,
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	v.saving = false
	if err == nil && doc == nil {
		err = &model.RemoteError{Message: "empty response from server"}
	}
	if err != nil {
		v.logger.Warn("save failed",
			logging.Field{Key: "factor", Value: sess.Ref.String()},
			logging.Err(err))
		return nil, newPersistenceError(sess.Ref, err)
	}

	v.doc = doc
	v.session = nil
	v.commits++
	v.logger.Info("saved factor",
		logging.Field{Key: "factor", Value: sess.Ref.String()},
		logging.Field{Key: "value", Value: value},
		logging.Field{Key: "revision", Value: doc.Revision})
	return doc.Clone(), nil
}

// parseValue accepts finite numbers within [0, max]. Surrounding whitespace
// is ignored; anything else that is not a plain number is rejected.
func parseValue(text string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	if v < 0 || v > limit {
		return 0, false
	}
	return v, true
}
