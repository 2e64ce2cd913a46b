// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount is safe to call while the logger is in use.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── ScoreClient ───────────────────────────────────────────────────────

// FakeScoreClient implements editor.ScoreClient over an in-memory map of
// documents keyed by firm id. UpdateFactor applies the value to a copy,
// bumps the revision and returns the whole document, like the real server.
type FakeScoreClient struct {
	mu   sync.Mutex
	docs map[string]*model.ScoresData

	// FetchErr and UpdateErr, when set, are returned instead of data.
	FetchErr  error
	UpdateErr error
	// Gate, when non-nil, blocks UpdateFactor until it is closed or receives.
	Gate chan struct{}
	// Started receives once per UpdateFactor call before Gate is awaited.
	Started chan struct{}
	// FetchGate and FetchStarted do the same for FetchScores. The document
	// is read before the gate, so a gated fetch returns what was stored
	// when it started.
	FetchGate    chan struct{}
	FetchStarted chan struct{}

	Fetches int
	Updates []model.FactorUpdate
}

// NewFakeScoreClient seeds the fake with copies of docs.
func NewFakeScoreClient(docs ...*model.ScoresData) *FakeScoreClient {
	c := &FakeScoreClient{docs: make(map[string]*model.ScoresData)}
	for _, d := range docs {
		c.docs[d.FirmID] = d.Clone()
	}
	return c
}

func (c *FakeScoreClient) FetchScores(ctx context.Context, firmID string) (*model.ScoresData, error) {
	c.mu.Lock()
	c.Fetches++
	err := c.FetchErr
	d := c.docs[firmID].Clone()
	gate, started := c.FetchGate, c.FetchStarted
	c.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (c *FakeScoreClient) UpdateFactor(ctx context.Context, u model.FactorUpdate) (*model.ScoresData, error) {
	c.mu.Lock()
	c.Updates = append(c.Updates, u)
	gate, started := c.Gate, c.Started
	c.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.UpdateErr != nil {
		return nil, c.UpdateErr
	}
	d, ok := c.docs[u.FirmID]
	if !ok {
		return nil, &model.RemoteError{Status: 404, Message: "no evaluation data found"}
	}
	next := d.Clone()
	next.Scores.Set(u.PillarID, u.CategoryID, u.FactorKey, u.Value)
	next.Revision++
	next.UpdatedAt = time.Unix(1700000000+next.Revision, 0).UTC()
	c.docs[u.FirmID] = next
	return next.Clone(), nil
}

// UpdateCount reports how many update requests reached the fake.
func (c *FakeScoreClient) UpdateCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Updates)
}

// Stored returns a copy of the fake's current document for firmID.
func (c *FakeScoreClient) Stored(firmID string) *model.ScoresData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs[firmID].Clone()
}

// ─── Fixtures ──────────────────────────────────────────────────────────

// ScoresFixture builds a document for firmID from the default schema's zero
// document with the given overrides applied as "pillar/category/factor" → value.
func ScoresFixture(firmID string, overrides map[string]float64) *model.ScoresData {
	scores := schema.Default().ZeroScores()
	for path, v := range overrides {
		p, c, f := splitPath(path)
		scores.Set(p, c, f, v)
	}
	return &model.ScoresData{
		FirmID:    firmID,
		FirmName:  "Fixture " + firmID,
		Scores:    scores,
		UpdatedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func splitPath(path string) (string, string, string) {
	parts := strings.SplitN(path, "/", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}
