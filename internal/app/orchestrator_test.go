package app

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/trimetric/internal/editor"
	"github.com/raysh454/trimetric/internal/live"
	"github.com/raysh454/trimetric/internal/metrics"
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
	"github.com/raysh454/trimetric/internal/store"
	tu "github.com/raysh454/trimetric/internal/testutil"
)

// newTestOrchestrator creates an Orchestrator over a temp-dir sqlite store.
func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	logger := &tu.DummyLogger{}
	st, err := store.Open(context.Background(), store.Config{
		Backend: store.SQLite,
		DSN:     filepath.Join(t.TempDir(), "trimetric.db"),
	}, schema.Default(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	m := metrics.New()
	hub := live.NewHub(logger, m.LiveSubscribers)
	t.Cleanup(hub.Shutdown)
	return NewOrchestrator(st, hub, m, logger)
}

func mustCreateFirm(t *testing.T, o *Orchestrator, name string) *model.Firm {
	t.Helper()
	f, err := o.CreateFirm(context.Background(), model.NewFirm{Name: name})
	require.NoError(t, err)
	return f
}

// ─── Orchestrator ──────────────────────────────────────────────────────

func TestUpdateFactor_PublishesAndCounts(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t)
	ctx := context.Background()
	f := mustCreateFirm(t, o, "Apex")

	sub := o.Hub().Subscribe(f.ID)
	defer sub.Close()

	doc, err := o.UpdateFactor(ctx, model.FactorUpdate{
		FirmID: f.Slug, PillarID: "credibility", CategoryID: "transparency", FactorKey: "public_leadership", Value: 1,
	})
	require.NoError(t, err)

	select {
	case pushed := <-sub.C():
		assert.Equal(t, doc.Revision, pushed.Revision)
	case <-time.After(2 * time.Second):
		t.Fatal("update was not published")
	}

	_, err = o.UpdateFactor(ctx, model.FactorUpdate{
		FirmID: f.Slug, PillarID: "credibility", CategoryID: "transparency", FactorKey: "public_leadership", Value: 9,
	})
	require.ErrorIs(t, err, store.ErrValueOutOfRange)

	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.FactorUpdates.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.FactorUpdates.WithLabelValues(metrics.OutcomeRejected)))
}

func TestSummaryAndIntegrity(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t)
	ctx := context.Background()
	f := mustCreateFirm(t, o, "Beta")

	_, err := o.UpdateFactor(ctx, model.FactorUpdate{
		FirmID: f.ID, PillarID: "credibility", CategoryID: "physical_legal_presence", FactorKey: "registered_company", Value: 1,
	})
	require.NoError(t, err)

	sum, err := o.Summary(ctx, f.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sum.Total.Total)
	assert.Equal(t, "Beta", sum.FirmName)

	issues, err := o.Integrity(ctx, f.Slug)
	require.NoError(t, err)
	assert.Empty(t, issues)

	_, err = o.Summary(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrFirmNotFound)
}

func TestSetPTIScore_Publishes(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t)
	f := mustCreateFirm(t, o, "Gamma")
	sub := o.Hub().Subscribe(f.ID)
	defer sub.Close()

	v := 6.5
	doc, err := o.SetPTIScore(context.Background(), f.ID, &v)
	require.NoError(t, err)
	require.NotNil(t, doc.PTIScore)

	pushed := <-sub.C()
	require.NotNil(t, pushed.PTIScore)
	assert.Equal(t, 6.5, *pushed.PTIScore)
}

// ─── Local client + editor ─────────────────────────────────────────────

func TestLocal_DrivesEditor(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t)
	ctx := context.Background()
	f := mustCreateFirm(t, o, "Delta")

	view := editor.NewView(f.ID, o.Schema(), NewLocal(o), nil)
	require.NoError(t, view.Load(ctx))

	ref := model.FactorRef{PillarID: "credibility", CategoryID: "physical_legal_presence", FactorKey: "registered_company"}
	require.NoError(t, view.Begin(ref))
	require.NoError(t, view.SetBuffer("1"))
	_, err := view.Commit(ctx)
	require.NoError(t, err)

	stored, err := o.GetScores(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Revision, view.Document().Revision)
	assert.Equal(t, 1.0, view.Document().Value(ref.PillarID, ref.CategoryID, ref.FactorKey))
}

func TestLocal_ErrorsLookRemote(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t)
	local := NewLocal(o)

	_, err := local.FetchScores(context.Background(), "ghost")
	var re *model.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusNotFound, re.Status)
	assert.Equal(t, "firm not found", re.Message)

	view := editor.NewView("ghost", o.Schema(), local, nil)
	var missing *editor.MissingDataError
	assert.ErrorAs(t, view.Load(context.Background()), &missing)
}

// ─── Error mapping ─────────────────────────────────────────────────────

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{store.ErrFirmNotFound, http.StatusNotFound},
		{store.ErrScoresNotFound, http.StatusNotFound},
		{&store.RangeError{Max: 1}, http.StatusBadRequest},
		{store.ErrUnknownFactor, http.StatusBadRequest},
		{store.ErrInvalidFirm, http.StatusBadRequest},
		{store.ErrConflict, http.StatusConflict},
		{store.ErrDuplicateFirm, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestErrorMessage_HidesInternalErrors(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "internal server error", ErrorMessage(errors.New("dsn password=hunter2")))
	assert.Equal(t, "firm not found", ErrorMessage(store.ErrFirmNotFound))
}

func TestAsRemoteError_PassesThrough(t *testing.T) {
	t.Parallel()
	orig := &model.RemoteError{Status: 418, Message: "teapot"}
	assert.Same(t, orig, AsRemoteError(orig))
	assert.Nil(t, AsRemoteError(nil))
}
