package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "trimetric.db")
	st, err := Open(context.Background(), Config{Backend: SQLite, DSN: dsn}, schema.Default(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createFirm(t *testing.T, st *Store, name string) *model.Firm {
	t.Helper()
	f, err := st.CreateFirm(context.Background(), model.NewFirm{Name: name})
	require.NoError(t, err)
	return f
}

func ptr(v float64) *float64 { return &v }

// ─── Backend / helpers ─────────────────────────────────────────────────

func TestParseBackend(t *testing.T) {
	t.Parallel()
	cases := map[string]Backend{
		"":           SQLite,
		"sqlite3":    SQLite,
		"PostgreSQL": Postgres,
		"pgx":        Postgres,
		"mariadb":    MySQL,
	}
	for in, want := range cases {
		got, err := ParseBackend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBackend("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	t.Parallel()
	pg := &Store{backend: Postgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &Store{backend: SQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()
	assert.Contains(t, sqliteDSN("/tmp/a.db"), "/tmp/a.db?_pragma=foreign_keys(1)")
	assert.Contains(t, sqliteDSN("/tmp/a.db?cache=shared"), "cache=shared&_pragma=")
	assert.Equal(t, "x.db?_pragma=busy_timeout(1)", sqliteDSN("x.db?_pragma=busy_timeout(1)"))
}

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "apex-funding", normalizeSlug("  Apex Funding!! "))
	assert.Equal(t, "ftmo.com", normalizeSlug("FTMO.com"))
	assert.Equal(t, "", normalizeSlug("***"))
}

func TestOpen_RequiresSQLitePath(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), Config{Backend: SQLite}, schema.Default(), nil)
	assert.Error(t, err)
}

func TestMigrate_Version(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	v, dirty, err := MigrationVersion(st.db, st.backend)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(3), v)

	// Running again is a no-op.
	require.NoError(t, Migrate(context.Background(), st.db, st.backend, -1, nil))
}

// ─── Firms ─────────────────────────────────────────────────────────────

func TestCreateFirm_SlugAndZeroDocument(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	f, err := st.CreateFirm(ctx, model.NewFirm{Name: "Apex Funding", PTIScore: ptr(7.5)})
	require.NoError(t, err)
	assert.Equal(t, "apex-funding", f.Slug)
	assert.NotEmpty(t, f.ID)

	doc, err := st.GetScores(ctx, f.Slug)
	require.NoError(t, err)
	assert.Equal(t, f.ID, doc.FirmID)
	assert.Equal(t, "Apex Funding", doc.FirmName)
	require.NotNil(t, doc.PTIScore)
	assert.Equal(t, 7.5, *doc.PTIScore)
	assert.Equal(t, int64(0), doc.Revision)
	assert.Empty(t, cmp.Diff(schema.Default().ZeroScores(), doc.Scores))
}

func TestCreateFirm_Validation(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateFirm(ctx, model.NewFirm{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidFirm)

	_, err = st.CreateFirm(ctx, model.NewFirm{Name: "X", PTIScore: ptr(nan())})
	assert.ErrorIs(t, err, ErrInvalidFirm)

	createFirm(t, st, "Alpha")
	_, err = st.CreateFirm(ctx, model.NewFirm{Name: "Other", Slug: "ALPHA"})
	assert.ErrorIs(t, err, ErrDuplicateFirm)
}

func TestGetFirm_BySlugOrID(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	f := createFirm(t, st, "Beta Capital")

	bySlug, err := st.GetFirm(ctx, "beta-capital")
	require.NoError(t, err)
	byID, err := st.GetFirm(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, bySlug, byID)

	_, err = st.GetFirm(ctx, "nope")
	assert.ErrorIs(t, err, ErrFirmNotFound)
	_, err = st.GetFirm(ctx, "")
	assert.ErrorIs(t, err, ErrFirmNotFound)
}

func TestListFirms_NewestFirst(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	st.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	createFirm(t, st, "First")
	createFirm(t, st, "Second")

	firms, err := st.ListFirms(context.Background())
	require.NoError(t, err)
	require.Len(t, firms, 2)
	assert.Equal(t, "second", firms[0].Slug)
	assert.Equal(t, "first", firms[1].Slug)
}

func TestListFirms_EmptyIsNonNil(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	firms, err := st.ListFirms(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, firms)
	assert.Empty(t, firms)
}

// ─── Scores ────────────────────────────────────────────────────────────

func TestGetScores_UnknownFirm(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	_, err := st.GetScores(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFirmNotFound)
}

func TestGetScores_MissingRow(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	f := createFirm(t, st, "Orphan")
	_, err := st.db.ExecContext(ctx, `DELETE FROM firm_scores WHERE firm_id = ?`, f.ID)
	require.NoError(t, err)

	_, err = st.GetScores(ctx, f.ID)
	assert.ErrorIs(t, err, ErrScoresNotFound)
}

func TestUpdateFactor_ToleratesHandEditedDocuments(t *testing.T) {
	t.Parallel()
	for name, document := range map[string]string{
		"null document": `null`,
		"null pillar":   `{"credibility": null}`,
		"null category": `{"credibility": {"physical_legal_presence": null}}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			st := newTestStore(t)
			ctx := context.Background()
			f := createFirm(t, st, "Edited")
			_, err := st.db.ExecContext(ctx, `UPDATE firm_scores SET document = ? WHERE firm_id = ?`, document, f.ID)
			require.NoError(t, err)

			doc, err := st.UpdateFactor(ctx, model.FactorUpdate{
				FirmID: f.ID, PillarID: "credibility", CategoryID: "physical_legal_presence", FactorKey: "registered_company", Value: 1,
			})
			require.NoError(t, err)
			assert.Equal(t, 1.0, doc.Value("credibility", "physical_legal_presence", "registered_company"))

			reloaded, err := st.GetScores(ctx, f.ID)
			require.NoError(t, err)
			assert.Equal(t, 1.0, reloaded.Value("credibility", "physical_legal_presence", "registered_company"))
		})
	}
}

func TestUpdateFactor_ReturnsWholeDocument(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	f := createFirm(t, st, "Gamma")

	_, err := st.UpdateFactor(ctx, model.FactorUpdate{
		FirmID: f.ID, PillarID: "credibility", CategoryID: "transparency", FactorKey: "rules_clarity", Value: 2,
	})
	require.NoError(t, err)

	doc, err := st.UpdateFactor(ctx, model.FactorUpdate{
		FirmID: f.Slug, PillarID: "credibility", CategoryID: "physical_legal_presence", FactorKey: "physical_office", Value: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Revision)
	assert.Equal(t, 0.5, doc.Value("credibility", "physical_legal_presence", "physical_office"))
	assert.Equal(t, 2.0, doc.Value("credibility", "transparency", "rules_clarity"))
	assert.Equal(t, "Gamma", doc.FirmName)

	reloaded, err := st.GetScores(ctx, f.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(doc, reloaded))
}

func TestUpdateFactor_RejectsWithoutClamping(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	f := createFirm(t, st, "Delta")

	base := model.FactorUpdate{FirmID: f.ID, PillarID: "credibility", CategoryID: "physical_legal_presence", FactorKey: "registered_company"}

	for _, v := range []float64{-0.1, 1.01, nan()} {
		u := base
		u.Value = v
		_, err := st.UpdateFactor(ctx, u)
		assert.ErrorIs(t, err, ErrValueOutOfRange, "value %v", v)
		var re *RangeError
		if assert.True(t, errors.As(err, &re)) {
			assert.Equal(t, 1.0, re.Max)
		}
	}

	u := base
	u.FactorKey = "made_up"
	_, err := st.UpdateFactor(ctx, u)
	assert.ErrorIs(t, err, ErrUnknownFactor)

	doc, err := st.GetScores(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), doc.Revision)
	assert.Equal(t, 0.0, doc.Value("credibility", "physical_legal_presence", "registered_company"))
}

func TestUpdateFactor_BoundsAreInclusive(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	f := createFirm(t, st, "Epsilon")

	for _, v := range []float64{0, 2} {
		_, err := st.UpdateFactor(ctx, model.FactorUpdate{
			FirmID: f.ID, PillarID: "trading_conditions", CategoryID: "pricing", FactorKey: "profit_split", Value: v,
		})
		assert.NoError(t, err)
	}
}

func TestUpdateFactor_ConcurrentWritersAllLand(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	f := createFirm(t, st, "Zeta")

	keys := []string{"payout_speed", "payout_frequency", "payout_methods"}
	var wg sync.WaitGroup
	errs := make(chan error, len(keys))
	for _, k := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, err := st.UpdateFactor(ctx, model.FactorUpdate{
				FirmID: f.ID, PillarID: "payouts_support", CategoryID: "payouts", FactorKey: key, Value: 1,
			})
			errs <- err
		}(k)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	doc, err := st.GetScores(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(keys)), doc.Revision)
	for _, k := range keys {
		assert.Equal(t, 1.0, doc.Value("payouts_support", "payouts", k), k)
	}
}

func TestSetPTIScore(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	f := createFirm(t, st, "Eta")

	doc, err := st.SetPTIScore(ctx, f.ID, ptr(8.25))
	require.NoError(t, err)
	require.NotNil(t, doc.PTIScore)
	assert.Equal(t, 8.25, *doc.PTIScore)
	assert.Equal(t, int64(1), doc.Revision)

	doc, err = st.SetPTIScore(ctx, f.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, doc.PTIScore)
	assert.Equal(t, int64(2), doc.Revision)

	_, err = st.SetPTIScore(ctx, f.ID, ptr(inf()))
	assert.ErrorIs(t, err, ErrInvalidFirm)
}

func TestHistory_RecordsPatches(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	f := createFirm(t, st, "Theta")

	for _, v := range []float64{1, 2} {
		_, err := st.UpdateFactor(ctx, model.FactorUpdate{
			FirmID: f.ID, PillarID: "credibility", CategoryID: "track_record", FactorKey: "payout_proof", Value: v,
		})
		require.NoError(t, err)
	}

	events, err := st.History(ctx, f.Slug, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	latest := events[0]
	assert.Equal(t, int64(2), latest.Revision)
	assert.Equal(t, 2.0, latest.NewValue)
	require.NotNil(t, latest.OldValue)
	assert.Equal(t, 1.0, *latest.OldValue)
	assert.Contains(t, latest.Patch, "@@")

	limited, err := st.History(ctx, f.Slug, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTextPatch_EmptyWhenUnchanged(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", textPatch("same", "same"))
	assert.NotEmpty(t, textPatch("a", "b"))
}

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }
