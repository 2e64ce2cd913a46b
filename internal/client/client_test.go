package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/trimetric/internal/model"
)

func newStubServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ─── Construction ──────────────────────────────────────────────────────

func TestNew_RejectsNonHTTP(t *testing.T) {
	t.Parallel()
	_, err := New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("::bad")
	assert.Error(t, err)
}

func TestNew_Timeout(t *testing.T) {
	t.Parallel()
	c, err := New("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.Timeout())

	c, err = New("http://localhost:8080", WithTimeout(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, c.Timeout())

	c, err = New("http://localhost:8080", WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.Timeout())
}

// ─── Endpoints ─────────────────────────────────────────────────────────

func TestFetchScores(t *testing.T) {
	t.Parallel()
	c := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/firms/apex/scores", r.URL.Path)
		writeJSON(w, http.StatusOK, model.ScoresData{
			FirmID: "f1", Revision: 4,
			Scores: model.Scores{"credibility": {"transparency": {"rules_clarity": 2}}},
		})
	})

	doc, err := c.FetchScores(context.Background(), "apex")
	require.NoError(t, err)
	assert.Equal(t, int64(4), doc.Revision)
	assert.Equal(t, 2.0, doc.Value("credibility", "transparency", "rules_clarity"))
}

func TestUpdateFactor_SendsPayload(t *testing.T) {
	t.Parallel()
	c := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/firms/f1/scores", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, map[string]any{
			"firmId": "f1", "pillarId": "credibility", "categoryId": "transparency",
			"factorKey": "rules_clarity", "value": 1.5,
		}, got)

		writeJSON(w, http.StatusOK, model.ScoresData{FirmID: "f1", Revision: 1})
	})

	doc, err := c.UpdateFactor(context.Background(), model.FactorUpdate{
		FirmID: "f1", PillarID: "credibility", CategoryID: "transparency", FactorKey: "rules_clarity", Value: 1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Revision)
}

func TestErrorResponsesBecomeRemoteErrors(t *testing.T) {
	t.Parallel()
	c := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/firms/bad/scores":
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value must be between 0 and 1"})
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>proxy error</html>"))
		}
	})

	_, err := c.UpdateFactor(context.Background(), model.FactorUpdate{FirmID: "bad"})
	var re *model.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "value must be between 0 and 1", re.Message)

	_, err = c.FetchScores(context.Background(), "other")
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadGateway, re.Status)
	assert.Empty(t, re.Message)
}

func TestTransportErrorIsNotRemote(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	_, err = c.FetchScores(context.Background(), "x")
	require.Error(t, err)
	var re *model.RemoteError
	assert.False(t, errors.As(err, &re))
}

func TestTimeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	_, err = c.FetchScores(context.Background(), "slow")
	assert.Error(t, err)
}

func TestHistory_LimitAndPaths(t *testing.T) {
	t.Parallel()
	c := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/firms/a%20b/scores/history", r.URL.EscapedPath())
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []model.ScoreEvent{{ID: "e1", Revision: 2}})
	})

	events, err := c.History(context.Background(), "a b", 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
}

func TestSetPTIScore_NullClears(t *testing.T) {
	t.Parallel()
	c := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"ptiScore":null}`, string(body))
		writeJSON(w, http.StatusOK, model.ScoresData{FirmID: "f1"})
	})
	doc, err := c.SetPTIScore(context.Background(), "f1", nil)
	require.NoError(t, err)
	assert.Nil(t, doc.PTIScore)
}
