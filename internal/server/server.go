// Package server exposes the scoring service over HTTP and WebSocket.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/trimetric/internal/app"
	_ "github.com/raysh454/trimetric/internal/docs" // swagger spec
	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/metrics"
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/score"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP + WebSocket API surface for TriMetric.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	metrics      *metrics.Metrics
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer creates a Server over an existing orchestrator.
func NewServer(cfg Config, orch *app.Orchestrator) (*Server, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		metrics:      cfg.Metrics,
		router:       r,
		logger:       logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict to the admin UI origin once it is configurable
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	if s.metrics != nil {
		r.Use(s.metricsMiddleware)
	}

	// CORS preflight
	r.Options("/schema", s.optionsHandler("GET"))
	r.Options("/firms", s.optionsHandler("GET, POST"))
	r.Options("/firms/{firm}", s.optionsHandler("GET"))
	r.Options("/firms/{firm}/scores", s.optionsHandler("GET, PATCH"))
	r.Options("/firms/{firm}/pti", s.optionsHandler("PUT"))
	r.Options("/firms/{firm}/scores/summary", s.optionsHandler("GET"))
	r.Options("/firms/{firm}/scores/integrity", s.optionsHandler("GET"))
	r.Options("/firms/{firm}/scores/history", s.optionsHandler("GET"))
	r.Options("/ws/firms/{firm}/scores", s.optionsHandler("GET"))

	r.Get("/schema", s.handleGetSchema)

	// Firms
	r.Post("/firms", s.handleCreateFirm)
	r.Get("/firms", s.handleListFirms)
	r.Get("/firms/{firm}", s.handleGetFirm)

	// Scores
	r.Get("/firms/{firm}/scores", s.handleGetScores)
	r.Patch("/firms/{firm}/scores", s.handleUpdateFactor)
	r.Put("/firms/{firm}/pti", s.handleSetPTI)
	r.Get("/firms/{firm}/scores/summary", s.handleGetSummary)
	r.Get("/firms/{firm}/scores/integrity", s.handleGetIntegrity)
	r.Get("/firms/{firm}/scores/history", s.handleGetHistory)

	// WebSocket push of committed documents
	r.Get("/ws/firms/{firm}/scores", s.handleScoresWS)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware labels by route pattern so ids in paths do not explode
// cardinality.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		} else {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to Serve.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError answers with the status err maps to.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	status := app.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op, logging.Err(err))
	} else {
		s.logger.Warn(op, logging.Err(err))
	}
	writeError(w, status, app.ErrorMessage(err))
}

// --- HTTP handlers ---

// handleGetSchema godoc
// @Summary Scoring schema
// @Description The pillar, category and factor tree with each factor's max and criteria.
// @Tags schema
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /schema [get]
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.Schema())
}

// Firms

// handleCreateFirm godoc
// @Summary Onboard a firm
// @Tags firms
// @Accept json
// @Produce json
// @Param firm body CreateFirmRequest true "firm"
// @Success 201 {object} model.Firm
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /firms [post]
func (s *Server) handleCreateFirm(w http.ResponseWriter, r *http.Request) {
	var body CreateFirmRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	f, err := s.orchestrator.CreateFirm(r.Context(), model.NewFirm{
		Name:     body.Name,
		Slug:     body.Slug,
		PTIScore: body.PTIScore,
	})
	if err != nil {
		s.writeServiceError(w, "creating firm", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// handleListFirms godoc
// @Summary List firms
// @Tags firms
// @Produce json
// @Success 200 {array} model.Firm
// @Router /firms [get]
func (s *Server) handleListFirms(w http.ResponseWriter, r *http.Request) {
	firms, err := s.orchestrator.ListFirms(r.Context())
	if err != nil {
		s.writeServiceError(w, "listing firms", err)
		return
	}
	writeJSON(w, http.StatusOK, firms)
}

// handleGetFirm godoc
// @Summary Get a firm by slug or id
// @Tags firms
// @Produce json
// @Param firm path string true "firm slug or id"
// @Success 200 {object} model.Firm
// @Failure 404 {object} ErrorResponse
// @Router /firms/{firm} [get]
func (s *Server) handleGetFirm(w http.ResponseWriter, r *http.Request) {
	f, err := s.orchestrator.GetFirm(r.Context(), chi.URLParam(r, "firm"))
	if err != nil {
		s.writeServiceError(w, "getting firm", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Scores

// handleGetScores godoc
// @Summary Fetch a firm's score document
// @Tags scores
// @Produce json
// @Param firm path string true "firm slug or id"
// @Success 200 {object} model.ScoresData
// @Failure 404 {object} ErrorResponse
// @Router /firms/{firm}/scores [get]
func (s *Server) handleGetScores(w http.ResponseWriter, r *http.Request) {
	doc, err := s.orchestrator.GetScores(r.Context(), chi.URLParam(r, "firm"))
	if err != nil {
		s.writeServiceError(w, "getting scores", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleUpdateFactor godoc
// @Summary Update one factor
// @Description Validates the value against the factor's range, persists it and returns the whole updated document.
// @Tags scores
// @Accept json
// @Produce json
// @Param firm path string true "firm slug or id"
// @Param update body UpdateFactorRequest true "factor update"
// @Success 200 {object} model.ScoresData
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /firms/{firm}/scores [patch]
func (s *Server) handleUpdateFactor(w http.ResponseWriter, r *http.Request) {
	firm := chi.URLParam(r, "firm")

	var body UpdateFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	if body.FirmID != "" && body.FirmID != firm {
		f, err := s.orchestrator.GetFirm(r.Context(), firm)
		if err != nil {
			s.writeServiceError(w, "updating factor", err)
			return
		}
		if body.FirmID != f.ID && body.FirmID != f.Slug {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("firmId %q does not match %q", body.FirmID, firm))
			return
		}
	}

	doc, err := s.orchestrator.UpdateFactor(r.Context(), model.FactorUpdate{
		FirmID:     firm,
		PillarID:   body.PillarID,
		CategoryID: body.CategoryID,
		FactorKey:  body.FactorKey,
		Value:      *body.Value,
	})
	if err != nil {
		s.writeServiceError(w, "updating factor", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleSetPTI godoc
// @Summary Set the display-only PTI score
// @Tags scores
// @Accept json
// @Produce json
// @Param firm path string true "firm slug or id"
// @Param pti body SetPTIRequest true "pti score, null clears"
// @Success 200 {object} model.ScoresData
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /firms/{firm}/pti [put]
func (s *Server) handleSetPTI(w http.ResponseWriter, r *http.Request) {
	var body SetPTIRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	doc, err := s.orchestrator.SetPTIScore(r.Context(), chi.URLParam(r, "firm"), body.PTIScore)
	if err != nil {
		s.writeServiceError(w, "setting pti score", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleGetSummary godoc
// @Summary Score breakdown
// @Description Pillar, category and factor totals derived from the stored document.
// @Tags scores
// @Produce json
// @Param firm path string true "firm slug or id"
// @Success 200 {object} score.Breakdown
// @Failure 404 {object} ErrorResponse
// @Router /firms/{firm}/scores/summary [get]
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	b, err := s.orchestrator.Summary(r.Context(), chi.URLParam(r, "firm"))
	if err != nil {
		s.writeServiceError(w, "summarizing scores", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleGetIntegrity godoc
// @Summary Integrity report
// @Description Stored values that are missing, out of range or not in the schema. Nothing is fixed.
// @Tags scores
// @Produce json
// @Param firm path string true "firm slug or id"
// @Success 200 {array} score.Issue
// @Failure 404 {object} ErrorResponse
// @Router /firms/{firm}/scores/integrity [get]
func (s *Server) handleGetIntegrity(w http.ResponseWriter, r *http.Request) {
	issues, err := s.orchestrator.Integrity(r.Context(), chi.URLParam(r, "firm"))
	if err != nil {
		s.writeServiceError(w, "checking integrity", err)
		return
	}
	if issues == nil {
		issues = []score.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

// handleGetHistory godoc
// @Summary Factor change history
// @Tags scores
// @Produce json
// @Param firm path string true "firm slug or id"
// @Param limit query int false "max events" default(50)
// @Success 200 {array} model.ScoreEvent
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /firms/{firm}/scores/history [get]
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	events, err := s.orchestrator.History(r.Context(), chi.URLParam(r, "firm"), limit)
	if err != nil {
		s.writeServiceError(w, "listing history", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
