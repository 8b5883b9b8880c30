package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/metrics"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/recorder"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/scanner"
)

// Server exposes classifications over read-only JSON endpoints.
type Server struct {
	router    *mux.Router
	server    *http.Server
	scanner   *scanner.Scanner
	recorder  recorder.Recorder
	metrics   *metrics.Registry
	watchlist []string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewServer wires the routes. m may be nil, which disables /metrics.
func NewServer(addr string, sc *scanner.Scanner, rec recorder.Recorder, m *metrics.Registry, watchlist []string, log zerolog.Logger) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		router:    mux.NewRouter(),
		scanner:   sc,
		recorder:  rec,
		metrics:   m,
		watchlist: model.NormalizeTickers(watchlist),
		timeout:   2 * time.Minute,
		log:       log.With().Str("component", "api").Logger(),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.timeoutMiddleware)
	api.HandleFunc("/status/{ticker}", s.status).Methods(http.MethodGet)
	api.HandleFunc("/watchlist", s.watchlistScan).Methods(http.MethodGet)
	api.HandleFunc("/history/{ticker}", s.history).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
}

type errorBody struct {
	Error string `json:"error"`
}

type scanBody struct {
	RunID      string                     `json:"run_id"`
	StartedAt  time.Time                  `json:"started_at"`
	FinishedAt time.Time                  `json:"finished_at"`
	Counts     map[model.Status]int       `json:"counts"`
	Results    []model.TrafficLightResult `json:"results"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "watchlist": len(s.watchlist)})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	res := s.scanner.ClassifyOne(r.Context(), mux.Vars(r)["ticker"])
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) watchlistScan(w http.ResponseWriter, r *http.Request) {
	report, err := s.scanner.Scan(r.Context(), s.watchlist)
	if errors.Is(err, scanner.ErrScanRunning) {
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scanBody{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Counts:     report.Counts,
		Results:    report.Results,
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	hist, err := s.recorder.History(mux.Vars(r)["ticker"], limit)
	if err != nil {
		s.log.Error().Err(err).Msg("history")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "history unavailable"})
		return
	}
	if hist == nil {
		hist = []model.TrafficLightResult{}
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start serves until Shutdown; http.ErrServerClosed is returned after a clean stop.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}
