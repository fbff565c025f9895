// Package server exposes the runway computation as a stateless JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/runway/internal/export"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"
)

const maxBodyBytes = 1 << 20

// Config controls the HTTP server.
type Config struct {
	Addr     string
	Options  pipeline.Options // used when a request names no policy
	Bounds   model.Bounds     // default sweep range
	RateStep float64          // default sweep step, whole percent
}

// Server handles compute, sweep and export requests. It keeps no state
// between requests.
type Server struct {
	cfg    Config
	logger *logrus.Logger
	router *mux.Router
}

// computeRequest is the body of /v1/compute and /v1/export.
type computeRequest struct {
	model.Inputs
	Policy       string  `json:"policy,omitempty"`
	DaysPerMonth float64 `json:"daysPerMonth,omitempty"`
	Adjusted     bool    `json:"adjusted,omitempty"` // export only
}

type sweepRequest struct {
	computeRequest
	TPRates []float64 `json:"tpRates,omitempty"`
	LTRates []float64 `json:"ltRates,omitempty"`
}

type sweepResponse struct {
	TPRates []float64            `json:"tpRates"`
	LTRates []float64            `json:"ltRates"`
	Cells   []pipeline.SweepCell `json:"cells"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// New returns a server with its routes registered.
func New(cfg Config, logger *logrus.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Options.Units.DaysPerMonth <= 0 {
		cfg.Options = pipeline.DefaultOptions()
	}
	if cfg.Bounds == (model.Bounds{}) {
		cfg.Bounds = model.DefaultBounds()
	}
	if pipeline.ValidStep(cfg.RateStep) != nil {
		cfg.RateStep = 25
	}
	if logger == nil {
		logger = logrus.New()
	}

	s := &Server{cfg: cfg, logger: logger, router: mux.NewRouter()}

	s.router.Use(s.requestLogger)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/compute", s.handleCompute).Methods(http.MethodPost)
	api.HandleFunc("/sweep", s.handleSweep).Methods(http.MethodPost)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodPost)

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.WithField("addr", s.cfg.Addr).Info("runway server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts, err := s.options(req)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pipeline.Compute(req.Inputs, opts))
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts, err := s.options(req.computeRequest)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	b := s.cfg.Bounds
	tp, lt := req.TPRates, req.LTRates
	if len(tp) == 0 {
		tp = pipeline.RateSteps(b.TPMin, b.TPMax, s.cfg.RateStep)
	}
	if len(lt) == 0 {
		lt = pipeline.RateSteps(b.LTMin, b.LTMax, s.cfg.RateStep)
	}

	if err := pipeline.CheckGrid(tp, lt); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sweepResponse{
		TPRates: tp,
		LTRates: lt,
		Cells:   pipeline.Sweep(req.Inputs, opts, tp, lt),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts, err := s.options(req)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	var buf bytes.Buffer
	out := pipeline.Compute(req.Inputs, opts)
	if err := export.Write(&buf, out, export.Options{Adjusted: req.Adjusted}); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, export.ErrCellTooLong) {
			status = http.StatusBadRequest
		}
		s.fail(w, r, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="cash-runway.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// options resolves per-request overrides on top of the server defaults.
func (s *Server) options(req computeRequest) (pipeline.Options, error) {
	opts := s.cfg.Options
	if req.Policy != "" {
		p, err := model.ParsePolicy(req.Policy)
		if err != nil {
			return opts, err
		}
		opts.Policy = p
	}
	if req.DaysPerMonth < 0 {
		return opts, fmt.Errorf("daysPerMonth must be positive, got %g", req.DaysPerMonth)
	}
	if req.DaysPerMonth > 0 {
		opts.Units.DaysPerMonth = req.DaysPerMonth
	}
	if req.Params.CashInjection < 0 {
		return opts, fmt.Errorf("cashInjection must not be negative, got %g", req.Params.CashInjection)
	}
	return opts, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	requestLog(r, s.logger).WithError(err).Warn("request rejected")
	s.writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: w.Header().Get(requestIDHeader),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// requestLog returns a logger entry carrying the request ID, if any.
func requestLog(r *http.Request, logger *logrus.Logger) *logrus.Entry {
	entry := logrus.NewEntry(logger)
	if id, ok := r.Context().Value(ctxKey{}).(string); ok {
		entry = entry.WithField("request_id", id)
	}
	return entry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// requestLogger tags each request with an ID and logs one line when it
// completes. A client-supplied X-Request-ID is kept.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		s.logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"bytes":      rec.bytes,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}
