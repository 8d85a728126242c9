// Package web serves simulations over HTTP: one-shot runs as JSON, live runs
// over a websocket and the recorded run history.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/vovakirdan/chase/internal/chase"
	"github.com/vovakirdan/chase/internal/config"
	"github.com/vovakirdan/chase/internal/core"
	"github.com/vovakirdan/chase/internal/logging"
	"github.com/vovakirdan/chase/internal/storage"
)

const (
	// Largest request body accepted by POST /runs.
	maxBodySize = 64 << 10

	// Largest history page.
	maxHistory = 100

	// Upper bounds on what a single request may simulate.
	maxRequestRounds = 100_000
	maxRequestFlock  = 10_000

	// Every round keeps one position slot per sheep, so rounds times sheep
	// bounds the memory a single run can hold.
	maxRequestSlots = 10_000_000

	shutdownTimeout = 10 * time.Second
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Address is the host:port to listen on (e.g., ":8080").
	Address string

	// Defaults fills in every value a request leaves out.
	Defaults config.ChaseConfig

	// Interval is the pause between rounds on the websocket.
	Interval time.Duration

	// Store records runs and serves the history. Optional.
	Store *storage.Store

	// Logger receives request events. Defaults to a discarding logger.
	Logger *log.Logger
}

// Server routes the HTTP API.
type Server struct {
	config Config
	router *mux.Router
	logger *log.Logger
	http   *http.Server
}

// NewServer builds the router.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{config: cfg, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/config", s.defaults).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.createRun).Methods(http.MethodPost)
	r.HandleFunc("/runs", s.listRuns).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id:[0-9]+}", s.getRun).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWs).Methods(http.MethodGet)
	s.router = r

	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting HTTP server", "address", s.config.Address)

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// runRequest is the body of POST /runs. Every section is optional and
// overlays the server defaults.
type runRequest struct {
	config.ChaseConfig
	Seed int64 `json:"seed"`
}

type runResponse struct {
	RunID     int64                 `json:"run_id,omitempty"`
	Seed      int64                 `json:"seed"`
	Rounds    []storage.RoundRecord `json:"rounds"`
	Survivors int                   `json:"survivors"`
}

type runInfoResponse struct {
	ID        int64        `json:"id"`
	Seed      int64        `json:"seed"`
	Params    paramsJSON   `json:"params"`
	Rounds    int          `json:"rounds"`
	Survivors int          `json:"survivors"`
	Finished  bool         `json:"finished"`
	CreatedAt time.Time    `json:"created_at"`
	Alive     []roundAlive `json:"alive,omitempty"`
}

type paramsJSON struct {
	MaxRounds     int     `json:"max_rounds"`
	FlockSize     int     `json:"flock_size"`
	InitPosLimit  float64 `json:"init_pos_limit"`
	SheepMoveDist float64 `json:"sheep_move_dist"`
	WolfMoveDist  float64 `json:"wolf_move_dist"`
}

type roundAlive struct {
	Round int `json:"round_no"`
	Alive int `json:"alive"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Client may be gone; nothing left to report to
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) defaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Defaults)
}

// newSimulation validates cfg and seeds a simulation. A zero seed is
// replaced by the clock so the response can report it.
func newSimulation(cfg config.ChaseConfig, seed int64) (*chase.Simulation, int64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}
	if cfg.Simulation.MaxRounds > maxRequestRounds || cfg.Simulation.FlockSize > maxRequestFlock {
		return nil, 0, fmt.Errorf("%w: at most %d rounds and %d sheep per request",
			config.ErrInvalid, maxRequestRounds, maxRequestFlock)
	}
	if slots := int64(cfg.Simulation.MaxRounds) * int64(cfg.Simulation.FlockSize); slots > maxRequestSlots {
		return nil, 0, fmt.Errorf("%w: rounds times sheep must be at most %d, got %d",
			config.ErrInvalid, maxRequestSlots, slots)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sim, err := chase.New(cfg.Params(), chase.WithRNG(core.NewRNG(seed)))
	if err != nil {
		return nil, 0, err
	}
	return sim, seed, nil
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	req := runRequest{ChaseConfig: s.config.Defaults}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	// An empty body runs the defaults
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("cannot parse request: %w", err))
		return
	}

	sim, seed, err := newSimulation(req.ChaseConfig, req.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var rec chase.Recorder
	var runRec *storage.RunRecorder
	if s.config.Store != nil {
		runRec, err = storage.NewRunRecorder(s.config.Store, seed, sim.Params())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		rec = runRec
	}

	summaries, err := sim.Run(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := runResponse{
		Seed:      seed,
		Rounds:    make([]storage.RoundRecord, len(summaries)),
		Survivors: sim.Alive(),
	}
	if runRec != nil {
		resp.RunID = runRec.RunID()
	}
	for i, sum := range summaries {
		resp.Rounds[i] = storage.NewRoundRecord(sum)
	}

	s.logger.Info("run finished", "seed", seed, "rounds", len(summaries), "survivors", resp.Survivors)
	writeJSON(w, http.StatusOK, resp)
}

func newRunInfoResponse(run storage.RunInfo) runInfoResponse {
	return runInfoResponse{
		ID:   run.ID,
		Seed: run.Seed,
		Params: paramsJSON{
			MaxRounds:     run.Params.MaxRounds,
			FlockSize:     run.Params.FlockSize,
			InitPosLimit:  run.Params.InitPosLimit,
			SheepMoveDist: run.Params.SheepMoveDist,
			WolfMoveDist:  run.Params.WolfMoveDist,
		},
		Rounds:    run.Rounds,
		Survivors: run.Survivors,
		Finished:  run.Finished,
		CreatedAt: run.CreatedAt,
	}
}

var errNoHistory = errors.New("run history is not enabled")

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.config.Store == nil {
		writeError(w, http.StatusNotFound, errNoHistory)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer, got %q", v))
			return
		}
		limit = min(n, maxHistory)
	}

	runs, err := s.config.Store.RecentRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]runInfoResponse, len(runs))
	for i, run := range runs {
		resp[i] = newRunInfoResponse(run)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.config.Store == nil {
		writeError(w, http.StatusNotFound, errNoHistory)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	run, err := s.config.Store.RunByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("run %d not found", id))
		return
	}

	counts, err := s.config.Store.RoundCounts(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := newRunInfoResponse(*run)
	for _, c := range counts {
		resp.Alive = append(resp.Alive, roundAlive{Round: c.Round, Alive: c.Alive})
	}
	writeJSON(w, http.StatusOK, resp)
}
