// Package fakeapi serves a deterministic stand-in for the race results API.
// It answers the two listing endpoints the pipeline calls and can drop
// connections on a schedule to exercise client retries.
package fakeapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzhttp"

	"github.com/okian/finishline/pkg/logger"
)

const (
	pathSearch    = "/api/v2/events/search"
	pathFinishers = "/api/v2/runners/finishers-filter"

	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type searchBody struct {
	Year int `json:"year"`
}

type finishersBody struct {
	EventCode        string `json:"eventCode"`
	OverallPlaceFrom *int   `json:"overallPlaceFrom"`
	OverallPlaceTo   *int   `json:"overallPlaceTo"`
	PageSize         int    `json:"pageSize"`
}

type listing[T any] struct {
	Items      []T `json:"items"`
	TotalItems int `json:"totalItems"`
}

// Handler answers the results API endpoints from generated data.
type Handler struct {
	cfg   *Config
	gen   *generator
	log   logger.Logger
	calls atomic.Int64

	searches  atomic.Int64
	finishers atomic.Int64
	dropped   atomic.Int64
}

// NewHandler builds a handler for cfg.
func NewHandler(cfg *Config) *Handler {
	return &Handler{cfg: cfg, gen: newGenerator(cfg), log: logger.Named("fakeapi")}
}

// Stats reports the requests served so far.
func (h *Handler) Stats() Stats {
	return Stats{
		Searches:      h.searches.Load(),
		FinisherCalls: h.finishers.Load(),
		Dropped:       h.dropped.Load(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if n := h.calls.Add(1); h.cfg.DropEvery > 0 && n%int64(h.cfg.DropEvery) == 0 {
		h.drop(w, r)
		return
	}

	switch r.URL.Path {
	case pathSearch:
		h.searches.Add(1)
		var body searchBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		events := h.gen.events[body.Year]
		if events == nil {
			events = []event{}
		}
		h.reply(w, listing[event]{Items: events, TotalItems: len(events)})

	case pathFinishers:
		h.finishers.Add(1)
		var body finishersBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.EventCode == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		from, to := 1, max(body.PageSize, 1)
		if body.OverallPlaceFrom != nil && body.OverallPlaceTo != nil {
			from, to = *body.OverallPlaceFrom, *body.OverallPlaceTo
		}
		items := h.gen.finishers(body.EventCode, from, to)
		total := 0
		if _, ok := h.gen.known[body.EventCode]; ok {
			total = h.cfg.FinishersPerEvent
		}
		h.reply(w, listing[finisher]{Items: items, TotalItems: total})

	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn(context.Background(), "write response", logger.Error(err))
	}
}

// drop closes the connection without a response.
func (h *Handler) drop(w http.ResponseWriter, r *http.Request) {
	h.dropped.Add(1)
	h.log.Debug(r.Context(), "dropping connection", logger.String("path", r.URL.Path))
	hj, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}

// Run serves cfg.Addr until ctx is done.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Named("fakeapi")
	h := NewHandler(cfg)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           gzhttp.GzipHandler(h),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info(ctx, "fake results API listening",
		logger.String("addr", ln.Addr().String()),
		logger.Int("year_from", cfg.YearFrom),
		logger.Int("year_to", cfg.YearTo),
		logger.Int("events_per_year", cfg.EventsPerYear),
		logger.Int("finishers_per_event", cfg.FinishersPerEvent))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s := h.Stats()
	log.Info(ctx, "fake results API stopped",
		logger.Int64("searches", s.Searches),
		logger.Int64("finisher_calls", s.FinisherCalls),
		logger.Int64("dropped", s.Dropped))
	return nil
}
