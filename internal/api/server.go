package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Iki-leo/emoji-mood-tracker/internal/domain"
	"github.com/Iki-leo/emoji-mood-tracker/internal/stats"
	"github.com/Iki-leo/emoji-mood-tracker/internal/store"
)

// Server handles HTTP requests for the mood journal API
type Server struct {
	store *store.Store
	memo  *stats.Memo
	log   *zap.Logger
	addr  string
	now   func() time.Time

	unwatch func()
}

// Option configures a Server
type Option func(*Server)

// WithClock sets the source of "today"
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// New creates a new API server
func New(st *store.Store, addr string, opts ...Option) *Server {
	s := &Server{
		store: st,
		memo:  &stats.Memo{},
		log:   zap.NewNop(),
		addr:  addr,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unwatch = s.memo.Watch(st, s.now)
	return s
}

// Close detaches the server from the store
func (s *Server) Close() {
	s.unwatch()
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Records
	mux.HandleFunc("GET /records", s.listRecords)
	mux.HandleFunc("GET /records/{date}", s.getRecord)
	mux.HandleFunc("PUT /records/{date}", s.upsertRecord)
	mux.HandleFunc("POST /records/{date}/note", s.saveNote)
	mux.HandleFunc("DELETE /records/{date}", s.deleteRecord)

	// Demo data
	mux.HandleFunc("POST /demo", s.loadDemo)

	// Derived views
	mux.HandleFunc("GET /stats", s.getStats)
	mux.HandleFunc("GET /catalog", s.catalog)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return s.withRequestLog(withCORS(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting server", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

// withRequestLog tags every request with an id and logs its outcome
func (s *Server) withRequestLog(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h.ServeHTTP(rec, r)

		s.log.Debug("Request served",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"moods": domain.Catalog,
		"demo":  domain.DemoEmojis,
	})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	snap := s.store.All()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": snap.Records,
		"version": snap.Version,
	})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := domain.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, ok := s.store.Get(date)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// MutationResponse is returned by every write. Warning is set when the
// change was applied but could not be saved.
type MutationResponse struct {
	Record  *domain.Record `json:"record,omitempty"`
	Deleted string         `json:"deleted,omitempty"`
	Count   int            `json:"count,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

func (s *Server) upsertRecord(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch.Date = r.PathValue("date")

	s.writeMutation(w, r, patch.Date, s.store.Upsert(r.Context(), patch))
}

// NoteRequest is the request body of the note form
type NoteRequest struct {
	Note   string   `json:"nota"`
	Rating int      `json:"rating"`
	Tags   []string `json:"tags,omitempty"`
}

func (s *Server) saveNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	form := domain.NoteForm{Date: r.PathValue("date"), Note: req.Note, Rating: req.Rating, Tags: req.Tags}
	if err := form.Validate(); err != nil {
		s.writeMutation(w, r, form.Date, err)
		return
	}
	s.writeMutation(w, r, form.Date, s.store.Upsert(r.Context(), form.Patch()))
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := domain.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := MutationResponse{Deleted: date}
	if err := s.store.Delete(r.Context(), date); err != nil {
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) loadDemo(w http.ResponseWriter, r *http.Request) {
	seed := uint64(time.Now().UnixNano())
	if v := r.URL.Query().Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "seed must be a non-negative integer")
			return
		}
		seed = n
	}

	resp := MutationResponse{Count: store.DemoDays}
	if err := s.store.LoadDemo(r.Context(), s.now(), store.NewDemoRand(seed)); err != nil {
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatsResponse wraps the summary; Stats is nil when the journal is empty
type StatsResponse struct {
	Available bool           `json:"available"`
	Stats     *stats.Summary `json:"stats,omitempty"`
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.memo.Get(s.store.All(), s.now())
	writeJSON(w, http.StatusOK, StatsResponse{Available: ok, Stats: summary})
}

// writeMutation maps the result of a store write to a response
func (s *Server) writeMutation(w http.ResponseWriter, r *http.Request, date string, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
		return
	}

	var resp MutationResponse
	var perr *store.PersistError
	switch {
	case errors.As(err, &perr):
		resp.Warning = perr.Error()
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if rec, ok := s.store.Get(date); ok {
		resp.Record = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
