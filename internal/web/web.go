// Package web serves the waste schedule over HTTP: JSON state, a calendar range
// query, an iCalendar feed, manual refresh and Prometheus metrics.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pfrederiksen/him-waste/internal/calendar"
	"github.com/pfrederiksen/him-waste/internal/config"
	"github.com/pfrederiksen/him-waste/internal/coordinator"
	"github.com/pfrederiksen/him-waste/internal/crypto"
	"github.com/pfrederiksen/him-waste/internal/logger"
	"github.com/pfrederiksen/him-waste/internal/waste"
)

const (
	defaultRangeDays = 35
	shutdownTimeout  = 5 * time.Second
)

// StateSource is the state holder the server reads from
type StateSource interface {
	PropertyID() string
	Status() coordinator.Status
	Refresh(ctx context.Context) (*waste.Schedule, error)
}

// Server provides the HTTP API.
type Server struct {
	cfg       *config.Config
	src       StateSource
	sourceURL string
	mux       *http.ServeMux
	now       func() time.Time
}

// NewServer constructs a new Server. sourceURL is linked from calendar events.
func NewServer(cfg *config.Config, src StateSource, sourceURL string) *Server {
	s := &Server{
		cfg:       cfg,
		src:       src,
		sourceURL: sourceURL,
		mux:       http.NewServeMux(),
		now:       time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		logger.Info("HTTP basic auth enabled", logger.Fields{"listen": "http://" + s.cfg.Listen})
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", logger.Fields{"listen": "http://" + s.cfg.Listen})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
// The configured password may be plaintext or an Argon2id hash.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !crypto.Matches(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="him-waste", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.Handle("GET /metrics", logger.MetricsHandler())
}

func (s *Server) today() time.Time {
	return waste.Day(s.now().In(s.cfg.Location()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type scheduleResponse struct {
	PropertyID  string            `json:"property_id"`
	Values      map[string]string `json:"values"`
	Next        string            `json:"next"`
	LastRefresh string            `json:"last_refresh,omitempty"`
	LastAttempt string            `json:"last_attempt,omitempty"`
	Stale       bool              `json:"stale"`
	LastError   string            `json:"last_error,omitempty"`
	NextEvent   *nextEvent        `json:"next_event"`
}

// nextEvent is the earliest known collection day, past days included
type nextEvent struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Icon        string   `json:"icon"`
	Categories  []string `json:"categories"`
}

func (s *Server) scheduleResponse(st coordinator.Status) scheduleResponse {
	resp := scheduleResponse{
		PropertyID: s.src.PropertyID(),
		Values:     st.Schedule.Values(),
		Next:       waste.Unknown,
		Stale:      st.Stale,
		LastError:  st.LastError,
	}
	if next, ok := st.Schedule.Next(s.today()); ok {
		resp.Next = waste.FormatDate(next)
	}
	if st.Schedule != nil && !st.Schedule.LastRefresh.IsZero() {
		resp.LastRefresh = st.Schedule.LastRefresh.UTC().Format(time.RFC3339)
	}
	if !st.LastAttempt.IsZero() {
		resp.LastAttempt = st.LastAttempt.UTC().Format(time.RFC3339)
	}
	if evt, ok := calendar.NextEvent(st.Schedule); ok {
		resp.NextEvent = &nextEvent{
			Summary:     evt.Summary,
			Description: evt.Description,
			Start:       waste.FormatDate(evt.Start),
			End:         waste.FormatDate(evt.End),
			Icon:        evt.Icon,
			Categories:  evt.CategoryNames(),
		}
	}
	return resp
}

func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduleResponse(s.src.Status()))
}

type eventsResponse struct {
	Start  string           `json:"start"`
	End    string           `json:"end"`
	Events []calendar.Event `json:"events"`
}

// handleEvents returns collection events in [start, end). Both default to a
// window starting today.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	start := s.today()
	end := start.AddDate(0, 0, defaultRangeDays)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := waste.ParseISODate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
			return
		}
		start = t
		if r.URL.Query().Get("end") == "" {
			end = start.AddDate(0, 0, defaultRangeDays)
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := waste.ParseISODate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
			return
		}
		end = t
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end is before start")
		return
	}

	events := calendar.Events(s.src.Status().Schedule, start, end)
	if events == nil {
		events = []calendar.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Start:  waste.FormatDate(start),
		End:    waste.FormatDate(end),
		Events: events,
	})
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	st := s.src.Status()
	ics := calendar.GenerateICS(st.Schedule, calendar.Options{
		AlarmHours: s.cfg.AlarmHours,
		SourceURL:  s.sourceURL,
		Now:        s.now,
	})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="him-%s.ics"`, s.src.PropertyID()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if _, err := s.src.Refresh(r.Context()); err != nil {
		logger.Warn("Manual refresh failed", logger.Fields{"error": err.Error()})
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.scheduleResponse(s.src.Status()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write JSON response", nil, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
