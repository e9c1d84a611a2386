// Package api provides the HTTP handlers for the dashboard engine: watchlist
// management, market aggregates, quote lookup, profile configuration, and
// session auth.
//
// Every mutating endpoint decodes through the validation gate before touching
// any store; a request that fails validation never reaches persistence.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/stockpulse/dashboard-engine/internal/market"
	"github.com/stockpulse/dashboard-engine/internal/model"
	"github.com/stockpulse/dashboard-engine/internal/quote"
	"github.com/stockpulse/dashboard-engine/internal/session"
	"github.com/stockpulse/dashboard-engine/internal/validate"
	"github.com/stockpulse/dashboard-engine/internal/watchlist"
)

// Snapshot returns the most recent refresh snapshot of T, if one exists.
// Wired to a refresh controller in production; tests substitute closures.
type Snapshot[T any] func() (T, bool)

// Service handles dashboard API operations.
type Service struct {
	store     watchlist.Store
	directory watchlist.UserDirectory
	agg       *market.Aggregator
	news      *market.NewsService
	quotes    quote.Provider
	gate      *validate.Gate
	sessions  session.Manager

	// Snapshot readers backed by the refresh controllers. When a snapshot
	// is not yet available the handler computes the data inline.
	indicesSnap Snapshot[[]model.MarketIndexRecord]
	sectorsSnap Snapshot[[]model.SectorPerformanceRecord]
	newsSnap    Snapshot[model.NewsResponse]

	// Profile state is mocked in memory, keyed by session email. The
	// upstream profile document store is an external collaborator.
	mu         sync.RWMutex
	profiles   map[string]*model.ProfileForm
	prefs      map[string]*model.TradingPreferences
	settings   map[string]*model.AccountSettings
	monitoring map[string]*model.StockMonitoringConfig
	alerts     map[string][]model.PriceAlert
}

// NewService creates the dashboard API service.
func NewService(st watchlist.Store, dir watchlist.UserDirectory, agg *market.Aggregator, news *market.NewsService, quotes quote.Provider, gate *validate.Gate, sessions session.Manager) *Service {
	return &Service{
		store:      st,
		directory:  dir,
		agg:        agg,
		news:       news,
		quotes:     quotes,
		gate:       gate,
		sessions:   sessions,
		profiles:   make(map[string]*model.ProfileForm),
		prefs:      make(map[string]*model.TradingPreferences),
		settings:   make(map[string]*model.AccountSettings),
		monitoring: make(map[string]*model.StockMonitoringConfig),
		alerts:     make(map[string][]model.PriceAlert),
	}
}

// SetSnapshots wires the refresh controllers' snapshot readers.
func (s *Service) SetSnapshots(indices Snapshot[[]model.MarketIndexRecord], sectors Snapshot[[]model.SectorPerformanceRecord], news Snapshot[model.NewsResponse]) {
	s.indicesSnap = indices
	s.sectorsSnap = sectors
	s.newsSnap = news
}

// --- Auth handlers ---

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Login handles POST /api/v1/auth/login. Credentials are checked only for
// shape; the real identity provider lives upstream. The email must resolve
// to a known user.
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		writeError(w, "email is required", http.StatusBadRequest)
		return
	}

	userID, err := s.directory.LookupUserID(r.Context(), req.Email)
	if err != nil {
		writeError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	sess, err := s.sessions.Create(r.Context(), userID, req.Email)
	if err != nil {
		writeError(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	slog.Info("login", "email", req.Email)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:  sess.Token,
		UserID: sess.UserID,
		Email:  sess.Email,
	})
}

// Logout handles POST /api/v1/auth/logout.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	token := session.TokenFromRequest(r)
	if token != "" {
		if err := s.sessions.Delete(r.Context(), token); err != nil {
			slog.Warn("logout: delete session", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// sessionEmail extracts the authenticated email from the request context.
func sessionEmail(r *http.Request) (string, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return "", false
	}
	return sess.Email, true
}

// --- Response helpers ---

// validationErrorBody is the 400 payload for gate failures.
type validationErrorBody struct {
	Error   string               `json:"error"`
	Details []validate.FieldError `json:"details"`
}

func writeValidationErrors(w http.ResponseWriter, errs []validate.FieldError) {
	writeJSON(w, http.StatusBadRequest, validationErrorBody{
		Error:   "validation failed",
		Details: errs,
	})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
