package api

import (
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/stockpulse/dashboard-engine/internal/metrics"
	"github.com/stockpulse/dashboard-engine/internal/model"
	"github.com/stockpulse/dashboard-engine/internal/validate"
	"github.com/stockpulse/dashboard-engine/internal/watchlist"
)

// ListWatchlist handles GET /api/v1/watchlist. Entries come back
// newest-first.
func (s *Service) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := s.store.List(r.Context(), email)
	if err != nil {
		if errors.Is(err, watchlist.ErrUserNotFound) {
			writeError(w, "user not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to load watchlist", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.WatchlistEntry{}
	}

	metrics.WatchlistOps.WithLabelValues("list", "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
		"count": len(entries),
	})
}

// AddToWatchlist handles POST /api/v1/watchlist.
func (s *Service) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	value, verrs := s.gate.Validate(validate.SchemaWatchlistAdd, body)
	if verrs != nil {
		metrics.WatchlistOps.WithLabelValues("add", "invalid").Inc()
		writeValidationErrors(w, verrs)
		return
	}
	req := value.(*validate.WatchlistAddRequest)

	entry, err := s.store.Add(r.Context(), email, req.Symbol, req.Company)
	if err != nil {
		switch {
		case errors.Is(err, watchlist.ErrAlreadyExists):
			metrics.WatchlistOps.WithLabelValues("add", "duplicate").Inc()
			writeError(w, "symbol already in watchlist", http.StatusConflict)
		case errors.Is(err, watchlist.ErrUserNotFound):
			writeError(w, "user not found", http.StatusNotFound)
		default:
			writeError(w, "failed to add to watchlist", http.StatusInternalServerError)
		}
		return
	}

	metrics.WatchlistOps.WithLabelValues("add", "ok").Inc()
	writeJSON(w, http.StatusOK, entry)
}

// RemoveFromWatchlist handles DELETE /api/v1/watchlist. The symbol to remove
// comes in the JSON body, matching the add shape.
func (s *Service) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	value, verrs := s.gate.Validate(validate.SchemaWatchlistRemove, body)
	if verrs != nil {
		metrics.WatchlistOps.WithLabelValues("remove", "invalid").Inc()
		writeValidationErrors(w, verrs)
		return
	}
	req := value.(*validate.WatchlistRemoveRequest)

	if err := s.store.Remove(r.Context(), email, req.Symbol); err != nil {
		switch {
		case errors.Is(err, watchlist.ErrNotFound):
			metrics.WatchlistOps.WithLabelValues("remove", "missing").Inc()
			writeError(w, "symbol not in watchlist", http.StatusNotFound)
		case errors.Is(err, watchlist.ErrUserNotFound):
			writeError(w, "user not found", http.StatusNotFound)
		default:
			writeError(w, "failed to remove from watchlist", http.StatusInternalServerError)
		}
		return
	}

	metrics.WatchlistOps.WithLabelValues("remove", "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "removed",
		"symbol": watchlist.NormalizeSymbol(req.Symbol),
	})
}

// WatchlistSymbols handles GET /api/v1/watchlist/symbols. Returns the watched
// symbols as a flat list for cheap client-side membership checks.
func (s *Service) WatchlistSymbols(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	set, err := s.store.Symbols(r.Context(), email)
	if err != nil {
		if errors.Is(err, watchlist.ErrUserNotFound) {
			writeError(w, "user not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to load symbols", http.StatusInternalServerError)
		return
	}

	symbols := make([]string, 0, len(set))
	for sym := range set {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	writeJSON(w, http.StatusOK, map[string]any{"symbols": symbols})
}
