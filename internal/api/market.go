package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockpulse/dashboard-engine/internal/watchlist"
)

// MarketIndices handles GET /api/v1/market/indices. Serves the last refresh
// snapshot when one exists; otherwise computes the six slots inline. Always
// returns the full slot list in fixed order.
func (s *Service) MarketIndices(w http.ResponseWriter, r *http.Request) {
	if s.indicesSnap != nil {
		if records, ok := s.indicesSnap(); ok {
			writeJSON(w, http.StatusOK, map[string]any{"indices": records})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"indices": s.agg.Indices(r.Context())})
}

// SectorPerformance handles GET /api/v1/market/sectors.
func (s *Service) SectorPerformance(w http.ResponseWriter, r *http.Request) {
	if s.sectorsSnap != nil {
		if records, ok := s.sectorsSnap(); ok {
			writeJSON(w, http.StatusOK, map[string]any{"sectors": records})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sectors": s.agg.SectorPerformance(r.Context())})
}

// MarketNews handles GET /api/v1/market/news?limit=N.
func (s *Service) MarketNews(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	if s.newsSnap != nil {
		if resp, ok := s.newsSnap(); ok {
			if limit < len(resp.Articles) {
				resp.Articles = resp.Articles[:limit]
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.news.Latest(limit))
}

// GetQuote handles GET /api/v1/quote/{symbol}. The provider chain never
// fails: upstream errors degrade to a synthetic quote flagged by its source.
func (s *Service) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := watchlist.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		writeError(w, "failed to fetch quote", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
