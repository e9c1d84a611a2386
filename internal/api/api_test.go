package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/stockpulse/dashboard-engine/internal/api"
	"github.com/stockpulse/dashboard-engine/internal/market"
	"github.com/stockpulse/dashboard-engine/internal/model"
	"github.com/stockpulse/dashboard-engine/internal/quote"
	"github.com/stockpulse/dashboard-engine/internal/session"
	"github.com/stockpulse/dashboard-engine/internal/validate"
	"github.com/stockpulse/dashboard-engine/internal/watchlist"
)

// stubProvider returns a fixed live quote for every symbol.
type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }
func (stubProvider) GetQuote(_ context.Context, symbol string) (*model.Quote, error) {
	price := decimal.NewFromInt(500)
	change := decimal.NewFromInt(2)
	return &model.Quote{
		Symbol:        symbol,
		CurrentPrice:  price,
		Change:        change,
		ChangePercent: change.Div(price).Mul(decimal.NewFromInt(100)),
		Source:        model.SourceLive,
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// downProvider always errors, forcing the synthetic paths.
type downProvider struct{}

func (downProvider) Name() string { return "down" }
func (downProvider) GetQuote(context.Context, string) (*model.Quote, error) {
	return nil, errors.New("upstream down")
}

// newTestEnv builds a Service over in-memory stores and a chi router with
// the same route layout as main.
func newTestEnv(t *testing.T, p quote.Provider) (*api.Service, watchlist.Store, chi.Router) {
	t.Helper()

	dir := watchlist.NewMemoryDirectory()
	dir.Register("alice@example.com", "user-alice")
	dir.Register("bob@example.com", "user-bob")
	st := watchlist.NewMemoryStore(dir)

	sessions := session.NewMemoryManager(time.Hour)
	agg := market.NewAggregator(p, nil)
	news := market.NewNewsService()
	quotes := quote.NewFallback(p, time.Second, nil)

	svc := api.NewService(st, dir, agg, news, quotes, validate.New(), sessions)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", svc.Login)
	r.Post("/api/v1/auth/logout", svc.Logout)
	r.Get("/api/v1/market/indices", svc.MarketIndices)
	r.Get("/api/v1/market/sectors", svc.SectorPerformance)
	r.Get("/api/v1/market/news", svc.MarketNews)
	r.Get("/api/v1/quote/{symbol}", svc.GetQuote)
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(sessions))
		r.Get("/api/v1/watchlist", svc.ListWatchlist)
		r.Post("/api/v1/watchlist", svc.AddToWatchlist)
		r.Delete("/api/v1/watchlist", svc.RemoveFromWatchlist)
		r.Get("/api/v1/watchlist/symbols", svc.WatchlistSymbols)
		r.Get("/api/v1/profile/preferences", svc.GetTradingPreferences)
		r.Put("/api/v1/profile/preferences", svc.UpdateTradingPreferences)
		r.Get("/api/v1/profile/monitoring", svc.GetMonitoringConfig)
		r.Put("/api/v1/profile/monitoring", svc.UpdateMonitoringConfig)
		r.Get("/api/v1/profile/alerts", svc.ListAlerts)
		r.Post("/api/v1/profile/alerts", svc.CreateAlert)
		r.Delete("/api/v1/profile/alerts/{alertID}", svc.DeleteAlert)
	})

	return svc, st, r
}

// login obtains a session token for the given email.
func login(t *testing.T, r chi.Router, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "pw"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp api.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login response: %v", err)
	}
	return resp.Token
}

func doJSON(t *testing.T, r chi.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWatchlistRequiresSession(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})

	rec := doJSON(t, r, http.MethodGet, "/api/v1/watchlist", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] == "" {
		t.Error("401 body should carry an error message")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})

	body, _ := json.Marshal(map[string]string{"email": "nobody@example.com"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWatchlistAddListRemove(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})
	token := login(t, r, "alice@example.com")

	// Add.
	rec := doJSON(t, r, http.MethodPost, "/api/v1/watchlist", token,
		map[string]string{"symbol": "aapl", "company": "Apple Inc."})
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
	var entry model.WatchlistEntry
	json.Unmarshal(rec.Body.Bytes(), &entry)
	if entry.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", entry.Symbol)
	}

	// Duplicate add conflicts, even in different case.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/watchlist", token,
		map[string]string{"symbol": "AAPL", "company": "Apple Inc."})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}

	// List.
	rec = doJSON(t, r, http.MethodGet, "/api/v1/watchlist", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Items []model.WatchlistEntry `json:"items"`
		Count int                    `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &list)
	if list.Count != 1 || len(list.Items) != 1 {
		t.Fatalf("list = %+v, want one entry", list)
	}

	// Remove.
	rec = doJSON(t, r, http.MethodDelete, "/api/v1/watchlist", token,
		map[string]string{"symbol": "AAPL"})
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Removing again is a 404.
	rec = doJSON(t, r, http.MethodDelete, "/api/v1/watchlist", token,
		map[string]string{"symbol": "AAPL"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second remove status = %d, want 404", rec.Code)
	}
}

// nilListStore wraps a Store and returns a nil slice for empty lists, the
// way a row-scanning store can.
type nilListStore struct {
	watchlist.Store
}

func (s nilListStore) List(ctx context.Context, email string) ([]model.WatchlistEntry, error) {
	entries, err := s.Store.List(ctx, email)
	if len(entries) == 0 {
		return nil, err
	}
	return entries, err
}

func TestEmptyWatchlistRendersAsArray(t *testing.T) {
	dir := watchlist.NewMemoryDirectory()
	dir.Register("alice@example.com", "user-alice")
	st := nilListStore{Store: watchlist.NewMemoryStore(dir)}

	sessions := session.NewMemoryManager(time.Hour)
	svc := api.NewService(st, dir, market.NewAggregator(stubProvider{}, nil),
		market.NewNewsService(), quote.NewFallback(stubProvider{}, time.Second, nil),
		validate.New(), sessions)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", svc.Login)
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(sessions))
		r.Get("/api/v1/watchlist", svc.ListWatchlist)
	})

	token := login(t, r, "alice@example.com")
	rec := doJSON(t, r, http.MethodGet, "/api/v1/watchlist", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body["items"]) == "null" {
		t.Fatalf(`items = null, want []; body = %s`, rec.Body.String())
	}
}

func TestWatchlistValidationStopsBeforeStore(t *testing.T) {
	_, st, r := newTestEnv(t, stubProvider{})
	token := login(t, r, "alice@example.com")

	// Missing company fails validation.
	rec := doJSON(t, r, http.MethodPost, "/api/v1/watchlist", token,
		map[string]string{"symbol": "AAPL"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Error   string `json:"error"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Details) == 0 {
		t.Fatal("400 body should carry field details")
	}

	// Nothing persisted.
	entries, err := st.List(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("store has %d entries after rejected add, want 0", len(entries))
	}
}

func TestWatchlistIsolationBetweenUsers(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})
	alice := login(t, r, "alice@example.com")
	bob := login(t, r, "bob@example.com")

	doJSON(t, r, http.MethodPost, "/api/v1/watchlist", alice,
		map[string]string{"symbol": "AAPL", "company": "Apple"})

	rec := doJSON(t, r, http.MethodGet, "/api/v1/watchlist", bob, nil)
	var list struct {
		Count int `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &list)
	if list.Count != 0 {
		t.Errorf("bob sees %d entries, want 0", list.Count)
	}
}

func TestMarketIndicesAlwaysFullGrid(t *testing.T) {
	_, _, r := newTestEnv(t, downProvider{})

	rec := doJSON(t, r, http.MethodGet, "/api/v1/market/indices", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even with upstream down", rec.Code)
	}
	var body struct {
		Indices []model.MarketIndexRecord `json:"indices"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Indices) != len(market.MarketIndices) {
		t.Fatalf("got %d indices, want %d", len(body.Indices), len(market.MarketIndices))
	}
	for i, rec := range body.Indices {
		if rec.Source != model.SourceSynthetic {
			t.Errorf("indices[%d].Source = %s, want synthetic", i, rec.Source)
		}
	}
}

func TestMarketNewsLimit(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})

	rec := doJSON(t, r, http.MethodGet, "/api/v1/market/news?limit=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body model.NewsResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Articles) != 2 {
		t.Errorf("got %d articles, want 2", len(body.Articles))
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/market/news?limit=-1", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}
}

func TestQuoteEndpointNeverFails(t *testing.T) {
	_, _, r := newTestEnv(t, downProvider{})

	rec := doJSON(t, r, http.MethodGet, "/api/v1/quote/tsla", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var q model.Quote
	json.Unmarshal(rec.Body.Bytes(), &q)
	if q.Symbol != "TSLA" {
		t.Errorf("symbol = %q, want TSLA", q.Symbol)
	}
	if q.Source != model.SourceSynthetic {
		t.Errorf("source = %s, want synthetic", q.Source)
	}
}

func TestTradingPreferencesRoundTrip(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})
	token := login(t, r, "alice@example.com")

	// Defaults served before any save.
	rec := doJSON(t, r, http.MethodGet, "/api/v1/profile/preferences", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	prefs := model.TradingPreferences{
		RiskTolerance:        "aggressive",
		InvestmentGoals:      []string{"income"},
		PreferredSectors:     []string{"energy"},
		TradingStyle:         "day_trading",
		PositionSizing:       "large",
		StopLossPercentage:   10,
		TakeProfitPercentage: 30,
		MaxDailyLoss:         5,
		MaxDailyTrades:       20,
	}
	rec = doJSON(t, r, http.MethodPut, "/api/v1/profile/preferences", token, prefs)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/profile/preferences", token, nil)
	var got model.TradingPreferences
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.RiskTolerance != "aggressive" || got.MaxDailyTrades != 20 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestTradingPreferencesRejected(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})
	token := login(t, r, "alice@example.com")

	prefs := map[string]any{
		"riskTolerance":        "moderate",
		"investmentGoals":      []string{"growth"},
		"preferredSectors":     []string{"technology"},
		"tradingStyle":         "swing_trading",
		"positionSizing":       "medium",
		"stopLossPercentage":   75, // above the 50 cap
		"takeProfitPercentage": 15,
		"maxDailyLoss":         2,
		"maxDailyTrades":       10,
	}
	rec := doJSON(t, r, http.MethodPut, "/api/v1/profile/preferences", token, prefs)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMonitoringConfigRoundTrip(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})
	token := login(t, r, "alice@example.com")

	// Defaults before any save.
	rec := doJSON(t, r, http.MethodGet, "/api/v1/profile/monitoring", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	cfg := model.StockMonitoringConfig{
		MaxStocks:           30,
		RefreshIntervalSecs: 60,
		PriceChangeAlert:    10,
		VolumeSpikeAlert:    300,
		EnableAlerts:        true,
	}
	rec = doJSON(t, r, http.MethodPut, "/api/v1/profile/monitoring", token, cfg)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/profile/monitoring", token, nil)
	var got model.StockMonitoringConfig
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.MaxStocks != 30 || got.RefreshIntervalSecs != 60 {
		t.Errorf("round trip = %+v", got)
	}

	// Out-of-range interval is rejected.
	cfg.RefreshIntervalSecs = 1
	rec = doJSON(t, r, http.MethodPut, "/api/v1/profile/monitoring", token, cfg)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAlertLifecycle(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})
	token := login(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodPost, "/api/v1/profile/alerts", token,
		map[string]any{"symbol": "AAPL", "targetPrice": 250.0, "alertType": "price_above"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var alert model.PriceAlert
	json.Unmarshal(rec.Body.Bytes(), &alert)
	if alert.ID == "" || !alert.IsActive {
		t.Errorf("alert = %+v", alert)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/profile/alerts/"+alert.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/profile/alerts/"+alert.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	_, _, r := newTestEnv(t, stubProvider{})
	token := login(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/watchlist", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d, want 401", rec.Code)
	}
}
