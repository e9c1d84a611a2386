package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stockpulse/dashboard-engine/internal/api"
	"github.com/stockpulse/dashboard-engine/internal/config"
	"github.com/stockpulse/dashboard-engine/internal/market"
	"github.com/stockpulse/dashboard-engine/internal/metrics"
	"github.com/stockpulse/dashboard-engine/internal/model"
	"github.com/stockpulse/dashboard-engine/internal/quote"
	"github.com/stockpulse/dashboard-engine/internal/refresh"
	"github.com/stockpulse/dashboard-engine/internal/session"
	"github.com/stockpulse/dashboard-engine/internal/stream"
	"github.com/stockpulse/dashboard-engine/internal/validate"
	"github.com/stockpulse/dashboard-engine/internal/watchlist"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	// --- Persistence ---
	var (
		st      watchlist.Store
		dir     watchlist.UserDirectory
		rdb     *redis.Client
		cleanup []func()
	)

	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		pgDir := watchlist.NewPostgresDirectory(pool)
		pgStore := watchlist.NewPostgresStore(pool, pgDir)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			slog.Error("schema migration failed", "err", err)
			os.Exit(1)
		}
		dir = pgDir
		st = pgStore
		slog.Info("connected to PostgreSQL")
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		memDir := watchlist.NewMemoryDirectory()
		memDir.Register("demo@stockpulse.io", "demo-user")
		dir = memDir
		st = watchlist.NewMemoryStore(memDir)
	}

	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		st = watchlist.NewCachedStore(st, rdb, cfg.Redis.CacheTTL)
		slog.Info("Redis cache enabled")
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Sessions ---
	var sessions session.Manager
	if rdb != nil {
		sessions = session.NewRedisManager(rdb, cfg.Session.TTL)
	} else {
		sessions = session.NewMemoryManager(cfg.Session.TTL)
	}

	// --- Quote provider chain ---
	// The aggregator consumes the rate-limited client directly and does its
	// own per-slot synthetic fallback; the single-quote endpoint gets the
	// never-failing wrapper.
	finnhub := quote.NewFinnhubClient(cfg.Quotes.BaseURL, cfg.Quotes.APIKey, cfg.Quotes.Timeout)
	limited := quote.NewRateLimited(finnhub, cfg.Quotes.RatePerSec, cfg.Quotes.RateBurst)
	quotes := quote.NewFallback(limited, cfg.Quotes.Timeout, logger)

	agg := market.NewAggregator(limited, logger)
	news := market.NewNewsService()

	// --- WebSocket hub ---
	hub := stream.NewHub()
	go hub.Run()

	// --- Refresh controllers ---
	indicesCtl := refresh.New("indices", cfg.Refresh.GridInterval,
		func(ctx context.Context) ([]model.MarketIndexRecord, error) {
			return agg.Indices(ctx), nil
		},
		func(records []model.MarketIndexRecord) {
			hub.Broadcast("indices_update", records)
		},
		logger,
	)
	sectorsCtl := refresh.New("sectors", cfg.Refresh.GridInterval,
		func(ctx context.Context) ([]model.SectorPerformanceRecord, error) {
			return agg.SectorPerformance(ctx), nil
		},
		func(records []model.SectorPerformanceRecord) {
			hub.Broadcast("sectors_update", records)
		},
		logger,
	)
	quotesCtl := refresh.New("quotes", cfg.Refresh.QuoteInterval,
		func(ctx context.Context) ([]*model.Quote, error) {
			symbols := market.TrackedSymbols()
			out := make([]*model.Quote, 0, len(symbols))
			for _, sym := range symbols {
				q, err := quotes.GetQuote(ctx, sym)
				if err != nil {
					continue
				}
				out = append(out, q)
			}
			return out, nil
		},
		func(qs []*model.Quote) {
			hub.Broadcast("quote_update", qs)
		},
		logger,
	)
	newsCtl := refresh.New("news", cfg.Refresh.NewsInterval,
		func(_ context.Context) (model.NewsResponse, error) {
			return news.Latest(10), nil
		},
		func(resp model.NewsResponse) {
			hub.Broadcast("news_update", resp)
		},
		logger,
	)

	refreshCtx, stopRefresh := context.WithCancel(ctx)
	indicesCtl.Start(refreshCtx)
	sectorsCtl.Start(refreshCtx)
	quotesCtl.Start(refreshCtx)
	newsCtl.Start(refreshCtx)

	// --- API service ---
	svc := api.NewService(st, dir, agg, news, quotes, validate.New(), sessions)
	svc.SetSnapshots(indicesCtl.Snapshot, sectorsCtl.Snapshot, newsCtl.Snapshot)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for the dashboard frontend.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-Token")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"dashboard-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time snapshot pushes.
		r.Get("/ws", hub.HandleWS)

		// Auth.
		r.Post("/auth/login", svc.Login)
		r.Post("/auth/logout", svc.Logout)

		// Market data (public).
		r.Get("/market/indices", svc.MarketIndices)
		r.Get("/market/sectors", svc.SectorPerformance)
		r.Get("/market/news", svc.MarketNews)
		r.Get("/quote/{symbol}", svc.GetQuote)

		// Session-protected surface.
		r.Group(func(r chi.Router) {
			r.Use(session.Middleware(sessions))

			r.Get("/watchlist", svc.ListWatchlist)
			r.Post("/watchlist", svc.AddToWatchlist)
			r.Delete("/watchlist", svc.RemoveFromWatchlist)
			r.Get("/watchlist/symbols", svc.WatchlistSymbols)

			r.Get("/profile", svc.GetProfile)
			r.Put("/profile", svc.UpdateProfile)
			r.Get("/profile/preferences", svc.GetTradingPreferences)
			r.Put("/profile/preferences", svc.UpdateTradingPreferences)
			r.Get("/profile/settings", svc.GetAccountSettings)
			r.Put("/profile/settings", svc.UpdateAccountSettings)
			r.Get("/profile/monitoring", svc.GetMonitoringConfig)
			r.Put("/profile/monitoring", svc.UpdateMonitoringConfig)
			r.Get("/profile/alerts", svc.ListAlerts)
			r.Post("/profile/alerts", svc.CreateAlert)
			r.Delete("/profile/alerts/{alertID}", svc.DeleteAlert)
			r.Post("/profile/upload", svc.CheckUpload)

			r.Post("/notifications", svc.SendNotification)
		})
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("dashboard-engine listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down dashboard-engine...")

	stopRefresh()
	indicesCtl.Stop()
	sectorsCtl.Stop()
	quotesCtl.Stop()
	newsCtl.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("dashboard-engine stopped")
}
