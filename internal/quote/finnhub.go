package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

// FinnhubClient fetches quotes from a Finnhub-compatible REST endpoint
// (GET {base}/quote?symbol=X&token=K).
type FinnhubClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewFinnhubClient creates a client with a tuned transport. The timeout
// bounds each individual quote fetch.
func NewFinnhubClient(baseURL, apiKey string, timeout time.Duration) *FinnhubClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &FinnhubClient{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (c *FinnhubClient) Name() string { return "finnhub" }

// finnhubQuote is the upstream wire shape: current, delta, delta percent,
// high, low, open, previous close.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

// GetQuote fetches and normalizes one quote. The symbol is uppercased
// defensively before the request.
func (c *FinnhubClient) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("quote request for %s: %w", symbol, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch quote for %s: upstream status %d", symbol, resp.StatusCode)
	}

	var fq finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&fq); err != nil {
		return nil, fmt.Errorf("decode quote for %s: %w", symbol, err)
	}

	// Finnhub signals an unknown symbol with an all-zero body.
	if fq.Current == 0 && fq.PreviousClose == 0 && fq.Open == 0 {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, ErrUnknownSymbol)
	}

	return &model.Quote{
		Symbol:        symbol,
		CurrentPrice:  decimal.NewFromFloat(fq.Current),
		Change:        decimal.NewFromFloat(fq.Change),
		ChangePercent: decimal.NewFromFloat(fq.ChangePercent),
		High:          decimal.NewFromFloat(fq.High),
		Low:           decimal.NewFromFloat(fq.Low),
		Open:          decimal.NewFromFloat(fq.Open),
		PreviousClose: decimal.NewFromFloat(fq.PreviousClose),
		Source:        model.SourceLive,
		FetchedAt:     time.Now().UTC(),
	}, nil
}
