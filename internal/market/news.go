package market

import (
	"math/rand"
	"time"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

// NewsService serves market news. With no upstream feed configured it rotates
// a fixed mock set, shuffled per call so the feed looks alive between polls.
type NewsService struct {
	now func() time.Time
}

// NewNewsService creates a news service backed by the mock article set.
func NewNewsService() *NewsService {
	return &NewsService{now: func() time.Time { return time.Now().UTC() }}
}

func (s *NewsService) mockArticles() []model.NewsArticle {
	now := s.now()
	return []model.NewsArticle{
		{
			ID:          "1",
			Title:       "Stock Market Shows Strong Performance in Q4",
			Summary:     "Major indices continue to rally as investors show confidence in economic recovery.",
			URL:         "#",
			PublishedAt: now,
			Source:      "Financial Times",
			Sentiment:   "positive",
			Category:    "Market",
		},
		{
			ID:          "2",
			Title:       "Technology Sector Leads Market Gains",
			Summary:     "Tech stocks surge as AI and cloud computing drive investor interest.",
			URL:         "#",
			PublishedAt: now.Add(-1 * time.Hour),
			Source:      "Reuters",
			Sentiment:   "positive",
			Category:    "Technology",
		},
		{
			ID:          "3",
			Title:       "Federal Reserve Maintains Interest Rates",
			Summary:     "Central bank keeps rates steady amid inflation concerns and economic uncertainty.",
			URL:         "#",
			PublishedAt: now.Add(-2 * time.Hour),
			Source:      "Bloomberg",
			Sentiment:   "neutral",
			Category:    "Economy",
		},
		{
			ID:          "4",
			Title:       "Energy Sector Faces Volatility",
			Summary:     "Oil prices fluctuate as supply concerns and demand patterns shift.",
			URL:         "#",
			PublishedAt: now.Add(-3 * time.Hour),
			Source:      "MarketWatch",
			Sentiment:   "negative",
			Category:    "Energy",
		},
		{
			ID:          "5",
			Title:       "Cryptocurrency Market Shows Mixed Signals",
			Summary:     "Bitcoin and altcoins experience varying trends as regulatory clarity emerges.",
			URL:         "#",
			PublishedAt: now.Add(-4 * time.Hour),
			Source:      "CoinDesk",
			Sentiment:   "neutral",
			Category:    "Crypto",
		},
	}
}

// Latest returns up to limit articles, shuffled. It never fails; the mock set
// doubles as the degraded path when no feed is available.
func (s *NewsService) Latest(limit int) model.NewsResponse {
	articles := s.mockArticles()
	total := len(articles)

	rand.Shuffle(len(articles), func(i, j int) {
		articles[i], articles[j] = articles[j], articles[i]
	})
	if limit <= 0 || limit > len(articles) {
		limit = len(articles)
	}

	return model.NewsResponse{
		Articles:   articles[:limit],
		Total:      total,
		LastUpdate: s.now(),
	}
}
