// Package model defines the core domain types shared across the dashboard
// engine. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteSource marks how a quote was obtained. Synthetic quotes are generated
// locally when the upstream provider fails; consumers can assert on provenance
// instead of guessing from value ranges.
type QuoteSource string

const (
	SourceLive      QuoteSource = "live"
	SourceSynthetic QuoteSource = "synthetic"
)

// Quote is a normalized point-in-time price snapshot for one symbol.
// Quotes are ephemeral: never persisted, recomputed on every poll.
type Quote struct {
	Symbol        string          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Open          decimal.Decimal `json:"open"`
	PreviousClose decimal.Decimal `json:"previousClose"`
	Volume        int64           `json:"volume,omitempty"`
	Source        QuoteSource     `json:"source"`
	FetchedAt     time.Time       `json:"fetchedAt"`
}

// Trend is the display direction derived from a quote's change.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// TrendOf maps a change amount to a trend. Neutral is reserved for slots
// without a meaningful delta and is assigned explicitly by the aggregator.
func TrendOf(change decimal.Decimal) Trend {
	if change.IsNegative() {
		return TrendDown
	}
	return TrendUp
}

// MarketIndexRecord is a display-ready row for one fixed index slot.
// Value is pre-formatted for display ("512.33", "4.2B", "ACTIVE").
type MarketIndexRecord struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Value         string          `json:"value"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Trend         Trend           `json:"trend"`
	Source        QuoteSource     `json:"source"`
}

// SectorPerformanceRecord is a display-ready row for one sector ETF slot.
type SectorPerformanceRecord struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Value         string          `json:"value"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Trend         Trend           `json:"trend"`
	Source        QuoteSource     `json:"source"`
}

// WatchlistEntry is one persisted watchlist row. The pair (UserID, Symbol)
// is unique; entries are created on add, deleted on remove, never mutated.
type WatchlistEntry struct {
	ID      string    `json:"id" db:"id"`
	UserID  string    `json:"userId" db:"user_id"`
	Symbol  string    `json:"symbol" db:"symbol"` // normalized uppercase, 1-10 chars
	Company string    `json:"company" db:"company"`
	AddedAt time.Time `json:"addedAt" db:"added_at"`
}

// NewsArticle is one market news item. Articles are served from a rotating
// mock set when no upstream news feed is configured.
type NewsArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
	Sentiment   string    `json:"sentiment,omitempty"` // positive, negative, neutral
	Category    string    `json:"category"`
}

// NewsResponse is the payload returned by the news endpoint.
type NewsResponse struct {
	Articles   []NewsArticle `json:"articles"`
	Total      int           `json:"total"`
	LastUpdate time.Time     `json:"lastUpdate"`
}

// --- Validation-gated configuration objects ---
//
// Plain configuration shapes checked by the validation gate before any
// persistence. Closed-set fields enumerate their permitted values via oneof;
// numeric fields carry bounded ranges.

// NotificationPreferences selects which channels and alert classes a user
// wants notifications on.
type NotificationPreferences struct {
	Email        bool `json:"email"`
	SMS          bool `json:"sms"`
	Push         bool `json:"push"`
	PriceAlerts  bool `json:"priceAlerts"`
	NewsAlerts   bool `json:"newsAlerts"`
	VolumeAlerts bool `json:"volumeAlerts"`
}

// TradingPreferences is the user's risk and style configuration.
type TradingPreferences struct {
	RiskTolerance           string                  `json:"riskTolerance" validate:"required,oneof=conservative moderate aggressive"`
	InvestmentGoals         []string                `json:"investmentGoals" validate:"min=1,dive,required"`
	PreferredSectors        []string                `json:"preferredSectors" validate:"min=1,dive,required"`
	TradingStyle            string                  `json:"tradingStyle" validate:"required,oneof=day_trading swing_trading position_trading scalping"`
	PositionSizing          string                  `json:"positionSizing" validate:"required,oneof=small medium large"`
	StopLossPercentage      float64                 `json:"stopLossPercentage" validate:"min=0,max=50"`
	TakeProfitPercentage    float64                 `json:"takeProfitPercentage" validate:"min=0,max=1000"`
	MaxDailyLoss            float64                 `json:"maxDailyLoss" validate:"min=0,max=100"`
	MaxDailyTrades          int                     `json:"maxDailyTrades" validate:"min=1,max=100"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
}

// ProfileForm is the editable user profile.
type ProfileForm struct {
	Name              string `json:"name" validate:"required,min=2,max=50"`
	Email             string `json:"email" validate:"required,email"`
	Location          string `json:"location" validate:"required,min=2,max=100"`
	TradingExperience string `json:"tradingExperience" validate:"required,oneof=beginner intermediate advanced expert"`
	Bio               string `json:"bio" validate:"max=500"`
	ProfileImage      string `json:"profileImage" validate:"omitempty,url"`
}

// PriceAlert is a user-defined price trigger.
type PriceAlert struct {
	ID          string    `json:"id,omitempty"`
	Symbol      string    `json:"symbol" validate:"required,min=1,max=10"`
	TargetPrice float64   `json:"targetPrice" validate:"required,gt=0"`
	AlertType   string    `json:"alertType" validate:"required,oneof=price_above price_below volume_spike news_alert"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// AccountSettings covers the account-level toggles on the profile page.
type AccountSettings struct {
	TwoFactorEnabled   bool   `json:"twoFactorEnabled"`
	EmailNotifications bool   `json:"emailNotifications"`
	SMSNotifications   bool   `json:"smsNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
	DataRetention      string `json:"dataRetention" validate:"required,oneof=30_days 90_days 1_year forever"`
	PrivacyLevel       string `json:"privacyLevel" validate:"required,oneof=public private friends_only"`
	ShareData          bool   `json:"shareData"`
	MarketingEmails    bool   `json:"marketingEmails"`
}

// StockMonitoringConfig caps how aggressively a user's dashboard polls and
// alerts on watched stocks.
type StockMonitoringConfig struct {
	MaxStocks           int     `json:"maxStocks" validate:"min=1,max=50"`
	RefreshIntervalSecs int     `json:"refreshIntervalSecs" validate:"min=5,max=300"`
	PriceChangeAlert    float64 `json:"priceChangeAlert" validate:"min=0,max=100"`
	VolumeSpikeAlert    float64 `json:"volumeSpikeAlert" validate:"min=0,max=1000"`
	EnableAlerts        bool    `json:"enableAlerts"`
}

// NotificationRequest is a single outbound notification dispatch.
type NotificationRequest struct {
	Type     string            `json:"type" validate:"required,oneof=email sms push"`
	To       string            `json:"to" validate:"required"`
	Subject  string            `json:"subject" validate:"required"`
	Message  string            `json:"message" validate:"required"`
	Priority string            `json:"priority" validate:"omitempty,oneof=low medium high"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FileUploadMeta is the metadata checked before accepting a profile upload.
// The upload pipeline itself is an external collaborator.
type FileUploadMeta struct {
	Filename string `json:"filename" validate:"required"`
	MimeType string `json:"mimeType" validate:"required,oneof=image/jpeg image/png image/gif image/webp"`
	Size     int64  `json:"size" validate:"required,gt=0,max=5242880"`
}
