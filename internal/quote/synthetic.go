package quote

import (
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Synthetic generates a plausible random-walk quote for a symbol. Values are
// internally consistent: change = currentPrice - previousClose and
// changePercent = change / currentPrice * 100. The quote is flagged with
// SourceSynthetic so downstream consumers can tell it apart from live data.
func Synthetic(symbol string) *model.Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	price := decimal.NewFromFloat(rand.Float64()*1000 + 100)
	change := decimal.NewFromFloat((rand.Float64() - 0.5) * 20)
	changePercent := change.Div(price).Mul(hundred)

	prevClose := price.Sub(change)
	open := prevClose

	high := decimal.Max(price, open).Add(decimal.NewFromFloat(rand.Float64() * 5))
	low := decimal.Min(price, open).Sub(decimal.NewFromFloat(rand.Float64() * 5))

	return &model.Quote{
		Symbol:        symbol,
		CurrentPrice:  price,
		Change:        change,
		ChangePercent: changePercent,
		High:          high,
		Low:           low,
		Open:          open,
		PreviousClose: prevClose,
		Volume:        rand.Int63n(5_000_000) + 100_000,
		Source:        model.SourceSynthetic,
		FetchedAt:     time.Now().UTC(),
	}
}
