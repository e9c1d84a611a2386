package validate_test

import (
	"testing"

	"github.com/stockpulse/dashboard-engine/internal/model"
	"github.com/stockpulse/dashboard-engine/internal/validate"
)

func hasField(errs []validate.FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

const validPreferences = `{
	"riskTolerance": "moderate",
	"investmentGoals": ["growth"],
	"preferredSectors": ["technology"],
	"tradingStyle": "swing_trading",
	"positionSizing": "medium",
	"stopLossPercentage": 5,
	"takeProfitPercentage": 15,
	"maxDailyLoss": 2,
	"maxDailyTrades": 10,
	"notificationPreferences": {"email": true}
}`

func TestTradingPreferencesValid(t *testing.T) {
	g := validate.New()

	value, errs := g.Validate(validate.SchemaTradingPreferences, []byte(validPreferences))
	if errs != nil {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	prefs, ok := value.(*model.TradingPreferences)
	if !ok {
		t.Fatalf("value type = %T, want *model.TradingPreferences", value)
	}
	if prefs.RiskTolerance != "moderate" {
		t.Errorf("riskTolerance = %q", prefs.RiskTolerance)
	}
}

func TestTradingPreferencesOutOfRange(t *testing.T) {
	g := validate.New()

	body := `{
		"riskTolerance": "moderate",
		"investmentGoals": ["growth"],
		"preferredSectors": ["technology"],
		"tradingStyle": "swing_trading",
		"positionSizing": "medium",
		"stopLossPercentage": 75,
		"takeProfitPercentage": 15,
		"maxDailyLoss": 2,
		"maxDailyTrades": 10,
		"notificationPreferences": {}
	}`

	_, errs := g.Validate(validate.SchemaTradingPreferences, []byte(body))
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if !hasField(errs, "stopLossPercentage") {
		t.Errorf("errors = %+v, want one naming stopLossPercentage", errs)
	}
}

func TestTradingPreferencesBadEnum(t *testing.T) {
	g := validate.New()

	body := `{
		"riskTolerance": "yolo",
		"investmentGoals": ["growth"],
		"preferredSectors": ["technology"],
		"tradingStyle": "swing_trading",
		"positionSizing": "medium",
		"stopLossPercentage": 5,
		"takeProfitPercentage": 15,
		"maxDailyLoss": 2,
		"maxDailyTrades": 10,
		"notificationPreferences": {}
	}`

	_, errs := g.Validate(validate.SchemaTradingPreferences, []byte(body))
	if !hasField(errs, "riskTolerance") {
		t.Errorf("errors = %+v, want one naming riskTolerance", errs)
	}
}

func TestProfileEmailChecked(t *testing.T) {
	g := validate.New()

	body := `{
		"name": "Jane Doe",
		"email": "not-an-email",
		"location": "New York",
		"tradingExperience": "intermediate"
	}`

	_, errs := g.Validate(validate.SchemaProfile, []byte(body))
	if !hasField(errs, "email") {
		t.Errorf("errors = %+v, want one naming email", errs)
	}
}

func TestAlertRequiresPositiveTarget(t *testing.T) {
	g := validate.New()

	body := `{"symbol": "AAPL", "targetPrice": -5, "alertType": "price_above"}`
	_, errs := g.Validate(validate.SchemaAlert, []byte(body))
	if !hasField(errs, "targetPrice") {
		t.Errorf("errors = %+v, want one naming targetPrice", errs)
	}

	body = `{"symbol": "AAPL", "targetPrice": 250, "alertType": "price_above"}`
	if _, errs := g.Validate(validate.SchemaAlert, []byte(body)); errs != nil {
		t.Errorf("valid alert rejected: %+v", errs)
	}
}

func TestWatchlistAddRequiresCompany(t *testing.T) {
	g := validate.New()

	_, errs := g.Validate(validate.SchemaWatchlistAdd, []byte(`{"symbol": "AAPL"}`))
	if !hasField(errs, "company") {
		t.Errorf("errors = %+v, want one naming company", errs)
	}
}

func TestStockMonitoringBounds(t *testing.T) {
	g := validate.New()

	// Refresh interval below the 5s floor.
	body := `{"maxStocks": 20, "refreshIntervalSecs": 1, "priceChangeAlert": 5, "volumeSpikeAlert": 200}`
	_, errs := g.Validate(validate.SchemaStockMonitoring, []byte(body))
	if !hasField(errs, "refreshIntervalSecs") {
		t.Errorf("errors = %+v, want one naming refreshIntervalSecs", errs)
	}

	body = `{"maxStocks": 20, "refreshIntervalSecs": 15, "priceChangeAlert": 5, "volumeSpikeAlert": 200, "enableAlerts": true}`
	if _, errs := g.Validate(validate.SchemaStockMonitoring, []byte(body)); errs != nil {
		t.Errorf("valid config rejected: %+v", errs)
	}
}

func TestUnknownSchemaRejected(t *testing.T) {
	g := validate.New()

	_, errs := g.Validate("no_such_schema", []byte(`{}`))
	if errs == nil {
		t.Fatal("expected an error for an unknown schema")
	}
}

func TestMalformedJSONRejected(t *testing.T) {
	g := validate.New()

	_, errs := g.Validate(validate.SchemaProfile, []byte(`{"name":`))
	if errs == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestNotificationRequest(t *testing.T) {
	g := validate.New()

	_, errs := g.Validate(validate.SchemaNotification, []byte(`{"type": "carrier_pigeon", "to": "x", "subject": "s", "message": "m"}`))
	if !hasField(errs, "type") {
		t.Errorf("errors = %+v, want one naming type", errs)
	}

	body := `{"type": "email", "to": "a@b.com", "subject": "hi", "message": "hello", "priority": "high"}`
	if _, errs := g.Validate(validate.SchemaNotification, []byte(body)); errs != nil {
		t.Errorf("valid notification rejected: %+v", errs)
	}
}

func TestFileUploadMeta(t *testing.T) {
	g := validate.New()

	// Oversized file.
	_, errs := g.Validate(validate.SchemaFileUpload, []byte(`{"filename": "a.png", "mimeType": "image/png", "size": 99999999}`))
	if !hasField(errs, "size") {
		t.Errorf("errors = %+v, want one naming size", errs)
	}

	// Wrong mime type.
	_, errs = g.Validate(validate.SchemaFileUpload, []byte(`{"filename": "a.exe", "mimeType": "application/octet-stream", "size": 100}`))
	if !hasField(errs, "mimeType") {
		t.Errorf("errors = %+v, want one naming mimeType", errs)
	}
}
