// Package validate is the schema-checked input boundary in front of every
// mutating operation. Each schema has a name and a typed shape; validation
// failures come back as one structured error per violated field, never a
// single opaque message.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/stockpulse/dashboard-engine/internal/metrics"
	"github.com/stockpulse/dashboard-engine/internal/model"
)

// Schema names accepted by the gate.
const (
	SchemaProfile            = "profile"
	SchemaTradingPreferences = "trading_preferences"
	SchemaAccountSettings    = "account_settings"
	SchemaAlert              = "alert"
	SchemaNotification       = "notification"
	SchemaFileUpload         = "file_upload"
	SchemaStockMonitoring    = "stock_monitoring"
	SchemaWatchlistAdd       = "watchlist_add"
	SchemaWatchlistRemove    = "watchlist_remove"
)

// FieldError is one violated field with a human-readable message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// WatchlistAddRequest is the body of POST /api/v1/watchlist.
type WatchlistAddRequest struct {
	Symbol  string `json:"symbol" validate:"required,min=1,max=10"`
	Company string `json:"company" validate:"required"`
}

// WatchlistRemoveRequest is the body of DELETE /api/v1/watchlist.
type WatchlistRemoveRequest struct {
	Symbol string `json:"symbol" validate:"required,min=1,max=10"`
}

// Gate validates raw JSON against a named schema.
type Gate struct {
	v       *validator.Validate
	schemas map[string]func() any
}

// New creates a gate with all schemas registered.
func New() *Gate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report validation errors against JSON field names, not Go names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Gate{
		v: v,
		schemas: map[string]func() any{
			SchemaProfile:            func() any { return &model.ProfileForm{} },
			SchemaTradingPreferences: func() any { return &model.TradingPreferences{} },
			SchemaAccountSettings:    func() any { return &model.AccountSettings{} },
			SchemaAlert:              func() any { return &model.PriceAlert{} },
			SchemaNotification:       func() any { return &model.NotificationRequest{} },
			SchemaFileUpload:         func() any { return &model.FileUploadMeta{} },
			SchemaStockMonitoring:    func() any { return &model.StockMonitoringConfig{} },
			SchemaWatchlistAdd:       func() any { return &WatchlistAddRequest{} },
			SchemaWatchlistRemove:    func() any { return &WatchlistRemoveRequest{} },
		},
	}
}

// Validate decodes raw JSON into the named schema's shape and checks it.
// On success it returns the decoded value and no errors; on failure it
// returns one FieldError per violated field.
func (g *Gate) Validate(schema string, raw []byte) (any, []FieldError) {
	mk, ok := g.schemas[schema]
	if !ok {
		return nil, []FieldError{{Field: "general", Message: "unknown schema " + schema}}
	}

	value := mk()
	if err := json.Unmarshal(raw, value); err != nil {
		metrics.ValidationFailures.WithLabelValues(schema).Inc()
		return nil, []FieldError{{Field: "general", Message: "invalid JSON body"}}
	}

	if err := g.v.Struct(value); err != nil {
		metrics.ValidationFailures.WithLabelValues(schema).Inc()
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			out := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				out = append(out, FieldError{
					Field:   fieldPath(fe.Namespace()),
					Message: messageFor(fe),
				})
			}
			return nil, out
		}
		return nil, []FieldError{{Field: "general", Message: "validation failed"}}
	}
	return value, nil
}

// fieldPath strips the root struct name from a namespace like
// "TradingPreferences.notificationPreferences.email".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// messageFor renders a readable message for the common tags.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
