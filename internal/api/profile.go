package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockpulse/dashboard-engine/internal/model"
	"github.com/stockpulse/dashboard-engine/internal/validate"
)

// defaultTradingPreferences is served before a user saves their own.
func defaultTradingPreferences() *model.TradingPreferences {
	return &model.TradingPreferences{
		RiskTolerance:        "moderate",
		InvestmentGoals:      []string{"growth"},
		PreferredSectors:     []string{"technology"},
		TradingStyle:         "swing_trading",
		PositionSizing:       "medium",
		StopLossPercentage:   5,
		TakeProfitPercentage: 15,
		MaxDailyLoss:         2,
		MaxDailyTrades:       10,
		NotificationPreferences: model.NotificationPreferences{
			Email:       true,
			Push:        true,
			PriceAlerts: true,
			NewsAlerts:  true,
		},
	}
}

func defaultAccountSettings() *model.AccountSettings {
	return &model.AccountSettings{
		EmailNotifications: true,
		PushNotifications:  true,
		DataRetention:      "1_year",
		PrivacyLevel:       "private",
	}
}

// GetProfile handles GET /api/v1/profile.
func (s *Service) GetProfile(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.RLock()
	profile, found := s.profiles[email]
	s.mu.RUnlock()
	if !found {
		writeError(w, "profile not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/profile.
func (s *Service) UpdateProfile(w http.ResponseWriter, r *http.Request) {
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

	value, verrs := s.gate.Validate(validate.SchemaProfile, body)
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}
	profile := value.(*model.ProfileForm)

	s.mu.Lock()
	s.profiles[email] = profile
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, profile)
}

// GetTradingPreferences handles GET /api/v1/profile/preferences.
func (s *Service) GetTradingPreferences(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.RLock()
	prefs, found := s.prefs[email]
	s.mu.RUnlock()
	if !found {
		prefs = defaultTradingPreferences()
	}
	writeJSON(w, http.StatusOK, prefs)
}

// UpdateTradingPreferences handles PUT /api/v1/profile/preferences.
func (s *Service) UpdateTradingPreferences(w http.ResponseWriter, r *http.Request) {
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

	value, verrs := s.gate.Validate(validate.SchemaTradingPreferences, body)
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}
	prefs := value.(*model.TradingPreferences)

	s.mu.Lock()
	s.prefs[email] = prefs
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, prefs)
}

// GetAccountSettings handles GET /api/v1/profile/settings.
func (s *Service) GetAccountSettings(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.RLock()
	settings, found := s.settings[email]
	s.mu.RUnlock()
	if !found {
		settings = defaultAccountSettings()
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateAccountSettings handles PUT /api/v1/profile/settings.
func (s *Service) UpdateAccountSettings(w http.ResponseWriter, r *http.Request) {
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

	value, verrs := s.gate.Validate(validate.SchemaAccountSettings, body)
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}
	settings := value.(*model.AccountSettings)

	s.mu.Lock()
	s.settings[email] = settings
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, settings)
}

func defaultMonitoringConfig() *model.StockMonitoringConfig {
	return &model.StockMonitoringConfig{
		MaxStocks:           20,
		RefreshIntervalSecs: 15,
		PriceChangeAlert:    5,
		VolumeSpikeAlert:    200,
		EnableAlerts:        true,
	}
}

// GetMonitoringConfig handles GET /api/v1/profile/monitoring.
func (s *Service) GetMonitoringConfig(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.RLock()
	cfg, found := s.monitoring[email]
	s.mu.RUnlock()
	if !found {
		cfg = defaultMonitoringConfig()
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateMonitoringConfig handles PUT /api/v1/profile/monitoring.
func (s *Service) UpdateMonitoringConfig(w http.ResponseWriter, r *http.Request) {
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

	value, verrs := s.gate.Validate(validate.SchemaStockMonitoring, body)
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}
	cfg := value.(*model.StockMonitoringConfig)

	s.mu.Lock()
	s.monitoring[email] = cfg
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, cfg)
}

// ListAlerts handles GET /api/v1/profile/alerts.
func (s *Service) ListAlerts(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.RLock()
	alerts := make([]model.PriceAlert, len(s.alerts[email]))
	copy(alerts, s.alerts[email])
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// CreateAlert handles POST /api/v1/profile/alerts.
func (s *Service) CreateAlert(w http.ResponseWriter, r *http.Request) {
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

	value, verrs := s.gate.Validate(validate.SchemaAlert, body)
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}
	alert := value.(*model.PriceAlert)
	alert.ID = uuid.New().String()
	alert.CreatedAt = time.Now().UTC()
	alert.IsActive = true

	s.mu.Lock()
	s.alerts[email] = append(s.alerts[email], *alert)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, alert)
}

// DeleteAlert handles DELETE /api/v1/profile/alerts/{alertID}.
func (s *Service) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(r)
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	alertID := chi.URLParam(r, "alertID")

	s.mu.Lock()
	alerts := s.alerts[email]
	idx := -1
	for i, a := range alerts {
		if a.ID == alertID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.alerts[email] = append(alerts[:idx], alerts[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		writeError(w, "alert not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SendNotification handles POST /api/v1/notifications. The dispatch itself
// is mocked: the request is validated, logged, and acknowledged.
func (s *Service) SendNotification(w http.ResponseWriter, r *http.Request) {
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

	value, verrs := s.gate.Validate(validate.SchemaNotification, body)
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}
	req := value.(*model.NotificationRequest)

	slog.Info("notification queued",
		"requested_by", email,
		"type", req.Type,
		"to", req.To,
		"subject", req.Subject,
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "queued",
		"id":     uuid.New().String(),
	})
}

// CheckUpload handles POST /api/v1/profile/upload. Validates upload metadata
// before the client streams the file to storage.
func (s *Service) CheckUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionEmail(r); !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	value, verrs := s.gate.Validate(validate.SchemaFileUpload, body)
	if verrs != nil {
		writeValidationErrors(w, verrs)
		return
	}
	meta := value.(*model.FileUploadMeta)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "accepted",
		"filename": meta.Filename,
	})
}
