package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Auyante/refineryiq-system/alerts"
	"github.com/Auyante/refineryiq-system/analytics"
	"github.com/Auyante/refineryiq-system/models"
	"github.com/Auyante/refineryiq-system/telemetry"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	readingsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_readings_ingested_total",
			Help: "Readings accepted over the HTTP ingest endpoint",
		},
	)
)

// AlertAcknowledger propagates acknowledgments to the audit store.
type AlertAcknowledger interface {
	MarkAcknowledged(ctx context.Context, alert models.Alert) error
}

// AnalyticsHandler serves the read-only snapshot API. Every GET returns
// the last fully published snapshot; nothing here ever triggers a scoring
// cycle.
type AnalyticsHandler struct {
	engine *analytics.Engine
	store  *telemetry.Store
	alerts *alerts.Manager
	audit  AlertAcknowledger
	lg     *slog.Logger
}

func NewAnalyticsHandler(engine *analytics.Engine, store *telemetry.Store, alertMgr *alerts.Manager, audit AlertAcknowledger, lg *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		engine: engine,
		store:  store,
		alerts: alertMgr,
		audit:  audit,
		lg:     lg.With("component", "api"),
	}
}

func (h *AnalyticsHandler) observe(r *http.Request, start time.Time, status int) {
	requestDurationSeconds.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(status)).Inc()
}

// HandleIngest accepts one raw reading. 202: the reading is queued into
// the window store, it shows up in scores after the next cycle.
func (h *AnalyticsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var reading models.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		h.observe(r, start, http.StatusBadRequest)
		return
	}

	if err := reading.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		h.observe(r, start, http.StatusBadRequest)
		return
	}

	h.store.Ingest(reading)
	readingsIngestedTotal.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "accepted",
		"unit_id": reading.UnitID,
		"tag_id":  reading.TagID,
	})
	h.observe(r, start, http.StatusAccepted)
}

func (h *AnalyticsHandler) snapshotOr503(w http.ResponseWriter, r *http.Request, start time.Time) *models.Snapshot {
	snap := h.engine.Snapshot()
	if snap == nil {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		h.observe(r, start, http.StatusServiceUnavailable)
		return nil
	}
	return snap
}

// HandleAdvancedStats serves the OEE / stability / financial composite.
func (h *AnalyticsHandler) HandleAdvancedStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.snapshotOr503(w, r, start)
	if snap == nil {
		return
	}

	payload := map[string]interface{}{
		"oee": map[string]interface{}{
			"score":        snap.OEE.Composite,
			"quality":      snap.OEE.Quality,
			"availability": snap.OEE.Availability,
			"performance":  snap.OEE.Performance,
			"degraded":     snap.OEE.Degraded,
		},
		"stability": map[string]interface{}{
			"index": snap.Stability.Index,
			"trend": snap.Stability.Trend,
		},
		"financial": map[string]interface{}{
			"daily_loss_usd":           snap.Financial.DailyLossUSD,
			"throughput_loss_usd":      snap.Financial.ThroughputLossUSD,
			"energy_waste_usd":         snap.Financial.EnergyWasteUSD,
			"potential_annual_savings": snap.Financial.PotentialAnnualSavings,
		},
		"generated_at": snap.GeneratedAt,
	}

	writeJSON(w, payload)
	h.observe(r, start, http.StatusOK)
}

// HandleEnergyAnalysis serves the per-unit energy records, worst first.
func (h *AnalyticsHandler) HandleEnergyAnalysis(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.snapshotOr503(w, r, start)
	if snap == nil {
		return
	}

	writeJSON(w, snap.Energy)
	h.observe(r, start, http.StatusOK)
}

// HandleMaintenancePredictions serves the per-equipment failure
// predictions, highest risk first.
func (h *AnalyticsHandler) HandleMaintenancePredictions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.snapshotOr503(w, r, start)
	if snap == nil {
		return
	}

	writeJSON(w, snap.Predictions)
	h.observe(r, start, http.StatusOK)
}

// HandleDashboardHistory serves the per-cycle chart series.
func (h *AnalyticsHandler) HandleDashboardHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.snapshotOr503(w, r, start)
	if snap == nil {
		return
	}

	writeJSON(w, snap.History)
	h.observe(r, start, http.StatusOK)
}

// HandleAlerts lists alerts, newest first. ?limit=N caps the result.
func (h *AnalyticsHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			h.observe(r, start, http.StatusBadRequest)
			return
		}
		limit = n
	}

	writeJSON(w, h.alerts.List(limit))
	h.observe(r, start, http.StatusOK)
}

// HandleAcknowledgeAlert moves an alert to its terminal state.
func (h *AnalyticsHandler) HandleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := mux.Vars(r)["id"]

	var body struct {
		AcknowledgedBy string `json:"acknowledged_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AcknowledgedBy == "" {
		http.Error(w, "acknowledged_by is required", http.StatusBadRequest)
		h.observe(r, start, http.StatusBadRequest)
		return
	}

	alert, err := h.alerts.Acknowledge(id, body.AcknowledgedBy)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, alerts.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, alerts.ErrAlreadyAcknowledged):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		h.observe(r, start, status)
		return
	}

	if h.audit != nil {
		if err := h.audit.MarkAcknowledged(r.Context(), alert); err != nil {
			h.lg.Error("failed to propagate acknowledgment to audit store", "alert", alert.ID, "error", err)
		}
	}

	writeJSON(w, alert)
	h.observe(r, start, http.StatusOK)
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
