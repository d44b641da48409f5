package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Auyante/refineryiq-system/alerts"
	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/models"
	"github.com/Auyante/refineryiq-system/telemetry"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scoring_cycles_total",
		Help: "Total number of completed scoring cycles",
	})

	cyclesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scoring_cycles_skipped_total",
		Help: "Scoring ticks skipped because the previous cycle was still running",
	})

	cycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scoring_cycle_duration_seconds",
		Help:    "Duration of scoring cycles",
		Buckets: prometheus.DefBuckets,
	})

	anomaliesDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anomalies_detected_total",
		Help: "Total number of anomalies detected",
	}, []string{"equipment_id"})

	publishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_failures_total",
		Help: "Sink publish failures",
	}, []string{"sink"})

	openAlertsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "open_alerts",
		Help: "Currently unacknowledged alerts",
	})
)

// Sink receives completed results. Sink failures never fail a cycle:
// snapshots are superseded next cycle, alerts are buffered and retried.
type Sink interface {
	Name() string
	PublishSnapshot(ctx context.Context, snap *models.Snapshot) error
	PublishAlert(ctx context.Context, alert models.Alert) error
}

type pendingAlert struct {
	sink  Sink
	alert models.Alert
}

// scorerBox gives atomic.Value a single concrete type to store, so scorers
// of different underlying types can be swapped in.
type scorerBox struct{ s Scorer }

const maxPendingAlerts = 256

// Engine runs the periodic scoring cycle: aggregate windows into feature
// vectors, score every unit and equipment, assemble an immutable snapshot,
// swap it in atomically and publish to the sinks. Only one cycle runs at a
// time; an overdue tick is skipped, never queued.
type Engine struct {
	cfg        *config.Config
	lg         *slog.Logger
	agg        *Aggregator
	energy     *EnergyScorer
	detector   Detector
	attributor Attributor
	alerts     *alerts.Manager
	sinks      []Sink

	scorer atomic.Value // Scorer, swappable at runtime

	snapshot atomic.Pointer[models.Snapshot]
	inFlight atomic.Bool

	// State below is touched only by the cycle goroutine.
	cycle            int64
	history          []models.HistoryPoint
	prevStability    float64
	hasPrevStability bool
	lastPredictions  map[string]models.FailurePrediction
	pending          []pendingAlert
}

func NewEngine(cfg *config.Config, lg *slog.Logger, store *telemetry.Store, alertMgr *alerts.Manager, sinks ...Sink) *Engine {
	e := &Engine{
		cfg:             cfg,
		lg:              lg.With("component", "engine"),
		agg:             NewAggregator(store, time.Duration(cfg.Analytics.WindowMinutes)*time.Minute, cfg.Analytics.MinSamples),
		energy:          NewEnergyScorer(cfg.Analytics.SavingsHorizonHours),
		detector:        NewBaselineDetector(cfg.Profiles, cfg.Analytics.AnomalySigma),
		attributor:      NewDeviationAttributor(cfg.Profiles),
		alerts:          alertMgr,
		sinks:           sinks,
		lastPredictions: make(map[string]models.FailurePrediction),
	}
	e.scorer.Store(scorerBox{NewProfileScorer(cfg.Profiles)})
	return e
}

// SwapScorer atomically replaces the active scoring function. In-flight
// cycles finish with the scorer they started with.
func (e *Engine) SwapScorer(s Scorer) {
	e.scorer.Store(scorerBox{s})
}

// Scorer returns the active scoring function.
func (e *Engine) Scorer() Scorer {
	return e.scorer.Load().(scorerBox).s
}

// Snapshot returns the last fully published snapshot, or nil before the
// first cycle completes.
func (e *Engine) Snapshot() *models.Snapshot {
	return e.snapshot.Load()
}

// Run executes scoring cycles on the configured interval until the
// context is cancelled. The first cycle runs immediately.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(e.cfg.Analytics.CycleIntervalSeconds) * time.Second
	e.lg.Info("scoring engine starting", "interval", interval,
		"units", len(e.cfg.Units), "equipment", len(e.cfg.Equipment))

	e.RunCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.lg.Info("scoring engine exiting")
			return
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle performs one scoring cycle. If a cycle is already in flight the
// call is dropped with a backlog warning instead of queueing.
func (e *Engine) RunCycle(ctx context.Context) {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.lg.Warn("previous scoring cycle still running, skipping tick (backlog)")
		cyclesSkippedTotal.Inc()
		return
	}
	defer e.inFlight.Store(false)

	start := time.Now()
	e.cycle++

	e.retryPending(ctx)

	snap, newAlerts := e.compute(time.Now().UTC())

	// The swap is the publish point: readers see the prior snapshot right
	// up until the new one is complete.
	e.snapshot.Store(snap)

	e.publish(ctx, snap, newAlerts)

	cyclesTotal.Inc()
	cycleDurationSeconds.Observe(time.Since(start).Seconds())
	openAlertsGauge.Set(float64(e.alerts.OpenCount()))

	e.lg.Info("scoring cycle complete", "cycle", e.cycle,
		"predictions", len(snap.Predictions), "energy_records", len(snap.Energy),
		"new_alerts", len(newAlerts), "degraded", snap.Degraded,
		"duration", time.Since(start))
}

func (e *Engine) compute(now time.Time) (*models.Snapshot, []models.Alert) {
	snap := &models.Snapshot{GeneratedAt: now, Cycle: e.cycle}
	var newAlerts []models.Alert

	// --- Unit KPIs ---
	var (
		qualitySum, availabilitySum, performanceSum float64
		qualityN, availabilityN, performanceN       int
		totalProduction                             float64
		throughputLossUSD                           float64
		energyWasteKWh                              float64
		efficiencySum                               float64
	)

	for _, unit := range e.cfg.Units {
		if q, ok := e.agg.MeanValue(unit.ID, unit.QualityTag, now); ok {
			qualitySum += clamp(q, 0, 100)
			qualityN++
		}
		if av, ok := e.agg.MeanValue(unit.ID, unit.AvailabilityTag, now); ok {
			availabilitySum += clamp(av, 0, 100)
			availabilityN++
		}
		if tp, ok := e.agg.MeanValue(unit.ID, unit.ThroughputTag, now); ok {
			totalProduction += tp
			if unit.Capacity > 0 {
				performanceSum += clamp(tp/unit.Capacity*100, 0, 100)
				performanceN++
			}
			throughputLossUSD += ThroughputLoss(unit.TargetThroughput, tp, unit.MarginUSD)
		}

		if slot := e.agg.Slot(unit.ID, unit.EnergyTag, now); !slot.Insufficient {
			record := e.energy.Score(unit, slot.Mean)
			snap.Energy = append(snap.Energy, record)
			efficiencySum += record.EfficiencyScore
			if excess := slot.Mean - unit.EnergyBenchmark; excess > 0 {
				energyWasteKWh += excess * e.cfg.Analytics.SavingsHorizonHours
			}

			if record.EfficiencyScore < e.cfg.Analytics.EfficiencyAlertBelow {
				sev := models.SeverityMedium
				if record.EfficiencyScore >= 50 {
					sev = models.SeverityLow
				}
				if a, created := e.alerts.Raise(models.ConditionLowEfficiency, unit.ID, unit.ID, unit.EnergyTag, sev, record.Recommendation); created {
					newAlerts = append(newAlerts, a)
				}
			}
		} else {
			gap := &models.DataGapError{
				EntityID: unit.ID,
				Feature:  "energy",
				Samples:  slot.Samples,
				Required: e.agg.MinSamples(),
			}
			e.lg.Warn("unit skipped in energy analysis", "unit", unit.ID, "error", gap)
			snap.Degraded = true
		}
	}

	// Worst performers first.
	sort.Slice(snap.Energy, func(i, j int) bool {
		if snap.Energy[i].EfficiencyScore != snap.Energy[j].EfficiencyScore {
			return snap.Energy[i].EfficiencyScore < snap.Energy[j].EfficiencyScore
		}
		return snap.Energy[i].UnitID < snap.Energy[j].UnitID
	})

	snap.OEE = OEE("plant",
		average(qualitySum, qualityN),
		average(availabilitySum, availabilityN),
		average(performanceSum, performanceN),
		e.cfg.Analytics.DegradedComposite, now)
	if snap.OEE.Degraded {
		snap.Degraded = true
	}

	// --- Stability ---
	var spreads []VariableSpread
	for _, st := range e.cfg.Analytics.StabilityTags {
		if sd, ok := e.agg.StdDev(st.UnitID, st.TagID, now); ok {
			spreads = append(spreads, VariableSpread{StdDev: sd, Scale: st.Scale})
		}
	}
	snap.Stability = Stability(spreads, e.prevStability, e.hasPrevStability, e.cfg.Analytics.TrendDelta)
	if len(spreads) > 0 {
		e.prevStability = snap.Stability.Index
		e.hasPrevStability = true

		if snap.Stability.Index < e.cfg.Analytics.StabilityAlertBelow {
			if a, created := e.alerts.Raise(models.ConditionLowStability, "plant", "", "", models.SeverityMedium,
				"Process stability index dropped below threshold: key variables show excessive variance"); created {
				newAlerts = append(newAlerts, a)
			}
		}
	} else {
		snap.Degraded = true
	}

	snap.Financial = Financial(throughputLossUSD, energyWasteKWh, e.cfg.Analytics.EnergyPriceUSD)

	// --- Failure predictions ---
	for _, eq := range e.cfg.Equipment {
		pred, created, ok := e.scoreEquipment(eq, now)
		if !ok {
			// Unscoreable or model failure: the prior prediction, if any,
			// stays published rather than being overwritten with a guess.
			if prev, exists := e.lastPredictions[eq.ID]; exists {
				snap.Predictions = append(snap.Predictions, prev)
			}
			continue
		}
		e.lastPredictions[eq.ID] = pred
		snap.Predictions = append(snap.Predictions, pred)
		newAlerts = append(newAlerts, created...)
	}

	sort.Slice(snap.Predictions, func(i, j int) bool {
		if snap.Predictions[i].FailureProbability != snap.Predictions[j].FailureProbability {
			return snap.Predictions[i].FailureProbability > snap.Predictions[j].FailureProbability
		}
		return snap.Predictions[i].EquipmentID < snap.Predictions[j].EquipmentID
	})

	// --- History point for charts ---
	point := models.HistoryPoint{
		TimeLabel:  now.Format("15:04"),
		Production: round2(totalProduction),
		OEE:        round2(snap.OEE.Composite),
	}
	if n := len(snap.Energy); n > 0 {
		point.Efficiency = round2(efficiencySum / float64(n))
	}
	e.history = append(e.history, point)
	if max := e.cfg.Analytics.HistoryMaxPoints; max > 0 && len(e.history) > max {
		e.history = e.history[len(e.history)-max:]
	}
	snap.History = append([]models.HistoryPoint(nil), e.history...)

	return snap, newAlerts
}

func (e *Engine) scoreEquipment(eq config.Equipment, now time.Time) (models.FailurePrediction, []models.Alert, bool) {
	fv := e.agg.FeatureVector(eq.ID, eq.UnitID, eq.Sensors, now)
	scorer := e.Scorer()

	risk, err := scorer.Score(eq, fv)
	if err != nil {
		var unscoreable *models.UnscoreableEntityError
		var unavailable *models.ModelUnavailableError
		switch {
		case errors.As(err, &unscoreable):
			e.lg.Warn("equipment unscoreable this cycle", "equipment", eq.ID, "error", err)
		case errors.As(err, &unavailable):
			e.lg.Error("scoring model unavailable", "equipment", eq.ID, "error", err)
		default:
			e.lg.Error("scoring failed", "equipment", eq.ID, "error", err)
		}
		return models.FailurePrediction{}, nil, false
	}

	anomalyScore, isAnomaly, err := e.detector.Detect(eq, fv)
	if err != nil {
		// The risk score already passed, so the vector is usable; a
		// detector failure degrades the anomaly signal only.
		e.lg.Warn("anomaly detection failed", "equipment", eq.ID, "error", err)
	}

	drivers := TopDrivers(e.attributor.Attribute(eq, fv), 3)

	pred := models.FailurePrediction{
		EquipmentID:        eq.ID,
		EquipmentName:      eq.Name,
		EquipmentType:      eq.Type,
		UnitID:             eq.UnitID,
		FailureProbability: risk.FailureProbability,
		RULHours:           risk.RULHours,
		IsAnomaly:          isAnomaly,
		AnomalyScore:       anomalyScore,
		Confidence:         risk.Confidence,
		TopDrivers:         drivers,
		Prediction:         PredictionLabel(risk.FailureProbability),
		Recommendation:     Recommendation(eq.Name, risk.RULHours, isAnomaly, drivers),
		GeneratedAt:        now,
		ModelSource:        scorer.Name(),
	}

	var newAlerts []models.Alert

	if pred.FailureProbability >= e.cfg.Analytics.RiskAlertThreshold {
		if a, created := e.alerts.Raise(models.ConditionHighFailureRisk, eq.ID, eq.UnitID, "", models.SeverityHigh, pred.Recommendation); created {
			newAlerts = append(newAlerts, a)
		}
	}

	if isAnomaly {
		anomaliesDetectedTotal.WithLabelValues(eq.ID).Inc()
		if a, created := e.alerts.Raise(models.ConditionZeroDayAnomaly, eq.ID, eq.UnitID, "", models.SeverityHigh, pred.Recommendation); created {
			newAlerts = append(newAlerts, a)
		}
	}

	return pred, newAlerts, true
}

func (e *Engine) publish(ctx context.Context, snap *models.Snapshot, newAlerts []models.Alert) {
	for _, sink := range e.sinks {
		if err := sink.PublishSnapshot(ctx, snap); err != nil {
			perr := &models.PublishError{Sink: sink.Name(), Cause: err}
			publishFailuresTotal.WithLabelValues(sink.Name()).Inc()
			// Snapshots are superseded by the next cycle; no buffering.
			e.lg.Error("snapshot publish failed, next cycle will supersede", "error", perr)
		}

		for _, alert := range newAlerts {
			if err := sink.PublishAlert(ctx, alert); err != nil {
				perr := &models.PublishError{Sink: sink.Name(), Cause: err}
				publishFailuresTotal.WithLabelValues(sink.Name()).Inc()
				e.lg.Error("alert publish failed, buffering for retry", "alert", alert.ID, "error", perr)
				e.buffer(pendingAlert{sink: sink, alert: alert})
			}
		}
	}
}

func (e *Engine) buffer(item pendingAlert) {
	if len(e.pending) >= maxPendingAlerts {
		dropped := e.pending[0]
		e.pending = e.pending[1:]
		e.lg.Error("publish retry buffer full, dropping oldest alert",
			"sink", dropped.sink.Name(), "alert", dropped.alert.ID)
	}
	e.pending = append(e.pending, item)
}

func (e *Engine) retryPending(ctx context.Context) {
	if len(e.pending) == 0 {
		return
	}

	remaining := e.pending[:0]
	for _, item := range e.pending {
		if err := item.sink.PublishAlert(ctx, item.alert); err != nil {
			publishFailuresTotal.WithLabelValues(item.sink.Name()).Inc()
			remaining = append(remaining, item)
			continue
		}
		e.lg.Info("buffered alert published on retry", "sink", item.sink.Name(), "alert", item.alert.ID)
	}
	e.pending = remaining
}

func average(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}
