package analytics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Auyante/refineryiq-system/alerts"
	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/models"
	"github.com/Auyante/refineryiq-system/telemetry"
)

func testConfig() *config.Config {
	return &config.Config{
		Analytics: config.AnalyticsConfig{
			CycleIntervalSeconds: 180,
			RetentionMinutes:     240,
			WindowMinutes:        60,
			MinSamples:           3,
			TrendDelta:           2.0,
			AnomalySigma:         3.0,
			RiskAlertThreshold:   70,
			StabilityAlertBelow:  50,
			EfficiencyAlertBelow: 70,
			SavingsHorizonHours:  24,
			EnergyPriceUSD:       0.12,
			HistoryMaxPoints:     5,
			StabilityTags: []config.StabilityTag{
				{UnitID: "CDU-101", TagID: "CDU-101.feed_temp", Scale: 5},
			},
		},
		Units: []config.Unit{
			{
				ID: "CDU-101", Name: "Crude Distillation Unit 101",
				Capacity: 12000, TargetThroughput: 11000, MarginUSD: 4.5,
				EnergyBenchmark: 45, EnergyTarget: 42,
				ThroughputTag: "CDU-101.throughput", QualityTag: "CDU-101.quality",
				AvailabilityTag: "CDU-101.availability", EnergyTag: "CDU-101.energy",
			},
		},
		Equipment: []config.Equipment{
			{
				ID: "PUMP-CDU-101", Name: "Main Charge Pump", Type: "PUMP", UnitID: "CDU-101",
				Sensors: map[string]string{
					"vibration":   "PUMP-CDU-101.vibration",
					"temperature": "PUMP-CDU-101.temperature",
				},
			},
		},
		Profiles: testProfiles,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedTag(store *telemetry.Store, unit, tag string, values ...float64) {
	base := time.Now().UTC().Add(-time.Duration(len(values)) * time.Minute)
	for i, v := range values {
		store.Ingest(models.Reading{
			UnitID:    unit,
			TagID:     tag,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Value:     v,
			Quality:   models.QualityGood,
		})
	}
}

func seedHealthyPlant(store *telemetry.Store) {
	seedTag(store, "CDU-101", "CDU-101.throughput", 10800, 10850, 10900)
	seedTag(store, "CDU-101", "CDU-101.quality", 96, 96.5, 96.2)
	seedTag(store, "CDU-101", "CDU-101.availability", 97, 97.2, 96.8)
	seedTag(store, "CDU-101", "CDU-101.energy", 44, 44.5, 43.8)
	seedTag(store, "CDU-101", "CDU-101.feed_temp", 340, 341, 340.5)
	seedTag(store, "CDU-101", "PUMP-CDU-101.vibration", 2.5, 2.6, 2.4)
	seedTag(store, "CDU-101", "PUMP-CDU-101.temperature", 75, 76, 74.5)
}

// flakySink fails publishes while failing is true.
type flakySink struct {
	failing   bool
	snapshots int
	alerts    []models.Alert
}

func (s *flakySink) Name() string { return "flaky" }

func (s *flakySink) PublishSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if s.failing {
		return errors.New("sink down")
	}
	s.snapshots++
	return nil
}

func (s *flakySink) PublishAlert(ctx context.Context, alert models.Alert) error {
	if s.failing {
		return errors.New("sink down")
	}
	s.alerts = append(s.alerts, alert)
	return nil
}

func TestSnapshotNilBeforeFirstCycle(t *testing.T) {
	store := telemetry.NewStore(4 * time.Hour)
	e := NewEngine(testConfig(), testLogger(), store, alerts.NewManager())

	if e.Snapshot() != nil {
		t.Fatal("snapshot must be nil before the first cycle")
	}
}

func TestRunCycleProducesSnapshot(t *testing.T) {
	store := telemetry.NewStore(4 * time.Hour)
	seedHealthyPlant(store)

	e := NewEngine(testConfig(), testLogger(), store, alerts.NewManager())
	e.RunCycle(context.Background())

	snap := e.Snapshot()
	if snap == nil {
		t.Fatal("snapshot missing after cycle")
	}
	if snap.Degraded {
		t.Fatalf("healthy plant flagged degraded: %+v", snap)
	}
	if snap.OEE.Composite <= 0 || snap.OEE.Composite > 100 {
		t.Fatalf("composite out of range: %v", snap.OEE.Composite)
	}
	if len(snap.Energy) != 1 {
		t.Fatalf("expected 1 energy record, got %d", len(snap.Energy))
	}
	if len(snap.Predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(snap.Predictions))
	}
	if snap.Predictions[0].ModelSource != "profile_baseline_v1" {
		t.Fatalf("model source = %q", snap.Predictions[0].ModelSource)
	}
	if len(snap.History) != 1 {
		t.Fatalf("expected 1 history point, got %d", len(snap.History))
	}
}

func TestDegradedOnMissingUnitData(t *testing.T) {
	store := telemetry.NewStore(4 * time.Hour)
	// Throughput only: quality, availability and energy are absent.
	seedTag(store, "CDU-101", "CDU-101.throughput", 10800, 10850, 10900)

	e := NewEngine(testConfig(), testLogger(), store, alerts.NewManager())
	e.RunCycle(context.Background())

	snap := e.Snapshot()
	if snap == nil {
		t.Fatal("snapshot missing after cycle")
	}
	if !snap.Degraded {
		t.Fatal("missing KPI inputs must flag the snapshot degraded")
	}
	if !snap.OEE.Degraded {
		t.Fatal("OEE must be flagged degraded with missing components")
	}
}

func TestEnergyGapReportedAsDataGap(t *testing.T) {
	store := telemetry.NewStore(4 * time.Hour)
	// Everything except the energy tag.
	seedTag(store, "CDU-101", "CDU-101.throughput", 10800, 10850, 10900)
	seedTag(store, "CDU-101", "CDU-101.quality", 96, 96.5, 96.2)
	seedTag(store, "CDU-101", "CDU-101.availability", 97, 97.2, 96.8)
	seedTag(store, "CDU-101", "CDU-101.feed_temp", 340, 341, 340.5)

	var buf bytes.Buffer
	lg := slog.New(slog.NewTextHandler(&buf, nil))

	e := NewEngine(testConfig(), lg, store, alerts.NewManager())
	e.RunCycle(context.Background())

	snap := e.Snapshot()
	if !snap.Degraded {
		t.Fatal("missing energy data must flag the snapshot degraded")
	}
	if len(snap.Energy) != 0 {
		t.Fatalf("unit with no energy data got an energy record: %+v", snap.Energy)
	}
	if !strings.Contains(buf.String(), "data gap for CDU-101/energy") {
		t.Fatalf("energy gap not reported as a data gap error, log:\n%s", buf.String())
	}
}

func TestUnscoreableEquipmentCarriesForward(t *testing.T) {
	cfg := testConfig()
	cfg.Equipment = append(cfg.Equipment, config.Equipment{
		ID: "PUMP-CDU-102", Name: "Reflux Pump", Type: "PUMP", UnitID: "CDU-101",
		Sensors: map[string]string{"vibration": "PUMP-CDU-102.vibration"},
	})

	// First engine: no data at all for PUMP-CDU-102 and nothing to carry
	// forward, so it is simply absent from the snapshot.
	store := telemetry.NewStore(4 * time.Hour)
	seedHealthyPlant(store)
	e := NewEngine(cfg, testLogger(), store, alerts.NewManager())
	e.RunCycle(context.Background())
	if got := len(e.Snapshot().Predictions); got != 1 {
		t.Fatalf("expected only the scoreable equipment, got %d predictions", got)
	}

	// Second engine: a prior prediction exists but the feed has cut out.
	// The prior prediction must stay published instead of vanishing.
	prior := models.FailurePrediction{
		EquipmentID: "PUMP-CDU-102", EquipmentName: "Reflux Pump",
		EquipmentType: "PUMP", UnitID: "CDU-101",
		FailureProbability: 33.3, Prediction: "NORMAL OPERATION",
		ModelSource: "profile_baseline_v1",
	}
	e2 := NewEngine(cfg, testLogger(), telemetry.NewStore(4*time.Hour), alerts.NewManager())
	e2.lastPredictions["PUMP-CDU-102"] = prior
	e2.RunCycle(context.Background())

	snap := e2.Snapshot()
	if len(snap.Predictions) != 1 {
		t.Fatalf("expected the carried-forward prediction, got %d", len(snap.Predictions))
	}
	if snap.Predictions[0].EquipmentID != "PUMP-CDU-102" {
		t.Fatalf("wrong prediction carried forward: %s", snap.Predictions[0].EquipmentID)
	}
	if snap.Predictions[0].FailureProbability != 33.3 {
		t.Fatalf("carried prediction mutated: %+v", snap.Predictions[0])
	}
}

func TestAlertPublishRetriedAfterSinkRecovers(t *testing.T) {
	store := telemetry.NewStore(4 * time.Hour)
	seedHealthyPlant(store)
	// Degraded pump: vibration near failure threshold raises a risk alert.
	seedTag(store, "CDU-101", "PUMP-CDU-102.vibration", 7.6, 7.7, 7.8)
	seedTag(store, "CDU-101", "PUMP-CDU-102.temperature", 118, 119, 118.5)

	cfg := testConfig()
	cfg.Equipment = append(cfg.Equipment, config.Equipment{
		ID: "PUMP-CDU-102", Name: "Reflux Pump", Type: "PUMP", UnitID: "CDU-101",
		Sensors: map[string]string{
			"vibration":   "PUMP-CDU-102.vibration",
			"temperature": "PUMP-CDU-102.temperature",
		},
	})

	sink := &flakySink{failing: true}
	e := NewEngine(cfg, testLogger(), store, alerts.NewManager(), sink)

	e.RunCycle(context.Background())
	if len(sink.alerts) != 0 {
		t.Fatalf("failing sink accepted alerts: %d", len(sink.alerts))
	}
	if len(e.pending) == 0 {
		t.Fatal("failed alert publishes were not buffered")
	}

	sink.failing = false
	e.RunCycle(context.Background())

	if len(sink.alerts) == 0 {
		t.Fatal("buffered alerts not delivered after sink recovery")
	}
	if len(e.pending) != 0 {
		t.Fatalf("pending buffer not drained: %d left", len(e.pending))
	}
}

func TestSwapScorer(t *testing.T) {
	store := telemetry.NewStore(4 * time.Hour)
	seedHealthyPlant(store)

	e := NewEngine(testConfig(), testLogger(), store, alerts.NewManager())
	e.SwapScorer(fixedScorer{})
	e.RunCycle(context.Background())

	snap := e.Snapshot()
	if len(snap.Predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(snap.Predictions))
	}
	if snap.Predictions[0].ModelSource != "fixed_test_model" {
		t.Fatalf("model source = %q, want fixed_test_model", snap.Predictions[0].ModelSource)
	}
	if snap.Predictions[0].FailureProbability != 12.5 {
		t.Fatalf("probability = %v, want 12.5", snap.Predictions[0].FailureProbability)
	}
}

type fixedScorer struct{}

func (fixedScorer) Name() string { return "fixed_test_model" }

func (fixedScorer) Score(eq config.Equipment, fv models.FeatureVector) (RiskScore, error) {
	return RiskScore{FailureProbability: 12.5, Confidence: 100}, nil
}
