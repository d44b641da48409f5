package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/Auyante/refineryiq-system/models"
)

func f(v float64) *float64 { return &v }

func TestOEEComposite(t *testing.T) {
	now := time.Now().UTC()
	score := OEE("plant", f(96), f(92), f(88), 0, now)

	if score.Degraded {
		t.Fatal("complete inputs must not flag degraded")
	}
	want := 96.0 * 92.0 * 88.0 / 10000.0
	if math.Abs(score.Composite-want) > 1e-9 {
		t.Fatalf("composite = %v, want %v", score.Composite, want)
	}
	if score.Composite < 0 || score.Composite > 100 {
		t.Fatalf("composite out of range: %v", score.Composite)
	}
}

func TestOEEClampsComponents(t *testing.T) {
	score := OEE("plant", f(130), f(-5), f(50), 0, time.Now().UTC())

	if score.Quality != 100 {
		t.Fatalf("quality = %v, want clamped to 100", score.Quality)
	}
	if score.Availability != 0 {
		t.Fatalf("availability = %v, want clamped to 0", score.Availability)
	}
	if score.Composite != 0 {
		t.Fatalf("composite = %v, want 0 with zero availability", score.Composite)
	}
}

func TestOEEDegradedOnMissingComponent(t *testing.T) {
	score := OEE("plant", f(96), nil, f(88), 42.5, time.Now().UTC())

	if !score.Degraded {
		t.Fatal("missing availability must flag degraded")
	}
	if score.Composite != 42.5 {
		t.Fatalf("composite = %v, want configured fallback 42.5", score.Composite)
	}
	// Present components still reported.
	if score.Quality != 96 || score.Performance != 88 {
		t.Fatalf("present components lost: %+v", score)
	}
}

func TestStabilityIndexAndTrend(t *testing.T) {
	spreads := []VariableSpread{
		{StdDev: 10, Scale: 5}, // penalty 2
		{StdDev: 20, Scale: 5}, // penalty 4
	}

	st := Stability(spreads, 0, false, 2.0)
	if math.Abs(st.Index-97) > 1e-9 {
		t.Fatalf("index = %v, want 97", st.Index)
	}
	if st.Trend != models.TrendStable {
		t.Fatalf("trend without history = %v, want stable", st.Trend)
	}

	improving := Stability(spreads, 94, true, 2.0)
	if improving.Trend != models.TrendImproving {
		t.Fatalf("trend = %v, want improving (97 vs prev 94)", improving.Trend)
	}

	declining := Stability(spreads, 99.5, true, 2.0)
	if declining.Trend != models.TrendDeclining {
		t.Fatalf("trend = %v, want declining (97 vs prev 99.5)", declining.Trend)
	}

	withinDelta := Stability(spreads, 96, true, 2.0)
	if withinDelta.Trend != models.TrendStable {
		t.Fatalf("trend = %v, want stable within delta", withinDelta.Trend)
	}
}

func TestStabilityFloorsAtZero(t *testing.T) {
	st := Stability([]VariableSpread{{StdDev: 1000, Scale: 1}}, 0, false, 2.0)
	if st.Index != 0 {
		t.Fatalf("index = %v, want floored at 0", st.Index)
	}
}

func TestThroughputLossFloorsAtZero(t *testing.T) {
	if got := ThroughputLoss(11000, 10200, 4.5); got != 800*4.5 {
		t.Fatalf("loss = %v, want %v", got, 800*4.5)
	}
	if got := ThroughputLoss(11000, 11800, 4.5); got != 0 {
		t.Fatalf("over-production reported as loss: %v", got)
	}
}

func TestRound2HandlesNegatives(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{1.234, 1.23},
		{1.236, 1.24},
		{-3.6, -3.6},
		{-3.606, -3.61},
		{0, 0},
	}
	for _, c := range cases {
		if got := round2(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFinancialComposition(t *testing.T) {
	fi := Financial(3600, 72, 0.12)

	if math.Abs(fi.EnergyWasteUSD-8.64) > 1e-9 {
		t.Fatalf("energy waste = %v, want 8.64", fi.EnergyWasteUSD)
	}
	if math.Abs(fi.DailyLossUSD-3608.64) > 1e-9 {
		t.Fatalf("daily loss = %v, want 3608.64", fi.DailyLossUSD)
	}
	if math.Abs(fi.PotentialAnnualSavings-3608.64*365) > 0.01 {
		t.Fatalf("annual savings = %v, want %v", fi.PotentialAnnualSavings, 3608.64*365)
	}
}
