package analytics

import (
	"math"
	"time"

	"github.com/Auyante/refineryiq-system/models"
)

// OEE composes quality, availability and performance into the overall
// effectiveness score. Components are clamped to [0,100]; the composite is
// q*a*p/10000 so it stays in [0,100] as well. A nil component means
// "insufficient data": the composite falls back to degradedComposite and the
// result is flagged degraded instead of reporting a silent zero.
func OEE(scope string, quality, availability, performance *float64, degradedComposite float64, now time.Time) models.OEEScore {
	score := models.OEEScore{Scope: scope, Timestamp: now}

	if quality == nil || availability == nil || performance == nil {
		score.Degraded = true
		score.Composite = degradedComposite
		if quality != nil {
			score.Quality = clamp(*quality, 0, 100)
		}
		if availability != nil {
			score.Availability = clamp(*availability, 0, 100)
		}
		if performance != nil {
			score.Performance = clamp(*performance, 0, 100)
		}
		return score
	}

	score.Quality = clamp(*quality, 0, 100)
	score.Availability = clamp(*availability, 0, 100)
	score.Performance = clamp(*performance, 0, 100)
	score.Composite = score.Quality * score.Availability * score.Performance / 10000.0
	return score
}

// VariableSpread carries one key process variable's windowed standard
// deviation and the fixed scaling constant that maps it onto index points.
type VariableSpread struct {
	StdDev float64
	Scale  float64
}

// Stability maps the variance of key process variables onto a 0-100 index
// (higher is steadier) and classifies the trend against the previous
// cycle's index using the configured delta.
func Stability(spreads []VariableSpread, prev float64, hasPrev bool, trendDelta float64) models.StabilityIndex {
	if len(spreads) == 0 {
		return models.StabilityIndex{Index: 0, Trend: models.TrendStable}
	}

	var penalty float64
	for _, v := range spreads {
		scale := v.Scale
		if scale <= 0 {
			scale = 1
		}
		penalty += v.StdDev / scale
	}
	penalty /= float64(len(spreads))

	index := clamp(100-penalty, 0, 100)

	trend := models.TrendStable
	if hasPrev {
		switch {
		case index-prev >= trendDelta:
			trend = models.TrendImproving
		case prev-index >= trendDelta:
			trend = models.TrendDeclining
		}
	}

	return models.StabilityIndex{Index: index, Trend: trend}
}

// ThroughputLoss values the shortfall against target throughput, floored
// at zero: over-production is never reported as negative loss.
func ThroughputLoss(targetThroughput, actualThroughput, marginUSD float64) float64 {
	shortfall := targetThroughput - actualThroughput
	if shortfall < 0 {
		return 0
	}
	return shortfall * marginUSD
}

// Financial assembles the daily loss estimate from the throughput
// shortfall and the energy waste above benchmark.
func Financial(throughputLossUSD, energyWasteKWh, priceUSDPerKWh float64) models.FinancialImpact {
	energyWasteUSD := energyWasteKWh * priceUSDPerKWh
	daily := throughputLossUSD + energyWasteUSD
	return models.FinancialImpact{
		DailyLossUSD:           round2(daily),
		ThroughputLossUSD:      round2(throughputLossUSD),
		EnergyWasteUSD:         round2(energyWasteUSD),
		PotentialAnnualSavings: round2(daily * 365),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
