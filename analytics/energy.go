package analytics

import (
	"fmt"

	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/models"
)

// EnergyScorer compares per-unit consumption against the unit's benchmark
// model and yields a 0-100 score plus a savings estimate over the
// configured horizon.
type EnergyScorer struct {
	horizonHours float64
}

func NewEnergyScorer(horizonHours float64) *EnergyScorer {
	return &EnergyScorer{horizonHours: horizonHours}
}

// Score is monotonically non-increasing in avgConsumption above the
// benchmark: deviation = (avg - benchmark) / benchmark, score =
// clamp(100 - deviation*100, 0, 100).
func (s *EnergyScorer) Score(unit config.Unit, avgConsumption float64) models.EnergyEfficiencyRecord {
	deviation := (avgConsumption - unit.EnergyBenchmark) / unit.EnergyBenchmark
	score := clamp(100-deviation*100, 0, 100)

	excess := avgConsumption - unit.EnergyBenchmark
	if excess < 0 {
		excess = 0
	}

	return models.EnergyEfficiencyRecord{
		UnitID:               unit.ID,
		UnitName:             unit.Name,
		AvgEnergyConsumption: round2(avgConsumption),
		Benchmark:            unit.EnergyBenchmark,
		Target:               unit.EnergyTarget,
		EfficiencyScore:      round2(score),
		SavingsPotential:     round2(excess * s.horizonHours),
		Status:               efficiencyStatus(score),
		Recommendation:       energyRecommendation(unit.ID, score),
	}
}

func efficiencyStatus(score float64) string {
	switch {
	case score >= 95:
		return "EXCELLENT"
	case score >= 85:
		return "GOOD"
	case score >= 70:
		return "NEEDS_IMPROVEMENT"
	default:
		return "POOR"
	}
}

// energyRecommendation is an ordered rule table keyed by score bracket so
// the text is deterministic and testable.
func energyRecommendation(unitID string, score float64) string {
	switch {
	case score >= 95:
		return fmt.Sprintf("%s is operating at benchmark efficiency. Maintain current regime.", unitID)
	case score >= 85:
		return fmt.Sprintf("Minor excess consumption on %s. Review heat integration at next turnaround.", unitID)
	case score >= 70:
		return fmt.Sprintf("Clean and optimize heat exchangers on %s. Expected savings 3-5%%.", unitID)
	default:
		return fmt.Sprintf("Audit energy consumption on %s: usage is well above benchmark. Investigate fouling, steam leaks and furnace excess air.", unitID)
	}
}
