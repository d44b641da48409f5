package models

import "time"

// OEEScore is Overall Equipment Effectiveness for a scope (plant or unit).
// Composite is always recomputed from the current components; it is never
// persisted and patched separately.
type OEEScore struct {
	Scope        string    `json:"scope"`
	Quality      float64   `json:"quality"`
	Availability float64   `json:"availability"`
	Performance  float64   `json:"performance"`
	Composite    float64   `json:"composite"`
	Degraded     bool      `json:"degraded"`
	Timestamp    time.Time `json:"timestamp"`
}

type StabilityTrend string

const (
	TrendImproving StabilityTrend = "improving"
	TrendStable    StabilityTrend = "stable"
	TrendDeclining StabilityTrend = "declining"
)

type StabilityIndex struct {
	Index float64        `json:"index"`
	Trend StabilityTrend `json:"trend"`
}

type FinancialImpact struct {
	DailyLossUSD           float64 `json:"daily_loss_usd"`
	ThroughputLossUSD      float64 `json:"throughput_loss_usd"`
	EnergyWasteUSD         float64 `json:"energy_waste_usd"`
	PotentialAnnualSavings float64 `json:"potential_annual_savings"`
}

type EnergyEfficiencyRecord struct {
	UnitID               string  `json:"unit_id"`
	UnitName             string  `json:"unit_name"`
	AvgEnergyConsumption float64 `json:"avg_energy_consumption"`
	Benchmark            float64 `json:"benchmark"`
	Target               float64 `json:"target"`
	EfficiencyScore      float64 `json:"efficiency_score"`
	SavingsPotential     float64 `json:"savings_potential"`
	Status               string  `json:"status"`
	Recommendation       string  `json:"recommendation"`
}

// HistoryPoint is one chart sample, appended once per scoring cycle.
type HistoryPoint struct {
	TimeLabel  string  `json:"time_label"`
	Production float64 `json:"production"`
	Efficiency float64 `json:"efficiency"`
	OEE        float64 `json:"oee"`
}
