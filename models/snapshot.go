package models

import "time"

// Snapshot is the immutable result of one completed scoring cycle.
// A new snapshot replaces the previous one atomically; readers never
// observe a half-updated state. Degraded is set when any sub-result fell
// back to a default instead of being computed from live data.
type Snapshot struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Cycle       int64                    `json:"cycle"`
	Degraded    bool                     `json:"degraded"`
	OEE         OEEScore                 `json:"oee"`
	Stability   StabilityIndex           `json:"stability"`
	Financial   FinancialImpact          `json:"financial"`
	Energy      []EnergyEfficiencyRecord `json:"energy"`
	Predictions []FailurePrediction      `json:"predictions"`
	History     []HistoryPoint           `json:"history"`
}
