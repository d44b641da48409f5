package models

import "time"

type DriverDirection string

const (
	DirectionIncrease DriverDirection = "increase"
	DirectionDecrease DriverDirection = "decrease"
)

// Driver is one feature's estimated share of responsibility for a score.
type Driver struct {
	Feature         string          `json:"feature"`
	ContributionPct float64         `json:"contribution_pct"`
	Direction       DriverDirection `json:"direction"`
}

// FailurePrediction is the per-equipment scoring result. It is fully
// replaced each cycle; readers always see either the previous complete
// record or the new one, never a partial update.
type FailurePrediction struct {
	EquipmentID        string    `json:"equipment_id"`
	EquipmentName      string    `json:"equipment_name"`
	EquipmentType      string    `json:"equipment_type"`
	UnitID             string    `json:"unit_id"`
	FailureProbability float64   `json:"failure_probability"`
	RULHours           *float64  `json:"rul_hours"`
	IsAnomaly          bool      `json:"is_anomaly"`
	AnomalyScore       float64   `json:"anomaly_score"`
	Confidence         float64   `json:"confidence"`
	TopDrivers         []Driver  `json:"top_drivers"`
	Prediction         string    `json:"prediction"`
	Recommendation     string    `json:"recommendation"`
	GeneratedAt        time.Time `json:"generated_at"`
	ModelSource        string    `json:"model_source"`
}
