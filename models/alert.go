package models

import "time"

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// AlertCondition identifies which threshold crossing produced an alert.
// Deduplication is keyed by (entity, condition).
type AlertCondition string

const (
	ConditionHighFailureRisk AlertCondition = "HIGH_FAILURE_RISK"
	ConditionZeroDayAnomaly  AlertCondition = "ZERO_DAY_ANOMALY"
	ConditionLowStability    AlertCondition = "LOW_STABILITY"
	ConditionLowEfficiency   AlertCondition = "LOW_EFFICIENCY"
)

// Alert is an audit-trail record. State machine: OPEN -> ACKNOWLEDGED
// (terminal). Alerts are never deleted.
type Alert struct {
	ID             string         `json:"id"`
	EntityID       string         `json:"entity_id"`
	UnitID         string         `json:"unit_id"`
	TagID          string         `json:"tag_id,omitempty"`
	Condition      AlertCondition `json:"condition"`
	Severity       Severity       `json:"severity"`
	Message        string         `json:"message"`
	CreatedAt      time.Time      `json:"created_at"`
	Acknowledged   bool           `json:"acknowledged"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string         `json:"acknowledged_by,omitempty"`
}
