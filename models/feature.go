package models

import "time"

// FeatureSlot holds the windowed statistics for one named feature.
// When Insufficient is true the numeric fields are meaningless and
// consumers must treat the slot as missing, never as a valid low value.
type FeatureSlot struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	RateOfChange float64 `json:"rate_of_change"` // first-difference slope, units per hour
	Samples      int     `json:"samples"`
	Insufficient bool    `json:"insufficient"`
}

// FeatureVector is the fixed-shape window summary for one entity
// (a process unit or a piece of equipment). It is rebuilt from scratch
// every scoring cycle and never mutated after it is handed downstream.
type FeatureVector struct {
	EntityID    string                 `json:"entity_id"`
	WindowStart time.Time              `json:"window_start"`
	WindowEnd   time.Time              `json:"window_end"`
	Features    map[string]FeatureSlot `json:"features"`
}

// UsableCount returns how many slots carry enough samples to be trusted.
func (fv *FeatureVector) UsableCount() int {
	n := 0
	for _, slot := range fv.Features {
		if !slot.Insufficient {
			n++
		}
	}
	return n
}
