package models

import (
	"errors"
	"time"
)

type Quality string

const (
	QualityGood Quality = "good"
	QualityBad  Quality = "bad"
)

// Reading is a single raw process-tag sample from the field.
// Readings are append-only; they are never mutated after ingest.
type Reading struct {
	UnitID    string    `json:"unit_id"`
	TagID     string    `json:"tag_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Quality   Quality   `json:"quality"`
}

func (r *Reading) Validate() error {
	if r.UnitID == "" {
		return errors.New("unit_id is required")
	}

	if r.TagID == "" {
		return errors.New("tag_id is required")
	}

	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}

	switch r.Quality {
	case QualityGood, QualityBad:
	case "":
		// Field devices that predate the quality flag send nothing; treat as good.
		r.Quality = QualityGood
	default:
		return errors.New("quality must be \"good\" or \"bad\"")
	}

	return nil
}
