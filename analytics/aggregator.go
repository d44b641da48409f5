package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/Auyante/refineryiq-system/models"
	"github.com/Auyante/refineryiq-system/telemetry"
)

// Aggregator builds per-entity feature vectors from the telemetry window
// store. Aggregation is pure: the same window contents always produce the
// same vector.
type Aggregator struct {
	store      *telemetry.Store
	window     time.Duration
	minSamples int
}

func NewAggregator(store *telemetry.Store, window time.Duration, minSamples int) *Aggregator {
	return &Aggregator{
		store:      store,
		window:     window,
		minSamples: minSamples,
	}
}

// FeatureVector assembles the fixed feature set (mean, std dev, min, max,
// rate of change) for each named feature from its tag series under unitID.
// Tags with fewer than minSamples good readings get an Insufficient slot
// instead of zeroed statistics.
func (a *Aggregator) FeatureVector(entityID, unitID string, tags map[string]string, now time.Time) models.FeatureVector {
	fv := models.FeatureVector{
		EntityID:    entityID,
		WindowStart: now.Add(-a.window),
		WindowEnd:   now,
		Features:    make(map[string]models.FeatureSlot, len(tags)),
	}

	// Iterate in a fixed order so float accumulation is reproducible.
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		points := a.store.WindowAt(unitID, tags[name], now, a.window)
		fv.Features[name] = a.slot(points)
	}

	return fv
}

// Slot aggregates a single tag series over [now-window, now].
func (a *Aggregator) Slot(unitID, tagID string, now time.Time) models.FeatureSlot {
	return a.slot(a.store.WindowAt(unitID, tagID, now, a.window))
}

// MeanValue returns the windowed mean of a single tag, with ok=false when
// the sample count is below the minimum.
func (a *Aggregator) MeanValue(unitID, tagID string, now time.Time) (float64, bool) {
	slot := a.Slot(unitID, tagID, now)
	if slot.Insufficient {
		return 0, false
	}
	return slot.Mean, true
}

// StdDev returns the windowed sample standard deviation of a single tag.
func (a *Aggregator) StdDev(unitID, tagID string, now time.Time) (float64, bool) {
	slot := a.Slot(unitID, tagID, now)
	if slot.Insufficient {
		return 0, false
	}
	return slot.StdDev, true
}

func (a *Aggregator) slot(points []telemetry.Point) models.FeatureSlot {
	n := len(points)
	if n < a.minSamples {
		return models.FeatureSlot{Samples: n, Insufficient: true}
	}

	var sum float64
	min := points[0].Value
	max := points[0].Value
	for _, p := range points {
		sum += p.Value
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
	}
	mean := sum / float64(n)

	var variance float64
	for _, p := range points {
		diff := p.Value - mean
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(n-1))

	// First-difference slope across the window, in units per hour.
	var roc float64
	first := points[0]
	last := points[n-1]
	if hours := last.Timestamp.Sub(first.Timestamp).Hours(); hours > 0 {
		roc = (last.Value - first.Value) / hours
	}

	return models.FeatureSlot{
		Mean:         mean,
		StdDev:       stdDev,
		Min:          min,
		Max:          max,
		RateOfChange: roc,
		Samples:      n,
	}
}

// Window exposes the aggregation window duration.
func (a *Aggregator) Window() time.Duration { return a.window }

// MinSamples exposes the minimum sample count for a usable slot.
func (a *Aggregator) MinSamples() int { return a.minSamples }
