package analytics

import (
	"errors"
	"math"
	"sort"

	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/models"
)

// RiskScore is the supervised scoring output for one equipment.
type RiskScore struct {
	FailureProbability float64
	RULHours           *float64
	Confidence         float64
}

// Scorer produces a failure probability from an equipment feature vector.
// Implementations must be monotonic in degradation-direction features,
// bounded to [0,100], and deterministic for identical input. The active
// scorer can be swapped atomically at runtime (trained offline models plug
// in here).
type Scorer interface {
	Name() string
	Score(eq config.Equipment, fv models.FeatureVector) (RiskScore, error)
}

// ProfileScorer is the baseline scoring function: each feature's mean is
// mapped to a degradation ratio on its nominal-to-failure span, ratios are
// weight-averaged and squashed through a logistic curve.
type ProfileScorer struct {
	profiles map[string]map[string]config.FeatureProfile

	// logistic shape: probability = 100 / (1 + exp(-steepness*(s - midpoint)))
	steepness float64
	midpoint  float64
}

func NewProfileScorer(profiles map[string]map[string]config.FeatureProfile) *ProfileScorer {
	return &ProfileScorer{
		profiles:  profiles,
		steepness: 6.0,
		midpoint:  0.5,
	}
}

func (p *ProfileScorer) Name() string { return "profile_baseline_v1" }

func (p *ProfileScorer) Score(eq config.Equipment, fv models.FeatureVector) (RiskScore, error) {
	profile, ok := p.profiles[eq.Type]
	if !ok {
		return RiskScore{}, &models.ModelUnavailableError{
			Model: p.Name(),
			Cause: errors.New("no profile for equipment type " + eq.Type),
		}
	}

	names := make([]string, 0, len(fv.Features))
	for name := range fv.Features {
		if _, ok := profile[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var (
		weighted  float64
		weightSum float64
		usable    int

		dominantRatio float64
		dominantRUL   float64
		haveRUL       bool
	)

	for _, name := range names {
		slot := fv.Features[name]
		if slot.Insufficient {
			continue
		}
		fp := profile[name]
		span := fp.FailureThreshold - fp.Nominal
		if span == 0 {
			continue
		}
		usable++

		ratio := clamp((slot.Mean-fp.Nominal)/span, 0, 1.5)
		weighted += ratio * fp.Weight
		weightSum += fp.Weight

		// RUL: linear extrapolation of the dominant degrading feature's
		// rate-of-change out to its failure threshold. Only features moving
		// monotonically toward failure qualify.
		towardFailure := slot.RateOfChange / span // span fractions per hour
		if towardFailure > 1e-9 && ratio >= dominantRatio {
			remaining := (1 - clamp(ratio, 0, 1)) / towardFailure
			if remaining < 0 {
				remaining = 0
			}
			dominantRatio = ratio
			dominantRUL = remaining
			haveRUL = true
		}
	}

	if usable == 0 {
		return RiskScore{}, &models.UnscoreableEntityError{EntityID: eq.ID}
	}

	severity := weighted / weightSum
	probability := 100 / (1 + math.Exp(-p.steepness*(severity-p.midpoint)))

	score := RiskScore{
		FailureProbability: round2(probability),
		Confidence:         round2(float64(usable) / float64(len(names)) * 100),
	}
	if haveRUL {
		rul := round2(dominantRUL)
		score.RULHours = &rul
	}
	return score, nil
}
