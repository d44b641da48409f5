package analytics

import (
	"errors"
	"math"
	"sort"

	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/models"
)

// Detector flags out-of-distribution operating states independently of the
// supervised risk score. A low failure probability with is_anomaly=true is
// a valid combination: the detector is the safety net for failure modes
// the supervised model was never trained on.
type Detector interface {
	Detect(eq config.Equipment, fv models.FeatureVector) (score float64, isAnomaly bool, err error)
}

// BaselineDetector measures the RMS z-distance of the current feature
// means from the normal-operation baseline (nominal value and volatility
// per feature) and flags an anomaly past the configured sigma threshold.
type BaselineDetector struct {
	profiles map[string]map[string]config.FeatureProfile
	sigma    float64
}

func NewBaselineDetector(profiles map[string]map[string]config.FeatureProfile, sigma float64) *BaselineDetector {
	return &BaselineDetector{profiles: profiles, sigma: sigma}
}

func (d *BaselineDetector) Detect(eq config.Equipment, fv models.FeatureVector) (float64, bool, error) {
	profile, ok := d.profiles[eq.Type]
	if !ok {
		return 0, false, &models.ModelUnavailableError{
			Model: "baseline_detector",
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

	var sumSq float64
	usable := 0
	for _, name := range names {
		slot := fv.Features[name]
		if slot.Insufficient {
			continue
		}
		fp := profile[name]
		vol := fp.Volatility
		if vol <= 0 {
			continue
		}
		z := (slot.Mean - fp.Nominal) / vol
		sumSq += z * z
		usable++
	}

	if usable == 0 {
		return 0, false, &models.UnscoreableEntityError{EntityID: eq.ID}
	}

	score := math.Sqrt(sumSq / float64(usable))
	return round2(score), score > d.sigma, nil
}
