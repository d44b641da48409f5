package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/models"
)

// Attributor ranks each feature's contribution to a score. The concrete
// attribution algorithm is an implementation detail behind this interface;
// anything producing additive (feature, contribution) pairs plugs in.
type Attributor interface {
	Attribute(eq config.Equipment, fv models.FeatureVector) []models.Driver
}

// DeviationAttributor is a local linear attribution: each feature's
// contribution is its weighted deviation from nominal on the
// nominal-to-failure span. Contribution percentages are floored shares of
// the total attributed magnitude: flooring gives up a sliver of precision
// so that no subset of drivers can ever sum above 100.
type DeviationAttributor struct {
	profiles map[string]map[string]config.FeatureProfile
}

func NewDeviationAttributor(profiles map[string]map[string]config.FeatureProfile) *DeviationAttributor {
	return &DeviationAttributor{profiles: profiles}
}

func (a *DeviationAttributor) Attribute(eq config.Equipment, fv models.FeatureVector) []models.Driver {
	profile, ok := a.profiles[eq.Type]
	if !ok {
		return nil
	}

	type contribution struct {
		feature   string
		magnitude float64
		direction models.DriverDirection
	}

	contribs := make([]contribution, 0, len(fv.Features))
	var total float64

	names := make([]string, 0, len(fv.Features))
	for name := range fv.Features {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		slot := fv.Features[name]
		if slot.Insufficient {
			continue
		}
		fp, ok := profile[name]
		if !ok {
			continue
		}
		span := fp.FailureThreshold - fp.Nominal
		if span == 0 {
			continue
		}

		magnitude := math.Abs((slot.Mean-fp.Nominal)/span) * fp.Weight
		direction := models.DirectionIncrease
		if slot.RateOfChange < 0 {
			direction = models.DirectionDecrease
		}

		contribs = append(contribs, contribution{feature: name, magnitude: magnitude, direction: direction})
		total += magnitude
	}

	if total == 0 {
		return nil
	}

	drivers := make([]models.Driver, len(contribs))
	for i, c := range contribs {
		drivers[i] = models.Driver{
			Feature:         c.feature,
			ContributionPct: math.Floor(c.magnitude/total*1000) / 10,
			Direction:       c.direction,
		}
	}

	// Descending by contribution; ties broken by name for stable output.
	sort.Slice(drivers, func(i, j int) bool {
		if drivers[i].ContributionPct != drivers[j].ContributionPct {
			return drivers[i].ContributionPct > drivers[j].ContributionPct
		}
		return drivers[i].Feature < drivers[j].Feature
	})

	return drivers
}

// TopDrivers keeps the k largest contributions.
func TopDrivers(drivers []models.Driver, k int) []models.Driver {
	if len(drivers) <= k {
		return drivers
	}
	return drivers[:k]
}

// RUL brackets for maintenance recommendations, in hours.
const (
	rulCritical = 24
	rulWarning  = 72
	rulCaution  = 168
)

// Recommendation renders the maintenance advice for a prediction. The text
// is templated from the RUL bracket, the anomaly flag and the top driver,
// never free-form, so it is deterministic and testable.
func Recommendation(equipmentName string, rulHours *float64, isAnomaly bool, drivers []models.Driver) string {
	driverText := ""
	if len(drivers) > 0 {
		driverText = fmt.Sprintf(", driven by %s in %s", drivers[0].Direction, drivers[0].Feature)
	}

	if isAnomaly {
		return fmt.Sprintf("ZERO-DAY ANOMALY on %s: operating pattern unlike trained baseline%s. Immediate inspection required.",
			equipmentName, driverText)
	}

	if rulHours == nil {
		return fmt.Sprintf("%s shows no monotonic degradation trend. Continue routine monitoring.", equipmentName)
	}

	switch rul := *rulHours; {
	case rul < rulCritical:
		return fmt.Sprintf("STOP %s FOR IMMEDIATE MAINTENANCE. Estimated RUL %.0fh%s.", equipmentName, rul, driverText)
	case rul < rulWarning:
		return fmt.Sprintf("Schedule maintenance for %s within 24h. Estimated RUL %.0fh%s.", equipmentName, rul, driverText)
	case rul < rulCaution:
		return fmt.Sprintf("Monitor %s closely, moderate risk. Estimated RUL %.0fh%s.", equipmentName, rul, driverText)
	default:
		return fmt.Sprintf("%s operating normally. Estimated RUL %.0fh. Continue monitoring.", equipmentName, rul)
	}
}

// PredictionLabel is the coarse verdict shown next to the probability.
func PredictionLabel(failureProbability float64) string {
	if failureProbability >= 50 {
		return "IMMINENT FAILURE"
	}
	return "NORMAL OPERATION"
}
