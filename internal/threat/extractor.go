// Package threat converts raw environmental and grid readings into
// severity-tagged indicators and aggregates them into threat assessments.
package threat

import (
	"fmt"

	"github.com/aurahome/aura/pkg/models"
)

// rung is one step of a threshold ladder.
type rung struct {
	threshold  float64
	severity   models.Severity
	confidence float64
}

// ladder is an ordered set of rungs for one reading kind, most severe first.
// below=true means the reading trips a rung by falling under the threshold
// (reserve margin, grid frequency) instead of exceeding it.
type ladder struct {
	kind  models.ReadingKind
	unit  string
	below bool
	rungs []rung
}

var ladders = []ladder{
	{
		kind: models.ReadingTemperatureF,
		unit: "°F",
		rungs: []rung{
			{105, models.SeverityCritical, 0.95},
			{100, models.SeverityHigh, 0.85},
			{95, models.SeverityModerate, 0.75},
		},
	},
	{
		kind: models.ReadingGridDemandMW,
		unit: "MW",
		rungs: []rung{
			{85000, models.SeverityCritical, 0.90},
			{80000, models.SeverityHigh, 0.80},
			{75000, models.SeverityModerate, 0.70},
		},
	},
	{
		kind: models.ReadingHeatIndexF,
		unit: "°F",
		rungs: []rung{
			{110, models.SeverityCritical, 0.90},
			{105, models.SeverityHigh, 0.80},
			{100, models.SeverityModerate, 0.70},
		},
	},
	{
		kind: models.ReadingWindSpeedMPH,
		unit: "mph",
		rungs: []rung{
			{75, models.SeverityCritical, 0.90},
			{58, models.SeverityHigh, 0.80},
			{40, models.SeverityModerate, 0.70},
		},
	},
	{
		kind:  models.ReadingReserveMarginPct,
		unit:  "%",
		below: true,
		rungs: []rung{
			{3, models.SeverityCritical, 0.85},
			{5, models.SeverityHigh, 0.75},
			{7.5, models.SeverityModerate, 0.65},
		},
	},
	{
		kind:  models.ReadingGridFrequencyHz,
		unit:  "Hz",
		below: true,
		rungs: []rung{
			{59.80, models.SeverityCritical, 0.85},
			{59.91, models.SeverityHigh, 0.75},
			{59.95, models.SeverityModerate, 0.65},
		},
	},
	{
		kind: models.ReadingAirQualityIndex,
		unit: "AQI",
		rungs: []rung{
			{300, models.SeverityCritical, 0.85},
			{200, models.SeverityHigh, 0.75},
			{150, models.SeverityModerate, 0.65},
		},
	},
}

// Extract evaluates every present reading against its threshold ladder and
// returns the indicators that fire. A reading below its lowest rung produces
// no indicator at all. Missing readings are skipped. Pure function.
func Extract(readings models.ReadingSet) []models.Indicator {
	var out []models.Indicator
	for _, l := range ladders {
		value, ok := readings.Get(l.kind)
		if !ok {
			continue
		}
		for _, r := range l.rungs {
			if trips(value, r.threshold, l.below) {
				out = append(out, models.Indicator{
					Kind:        l.kind,
					Value:       value,
					Threshold:   r.threshold,
					Severity:    r.severity,
					Description: describe(l, value, r.threshold),
					Confidence:  r.confidence,
				})
				break
			}
		}
	}
	return out
}

func trips(value, threshold float64, below bool) bool {
	if below {
		return value < threshold
	}
	return value > threshold
}

func describe(l ladder, value, threshold float64) string {
	rel := "exceeds"
	if l.below {
		rel = "below"
	}
	return fmt.Sprintf("%s %.2f%s %s threshold %.2f%s", l.kind, value, l.unit, rel, threshold, l.unit)
}
