package threat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aurahome/aura/pkg/models"
)

// maxThreatTypes bounds how many threat types an assessment may carry.
const maxThreatTypes = 2

// powerOutageDemandMW is the demand level above which grid strain is severe
// enough to also imply an outage risk. Matches the critical demand rung.
const powerOutageDemandMW = 85000

// Classify aggregates extracted indicators into a single assessment.
// Never errors: an empty indicator list yields a low-severity assessment.
func Classify(indicators []models.Indicator) models.ThreatAssessment {
	if len(indicators) == 0 {
		return models.ThreatAssessment{
			OverallLevel: models.SeverityLow,
			ThreatTypes:  []models.ThreatType{},
			Indicators:   []models.Indicator{},
			Confidence:   1.0,
			Summary:      "no threats detected, all readings within normal ranges",
		}
	}

	overall := models.SeverityLow
	confidence := 1.0
	for _, ind := range indicators {
		overall = models.MaxSeverity(overall, ind.Severity)
		if ind.Confidence < confidence {
			confidence = ind.Confidence
		}
	}
	confidence = clamp01(confidence)

	types := impliedThreats(indicators)

	return models.ThreatAssessment{
		OverallLevel: overall,
		ThreatTypes:  types,
		Indicators:   indicators,
		Confidence:   confidence,
		Summary:      summarize(overall, types, indicators),
	}
}

// Fallback returns the assessment used when no reading source was available
// at all. Distinct from Classify(nil): confidence is zero because the system
// saw no data, not because the data was benign.
func Fallback() models.ThreatAssessment {
	return models.ThreatAssessment{
		OverallLevel: models.SeverityLow,
		ThreatTypes:  []models.ThreatType{},
		Indicators:   []models.Indicator{},
		Confidence:   0,
		Summary:      "external data sources unavailable, assessment based on no readings",
	}
}

// impliedThreats maps indicator kinds to threat types, dedupes, and truncates
// to the top entries by fixed priority.
func impliedThreats(indicators []models.Indicator) []models.ThreatType {
	seen := map[models.ThreatType]bool{}
	add := func(t models.ThreatType) {
		seen[t] = true
	}

	for _, ind := range indicators {
		switch ind.Kind {
		case models.ReadingTemperatureF, models.ReadingHeatIndexF:
			add(models.ThreatHeatWave)
		case models.ReadingGridDemandMW:
			add(models.ThreatGridStrain)
			if ind.Value > powerOutageDemandMW {
				add(models.ThreatPowerOutage)
			}
		case models.ReadingWindSpeedMPH:
			add(models.ThreatPowerOutage)
		case models.ReadingReserveMarginPct:
			add(models.ThreatEnergyShortage)
		case models.ReadingGridFrequencyHz:
			add(models.ThreatGridStrain)
		case models.ReadingAirQualityIndex:
			add(models.ThreatAirQuality)
		}
	}

	types := make([]models.ThreatType, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].Priority() > types[j].Priority()
	})
	if len(types) > maxThreatTypes {
		types = types[:maxThreatTypes]
	}
	return types
}

func summarize(overall models.Severity, types []models.ThreatType, indicators []models.Indicator) string {
	if len(types) == 0 {
		return fmt.Sprintf("%s threat level, %d indicator(s), no named threat types", overall, len(indicators))
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return fmt.Sprintf("%s threat level: %s (%d indicator(s))", overall, strings.Join(names, ", "), len(indicators))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
