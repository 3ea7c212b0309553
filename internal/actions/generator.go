// Package actions derives device-control actions from a threat assessment.
// Each threat type has a hand-tuned tiering function keyed off the relevant
// indicator's raw value; overall-level overrides are appended last so their
// parameters win during deduplication.
package actions

import (
	"github.com/aurahome/aura/pkg/models"
)

// Generate maps a threat assessment to a deduplicated action list. An empty
// result is a legal no-op (no threats, no overrides), not a failure.
func Generate(assessment models.ThreatAssessment) []models.Action {
	var raw []models.Action

	for _, t := range assessment.ThreatTypes {
		switch t {
		case models.ThreatHeatWave:
			raw = append(raw, heatWaveActions(indicatorValue(assessment, models.ReadingTemperatureF))...)
		case models.ThreatGridStrain:
			raw = append(raw, gridStrainActions(indicatorValue(assessment, models.ReadingGridDemandMW))...)
		case models.ThreatPowerOutage:
			raw = append(raw, powerOutageActions()...)
		case models.ThreatEnergyShortage:
			raw = append(raw, energyShortageActions()...)
		}
	}

	switch assessment.OverallLevel {
	case models.SeverityCritical:
		raw = append(raw, criticalOverride()...)
	case models.SeverityHigh:
		raw = append(raw, highOverride()...)
	}

	return dedupe(raw)
}

// indicatorValue returns the raw value of the first indicator of the given
// kind, or zero when absent (the tier functions treat zero as the mildest
// tier).
func indicatorValue(a models.ThreatAssessment, kind models.ReadingKind) float64 {
	for _, ind := range a.Indicators {
		if ind.Kind == kind {
			return ind.Value
		}
	}
	return 0
}

func heatWaveActions(tempF float64) []models.Action {
	var targetTemp, reserve float64
	fanMode := "auto"
	switch {
	case tempF > 105:
		targetTemp, reserve, fanMode = 65, 40, "high"
	case tempF > 100:
		targetTemp, reserve, fanMode = 68, 30, "high"
	case tempF > 95:
		targetTemp, reserve = 70, 25
	case tempF > 90:
		targetTemp, reserve = 72, 20
	default:
		targetTemp, reserve = 74, 15
	}

	out := []models.Action{
		setAction(models.DeviceThermostat, map[string]any{
			"temperature_f": targetTemp,
			"mode":          "cool",
			"fan_mode":      fanMode,
		}, &targetTemp),
	}
	if tempF > 95 {
		out = append(out, setAction(models.DeviceBattery, map[string]any{
			"state_of_charge_pct": 100.0,
			"backup_reserve_pct":  reserve,
		}, nil))
	}
	return out
}

func gridStrainActions(demandMW float64) []models.Action {
	var soc, reserve float64
	var gridMode string
	sellAllowed := false
	switch {
	case demandMW > 80000:
		soc, reserve, gridMode = 100, 50, "backup_ready"
	case demandMW > 75000:
		soc, reserve, gridMode = 95, 40, "conservation"
	case demandMW > 70000:
		soc, reserve, gridMode = 90, 30, "monitoring"
		sellAllowed = true
	default:
		soc, reserve, gridMode = 80, 20, "normal"
		sellAllowed = true
	}

	out := []models.Action{
		setAction(models.DeviceBattery, map[string]any{
			"state_of_charge_pct": soc,
			"backup_reserve_pct":  reserve,
		}, nil),
		setAction(models.DeviceGrid, map[string]any{
			"connection_mode": gridMode,
		}, nil),
	}
	if sellAllowed && demandMW > 70000 {
		out = append(out, models.Action{
			DeviceType: models.DeviceGrid,
			ActionType: models.ActionAdjust,
			Parameters: map[string]any{
				"sell_energy_kwh":  3.0,
				"rate_usd_per_kwh": 0.95,
			},
		})
	}
	return out
}

func powerOutageActions() []models.Action {
	temp := 70.0
	return []models.Action{
		setAction(models.DeviceBattery, map[string]any{
			"state_of_charge_pct": 100.0,
			"backup_reserve_pct":  60.0,
		}, nil),
		setAction(models.DeviceThermostat, map[string]any{
			"temperature_f": temp,
			"mode":          "cool",
		}, &temp),
		setAction(models.DeviceGrid, map[string]any{
			"connection_mode": "outage_prep",
		}, nil),
	}
}

func energyShortageActions() []models.Action {
	return []models.Action{
		{
			DeviceType: models.DeviceGrid,
			ActionType: models.ActionAdjust,
			Parameters: map[string]any{
				"sell_energy_kwh":  5.0,
				"rate_usd_per_kwh": 1.20,
			},
		},
		setAction(models.DeviceBattery, map[string]any{
			"state_of_charge_pct": 85.0,
			"backup_reserve_pct":  25.0,
		}, nil),
	}
}

func criticalOverride() []models.Action {
	temp := 65.0
	return []models.Action{
		setAction(models.DeviceBattery, map[string]any{
			"state_of_charge_pct": 100.0,
			"backup_reserve_pct":  50.0,
		}, nil),
		setAction(models.DeviceThermostat, map[string]any{
			"temperature_f": temp,
			"mode":          "cool",
			"fan_mode":      "high",
		}, &temp),
		setAction(models.DeviceGrid, map[string]any{
			"connection_mode": "emergency",
		}, nil),
	}
}

func highOverride() []models.Action {
	temp := 68.0
	return []models.Action{
		setAction(models.DeviceBattery, map[string]any{
			"state_of_charge_pct": 95.0,
			"backup_reserve_pct":  35.0,
		}, nil),
		setAction(models.DeviceThermostat, map[string]any{
			"temperature_f": temp,
			"mode":          "cool",
		}, &temp),
	}
}

func setAction(device models.DeviceType, params map[string]any, target *float64) models.Action {
	return models.Action{
		DeviceType:  device,
		ActionType:  models.ActionSet,
		Parameters:  params,
		TargetValue: target,
	}
}

// dedupe collapses duplicate (device_type, action_type) pairs: the first
// occurrence fixes the output slot, the last occurrence supplies the value.
func dedupe(in []models.Action) []models.Action {
	out := make([]models.Action, 0, len(in))
	slots := make(map[models.ActionKey]int, len(in))
	for _, a := range in {
		if i, seen := slots[a.Key()]; seen {
			out[i] = a
			continue
		}
		slots[a.Key()] = len(out)
		out = append(out, a)
	}
	return out
}
