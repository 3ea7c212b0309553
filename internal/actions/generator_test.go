package actions

import (
	"testing"

	"github.com/aurahome/aura/pkg/models"
)

func assessment(level models.Severity, types []models.ThreatType, inds ...models.Indicator) models.ThreatAssessment {
	return models.ThreatAssessment{
		OverallLevel: level,
		ThreatTypes:  types,
		Indicators:   inds,
		Confidence:   0.8,
	}
}

func indicator(kind models.ReadingKind, value float64) models.Indicator {
	return models.Indicator{Kind: kind, Value: value, Severity: models.SeverityHigh, Confidence: 0.8}
}

func findAction(t *testing.T, acts []models.Action, device models.DeviceType, action models.ActionType) models.Action {
	t.Helper()
	for _, a := range acts {
		if a.DeviceType == device && a.ActionType == action {
			return a
		}
	}
	t.Fatalf("no action for (%s, %s) in %v", device, action, acts)
	return models.Action{}
}

func TestGenerateNoThreatsIsNoOp(t *testing.T) {
	acts := Generate(assessment(models.SeverityLow, nil))
	if len(acts) != 0 {
		t.Fatalf("expected empty action list, got %d actions", len(acts))
	}
}

func TestGenerateNoDuplicatePairs(t *testing.T) {
	acts := Generate(assessment(
		models.SeverityCritical,
		[]models.ThreatType{models.ThreatHeatWave, models.ThreatGridStrain},
		indicator(models.ReadingTemperatureF, 106),
		indicator(models.ReadingGridDemandMW, 86000),
	))
	seen := map[models.ActionKey]bool{}
	for _, a := range acts {
		if seen[a.Key()] {
			t.Fatalf("duplicate (device, action) pair: %v", a.Key())
		}
		seen[a.Key()] = true
	}
}

func TestGenerateDedupFirstSlotLastValue(t *testing.T) {
	// Heat wave emits a thermostat set first; the critical override emits
	// another. The thermostat action must stay in its original slot but
	// carry the override's parameters.
	acts := Generate(assessment(
		models.SeverityCritical,
		[]models.ThreatType{models.ThreatHeatWave},
		indicator(models.ReadingTemperatureF, 102),
	))
	if acts[0].DeviceType != models.DeviceThermostat {
		t.Fatalf("first slot = %s, want thermostat", acts[0].DeviceType)
	}
	if got := acts[0].Parameters["temperature_f"]; got != 65.0 {
		t.Errorf("thermostat temperature = %v, want 65 (override value)", got)
	}
}

func TestGenerateHeatWaveTiers(t *testing.T) {
	cases := []struct {
		temp        float64
		targetTemp  float64
		fanMode     string
		wantBattery bool
		reserve     float64
	}{
		{106, 65, "high", true, 40},
		{101, 68, "high", true, 30},
		{96, 70, "auto", true, 25},
		{91, 72, "auto", false, 0},
		{80, 74, "auto", false, 0},
	}
	for _, tc := range cases {
		acts := Generate(assessment(
			models.SeverityModerate,
			[]models.ThreatType{models.ThreatHeatWave},
			indicator(models.ReadingTemperatureF, tc.temp),
		))
		th := findAction(t, acts, models.DeviceThermostat, models.ActionSet)
		if th.Parameters["temperature_f"] != tc.targetTemp {
			t.Errorf("temp %.0f: target = %v, want %.0f", tc.temp, th.Parameters["temperature_f"], tc.targetTemp)
		}
		if th.Parameters["fan_mode"] != tc.fanMode {
			t.Errorf("temp %.0f: fan_mode = %v, want %s", tc.temp, th.Parameters["fan_mode"], tc.fanMode)
		}
		hasBattery := false
		for _, a := range acts {
			if a.DeviceType == models.DeviceBattery {
				hasBattery = true
				if a.Parameters["backup_reserve_pct"] != tc.reserve {
					t.Errorf("temp %.0f: reserve = %v, want %.0f", tc.temp, a.Parameters["backup_reserve_pct"], tc.reserve)
				}
			}
		}
		if hasBattery != tc.wantBattery {
			t.Errorf("temp %.0f: battery action present = %v, want %v", tc.temp, hasBattery, tc.wantBattery)
		}
	}
}

func TestGenerateGridStrainSaleSuppression(t *testing.T) {
	cases := []struct {
		demand   float64
		gridMode string
		wantSale bool
	}{
		{86000, "backup_ready", false},
		{78000, "conservation", false},
		{72000, "monitoring", true},
		{65000, "normal", false}, // sale allowed but demand not above 70000
	}
	for _, tc := range cases {
		acts := Generate(assessment(
			models.SeverityModerate,
			[]models.ThreatType{models.ThreatGridStrain},
			indicator(models.ReadingGridDemandMW, tc.demand),
		))
		grid := findAction(t, acts, models.DeviceGrid, models.ActionSet)
		if grid.Parameters["connection_mode"] != tc.gridMode {
			t.Errorf("demand %.0f: mode = %v, want %s", tc.demand, grid.Parameters["connection_mode"], tc.gridMode)
		}
		hasSale := false
		for _, a := range acts {
			if a.DeviceType == models.DeviceGrid && a.ActionType == models.ActionAdjust {
				hasSale = true
				if a.Parameters["sell_energy_kwh"] != 3.0 || a.Parameters["rate_usd_per_kwh"] != 0.95 {
					t.Errorf("demand %.0f: sale params = %v", tc.demand, a.Parameters)
				}
			}
		}
		if hasSale != tc.wantSale {
			t.Errorf("demand %.0f: sale present = %v, want %v", tc.demand, hasSale, tc.wantSale)
		}
	}
}

func TestGenerateEndToEndCriticalScenario(t *testing.T) {
	// Heat wave at 106°F with grid demand 82000 MW: critical override wins
	// the thermostat slot, grid stays in backup_ready, and the high demand
	// suppresses the energy sale.
	acts := Generate(assessment(
		models.SeverityCritical,
		[]models.ThreatType{models.ThreatGridStrain, models.ThreatHeatWave},
		indicator(models.ReadingTemperatureF, 106),
		indicator(models.ReadingGridDemandMW, 82000),
	))

	th := findAction(t, acts, models.DeviceThermostat, models.ActionSet)
	if th.Parameters["temperature_f"] != 65.0 || th.Parameters["fan_mode"] != "high" {
		t.Errorf("thermostat params = %v, want 65°F fan high", th.Parameters)
	}

	bat := findAction(t, acts, models.DeviceBattery, models.ActionSet)
	if bat.Parameters["state_of_charge_pct"] != 100.0 || bat.Parameters["backup_reserve_pct"] != 50.0 {
		t.Errorf("battery params = %v, want soc 100 reserve 50", bat.Parameters)
	}

	grid := findAction(t, acts, models.DeviceGrid, models.ActionSet)
	if grid.Parameters["connection_mode"] != "emergency" {
		t.Errorf("grid mode = %v, want emergency (critical override)", grid.Parameters["connection_mode"])
	}

	for _, a := range acts {
		if a.DeviceType == models.DeviceGrid && a.ActionType == models.ActionAdjust {
			t.Errorf("unexpected energy sale at demand 82000: %v", a.Parameters)
		}
	}
}

func TestGeneratePowerOutageAndEnergyShortage(t *testing.T) {
	acts := Generate(assessment(
		models.SeverityModerate,
		[]models.ThreatType{models.ThreatPowerOutage},
	))
	bat := findAction(t, acts, models.DeviceBattery, models.ActionSet)
	if bat.Parameters["backup_reserve_pct"] != 60.0 {
		t.Errorf("outage reserve = %v, want 60", bat.Parameters["backup_reserve_pct"])
	}
	grid := findAction(t, acts, models.DeviceGrid, models.ActionSet)
	if grid.Parameters["connection_mode"] != "outage_prep" {
		t.Errorf("outage grid mode = %v, want outage_prep", grid.Parameters["connection_mode"])
	}

	acts = Generate(assessment(
		models.SeverityModerate,
		[]models.ThreatType{models.ThreatEnergyShortage},
	))
	sale := findAction(t, acts, models.DeviceGrid, models.ActionAdjust)
	if sale.Parameters["sell_energy_kwh"] != 5.0 || sale.Parameters["rate_usd_per_kwh"] != 1.20 {
		t.Errorf("shortage sale params = %v, want 5 kWh at 1.20", sale.Parameters)
	}
}
