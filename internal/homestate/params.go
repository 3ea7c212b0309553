// Package homestate owns the home digital twin: a mutex-guarded store of
// per-device states plus the energy-trading ledger, mutated only through
// validated action batches.
package homestate

import (
	"fmt"

	"github.com/aurahome/aura/pkg/models"
)

// Device property bounds.
const (
	MinThermostatF = 60.0
	MaxThermostatF = 90.0

	MinBatteryPct = 0.0
	MaxBatteryPct = 100.0

	MinSolarKW = 0.0
	MaxSolarKW = 50.0
)

var thermostatModes = map[string]bool{
	"heat": true, "cool": true, "auto": true, "off": true,
}

var fanModes = map[string]bool{
	"auto": true, "on": true, "circulate": true, "high": true,
}

var gridModes = map[string]bool{
	"connected": true, "disconnected": true, "maintenance": true,
	"normal": true, "monitoring": true, "conservation": true,
	"backup_ready": true, "outage_prep": true, "emergency": true,
}

// ValidationError reports an out-of-bounds or malformed action parameter.
type ValidationError struct {
	Device models.DeviceType
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Device, e.Field, e.Reason)
}

func invalid(device models.DeviceType, field, format string, args ...any) error {
	return &ValidationError{Device: device, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// deviceParams is a validated, typed view of one action's parameter map.
// Constructed only through parseParams, so a held value is always in bounds.
type deviceParams interface {
	properties() map[string]any
}

// ThermostatParams are validated thermostat settings. Nil fields were absent
// from the action.
type ThermostatParams struct {
	TemperatureF *float64
	Mode         *string
	FanMode      *string
}

func (p ThermostatParams) properties() map[string]any {
	out := map[string]any{}
	if p.TemperatureF != nil {
		out["temperature_f"] = *p.TemperatureF
		out["target_temperature_f"] = *p.TemperatureF
	}
	if p.Mode != nil {
		out["mode"] = *p.Mode
	}
	if p.FanMode != nil {
		out["fan_mode"] = *p.FanMode
	}
	return out
}

// BatteryParams are validated battery settings.
type BatteryParams struct {
	StateOfChargePct *float64
	BackupReservePct *float64
}

func (p BatteryParams) properties() map[string]any {
	out := map[string]any{}
	if p.StateOfChargePct != nil {
		out["state_of_charge_pct"] = *p.StateOfChargePct
	}
	if p.BackupReservePct != nil {
		out["backup_reserve_pct"] = *p.BackupReservePct
	}
	return out
}

// SolarParams are validated solar settings.
type SolarParams struct {
	ProductionKW  *float64
	EfficiencyPct *float64
}

func (p SolarParams) properties() map[string]any {
	out := map[string]any{}
	if p.ProductionKW != nil {
		out["current_production_kw"] = *p.ProductionKW
	}
	if p.EfficiencyPct != nil {
		out["efficiency_pct"] = *p.EfficiencyPct
	}
	return out
}

// GridParams are validated grid settings. A sale requires both SellEnergyKWH
// and RateUSDPerKWH; the store credits the financial ledger when both are set.
type GridParams struct {
	ConnectionMode *string
	SellEnergyKWH  *float64
	RateUSDPerKWH  *float64
}

func (p GridParams) properties() map[string]any {
	out := map[string]any{}
	if p.ConnectionMode != nil {
		out["connection_mode"] = *p.ConnectionMode
	}
	if p.SellEnergyKWH != nil {
		out["sell_energy_kwh"] = *p.SellEnergyKWH
	}
	if p.RateUSDPerKWH != nil {
		out["rate_usd_per_kwh"] = *p.RateUSDPerKWH
	}
	return out
}

// isSale reports whether the params describe a complete energy sale.
func (p GridParams) isSale() bool {
	return p.SellEnergyKWH != nil && p.RateUSDPerKWH != nil
}

// parseParams validates an action's raw parameter map into a typed struct.
// Every field is checked at construction; callers never see a params value
// that violates the bound table.
func parseParams(a models.Action) (deviceParams, error) {
	switch a.DeviceType {
	case models.DeviceThermostat:
		return parseThermostat(a)
	case models.DeviceBattery:
		return parseBattery(a)
	case models.DeviceSolar:
		return parseSolar(a)
	case models.DeviceGrid:
		return parseGrid(a)
	}
	return nil, invalid(a.DeviceType, "device_type", "unknown device type")
}

func parseThermostat(a models.Action) (ThermostatParams, error) {
	var p ThermostatParams
	if v, ok, err := floatParam(a, "temperature_f"); err != nil {
		return p, err
	} else if ok {
		if v < MinThermostatF || v > MaxThermostatF {
			return p, invalid(a.DeviceType, "temperature_f", "%.1f°F outside %.0f-%.0f°F", v, MinThermostatF, MaxThermostatF)
		}
		p.TemperatureF = &v
	}
	if v, ok, err := stringParam(a, "mode"); err != nil {
		return p, err
	} else if ok {
		if !thermostatModes[v] {
			return p, invalid(a.DeviceType, "mode", "unknown mode %q", v)
		}
		p.Mode = &v
	}
	if v, ok, err := stringParam(a, "fan_mode"); err != nil {
		return p, err
	} else if ok {
		if !fanModes[v] {
			return p, invalid(a.DeviceType, "fan_mode", "unknown fan mode %q", v)
		}
		p.FanMode = &v
	}
	return p, nil
}

func parseBattery(a models.Action) (BatteryParams, error) {
	var p BatteryParams
	if v, ok, err := floatParam(a, "state_of_charge_pct"); err != nil {
		return p, err
	} else if ok {
		if v < MinBatteryPct || v > MaxBatteryPct {
			return p, invalid(a.DeviceType, "state_of_charge_pct", "%.1f%% outside 0-100%%", v)
		}
		p.StateOfChargePct = &v
	}
	if v, ok, err := floatParam(a, "backup_reserve_pct"); err != nil {
		return p, err
	} else if ok {
		if v < MinBatteryPct || v > MaxBatteryPct {
			return p, invalid(a.DeviceType, "backup_reserve_pct", "%.1f%% outside 0-100%%", v)
		}
		p.BackupReservePct = &v
	}
	return p, nil
}

func parseSolar(a models.Action) (SolarParams, error) {
	var p SolarParams
	if v, ok, err := floatParam(a, "current_production_kw"); err != nil {
		return p, err
	} else if ok {
		if v < MinSolarKW || v > MaxSolarKW {
			return p, invalid(a.DeviceType, "current_production_kw", "%.1fkW outside %.0f-%.0fkW", v, MinSolarKW, MaxSolarKW)
		}
		p.ProductionKW = &v
	}
	if v, ok, err := floatParam(a, "efficiency_pct"); err != nil {
		return p, err
	} else if ok {
		if v < 0 || v > 100 {
			return p, invalid(a.DeviceType, "efficiency_pct", "%.1f%% outside 0-100%%", v)
		}
		p.EfficiencyPct = &v
	}
	return p, nil
}

func parseGrid(a models.Action) (GridParams, error) {
	var p GridParams
	if v, ok, err := stringParam(a, "connection_mode"); err != nil {
		return p, err
	} else if ok {
		if !gridModes[v] {
			return p, invalid(a.DeviceType, "connection_mode", "unknown mode %q", v)
		}
		p.ConnectionMode = &v
	}
	if v, ok, err := floatParam(a, "sell_energy_kwh"); err != nil {
		return p, err
	} else if ok {
		if v < 0 {
			return p, invalid(a.DeviceType, "sell_energy_kwh", "cannot be negative")
		}
		p.SellEnergyKWH = &v
	}
	if v, ok, err := floatParam(a, "rate_usd_per_kwh"); err != nil {
		return p, err
	} else if ok {
		if v < 0 {
			return p, invalid(a.DeviceType, "rate_usd_per_kwh", "cannot be negative")
		}
		p.RateUSDPerKWH = &v
	}
	return p, nil
}

func floatParam(a models.Action, key string) (float64, bool, error) {
	raw, ok := a.Parameters[key]
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	}
	return 0, false, invalid(a.DeviceType, key, "expected number, got %T", raw)
}

func stringParam(a models.Action, key string) (string, bool, error) {
	raw, ok := a.Parameters[key]
	if !ok {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, invalid(a.DeviceType, key, "expected string, got %T", raw)
	}
	return s, true, nil
}
