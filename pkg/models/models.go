// Package models defines the shared domain types for the AURA control plane:
// environmental readings, threat indicators and assessments, device actions,
// the home digital twin, and the telephony call-lifecycle records.
package models

import "time"

// ── Severity ────────────────────────────────────────────────

// Severity classifies how serious an indicator or assessment is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering of a severity (low < moderate < high < critical).
// Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityModerate:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// MaxSeverity returns the higher-ranked of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ── Threat types ────────────────────────────────────────────

// ThreatType names a category of environmental/grid threat.
type ThreatType string

const (
	ThreatHeatWave       ThreatType = "heat_wave"
	ThreatGridStrain     ThreatType = "grid_strain"
	ThreatPowerOutage    ThreatType = "power_outage"
	ThreatEnergyShortage ThreatType = "energy_shortage"
	ThreatAirQuality     ThreatType = "air_quality"
)

// Priority returns the fixed ordering used to truncate threat sets:
// power_outage > grid_strain > heat_wave > air_quality > energy_shortage.
func (t ThreatType) Priority() int {
	switch t {
	case ThreatPowerOutage:
		return 5
	case ThreatGridStrain:
		return 4
	case ThreatHeatWave:
		return 3
	case ThreatAirQuality:
		return 2
	case ThreatEnergyShortage:
		return 1
	}
	return 0
}

// ── Readings ────────────────────────────────────────────────

// ReadingKind identifies one numeric environmental or grid measurement.
type ReadingKind string

const (
	ReadingTemperatureF     ReadingKind = "temperature_f"
	ReadingHumidityPct      ReadingKind = "humidity_pct"
	ReadingHeatIndexF       ReadingKind = "heat_index_f"
	ReadingWindSpeedMPH     ReadingKind = "wind_speed_mph"
	ReadingGridDemandMW     ReadingKind = "grid_demand_mw"
	ReadingGridFrequencyHz  ReadingKind = "grid_frequency_hz"
	ReadingReserveMarginPct ReadingKind = "reserve_margin_pct"
	ReadingAirQualityIndex  ReadingKind = "air_quality_index"
)

// Reading source tags. Callers can distinguish live provider data from the
// synthetic fallback set, but the pipeline treats both identically.
const (
	SourceWeatherAPI = "openweathermap"
	SourceGridAPI    = "eia"
	SourceFallback   = "fallback"
)

// ReadingSet is the flat set of readings available for one assessment.
// A missing reading is simply absent from Values, never zero.
type ReadingSet struct {
	Location  string                  `json:"location"`
	Values    map[ReadingKind]float64 `json:"values"`
	Sources   map[string]string       `json:"sources,omitempty"` // group ("weather", "grid") → source tag
	FetchedAt time.Time               `json:"fetched_at"`
}

// Get returns the value for a kind and whether it was present.
func (r ReadingSet) Get(kind ReadingKind) (float64, bool) {
	v, ok := r.Values[kind]
	return v, ok
}

// ── Indicators & assessments ────────────────────────────────

// Indicator is a single threshold-evaluated observation. Immutable once
// produced by the extractor.
type Indicator struct {
	Kind        ReadingKind `json:"kind"`
	Value       float64     `json:"value"`
	Threshold   float64     `json:"threshold"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	Confidence  float64     `json:"confidence"` // [0,1]
}

// ThreatAssessment is the aggregated output of all indicators for one
// analysis request. Created fresh per request and never mutated after.
type ThreatAssessment struct {
	OverallLevel Severity     `json:"overall_level"`
	ThreatTypes  []ThreatType `json:"threat_types"` // capped at 2 by priority
	Indicators   []Indicator  `json:"indicators"`
	Confidence   float64      `json:"confidence"` // [0,1]
	Summary      string       `json:"summary"`
}

// HasThreats reports whether the assessment named any threat types.
func (a ThreatAssessment) HasThreats() bool {
	return len(a.ThreatTypes) > 0
}

// HasThreat reports whether the assessment contains the given threat type.
func (a ThreatAssessment) HasThreat(t ThreatType) bool {
	for _, tt := range a.ThreatTypes {
		if tt == t {
			return true
		}
	}
	return false
}

// AssessmentRequest is the inbound shape for a threat analysis. Readings may
// be supplied directly (optionally partial); when absent the service fetches
// from the configured providers.
type AssessmentRequest struct {
	Location  string                  `json:"location"`
	Readings  map[ReadingKind]float64 `json:"readings,omitempty"`
	RequestID string                  `json:"request_id,omitempty"`
}

// AssessmentResult wraps an assessment with request metadata.
type AssessmentResult struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	Assessment       ThreatAssessment `json:"assessment"`
	Readings         ReadingSet       `json:"readings"`
	RequestID        string           `json:"request_id,omitempty"`
	ProcessingTimeMS float64          `json:"processing_time_ms"`
	Timestamp        time.Time        `json:"timestamp"`
}

// ── Devices & actions ───────────────────────────────────────

// DeviceType names a controllable home device.
type DeviceType string

const (
	DeviceThermostat DeviceType = "thermostat"
	DeviceBattery    DeviceType = "battery"
	DeviceSolar      DeviceType = "solar"
	DeviceGrid       DeviceType = "grid"
)

// ActionType names the operation performed on a device.
type ActionType string

const (
	ActionRead   ActionType = "read"
	ActionSet    ActionType = "set"
	ActionToggle ActionType = "toggle"
	ActionAdjust ActionType = "adjust"
)

// Action is a single device-control instruction.
type Action struct {
	DeviceType  DeviceType     `json:"device_type"`
	ActionType  ActionType     `json:"action_type"`
	Parameters  map[string]any `json:"parameters"`
	TargetValue *float64       `json:"target_value,omitempty"`
}

// ActionKey is the dedup identity of an action.
type ActionKey struct {
	Device DeviceType
	Action ActionType
}

// Key returns the action's dedup identity.
func (a Action) Key() ActionKey {
	return ActionKey{Device: a.DeviceType, Action: a.ActionType}
}

// ActionResult records the outcome of applying one action.
type ActionResult struct {
	Action        Action         `json:"action"`
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	PreviousValue map[string]any `json:"previous_value,omitempty"`
	NewValue      map[string]any `json:"new_value,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// ActionBatchRequest is the inbound shape for a device-state apply.
type ActionBatchRequest struct {
	Actions   []Action `json:"actions"`
	RequestID string   `json:"request_id,omitempty"`
}

// ActionBatchResult is the apply response, including the full home state.
type ActionBatchResult struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message"`
	HomeState        HomeState      `json:"home_state"`
	ActionResults    []ActionResult `json:"action_results"`
	RequestID        string         `json:"request_id,omitempty"`
	ProcessingTimeMS float64        `json:"processing_time_ms"`
	Timestamp        time.Time      `json:"timestamp"`
}

// ── Home state ──────────────────────────────────────────────

// DeviceState is the current state of one device, keyed by device type
// inside HomeState.
type DeviceState struct {
	DeviceType  DeviceType     `json:"device_type"`
	Status      string         `json:"status"`
	Properties  map[string]any `json:"properties"`
	LastUpdated time.Time      `json:"last_updated"`
}

// HomeMetadata identifies the home.
type HomeMetadata struct {
	HomeID   string `json:"home_id"`
	Location string `json:"location"`
	Owner    string `json:"owner,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// FinancialData tracks the energy-trading ledger.
type FinancialData struct {
	ProfitTodayUSD          float64 `json:"profit_today_usd"`
	EnergyCostSavingsUSD    float64 `json:"energy_cost_savings_usd"`
	TotalEnergySoldKWH      float64 `json:"total_energy_sold_kwh"`
	TotalEnergyPurchasedKWH float64 `json:"total_energy_purchased_kwh"`
}

// HomeState is the complete digital twin of the home. Created once at
// provisioning and mutated only through validated applies.
type HomeState struct {
	Metadata    HomeMetadata               `json:"metadata"`
	Devices     map[DeviceType]DeviceState `json:"devices"`
	Financials  FinancialData              `json:"financials"`
	LastUpdated time.Time                  `json:"last_updated"`
}

// Device returns the state for a device type, if present.
func (h HomeState) Device(dt DeviceType) (DeviceState, bool) {
	d, ok := h.Devices[dt]
	return d, ok
}

// Clone returns a deep copy of the home state.
func (h HomeState) Clone() HomeState {
	cp := h
	cp.Devices = make(map[DeviceType]DeviceState, len(h.Devices))
	for dt, d := range h.Devices {
		dc := d
		dc.Properties = make(map[string]any, len(d.Properties))
		for k, v := range d.Properties {
			dc.Properties[k] = v
		}
		cp.Devices[dt] = dc
	}
	return cp
}

// ── Homeowners ──────────────────────────────────────────────

// Homeowner is a registered recipient of warning/resolution calls.
type Homeowner struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PhoneNumber  string    `json:"phone_number"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ── Telephony webhook ───────────────────────────────────────

// Webhook message types and ended reasons from the telephony provider.
const (
	WebhookEndOfCallReport = "end-of-call-report"
	WebhookStatusUpdate    = "status-update"

	EndedReasonVoicemail        = "voicemail"
	EndedReasonCustomerNoAnswer = "customer-did-not-answer"
	EndedReasonAssistantEnded   = "assistant-ended-call"
	EndedReasonCustomerEnded    = "customer-ended-call"
)

// WebhookEvent is the inbound provider callback payload.
type WebhookEvent struct {
	Message struct {
		Type   string `json:"type"`
		Status string `json:"status,omitempty"`
		Call   struct {
			ID       string `json:"id"`
			Customer struct {
				Number string `json:"number"`
			} `json:"customer"`
		} `json:"call"`
		EndedReason string `json:"endedReason,omitempty"`
	} `json:"message"`
}

// Webhook acknowledgment tokens. The handler always responds HTTP 200 with
// one of these; business-logic outcomes never produce a non-2xx.
const (
	WebhookAcknowledged   = "acknowledged"
	WebhookSkipped        = "skipped"
	WebhookNotWarningCall = "not_warning_call"
	WebhookAlreadyQueued  = "already_queued"
	WebhookProcessed      = "processed"
	WebhookError          = "error"
)

// CallPhase is the lifecycle phase of a tracked call.
type CallPhase string

const (
	CallPlaced            CallPhase = "placed"
	CallEnded             CallPhase = "ended"
	CallSkipped           CallPhase = "skipped"
	CallFollowUpQueued    CallPhase = "follow_up_queued"
	CallFollowUpProcessed CallPhase = "follow_up_processed"
)
