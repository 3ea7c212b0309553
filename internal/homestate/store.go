package homestate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aurahome/aura/pkg/models"
	"github.com/rs/zerolog/log"
)

// historyLimit bounds the retained state snapshots.
const historyLimit = 1000

// Store holds the home digital twin. All mutation goes through Apply, which
// validates the full batch before committing anything, so a failed batch
// leaves the state untouched.
type Store struct {
	mu      sync.Mutex
	homeID  string
	loc     string
	state   models.HomeState
	history []models.HomeState
}

// NewStore provisions a store with the default device states for the home.
func NewStore(homeID, location string) *Store {
	s := &Store{homeID: homeID, loc: location}
	s.state = s.provisionedState()
	return s
}

func (s *Store) provisionedState() models.HomeState {
	now := time.Now().UTC()
	return models.HomeState{
		Metadata: models.HomeMetadata{
			HomeID:   s.homeID,
			Location: s.loc,
			Timezone: "America/Chicago",
		},
		Devices: map[models.DeviceType]models.DeviceState{
			models.DeviceThermostat: {
				DeviceType: models.DeviceThermostat,
				Status:     "active",
				Properties: map[string]any{
					"temperature_f":        72.0,
					"target_temperature_f": 72.0,
					"mode":                 "cool",
					"fan_mode":             "auto",
				},
				LastUpdated: now,
			},
			models.DeviceBattery: {
				DeviceType: models.DeviceBattery,
				Status:     "active",
				Properties: map[string]any{
					"state_of_charge_pct": 45.0,
					"backup_reserve_pct":  20.0,
				},
				LastUpdated: now,
			},
			models.DeviceSolar: {
				DeviceType: models.DeviceSolar,
				Status:     "active",
				Properties: map[string]any{
					"current_production_kw": 0.0,
					"efficiency_pct":        92.0,
				},
				LastUpdated: now,
			},
			models.DeviceGrid: {
				DeviceType: models.DeviceGrid,
				Status:     "active",
				Properties: map[string]any{
					"connection_mode":  "connected",
					"sell_energy_kwh":  0.0,
					"rate_usd_per_kwh": 0.0,
				},
				LastUpdated: now,
			},
		},
		Financials:  models.FinancialData{},
		LastUpdated: now,
	}
}

// State returns a deep copy of the current home state.
func (s *Store) State() models.HomeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Apply validates every action in the batch, then commits them all in order.
// Any validation failure rejects the whole batch with no side effects. Apply
// serializes with concurrent applies on the same store.
func (s *Store) Apply(ctx context.Context, actions []models.Action) ([]models.ActionResult, models.HomeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, s.state.Clone(), err
	}

	// Validate the full batch before touching state.
	parsed := make([]deviceParams, len(actions))
	for i, a := range actions {
		p, err := parseParams(a)
		if err != nil {
			return nil, s.state.Clone(), fmt.Errorf("action %d rejected: %w", i, err)
		}
		parsed[i] = p
	}

	s.snapshot()

	now := time.Now().UTC()
	results := make([]models.ActionResult, 0, len(actions))
	for i, a := range actions {
		prev := cloneProps(s.state.Devices[a.DeviceType].Properties)
		s.commit(a.DeviceType, parsed[i], now)

		if gp, ok := parsed[i].(GridParams); ok && gp.isSale() {
			proceeds := *gp.SellEnergyKWH * *gp.RateUSDPerKWH
			s.state.Financials.ProfitTodayUSD += proceeds
			s.state.Financials.TotalEnergySoldKWH += *gp.SellEnergyKWH
			log.Info().
				Float64("kwh", *gp.SellEnergyKWH).
				Float64("rate", *gp.RateUSDPerKWH).
				Float64("proceeds", proceeds).
				Msg("energy sold to grid")
		}

		results = append(results, models.ActionResult{
			Action:        a,
			Success:       true,
			Message:       fmt.Sprintf("%s %s applied", a.DeviceType, a.ActionType),
			PreviousValue: prev,
			NewValue:      cloneProps(s.state.Devices[a.DeviceType].Properties),
			Timestamp:     now,
		})
	}
	s.state.LastUpdated = now

	return results, s.state.Clone(), nil
}

// commit merges validated properties into a device, creating the device
// entry if the batch targets one the twin does not know yet.
func (s *Store) commit(dt models.DeviceType, p deviceParams, now time.Time) {
	dev, ok := s.state.Devices[dt]
	if !ok {
		dev = models.DeviceState{DeviceType: dt, Status: "active", Properties: map[string]any{}}
	}
	for k, v := range p.properties() {
		dev.Properties[k] = v
	}
	dev.LastUpdated = now
	s.state.Devices[dt] = dev
}

// snapshot appends the current state to the bounded history ring.
func (s *Store) snapshot() {
	s.history = append(s.history, s.state.Clone())
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
}

// History returns the retained pre-apply snapshots, oldest first.
func (s *Store) History() []models.HomeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HomeState, len(s.history))
	for i, h := range s.history {
		out[i] = h.Clone()
	}
	return out
}

// Reset restores the provisioned defaults and clears the history.
func (s *Store) Reset() models.HomeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.provisionedState()
	s.history = nil
	log.Info().Str("home_id", s.homeID).Msg("home state reset to provisioned defaults")
	return s.state.Clone()
}

func cloneProps(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
