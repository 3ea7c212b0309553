// Package pipeline wires the threat-to-action flow: fetch readings, extract
// indicators, classify, generate actions, apply them to the home, and
// optionally place warning calls whose follow-ups run through the webhook
// coordinator.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aurahome/aura/internal/actions"
	"github.com/aurahome/aura/internal/calls"
	"github.com/aurahome/aura/internal/homestate"
	"github.com/aurahome/aura/internal/registry"
	"github.com/aurahome/aura/internal/threat"
	"github.com/aurahome/aura/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("aura-pipeline")

// ReadingsFetcher supplies the reading set for an assessment.
type ReadingsFetcher interface {
	Fetch(ctx context.Context, location string) models.ReadingSet
}

// WarningDialer places the initial warning call to a homeowner.
type WarningDialer interface {
	PlaceWarningCall(ctx context.Context, phoneNumber, alertMessage string) (callID string, err error)
}

// CallOutcome records one attempted warning call.
type CallOutcome struct {
	Homeowner   string `json:"homeowner"`
	PhoneNumber string `json:"phone_number"`
	CallID      string `json:"call_id,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// RunResult is the full pipeline output.
type RunResult struct {
	Success          bool                    `json:"success"`
	Message          string                  `json:"message"`
	Assessment       models.ThreatAssessment `json:"assessment"`
	Readings         models.ReadingSet       `json:"readings"`
	Actions          []models.Action         `json:"actions"`
	ActionResults    []models.ActionResult   `json:"action_results"`
	HomeState        models.HomeState        `json:"home_state"`
	WarningCalls     []CallOutcome           `json:"warning_calls,omitempty"`
	RequestID        string                  `json:"request_id"`
	ProcessingTimeMS float64                 `json:"processing_time_ms"`
	Timestamp        time.Time               `json:"timestamp"`
}

// Orchestrator owns the pipeline dependencies.
type Orchestrator struct {
	readings    ReadingsFetcher
	home        *homestate.Store
	tracker     *calls.Tracker
	dialer      WarningDialer
	registry    *registry.Registry
	location    string
	warningWait time.Duration
}

func New(readings ReadingsFetcher, home *homestate.Store, tracker *calls.Tracker, dialer WarningDialer, reg *registry.Registry, defaultLocation string, warningWait time.Duration) *Orchestrator {
	return &Orchestrator{
		readings:    readings,
		home:        home,
		tracker:     tracker,
		dialer:      dialer,
		registry:    reg,
		location:    defaultLocation,
		warningWait: warningWait,
	}
}

// Assess produces a threat assessment for a request. Supplied readings take
// the place of a provider fetch; an empty request fetches live data.
func (o *Orchestrator) Assess(ctx context.Context, req models.AssessmentRequest) models.AssessmentResult {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "pipeline.assess")
	defer span.End()

	location := req.Location
	if location == "" {
		location = o.location
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var set models.ReadingSet
	if len(req.Readings) > 0 {
		set = models.ReadingSet{
			Location:  location,
			Values:    req.Readings,
			Sources:   map[string]string{"request": "caller"},
			FetchedAt: time.Now().UTC(),
		}
	} else {
		set = o.readings.Fetch(ctx, location)
	}

	var assessment models.ThreatAssessment
	if len(set.Values) == 0 {
		assessment = threat.Fallback()
	} else {
		assessment = threat.Classify(threat.Extract(set))
	}

	span.SetAttributes(
		attribute.String("threat.level", string(assessment.OverallLevel)),
		attribute.Int("threat.indicators", len(assessment.Indicators)),
	)
	log.Info().
		Str("location", location).
		Str("level", string(assessment.OverallLevel)).
		Int("indicators", len(assessment.Indicators)).
		Float64("confidence", assessment.Confidence).
		Msg("threat assessment complete")

	return models.AssessmentResult{
		Success:          true,
		Message:          assessment.Summary,
		Assessment:       assessment,
		Readings:         set,
		RequestID:        requestID,
		ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000,
		Timestamp:        time.Now().UTC(),
	}
}

// Run executes the full threat-to-action pipeline for a location.
func (o *Orchestrator) Run(ctx context.Context, location string) RunResult {
	return o.run(ctx, location, false)
}

// RunWithCalls runs the pipeline and places a warning call to every
// registered homeowner. Resolution calls are not sequenced here: they are
// driven by the provider's end-of-call webhooks through the coordinator.
func (o *Orchestrator) RunWithCalls(ctx context.Context, location string) RunResult {
	return o.run(ctx, location, true)
}

func (o *Orchestrator) run(ctx context.Context, location string, withCalls bool) RunResult {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()

	requestID := uuid.NewString()
	assessed := o.Assess(ctx, models.AssessmentRequest{Location: location, RequestID: requestID})

	var warningCalls []CallOutcome
	if withCalls && assessed.Assessment.HasThreats() {
		warningCalls = o.placeWarningCalls(ctx, assessed.Assessment)
	}

	generated := actions.Generate(assessed.Assessment)
	span.SetAttributes(attribute.Int("actions.generated", len(generated)))

	result := RunResult{
		Success:      true,
		Assessment:   assessed.Assessment,
		Readings:     assessed.Readings,
		Actions:      generated,
		WarningCalls: warningCalls,
		RequestID:    requestID,
		Timestamp:    time.Now().UTC(),
	}

	if len(generated) == 0 {
		result.Message = "no action required, home state unchanged"
		result.HomeState = o.home.State()
		result.ProcessingTimeMS = float64(time.Since(start).Microseconds()) / 1000
		return result
	}

	actionResults, state, err := o.home.Apply(ctx, generated)
	if err != nil {
		result.Success = false
		result.Message = fmt.Sprintf("action batch rejected: %v", err)
		result.HomeState = state
		result.ProcessingTimeMS = float64(time.Since(start).Microseconds()) / 1000
		log.Error().Err(err).Str("request_id", requestID).Msg("pipeline apply failed")
		return result
	}

	result.Message = fmt.Sprintf("applied %d action(s) for %s threat", len(actionResults), assessed.Assessment.OverallLevel)
	result.ActionResults = actionResults
	result.HomeState = state
	result.ProcessingTimeMS = float64(time.Since(start).Microseconds()) / 1000
	return result
}

// placeWarningCalls dials every registered homeowner and tracks the placed
// call IDs so the coordinator recognizes their end-of-call webhooks.
func (o *Orchestrator) placeWarningCalls(ctx context.Context, assessment models.ThreatAssessment) []CallOutcome {
	owners := o.registry.List()
	out := make([]CallOutcome, 0, len(owners))
	for _, owner := range owners {
		outcome := CallOutcome{Homeowner: owner.Name, PhoneNumber: owner.PhoneNumber}
		// The answer wait bounds how long one dial may ring.
		dialCtx, cancel := context.WithTimeout(ctx, o.warningWait)
		callID, err := o.dialer.PlaceWarningCall(dialCtx, owner.PhoneNumber, assessment.Summary)
		cancel()
		if err != nil {
			outcome.Error = err.Error()
			log.Error().Err(err).Str("phone", owner.PhoneNumber).Msg("warning call failed")
		} else {
			outcome.CallID = callID
			outcome.Success = true
			o.tracker.TrackWarning(callID, owner.PhoneNumber)
		}
		out = append(out, outcome)
	}
	return out
}
