package calls

import (
	"context"
	"sync"
	"time"

	"github.com/aurahome/aura/pkg/models"
	"github.com/rs/zerolog/log"
)

// Dialer places the follow-up resolution call. Implemented by the voice
// client; swapped for a fake in tests.
type Dialer interface {
	PlaceResolutionCall(ctx context.Context, phoneNumber string) (callID string, err error)
}

// placementTimeout bounds the outbound resolution-call request so a slow
// provider cannot pin a timer goroutine.
const placementTimeout = 30 * time.Second

// skipReasons end a warning call without ever scheduling a follow-up.
var skipReasons = map[string]bool{
	models.EndedReasonVoicemail:        true,
	models.EndedReasonCustomerNoAnswer: true,
	models.EndedReasonAssistantEnded:   true,
}

// Coordinator drives the call lifecycle from inbound webhook events. It
// never returns an error to the webhook path; every outcome maps to a status
// token so the provider never sees a retriable failure for a business result.
type Coordinator struct {
	tracker *Tracker
	dialer  Dialer
	delay   time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewCoordinator(tracker *Tracker, dialer Dialer, followUpDelay time.Duration) *Coordinator {
	return &Coordinator{
		tracker: tracker,
		dialer:  dialer,
		delay:   followUpDelay,
		timers:  make(map[string]*time.Timer),
	}
}

// Tracker exposes the underlying call-state store.
func (c *Coordinator) Tracker() *Tracker {
	return c.tracker
}

// HandleEvent processes one webhook delivery and returns the status token
// for the acknowledgment body. Panics are converted to the error token.
func (c *Coordinator) HandleEvent(event models.WebhookEvent) (token string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("webhook handling panicked")
			token = models.WebhookError
		}
	}()

	callID := event.Message.Call.ID

	// Only the end-of-call report is the definitive ended signal.
	// Intermediate status updates are acknowledged and ignored.
	if event.Message.Type != models.WebhookEndOfCallReport {
		return models.WebhookAcknowledged
	}

	if skipReasons[event.Message.EndedReason] {
		if _, ok := c.tracker.TryConsumeWarning(callID); ok {
			log.Info().
				Str("call_id", callID).
				Str("ended_reason", event.Message.EndedReason).
				Msg("warning call skipped, no follow-up")
		}
		return models.WebhookSkipped
	}

	// Consuming the warning entry is the idempotency gate: duplicates and
	// resolution-call end events both fail here and change nothing.
	phone, ok := c.tracker.TryConsumeWarning(callID)
	if !ok {
		return models.WebhookNotWarningCall
	}
	if phone == "" {
		phone = event.Message.Call.Customer.Number
	}

	if !c.tracker.TryQueueFollowUp(callID, phone) {
		return models.WebhookAlreadyQueued
	}

	c.scheduleFollowUp(callID)
	log.Info().
		Str("call_id", callID).
		Str("phone", phone).
		Dur("delay", c.delay).
		Msg("follow-up resolution call queued")
	return models.WebhookProcessed
}

func (c *Coordinator) scheduleFollowUp(callID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[callID] = time.AfterFunc(c.delay, func() {
		c.fireFollowUp(callID)
	})
}

// fireFollowUp runs when a follow-up timer elapses. The processed flag makes
// it safe against duplicate timers and resets that raced the fire.
func (c *Coordinator) fireFollowUp(callID string) {
	c.mu.Lock()
	delete(c.timers, callID)
	c.mu.Unlock()

	phone, ok := c.tracker.TryMarkProcessed(callID)
	if !ok {
		return
	}
	// The pending record is dropped even when placement fails: a failed
	// resolution call is logged and abandoned rather than retried.
	defer c.tracker.DropPending(callID)

	ctx, cancel := context.WithTimeout(context.Background(), placementTimeout)
	defer cancel()

	resolutionID, err := c.dialer.PlaceResolutionCall(ctx, phone)
	if err != nil {
		log.Error().Err(err).
			Str("warning_call_id", callID).
			Str("phone", phone).
			Msg("resolution call placement failed, dropping follow-up")
		return
	}

	c.tracker.TrackResolution(resolutionID)
	log.Info().
		Str("warning_call_id", callID).
		Str("resolution_call_id", resolutionID).
		Msg("resolution call placed")
}

// Reset cancels all outstanding follow-up timers and clears tracked state.
// Used by the system reset endpoint.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()
	c.tracker.Reset()
}
