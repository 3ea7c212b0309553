// Package calls coordinates the outbound call lifecycle: warning calls are
// tracked when placed, their end-of-call webhooks queue a delayed follow-up
// resolution call, and resolution calls are tagged so their own end events
// never re-enter the pipeline.
package calls

import (
	"sync"
	"time"
)

// PendingFollowUp is one queued resolution call awaiting its timer.
type PendingFollowUp struct {
	PhoneNumber string
	QueuedAt    time.Time
	Processed   bool
}

// Tracker owns the three pieces of call state shared between the webhook
// handler and the follow-up timers. Every operation is atomic under one
// mutex, so check-then-act races between concurrent webhook deliveries and
// timer fires cannot occur.
type Tracker struct {
	mu          sync.Mutex
	warnings    map[string]string // call_id → phone number
	resolutions map[string]bool
	pending     map[string]*PendingFollowUp
}

func NewTracker() *Tracker {
	return &Tracker{
		warnings:    make(map[string]string),
		resolutions: make(map[string]bool),
		pending:     make(map[string]*PendingFollowUp),
	}
}

// TrackWarning records a placed warning call.
func (t *Tracker) TrackWarning(callID, phoneNumber string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.warnings[callID] = phoneNumber
}

// TrackResolution tags a call ID as a resolution call. Its end event must
// never queue another follow-up.
func (t *Tracker) TrackResolution(callID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resolutions[callID] = true
}

// IsResolution reports whether a call ID belongs to a resolution call.
func (t *Tracker) IsResolution(callID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolutions[callID]
}

// TryConsumeWarning atomically removes a call ID from the tracked-warning
// set. First caller wins; duplicate webhook deliveries find the ID gone.
func (t *Tracker) TryConsumeWarning(callID string) (phoneNumber string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	phoneNumber, ok = t.warnings[callID]
	if ok {
		delete(t.warnings, callID)
	}
	return phoneNumber, ok
}

// TryQueueFollowUp inserts a pending follow-up if none exists for the call
// ID. Returns false when one is already queued.
func (t *Tracker) TryQueueFollowUp(callID, phoneNumber string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.pending[callID]; exists {
		return false
	}
	t.pending[callID] = &PendingFollowUp{
		PhoneNumber: phoneNumber,
		QueuedAt:    time.Now().UTC(),
	}
	return true
}

// TryMarkProcessed atomically flips a pending record to processed and hands
// back its phone number. Returns ok=false when the record is missing or was
// already processed, so a follow-up is executed at most once.
func (t *Tracker) TryMarkProcessed(callID string) (phoneNumber string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, exists := t.pending[callID]
	if !exists || p.Processed {
		return "", false
	}
	p.Processed = true
	return p.PhoneNumber, true
}

// DropPending deletes a pending record whether or not it was processed.
func (t *Tracker) DropPending(callID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, callID)
}

// PendingCount returns the number of queued follow-ups.
func (t *Tracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Reset clears all tracked state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.warnings = make(map[string]string)
	t.resolutions = make(map[string]bool)
	t.pending = make(map[string]*PendingFollowUp)
}
