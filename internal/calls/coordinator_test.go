package calls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aurahome/aura/pkg/models"
)

type fakeDialer struct {
	mu     sync.Mutex
	calls  []string
	nextID string
	err    error
}

func (f *fakeDialer) PlaceResolutionCall(ctx context.Context, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, phone)
	return f.nextID, nil
}

func (f *fakeDialer) placed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestCoordinator(t *testing.T, dialer *fakeDialer) *Coordinator {
	t.Helper()
	c := NewCoordinator(NewTracker(), dialer, 20*time.Millisecond)
	t.Cleanup(c.Reset)
	return c
}

func endedEvent(callID, phone, reason string) models.WebhookEvent {
	var e models.WebhookEvent
	e.Message.Type = models.WebhookEndOfCallReport
	e.Message.Call.ID = callID
	e.Message.Call.Customer.Number = phone
	e.Message.EndedReason = reason
	return e
}

func waitForCalls(t *testing.T, d *fakeDialer, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(d.placed()) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d placed call(s), have %d", want, len(d.placed()))
}

func TestStatusUpdateOnlyAcknowledged(t *testing.T) {
	c := newTestCoordinator(t, &fakeDialer{})
	c.Tracker().TrackWarning("call-1", "+15125550100")

	var e models.WebhookEvent
	e.Message.Type = models.WebhookStatusUpdate
	e.Message.Status = "in-progress"
	e.Message.Call.ID = "call-1"

	if got := c.HandleEvent(e); got != models.WebhookAcknowledged {
		t.Errorf("token = %s, want acknowledged", got)
	}
	if _, ok := c.Tracker().TryConsumeWarning("call-1"); !ok {
		t.Error("status update must not consume the warning entry")
	}
}

func TestSkipReasonsNeverQueueFollowUp(t *testing.T) {
	for _, reason := range []string{
		models.EndedReasonVoicemail,
		models.EndedReasonCustomerNoAnswer,
		models.EndedReasonAssistantEnded,
	} {
		c := newTestCoordinator(t, &fakeDialer{})
		c.Tracker().TrackWarning("call-1", "+15125550100")

		if got := c.HandleEvent(endedEvent("call-1", "+15125550100", reason)); got != models.WebhookSkipped {
			t.Errorf("reason %s: token = %s, want skipped", reason, got)
		}
		if n := c.Tracker().PendingCount(); n != 0 {
			t.Errorf("reason %s: pending = %d, want 0", reason, n)
		}
	}
}

func TestDuplicateDeliveryQueuesExactlyOnce(t *testing.T) {
	dialer := &fakeDialer{nextID: "res-1"}
	c := newTestCoordinator(t, dialer)
	c.Tracker().TrackWarning("abc", "+15125550100")

	e := endedEvent("abc", "+15125550100", models.EndedReasonCustomerEnded)

	first := c.HandleEvent(e)
	second := c.HandleEvent(e)

	if first != models.WebhookProcessed {
		t.Errorf("first delivery token = %s, want processed", first)
	}
	if second != models.WebhookNotWarningCall && second != models.WebhookAlreadyQueued {
		t.Errorf("second delivery token = %s, want not_warning_call or already_queued", second)
	}

	waitForCalls(t, dialer, 1)
	time.Sleep(50 * time.Millisecond)
	if n := len(dialer.placed()); n != 1 {
		t.Fatalf("resolution calls placed = %d, want exactly 1", n)
	}
}

func TestResolutionCallNeverRetriggers(t *testing.T) {
	dialer := &fakeDialer{nextID: "res-9"}
	c := newTestCoordinator(t, dialer)
	c.Tracker().TrackWarning("warn-1", "+15125550100")

	c.HandleEvent(endedEvent("warn-1", "+15125550100", models.EndedReasonCustomerEnded))
	waitForCalls(t, dialer, 1)

	if !c.Tracker().IsResolution("res-9") {
		t.Fatal("resolution call ID not recorded")
	}

	got := c.HandleEvent(endedEvent("res-9", "+15125550100", models.EndedReasonCustomerEnded))
	if got != models.WebhookNotWarningCall {
		t.Errorf("resolution end token = %s, want not_warning_call", got)
	}
	if n := c.Tracker().PendingCount(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}

func TestUnknownCallIgnored(t *testing.T) {
	c := newTestCoordinator(t, &fakeDialer{})
	got := c.HandleEvent(endedEvent("never-seen", "+15125550100", models.EndedReasonCustomerEnded))
	if got != models.WebhookNotWarningCall {
		t.Errorf("token = %s, want not_warning_call", got)
	}
}

func TestResetCancelsQueuedFollowUp(t *testing.T) {
	dialer := &fakeDialer{nextID: "res-1"}
	c := NewCoordinator(NewTracker(), dialer, 40*time.Millisecond)
	c.Tracker().TrackWarning("warn-1", "+15125550100")

	c.HandleEvent(endedEvent("warn-1", "+15125550100", models.EndedReasonCustomerEnded))
	c.Reset()

	time.Sleep(100 * time.Millisecond)
	if n := len(dialer.placed()); n != 0 {
		t.Fatalf("resolution calls placed after reset = %d, want 0", n)
	}
}

func TestFailedPlacementDropsPending(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("provider unavailable")}
	c := newTestCoordinator(t, dialer)
	c.Tracker().TrackWarning("warn-1", "+15125550100")

	c.HandleEvent(endedEvent("warn-1", "+15125550100", models.EndedReasonCustomerEnded))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Tracker().PendingCount() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("pending record not cleaned up after failed placement")
}

func TestTrackerAtomicOps(t *testing.T) {
	tr := NewTracker()
	tr.TrackWarning("w1", "+15125550100")

	phone, ok := tr.TryConsumeWarning("w1")
	if !ok || phone != "+15125550100" {
		t.Fatalf("TryConsumeWarning = (%s, %v), want (+15125550100, true)", phone, ok)
	}
	if _, ok := tr.TryConsumeWarning("w1"); ok {
		t.Error("second consume succeeded, want first-writer-wins")
	}

	if !tr.TryQueueFollowUp("w1", phone) {
		t.Fatal("first queue failed")
	}
	if tr.TryQueueFollowUp("w1", phone) {
		t.Error("duplicate queue succeeded")
	}

	if _, ok := tr.TryMarkProcessed("w1"); !ok {
		t.Fatal("first mark-processed failed")
	}
	if _, ok := tr.TryMarkProcessed("w1"); ok {
		t.Error("second mark-processed succeeded, want at-most-once")
	}
}

func TestTrackerConcurrentConsume(t *testing.T) {
	tr := NewTracker()
	tr.TrackWarning("w1", "+15125550100")

	const n = 32
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tr.TryConsumeWarning("w1"); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}
