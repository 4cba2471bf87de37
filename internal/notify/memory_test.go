package notify

import (
	"context"
	"testing"
)

func TestMemoryPublisher_RetainsRecentEvents(t *testing.T) {
	p := NewMemoryPublisher(2)
	defer p.Close()

	ctx := context.Background()
	for _, subject := range []string{"a", "b", "c"} {
		if err := p.Publish(ctx, NewEvent(EventRoleCreated, "actor", subject, nil)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	recent := p.Recent()
	if len(recent) != 2 {
		t.Fatalf("expected 2 retained events, got %d", len(recent))
	}
	if recent[0].SubjectID != "b" || recent[1].SubjectID != "c" {
		t.Errorf("expected oldest-first [b c], got [%s %s]", recent[0].SubjectID, recent[1].SubjectID)
	}
}

func TestMemoryPublisher_Subscribe(t *testing.T) {
	p := NewMemoryPublisher(10)
	defer p.Close()

	events, stop := p.Subscribe(1)
	p.Publish(context.Background(), NewEvent(EventRoleReordered, "actor", "role-1", map[string]any{"to": 3}))

	got := <-events
	if got.Type != EventRoleReordered || got.SubjectID != "role-1" {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Error("expected timestamp")
	}

	stop()
	if _, ok := <-events; ok {
		t.Error("expected channel closed after stop")
	}
}

func TestMemoryPublisher_SlowSubscriberDoesNotBlock(t *testing.T) {
	p := NewMemoryPublisher(10)
	defer p.Close()

	_, stop := p.Subscribe(0)
	defer stop()

	// Unbuffered and never read: Publish must still return.
	if err := p.Publish(context.Background(), NewEvent(EventRoleDeleted, "actor", "role-1", nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(p.Recent()) != 1 {
		t.Error("event should still be retained")
	}
}

func TestMemoryPublisher_CloseIsIdempotent(t *testing.T) {
	p := NewMemoryPublisher(10)
	events, _ := p.Subscribe(1)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-events; ok {
		t.Error("expected subscriber channel closed")
	}
	if err := p.Publish(context.Background(), NewEvent(EventRoleCreated, "a", "b", nil)); err != nil {
		t.Errorf("Publish after close should be a no-op, got %v", err)
	}
}
