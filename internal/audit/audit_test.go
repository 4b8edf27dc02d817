package audit

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRecordAndRecent(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	r.Record(ctx, "connect", "DU111")
	r.Record(ctx, "reconnect_attempt", "DU111")
	r.Record(ctx, "cancel_order", "DU111")

	events, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	// Newest first.
	if events[0].Event != "cancel_order" {
		t.Errorf("events[0] = %q, want cancel_order", events[0].Event)
	}
	if events[2].Event != "connect" {
		t.Errorf("events[2] = %q, want connect", events[2].Event)
	}
}

func TestRecentLimit(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		r.Record(ctx, "connect", "DU111")
	}

	events, err := r.Recent(ctx, 4)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 4 {
		t.Errorf("events = %d, want 4", len(events))
	}
}
