package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEventLogRecordsWhenRunning(t *testing.T) {
	el := NewEventLog()

	// Not started: records are refused
	if el.Record(NewEvent(EventTypeJump, 1, "physics", nil)) {
		t.Error("Record accepted before Start")
	}

	if err := el.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer el.Stop()

	if !el.Record(NewEvent(EventTypeJump, 1, "physics", nil)) {
		t.Error("Record refused while running")
	}
	if el.GetTotalCount() != 1 {
		t.Errorf("Expected total 1, got %d", el.GetTotalCount())
	}
}

func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 10; i++ {
		el.Record(NewEvent(EventTypeDeliveryComplete, uint64(i), "delivery",
			DeliveryPayload{Type: "standard", Payout: 100}))
	}
	el.Stop() // Final flush

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("Line %d is not valid JSON: %v", lines, err)
		}
		if ev.Type != EventTypeDeliveryComplete {
			t.Errorf("Line %d has wrong type: %s", lines, ev.Type)
		}
		// Oldest first, no gap, no zero-value filler line
		if ev.Sequence != uint64(lines+1) {
			t.Errorf("Line %d has sequence %d, expected %d", lines, ev.Sequence, lines+1)
		}
		lines++
	}
	if lines != 10 {
		t.Errorf("Expected 10 JSONL lines, got %d", lines)
	}
}

func TestEventLogPerSourceRateLimit(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatal(err)
	}
	defer el.Stop()

	// Burst far past the per-source budget in one go
	accepted := 0
	for i := 0; i < MaxEventsPerSource; i++ {
		if el.Record(NewEvent(EventTypeTick, uint64(i), "spammy", nil)) {
			accepted++
		}
	}

	if el.GetDroppedCount() == 0 {
		t.Error("Spammy source never throttled")
	}
	if accepted == 0 {
		t.Error("Everything throttled, burst budget missing")
	}
}

func TestEventLogStats(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatal(err)
	}
	defer el.Stop()

	el.Record(NewEvent(EventTypeJump, 1, "physics", nil))

	stats := el.GetStats()
	if stats["running"] != true {
		t.Error("Stats report not running")
	}
	if stats["total"].(uint64) != 1 {
		t.Errorf("Expected total 1, got %v", stats["total"])
	}
}

func TestEventLogStopIsIdempotent(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatal(err)
	}

	el.Stop()
	el.Stop()

	// Give the stopped writer a moment; no panic means pass
	time.Sleep(10 * time.Millisecond)
}
