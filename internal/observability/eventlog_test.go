package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func TestEventLog_WriteReadRoundTrip(t *testing.T) {
	log, _ := newTestLog(t)

	events := []Event{
		{Level: "INFO", Type: "auth.signed_in", Message: "session started"},
		{Level: "INFO", Type: "cache.committed", Message: "task created", Data: map[string]any{"task_id": "t1"}},
		{Level: "ERROR", Type: "cache.rolled_back", Message: "update failed"},
	}
	for _, ev := range events {
		if err := log.Write(ev); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[1].Type != "cache.committed" {
		t.Errorf("unexpected event order: %+v", got)
	}
	if got[1].Data["task_id"] != "t1" {
		t.Errorf("expected data preserved, got %v", got[1].Data)
	}
	for i, ev := range got {
		if ev.Time.IsZero() {
			t.Errorf("event %d missing timestamp", i)
		}
	}
}

func TestEventLog_FilterByTypeAndLevel(t *testing.T) {
	log, _ := newTestLog(t)
	_ = log.Write(Event{Level: "INFO", Type: "cache.loaded"})
	_ = log.Write(Event{Level: "ERROR", Type: "cache.rolled_back"})
	_ = log.Write(Event{Level: "INFO", Type: "cache.committed"})

	byType, err := log.Read(EventFilter{Type: "cache.rolled_back"})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(byType) != 1 || byType[0].Type != "cache.rolled_back" {
		t.Errorf("unexpected type filter result: %+v", byType)
	}

	byLevel, err := log.Read(EventFilter{Level: "INFO"})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(byLevel) != 2 {
		t.Errorf("expected 2 INFO events, got %d", len(byLevel))
	}
}

func TestEventLog_FilterByTimeWindow(t *testing.T) {
	log, _ := newTestLog(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_ = log.Write(Event{Time: base.Add(time.Duration(i) * time.Hour), Level: "INFO", Type: "cache.loaded"})
	}

	since := base.Add(30 * time.Minute)
	until := base.Add(90 * time.Minute)
	got, err := log.Read(EventFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(got) != 1 || !got[0].Time.Equal(base.Add(time.Hour)) {
		t.Errorf("unexpected window result: %+v", got)
	}
}

func TestEventLog_LimitKeepsMostRecent(t *testing.T) {
	log, _ := newTestLog(t)
	for _, typ := range []string{"cache.loaded", "auth.signed_in", "cache.committed", "auth.signed_out"} {
		_ = log.Write(Event{Level: "INFO", Type: typ})
	}

	got, err := log.Read(EventFilter{Limit: 2})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != "cache.committed" || got[1].Type != "auth.signed_out" {
		t.Errorf("expected the most recent events kept, got %+v", got)
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := newTestLog(t)
	_ = log.Write(Event{Level: "INFO", Type: "cache.loaded"})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	if _, err := f.WriteString("{not json\n\n"); err != nil {
		t.Fatalf("corrupting log: %v", err)
	}
	_ = f.Close()

	_ = log.Write(Event{Level: "INFO", Type: "cache.committed"})

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected malformed lines skipped, got %d events", len(got))
	}
}

func TestEventLog_MissingFileReadsEmpty(t *testing.T) {
	log, path := newTestLog(t)
	_ = log.Close()
	_ = os.Remove(path)

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty read, got %+v", got)
	}
}
