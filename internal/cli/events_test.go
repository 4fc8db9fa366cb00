package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/taskdeck/internal/api"
	"github.com/valter-silva-au/taskdeck/internal/observability"
	"github.com/valter-silva-au/taskdeck/internal/session"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

// withWiredClient stands up a real gateway, session store, and event
// log against a test server, swapping the package vars for the test.
func withWiredClient(t *testing.T, handler http.HandlerFunc, token string) {
	t.Helper()

	origSessions, origGateway, origEventLog := Sessions, Gateway, EventLog
	t.Cleanup(func() {
		Sessions, Gateway, EventLog = origSessions, origGateway, origEventLog
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	store, err := session.NewStore(dir)
	if err != nil {
		t.Fatalf("creating session store: %v", err)
	}
	if token != "" {
		if err := store.SetSession(token, &models.User{ID: "u1", Email: "dev@example.com"}); err != nil {
			t.Fatalf("seeding session: %v", err)
		}
	}

	log, err := observability.NewJSONLEventLog(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })

	Sessions = store
	Gateway = api.NewClient(srv.URL, store, 5*time.Second)
	EventLog = log
}

func TestAuthLogout_RecordsSignedOutEvent(t *testing.T) {
	withWiredClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, "tok")

	authLogoutCmd.SetContext(context.Background())
	if err := authLogoutCmd.RunE(authLogoutCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Sessions.Token() != "" {
		t.Error("expected session cleared")
	}

	events, err := EventLog.Read(observability.EventFilter{Type: "auth.signed_out"})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one signed-out event, got %d", len(events))
	}
	if events[0].Level != observability.LevelInfo {
		t.Errorf("unexpected level %q", events[0].Level)
	}
}

func TestEventsCmd_ReadsRecordedEvents(t *testing.T) {
	withWiredClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")
	_ = EventLog.Write(observability.Event{Level: observability.LevelInfo, Type: "auth.signed_in", Message: "session started"})
	_ = EventLog.Write(observability.Event{Level: observability.LevelError, Type: "cache.rolled_back", Message: "update"})

	if err := eventsCmd.Flags().Set("type", "auth.signed_in"); err != nil {
		t.Fatalf("setting flag: %v", err)
	}
	defer func() { _ = eventsCmd.Flags().Set("type", "") }()

	if err := eventsCmd.RunE(eventsCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEventsCmd_RejectsBadSince(t *testing.T) {
	withWiredClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")

	if err := eventsCmd.Flags().Set("since", "yesterday"); err != nil {
		t.Fatalf("setting flag: %v", err)
	}
	defer func() { _ = eventsCmd.Flags().Set("since", "") }()

	if err := eventsCmd.RunE(eventsCmd, nil); err == nil {
		t.Error("expected error for malformed --since")
	}
}

func TestEventsCmd_NoLog(t *testing.T) {
	origEventLog := EventLog
	defer func() { EventLog = origEventLog }()
	EventLog = nil

	if err := eventsCmd.RunE(eventsCmd, nil); err == nil {
		t.Error("expected error when the event log is unavailable")
	}
}
