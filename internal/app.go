// Package internal provides the App struct that wires the session
// store, API gateway, task cache, and observability together and
// hands them to the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/taskdeck/internal/api"
	"github.com/valter-silva-au/taskdeck/internal/cache"
	"github.com/valter-silva-au/taskdeck/internal/cli"
	"github.com/valter-silva-au/taskdeck/internal/core"
	"github.com/valter-silva-au/taskdeck/internal/observability"
	"github.com/valter-silva-au/taskdeck/internal/session"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

// App holds all service dependencies for the taskdeck client.
type App struct {
	BasePath string
	Config   *models.Config

	ConfigMgr core.ConfigurationManager
	Sessions  *session.Store
	Gateway   *api.Client
	Tasks     *cache.TaskCache
	EventLog  observability.EventLog

	stopRecorder func()
}

// NewApp creates and wires all components. basePath is where the
// session, config, and event log live (typically ~/.taskdeck).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("initializing taskdeck: %w", err)
	}
	if err := app.ConfigMgr.Validate(cfg); err != nil {
		return nil, fmt.Errorf("initializing taskdeck: %w", err)
	}
	app.Config = cfg

	app.Sessions, err = session.NewStore(basePath)
	if err != nil {
		return nil, fmt.Errorf("initializing taskdeck: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	app.Gateway = api.NewClient(cfg.APIBaseURL, app.Sessions, timeout)
	app.Sessions.SetVerifier(app.Gateway)

	app.Tasks = cache.New(app.Gateway, app.Sessions)

	// Non-fatal: disable recording if the log can't be created.
	eventLogPath := filepath.Join(basePath, ".taskdeck_events.jsonl")
	if log, logErr := observability.NewJSONLEventLog(eventLogPath); logErr == nil {
		app.EventLog = log
		app.stopRecorder = recordCacheEvents(app.Tasks, log)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Sessions = app.Sessions
	cli.Gateway = app.Gateway
	cli.Tasks = app.Tasks
	cli.EventLog = app.EventLog

	return app, nil
}

// Close stops the event recorder and closes the event log.
func (a *App) Close() {
	if a.stopRecorder != nil {
		a.stopRecorder()
	}
	if a.EventLog != nil {
		_ = a.EventLog.Close()
	}
}

// recordCacheEvents subscribes to cache transitions and mirrors them
// into the event log. Returns a stop function.
func recordCacheEvents(tasks *cache.TaskCache, log observability.EventLog) func() {
	events, unsubscribe := tasks.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range events {
			level := observability.LevelInfo
			msg := string(ev.Op)
			data := map[string]any{"op": string(ev.Op)}
			if ev.TaskID != "" {
				data["task_id"] = ev.TaskID
			}
			if ev.Err != nil {
				level = observability.LevelError
				data["error"] = ev.Err.Error()
			}
			_ = log.Write(observability.Event{
				Level:   level,
				Type:    "cache." + string(ev.Type),
				Message: msg,
				Data:    data,
			})
			// A 401 mid-mutation means the session just died.
			if errors.Is(ev.Err, api.ErrUnauthenticated) {
				_ = log.Write(observability.Event{
					Level:   observability.LevelWarn,
					Type:    "auth.expired",
					Message: "token rejected during " + string(ev.Op),
				})
			}
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}

// ResolveBasePath returns the taskdeck data directory.
func ResolveBasePath() string {
	return core.ResolveBasePath()
}
