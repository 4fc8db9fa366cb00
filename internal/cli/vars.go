package cli

import (
	"github.com/valter-silva-au/taskdeck/internal/api"
	"github.com/valter-silva-au/taskdeck/internal/cache"
	"github.com/valter-silva-au/taskdeck/internal/observability"
	"github.com/valter-silva-au/taskdeck/internal/session"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.Config
	Sessions *session.Store
	Gateway  *api.Client
	Tasks    *cache.TaskCache
	EventLog observability.EventLog
)
