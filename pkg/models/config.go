package models

// Config holds the client configuration merged from defaults, the
// .taskdeckrc file, and TASKDECK_* environment variables.
type Config struct {
	APIBaseURL      string
	TimeoutSeconds  int
	DefaultPriority TaskPriority
	DefaultSortBy   SortField
	DefaultOrder    SortOrder
	PageLimit       int
}
