// Package core contains configuration loading and validation for the
// taskdeck client.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

// ConfigurationManager loads and validates client configuration from
// the .taskdeckrc file and TASKDECK_* environment variables.
type ConfigurationManager interface {
	Load() (*models.Config, error)
	Validate(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper, with
// a godotenv pass so a local .env file can supply the env overrides.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager reading
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultConfig returns a Config populated with sensible defaults.
func defaultConfig() *models.Config {
	return &models.Config{
		APIBaseURL:      "http://localhost:8000/api",
		TimeoutSeconds:  15,
		DefaultPriority: models.PriorityMedium,
		DefaultSortBy:   models.SortByCreatedAt,
		DefaultOrder:    models.OrderDesc,
		PageLimit:       50,
	}
}

// Load reads .taskdeckrc from the base path. Precedence:
// TASKDECK_* env (including a .env file) > .taskdeckrc > defaults.
// A missing config file returns defaults, not an error.
func (cm *viperConfigManager) Load() (*models.Config, error) {
	cfg := defaultConfig()

	// Best effort: a missing .env file is the common case.
	_ = godotenv.Load(filepath.Join(cm.basePath, ".env"))

	v := viper.New()
	v.SetConfigName(".taskdeckrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("TASKDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", cfg.APIBaseURL)
	v.SetDefault("api.timeout_seconds", cfg.TimeoutSeconds)
	v.SetDefault("defaults.priority", string(cfg.DefaultPriority))
	v.SetDefault("defaults.sort_by", string(cfg.DefaultSortBy))
	v.SetDefault("defaults.order", string(cfg.DefaultOrder))
	v.SetDefault("page.limit", cfg.PageLimit)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .taskdeckrc: %w", err)
		}
	}

	cfg.APIBaseURL = v.GetString("api.base_url")
	cfg.TimeoutSeconds = v.GetInt("api.timeout_seconds")
	cfg.DefaultPriority = models.TaskPriority(v.GetString("defaults.priority"))
	cfg.DefaultSortBy = models.SortField(v.GetString("defaults.sort_by"))
	cfg.DefaultOrder = models.SortOrder(v.GetString("defaults.order"))
	cfg.PageLimit = v.GetInt("page.limit")

	return cfg, nil
}

// validPriorities is the set of allowed TaskPriority values.
var validPriorities = map[models.TaskPriority]bool{
	models.PriorityLow:    true,
	models.PriorityMedium: true,
	models.PriorityHigh:   true,
	models.PriorityUrgent: true,
}

// validSortFields is the set of allowed SortField values.
var validSortFields = map[models.SortField]bool{
	models.SortByCreatedAt: true,
	models.SortByUpdatedAt: true,
	models.SortByDueDate:   true,
	models.SortByPriority:  true,
	models.SortByTitle:     true,
	models.SortByStatus:    true,
}

// Validate checks the configuration and reports every problem at once.
func (cm *viperConfigManager) Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.APIBaseURL == "" {
		errs = append(errs, "api.base_url must not be empty")
	} else if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("api.base_url %q must start with http:// or https://", cfg.APIBaseURL))
	}

	if cfg.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("api.timeout_seconds must be positive, got %d", cfg.TimeoutSeconds))
	}

	if cfg.DefaultPriority != "" && !validPriorities[cfg.DefaultPriority] {
		errs = append(errs, fmt.Sprintf(
			"defaults.priority %q is invalid, must be one of: low, medium, high, urgent",
			cfg.DefaultPriority,
		))
	}

	if cfg.DefaultSortBy != "" && !validSortFields[cfg.DefaultSortBy] {
		errs = append(errs, fmt.Sprintf(
			"defaults.sort_by %q is invalid, must be one of: createdAt, updatedAt, dueDate, priority, title, status",
			cfg.DefaultSortBy,
		))
	}

	if cfg.DefaultOrder != "" && cfg.DefaultOrder != models.OrderAsc && cfg.DefaultOrder != models.OrderDesc {
		errs = append(errs, fmt.Sprintf("defaults.order %q is invalid, must be asc or desc", cfg.DefaultOrder))
	}

	if cfg.PageLimit < 0 {
		errs = append(errs, fmt.Sprintf("page.limit must be non-negative, got %d", cfg.PageLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ResolveBasePath returns the directory taskdeck stores its session,
// config, and event log in: $TASKDECK_HOME if set, else ~/.taskdeck.
func ResolveBasePath() string {
	if p := os.Getenv("TASKDECK_HOME"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskdeck"
	}
	return filepath.Join(home, ".taskdeck")
}
