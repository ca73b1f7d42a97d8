package config

import (
	"fmt"
	"notecheck/utils"
	"strings"
	"time"
)

// Update verbs the service can be told to accept.
const (
	VerbsBoth  = "both"
	VerbsPut   = "put"
	VerbsPatch = "patch"
)

// DefaultUIPort matches the UI address the check command expects by default.
const DefaultUIPort = "3000"

// UIPortValue maps "off" to the empty port, which serves the UI on the API port.
func UIPortValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

type ServerConfig struct {
	Port            string
	UIPort          string
	UIAPIBase       string
	GinMode         string
	EnableReset     bool
	ResetSecret     string
	UpdateVerbs     string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	LogLevel        string
	LogFormat       string
	Database        DatabaseConfig
}

func LoadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            utils.GetEnvAsString("PORT", "5000"),
		UIPort:          UIPortValue(utils.GetEnvAsString("UI_PORT", DefaultUIPort)),
		UIAPIBase:       utils.GetEnvAsString("UI_API_BASE", ""),
		GinMode:         utils.GetEnvAsString("GIN_MODE", "release"),
		EnableReset:     utils.GetEnvAsBool("NOTES_ENABLE_RESET", false),
		ResetSecret:     utils.GetEnvAsString("NOTES_RESET_SECRET", ""),
		UpdateVerbs:     strings.ToLower(utils.GetEnvAsString("NOTES_UPDATE_VERBS", VerbsBoth)),
		MaxBodyBytes:    utils.GetEnvAsInt64("MAX_BODY_BYTES", 1<<20),
		ShutdownTimeout: utils.GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		AllowedOrigins:  utils.GetEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:        utils.GetEnvAsString("LOG_LEVEL", "info"),
		LogFormat:       utils.GetEnvAsString("LOG_FORMAT", ""),
		Database:        LoadDatabaseConfig(),
	}
}

// Validate rejects combinations the server cannot start with.
func (c ServerConfig) Validate() error {
	switch c.UpdateVerbs {
	case VerbsBoth, VerbsPut, VerbsPatch:
	default:
		return fmt.Errorf("NOTES_UPDATE_VERBS must be put, patch or both, got %q", c.UpdateVerbs)
	}
	switch c.Database.Store {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if c.Database.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("NOTES_STORE must be mongo, postgres or memory, got %q", c.Database.Store)
	}
	if c.UIPort != "" && c.UIPort == c.Port {
		return fmt.Errorf("UI_PORT must differ from PORT")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// UIBase is the API origin the separately served UI should call.
func (c ServerConfig) UIBase() string {
	if c.UIAPIBase != "" {
		return strings.TrimRight(c.UIAPIBase, "/")
	}
	if c.UIPort == "" {
		return ""
	}
	return "http://localhost:" + c.Port
}

// AllowsPut reports whether PUT updates are routed.
func (c ServerConfig) AllowsPut() bool {
	return c.UpdateVerbs == VerbsBoth || c.UpdateVerbs == VerbsPut
}

// AllowsPatch reports whether PATCH updates are routed.
func (c ServerConfig) AllowsPatch() bool {
	return c.UpdateVerbs == VerbsBoth || c.UpdateVerbs == VerbsPatch
}
