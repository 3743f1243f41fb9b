// Package config provides configuration management for the SalesDesk CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/notify"
	"github.com/leapstack-labs/salesdesk/internal/session"
	"github.com/leapstack-labs/salesdesk/internal/state"
	"github.com/leapstack-labs/salesdesk/internal/ui/workspace"
)

// APIConfig holds the sales agent API connection settings.
type APIConfig struct {
	BaseURL string            `koanf:"base_url"`
	Timeout time.Duration     `koanf:"timeout"`
	Headers map[string]string `koanf:"headers"`
}

// CacheConfig selects where pipeline results are persisted.
type CacheConfig struct {
	Backend         string `koanf:"backend"`
	Path            string `koanf:"path"`
	RestoreOnSelect bool   `koanf:"restore_on_select"`
}

// UIConfig holds configuration for the dashboard server.
type UIConfig struct {
	Port          int           `koanf:"port"`
	AutoOpen      bool          `koanf:"auto_open"`
	Watch         bool          `koanf:"watch"`
	SessionSecret string        `koanf:"session_secret"`
	WorkspaceIdle time.Duration `koanf:"workspace_idle"`
}

// NotifyConfig controls dashboard notifications.
type NotifyConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// EmailConfig holds email generation settings.
type EmailConfig struct {
	Style string `koanf:"style"`
}

// MockupConfig holds mockup generation settings.
type MockupConfig struct {
	LogoPlacement string `koanf:"logo_placement"`
	ColorScheme   string `koanf:"color_scheme"`
}

// Config holds all CLI configuration options.
type Config struct {
	API          APIConfig    `koanf:"api"`
	Cache        CacheConfig  `koanf:"cache"`
	UI           UIConfig     `koanf:"ui"`
	Notify       NotifyConfig `koanf:"notify"`
	Email        EmailConfig  `koanf:"email"`
	Mockup       MockupConfig `koanf:"mockup"`
	Verbose      bool         `koanf:"verbose"`
	LogLevel     string       `koanf:"log_level"`
	LogFormat    string       `koanf:"log_format"`
	OutputFormat string       `koanf:"output"`

	// BaseDir is the directory relative paths were resolved against.
	BaseDir string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultCacheBackend = state.BackendSQLite
	DefaultCachePath    = ".salesdesk/cache.db"
	DefaultPort         = 8765
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultOutput       = "auto" // TTY=text, non-TTY=markdown
)

// defaults is the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"api.base_url":            api.DefaultBaseURL,
		"api.timeout":             api.DefaultTimeout.String(),
		"cache.backend":           DefaultCacheBackend,
		"cache.path":              DefaultCachePath,
		"cache.restore_on_select": true,
		"ui.port":                 DefaultPort,
		"ui.auto_open":            true,
		"ui.watch":                true,
		"ui.session_secret":       "",
		"ui.workspace_idle":       workspace.DefaultIdleTimeout.String(),
		"notify.ttl":              notify.DefaultTTL.String(),
		"email.style":             session.DefaultEmailStyle,
		"mockup.logo_placement":   session.DefaultLogoPlacement,
		"mockup.color_scheme":     session.DefaultColorScheme,
		"verbose":                 false,
		"log_level":               DefaultLogLevel,
		"log_format":              DefaultLogFormat,
		"output":                  DefaultOutput,
	}
}

// APIOptions converts the API settings into client options.
func (c *Config) APIOptions() api.Options {
	return api.Options{
		BaseURL: c.API.BaseURL,
		Timeout: c.API.Timeout,
		Headers: c.API.Headers,
	}
}

// SessionOptions converts the pipeline settings into session options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		EmailStyle:       c.Email.Style,
		LogoPlacement:    c.Mockup.LogoPlacement,
		ColorScheme:      c.Mockup.ColorScheme,
		RestoreFromCache: c.Cache.RestoreOnSelect,
	}
}
