package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/leapstack-labs/salesdesk/internal/cli/output"
	"github.com/leapstack-labs/salesdesk/internal/state"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	if !slices.Contains(state.Backends(), strings.ToLower(c.Cache.Backend)) {
		errs = append(errs, fmt.Errorf("cache.backend must be one of %s, got %q",
			strings.Join(state.Backends(), ", "), c.Cache.Backend))
	}
	if c.UI.Port <= 0 || c.UI.Port > 65535 {
		errs = append(errs, fmt.Errorf("ui.port must be between 1 and 65535, got %d", c.UI.Port))
	}
	if c.UI.WorkspaceIdle <= 0 {
		errs = append(errs, fmt.Errorf("ui.workspace_idle must be positive, got %s", c.UI.WorkspaceIdle))
	}
	if c.Notify.TTL <= 0 {
		errs = append(errs, fmt.Errorf("notify.ttl must be positive, got %s", c.Notify.TTL))
	}
	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.LogFormat)) {
		errs = append(errs, fmt.Errorf("log_format must be one of %s, got %q", strings.Join(logFormats, ", "), c.LogFormat))
	}
	if c.OutputFormat != "" && !slices.Contains(output.Modes(), strings.ToLower(c.OutputFormat)) {
		errs = append(errs, fmt.Errorf("output must be one of %s, got %q", strings.Join(output.Modes(), ", "), c.OutputFormat))
	}

	return errors.Join(errs...)
}
