// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
//
// An empty or whitespace-only sync.tag_prefix is NOT a validation error:
// the run orchestrator treats it as "tagging disabled" and short-circuits,
// so the service still starts and reports healthy.
func (c *Config) Validate() error {
	if err := c.validateJellyfin(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateJellyfin validates the media server connection settings.
func (c *Config) validateJellyfin() error {
	if c.Jellyfin.URL == "" {
		return fmt.Errorf("JELLYFIN_URL is required")
	}
	if err := validateHTTPURL(c.Jellyfin.URL, "JELLYFIN_URL"); err != nil {
		return err
	}
	if c.Jellyfin.APIKey == "" {
		return fmt.Errorf("JELLYFIN_API_KEY is required")
	}
	if c.Jellyfin.RequestsPerSecond < 0 {
		return fmt.Errorf("JELLYFIN_REQUESTS_PER_SECOND must not be negative")
	}
	return nil
}

// validateSync validates reconciliation settings.
func (c *Config) validateSync() error {
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	// A prefix containing a comma would make configured name lists ambiguous
	// in logs and tooling; reject it early rather than producing odd tags.
	if strings.Contains(c.Sync.TagPrefix, ",") {
		return fmt.Errorf("SYNC_TAG_PREFIX must not contain commas")
	}
	return nil
}

// validateServer validates HTTP server settings.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// validateLogging validates log settings.
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT %q must be json or console", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a value is an absolute http(s) URL.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
