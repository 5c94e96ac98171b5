// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package config

import (
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables
// and config files.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Jellyfin JellyfinConfig `koanf:"jellyfin"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// JellyfinConfig holds connection settings for the Jellyfin/Emby-compatible
// media server whose library is being tagged.
//
// Environment Variables:
//   - JELLYFIN_URL: Server URL (e.g., http://localhost:8096)
//   - JELLYFIN_API_KEY: API key from Admin Dashboard > API Keys
//   - JELLYFIN_USER_ID: Optional user ID for user-scoped item queries
type JellyfinConfig struct {
	URL    string `koanf:"url"`
	APIKey string `koanf:"api_key"`
	UserID string `koanf:"user_id"`

	// RequestsPerSecond caps outbound API calls. 0 disables rate limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// SyncConfig holds the tag reconciliation settings.
//
// A tag is "managed" by Collectag iff it begins with TagPrefix (compared
// case-insensitively). Managed tags on an item always mirror the item's
// current membership in the collections selected for tagging; tags without
// the prefix are never touched.
//
// Environment Variables:
//   - SYNC_INTERVAL: Interval between scheduled runs (default: 6h)
//   - SYNC_UPDATE_ON_SCAN: Run after a library scan completes (default: false)
//   - SYNC_RUN_ON_START: Run once at service startup (default: false)
//   - SYNC_TAG_ALL_COLLECTIONS: Tag every collection regardless of the name list
//   - SYNC_COLLECTIONS_TO_TAG: Comma-separated collection names to tag
//   - SYNC_TAG_PREFIX: Managed tag prefix (default: "#CollectionTags_")
type SyncConfig struct {
	Interval          time.Duration `koanf:"interval"`
	UpdateOnScan      bool          `koanf:"update_on_scan"`
	RunOnStart        bool          `koanf:"run_on_start"`
	TagAllCollections bool          `koanf:"tag_all_collections"`
	CollectionsToTag  string        `koanf:"collections_to_tag"`
	TagPrefix         string        `koanf:"tag_prefix"`
}

// CollectionNames returns the configured collection name list, split on
// commas, trimmed, with empty entries removed.
func (c *SyncConfig) CollectionNames() []string {
	if c.CollectionsToTag == "" {
		return nil
	}
	parts := strings.Split(c.CollectionsToTag, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// ServerConfig holds HTTP server configuration for the status/metrics API.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8239)
//   - HTTP_HOST: Listen host (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
