// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Jellyfin defaults (empty - required fields)
	if cfg.Jellyfin.URL != "" {
		t.Errorf("Jellyfin.URL should be empty by default, got %q", cfg.Jellyfin.URL)
	}
	if cfg.Jellyfin.APIKey != "" {
		t.Errorf("Jellyfin.APIKey should be empty by default, got %q", cfg.Jellyfin.APIKey)
	}

	// Sync defaults
	if cfg.Sync.Interval != 6*time.Hour {
		t.Errorf("Sync.Interval = %v, want 6h", cfg.Sync.Interval)
	}
	if cfg.Sync.TagPrefix != "#CollectionTags_" {
		t.Errorf("Sync.TagPrefix = %q, want #CollectionTags_", cfg.Sync.TagPrefix)
	}
	if cfg.Sync.TagAllCollections {
		t.Error("Sync.TagAllCollections should be false by default")
	}
	if cfg.Sync.UpdateOnScan {
		t.Error("Sync.UpdateOnScan should be false by default")
	}

	// Server defaults
	if cfg.Server.Port != 8239 {
		t.Errorf("Server.Port = %d, want 8239", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

// TestLoadEnvOverrides verifies ENV > defaults precedence
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JELLYFIN_URL", "http://jellyfin:8096")
	t.Setenv("JELLYFIN_API_KEY", "test-key")
	t.Setenv("SYNC_INTERVAL", "2h")
	t.Setenv("SYNC_TAG_ALL_COLLECTIONS", "true")
	t.Setenv("SYNC_COLLECTIONS_TO_TAG", "Marvel, DC ,, Anime")
	t.Setenv("SYNC_TAG_PREFIX", "#CT_")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Jellyfin.URL != "http://jellyfin:8096" {
		t.Errorf("Jellyfin.URL = %q", cfg.Jellyfin.URL)
	}
	if cfg.Sync.Interval != 2*time.Hour {
		t.Errorf("Sync.Interval = %v, want 2h", cfg.Sync.Interval)
	}
	if !cfg.Sync.TagAllCollections {
		t.Error("Sync.TagAllCollections should be true")
	}
	if cfg.Sync.TagPrefix != "#CT_" {
		t.Errorf("Sync.TagPrefix = %q, want #CT_", cfg.Sync.TagPrefix)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}

	names := cfg.Sync.CollectionNames()
	want := []string{"Marvel", "DC", "Anime"}
	if len(names) != len(want) {
		t.Fatalf("CollectionNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("CollectionNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

// TestLoadConfigFile verifies file layer between defaults and env
func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
jellyfin:
  url: http://media.local:8096
  api_key: file-key
sync:
  tag_prefix: "#File_"
  update_on_scan: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	// Env should still win over the file for the prefix
	t.Setenv("SYNC_TAG_PREFIX", "#Env_")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Jellyfin.URL != "http://media.local:8096" {
		t.Errorf("Jellyfin.URL = %q", cfg.Jellyfin.URL)
	}
	if !cfg.Sync.UpdateOnScan {
		t.Error("Sync.UpdateOnScan should come from the file")
	}
	if cfg.Sync.TagPrefix != "#Env_" {
		t.Errorf("Sync.TagPrefix = %q, env should override file", cfg.Sync.TagPrefix)
	}
}

func TestCollectionNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "Marvel", []string{"Marvel"}},
		{"trims and drops empties", " Marvel ,, DC ,", []string{"Marvel", "DC"}},
		{"whitespace only entries", " , ,", []string{}},
		{"names with inner spaces", "Science Fiction,Film Noir", []string{"Science Fiction", "Film Noir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SyncConfig{CollectionsToTag: tt.input}
			got := c.CollectionNames()
			if len(got) != len(tt.want) {
				t.Fatalf("CollectionNames() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("CollectionNames()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Jellyfin.URL = "http://localhost:8096"
		cfg.Jellyfin.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing url", func(c *Config) { c.Jellyfin.URL = "" }, true},
		{"bad url scheme", func(c *Config) { c.Jellyfin.URL = "ftp://host" }, true},
		{"missing api key", func(c *Config) { c.Jellyfin.APIKey = "" }, true},
		{"zero interval", func(c *Config) { c.Sync.Interval = 0 }, true},
		{"comma in prefix", func(c *Config) { c.Sync.TagPrefix = "#a,b_" }, true},
		{"empty prefix is allowed", func(c *Config) { c.Sync.TagPrefix = "" }, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
