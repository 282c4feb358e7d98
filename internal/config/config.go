// Package config loads and caches the sharpclaw process configuration.
// A JSON file, loaded once, guarded
// by a RWMutex, with secrets pulled from the environment only.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Config is the root configuration for the sharpclaw gateway process.
type Config struct {
	Mk8shell   Mk8shellConfig   `json:"mk8shell"`
	Permission PermissionConfig `json:"permission"`
	Database   DatabaseConfig   `json:"database"`
	Gateway    GatewayConfig    `json:"gateway"`

	mu sync.RWMutex
}

// Mk8shellConfig configures the compile/safety/executor pipeline defaults.
type Mk8shellConfig struct {
	AppDataDir                       string              `json:"app_data_dir"` // per-user dir holding sandboxes.json, mk8.shell.key, history/
	CustomBlacklist                  []string            `json:"custom_blacklist,omitempty"`
	DisableHardcodedGigablacklist    bool                `json:"disable_hardcoded_gigablacklist,omitempty"`
	DisableMk8shellEnvsGigablacklist bool                `json:"disable_mk8shell_envs_gigablacklist,omitempty"`
	ProjectBases                     []string            `json:"project_bases,omitempty"`
	ProjectSuffixes                  []string            `json:"project_suffixes,omitempty"`
	AllowedGitRemoteURLs             []string            `json:"allowed_git_remote_urls,omitempty"`
	AllowedGitCloneURLs              []string            `json:"allowed_git_clone_urls,omitempty"`
	Vocabularies                     map[string][]string `json:"vocabularies,omitempty"`
	FreeText                         FreeTextConfig      `json:"free_text,omitempty"`
}

// FreeTextConfig is the global FreeText slot toggle + per-command overrides.
type FreeTextConfig struct {
	Enabled        bool            `json:"enabled"`
	MaxLength      int             `json:"max_length,omitempty"`
	PerCommand     map[string]bool `json:"per_command,omitempty"`
	UnsafeBinaries []string        `json:"unsafe_binaries,omitempty"`
}

// PermissionConfig configures defaults for the permission resolver.
type PermissionConfig struct {
	WhitelistedUsers  []string `json:"whitelisted_users,omitempty"`
	WhitelistedAgents []string `json:"whitelisted_agents,omitempty"`
}

// DatabaseConfig configures Postgres persistence for jobs/roles/grants.
// PostgresDSN is NEVER read from the config file — only from
// SHARPCLAW_POSTGRES_DSN.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
}

// GatewayConfig configures the HTTP/WS chat-stream front door.
type GatewayConfig struct {
	ListenAddr string `json:"listen_addr,omitempty"`
}

const envPostgresDSN = "SHARPCLAW_POSTGRES_DSN"

// Load reads a JSON config file from path and fills in secrets from env.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.Database.PostgresDSN = os.Getenv(envPostgresDSN)
	return &c, nil
}

var (
	cacheMu sync.Mutex
	cached  *Config
)

// LoadCached loads the config once per process (every call takes
// cacheMu), per spec.md §5's process-wide cache contract.
func LoadCached(path string) (*Config, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cached != nil {
		return cached, nil
	}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	cached = c
	return cached, nil
}

// ResetCacheForTests clears the process-wide config cache. Test-only, per
// spec.md §5's "mutation only through the explicit test-only reset".
func ResetCacheForTests() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cached = nil
}

// Snapshot returns a read-locked copy of the mutable sections of c.
func (c *Config) Snapshot() Mk8shellConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Mk8shell
}

// ExpandHome replaces a leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
