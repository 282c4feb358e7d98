package container

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GlobalEnv is the process-wide JSON document (spec.md §3 "Global
// environment"): project bases, allowed git URLs, vocabularies, a
// FreeText config block, custom gigablacklist patterns, and the two
// gigablacklist opt-outs honored only here, never from a sandbox env.
type GlobalEnv struct {
	ProjectBases              []string            `json:"projectBases,omitempty"`
	ProjectSuffixes           []string            `json:"projectSuffixes,omitempty"`
	AllowedGitRemoteURLs      []string            `json:"allowedGitRemoteUrls,omitempty"`
	AllowedGitCloneURLs       []string            `json:"allowedGitCloneUrls,omitempty"`
	Vocabularies              map[string][]string `json:"vocabularies,omitempty"`
	FreeText                  FreeTextConfig      `json:"freeText,omitempty"`
	CustomBlacklist           []string            `json:"customBlacklist,omitempty"`
	DisableHardcodedGigablacklist    bool         `json:"disableHardcodedGigablacklist,omitempty"`
	DisableMk8shellEnvsGigablacklist bool         `json:"disableMk8shellEnvsGigablacklist,omitempty"`
}

// FreeTextConfig is the global scalar/per-verb FreeText toggle set
// (spec.md §4.2.6's "FreeText sanitization").
type FreeTextConfig struct {
	Enabled        bool            `json:"enabled"`
	MaxLength      int             `json:"maxLength,omitempty"`
	PerCommand     map[string]bool `json:"perCommand,omitempty"`
	UnsafeBinaries []string        `json:"unsafeBinaries,omitempty"`
}

var (
	globalEnvMu     sync.Mutex
	cachedGlobalEnv *GlobalEnv
)

// LoadGlobalEnvCached loads path once per process and caches the result
// (spec.md §3: "Loaded once per process and cached"). Every call,
// including cache hits, takes globalEnvMu.
func LoadGlobalEnvCached(path string) (*GlobalEnv, error) {
	globalEnvMu.Lock()
	defer globalEnvMu.Unlock()
	if cachedGlobalEnv != nil {
		return cachedGlobalEnv, nil
	}
	g, err := loadGlobalEnv(path)
	if err != nil {
		return nil, err
	}
	cachedGlobalEnv = g
	return cachedGlobalEnv, nil
}

func loadGlobalEnv(path string) (*GlobalEnv, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalEnv{}, nil
		}
		return nil, fmt.Errorf("read global env: %w", err)
	}
	var g GlobalEnv
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse global env: %w", err)
	}
	if g.DisableMk8shellEnvsGigablacklist && !g.DisableHardcodedGigablacklist {
		return nil, fmt.Errorf("DisableMk8shellEnvsGigablacklist requires DisableHardcodedGigablacklist")
	}
	return &g, nil
}

// ResetGlobalEnvCacheForTests clears the process-wide global env cache
// (spec.md §5: "mutation only through the explicit test-only reset").
func ResetGlobalEnvCacheForTests() {
	globalEnvMu.Lock()
	defer globalEnvMu.Unlock()
	cachedGlobalEnv = nil
}
