package container

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sharpclaw/mk8/internal/mk8shell/safety"
)

// Workspace is the assembled per-invocation context handed to the verb
// executor (spec.md §4.3 step 9): resolved sandbox root, merged
// FreeText config, merged vocabularies, effective gigablacklist, and
// the command-template registry.
type Workspace struct {
	SandboxID        string
	SandboxRoot      string
	WorkingDirectory string
	RunAsUser        string
	Variables        map[string]string

	Blacklist  *safety.Blacklist
	Vocab      *safety.Vocabularies
	Templates  *safety.Registry
}

// Container owns the single-use lifecycle around one Create call.
// "Strictly single-use; releasing it discards all loaded state. No two
// invocations share a container" (spec.md §4.3).
type Container struct {
	registry   *Registry
	keyPath    string
	globalPath string
}

// New builds a Container bound to a sandbox registry path, a
// machine-local signing key path, and the global env JSON path.
func New(registry *Registry, keyPath, globalEnvPath string) *Container {
	return &Container{registry: registry, keyPath: keyPath, globalPath: globalEnvPath}
}

// Create runs the 9-step Task Container lifecycle (spec.md §4.3):
// cached global env, registry lookup, root canonicalization, signed-env
// verification, env parsing, merged FreeText/vocab/blacklist
// construction, and workspace assembly.
func (c *Container) Create(sandboxID string) (*Workspace, error) {
	globalEnv, err := LoadGlobalEnvCached(c.globalPath)
	if err != nil {
		return nil, err
	}

	entry, err := c.registry.Resolve(sandboxID)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(entry.RootPath)
	if err != nil {
		return nil, fmt.Errorf("canonicalize sandbox root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("sandbox root %q is not a directory", root)
	}

	machineKey, err := LoadOrCreateKey(c.keyPath)
	if err != nil {
		return nil, err
	}
	signedEnvPath := filepath.Join(root, "mk8.signed.env")
	envVars, err := ReadSignedEnv(signedEnvPath, machineKey, entry.ID)
	if err != nil {
		return nil, err
	}

	freeText := mergeFreeText(globalEnv.FreeText, envVars)
	vocab := safety.NewVocabularies(globalEnv.Vocabularies, safety.ParseEnvVocab(envVars))

	blacklist := safety.New(safety.Options{
		DisableHardcodedGigablacklist:    globalEnv.DisableHardcodedGigablacklist,
		DisableMk8shellEnvsGigablacklist: globalEnv.DisableMk8shellEnvsGigablacklist,
		CustomPatterns:                   globalEnv.CustomBlacklist,
		SandboxPatterns:                  safety.ParseSandboxList(envVars["MK8_BLACKLIST"]),
	})

	bases := projectBases(envVars, globalEnv.ProjectBases)
	templates := safety.NewRegistry(vocab, bases, globalEnv.ProjectSuffixes, freeText)

	return &Workspace{
		SandboxID:        entry.ID,
		SandboxRoot:      root,
		WorkingDirectory: root,
		RunAsUser:        envVars["MK8_RUN_AS_USER"],
		Variables:        envVars,
		Blacklist:        blacklist,
		Vocab:            vocab,
		Templates:        templates,
	}, nil
}

// projectBases merges the global ProjectBases with any sandbox-local
// MK8_PROJECT_BASES additions (additive, matching the vocabulary merge
// rule), since CompoundName's `base` slot is "runtime project bases".
func projectBases(env map[string]string, global []string) []string {
	bases := append([]string(nil), global...)
	if v, ok := env["MK8_PROJECT_BASES"]; ok {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				bases = append(bases, b)
			}
		}
	}
	return bases
}

func mergeFreeText(global FreeTextConfig, env map[string]string) safety.FreeTextGlobals {
	ft := safety.FreeTextGlobals{
		Enabled:        global.Enabled,
		MaxLength:      global.MaxLength,
		UnsafeBinaries: map[string]bool{},
		EnabledCmds:    map[string]bool{},
	}
	for _, b := range global.UnsafeBinaries {
		ft.UnsafeBinaries[strings.ToLower(b)] = true
	}
	for cmd, enabled := range global.PerCommand {
		ft.EnabledCmds[cmd] = enabled
	}

	if v, ok := env["MK8_FREETEXT_ENABLED"]; ok {
		ft.Enabled = v == "true" || v == "1"
	}
	if v, ok := env["MK8_FREETEXT_MAX_LENGTH"]; ok {
		if n, err := parsePositiveInt(v); err == nil {
			ft.MaxLength = n
		}
	}
	if v, ok := env["MK8_FREETEXT_UNSAFE_BINARIES"]; ok {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				ft.UnsafeBinaries[strings.ToLower(b)] = true
			}
		}
	}
	return ft
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty int")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a digit: %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
