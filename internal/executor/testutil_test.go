package executor

import (
	"testing"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell/safety"
)

// newTestWorkspace builds a minimal Workspace rooted at a fresh temp dir,
// with an empty custom blacklist/vocab and the default git-only template
// registry (no FreeText enabled).
func newTestWorkspace(t *testing.T) *container.Workspace {
	t.Helper()
	root := t.TempDir()
	vocab := safety.NewVocabularies(nil, nil)
	blacklist := safety.New(safety.Options{})
	templates := safety.NewRegistry(vocab, nil, nil, safety.FreeTextGlobals{
		UnsafeBinaries: map[string]bool{},
		EnabledCmds:    map[string]bool{},
	})
	return &container.Workspace{
		SandboxID:        "test-sandbox",
		SandboxRoot:      root,
		WorkingDirectory: root,
		Variables:        map[string]string{},
		Blacklist:        blacklist,
		Vocab:            vocab,
		Templates:        templates,
	}
}
