package safety

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// SlotKind is one of the typed slot kinds of spec.md §4.2.6.
type SlotKind string

const (
	SlotChoice        SlotKind = "Choice"
	SlotSandboxPath    SlotKind = "SandboxPath"
	SlotSandboxWritePath SlotKind = "SandboxWritePath"
	SlotAdminWord      SlotKind = "AdminWord"
	SlotIntRange       SlotKind = "IntRange"
	SlotComposedWords  SlotKind = "ComposedWords"
	SlotCompoundName   SlotKind = "CompoundName"
	SlotFreeText       SlotKind = "FreeText"
)

// Flag describes one optional/required named flag a template accepts
// after its fixed prefix (spec.md §4.2.6).
type Flag struct {
	Name        string
	HasValue    bool // whether this flag takes a value slot ("--flag value" or "--flag=value")
	ValueKind   SlotKind
	ValueChoice []string // for SlotChoice values
}

// Param describes one typed positional slot consumed after flags.
type Param struct {
	Kind      SlotKind
	Choices   []string // for SlotChoice
	Vocab     string   // for AdminWord/ComposedWords
	IntMin    int      // for IntRange
	IntMax    int
	Required  bool
	Variadic  bool // only legal on the last param
	CommandID string // identifies this command for FreeText per-command rules
}

// Template is one registered `{description, binary, prefix, flags, params}`
// pattern a process invocation must match exactly (spec.md §4.2.6).
type Template struct {
	Description string
	Binary      string
	Prefix      []string
	Flags       []Flag
	Params      []Param
}

// Registry is the fixed set of registered templates, one per allowed
// external process shape.
type Registry struct {
	templates []Template
	vocab     *Vocabularies
	bases     []string // runtime project base names, for CompoundName
	suffixes  []string // compile-time ProjectSuffixes, for CompoundName
	freeText  FreeTextGlobals
}

// FreeTextGlobals mirrors the merged global FreeText toggle (spec.md
// §4.2.6): enabled globally, a max length, and which binaries are unsafe.
type FreeTextGlobals struct {
	Enabled        bool
	MaxLength      int
	UnsafeBinaries map[string]bool
	EnabledCmds    map[string]bool // which CommandID values have FreeText enabled
}

// NewRegistry builds a Registry with the fixed git/build templates spec.md
// §8 scenario S6 names, plus whatever extra templates the caller registers.
func NewRegistry(vocab *Vocabularies, bases, suffixes []string, ft FreeTextGlobals) *Registry {
	r := &Registry{vocab: vocab, bases: bases, suffixes: suffixes, freeText: ft}
	r.templates = append(r.templates, defaultGitTemplates()...)
	return r
}

// Register adds an additional template (e.g. a migration-runner template).
func (r *Registry) Register(t Template) {
	r.templates = append(r.templates, t)
}

// defaultGitTemplates registers exactly the git subcommands spec.md §8
// scenario S6 lists as whitelisted: add/commit/checkout/switch/status/
// log/diff/branch/remote/tag/ls-files/rev-parse/describe/stash/blame/
// clean --dry-run/count-objects/cherry/shortlog/rev-list count.
func defaultGitTemplates() []Template {
	g := func(desc string, prefix []string, params ...Param) Template {
		return Template{Description: desc, Binary: "git", Prefix: prefix, Params: params}
	}
	return []Template{
		g("git add", []string{"add"}, Param{Kind: SlotSandboxPath, Required: true, Variadic: true}),
		g("git commit", []string{"commit"}, Param{Kind: SlotFreeText, Required: true, CommandID: "git-commit"}),
		g("git checkout", []string{"checkout"}, Param{Kind: SlotCompoundName, Required: true}),
		g("git switch", []string{"switch"}, Param{Kind: SlotCompoundName, Required: true}),
		g("git status", []string{"status"}),
		g("git log", []string{"log"}),
		g("git diff", []string{"diff"}),
		g("git branch", []string{"branch"}),
		g("git remote", []string{"remote"}),
		g("git tag", []string{"tag"}, Param{Kind: SlotFreeText, Required: true, CommandID: "git-tag"}),
		g("git ls-files", []string{"ls-files"}),
		g("git rev-parse", []string{"rev-parse"}, Param{Kind: SlotFreeText, Required: false, CommandID: "git-rev-parse"}),
		g("git describe", []string{"describe"}),
		g("git stash", []string{"stash"}),
		g("git blame", []string{"blame"}, Param{Kind: SlotSandboxPath, Required: true}),
		g("git clean dry-run", []string{"clean", "--dry-run"}),
		g("git count-objects", []string{"count-objects"}),
		g("git cherry", []string{"cherry"}),
		g("git shortlog", []string{"shortlog"}),
		g("git rev-list count", []string{"rev-list", "--count"}),
	}
}

// Validate implements spec.md §4.2.6's Validate(binary, args, sandboxRoot)
// entry point: gigablacklist first, then permanent-block check, then
// exactly-one-matching-template search.
func (r *Registry) Validate(binary string, args []string, sandboxRoot string, blacklist *Blacklist) error {
	if blacklist != nil {
		if hit, ok := blacklist.CheckAll(binary, args); ok {
			return fmt.Errorf("%w: argument matches gigablacklist pattern %q", ErrGigablacklistHit, hit)
		}
	}

	if IsPermanentlyBlocked(binary) && !IsVersionCheckException(binary, args) {
		return fmt.Errorf("binary %q is permanently blocked", binary)
	}

	base := strings.ToLower(filepath.Base(binary))
	base = strings.TrimSuffix(base, ".exe")

	var errs []string
	matched := false
	for _, t := range r.templates {
		if strings.ToLower(t.Binary) != base {
			continue
		}
		if err := r.matchTemplate(t, args, sandboxRoot, blacklist); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", t.Description, err))
			continue
		}
		matched = true
		break
	}
	if matched {
		return nil
	}
	if len(errs) == 0 {
		return fmt.Errorf("no template registered for binary %q", binary)
	}
	return fmt.Errorf("no matching template for %q: %s", binary, strings.Join(errs, "; "))
}

func (r *Registry) matchTemplate(t Template, args []string, sandboxRoot string, blacklist *Blacklist) error {
	if len(args) < len(t.Prefix) {
		return fmt.Errorf("too few args for prefix")
	}
	for i, p := range t.Prefix {
		if args[i] != p {
			return fmt.Errorf("prefix mismatch at position %d", i)
		}
	}
	rest := args[len(t.Prefix):]

	seenFlags := make(map[string]bool)
	i := 0
	for i < len(rest) {
		matchedFlag := false
		for _, f := range t.Flags {
			if rest[i] == f.Name || strings.HasPrefix(rest[i], f.Name+"=") {
				if seenFlags[f.Name] {
					return fmt.Errorf("flag %q repeated", f.Name)
				}
				seenFlags[f.Name] = true
				matchedFlag = true
				if f.HasValue {
					if strings.Contains(rest[i], "=") {
						i++
					} else {
						i += 2
						if i > len(rest) {
							return fmt.Errorf("flag %q missing value", f.Name)
						}
					}
				} else {
					i++
				}
				break
			}
		}
		if matchedFlag {
			continue
		}
		break
	}

	positional := rest[i:]
	return r.matchParams(t.Params, positional, sandboxRoot, blacklist)
}

func (r *Registry) matchParams(params []Param, positional []string, sandboxRoot string, blacklist *Blacklist) error {
	for idx, p := range params {
		isLast := idx == len(params)-1
		if p.Variadic && isLast {
			remaining := positional[idx:]
			if p.Required && len(remaining) == 0 {
				return fmt.Errorf("variadic param requires at least one value")
			}
			for _, v := range remaining {
				if err := r.matchOneSlot(p, v, sandboxRoot, blacklist); err != nil {
					return err
				}
			}
			return nil
		}
		if idx >= len(positional) {
			if p.Required {
				return fmt.Errorf("missing required param %d", idx)
			}
			continue
		}
		if err := r.matchOneSlot(p, positional[idx], sandboxRoot, blacklist); err != nil {
			return err
		}
	}
	if len(positional) > len(params) {
		return fmt.Errorf("too many positional args")
	}
	return nil
}

func (r *Registry) matchOneSlot(p Param, value string, sandboxRoot string, blacklist *Blacklist) error {
	switch p.Kind {
	case SlotChoice:
		for _, c := range p.Choices {
			if strings.EqualFold(c, value) {
				return nil
			}
		}
		return fmt.Errorf("%q is not a valid choice", value)
	case SlotSandboxPath:
		_, err := Resolve(value, sandboxRoot, blacklist)
		return err
	case SlotSandboxWritePath:
		_, err := ResolveForWrite(value, sandboxRoot, blacklist)
		return err
	case SlotAdminWord:
		if r.vocab == nil || !r.vocab.Contains(p.Vocab, value) {
			return fmt.Errorf("%q is not in vocabulary %q", value, p.Vocab)
		}
		return nil
	case SlotIntRange:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%q is not an integer", value)
		}
		if n < p.IntMin || n > p.IntMax {
			return fmt.Errorf("%d out of range [%d,%d]", n, p.IntMin, p.IntMax)
		}
		return nil
	case SlotComposedWords:
		return ValidateComposedWords(value, r.vocab, p.Vocab, 12)
	case SlotCompoundName:
		return r.validateCompoundName(value)
	case SlotFreeText:
		cfg := FreeTextConfig{
			GloballyEnabled: r.freeText.Enabled,
			CommandEnabled:  r.freeText.EnabledCmds[p.CommandID],
			UnsafeBinary:    false,
			MaxLength:       r.freeText.MaxLength,
		}
		if err := ValidateFreeText(value, cfg, blacklist, r.vocab, p.Vocab); err != nil {
			return err
		}
		switch p.CommandID {
		case "git-tag":
			return ValidateGitTagName(value)
		}
		return nil
	default:
		return fmt.Errorf("unknown slot kind %q", p.Kind)
	}
}

// validateCompoundName implements spec.md §4.2.6's CompoundName slot:
// "base" or "base+suffix" or "base.suffix" where base is a runtime
// project base and suffix is a compile-time ProjectSuffix.
func (r *Registry) validateCompoundName(value string) error {
	base := value
	var suffix string
	if idx := strings.IndexAny(value, "+."); idx >= 0 {
		base = value[:idx]
		suffix = value[idx+1:]
	}
	baseOK := false
	for _, b := range r.bases {
		if b == base {
			baseOK = true
			break
		}
	}
	if !baseOK {
		return fmt.Errorf("%q is not a known project base", base)
	}
	if suffix == "" {
		return nil
	}
	for _, s := range r.suffixes {
		if s == suffix {
			return nil
		}
	}
	return fmt.Errorf("%q is not a known project suffix", suffix)
}
