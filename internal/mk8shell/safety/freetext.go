package safety

import (
	"fmt"
	"regexp"
	"strings"
)

// secretPatterns are substrings a FreeText value must never contain
// (spec.md §4.2.6 FreeText sanitization).
var secretPatterns = []string{
	"KEY=", "SECRET=", "TOKEN=", "PASSWORD=", "BEARER:",
}

// FreeTextConfig mirrors the merged global/per-command FreeText toggle,
// per spec.md §4.2.6 and the container's merged-config step.
type FreeTextConfig struct {
	GloballyEnabled bool
	CommandEnabled  bool // enabled for this specific command description
	UnsafeBinary    bool // true if the command's binary is in the FreeText unsafe-binary set
	MaxLength       int
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var gitTagBadChars = regexp.MustCompile(`[\s~^:?*\[\\\t\n\r]`)

// ValidateFreeText implements spec.md §4.2.6's FreeText sanitization,
// falling back to ComposedWords validation when FreeText is disabled.
func ValidateFreeText(value string, cfg FreeTextConfig, blacklist *Blacklist, vocab *Vocabularies, vocabList string) error {
	if !cfg.GloballyEnabled || !cfg.CommandEnabled || cfg.UnsafeBinary {
		return ValidateComposedWords(value, vocab, vocabList, 12)
	}

	if value == "" {
		return fmt.Errorf("freetext value must not be empty")
	}
	maxLen := cfg.MaxLength
	if maxLen <= 0 {
		maxLen = 4096
	}
	if len(value) > maxLen {
		return fmt.Errorf("freetext value exceeds max length %d", maxLen)
	}
	for _, r := range value {
		if r < 0x20 && r != ' ' {
			return fmt.Errorf("freetext value contains a control character")
		}
	}
	upper := strings.ToUpper(value)
	for _, p := range secretPatterns {
		if strings.Contains(upper, strings.ToUpper(p)) {
			return fmt.Errorf("freetext value matches a secret pattern")
		}
	}
	if blacklist != nil {
		if hit, ok := blacklist.Check(value); ok {
			return fmt.Errorf("freetext value matches gigablacklist pattern %q", hit)
		}
	}
	return nil
}

// ValidateMigrationName enforces the per-command extra rule for
// migration-name FreeText: must be a valid identifier.
func ValidateMigrationName(value string) error {
	if !identifierRe.MatchString(value) {
		return fmt.Errorf("migration name %q is not a valid identifier", value)
	}
	return nil
}

// ValidateGitTagName enforces the per-command extra rule for git
// tag-name FreeText (spec.md §4.2.6).
func ValidateGitTagName(value string) error {
	if value == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	if strings.Contains(value, "..") || strings.Contains(value, "@{") || strings.Contains(value, "//") {
		return fmt.Errorf("tag name %q contains a disallowed sequence", value)
	}
	if strings.HasPrefix(value, ".") || strings.HasSuffix(value, ".") || strings.HasPrefix(value, "/") || strings.HasSuffix(value, "/") {
		return fmt.Errorf("tag name %q has a disallowed leading/trailing character", value)
	}
	if strings.HasSuffix(value, ".lock") {
		return fmt.Errorf("tag name %q must not end in .lock", value)
	}
	if gitTagBadChars.MatchString(value) {
		return fmt.Errorf("tag name %q contains a disallowed character", value)
	}
	return nil
}

// ValidateComposedWords validates a whitespace-split, vocabulary-bound
// word sequence (spec.md §4.2.6 ComposedWords slot kind).
func ValidateComposedWords(value string, vocab *Vocabularies, list string, maxWords int) error {
	words := strings.Fields(value)
	if len(words) == 0 {
		return fmt.Errorf("value must not be empty")
	}
	if len(words) > maxWords {
		return fmt.Errorf("value has more than %d words", maxWords)
	}
	if vocab == nil {
		return fmt.Errorf("no vocabulary configured for composed-words validation")
	}
	for _, w := range words {
		if !vocab.Contains(list, w) {
			return fmt.Errorf("word %q is not in vocabulary %q", w, list)
		}
	}
	return nil
}
