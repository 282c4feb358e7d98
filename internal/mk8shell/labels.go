package mk8shell

import (
	"regexp"
	"strings"
)

var labelRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validateLabel enforces spec.md §3's label constraints: unique, ≤64
// chars, alphanumeric plus -_. Uniqueness is checked by the caller across
// the whole flat op list.
func validateLabel(label string) error {
	if len(label) > MaxLabelLength {
		return &CompileError{Reason: "label \"" + label + "\" exceeds 64 characters"}
	}
	if !labelRe.MatchString(label) {
		return &CompileError{Reason: "label \"" + label + "\" contains characters outside [A-Za-z0-9_-]"}
	}
	return nil
}

// validateLabelsAndJumps implements spec.md §4.1's post-expansion
// validation: labels unique, every onFailure:goto:X targets a defined
// label, jumps are forward-only.
func validateLabelsAndJumps(ops []Operation) error {
	labelIndex := make(map[string]int)
	for i, op := range ops {
		if op.Label == "" {
			continue
		}
		if err := validateLabel(op.Label); err != nil {
			return err
		}
		if _, dup := labelIndex[op.Label]; dup {
			return &CompileError{Step: i, Verb: op.Verb, Reason: "duplicate label \"" + op.Label + "\""}
		}
		labelIndex[op.Label] = i
	}

	for i, op := range ops {
		if op.OnFailure == "" {
			continue
		}
		target, ok := parseGoto(op.OnFailure)
		if !ok {
			return &CompileError{Step: i, Verb: op.Verb, Reason: "onFailure must be \"goto:<label>\", got " + op.OnFailure}
		}
		targetIdx, ok := labelIndex[target]
		if !ok {
			return &CompileError{Step: i, Verb: op.Verb, Reason: "onFailure target label \"" + target + "\" is not defined"}
		}
		if targetIdx <= i {
			return &CompileError{Step: i, Verb: op.Verb, Reason: "onFailure target label \"" + target + "\" is not forward of this step"}
		}
	}
	return nil
}

func parseGoto(onFailure string) (label string, ok bool) {
	const prefix = "goto:"
	if !strings.HasPrefix(onFailure, prefix) {
		return "", false
	}
	return strings.TrimPrefix(onFailure, prefix), true
}
