package executor

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func init() {
	register(mk8shell.VerbTextContains, textContains)
	register(mk8shell.VerbTextReplace, textReplace)
	register(mk8shell.VerbTextSplit, textSplit)
	register(mk8shell.VerbTextJoin, textJoin)
	register(mk8shell.VerbTextTrim, textTrim)
	register(mk8shell.VerbTextMatch, textMatch)
	register(mk8shell.VerbTextLineCount, textLineCount)
	register(mk8shell.VerbTextUpper, textUpper)
	register(mk8shell.VerbTextLower, textLower)
	register(mk8shell.VerbTextPad, textPad)
	register(mk8shell.VerbTextRepeat, textRepeat)
	register(mk8shell.VerbTextReverse, textReverse)
	register(mk8shell.VerbTextIndexOf, textIndexOf)
	register(mk8shell.VerbTextSubstring, textSubstring)
	register(mk8shell.VerbTextTemplate, textTemplate)
}

// regexTimeout bounds TextMatch per spec.md §4.4: "Regex operations
// carry a 2-second timeout."
const regexTimeout = 2 * time.Second

func textContains(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextContains requires haystack, needle"}
	}
	return strconv.FormatBool(strings.Contains(op.Args[0], op.Args[1])), nil
}

func textReplace(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 3 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextReplace requires text, find, replace"}
	}
	return strings.ReplaceAll(op.Args[0], op.Args[1], op.Args[2]), nil
}

func textSplit(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextSplit requires text, separator"}
	}
	return strings.Join(strings.Split(op.Args[0], op.Args[1]), "\n"), nil
}

func textJoin(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextJoin requires separator, items..."}
	}
	sep := op.Args[0]
	return strings.Join(op.Args[1:], sep), nil
}

func textTrim(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextTrim requires 1 arg"}
	}
	return strings.TrimSpace(op.Args[0]), nil
}

func textMatch(ctx context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextMatch requires text, pattern"}
	}
	type result struct {
		matched bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		re, err := regexp.Compile(op.Args[1])
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{matched: re.MatchString(op.Args[0])}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: r.err.Error()}
		}
		return strconv.FormatBool(r.matched), nil
	case <-time.After(regexTimeout):
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindStepTimeout, Detail: "TextMatch exceeded 2s regex timeout"}
	case <-ctx.Done():
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCancelled, Detail: ctx.Err().Error()}
	}
}

func textLineCount(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextLineCount requires 1 arg"}
	}
	if op.Args[0] == "" {
		return "0", nil
	}
	return strconv.Itoa(len(strings.Split(strings.TrimRight(op.Args[0], "\n"), "\n"))), nil
}

func textUpper(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextUpper requires 1 arg"}
	}
	return strings.ToUpper(op.Args[0]), nil
}

func textLower(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextLower requires 1 arg"}
	}
	return strings.ToLower(op.Args[0]), nil
}

// textPad pads args[0] to the width in args[1] using the fill in args[2]
// (default a space), padding on the right unless args[3] == "left".
func textPad(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextPad requires text, width"}
	}
	width, err := strconv.Atoi(op.Args[1])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextPad: " + err.Error()}
	}
	fill := " "
	if len(op.Args) >= 3 && op.Args[2] != "" {
		fill = op.Args[2]
	}
	s := op.Args[0]
	if len(s) >= width {
		return s, nil
	}
	padding := strings.Repeat(fill, width-len(s))
	if len(padding) > width-len(s) {
		padding = padding[:width-len(s)]
	}
	if len(op.Args) >= 4 && op.Args[3] == "left" {
		return padding + s, nil
	}
	return s + padding, nil
}

func textRepeat(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextRepeat requires text, count"}
	}
	n, err := strconv.Atoi(op.Args[1])
	if err != nil || n < 0 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextRepeat: invalid count"}
	}
	return strings.Repeat(op.Args[0], n), nil
}

func textReverse(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextReverse requires 1 arg"}
	}
	r := []rune(op.Args[0])
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r), nil
}

func textIndexOf(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextIndexOf requires haystack, needle"}
	}
	return strconv.Itoa(strings.Index(op.Args[0], op.Args[1])), nil
}

// textSubstring slices args[0] by rune index [args[1], args[2]).
func textSubstring(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextSubstring requires text, start[, end]"}
	}
	r := []rune(op.Args[0])
	start, err := strconv.Atoi(op.Args[1])
	if err != nil || start < 0 || start > len(r) {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextSubstring: invalid start"}
	}
	end := len(r)
	if len(op.Args) >= 3 && op.Args[2] != "" {
		end, err = strconv.Atoi(op.Args[2])
		if err != nil || end < start || end > len(r) {
			return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextSubstring: invalid end"}
		}
	}
	return string(r[start:end]), nil
}

// textTemplate replaces {{key}} placeholders in args[0] using the
// key=value pairs in args[1:].
func textTemplate(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextTemplate requires a template"}
	}
	result := op.Args[0]
	for _, pair := range op.Args[1:] {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TextTemplate: malformed pair " + pair}
		}
		result = strings.ReplaceAll(result, "{{"+kv[0]+"}}", kv[1])
	}
	return result, nil
}
