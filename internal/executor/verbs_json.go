package executor

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func init() {
	register(mk8shell.VerbJSONGet, jsonGet)
	register(mk8shell.VerbJSONSet, jsonSet)
	register(mk8shell.VerbJSONValid, jsonValid)
	register(mk8shell.VerbJSONMerge, jsonMerge)
	register(mk8shell.VerbJSONDelete, jsonDelete)
	register(mk8shell.VerbJSONKeys, jsonKeys)
	register(mk8shell.VerbJSONArrayAppend, jsonArrayAppend)
	register(mk8shell.VerbJSONType, jsonType)
}

// jsonPathSegments splits a dotted JSON path like "a.b.c" into segments.
func jsonPathSegments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func jsonGet(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONGet requires document, path"}
	}
	var doc any
	if err := json.Unmarshal([]byte(op.Args[0]), &doc); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONGet: invalid JSON: " + err.Error()}
	}
	val := doc
	for _, seg := range jsonPathSegments(op.Args[1]) {
		m, ok := val.(map[string]any)
		if !ok {
			return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONGet: path segment \"" + seg + "\" is not an object"}
		}
		v, ok := m[seg]
		if !ok {
			return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONGet: path not found: " + op.Args[1]}
		}
		val = v
	}
	return stringifyJSONValue(val), nil
}

func stringifyJSONValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func jsonSet(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 3 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONSet requires document, path, value"}
	}
	var doc map[string]any
	if op.Args[0] != "" {
		if err := json.Unmarshal([]byte(op.Args[0]), &doc); err != nil {
			return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONSet: invalid JSON: " + err.Error()}
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	segs := jsonPathSegments(op.Args[1])
	if len(segs) == 0 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONSet: empty path"}
	}
	cur := doc
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	var val any
	if err := json.Unmarshal([]byte(op.Args[2]), &val); err != nil {
		val = op.Args[2]
	}
	cur[segs[len(segs)-1]] = val

	out, err := json.Marshal(doc)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return string(out), nil
}

func jsonValid(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONValid requires 1 arg"}
	}
	return strconv.FormatBool(json.Valid([]byte(op.Args[0]))), nil
}

// jsonMerge shallow-merges args[1] over args[0] (keys in args[1] win).
func jsonMerge(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONMerge requires base, overlay"}
	}
	var base, overlay map[string]any
	if err := json.Unmarshal([]byte(op.Args[0]), &base); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONMerge: invalid base JSON: " + err.Error()}
	}
	if err := json.Unmarshal([]byte(op.Args[1]), &overlay); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONMerge: invalid overlay JSON: " + err.Error()}
	}
	if base == nil {
		base = map[string]any{}
	}
	for k, v := range overlay {
		base[k] = v
	}
	out, err := json.Marshal(base)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return string(out), nil
}

// jsonDelete removes the key at the dotted path in args[1] from args[0].
func jsonDelete(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONDelete requires document, path"}
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(op.Args[0]), &doc); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONDelete: invalid JSON: " + err.Error()}
	}
	segs := jsonPathSegments(op.Args[1])
	if len(segs) == 0 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONDelete: empty path"}
	}
	cur := doc
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return string(mustMarshal(doc)), nil
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
	return string(mustMarshal(doc)), nil
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}

// jsonKeys returns the top-level keys of a JSON object, one per line.
func jsonKeys(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONKeys requires 1 arg"}
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(op.Args[0]), &doc); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONKeys: invalid JSON: " + err.Error()}
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n"), nil
}

// jsonArrayAppend appends args[1] (parsed as JSON, falling back to a raw
// string) to the JSON array in args[0].
func jsonArrayAppend(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONArrayAppend requires array, value"}
	}
	var arr []any
	if op.Args[0] != "" {
		if err := json.Unmarshal([]byte(op.Args[0]), &arr); err != nil {
			return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONArrayAppend: invalid JSON array: " + err.Error()}
		}
	}
	var val any
	if err := json.Unmarshal([]byte(op.Args[1]), &val); err != nil {
		val = op.Args[1]
	}
	arr = append(arr, val)
	return string(mustMarshal(arr)), nil
}

// jsonType reports the JSON value kind of args[0]: object, array, string,
// number, bool, or null.
func jsonType(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "JSONType requires 1 arg"}
	}
	var v any
	if err := json.Unmarshal([]byte(op.Args[0]), &v); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "JSONType: invalid JSON: " + err.Error()}
	}
	switch v.(type) {
	case nil:
		return "null", nil
	case map[string]any:
		return "object", nil
	case []any:
		return "array", nil
	case string:
		return "string", nil
	case float64:
		return "number", nil
	case bool:
		return "bool", nil
	default:
		return "unknown", nil
	}
}
