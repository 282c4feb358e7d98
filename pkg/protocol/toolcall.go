package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToolCallLine formats a "[TOOL_CALL:<id>] { <JSON> }" line (spec.md §6).
func ToolCallLine(id string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[TOOL_CALL:%s] %s", id, data), nil
}

// ToolResultLine formats a "[TOOL_RESULT:<id>] status=<Status> ..." line.
func ToolResultLine(id, status string, extra map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[TOOL_RESULT:%s] status=%s", id, status)
	for k, v := range extra {
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	return b.String()
}

// ParseToolCallLine extracts the id and raw JSON payload from a
// "[TOOL_CALL:<id>] { ... }" line. Returns ok=false if the line doesn't
// match the expected prefix shape.
func ParseToolCallLine(line string) (id string, payload json.RawMessage, ok bool) {
	if !strings.HasPrefix(line, "[TOOL_CALL:") {
		return "", nil, false
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return "", nil, false
	}
	id = strings.TrimPrefix(line[:end], "[TOOL_CALL:")
	rest := strings.TrimSpace(line[end+1:])
	return id, json.RawMessage(rest), true
}
