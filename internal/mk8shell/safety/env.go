package safety

import (
	"sort"
	"strings"
)

// allowedEnvNames is the read-only process-env access allowlist
// (spec.md §4.2.4).
var allowedEnvNames = map[string]bool{
	"HOME": true, "USERPROFILE": true, "USER": true, "USERNAME": true,
	"PATH": true, "LANG": true, "LC_ALL": true, "TZ": true, "TERM": true,
	"PWD": true, "HOSTNAME": true, "SHELL": true, "EDITOR": true,
	"DOTNET_ROOT": true, "NODE_ENV": true,
}

// blockedEnvSubstrings additionally block a name containing any of these
// case-insensitive substrings, even if otherwise allowlisted (defense in
// depth — none of the allowed names actually contain these).
var blockedEnvSubstrings = []string{
	"KEY", "SECRET", "TOKEN", "PASSWORD", "PASSWD", "CREDENTIAL", "CONN",
	"CONNECTION_STRING", "PRIVATE", "ENCRYPT", "JWT", "BEARER", "AUTH",
	"CERTIFICATE", "APIKEY", "API_KEY",
}

// IsEnvNameAllowed implements spec.md §4.2.4.
func IsEnvNameAllowed(name string) bool {
	if !allowedEnvNames[name] {
		return false
	}
	upper := strings.ToUpper(name)
	for _, bad := range blockedEnvSubstrings {
		if strings.Contains(upper, bad) {
			return false
		}
	}
	return true
}

// AllowedEnvNames returns the env-name allowlist in sorted order, for
// verbs that enumerate rather than read a single name (EnvList).
func AllowedEnvNames() []string {
	names := make([]string, 0, len(allowedEnvNames))
	for n := range allowedEnvNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
