package safety

import (
	"path/filepath"
	"strings"
)

// permanentlyBlockedBinaries is the fixed set of shells, interpreters,
// package managers, privilege-escalation tools, dangerous system tools,
// unbounded network tools, and free-text CLIs that have in-memory verb
// equivalents (spec.md §4.2.5).
var permanentlyBlockedBinaries = map[string]bool{
	// Shells / interpreters.
	"sh": true, "bash": true, "zsh": true, "fish": true, "csh": true, "tcsh": true,
	"powershell": true, "pwsh": true, "cmd": true, "cmd.exe": true,
	"python": true, "python3": true, "perl": true, "ruby": true, "node": true, "php": true,
	// Package managers.
	"apt": true, "apt-get": true, "yum": true, "dnf": true, "brew": true,
	"npm": true, "pip": true, "pip3": true, "gem": true, "cargo": true,
	// Privilege escalation.
	"sudo": true, "su": true, "doas": true,
	// Dangerous system tools.
	"mount": true, "umount": true, "chmod": true, "chown": true, "mkfs": true, "dd": true,
	"systemctl": true, "service": true, "shutdown": true, "reboot": true,
	// Unbounded network tools.
	"curl": true, "wget": true, "nc": true, "netcat": true, "ncat": true, "telnet": true,
	"ssh": true, "scp": true, "nmap": true,
	// In-memory-equivalent free-text CLIs.
	"cat": true, "grep": true, "sed": true, "awk": true,
	// Arbitrary filesystem search.
	"find": true,
}

// versionCheckExceptionBinaries are the narrow subset allowed to run
// `name --version` (or `kubectl version --client`) solely to report
// installed tooling (spec.md §4.2.5).
var versionCheckExceptionBinaries = map[string]bool{
	"node": true, "python": true, "python3": true, "ruby": true, "php": true,
	"npm": true, "git": true, "docker": true, "kubectl": true,
}

// IsPermanentlyBlocked reports whether binary (by basename) is always
// denied, independent of the template whitelist.
func IsPermanentlyBlocked(binary string) bool {
	base := strings.ToLower(filepath.Base(binary))
	base = strings.TrimSuffix(base, ".exe")
	return permanentlyBlockedBinaries[base]
}

// IsVersionCheckException reports whether args form an allowed
// "name --version" or "kubectl version --client" invocation of an
// otherwise-blocked binary (spec.md §4.2.5).
func IsVersionCheckException(binary string, args []string) bool {
	base := strings.ToLower(filepath.Base(binary))
	base = strings.TrimSuffix(base, ".exe")
	if !versionCheckExceptionBinaries[base] {
		return false
	}
	if len(args) == 1 && args[0] == "--version" {
		return true
	}
	if base == "kubectl" && len(args) == 2 && args[0] == "version" && args[1] == "--client" {
		return true
	}
	return false
}
