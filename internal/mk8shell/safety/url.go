package safety

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

var ErrURLViolation = fmt.Errorf("url violation")

func urlViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrURLViolation, fmt.Sprintf(format, args...))
}

var blockedHosts = map[string]bool{
	"localhost":                true,
	"metadata.google.internal": true,
	"metadata.internal":        true,
	"169.254.169.254":          true,
}

var blockedHostSuffixes = []string{".internal", ".local", ".corp", ".lan", ".intranet", ".private"}

// ValidateURL implements spec.md §4.2.3's URL sanitizer: scheme must be
// http/https, port must be 80/443/default, host must not be a known
// metadata/loopback target, and the URL must not carry embedded
// credentials.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, urlViolation("cannot parse url: %v", err)
	}
	if !u.IsAbs() {
		return nil, urlViolation("url must be absolute")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, urlViolation("scheme %q not allowed", u.Scheme)
	}
	if u.User != nil {
		return nil, urlViolation("embedded credentials not allowed")
	}

	host := u.Hostname()
	if port := u.Port(); port != "" {
		if port != "80" && port != "443" {
			return nil, urlViolation("port %q not allowed", port)
		}
	}

	if err := ValidateHostname(host); err != nil {
		return nil, err
	}

	return u, nil
}

// ValidateHostname implements spec.md §4.2.3's ValidateHostname: length,
// IP-literal rejection, internal-suffix rejection, and character-set check.
func ValidateHostname(host string) error {
	if host == "" {
		return urlViolation("empty host")
	}
	if len(host) > 253 {
		return urlViolation("hostname too long")
	}
	if blockedHosts[strings.ToLower(host)] {
		return urlViolation("host %q is blocked", host)
	}
	if net.ParseIP(host) != nil {
		return urlViolation("IP literal hosts are not allowed")
	}
	lower := strings.ToLower(host)
	for _, suffix := range blockedHostSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return urlViolation("host suffix %q is blocked", suffix)
		}
	}
	for _, r := range host {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '-') {
			return urlViolation("hostname contains disallowed character %q", r)
		}
	}
	return nil
}

// IsPrivateOrReservedIP classifies an IP as private/reserved per spec.md
// §4.2.3: IPv4 10/8, 172.16/12, 192.168/16, 169.254/16, 127/8, 0/8;
// IPv6 fc00::/7, fe80::/10, loopback, unspecified.
func IsPrivateOrReservedIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return true
	}
	if v4 := ip.To4(); v4 != nil {
		switch {
		case v4[0] == 10:
			return true
		case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
			return true
		case v4[0] == 192 && v4[1] == 168:
			return true
		case v4[0] == 169 && v4[1] == 254:
			return true
		case v4[0] == 0:
			return true
		}
		return false
	}
	// IPv6 fc00::/7 (unique local).
	if len(ip) == net.IPv6len && (ip[0]&0xfe) == 0xfc {
		return true
	}
	return false
}
