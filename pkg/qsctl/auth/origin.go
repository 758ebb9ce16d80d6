package auth

import (
	"net"
	"net/url"
	"strings"
)

// IsLoopbackOrigin reports whether origin is an http(s) URL whose host is a
// loopback literal (localhost, 127.0.0.1 or ::1), any port. Anything that
// does not parse is not loopback. Origins that merely resolve to loopback
// (e.g. rebound DNS names) are rejected here by construction, since only the
// three literals are accepted.
func IsLoopbackOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return false
	}
	if parsed.Host == "" {
		return false
	}
	return isLoopbackName(parsed.Hostname())
}

// IsLoopbackHost applies the same loopback-literal test to a bare
// "host[:port]" value as sent in a Host header. Malformed input is false.
func IsLoopbackHost(hostHeader string) bool {
	if hostHeader == "" {
		return false
	}
	host := hostHeader
	if h, _, err := net.SplitHostPort(hostHeader); err == nil {
		host = h
	} else {
		// No port. Accept a bracketed IPv6 literal.
		host = strings.TrimSuffix(strings.TrimPrefix(hostHeader, "["), "]")
	}
	return isLoopbackName(host)
}

func isLoopbackName(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
