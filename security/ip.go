package security

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP extracts the client IP address from a request. When
// trustProxy is set the X-Forwarded-For and X-Real-IP headers are
// consulted; trustedProxyCount is the number of proxies we control,
// counted from the right of X-Forwarded-For. Only enable trustProxy
// behind a reverse proxy you operate, or the header is attacker-supplied.
func GetClientIP(r *http.Request, trustProxy bool, trustedProxyCount int) string {
	if trustProxy {
		if ip := ipFromForwardedFor(r.Header.Get("X-Forwarded-For"), trustedProxyCount); ip != "" {
			return ip
		}
		if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
			return xri
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ipFromForwardedFor picks the client entry out of an X-Forwarded-For
// list. The header reads "client, proxy1, proxy2"; the rightmost entries
// are the proxies we control, so the client sits at
// len(entries)-trustedProxyCount-1.
func ipFromForwardedFor(xff string, trustedProxyCount int) string {
	if xff == "" {
		return ""
	}
	entries := strings.Split(xff, ",")
	if trustedProxyCount <= 0 {
		trustedProxyCount = 1
	}
	idx := len(entries) - trustedProxyCount - 1
	if idx < 0 {
		idx = 0
	}
	ip := strings.TrimSpace(entries[idx])
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}
