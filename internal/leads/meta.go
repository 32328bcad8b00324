package leads

import (
	"net"
	"net/http"
	"strings"
)

// Meta describes where a submission came from.
type Meta struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
	Referer   string `json:"referer"`
}

// MetaFromRequest takes the first X-Forwarded-For hop as the client IP,
// falling back to the connection's remote address.
func MetaFromRequest(r *http.Request) Meta {
	ip := r.RemoteAddr
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ = strings.Cut(fwd, ",")
	} else if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	return Meta{
		IP:        strings.TrimSpace(ip),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	}
}
