package middleware

import (
	"net"
	"net/http"
	"strings"

	pkghttp "github.com/BradenHooton/taskdesk/pkg/http"
)

// TrustedHosts rejects requests whose Host header is not listed. Entries may
// be exact names or "*.example.com" wildcards; "*" allows everything.
func TrustedHosts(hosts []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(r.Host, hosts) {
				pkghttp.WriteBadRequest(w, "Invalid host header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(hostport string, hosts []string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	for _, pattern := range hosts {
		pattern = strings.ToLower(pattern)
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "*."):
			if strings.HasSuffix(host, pattern[1:]) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}

// HTTPSRedirect sends plain-HTTP requests to the same URL over HTTPS
func HTTPSRedirect() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsSecureRequest(r) {
				next.ServeHTTP(w, r)
				return
			}

			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}
