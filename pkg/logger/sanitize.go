package logger

import (
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@*******.com")
func SanitizedEmail(email string) string {
	username, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || username == "" || domain == "" {
		return "[invalid-email]"
	}

	if len(username) > 1 {
		username = username[:1] + strings.Repeat("*", len(username)-1)
	}

	// Keep the TLD, mask everything before it
	if idx := strings.LastIndex(domain, "."); idx > 0 {
		domain = strings.Repeat("*", idx) + domain[idx:]
	}

	return username + "@" + domain
}

var sensitiveParams = []string{
	"password", "token", "secret", "email", "auth",
}

// SanitizeQueryString reports whether a raw query string carries anything
// that must not be written to the request log
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
