package logging

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|password|x-api-key)\b\s*[:=]\s*[^\s"',}]+`)

	// Provider key shapes (OpenRouter sk-or-..., SendGrid SG.xxx.yyy).
	providerKeyRe = regexp.MustCompile(`\b(sk-[A-Za-z0-9_-]{8,}|SG\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,})`)
)

// Redact removes obvious secret-bearing substrings from error/log strings.
func Redact(s string) string {
	if s == "" {
		return ""
	}
	out := bearerTokenRe.ReplaceAllString(s, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = providerKeyRe.ReplaceAllString(out, "<redacted_key>")
	return strings.TrimSpace(out)
}
