package redact

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|token|secret)\b\s*[:=]\s*[^\s"'&]+`)

	urlRe = regexp.MustCompile(`https?://[^\s"'<>]+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
//
// Embedded URLs are reduced with URL, since webhook endpoints usually carry
// their credential in the path.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = urlRe.ReplaceAllStringFunc(out, URL)
	return strings.TrimSpace(out)
}

// URL keeps scheme, host and the first path segment of raw and masks the rest.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<redacted_url>"
	}
	out := u.Scheme + "://" + u.Host
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) > 0 && segs[0] != "" {
		out += "/" + segs[0]
		if len(segs) > 1 {
			out += "/<redacted>"
		}
	}
	if u.RawQuery != "" {
		out += "?<redacted>"
	}
	return out
}
