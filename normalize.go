package clipfetch

import (
	"regexp"
	"strings"
)

// CanonicalHost is the host every recognized alias form is rewritten to before
// a URL is hashed or handed to the extraction engine.
const CanonicalHost = "twitter.com"

var postURLPattern = regexp.MustCompile(`https?://(?:mobile\.)?(?:twitter\.com|x\.com|t\.co)/[\w\-_/%.?=&]+`)

// Normalize rewrites recognized alias hosts (mobile subdomain, x.com, t.co) to
// the canonical host. It is total (unrecognized input is returned unchanged)
// and idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) string {
	u := strings.TrimSpace(raw)
	u = strings.ReplaceAll(u, "mobile."+CanonicalHost, CanonicalHost)
	if strings.Contains(u, "x.com/") && !strings.Contains(u, CanonicalHost) {
		u = strings.ReplaceAll(u, "x.com/", CanonicalHost+"/")
	}
	if strings.Contains(u, "t.co/") && !strings.Contains(u, CanonicalHost) {
		u = strings.ReplaceAll(u, "t.co/", CanonicalHost+"/")
	}
	return u
}

// ExtractURL finds the first recognizable post URL in free message text.
// The second return value is false when the text contains no such URL.
func ExtractURL(text string) (string, bool) {
	match := postURLPattern.FindString(strings.TrimSpace(text))
	if match == "" {
		return "", false
	}
	return match, true
}
