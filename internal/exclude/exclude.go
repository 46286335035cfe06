package exclude

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Header lets a client opt out of tracking explicitly (set by the site's
// own preview deployments and by the team's browsers).
const Header = "X-Viewstat-Exclude"

// automationMarkers are substrings that identify test harnesses and
// scripted clients that the user-agent library does not classify as bots.
var automationMarkers = []string{
	"headless",
	"lighthouse",
	"puppeteer",
	"playwright",
	"selenium",
	"phantomjs",
	"cypress",
	"curl",
	"wget",
	"python-requests",
	"go-http-client",
}

// Excluded reports whether the request comes from automated or opted-out
// traffic that must never reach the store. Callers short-circuit with a
// success response before any tracking work happens.
func Excluded(r *http.Request) bool {
	if r.Header.Get(Header) != "" {
		return true
	}
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		return true
	}
	if useragent.New(ua).Bot() {
		return true
	}
	lower := strings.ToLower(ua)
	for _, marker := range automationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
