package youtrack

import "strings"

// apiSuffix is the REST API path appended to the instance URL.
const apiSuffix = "/api"

// NormalizeBaseURL turns user input like "myinstance.example.com" into a
// usable API base URL: the https scheme is assumed when none is given, a
// single trailing slash is dropped, and the API suffix is appended. The
// function is idempotent, so re-normalizing an already-normalized URL
// returns it unchanged.
func NormalizeBaseURL(raw string) string {
	url := strings.TrimSpace(raw)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	url = strings.TrimSuffix(url, "/")
	if !strings.HasSuffix(url, apiSuffix) {
		url += apiSuffix
	}
	return url
}
