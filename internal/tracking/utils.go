package tracking

import (
	"net/url"
)

// GetDomain extracts the host portion of a tracked URL. Scheme-less entries
// like "example.com" parse with an empty host, so the path component is used
// as a fallback.
func GetDomain(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.Host != "" {
		return parsed.Host
	}
	return parsed.Path
}
