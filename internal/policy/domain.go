package policy

import (
	"net/url"
	"strings"
)

// Domain derives the policy key for a destination URL: the lowercased
// hostname with scheme, port, path, and query discarded. An unparsable URL
// yields the empty domain, which matches no settings record.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
