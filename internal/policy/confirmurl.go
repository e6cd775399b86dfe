package policy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// ConfirmPath is the confirmation surface route on the agent's base URL.
const ConfirmPath = "/confirm.html"

// BuildConfirmURL constructs the confirmation redirect target carrying the
// original destination, the target group, and the owning tab.
func BuildConfirmURL(base, destination string, group types.GroupID, tab types.TabID) string {
	return fmt.Sprintf("%s%s?url=%s&groupId=%s&tabId=%s",
		strings.TrimSuffix(base, "/"), ConfirmPath,
		EncodeComponent(destination),
		EncodeComponent(string(group)),
		EncodeComponent(string(tab)))
}

const upperhex = "0123456789ABCDEF"

// EncodeComponent percent-encodes everything outside the RFC 3986 unreserved
// set. Unlike standard query escaping it emits %20 for spaces and escapes
// ! ' ( ) *, so the value stays intact when the whole URL is embedded in a
// further-encoded context.
func EncodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

// ConfirmParams is the decoded query contract of the confirmation surface.
type ConfirmParams struct {
	URL     string
	GroupID types.GroupID
	TabID   types.TabID
}

// ParseConfirmURL decodes a confirmation URL back into its parameters.
func ParseConfirmURL(raw string) (ConfirmParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ConfirmParams{}, fmt.Errorf("confirm url: %w", err)
	}
	q := u.Query()
	dest := q.Get("url")
	if dest == "" {
		return ConfirmParams{}, fmt.Errorf("confirm url: missing url parameter")
	}
	return ConfirmParams{
		URL:     dest,
		GroupID: types.GroupID(q.Get("groupId")),
		TabID:   types.TabID(q.Get("tabId")),
	}, nil
}
