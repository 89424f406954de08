package queryutil

import (
	"net/url"
	"strings"
)

// Builder appends query parameters to a base URL which already ends in "?" or "&". Parameters
// keep the order they were appended in.
type Builder struct {
	sb strings.Builder
}

func NewBuilder(base string) *Builder {
	b := &Builder{}
	b.sb.WriteString(base)
	return b
}

// Append adds key=value followed by "&". Empty values are skipped.
func (b *Builder) Append(key, value string) *Builder {
	if value == "" {
		return b
	}
	b.sb.WriteString(url.QueryEscape(key))
	b.sb.WriteByte('=')
	b.sb.WriteString(url.QueryEscape(value))
	b.sb.WriteByte('&')
	return b
}

// String returns the URL with a single trailing "&" trimmed.
func (b *Builder) String() string {
	return strings.TrimSuffix(b.sb.String(), "&")
}
