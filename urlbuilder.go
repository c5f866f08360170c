// urlbuilder.go
// --------------
// Deterministic URL and query-string construction. Encoding follows the
// RFC 3986 section 2.3 unreserved set exactly: A-Z a-z 0-9 - _ . ~ are
// literal and every other byte becomes %XX with uppercase hex. The encoder
// walks raw bytes, not code points, so multi-byte UTF-8 sequences encode
// byte-wise. net/url's query escaping is deliberately not used here: it
// emits "+" for spaces and leaves sub-delims such as "!" alone, which some
// APIs reject and which breaks the same-input-same-string guarantee this
// builder provides.
package restbridge

import (
	"fmt"
	"strings"
)

const upperhex = "0123456789ABCDEF"

func isUnreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	}
	return false
}

// EncodeComponent percent-encodes one URL component. It is idempotent on
// strings containing only unreserved bytes.
func EncodeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0F])
	}
	return b.String()
}

// DecodeComponent reverses EncodeComponent, recovering the original byte
// sequence. Malformed or truncated escapes are an error.
func DecodeComponent(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("restbridge: truncated percent escape at offset %d", i)
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("restbridge: invalid percent escape %q", s[i:i+3])
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// BuildURL assembles baseURL + "/" + pagename + querystring for an
// endpoint. The query string is absent when the endpoint declares no
// parameters; otherwise pairs appear in declaration order, keys and values
// percent-encoded independently. Duplicate keys are kept as given.
func BuildURL(cfg *Configuration, ep Endpoint) (string, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return "", configErrorf("base URL is not set")
	}
	page, err := ep.PageName(cfg)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(cfg.BaseURL)
	b.WriteByte('/')
	b.WriteString(page)

	params := endpointParameters(cfg, ep)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(EncodeComponent(p.Key))
		b.WriteByte('=')
		b.WriteString(EncodeComponent(p.Value))
	}
	return b.String(), nil
}
