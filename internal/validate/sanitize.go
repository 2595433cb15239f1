package validate

import (
	"fmt"
	"strings"
)

// maxSearchInputLength is applied to the encoded string, not the raw
// input. Encoding first can cut a multi-character entity at the
// boundary; the truncation point is kept where the reference client put
// it because downstream consumers rely on the ceiling of the encoded
// form.
const maxSearchInputLength = 100

// SearchInput neutralizes markup in free-text search input: each character
// with markup meaning is replaced by its hex numeric entity, the result
// is trimmed of surrounding whitespace and truncated to 100 characters.
//
// Not idempotent: encoding already-encoded text double-encodes the
// ampersands. Sanitize raw input exactly once.
func SearchInput(value string) string {
	encoded := encodeEntities(value)
	trimmed := strings.TrimSpace(encoded)
	return truncateRunes(trimmed, maxSearchInputLength)
}

// encodeEntities rewrites & < > " ' and backtick as hex numeric
// entities (&#x26; &#x3C; ...), leaving everything else untouched.
func encodeEntities(s string) string {
	if !strings.ContainsAny(s, "&<>\"'`") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, r := range s {
		switch r {
		case '&', '<', '>', '"', '\'', '`':
			fmt.Fprintf(&b, "&#x%X;", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// truncateRunes cuts s to at most n runes without splitting a UTF-8
// sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
