package fsutil

import "strings"

// DecodePercent decodes %XX escapes in s. Invalid or truncated escapes
// are passed through verbatim. '+' is NOT decoded as space: it is a legal
// filename byte and this decoder is used for paths, not form data.
func DecodePercent(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) {
			hi, okHi := hexVal(s[i+1])
			lo, okLo := hexVal(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Resolve maps a client-supplied request path into the confined root.
// The request path is percent-decoded, truncated at the first '?', and
// walked segment by segment: "." is dropped, ".." pops the last accepted
// segment (a no-op at the top), anything else is appended. The result is
// always root itself or a path strictly under it; escaping the root is
// structurally impossible because ".." can only remove segments this
// walk has already accepted.
func Resolve(root, requestPath string) string {
	acc := segments(requestPath)
	if len(acc) == 0 {
		return root
	}
	return strings.TrimSuffix(root, "/") + "/" + strings.Join(acc, "/")
}

// Clean returns the canonical client-visible form of a request path: the
// same decode-and-walk as Resolve, rooted at "/".
func Clean(requestPath string) string {
	acc := segments(requestPath)
	if len(acc) == 0 {
		return "/"
	}
	return "/" + strings.Join(acc, "/")
}

func segments(requestPath string) []string {
	p := DecodePercent(requestPath)
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	var acc []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			// skip
		case "..":
			if len(acc) > 0 {
				acc = acc[:len(acc)-1]
			}
		default:
			acc = append(acc, seg)
		}
	}
	return acc
}

// ClientJoin joins a client-visible directory path and an entry name into
// the client-relative path reported in listings.
func ClientJoin(dir, name string) string {
	if dir == "" || dir == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}
