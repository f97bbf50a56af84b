package versions

import (
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// Normalize canonicalizes a registry URL:
//
//   - a relative URL gets a leading "/";
//   - an absolute URL that ends right after its authority gets a trailing "/";
//   - runs of "/" collapse to one, except the run right after the scheme colon.
//
// Normalize(Normalize(u)) == Normalize(u) for every u.
func Normalize(u string) string {
	u = strings.TrimSpace(u)
	loc := schemePrefix.FindStringIndex(u)
	if loc == nil || !strings.HasPrefix(u[loc[1]:], "/") {
		return "/" + strings.TrimLeft(collapseSlashes(u), "/")
	}

	scheme, rest := u[:loc[1]], u[loc[1]:]
	lead := len(rest) - len(strings.TrimLeft(rest, "/"))
	slashes, remainder := rest[:lead], collapseSlashes(rest[lead:])
	if remainder != "" && !strings.ContainsAny(remainder, "/?#") {
		remainder += "/"
	}
	return scheme + slashes + remainder
}

func collapseSlashes(s string) string {
	if !strings.Contains(s, "//") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prev := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' {
			if prev {
				continue
			}
			prev = true
		} else {
			prev = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
