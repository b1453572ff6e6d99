package attribution

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// url.QueryEscape escapes characters browsers leave alone in component
// encoding and writes spaces as '+'; these replacements restore the
// encodeURIComponent output the browser-side reader expects.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent percent-encodes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// decodeURIComponent reverses encodeURIComponent. '+' is kept literally and
// malformed escapes or byte sequences that are not UTF-8 are rejected.
func decodeURIComponent(s string) (string, bool) {
	decoded, err := url.PathUnescape(s)
	if err != nil || !utf8.ValidString(decoded) {
		return "", false
	}
	return decoded, true
}
