package attribution

import (
	"encoding/hex"
	"strings"
)

// parseQuery splits a raw query string the way a browser's URLSearchParams
// does: pairs are separated by '&' only, '+' decodes to a space and
// percent-escapes that do not decode are kept as written. Duplicate keys are
// kept in order.
func parseQuery(rawQuery string) Params {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	var out Params
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		out = append(out, Param{Key: unescapeQueryComponent(key), Value: unescapeQueryComponent(value)})
	}
	return out
}

func unescapeQueryComponent(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if decoded, err := hex.DecodeString(s[i+1 : i+3]); err == nil {
				b.Write(decoded)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "�")
}
