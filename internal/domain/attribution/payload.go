package attribution

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// LandingInput is the raw request data a payload is built from.
type LandingInput struct {
	Referrer   string
	LandingURL string
}

// BuildFirstReferrerData builds the cookie payload for a request. It never
// fails: when the landing URL does not parse, the UTM and click-id maps are empty.
func BuildFirstReferrerData(in LandingInput, now time.Time) Payload {
	var utms, clickIDs Params

	if u, ok := ParseAbsoluteURL(in.LandingURL); ok {
		query := parseQuery(u.RawQuery)
		utms = pickParams(query, UTMKeys)
		clickIDs = pickParams(query, ClickIDKeys)
	}

	return Payload{
		Referrer:   in.Referrer,
		LandingURL: in.LandingURL,
		UTMs:       utms,
		ClickIDs:   clickIDs,
		TS:         now.UnixMilli(),
	}
}

func pickParams(query Params, keys []string) Params {
	var out Params
	for _, key := range keys {
		if value, _ := query.Get(key); value != "" {
			out = append(out, Param{Key: key, Value: value})
		}
	}
	return out
}

// SerializeFirstReferrerCookie returns the cookie value: the URI-component
// encoded JSON of the payload.
func SerializeFirstReferrerCookie(p Payload) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return encodeURIComponent(strings.TrimRight(buf.String(), "\n")), nil
}

// ParseFirstReferrerCookie finds the first-referrer entry in a raw Cookie
// header and decodes it.
//
// The top level is strict: a missing entry, broken percent-encoding, invalid
// JSON, a non-object value or a non-string referrer/landing_url rejects the
// whole cookie. Nested values are lenient: non-string entries in utms and
// click_ids are dropped and a missing or non-finite ts falls back to now.
func ParseFirstReferrerCookie(cookieHeader string, now time.Time) (Payload, bool) {
	value, ok := findCookieValue(cookieHeader, CookieName)
	if !ok {
		return Payload{}, false
	}

	decoded, ok := decodeURIComponent(value)
	if !ok {
		return Payload{}, false
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal([]byte(decoded), &record); err != nil || record == nil {
		return Payload{}, false
	}

	referrer, ok := decodeJSONString(record["referrer"])
	if !ok {
		return Payload{}, false
	}
	landingURL, ok := decodeJSONString(record["landing_url"])
	if !ok {
		return Payload{}, false
	}

	var utms, clickIDs Params
	if raw, exists := record["utms"]; exists {
		if err := utms.UnmarshalJSON(raw); err != nil {
			utms = nil
		}
	}
	if raw, exists := record["click_ids"]; exists {
		if err := clickIDs.UnmarshalJSON(raw); err != nil {
			clickIDs = nil
		}
	}

	ts, ok := decodeTimestamp(record["ts"])
	if !ok {
		ts = now.UnixMilli()
	}

	return Payload{
		Referrer:   referrer,
		LandingURL: landingURL,
		UTMs:       utms,
		ClickIDs:   clickIDs,
		TS:         ts,
	}, true
}

// findCookieValue returns the raw value of the first "name=" entry of a
// "; "-joined cookie header.
func findCookieValue(header, name string) (string, bool) {
	prefix := name + "="
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, prefix) {
			return part[len(prefix):], true
		}
	}
	return "", false
}

func decodeTimestamp(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}
	if ts, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return ts, true
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
