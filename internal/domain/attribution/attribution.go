// Package attribution decides when the cross-app first-referrer cookie is
// written or refreshed, and builds, serializes and parses its payload.
//
// The `_sb_first_referrer` cookie is stamped by the edge middleware of the www,
// docs and studio applications when a visitor arrives from an external source.
// It is write-once for organic traffic and refreshed when a returning visitor
// arrives with paid traffic signals (click ids or a paid utm_medium).
package attribution

import (
	"bytes"
	"encoding/json"
)

const (
	// CookieName is the name of the first-referrer cookie shared by all apps.
	CookieName = "_sb_first_referrer"

	// CookieMaxAge is 365 days in seconds.
	CookieMaxAge = 365 * 24 * 60 * 60

	// CookieDomain is the registrable domain shared by the cooperating apps.
	CookieDomain = "supabase.com"
)

// UTMKeys are the UTM query parameters captured from the landing URL, in wire order.
var UTMKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term"}

// ClickIDKeys are the ad-network click identifiers captured from the landing URL.
var ClickIDKeys = []string{
	"gclid",     // Google Ads
	"gbraid",    // Google Ads (iOS)
	"wbraid",    // Google Ads (iOS)
	"msclkid",   // Microsoft Ads
	"fbclid",    // Meta
	"rdt_cid",   // Reddit Ads
	"ttclid",    // TikTok Ads
	"twclid",    // X Ads
	"li_fat_id", // LinkedIn Ads
}

var paidUTMMediums = map[string]struct{}{
	"cpc":         {},
	"ppc":         {},
	"paid_search": {},
	"paidsocial":  {},
	"paid_social": {},
	"display":     {},
}

// Payload is the decoded value of the first-referrer cookie.
type Payload struct {
	Referrer   string `json:"referrer"`    // external referrer URL, stored unparsed
	LandingURL string `json:"landing_url"` // full URL of the page that triggered the capture
	UTMs       Params `json:"utms"`
	ClickIDs   Params `json:"click_ids"`
	TS         int64  `json:"ts"` // capture time, milliseconds since epoch
}

// Param is a single string entry of a Params mapping.
type Param struct {
	Key   string
	Value string
}

// Params is a string to string mapping that keeps insertion order, so the
// cookie JSON lists keys in the same order the browser-side code writes them.
type Params []Param

// Get returns the value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing key in place or appends a new entry.
func (p Params) Set(key, value string) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Key: key, Value: value})
}

func (p Params) without(key string) Params {
	for i := range p {
		if p[i].Key == key {
			return append(p[:i:i], p[i+1:]...)
		}
	}
	return p
}

// Map returns the entries as a plain map.
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}

// MarshalJSON writes the entries as a JSON object in insertion order. An empty
// mapping is written as {} rather than null.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(kv.Key)
		if err != nil {
			return nil, err
		}
		value, err := marshalString(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the string-valued entries of a JSON object and silently
// drops everything else. Any non-object value decodes to an empty mapping.
func (p *Params) UnmarshalJSON(data []byte) error {
	*p = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}

	var out Params
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if value, ok := decodeJSONString(raw); ok {
			out = out.Set(key, value)
		} else {
			// a later non-string duplicate wins over an earlier string value
			out = out.without(key)
		}
	}
	if len(out) > 0 {
		*p = out
	}
	return nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeJSONString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
