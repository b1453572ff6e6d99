package attribution

import (
	"errors"
	"net/url"
	"strings"
)

// StampRequest carries the request values the stamp decision depends on.
type StampRequest struct {
	Referrer string
	URL      string
}

// StampDecision reports whether the cookie should be (re-)written.
type StampDecision struct {
	Stamp bool
}

// schemes that must carry an authority component to be a valid absolute URL
var hierarchicalSchemes = map[string]struct{}{
	"http": {}, "https": {}, "ws": {}, "wss": {}, "ftp": {},
}

var errNoScheme = errors.New("missing scheme")

// ParseAbsoluteURL accepts only absolute URLs. Relative references such as
// "not-a-url" parse fine with url.Parse but are rejected here. Path and
// fragment escapes that url.Parse refuses ("%zz") do not reject the URL: the
// scheme, host and raw query are still returned.
func ParseAbsoluteURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		u, err = parseSchemeAndAuthority(raw)
	}
	if err != nil || u.Scheme == "" {
		return nil, false
	}
	if _, ok := hierarchicalSchemes[strings.ToLower(u.Scheme)]; ok && u.Host == "" {
		return nil, false
	}
	return u, true
}

// parseSchemeAndAuthority parses only the scheme and authority of raw and
// carries the query over unparsed. The path and fragment are dropped.
func parseSchemeAndAuthority(raw string) (*url.URL, error) {
	rest, _, _ := strings.Cut(raw, "#")
	rest, query, _ := strings.Cut(rest, "?")
	scheme, remainder, ok := strings.Cut(rest, ":")
	if !ok || scheme == "" {
		return nil, errNoScheme
	}

	authority := ""
	if strings.HasPrefix(remainder, "//") {
		authority = remainder[2:]
		if i := strings.IndexAny(authority, "/\\"); i >= 0 {
			authority = authority[:i]
		}
	}
	u, err := url.Parse(scheme + "://" + authority)
	if err != nil {
		return nil, err
	}
	u.RawQuery = query
	return u, nil
}

// IsSupabaseHost reports whether hostname is supabase.com or one of its subdomains.
func IsSupabaseHost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == CookieDomain || strings.HasSuffix(hostname, "."+CookieDomain)
}

// IsExternalReferrer returns true if the referrer URL points outside supabase.com.
// Empty and malformed referrers are not external.
func IsExternalReferrer(referrer string) bool {
	u, ok := ParseAbsoluteURL(referrer)
	if !ok {
		return false
	}
	return !IsSupabaseHost(u.Hostname())
}

// HasPaidSignals returns true if the URL carries an ad-network click id or a
// paid utm_medium value. Click ids are presence checks; the medium comparison
// is case-insensitive.
func HasPaidSignals(u *url.URL) bool {
	if u == nil {
		return false
	}
	query := parseQuery(u.RawQuery)
	for _, key := range ClickIDKeys {
		if _, ok := query.Get(key); ok {
			return true
		}
	}
	medium, ok := query.Get("utm_medium")
	if !ok {
		return false
	}
	_, paid := paidUTMMediums[strings.ToLower(medium)]
	return paid
}

// ShouldRefreshCookie decides whether the first-referrer cookie should be stamped.
//
//   - no cookie and an external referrer: stamp (first visit attribution)
//   - cookie present and paid signals in the URL: stamp (paid traffic refresh)
//   - otherwise: skip
func ShouldRefreshCookie(existingCookie bool, req StampRequest) StampDecision {
	if !existingCookie {
		return StampDecision{Stamp: IsExternalReferrer(req.Referrer)}
	}

	u, ok := ParseAbsoluteURL(req.URL)
	if !ok {
		return StampDecision{Stamp: false}
	}
	return StampDecision{Stamp: HasPaidSignals(u)}
}
