package attribution

import (
	"net/http"
	"time"
)

// Request is the capability set the stamp helper needs from an incoming
// request. Framework adapters implement it.
type Request interface {
	// Header returns the named request header, or "" when absent.
	Header(name string) string
	// HasCookie reports whether the request carries the named cookie.
	HasCookie(name string) bool
	// URL returns the full absolute request URL.
	URL() string
	// Hostname returns the request host without port.
	Hostname() string
}

// CookieSetter writes a cookie on the outgoing response.
type CookieSetter interface {
	SetCookie(name, value string, opts CookieOptions)
}

// CookieOptions are the attributes of the first-referrer cookie.
type CookieOptions struct {
	Path     string
	SameSite http.SameSite
	Secure   bool
	Domain   string
	MaxAge   int
}

// CookieOptionsForHost returns the cookie attributes for a request host. On
// supabase.com and its subdomains the cookie is scoped to the shared domain
// and marked Secure. Any other host gets a host-only cookie.
func CookieOptionsForHost(hostname string) CookieOptions {
	opts := CookieOptions{
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   CookieMaxAge,
	}
	if IsSupabaseHost(hostname) {
		opts.Domain = CookieDomain
		opts.Secure = true
	}
	return opts
}

// StampFirstReferrerCookie writes the first-referrer cookie on resp when the
// request warrants it, and reports whether it did.
func StampFirstReferrerCookie(req Request, resp CookieSetter, now time.Time) (bool, error) {
	referrer := req.Header("Referer")

	decision := ShouldRefreshCookie(req.HasCookie(CookieName), StampRequest{
		Referrer: referrer,
		URL:      req.URL(),
	})
	if !decision.Stamp {
		return false, nil
	}

	payload := BuildFirstReferrerData(LandingInput{
		Referrer:   referrer,
		LandingURL: req.URL(),
	}, now)

	value, err := SerializeFirstReferrerCookie(payload)
	if err != nil {
		return false, err
	}

	resp.SetCookie(CookieName, value, CookieOptionsForHost(req.Hostname()))
	return true, nil
}

// HTTPCookie converts a cookie value and its options into an *http.Cookie.
func HTTPCookie(name, value string, opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}
