package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/application/services"
	"github.com/webfutureiorepo/supabase/internal/domain/attribution"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/apps"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
)

const appKey = "edgeApp"

// GinRequest adapts a gin request to the attribution request and cookie
// capabilities.
type GinRequest struct {
	c *gin.Context
}

func NewGinRequest(c *gin.Context) *GinRequest {
	return &GinRequest{c: c}
}

func (r *GinRequest) Header(name string) string {
	return r.c.GetHeader(name)
}

func (r *GinRequest) HasCookie(name string) bool {
	_, err := r.c.Request.Cookie(name)
	return err == nil
}

// URL rebuilds the absolute URL the visitor requested, honouring the
// forwarding headers set by the load balancer.
func (r *GinRequest) URL() string {
	return r.scheme() + "://" + r.host() + r.c.Request.URL.RequestURI()
}

func (r *GinRequest) Hostname() string {
	return strings.ToLower((&url.URL{Host: r.host()}).Hostname())
}

func (r *GinRequest) SetCookie(name, value string, opts attribution.CookieOptions) {
	http.SetCookie(r.c.Writer, attribution.HTTPCookie(name, value, opts))
}

func (r *GinRequest) scheme() string {
	if proto := firstForwarded(r.c.GetHeader("X-Forwarded-Proto")); proto != "" {
		return strings.ToLower(proto)
	}
	if r.c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func (r *GinRequest) host() string {
	if host := firstForwarded(r.c.GetHeader("X-Forwarded-Host")); host != "" {
		return host
	}
	return r.c.Request.Host
}

func firstForwarded(value string) string {
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

// AttributionMiddleware resolves the app serving the request host and applies
// its policy: studio API routes pass through untouched (or 404 on the hosted
// platform when not allow-listed) and every other matched path gets the
// first-referrer cookie when warranted.
func AttributionMiddleware(
	service *services.AttributionService,
	registry *apps.Registry,
	fallbackApp string,
	isPlatform bool,
	logger *logging.ChanneledLogger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := NewGinRequest(c)
		app, err := registry.ForHost(req.Hostname(), fallbackApp)
		if err != nil {
			logger.Attribution().Error("No app configured for request host", "host", req.Hostname(), "error", err.Error())
			c.Next()
			return
		}
		c.Set(appKey, app)

		path := c.Request.URL.Path
		if app.APIPassthrough && apps.IsAPIRequest(path) {
			if isPlatform && !app.HostedAPIAllowed(path) {
				logger.Attribution().Debug("Hosted API route not supported", "app", app.Name, "path", path)
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": apps.HostedAPINotSupported})
				return
			}
			c.Next()
			return
		}

		if app.ShouldStamp(path) {
			service.Stamp(req, req, app.Name)
		}
		c.Next()
	}
}

// GetApp returns the app resolved by AttributionMiddleware.
func GetApp(c *gin.Context) (*apps.App, bool) {
	value, exists := c.Get(appKey)
	if !exists {
		return nil, false
	}
	app, ok := value.(*apps.App)
	return app, ok
}
