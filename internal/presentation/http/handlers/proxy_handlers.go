package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/apps"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/presentation/http/middleware"
)

// ProxyHandlers forwards requests the edge does not serve itself to the
// origin of the app they belong to.
type ProxyHandlers struct {
	fallback *httputil.ReverseProxy
	byApp    map[string]*httputil.ReverseProxy
	logger   *logging.ChanneledLogger
}

// NewProxyHandlers builds one reverse proxy per app upstream. Apps without an
// upstream use defaultUpstream. With neither, unmatched requests get a 404.
func NewProxyHandlers(defaultUpstream string, registry *apps.Registry, logger *logging.ChanneledLogger) (*ProxyHandlers, error) {
	h := &ProxyHandlers{
		byApp:  make(map[string]*httputil.ReverseProxy),
		logger: logger,
	}

	if defaultUpstream != "" {
		proxy, err := h.newProxy(defaultUpstream)
		if err != nil {
			return nil, err
		}
		h.fallback = proxy
	}

	for _, name := range registry.Names() {
		app, _ := registry.Get(name)
		if app.Upstream == "" {
			continue
		}
		proxy, err := h.newProxy(app.Upstream)
		if err != nil {
			return nil, fmt.Errorf("app %s: %w", name, err)
		}
		h.byApp[name] = proxy
	}

	return h, nil
}

// Forward proxies the request after the attribution middleware has run, so a
// freshly stamped cookie travels with the origin's response.
func (h *ProxyHandlers) Forward(c *gin.Context) {
	proxy := h.fallback
	appName := ""
	if app, ok := middleware.GetApp(c); ok {
		appName = app.Name
		if p, ok := h.byApp[app.Name]; ok {
			proxy = p
		}
	}

	if proxy == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	h.logger.System().Debug("Forwarding request to origin", "app", appName, "path", c.Request.URL.Path)
	proxy.ServeHTTP(c.Writer, c.Request)
}

func (h *ProxyHandlers) newProxy(rawURL string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q", rawURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalHost := req.Host
		director(req)
		if req.Header.Get("X-Forwarded-Host") == "" {
			req.Header.Set("X-Forwarded-Host", originalHost)
		}
		if req.Header.Get("X-Forwarded-Proto") == "" {
			proto := "http"
			if req.TLS != nil {
				proto = "https"
			}
			req.Header.Set("X-Forwarded-Proto", proto)
		}
		req.Host = target.Host
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		h.logger.System().Error("Origin request failed", "upstream", target.Host, "path", req.URL.Path, "error", err.Error())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Upstream unavailable"}`))
	}
	return proxy, nil
}
