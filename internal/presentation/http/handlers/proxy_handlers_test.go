package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webfutureiorepo/supabase/internal/application/services"
	"github.com/webfutureiorepo/supabase/internal/domain/attribution"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/apps"
	"github.com/webfutureiorepo/supabase/internal/presentation/http/middleware"
)

func newProxyRouter(t *testing.T, defaultUpstream string, registry *apps.Registry) *gin.Engine {
	t.Helper()
	logger, tracker := testDeps()
	h, err := NewProxyHandlers(defaultUpstream, registry, logger)
	require.NoError(t, err)

	r := gin.New()
	r.NoRoute(middleware.AttributionMiddleware(services.NewAttributionService(logger, tracker), registry, apps.AppWWW, true, logger), h.Forward)
	return r
}

func echoOrigin(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Origin", name)
		w.Header().Set("X-Seen-Forwarded-Host", r.Header.Get("X-Forwarded-Host"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(r.URL.Path))
	}))
}

func TestForwardKeepsStampedCookie(t *testing.T) {
	origin := echoOrigin("default")
	defer origin.Close()
	r := newProxyRouter(t, origin.URL, apps.DefaultRegistry())

	req := httptest.NewRequest(http.MethodGet, "http://supabase.com/pricing", nil)
	req.Header.Set("Referer", "https://www.google.com/")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/pricing", w.Body.String())
	assert.Equal(t, "default", w.Header().Get("X-Origin"))
	assert.Equal(t, "supabase.com", w.Header().Get("X-Seen-Forwarded-Host"))

	var stamped bool
	for _, c := range w.Result().Cookies() {
		if c.Name == attribution.CookieName {
			stamped = true
		}
	}
	assert.True(t, stamped, "first referrer cookie should survive the proxy")
}

func TestForwardPerAppUpstream(t *testing.T) {
	fallback := echoOrigin("default")
	defer fallback.Close()
	docs := echoOrigin("docs")
	defer docs.Close()

	registry := apps.DefaultRegistry()
	registry.Apps[apps.AppDocs].Upstream = docs.URL
	r := newProxyRouter(t, fallback.URL, registry)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://docs.supabase.com/guides", nil))
	assert.Equal(t, "docs", w.Header().Get("X-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://www.supabase.com/blog", nil))
	assert.Equal(t, "default", w.Header().Get("X-Origin"))
}

func TestForwardHostedStudioFilterRunsBeforeProxy(t *testing.T) {
	origin := echoOrigin("studio")
	defer origin.Close()
	r := newProxyRouter(t, origin.URL, apps.DefaultRegistry())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://app.supabase.com/api/platform/projects", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("X-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://app.supabase.com/api/get-utc-time", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "studio", w.Header().Get("X-Origin"))
}

func TestForwardWithoutUpstream(t *testing.T) {
	r := newProxyRouter(t, "", apps.DefaultRegistry())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://supabase.com/pricing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestForwardUnavailableOrigin(t *testing.T) {
	origin := echoOrigin("gone")
	url := origin.URL
	origin.Close()
	r := newProxyRouter(t, url, apps.DefaultRegistry())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://supabase.com/", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"Upstream unavailable"}`, w.Body.String())
}

func TestNewProxyHandlersRejectsInvalidUpstream(t *testing.T) {
	logger, _ := testDeps()

	_, err := NewProxyHandlers("not a url", apps.DefaultRegistry(), logger)
	assert.Error(t, err)

	registry := apps.DefaultRegistry()
	registry.Apps[apps.AppStudio].Upstream = "localhost:3000"
	_, err = NewProxyHandlers("", registry, logger)
	assert.ErrorContains(t, err, "app studio")
}

func TestGetFirstReferrer(t *testing.T) {
	logger, tracker := testDeps()
	h := NewAttributionHandlers(services.NewAttributionService(logger, tracker), logger, tracker)
	r := gin.New()
	r.GET("/api/attribution/first-referrer", h.GetFirstReferrer)

	value, err := attribution.SerializeFirstReferrerCookie(attribution.BuildFirstReferrerData(attribution.LandingInput{
		Referrer:   "https://news.ycombinator.com/",
		LandingURL: "https://supabase.com/pricing",
	}, time.Now()))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/attribution/first-referrer", nil)
	req.Header.Set("Cookie", "theme=dark; "+attribution.CookieName+"="+value)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://news.ycombinator.com/", body["referrer"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/attribution/first-referrer", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
