package apps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStampingPolicy(t *testing.T) {
	registry := DefaultRegistry()
	www, _ := registry.Get(AppWWW)
	docs, _ := registry.Get(AppDocs)
	studio, _ := registry.Get(AppStudio)

	tests := []struct {
		app  *App
		path string
		want bool
	}{
		{www, "/", true},
		{www, "/pricing", true},
		{www, "/api/og", false},
		{www, "/apiary", false},
		{www, "/_next/static/chunk.js", false},
		{www, "/_next/data/build/index.json", true},
		{www, "/favicon.ico", false},
		{docs, "/guides/auth", true},
		{docs, "/__nextjs_original-stack-frame", false},
		{studio, "/project/abc", true},
		{studio, "/api/incident-status", false},
		{studio, "/apiary", true},
		{studio, "/_next/data/build/index.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.app.Name+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.app.ShouldStamp(tt.path))
		})
	}
}

func TestHostedAPIAllowed(t *testing.T) {
	studio, _ := DefaultRegistry().Get(AppStudio)
	assert.True(t, studio.HostedAPIAllowed("/api/incident-status"))
	assert.True(t, studio.HostedAPIAllowed("/dashboard/api/ai/sql/policy"))
	assert.False(t, studio.HostedAPIAllowed("/api/platform/projects"))

	www, _ := DefaultRegistry().Get(AppWWW)
	assert.True(t, www.HostedAPIAllowed("/api/anything"))
}

func TestForHost(t *testing.T) {
	registry := DefaultRegistry()

	app, err := registry.ForHost("DOCS.supabase.com", AppWWW)
	require.NoError(t, err)
	assert.Equal(t, AppDocs, app.Name)

	app, err = registry.ForHost("localhost", AppStudio)
	require.NoError(t, err)
	assert.Equal(t, AppStudio, app.Name)

	_, err = registry.ForHost("localhost", "nope")
	assert.Error(t, err)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apps:
  - name: www
    hostnames: [localhost]
    excluded_prefixes: [api, assets]
    upstream: http://127.0.0.1:3000
  - name: blog
    hostnames: [blog.example.com]
`), 0o644))

	registry, err := LoadRegistry(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"blog", "docs", "studio", "www"}, registry.Names())

	www, _ := registry.Get(AppWWW)
	assert.Equal(t, "http://127.0.0.1:3000", www.Upstream)
	assert.False(t, www.ShouldStamp("/assets/logo.svg"))
	assert.True(t, www.ShouldStamp("/_next/static/x.js"))
}

func TestLoadRegistryErrors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apps:\n  - hostnames: [x]\n"), 0o644))
	_, err = LoadRegistry(path, nil)
	assert.Error(t, err)

	registry, err := LoadRegistry("", nil)
	require.NoError(t, err)
	assert.Len(t, registry.Apps, 3)
}
