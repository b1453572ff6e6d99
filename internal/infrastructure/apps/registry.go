// Package apps describes the cooperating front-end applications the edge
// serves and the per-app request policy.
package apps

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
)

const (
	AppWWW    = "www"
	AppDocs   = "docs"
	AppStudio = "studio"
)

// HostedAPINotSupported is the message returned for studio API routes that
// are not served on the hosted platform.
const HostedAPINotSupported = "Endpoint not supported on hosted"

// App is one application behind the edge.
type App struct {
	Name      string   `yaml:"name" json:"name"`
	Hostnames []string `yaml:"hostnames" json:"hostnames"`
	// ExcludedPrefixes are matched against the path without its leading
	// slash. Matching requests are never stamped.
	ExcludedPrefixes []string `yaml:"excluded_prefixes" json:"excludedPrefixes"`
	// APIPassthrough leaves /api/ requests untouched.
	APIPassthrough bool `yaml:"api_passthrough" json:"apiPassthrough"`
	// HostedAPIAllowList holds the /api/ suffixes still served on the hosted
	// platform. Empty means no filtering.
	HostedAPIAllowList []string `yaml:"hosted_api_allowlist" json:"hostedApiAllowList"`
	Upstream           string   `yaml:"upstream" json:"upstream,omitempty"`
}

// IsAPIRequest reports whether path is an /api/ route.
func IsAPIRequest(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// IsExcluded reports whether path falls outside the app's stamping matcher.
func (a *App) IsExcluded(path string) bool {
	trimmed := strings.TrimPrefix(path, "/")
	for _, prefix := range a.ExcludedPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// ShouldStamp reports whether the attribution cookie logic runs for path.
func (a *App) ShouldStamp(path string) bool {
	if a.IsExcluded(path) {
		return false
	}
	if a.APIPassthrough && IsAPIRequest(path) {
		return false
	}
	return true
}

// HostedAPIAllowed reports whether an /api/ path is served on the hosted
// platform.
func (a *App) HostedAPIAllowed(path string) bool {
	if len(a.HostedAPIAllowList) == 0 {
		return true
	}
	for _, suffix := range a.HostedAPIAllowList {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Registry is the set of known apps keyed by name.
type Registry struct {
	Apps map[string]*App `yaml:"-"`
}

type registryFile struct {
	Apps []*App `yaml:"apps"`
}

var nextInternals = []string{"_next/static", "_next/image", "favicon.ico", "__nextjs"}

// DefaultRegistry reproduces the stock matchers of the three apps.
func DefaultRegistry() *Registry {
	marketing := append([]string{"api"}, nextInternals...)
	studio := []string{"_next/static", "_next/image", "_next/data", "favicon.ico", "__nextjs"}

	return newRegistry([]*App{
		{
			Name:             AppWWW,
			Hostnames:        []string{"supabase.com", "www.supabase.com"},
			ExcludedPrefixes: marketing,
		},
		{
			Name:             AppDocs,
			Hostnames:        []string{"docs.supabase.com"},
			ExcludedPrefixes: append([]string(nil), marketing...),
		},
		{
			Name:               AppStudio,
			Hostnames:          []string{"app.supabase.com"},
			ExcludedPrefixes:   studio,
			APIPassthrough:     true,
			HostedAPIAllowList: HostedStudioAPIs(),
		},
	})
}

// HostedStudioAPIs lists the studio API routes still served on the hosted
// platform.
func HostedStudioAPIs() []string {
	return []string{
		"/ai/sql/generate-v4",
		"/ai/sql/policy",
		"/ai/feedback/rate",
		"/ai/code/complete",
		"/ai/sql/cron-v2",
		"/ai/sql/title-v2",
		"/ai/sql/filter-v1",
		"/ai/onboarding/design",
		"/ai/feedback/classify",
		"/ai/docs",
		"/get-ip-address",
		"/get-utc-time",
		"/get-deployment-commit",
		"/check-cname",
		"/edge-functions/test",
		"/edge-functions/body",
		"/generate-attachment-url",
		"/incident-status",
		"/api/integrations/stripe-sync",
	}
}

func newRegistry(list []*App) *Registry {
	r := &Registry{Apps: make(map[string]*App, len(list))}
	for _, app := range list {
		r.Apps[app.Name] = app
	}
	return r
}

// LoadRegistry reads the registry from a YAML file. An empty path yields the
// defaults. Apps named in the file replace the default of the same name.
func LoadRegistry(path string, logger *logging.ChanneledLogger) (*Registry, error) {
	registry := DefaultRegistry()
	if path == "" {
		return registry, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read apps config: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse apps config: %w", err)
	}

	for i, app := range file.Apps {
		if app == nil || app.Name == "" {
			return nil, fmt.Errorf("apps config entry %d has no name", i)
		}
		registry.Apps[app.Name] = app
	}

	if logger != nil {
		logger.Startup().Info("Loaded apps registry", "path", path, "apps", registry.Names())
	}
	return registry, nil
}

// Get returns the named app.
func (r *Registry) Get(name string) (*App, bool) {
	app, ok := r.Apps[name]
	return app, ok
}

// Names returns the app names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Apps))
	for name := range r.Apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForHost returns the app serving hostname, or fallback when none claims it.
func (r *Registry) ForHost(hostname, fallback string) (*App, error) {
	hostname = strings.ToLower(hostname)
	for _, name := range r.Names() {
		for _, h := range r.Apps[name].Hostnames {
			if strings.EqualFold(h, hostname) {
				return r.Apps[name], nil
			}
		}
	}
	if app, ok := r.Apps[fallback]; ok {
		return app, nil
	}
	return nil, fmt.Errorf("unknown app: %s", fallback)
}
