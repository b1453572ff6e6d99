package handlers

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/domain/storage"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDeps() (*logging.ChanneledLogger, *performance.Tracker) {
	return logging.NewDiscardLogger(), performance.NewTracker(nil)
}

type fakeFetcher struct {
	calls int32
	list  []incidents.IncidentInfo
	err   error
}

func (f *fakeFetcher) UnresolvedIncidents(context.Context) ([]incidents.IncidentInfo, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.list, f.err
}

type fakeCacheRepo struct {
	mu   sync.Mutex
	rows map[string]incidents.IncidentCache
}

func (r *fakeCacheRepo) FindByIncidentIDs(_ context.Context, ids []string) (map[string]incidents.IncidentCache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]incidents.IncidentCache)
	for _, id := range ids {
		if row, ok := r.rows[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func (r *fakeCacheRepo) Upsert(_ context.Context, id string, cache incidents.IncidentCache) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows == nil {
		r.rows = make(map[string]incidents.IncidentCache)
	}
	r.rows[id] = cache
	return nil
}

func (r *fakeCacheRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeOrgRepo struct {
	orgs []incidents.Organization
	err  error
}

func (r *fakeOrgRepo) FindByMember(context.Context, string) ([]incidents.Organization, error) {
	return r.orgs, r.err
}

type fakeProjectRepo struct {
	projects map[string][]incidents.Project
}

func (r *fakeProjectRepo) FindPageByOrganization(_ context.Context, slug string, _ int) ([]incidents.Project, int, error) {
	list := r.projects[slug]
	return list, len(list), nil
}

type fakeObjectRepo struct {
	mu       sync.Mutex
	buckets  map[string]*storage.Bucket
	objects  map[string][]storage.Object
	inserted []string
}

func (r *fakeObjectRepo) FindBucket(_ context.Context, name string) (*storage.Bucket, error) {
	if b, ok := r.buckets[name]; ok {
		return b, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeObjectRepo) ListFolder(_ context.Context, bucketID, prefix string) ([]storage.Object, error) {
	return r.objects[bucketID+":"+strings.Trim(prefix, "/")], nil
}

func (r *fakeObjectRepo) Insert(_ context.Context, bucketID, key string, _ storage.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, bucketID+":"+key)
	return nil
}

func showing(id string) incidents.IncidentInfo {
	return incidents.IncidentInfo{
		ID:       id,
		Name:     "Incident " + id,
		Status:   "investigating",
		Impact:   incidents.ImpactMajor,
		Metadata: &incidents.IncidentMetadata{Dashboard: &incidents.DashboardMetadata{ShowBanner: true}},
	}
}
