package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/domain/storage"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
)

func testDeps() (*logging.ChanneledLogger, *performance.Tracker) {
	return logging.NewDiscardLogger(), performance.NewTracker(nil)
}

type fakeFetcher struct {
	calls int32
	list  []incidents.IncidentInfo
	err   error
	wait  chan struct{}
}

func (f *fakeFetcher) UnresolvedIncidents(ctx context.Context) ([]incidents.IncidentInfo, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.wait != nil {
		select {
		case <-f.wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.list, f.err
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	rows    map[string]incidents.IncidentCache
	findErr error
	lookups [][]string
}

func (r *fakeCacheRepo) FindByIncidentIDs(_ context.Context, ids []string) (map[string]incidents.IncidentCache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, ids)
	if r.findErr != nil {
		return nil, r.findErr
	}
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

type orgPage struct {
	projects []incidents.Project
	count    int
	err      error
}

type fakeProjectRepo struct {
	pages map[string]orgPage
	calls int32
}

func (r *fakeProjectRepo) FindPageByOrganization(_ context.Context, slug string, _ int) ([]incidents.Project, int, error) {
	atomic.AddInt32(&r.calls, 1)
	page := r.pages[slug]
	return page.projects, page.count, page.err
}

type fakeObjectRepo struct {
	buckets  map[string]*storage.Bucket
	objects  map[string][]storage.Object
	inserted []string
	listErr  error
}

func (r *fakeObjectRepo) FindBucket(_ context.Context, name string) (*storage.Bucket, error) {
	if b, ok := r.buckets[name]; ok {
		return b, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeObjectRepo) ListFolder(_ context.Context, bucketID, prefix string) ([]storage.Object, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.objects[bucketID+":"+strings.Trim(prefix, "/")], nil
}

func (r *fakeObjectRepo) Insert(_ context.Context, bucketID, key string, _ storage.Object) error {
	r.inserted = append(r.inserted, bucketID+":"+key)
	return nil
}

func showing(id string) incidents.IncidentInfo {
	return incidents.IncidentInfo{
		ID:       id,
		Impact:   incidents.ImpactMajor,
		Metadata: &incidents.IncidentMetadata{Dashboard: &incidents.DashboardMetadata{ShowBanner: true}},
	}
}

func project(ref string, regions ...string) incidents.Project {
	p := incidents.Project{Ref: ref, Region: regions[0]}
	for i, region := range regions {
		id := ref
		if i > 0 {
			id = ref + "-rr"
		}
		p.Databases = append(p.Databases, incidents.Database{Identifier: id, Region: region})
	}
	return p
}
