package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/stores"
)

func newIncidentService(fetcher IncidentFetcher, repo repositories.IncidentCacheRepository) (*IncidentService, *stores.IncidentStore) {
	logger, tracker := testDeps()
	store := stores.NewIncidentStore(nil)
	return NewIncidentService(fetcher, repo, store, time.Minute, logger, tracker), store
}

func TestListBannerIncidentsFiltersAndEnriches(t *testing.T) {
	maintenance := showing("maint")
	maintenance.Impact = incidents.ImpactMaintenance
	hidden := incidents.IncidentInfo{ID: "hidden", Impact: incidents.ImpactMinor}

	fetcher := &fakeFetcher{list: []incidents.IncidentInfo{showing("a"), maintenance, hidden, showing("b")}}
	repo := &fakeCacheRepo{rows: map[string]incidents.IncidentCache{
		"a": {AffectedRegions: []string{"us-east-1"}, AffectsProjectCreation: true},
	}}
	svc, _ := newIncidentService(fetcher, repo)

	list, err := svc.ListBannerIncidents(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	require.NotNil(t, list[0].Cache)
	assert.Equal(t, []string{"us-east-1"}, list[0].Cache.AffectedRegions)
	assert.Equal(t, "b", list[1].ID)
	assert.Nil(t, list[1].Cache)

	assert.Equal(t, [][]string{{"a", "b"}}, repo.lookups)
}

func TestListBannerIncidentsUsesStore(t *testing.T) {
	fetcher := &fakeFetcher{list: []incidents.IncidentInfo{showing("a")}}
	svc, store := newIncidentService(fetcher, &fakeCacheRepo{})

	for i := 0; i < 3; i++ {
		_, err := svc.ListBannerIncidents(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
	assert.Equal(t, int64(2), store.Stats().Hits)
}

func TestListBannerIncidentsCoalescesConcurrentMisses(t *testing.T) {
	fetcher := &fakeFetcher{list: []incidents.IncidentInfo{showing("a")}, wait: make(chan struct{})}
	svc, _ := newIncidentService(fetcher, &fakeCacheRepo{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := svc.ListBannerIncidents(context.Background())
			assert.NoError(t, err)
			assert.Len(t, list, 1)
		}()
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fetcher.calls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(fetcher.wait)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
}

func TestListBannerIncidentsSharedLoadOutlivesCancelledCaller(t *testing.T) {
	fetcher := &fakeFetcher{list: []incidents.IncidentInfo{showing("a")}, wait: make(chan struct{})}
	svc, store := newIncidentService(fetcher, &fakeCacheRepo{})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	errs := make(chan error, 2)
	go func() {
		_, err := svc.ListBannerIncidents(firstCtx)
		errs <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&fetcher.calls) == 1 }, time.Second, time.Millisecond)

	go func() {
		list, err := svc.ListBannerIncidents(context.Background())
		if err == nil && len(list) != 1 {
			err = errors.New("unexpected incident count")
		}
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	time.Sleep(20 * time.Millisecond)
	close(fetcher.wait)

	for i := 0; i < 2; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
	_, cached := store.GetIncidents(context.Background())
	assert.True(t, cached)
}

func TestListBannerIncidentsCacheFailureDegrades(t *testing.T) {
	fetcher := &fakeFetcher{list: []incidents.IncidentInfo{showing("a")}}
	svc, _ := newIncidentService(fetcher, &fakeCacheRepo{findErr: errors.New("db down")})

	list, err := svc.ListBannerIncidents(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Cache)
}

func TestListBannerIncidentsUpstreamFailure(t *testing.T) {
	upstream := errors.New("statuspage down")
	svc, store := newIncidentService(&fakeFetcher{err: upstream}, &fakeCacheRepo{})

	_, err := svc.ListBannerIncidents(context.Background())
	assert.ErrorIs(t, err, upstream)
	_, cached := store.GetIncidents(context.Background())
	assert.False(t, cached)
}

func TestIncidentCacheMaintenanceInvalidates(t *testing.T) {
	fetcher := &fakeFetcher{list: []incidents.IncidentInfo{showing("a")}}
	repo := &fakeCacheRepo{}
	svc, _ := newIncidentService(fetcher, repo)
	ctx := context.Background()

	_, err := svc.ListBannerIncidents(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.UpsertCache(ctx, "a", incidents.IncidentCache{AffectsProjectCreation: true}))
	list, err := svc.ListBannerIncidents(ctx)
	require.NoError(t, err)
	require.NotNil(t, list[0].Cache)
	assert.True(t, list[0].Cache.AffectsProjectCreation)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))

	require.NoError(t, svc.DeleteCache(ctx, "a"))
	assert.ErrorIs(t, svc.DeleteCache(ctx, "a"), repositories.ErrNotFound)
	assert.Error(t, svc.UpsertCache(ctx, "", incidents.IncidentCache{}))
}
