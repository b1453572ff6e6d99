package incident

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/database"
)

func newRepo(t *testing.T, driver string) (*CacheRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	repo := NewCacheRepository(database.Wrap(sqlDB, driver), logging.NewDiscardLogger())
	repo.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return repo, mock
}

func TestFindByIncidentIDs(t *testing.T) {
	repo, mock := newRepo(t, database.DriverSQLite)

	rows := sqlmock.NewRows([]string{"incident_id", "affected_regions", "affects_project_creation"}).
		AddRow("inc-1", `["us-east-1","eu-west-1"]`, true).
		AddRow("inc-2", nil, false).
		AddRow("inc-3", `not json`, false)
	mock.ExpectQuery(`SELECT incident_id, affected_regions, affects_project_creation FROM incident_status_cache WHERE incident_id IN \(\?, \?, \?, \?\)`).
		WithArgs("inc-1", "inc-2", "inc-3", "inc-4").
		WillReturnRows(rows)

	got, err := repo.FindByIncidentIDs(context.Background(), []string{"inc-1", "inc-2", "inc-3", "inc-4"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, incidents.IncidentCache{
		AffectedRegions:        []string{"us-east-1", "eu-west-1"},
		AffectsProjectCreation: true,
	}, got["inc-1"])
	assert.Nil(t, got["inc-2"].AffectedRegions)
	assert.Nil(t, got["inc-3"].AffectedRegions)
	_, ok := got["inc-4"]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIncidentIDsEmpty(t *testing.T) {
	repo, mock := newRepo(t, database.DriverSQLite)

	got, err := repo.FindByIncidentIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIncidentIDsPostgres(t *testing.T) {
	repo, mock := newRepo(t, database.DriverPostgres)

	mock.ExpectQuery(`WHERE incident_id IN \(\$1, \$2\)`).
		WithArgs("a", "b").
		WillReturnError(assert.AnError)

	_, err := repo.FindByIncidentIDs(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestUpsert(t *testing.T) {
	repo, mock := newRepo(t, database.DriverSQLite)

	mock.ExpectExec(`INSERT INTO incident_status_cache`).
		WithArgs("inc-1", `["us-east-1"]`, true, int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO incident_status_cache`).
		WithArgs("inc-2", nil, false, int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Upsert(context.Background(), "inc-1", incidents.IncidentCache{
		AffectedRegions:        []string{"us-east-1"},
		AffectsProjectCreation: true,
	}))
	require.NoError(t, repo.Upsert(context.Background(), "inc-2", incidents.IncidentCache{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newRepo(t, database.DriverSQLite)

	mock.ExpectExec(`DELETE FROM incident_status_cache WHERE incident_id = \?`).
		WithArgs("inc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM incident_status_cache`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "inc-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
