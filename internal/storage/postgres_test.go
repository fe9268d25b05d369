package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovision/climate-analytics/internal/analytics/quality"
	"github.com/ecovision/climate-analytics/internal/logging"
)

func TestWhereClause(t *testing.T) {
	where, args := whereClause(Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = whereClause(Filter{
		LocationID: 3,
		StartDate:  date("2023-01-01"),
		Metric:     "Temperature",
		Qualities:  quality.AtLeast(quality.Questionable),
	})
	assert.Equal(t,
		"WHERE c.location_id = $1 AND c.date >= $2 AND LOWER(m.name) = $3 AND LOWER(c.quality) = ANY($4)",
		where)
	require.Len(t, args, 4)
	assert.Equal(t, int64(3), args[0])
	assert.Equal(t, "temperature", args[2])
	assert.Equal(t, []string{"excellent", "good", "questionable"}, args[3])
}

func TestVersionFromFilename(t *testing.T) {
	assert.Equal(t, "0001", versionFromFilename("0001_init.sql"))
	assert.Equal(t, "0002", versionFromFilename("0002.sql"))

	files, err := migrationFiles()
	require.NoError(t, err)
	assert.Contains(t, files, "0001_init.sql")
}

// setupTestPostgres connects to the database named by ECOVISION_TEST_POSTGRES_DSN
// and resets the schema. The test is skipped when the variable is unset or the
// database is unreachable.
func setupTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("ECOVISION_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ECOVISION_TEST_POSTGRES_DSN not set, skipping postgres tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("Postgres not available: %v", err)
	}
	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS climate_data, metrics, locations, schema_migrations`)
	pool.Close()
	require.NoError(t, err)

	store, err := NewPostgresStore(ctx, dsn, true, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := setupTestPostgres(t)
	ctx := context.Background()

	ds, err := LoadDataset("testdata/sample_data.json")
	require.NoError(t, err)

	report, err := store.Ingest(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Records)
	assert.Len(t, report.Skipped, 6)

	again, err := store.Ingest(ctx, ds)
	require.NoError(t, err)
	assert.False(t, again.Changed())

	m, err := store.GetMetric(ctx, "Temperature")
	require.NoError(t, err)
	assert.Equal(t, "celsius", m.Unit)

	_, err = store.GetMetric(ctx, "wind")
	assert.ErrorIs(t, err, ErrNotFound)

	views, err := store.QueryRecords(ctx, Filter{Qualities: quality.AtLeast(quality.Good)}, Page{Number: 1, PerPage: 3})
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, int64(1), views[0].ID)

	n, err := store.CountRecords(ctx, Filter{LocationID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := store.QueryObservations(ctx, Filter{Metric: "temperature", LocationID: 1})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, date("2023-01-01"), rows[0].Date.UTC())

	// a second migration run is a no-op
	require.NoError(t, RunMigrations(ctx, store.pool, logging.Nop()))
}
