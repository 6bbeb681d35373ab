//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/atlaslab/studyatlas/internal/domain/study"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
)

const testSRID = 4326

// startPostgis launches a disposable PostGIS container and returns a pool
// connected to it.
func startPostgis(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "atlas",
			"POSTGRES_PASSWORD": "atlas",
			"POSTGRES_DB":       "atlas_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://atlas:atlas@%s:%s/atlas_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))
	return pool
}

func seedCorpus(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	ddl := []string{
		`CREATE SCHEMA IF NOT EXISTS ns`,
		`CREATE TABLE ns.metadata (
			study_id text PRIMARY KEY,
			title    text NOT NULL,
			journal  text NOT NULL,
			year     int
		)`,
		`CREATE TABLE ns.annotations_terms (
			study_id    text NOT NULL REFERENCES ns.metadata(study_id),
			contrast_id text NOT NULL,
			term        text NOT NULL,
			weight      double precision
		)`,
		`CREATE TABLE ns.coordinates (
			study_id text NOT NULL REFERENCES ns.metadata(study_id),
			geom     geometry(PointZ) NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}

	inserts := []string{
		`INSERT INTO ns.metadata VALUES
			('s1', 'Fear responses', 'J Neuro', 2019),
			('s2', 'Fear extinction', 'Brain', 2021),
			('s3', 'Working memory load', 'NeuroImage', NULL)`,
		`INSERT INTO ns.annotations_terms VALUES
			('s1', 'c1', 'emotion__fear', 0.9),
			('s1', 'c2', 'pain', 0.2),
			('s2', 'c1', 'fear', 0.5),
			('s3', 'c1', 'cognition__working_memory', NULL)`,
		fmt.Sprintf(`INSERT INTO ns.coordinates VALUES
			('s1', ST_SetSRID(ST_MakePoint(10, -4, 2), %[1]d)),
			('s2', ST_SetSRID(ST_MakePoint(10, -4, 2), %[1]d)),
			('s2', ST_SetSRID(ST_MakePoint(30, 0, 0), %[1]d)),
			('s3', ST_SetSRID(ST_MakePoint(30, 0, 0), %[1]d)),
			('s3', ST_SetSRID(ST_MakePoint(500000, 600000, 5), 3857))`, testSRID),
	}
	for _, stmt := range inserts {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestStudyStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	pool := startPostgis(t)
	seedCorpus(t, pool)
	store := NewStudyStore(pool, testSRID, logging.NewNop())
	ctx := context.Background()
	opts := study.QueryOptions{Limit: 50}

	t.Run("StudiesByTermExact", func(t *testing.T) {
		rows, err := store.StudiesByTerm(ctx, study.NormalizeTerm("fear"), false, opts)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "s1", rows[0].ID, "weight 0.9 ranks first")
		assert.Equal(t, "fear", rows[0].CleanTerm)
		assert.Equal(t, "s2", rows[1].ID)
	})

	t.Run("StudiesByTermFuzzy", func(t *testing.T) {
		rows, err := store.StudiesByTerm(ctx, study.NormalizeTerm("working mem"), true, opts)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "s3", rows[0].ID)
		assert.Nil(t, rows[0].Weight)
	})

	t.Run("StudiesByTermNoMatch", func(t *testing.T) {
		rows, err := store.StudiesByTerm(ctx, study.NormalizeTerm("nonexistent"), false, opts)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("StudiesByLocationExact", func(t *testing.T) {
		rows, err := store.StudiesByLocation(ctx, study.Point{X: 10, Y: -4, Z: 2}, 0, opts)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "s2", rows[0].ID, "year 2021 ranks before 2019")
		assert.Equal(t, "s1", rows[1].ID)
		assert.Equal(t, study.Point{X: 10, Y: -4, Z: 2}, rows[0].Example)
	})

	t.Run("StudiesByLocationRadius", func(t *testing.T) {
		rows, err := store.StudiesByLocation(ctx, study.Point{X: 29, Y: 0, Z: 0}, 2, opts)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "s2", rows[0].ID)
		assert.Equal(t, "s3", rows[1].ID, "null year sorts last")
	})

	t.Run("DissociateTerms", func(t *testing.T) {
		rows, err := store.DissociateTerms(ctx,
			study.NormalizeTerm("fear"), study.NormalizeTerm("pain"), false, opts)
		require.NoError(t, err)
		require.Len(t, rows, 1, "s1 carries pain and must be excluded")
		assert.Equal(t, "s2", rows[0].ID)
	})

	t.Run("StudiesByLocationExactNativeFrame", func(t *testing.T) {
		// The foreign-SRID row matches on its raw stored components; exact
		// mode never reprojects.
		rows, err := store.StudiesByLocation(ctx, study.Point{X: 500000, Y: 600000, Z: 5}, 0, opts)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "s3", rows[0].ID)
		assert.Equal(t, study.Point{X: 500000, Y: 600000, Z: 5}, rows[0].Example)
	})

	t.Run("DissociateTermsBlankB", func(t *testing.T) {
		rows, err := store.DissociateTerms(ctx,
			study.NormalizeTerm("fear"), study.NormalizeTerm("   "), true, opts)
		require.NoError(t, err)
		require.Len(t, rows, 2, "blank B matches nothing, so nothing is excluded")
	})

	t.Run("DissociateLocations", func(t *testing.T) {
		rows, err := store.DissociateLocations(ctx,
			study.Point{X: 30, Y: 0, Z: 0}, study.Point{X: 10, Y: -4, Z: 2}, 0, opts)
		require.NoError(t, err)
		require.Len(t, rows, 1, "s2 reports both points and must be excluded")
		assert.Equal(t, "s3", rows[0].ID)
	})

	t.Run("Pagination", func(t *testing.T) {
		rows, err := store.StudiesByTerm(ctx, study.NormalizeTerm("fear"), false,
			study.QueryOptions{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "s2", rows[0].ID)
	})

	t.Run("CorpusStats", func(t *testing.T) {
		stats, err := store.CorpusStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.StudyCount)
		assert.Equal(t, int64(4), stats.AnnotationCount)
		assert.Equal(t, int64(5), stats.CoordinateCount)
		assert.NotEmpty(t, stats.ServerVersion)
		assert.Len(t, stats.SampleStudies, 3)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.StudiesByTerm(cctx, study.NormalizeTerm("fear"), false, opts)
		assert.Error(t, err)
	})
}
