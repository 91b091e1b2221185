package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oilfield-ai/drillquery/internal/storage"
	"github.com/oilfield-ai/drillquery/internal/testutil"
	"github.com/oilfield-ai/drillquery/migrations"
)

// testDB holds a shared, migrated and seeded database for all tests here.
var testDB *storage.DB

func TestMain(m *testing.M) {
	tc := testutil.MustStartPostgres()

	var err error
	testDB, err = tc.NewTestDB(context.Background(), testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}

	code := m.Run()
	testDB.Close()
	tc.Terminate()
	os.Exit(code)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMigrationsAreIdempotent(t *testing.T) {
	require.NoError(t, testDB.RunMigrations(context.Background(), migrations.FS))

	var n int
	require.NoError(t, testDB.Pool().QueryRow(context.Background(),
		`SELECT count(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.Seed(ctx, storage.DemoFixtures()))

	var reports, npt int
	require.NoError(t, testDB.Pool().QueryRow(ctx, `SELECT count(*) FROM daily_reports`).Scan(&reports))
	require.NoError(t, testDB.Pool().QueryRow(ctx, `SELECT count(*) FROM npt_events`).Scan(&npt))
	assert.Equal(t, 30, reports)
	assert.Equal(t, 1, npt)
}

func TestListWells(t *testing.T) {
	ctx := context.Background()

	all, err := testDB.ListWells(ctx, storage.WellFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	kw, err := testDB.ListWells(ctx, storage.WellFilter{Keyword: "block-b"})
	require.NoError(t, err)
	require.Len(t, kw, 1)
	assert.Equal(t, "XY-009", kw[0].ID)

	active, err := testDB.ListWells(ctx, storage.WellFilter{Status: "Active", Block: "Block-A"})
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestGetWell(t *testing.T) {
	ctx := context.Background()
	w, err := testDB.GetWell(ctx, "XY-009")
	require.NoError(t, err)
	require.NotNil(t, w.OwnerUserID)
	assert.Equal(t, storage.DemoOwnerWang, *w.OwnerUserID)

	pub, err := testDB.GetWell(ctx, "ZT-108")
	require.NoError(t, err)
	assert.Nil(t, pub.OwnerUserID)

	_, err = testDB.GetWell(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReports(t *testing.T) {
	ctx := context.Background()

	r, err := testDB.GetReport(ctx, "ZT-102", day("2023-11-06"))
	require.NoError(t, err)
	assert.Equal(t, "2023-11-06", r.DateString())
	require.Len(t, r.NPTEvents, 1)
	assert.Equal(t, "High", r.NPTEvents[0].Severity)

	_, err = testDB.GetReport(ctx, "ZT-102", day("2024-01-01"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	recent, err := testDB.RecentReports(ctx, "XY-009", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "2023-11-05", recent[0].DateString())

	ranged, err := testDB.ListReports(ctx, storage.ReportFilter{
		WellIDs: []string{"ZT-102"},
		From:    day("2023-11-01"),
		To:      day("2023-11-30"),
	})
	require.NoError(t, err)
	assert.Len(t, ranged, 10)
}

func TestListCasings(t *testing.T) {
	c, err := testDB.ListCasings(context.Background(), "ZT-105")
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.InDelta(t, 850, c[0].ShoeDepth, 1e-9)
}
