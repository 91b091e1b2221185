package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oilfield-ai/drillquery/internal/storage"
	"github.com/oilfield-ai/drillquery/internal/storage/sqlite"
	"github.com/oilfield-ai/drillquery/internal/testutil"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestListWells(t *testing.T) {
	s := testutil.NewDemoStore(t)
	ctx := context.Background()

	all, err := s.ListWells(ctx, storage.WellFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "XY-009", all[0].ID, "ordered by id")

	blockA, err := s.ListWells(ctx, storage.WellFilter{Block: "Block-A"})
	require.NoError(t, err)
	assert.Len(t, blockA, 3)

	completed, err := s.ListWells(ctx, storage.WellFilter{Status: "Completed"})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "ZT-108", completed[0].ID)

	anyStatus, err := s.ListWells(ctx, storage.WellFilter{Status: "All", Keyword: "zt"})
	require.NoError(t, err)
	assert.Len(t, anyStatus, 3, "keyword match is case-insensitive")

	limited, err := s.ListWells(ctx, storage.WellFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetWell(t *testing.T) {
	s := testutil.NewDemoStore(t)
	ctx := context.Background()

	w, err := s.GetWell(ctx, "ZT-102")
	require.NoError(t, err)
	assert.Equal(t, "中塔-102", w.Name)
	require.NotNil(t, w.OwnerUserID)
	assert.Equal(t, storage.DemoOwnerZhang, *w.OwnerUserID)
	require.NotNil(t, w.SpudDate)
	assert.Equal(t, "2023-10-01", w.SpudDate.Format("2006-01-02"))

	public, err := s.GetWell(ctx, "ZT-108")
	require.NoError(t, err)
	assert.Nil(t, public.OwnerUserID)

	_, err = s.GetWell(ctx, "ZT-999")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReports(t *testing.T) {
	s := testutil.NewDemoStore(t)
	ctx := context.Background()

	r, err := s.GetReport(ctx, "ZT-102", day("2023-11-06"))
	require.NoError(t, err)
	assert.Equal(t, 30, r.ReportNo)
	assert.InDelta(t, 3800, r.CurrentDepth, 1e-9)
	require.Len(t, r.NPTEvents, 1)
	assert.Equal(t, "Lost Circulation", r.NPTEvents[0].Category)
	assert.InDelta(t, 12.5, r.NPTEvents[0].Duration, 1e-9)

	_, err = s.GetReport(ctx, "ZT-102", day("2023-12-25"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	recent, err := s.RecentReports(ctx, "ZT-102", 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "2023-11-10", recent[0].DateString())
	assert.Equal(t, "2023-11-06", recent[4].DateString())

	window, err := s.ListReports(ctx, storage.ReportFilter{
		WellIDs: []string{"ZT-102", "ZT-105"},
		From:    day("2023-11-05"),
		To:      day("2023-11-07"),
	})
	require.NoError(t, err)
	require.Len(t, window, 6)
	assert.Equal(t, "ZT-102", window[0].WellID)
	assert.Equal(t, "ZT-105", window[5].WellID)
	assert.Len(t, window[1].NPTEvents, 1, "NPT events are attached")
}

func TestListCasings(t *testing.T) {
	s := testutil.NewDemoStore(t)
	c, err := s.ListCasings(context.Background(), "ZT-102")
	require.NoError(t, err)
	require.Len(t, c, 2)
	assert.InDelta(t, 13.375, c[0].Size, 1e-9)
	assert.InDelta(t, 2500, c[1].ShoeDepth, 1e-9)

	none, err := s.ListCasings(context.Background(), "XY-009")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSeedIsIdempotent(t *testing.T) {
	s := testutil.NewDemoStore(t)
	ctx := context.Background()
	require.NoError(t, s.Seed(ctx, storage.DemoFixtures()))

	reports, err := s.ListReports(ctx, storage.ReportFilter{WellIDs: []string{"ZT-102"}})
	require.NoError(t, err)
	assert.Len(t, reports, 10)

	npt := 0
	for _, r := range reports {
		npt += len(r.NPTEvents)
	}
	assert.Equal(t, 1, npt, "reseeding must not duplicate NPT events")
}

func TestOpenFileDatabase(t *testing.T) {
	path := t.TempDir() + "/nested/drill.db"
	s, err := sqlite.OpenDemo(context.Background(), path, testutil.TestLogger())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
}
