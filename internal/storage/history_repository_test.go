package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestSaveAndGetRecentQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &QueryRecord{
		UserID:      "user-a",
		Departure:   "北京",
		Arrival:     "上海",
		TravelDate:  "2023-12-25",
		TrainType:   "高铁",
		ResultCount: 3,
		QueriedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.SaveQuery(ctx, first))
	assert.NotEmpty(t, first.ID, "SaveQuery should assign an ID")

	second := &QueryRecord{
		UserID:      "user-a",
		Departure:   "上海",
		Arrival:     "杭州",
		TravelDate:  "2023-12-26",
		TrainType:   "动车",
		ResultCount: 5,
		QueriedAt:   time.Now(),
	}
	require.NoError(t, db.SaveQuery(ctx, second))

	records, err := db.GetRecentQueries(ctx, "user-a", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "上海", records[0].Departure, "newest record should come first")
	assert.Equal(t, 5, records[0].ResultCount)
	assert.Equal(t, "北京", records[1].Departure)
}

func TestGetRecentQueriesIsolatedPerUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveQuery(ctx, &QueryRecord{
		UserID: "user-a", Departure: "北京", Arrival: "上海",
		TravelDate: "2023-12-25", TrainType: "高铁", ResultCount: 1,
	}))

	records, err := db.GetRecentQueries(ctx, "user-b", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCountQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	count, err := db.CountQueries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.SaveQuery(ctx, &QueryRecord{
			UserID: "user-a", Departure: "北京", Arrival: "上海",
			TravelDate: "2023-12-25", TrainType: "高铁", ResultCount: 2,
		}))
	}

	count, err = db.CountQueries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPruneOlderThan(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveQuery(ctx, &QueryRecord{
		UserID: "user-a", Departure: "北京", Arrival: "上海",
		TravelDate: "2023-11-01", TrainType: "高铁", ResultCount: 1,
		QueriedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, db.SaveQuery(ctx, &QueryRecord{
		UserID: "user-a", Departure: "北京", Arrival: "上海",
		TravelDate: "2023-12-25", TrainType: "高铁", ResultCount: 1,
		QueriedAt: time.Now(),
	}))

	pruned, err := db.PruneOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	count, err := db.CountQueries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReady(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ready(context.Background()))
}
