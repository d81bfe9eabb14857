package qrevdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowetechinc/QRevPy/internal/discharge"
	"github.com/rowetechinc/QRevPy/internal/measurement"
	"github.com/rowetechinc/QRevPy/internal/timeutil"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleMeasurement(id string) *measurement.Measurement {
	return &measurement.Measurement{
		ID:      id,
		Station: "Green River near Jensen",
		Result: discharge.MeasurementResult{
			Transects: []discharge.TransectResult{
				{
					Filename:     "transect_000.json",
					StartTime:    100.0,
					EndTime:      420.0,
					Top:          1.2,
					Middle:       8.1,
					Bottom:       0.6,
					Left:         0.05,
					Right:        0.05,
					Total:        10.0,
					NavReference: "BT",
					Valid:        true,
				},
				{
					Filename: "transect_001.json",
					Valid:    false,
					Failure:  "edges: left edge has negative distance",
				},
			},
			MeanTotal:      10.0,
			COV:            0.0,
			ValidTransects: 1,
			TotalTransects: 2,
		},
	}
}

func TestMeasurementStoreInsertAndGet(t *testing.T) {
	db := openTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC))
	store := NewMeasurementStore(db, clock)

	require.NoError(t, store.Insert(sampleMeasurement("m-001")))

	got, err := store.Get("m-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "m-001", got.MeasurementID)
	assert.Equal(t, "Green River near Jensen", got.StationName)
	assert.Equal(t, 10.0, got.MeanTotalCms)
	assert.Equal(t, 1, got.ValidTransects)
	assert.Equal(t, 2, got.TotalTransects)
	assert.Equal(t, "2024-06-03T14:30:00Z", got.CreatedAt)
}

func TestMeasurementStoreGetMissing(t *testing.T) {
	db := openTestDB(t)
	store := NewMeasurementStore(db, nil)

	got, err := store.Get("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMeasurementStoreList(t *testing.T) {
	db := openTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	store := NewMeasurementStore(db, clock)

	require.NoError(t, store.Insert(sampleMeasurement("m-old")))
	clock.Advance(2 * time.Hour)
	require.NoError(t, store.Insert(sampleMeasurement("m-new")))

	got, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m-new", got[0].MeasurementID)
	assert.Equal(t, "m-old", got[1].MeasurementID)
}

func TestMeasurementStoreTransectsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewMeasurementStore(db, nil)
	m := sampleMeasurement("m-rt")
	require.NoError(t, store.Insert(m))

	got, err := store.Transects("m-rt")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, m.Result.Transects[0], got[0])
	assert.Equal(t, m.Result.Transects[1], got[1])
}

func TestMeasurementStoreDuplicateID(t *testing.T) {
	db := openTestDB(t)
	store := NewMeasurementStore(db, nil)

	require.NoError(t, store.Insert(sampleMeasurement("m-dup")))
	assert.Error(t, store.Insert(sampleMeasurement("m-dup")))
}
