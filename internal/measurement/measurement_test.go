package measurement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowetechinc/QRevPy/internal/archive"
	"github.com/rowetechinc/QRevPy/internal/config"
	"github.com/rowetechinc/QRevPy/internal/discharge"
)

func floats(vals ...float64) archive.FloatArray { return vals }

func ragged(rows ...[]float64) []archive.FloatArray {
	out := make([]archive.FloatArray, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// testTransect builds a four-ensemble transect with BT and GGA references.
func testTransect(name string) archive.Transect {
	start, end := 1000.0, 1030.0
	topQ, bottomQ := 0.1, 0.05
	tri := "Triangular"
	rect := "Rectangular"
	dist := 2.0

	allValid := []bool{true, true, true, true}
	return archive.Transect{
		Filename:  &name,
		StartTime: &start,
		EndTime:   &end,
		BottomTrack: &archive.BottomTrackBlock{
			U: floats(1.0, 1.0, 1.0, 1.0),
			V: floats(0.0, 0.0, 0.0, 0.0),
		},
		GGA: &archive.GGABlock{
			Lat:       ragged([]float64{39.0000}, []float64{39.0001}, []float64{39.0002}, []float64{39.0003}),
			Lon:       ragged([]float64{-95.0}, []float64{-95.0}, []float64{-95.0}, []float64{-95.0}),
			Time:      ragged([]float64{1000}, []float64{1001}, []float64{1002}, []float64{1003}),
			Quality:   [][]int{{2}, {2}, {2}, {2}},
			DeltaTime: ragged([]float64{1}, []float64{1}, []float64{1}, []float64{1}),
		},
		Cells: &archive.CellBlock{
			Velocity: ragged([]float64{0.5, 0.5, 0.5, 0.5}),
			Area:     ragged([]float64{0.2, 0.2, 0.2, 0.2}),
			Valid:    [][]bool{allValid},
		},
		WaterU:    floats(0.5, 0.5, 0.5, 0.5),
		WaterV:    floats(0, 0, 0, 0),
		Depth:     floats(2, 2, 2, 2),
		TopQ:      &topQ,
		BottomQ:   &bottomQ,
		LeftEdge:  &archive.EdgeBlock{Type: &tri, DistanceM: &dist},
		RightEdge: &archive.EdgeBlock{Type: &rect, DistanceM: &dist},
	}
}

func testDocument(names ...string) *archive.Document {
	station := "Test Creek"
	doc := &archive.Document{Station: &station}
	for _, n := range names {
		doc.Transects = append(doc.Transects, testTransect(n))
	}
	return doc
}

func TestComputeBottomTrackReference(t *testing.T) {
	m, err := Compute(testDocument("t1", "t2"), config.Empty())
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Test Creek", m.Station)
	assert.Equal(t, 2, m.Result.ValidTransects)

	res := m.Result.Transects[0]
	assert.Equal(t, "BT", res.NavReference)
	assert.Equal(t, res.Top+res.Middle+res.Bottom+res.Left+res.Right, res.Total)
	// Middle: 4 cells of 0.5 m/s over 0.2 m² each.
	assert.InDelta(t, 0.4, res.Middle, 1e-12)
}

func TestComputeGGAReference(t *testing.T) {
	nav := "GGA"
	pos := "End"
	cfg := &config.Settings{NavReference: &nav, GGAVelocityMethod: &pos}

	m, err := Compute(testDocument("t1"), cfg)
	require.NoError(t, err)
	res := m.Result.Transects[0]
	require.True(t, res.Valid)
	assert.Equal(t, "GGA", res.NavReference)
	// Ensemble 0 has no GGA velocity (no predecessor), so one invalid
	// ensemble out of four.
	assert.InDelta(t, 25.0, res.PercentInvalidEnsembles, 1e-9)
}

func TestComputeMissingReferenceFailsTransect(t *testing.T) {
	nav := "VTG"
	cfg := &config.Settings{NavReference: &nav}

	// No transect carries VTG, so aggregation has nothing valid.
	_, err := Compute(testDocument("t1"), cfg)
	require.ErrorIs(t, err, discharge.ErrNoValidTransects)
}

func TestComputeRecordsTransectFailure(t *testing.T) {
	doc := testDocument("good", "bad")
	badDist := -1.0
	doc.Transects[1].LeftEdge.DistanceM = &badDist

	m, err := Compute(doc, config.Empty())
	require.NoError(t, err, "one good transect keeps the measurement alive")
	assert.Equal(t, 1, m.Result.ValidTransects)

	bad := m.Result.Transects[1]
	assert.False(t, bad.Valid)
	assert.NotEmpty(t, bad.Failure)
	assert.Equal(t, "bad", bad.Filename)
}

func TestComputeInvalidSettings(t *testing.T) {
	nav := "LORAN"
	_, err := Compute(testDocument("t1"), &config.Settings{NavReference: &nav})
	require.Error(t, err)
}

func TestShipTrack(t *testing.T) {
	tr := testTransect("t1")
	pos := "First"
	cfg := &config.Settings{GGAPositionMethod: &pos}

	e, n, zone, err := ShipTrack(&tr, cfg)
	require.NoError(t, err)
	assert.Equal(t, 15, zone)
	require.Len(t, e, 4)
	for i := range e {
		assert.False(t, math.IsNaN(e[i]), "ensemble %d easting", i)
		assert.False(t, math.IsNaN(n[i]), "ensemble %d northing", i)
	}
	// The boat moves north between ensembles, so northing must increase.
	assert.Greater(t, n[3], n[0])
}

func TestShipTrackUnresolvedEnsembleIsNaN(t *testing.T) {
	tr := testTransect("t1")
	// Degrade ensemble 1 below the differential-quality minimum.
	tr.GGA.Quality[1][0] = 1

	e, n, _, err := ShipTrack(&tr, config.Empty())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(e[1]) && math.IsNaN(n[1]),
		"unresolved ensemble must project to NaN, not zero")
	assert.False(t, math.IsNaN(e[0]))
}

func TestComputeIdempotent(t *testing.T) {
	doc := testDocument("t1")
	a, err := Compute(doc, config.Empty())
	require.NoError(t, err)
	b, err := Compute(doc, config.Empty())
	require.NoError(t, err)
	// IDs differ per run; the numbers must not.
	assert.Equal(t, a.Result, b.Result)
	assert.False(t, math.IsNaN(a.Result.MeanTotal))
}
