// Package discharge integrates measured cell velocities and the
// extrapolated top, bottom, and edge contributions into a per-transect
// total, and aggregates transects into a measurement-level discharge with
// a cross-transect variability signal.
package discharge

import (
	"fmt"
	"math"

	"github.com/rowetechinc/QRevPy/internal/boatvel"
	"github.com/rowetechinc/QRevPy/internal/edges"
)

// TransectInput carries one transect's aligned per-ensemble arrays. Cell
// matrices are indexed [cell][ensemble]; every per-ensemble array must have
// the same length. Top and bottom discharge come from the external
// extrapolation collaborator as already-integrated values.
type TransectInput struct {
	Filename  string
	StartTime float64
	EndTime   float64

	// Measured middle zone.
	CellVelocity [][]float64
	CellArea     [][]float64
	CellValid    [][]bool

	// Per-ensemble water velocity and depth adjacent to the edges.
	WaterU []float64
	WaterV []float64
	Depth  []float64

	// Reconciled boat velocity; its validity row defines which ensembles
	// count as measured.
	Boat *boatvel.BoatVelocity

	// Extrapolated contributions from the external model.
	TopQ    float64
	BottomQ float64

	LeftEdge  edges.Edge
	RightEdge edges.Edge
}

// TransectResult is the full discharge breakdown for one transect. The
// invariant Total == Top+Middle+Bottom+Left+Right holds exactly: Total is
// assigned from that sum and never adjusted afterwards.
type TransectResult struct {
	Filename  string  `json:"filename"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`

	Top    float64 `json:"top_cms"`
	Middle float64 `json:"middle_cms"`
	Bottom float64 `json:"bottom_cms"`
	Left   float64 `json:"left_cms"`
	Right  float64 `json:"right_cms"`
	Total  float64 `json:"total_cms"`

	PercentInvalidCells     float64 `json:"percent_invalid_cells"`
	PercentInvalidEnsembles float64 `json:"percent_invalid_ensembles"`
	NavReference            string  `json:"nav_reference"`

	// Valid is false when computation failed; Failure carries the reason.
	// A failed transect never reports a partial total.
	Valid   bool   `json:"valid"`
	Failure string `json:"failure,omitempty"`
}

// ComputeTransect integrates one transect. On error the returned result
// carries the failure reason and no partial numbers.
func ComputeTransect(in TransectInput) (TransectResult, error) {
	res := TransectResult{
		Filename:  in.Filename,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}
	fail := func(err error) (TransectResult, error) {
		res.Failure = err.Error()
		return res, err
	}

	if in.Boat == nil {
		return fail(fmt.Errorf("discharge: transect %s has no boat velocity", in.Filename))
	}
	n := in.Boat.Len()
	if len(in.WaterU) != n || len(in.WaterV) != n || len(in.Depth) != n {
		return fail(fmt.Errorf("discharge: transect %s ensemble arrays misaligned (boat %d, water %d/%d, depth %d)",
			in.Filename, n, len(in.WaterU), len(in.WaterV), len(in.Depth)))
	}
	if len(in.CellArea) != len(in.CellVelocity) || len(in.CellValid) != len(in.CellVelocity) {
		return fail(fmt.Errorf("discharge: transect %s cell matrices have mismatched row counts", in.Filename))
	}
	for c := range in.CellVelocity {
		if len(in.CellVelocity[c]) != n || len(in.CellArea[c]) != n || len(in.CellValid[c]) != n {
			return fail(fmt.Errorf("discharge: transect %s cell row %d misaligned with %d ensembles", in.Filename, c, n))
		}
	}

	res.NavReference = string(in.Boat.Source)

	// Middle: measured cells only. Invalid cells are excluded here; the
	// extrapolation collaborator accounts for their area.
	var middle float64
	var totalCells, invalidCells int
	for c := range in.CellVelocity {
		for e := 0; e < n; e++ {
			totalCells++
			if !in.CellValid[c][e] || !in.Boat.Valid[e] ||
				math.IsNaN(in.CellVelocity[c][e]) || math.IsNaN(in.CellArea[c][e]) {
				invalidCells++
				continue
			}
			middle += in.CellVelocity[c][e] * in.CellArea[c][e]
		}
	}

	left, err := edgeDischarge(in.LeftEdge, in)
	if err != nil {
		return fail(err)
	}
	right, err := edgeDischarge(in.RightEdge, in)
	if err != nil {
		return fail(err)
	}

	res.Top = in.TopQ
	res.Middle = middle
	res.Bottom = in.BottomQ
	res.Left = left
	res.Right = right
	res.Total = res.Top + res.Middle + res.Bottom + res.Left + res.Right

	if totalCells > 0 {
		res.PercentInvalidCells = 100 * float64(invalidCells) / float64(totalCells)
	}
	res.PercentInvalidEnsembles = in.Boat.PercentInvalid()
	res.Valid = true
	return res, nil
}

// edgeDischarge anchors an edge on the adjacent measured ensembles and
// computes its contribution. User Q edges skip the anchoring entirely.
func edgeDischarge(e edges.Edge, in TransectInput) (float64, error) {
	if e.Shape == edges.ShapeUserQ {
		return e.Discharge(math.NaN(), math.NaN())
	}
	speed, depth, err := e.AdjacentMeans(in.WaterU, in.WaterV, in.Depth, in.Boat.Valid)
	if err != nil {
		return 0, err
	}
	return e.Discharge(speed, depth)
}
