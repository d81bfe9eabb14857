// Package archive reads measurements saved by the legacy Matlab-based
// predecessor tool (exported to JSON) and populates the processing
// entities from them.
//
// The legacy format distinguishes "field absent" from "field present as
// NaN", and older archives simply lack newer fields. Optional scalars are
// therefore pointer fields and array entries use null for NaN; presence is
// explicit in the types rather than probed dynamically.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/rowetechinc/QRevPy/internal/edges"
	"github.com/rowetechinc/QRevPy/internal/gps"
)

// FloatArray is a float64 slice whose JSON form uses null for NaN, since
// JSON has no NaN literal.
type FloatArray []float64

// UnmarshalJSON decodes null entries as NaN.
func (a *FloatArray) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	*a = out
	return nil
}

// MarshalJSON encodes NaN entries as null.
func (a FloatArray) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) {
			buf.WriteString("null")
		} else {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Document is the root of a saved measurement archive.
type Document struct {
	Version   *string    `json:"version,omitempty"`
	Station   *string    `json:"station_name,omitempty"`
	Transects []Transect `json:"transects"`
}

// Transect mirrors one saved transect. Blocks the legacy tool did not
// record (for example VTG on a GGA-only receiver) are absent, not empty.
type Transect struct {
	Filename  *string  `json:"filename,omitempty"`
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`

	GGA         *GGABlock         `json:"gga,omitempty"`
	VTG         *VTGBlock         `json:"vtg,omitempty"`
	BottomTrack *BottomTrackBlock `json:"bottom_track,omitempty"`
	Cells       *CellBlock        `json:"cells,omitempty"`

	Depth  FloatArray `json:"depth_m,omitempty"`
	WaterU FloatArray `json:"water_u_mps,omitempty"`
	WaterV FloatArray `json:"water_v_mps,omitempty"`

	// Extrapolated contributions saved by the legacy extrapolation fit.
	TopQ    *float64 `json:"top_q_cms,omitempty"`
	BottomQ *float64 `json:"bottom_q_cms,omitempty"`

	LeftEdge  *EdgeBlock `json:"left_edge,omitempty"`
	RightEdge *EdgeBlock `json:"right_edge,omitempty"`
}

// GGABlock holds the raw GGA fix matrix, ragged by ensemble.
type GGABlock struct {
	Lat        []FloatArray `json:"lat_deg"`
	Lon        []FloatArray `json:"lon_deg"`
	Altitude   []FloatArray `json:"altitude_m,omitempty"`
	Time       []FloatArray `json:"utc_s"`
	HDOP       []FloatArray `json:"hdop,omitempty"`
	DeltaTime  []FloatArray `json:"delta_time_s,omitempty"`
	Quality    [][]int      `json:"diff_qual,omitempty"`
	Satellites [][]int      `json:"num_sats,omitempty"`
}

// VTGBlock holds the raw VTG fix matrix, ragged by ensemble.
type VTGBlock struct {
	Course    []FloatArray `json:"course_deg"`
	Speed     []FloatArray `json:"speed_mps"`
	DeltaTime []FloatArray `json:"delta_time_s,omitempty"`
}

// BottomTrackBlock holds per-ensemble bottom-track velocities.
type BottomTrackBlock struct {
	U         FloatArray `json:"u_mps"`
	V         FloatArray `json:"v_mps"`
	W         FloatArray `json:"w_mps,omitempty"`
	ErrorVel  FloatArray `json:"d_mps,omitempty"`
	BeamCount []int      `json:"num_beams,omitempty"`
}

// CellBlock holds the depth-cell velocity matrix, [cell][ensemble].
type CellBlock struct {
	Velocity []FloatArray `json:"velocity_mps"`
	Area     []FloatArray `json:"area_sqm"`
	Valid    [][]bool     `json:"valid"`
}

// EdgeBlock mirrors the legacy edge record. UserQCms and CustCoef are
// optional: older archives stored them only when the edge type used them.
type EdgeBlock struct {
	Type         *string  `json:"type,omitempty"`
	DistanceM    *float64 `json:"dist_m,omitempty"`
	NumEnsembles *int     `json:"num_ens_to_avg,omitempty"`
	CustCoef     *float64 `json:"cust_coef,omitempty"`
	UserQCms     *float64 `json:"user_q_cms,omitempty"`
	Exponent     *float64 `json:"exponent,omitempty"`
}

// Load reads an archive document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("archive: parse %s: %w", path, err)
	}
	return &doc, nil
}

// GGAFixSeries converts the GGA block to a FixSeries. Attribute matrices
// shorter than the position matrix are padded with NaN (older archives did
// not save HDOP or satellite counts); a missing position matrix is an error.
func (t *Transect) GGAFixSeries() (*gps.FixSeries, error) {
	b := t.GGA
	if b == nil {
		return nil, fmt.Errorf("archive: transect has no gga block")
	}
	if len(b.Lat) != len(b.Lon) || len(b.Lat) != len(b.Time) {
		return nil, fmt.Errorf("archive: gga matrices misaligned (%d lat, %d lon, %d time ensembles)",
			len(b.Lat), len(b.Lon), len(b.Time))
	}

	series := &gps.FixSeries{Kind: gps.KindGGA, Ensembles: make([][]gps.Fix, len(b.Lat))}
	for i := range b.Lat {
		n := len(b.Lat[i])
		fixes := make([]gps.Fix, n)
		for j := 0; j < n; j++ {
			fixes[j] = gps.Fix{
				Lat:        b.Lat[i][j],
				Lon:        atFloat(b.Lon, i, j),
				Time:       atFloat(b.Time, i, j),
				Altitude:   atFloat(b.Altitude, i, j),
				HDOP:       atFloat(b.HDOP, i, j),
				DeltaTime:  atFloat(b.DeltaTime, i, j),
				Quality:    atInt(b.Quality, i, j),
				Satellites: atInt(b.Satellites, i, j),
			}
		}
		series.Ensembles[i] = fixes
	}
	return series, nil
}

// VTGFixSeries converts the VTG block to a FixSeries.
func (t *Transect) VTGFixSeries() (*gps.FixSeries, error) {
	b := t.VTG
	if b == nil {
		return nil, fmt.Errorf("archive: transect has no vtg block")
	}
	if len(b.Course) != len(b.Speed) {
		return nil, fmt.Errorf("archive: vtg matrices misaligned (%d course, %d speed ensembles)",
			len(b.Course), len(b.Speed))
	}

	series := &gps.FixSeries{Kind: gps.KindVTG, Ensembles: make([][]gps.Fix, len(b.Course))}
	for i := range b.Course {
		n := len(b.Course[i])
		fixes := make([]gps.Fix, n)
		for j := 0; j < n; j++ {
			fixes[j] = gps.Fix{
				CourseDeg: b.Course[i][j],
				SpeedMps:  atFloat(b.Speed, i, j),
				DeltaTime: atFloat(b.DeltaTime, i, j),
			}
		}
		series.Ensembles[i] = fixes
	}
	return series, nil
}

// ToEdge converts an edge block to an edges.Edge, preserving the
// absent-versus-present semantics of the optional fields.
func (b *EdgeBlock) ToEdge(side edges.Side) (edges.Edge, error) {
	e := edges.Edge{Side: side, NumEnsembles: edges.DefaultNumEnsembles}
	if b == nil || b.Type == nil {
		return e, fmt.Errorf("archive: %s edge has no type", side)
	}
	shape, err := edges.ParseShape(*b.Type)
	if err != nil {
		return e, err
	}
	e.Shape = shape
	if b.DistanceM != nil {
		e.DistanceM = *b.DistanceM
	}
	if b.NumEnsembles != nil {
		e.NumEnsembles = *b.NumEnsembles
	}
	if b.CustCoef != nil {
		e.CustomCoef = *b.CustCoef
	}
	if b.Exponent != nil {
		e.Exponent = *b.Exponent
	}
	// Copied, not aliased: the archive document stays immutable.
	if b.UserQCms != nil {
		q := *b.UserQCms
		e.UserDischargeCms = &q
	}
	return e, nil
}

// CellMatrices converts the cell block to plain matrices for integration.
func (t *Transect) CellMatrices() (vel, area [][]float64, valid [][]bool, err error) {
	b := t.Cells
	if b == nil {
		return nil, nil, nil, fmt.Errorf("archive: transect has no cell block")
	}
	if len(b.Area) != len(b.Velocity) || len(b.Valid) != len(b.Velocity) {
		return nil, nil, nil, fmt.Errorf("archive: cell matrices have mismatched row counts")
	}
	vel = make([][]float64, len(b.Velocity))
	area = make([][]float64, len(b.Area))
	for i := range b.Velocity {
		vel[i] = b.Velocity[i]
		area[i] = b.Area[i]
	}
	return vel, area, b.Valid, nil
}

// atFloat indexes a possibly-absent ragged attribute matrix, returning NaN
// where the archive has no value.
func atFloat(m []FloatArray, i, j int) float64 {
	if i >= len(m) || j >= len(m[i]) {
		return math.NaN()
	}
	return m[i][j]
}

// atInt indexes a possibly-absent ragged int matrix, returning 0 where the
// archive has no value.
func atInt(m [][]int, i, j int) int {
	if i >= len(m) || j >= len(m[i]) {
		return 0
	}
	return m[i][j]
}
