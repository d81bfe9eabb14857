// Package measurement orchestrates one full discharge computation: it
// populates the processing entities from an archive document, resolves and
// filters each transect's boat-velocity references under the supplied
// settings, integrates discharge, and aggregates the transects.
package measurement

import (
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"

	"github.com/rowetechinc/QRevPy/internal/archive"
	"github.com/rowetechinc/QRevPy/internal/boatvel"
	"github.com/rowetechinc/QRevPy/internal/config"
	"github.com/rowetechinc/QRevPy/internal/discharge"
	"github.com/rowetechinc/QRevPy/internal/edges"
	"github.com/rowetechinc/QRevPy/internal/geodesy"
	"github.com/rowetechinc/QRevPy/internal/gps"
)

// Measurement is the computed result of one archive document under one
// settings value. Recomputing with different settings produces a new
// Measurement; nothing is updated in place.
type Measurement struct {
	ID      string
	Station string
	Result  discharge.MeasurementResult
}

// Compute runs the full pipeline. Individual transect failures are
// recorded on their results and do not abort the measurement; Compute
// fails only when the settings are invalid or no transect has a valid
// total.
func Compute(doc *archive.Document, settings *config.Settings) (*Measurement, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	m := &Measurement{ID: uuid.NewString()}
	if doc.Station != nil {
		m.Station = *doc.Station
	}

	results := make([]discharge.TransectResult, 0, len(doc.Transects))
	for i := range doc.Transects {
		tr := &doc.Transects[i]
		res, err := computeTransect(tr, settings)
		if err != nil {
			log.Printf("measurement: transect %s failed: %v", res.Filename, err)
		}
		results = append(results, res)
	}

	agg, err := discharge.Aggregate(results)
	if err != nil {
		return nil, err
	}
	m.Result = agg
	return m, nil
}

// computeTransect processes one transect end to end. On error the returned
// result still identifies the transect and carries the failure reason.
func computeTransect(tr *archive.Transect, settings *config.Settings) (discharge.TransectResult, error) {
	res := discharge.TransectResult{}
	if tr.Filename != nil {
		res.Filename = *tr.Filename
	}
	fail := func(err error) (discharge.TransectResult, error) {
		res.Failure = err.Error()
		return res, err
	}

	ensembles, err := ensembleCount(tr)
	if err != nil {
		return fail(err)
	}

	rec := boatvel.NewReconciler(ensembles)
	if err := registerBottomTrack(rec, tr, settings); err != nil {
		return fail(err)
	}
	if err := registerGGA(rec, tr, settings, ensembles); err != nil {
		return fail(err)
	}
	if err := registerVTG(rec, tr, settings, ensembles); err != nil {
		return fail(err)
	}

	boat, err := rec.Select(settings.GetNavReference())
	if err != nil {
		return fail(err)
	}

	in, err := buildInput(tr, boat)
	if err != nil {
		return fail(err)
	}
	return discharge.ComputeTransect(in)
}

// ShipTrack resolves one transect's GGA fixes under the configured position
// method and projects them to planar UTM coordinates, one point per
// ensemble. Position resolution is configured separately from velocity
// resolution: a track drawn from end-of-ensemble fixes can accompany
// velocities averaged over the whole ensemble. Ensembles without a usable
// fix stay in the output as NaN points.
func ShipTrack(tr *archive.Transect, settings *config.Settings) (easting, northing []float64, zone int, err error) {
	series, err := tr.GGAFixSeries()
	if err != nil {
		return nil, nil, 0, err
	}
	resolver, err := gps.NewResolver(string(settings.GetGGAPositionMethod()), settings.GetMinDiffQuality())
	if err != nil {
		return nil, nil, 0, err
	}
	positions, _, err := resolver.Positions(series)
	if err != nil {
		return nil, nil, 0, err
	}

	lat := make([]float64, len(positions))
	lon := make([]float64, len(positions))
	for i, p := range positions {
		if p.Valid {
			lat[i], lon[i] = p.Lat, p.Lon
		} else {
			lat[i], lon[i] = math.NaN(), math.NaN()
		}
	}
	easting, northing, zone = geodesy.Project(lat, lon)
	return easting, northing, zone, nil
}

// ensembleCount derives the transect's ensemble count from the bottom-track
// block, the only series present in every archive.
func ensembleCount(tr *archive.Transect) (int, error) {
	if tr.BottomTrack == nil || len(tr.BottomTrack.U) == 0 {
		return 0, fmt.Errorf("measurement: transect has no bottom-track block")
	}
	return len(tr.BottomTrack.U), nil
}

func registerBottomTrack(rec *boatvel.Reconciler, tr *archive.Transect, settings *config.Settings) error {
	bt := tr.BottomTrack
	s, err := boatvel.NewSeries(boatvel.RefBottomTrack, bt.U, bt.V)
	if err != nil {
		return err
	}
	if bt.W != nil && bt.ErrorVel != nil {
		if err := s.SetErrorVelocities(bt.W, bt.ErrorVel); err != nil {
			return err
		}
		s.ApplyDiffVelFilter(settings.GetDiffVelFilter(), settings.GetDiffVelThreshold())
		s.ApplyVertVelFilter(settings.GetVertVelFilter(), settings.GetVertVelThreshold())
	}
	if bt.BeamCount != nil {
		s.ApplyBeamFilter(settings.GetBeamFilter(), bt.BeamCount)
	}
	return rec.SetSeries(s)
}

// registerGGA resolves the GGA fix matrix to positions, derives velocity
// from the displacement between consecutive resolved fixes, and applies
// the GPS quality filters. A transect without a GGA block simply leaves
// the reference unavailable.
func registerGGA(rec *boatvel.Reconciler, tr *archive.Transect, settings *config.Settings, ensembles int) error {
	if tr.GGA == nil {
		return nil
	}
	series, err := tr.GGAFixSeries()
	if err != nil {
		return err
	}
	if series.Len() != ensembles {
		return fmt.Errorf("measurement: gga has %d ensembles, bottom track has %d", series.Len(), ensembles)
	}

	resolver, err := gps.NewResolver(string(settings.GetGGAVelocityMethod()), settings.GetMinDiffQuality())
	if err != nil {
		return err
	}
	positions, stats, err := resolver.Positions(series)
	if err != nil {
		return err
	}
	if stats.EmptyEnsembles > 0 {
		log.Printf("measurement: gga: %d of %d ensembles have no usable fix", stats.EmptyEnsembles, ensembles)
	}

	velocities := gps.VelocityFromPositions(positions)
	u := make([]float64, ensembles)
	v := make([]float64, ensembles)
	hdop := make([]float64, ensembles)
	altitude := make([]float64, ensembles)
	for i, vel := range velocities {
		if vel.Valid {
			u[i], v[i] = vel.East, vel.North
		} else {
			u[i], v[i] = math.NaN(), math.NaN()
		}
		hdop[i] = positions[i].HDOP
		altitude[i] = positions[i].Altitude
	}

	s, err := boatvel.NewSeries(boatvel.RefGGA, u, v)
	if err != nil {
		return err
	}
	s.ApplyHDOPFilter(settings.GetHDOPFilter(), settings.GetHDOPMax(), settings.GetHDOPChange(), hdop)
	s.ApplyAltitudeFilter(settings.GetAltitudeFilter(), settings.GetAltitudeChange(), altitude)
	return rec.SetSeries(s)
}

func registerVTG(rec *boatvel.Reconciler, tr *archive.Transect, settings *config.Settings, ensembles int) error {
	if tr.VTG == nil {
		return nil
	}
	series, err := tr.VTGFixSeries()
	if err != nil {
		return err
	}
	if series.Len() != ensembles {
		return fmt.Errorf("measurement: vtg has %d ensembles, bottom track has %d", series.Len(), ensembles)
	}

	resolver, err := gps.NewResolver(string(settings.GetVTGVelocityMethod()), settings.GetMinDiffQuality())
	if err != nil {
		return err
	}
	velocities, _, err := resolver.Velocities(series)
	if err != nil {
		return err
	}

	u := make([]float64, ensembles)
	v := make([]float64, ensembles)
	for i, vel := range velocities {
		if vel.Valid {
			u[i], v[i] = vel.East, vel.North
		} else {
			u[i], v[i] = math.NaN(), math.NaN()
		}
	}
	s, err := boatvel.NewSeries(boatvel.RefVTG, u, v)
	if err != nil {
		return err
	}
	return rec.SetSeries(s)
}

// buildInput assembles the integrator input from the archive transect and
// the reconciled boat velocity.
func buildInput(tr *archive.Transect, boat *boatvel.BoatVelocity) (discharge.TransectInput, error) {
	var in discharge.TransectInput
	if tr.Filename != nil {
		in.Filename = *tr.Filename
	}
	if tr.StartTime != nil {
		in.StartTime = *tr.StartTime
	}
	if tr.EndTime != nil {
		in.EndTime = *tr.EndTime
	}

	vel, area, valid, err := tr.CellMatrices()
	if err != nil {
		return in, err
	}
	in.CellVelocity = vel
	in.CellArea = area
	in.CellValid = valid

	in.WaterU = tr.WaterU
	in.WaterV = tr.WaterV
	in.Depth = tr.Depth
	in.Boat = boat

	if tr.TopQ != nil {
		in.TopQ = *tr.TopQ
	}
	if tr.BottomQ != nil {
		in.BottomQ = *tr.BottomQ
	}

	if in.LeftEdge, err = tr.LeftEdge.ToEdge(edges.Left); err != nil {
		return in, err
	}
	if in.RightEdge, err = tr.RightEdge.ToEdge(edges.Right); err != nil {
		return in, err
	}
	return in, nil
}
