package discharge

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// ErrNoValidTransects means a measurement has nothing to aggregate: every
// transect failed or none were supplied.
var ErrNoValidTransects = errors.New("discharge: no transect has a valid total")

// MeasurementResult aggregates the transects of one measurement. COV is the
// coefficient of variation of the valid transect totals, the uncertainty
// signal consumed by the external uncertainty model.
type MeasurementResult struct {
	Transects []TransectResult `json:"transects"`

	MeanTotal float64 `json:"mean_total_cms"`
	COV       float64 `json:"cov"`

	ValidTransects int `json:"valid_transects"`
	TotalTransects int `json:"total_transects"`
}

// Aggregate computes the measurement-level discharge over the valid
// transects (for example reciprocal passes). Invalid transects stay in the
// output with their failure reasons but do not contribute to the mean.
func Aggregate(transects []TransectResult) (MeasurementResult, error) {
	res := MeasurementResult{
		Transects:      transects,
		TotalTransects: len(transects),
	}

	totals := make([]float64, 0, len(transects))
	for _, t := range transects {
		if t.Valid {
			totals = append(totals, t.Total)
		}
	}
	res.ValidTransects = len(totals)
	if len(totals) == 0 {
		return res, ErrNoValidTransects
	}

	res.MeanTotal = stat.Mean(totals, nil)
	if len(totals) > 1 && res.MeanTotal != 0 {
		res.COV = stat.StdDev(totals, nil) / res.MeanTotal
	}
	return res, nil
}
