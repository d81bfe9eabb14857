package boatvel

import (
	"fmt"
	"math"
)

// BoatVelocity is the single reconciled boat-velocity series consumed by
// discharge integration. It is derived data: recomputed in full whenever
// the reference selection or any upstream filter changes, never mutated
// incrementally. Downstream code treats it as read-only.
type BoatVelocity struct {
	U, V   []float64
	Valid  []bool
	Source Reference
}

// Len returns the ensemble count.
func (b *BoatVelocity) Len() int { return len(b.U) }

// PercentInvalid returns the share of invalid ensembles, 0-100.
func (b *BoatVelocity) PercentInvalid() float64 {
	if len(b.Valid) == 0 {
		return 0
	}
	n := 0
	for _, ok := range b.Valid {
		if !ok {
			n++
		}
	}
	return 100 * float64(n) / float64(len(b.Valid))
}

// Reconciler exposes the per-reference series and composes the selected one
// into a BoatVelocity. Selection is explicit: there is no automatic
// failover between references. If the caller wants GGA when bottom track
// drops out, the caller substitutes GGA.
type Reconciler struct {
	ensembles int
	series    map[Reference]*Series
}

// NewReconciler creates a reconciler for a transect with the given ensemble
// count. Every registered series must match that length.
func NewReconciler(ensembles int) *Reconciler {
	return &Reconciler{ensembles: ensembles, series: make(map[Reference]*Series)}
}

// SetSeries registers a reference series. A length mismatch is a hard
// error: every per-ensemble array in a transect shares one alignment.
func (r *Reconciler) SetSeries(s *Series) error {
	if s.Len() != r.ensembles {
		return fmt.Errorf("boatvel: %s series has %d ensembles, transect has %d", s.Source, s.Len(), r.ensembles)
	}
	r.series[s.Source] = s
	return nil
}

// Series returns the registered series for a reference, or nil.
func (r *Reconciler) Series(ref Reference) *Series { return r.series[ref] }

// Available lists the references that currently have data.
func (r *Reconciler) Available() []Reference {
	refs := make([]Reference, 0, len(r.series))
	for _, ref := range []Reference{RefBottomTrack, RefGGA, RefVTG} {
		if r.series[ref] != nil {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Select composes the boat velocity from the named reference. Ensembles
// invalid in the source's composite row come through as NaN and stay
// invalid; nothing is interpolated or borrowed from other references.
func (r *Reconciler) Select(ref Reference) (*BoatVelocity, error) {
	if _, err := ParseReference(string(ref)); err != nil {
		return nil, err
	}
	s := r.series[ref]
	if s == nil {
		return nil, fmt.Errorf("boatvel: reference %s has no data for this transect", ref)
	}

	out := &BoatVelocity{
		U:      make([]float64, r.ensembles),
		V:      make([]float64, r.ensembles),
		Valid:  make([]bool, r.ensembles),
		Source: ref,
	}
	for i := 0; i < r.ensembles; i++ {
		if s.Valid.Composite[i] {
			out.U[i] = s.U[i]
			out.V[i] = s.V[i]
			out.Valid[i] = true
		} else {
			out.U[i] = math.NaN()
			out.V[i] = math.NaN()
		}
	}
	return out, nil
}
