package calibration

import (
	"github.com/DollSimon/tweezers-sub000/physics"
)

// Correct applies the hydrodynamic near-field coupling correction for two
// beads trapped a distance dist apart (all lengths in [nm]) and returns the
// corrected record: displacement sensitivity scales with c, stiffness with
// 1/c^2 and force sensitivity with 1/c.
//
// The correction is not idempotent. Correcting an already corrected record
// silently double-corrects; callers own the single-application invariant.
func Correct(rec Record, dist, rTrap, rOther float64, method physics.CouplingMethod) (Record, error) {
	c, err := physics.HydroCouplingFactor(dist, rTrap, rOther, method)
	if err != nil {
		return Record{}, err
	}
	return ApplyFactor(rec, c), nil
}

// ApplyFactor applies a precomputed coupling factor to the record.
func ApplyFactor(rec Record, c float64) Record {
	rec.DisplacementSensitivity.Value *= c
	rec.Stiffness.Value /= c * c
	rec.ForceSensitivity.Value /= c
	rec.HydroFactor = c
	return rec
}
