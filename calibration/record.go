// Package calibration converts fitted power-spectrum parameters into the
// physical calibration constants of an optical trap: stiffness, displacement
// sensitivity and force sensitivity, via the passive thermal protocol or the
// active oscillation protocol, with an optional hydrodynamic-coupling
// correction for dual-trap experiments.
package calibration

import (
	"fmt"

	"github.com/DollSimon/tweezers-sub000/units"
)

// Value is a number tagged with its unit.
type Value struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Record holds the calibration constants for one trap axis. Records are
// append-only: once derived from a fit, the only permitted change is a
// single hydrodynamic correction pass (see Correct).
type Record struct {
	Stiffness               Value `json:"stiffness"`
	DisplacementSensitivity Value `json:"displacementSensitivity"`
	ForceSensitivity        Value `json:"forceSensitivity"`
	DragCoefficient         Value `json:"dragCoefficient"`

	// HydroFactor is the applied hydrodynamic correction factor, zero until
	// a correction pass has run.
	HydroFactor float64 `json:"hydroFactor,omitempty"`
}

func newRecord(stiffness, dispSens, forceSens, dragCoef float64) Record {
	return Record{
		Stiffness:               Value{stiffness, units.Stiffness},
		DisplacementSensitivity: Value{dispSens, units.DisplacementSens},
		ForceSensitivity:        Value{forceSens, units.ForceSens},
		DragCoefficient:         Value{dragCoef, units.Drag},
	}
}

// PhysicalConstants is the read-only experiment configuration needed for a
// thermal calibration.
type PhysicalConstants struct {
	Temperature  float64 // [degC]
	Viscosity    float64 // [pN s / nm^2]
	BeadDiameter float64 // [nm]
}

// Validate checks the constants for physical well-formedness.
func (pc PhysicalConstants) Validate() error {
	if pc.Temperature < units.AbsoluteZeroCelsius {
		return fmt.Errorf("calibration: temperature below absolute zero: %v degC", pc.Temperature)
	}
	if pc.Viscosity <= 0 {
		return fmt.Errorf("calibration: viscosity must be positive, got %v", pc.Viscosity)
	}
	if pc.BeadDiameter <= 0 {
		return fmt.Errorf("calibration: bead diameter must be positive, got %v", pc.BeadDiameter)
	}
	return nil
}
