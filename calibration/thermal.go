package calibration

import (
	"fmt"
	"math"

	"github.com/DollSimon/tweezers-sub000/internal/monitoring"
	"github.com/DollSimon/tweezers-sub000/physics"
	"github.com/DollSimon/tweezers-sub000/units"
)

// Thermal performs the passive thermal calibration from a fitted corner
// frequency [Hz] and diffusion coefficient (detector units). The drag
// coefficient comes from Stokes' law for the configured bead.
func Thermal(cornerFreq, diffCoef float64, pc PhysicalConstants) (Record, error) {
	if err := pc.Validate(); err != nil {
		return Record{}, err
	}
	dragCoef := physics.DragSphere(pc.BeadDiameter/2, pc.Viscosity)
	return ThermalDrag(cornerFreq, diffCoef, dragCoef, pc.Temperature)
}

// ThermalDrag performs the thermal calibration with an externally known drag
// coefficient [pN s / nm]. The oscillation protocol uses it for the
// non-driven axis, whose drag was measured on the driven axis of the same
// bead.
func ThermalDrag(cornerFreq, diffCoef, dragCoef, temperature float64) (Record, error) {
	if dragCoef <= 0 {
		return Record{}, fmt.Errorf("calibration: drag coefficient must be positive, got %v", dragCoef)
	}
	if temperature < units.AbsoluteZeroCelsius {
		return Record{}, fmt.Errorf("calibration: temperature below absolute zero: %v degC", temperature)
	}

	dispSens := math.Sqrt(physics.KbT(temperature) / (dragCoef * diffCoef))
	stiffness := 2 * math.Pi * cornerFreq * dragCoef
	forceSens := dispSens * stiffness

	if math.IsNaN(dispSens) || math.IsInf(dispSens, 0) {
		monitoring.Warnf("calibration: non-physical displacement sensitivity %v (D=%v, gamma=%v)", dispSens, diffCoef, dragCoef)
	}
	return newRecord(stiffness, dispSens, forceSens, dragCoef), nil
}
