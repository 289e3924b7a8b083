package physics

import (
	"fmt"
	"math"

	"github.com/DollSimon/tweezers-sub000/internal/monitoring"
	"github.com/DollSimon/tweezers-sub000/units"
)

// DragSphere returns the Stokes drag coefficient of a sphere in a Newtonian
// fluid at low Reynolds number, gamma = 6*pi*eta*r, in [pN s / nm].
// The radius is given in [nm], the dynamic viscosity in [pN s / nm^2].
func DragSphere(radius, viscosity float64) float64 {
	return 6 * math.Pi * radius * viscosity
}

// DiffusionCoefficient returns the diffusion coefficient of a sphere in
// [nm^2 / s] from Stokes drag and the Stokes-Einstein relation, D = kT/gamma.
// The radius is given in [nm], the temperature in [degC] and the dynamic
// viscosity in [pN s / nm^2].
func DiffusionCoefficient(radius, temperature, viscosity float64) (float64, error) {
	if radius <= 0 {
		return 0, fmt.Errorf("physics: radius must be positive, got %v", radius)
	}
	if temperature < units.AbsoluteZeroCelsius {
		return 0, fmt.Errorf("physics: temperature below absolute zero: %v degC", temperature)
	}
	if viscosity <= 0 {
		return 0, fmt.Errorf("physics: viscosity must be positive, got %v", viscosity)
	}
	return KbT(temperature) / DragSphere(radius, viscosity), nil
}

// ViscosityWater returns the dynamic viscosity of water in [pN s / nm^2] at
// the given temperature in [degC], from the empiric Vogel-type equation.
func ViscosityWater(temperature float64) float64 {
	const (
		a = 2.414e-5
		b = 247.8
		c = 140
	)
	return a * math.Pow(10, b/(units.AsKelvin(temperature)-c)) * 1e-6
}

// CouplingMethod selects the approximation used for the hydrodynamic
// coupling factor between two nearby beads.
type CouplingMethod int

const (
	// Oseen is the Oseen-tensor point-force approximation.
	Oseen CouplingMethod = iota
	// RotnePrager adds the finite-size correction for equal spheres.
	RotnePrager
	// RotnePragerUneven is the Rotne-Prager correction for spheres of
	// different radii.
	RotnePragerUneven
)

// String returns the method name.
func (m CouplingMethod) String() string {
	switch m {
	case Oseen:
		return "oseen"
	case RotnePrager:
		return "rotne-prager"
	case RotnePragerUneven:
		return "rotne-prager-uneven"
	default:
		return fmt.Sprintf("CouplingMethod(%d)", int(m))
	}
}

// HydroCouplingFactor returns the correction factor c for the oscillation
// calibration of two beads trapped a distance dist apart (all lengths in
// [nm]). rOther is the radius of the bead in the other trap, the one causing
// the flow field; rTrap is only used by RotnePragerUneven.
//
// A physical factor lies in (0, 1]. Values outside that range are returned
// unchanged with a logged warning so the calibration layer can judge them.
func HydroCouplingFactor(dist, rTrap, rOther float64, method CouplingMethod) (float64, error) {
	if dist <= 0 {
		return 0, fmt.Errorf("physics: bead distance must be positive, got %v", dist)
	}

	var c float64
	switch method {
	case Oseen:
		c = 1 - 1.5*rOther/dist
	case RotnePrager:
		c = 1 - 1.5*rOther/dist + math.Pow(rOther/dist, 3)
	case RotnePragerUneven:
		c = 1 - 1.5*rOther/dist + 0.5*rOther*(rTrap*rTrap+rOther*rOther)/(dist*dist*dist)
	default:
		return 0, fmt.Errorf("physics: unsupported coupling method %v", method)
	}

	if c <= 0 || c > 1 {
		monitoring.Warnf("physics: non-physical hydrodynamic coupling factor %v (dist=%v rOther=%v method=%v)", c, dist, rOther, method)
	}
	return c, nil
}
