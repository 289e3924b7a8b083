// Package physics provides the closed-form physics behind optical trap
// calibration: thermal energy, low-Reynolds-number hydrodynamics and the
// power spectral density models of a trapped bead.
//
// Unless stated otherwise, quantities use the tweezer unit system:
// lengths in [nm], forces in [pN], energies in [pN nm], viscosities in
// [pN s / nm^2] and temperatures in [degC].
package physics

import (
	"github.com/DollSimon/tweezers-sub000/units"
)

// Boltzmann is the Boltzmann constant in SI units [J/K].
const Boltzmann = 1.380649e-23

// KbT returns the thermal energy in [pN nm] for a temperature in [degC].
func KbT(temperature float64) float64 {
	return Boltzmann * units.AsKelvin(temperature) * 1e21
}
