package physics

import "math"

// Lorentzian returns the power spectral density of a trapped bead's thermal
// motion at frequency f [Hz], P(f) = D / (pi^2 (f^2 + fc^2)), with the
// diffusion coefficient D in detector units and corner frequency fc in [Hz].
func Lorentzian(f, d, fc float64) float64 {
	return d / (math.Pi * math.Pi * (f*f + fc*fc))
}

// PSDDiode returns the Lorentzian PSD attenuated by the low-pass response of
// a position-sensitive diode (silicon transparency at infrared), following
// Berg-Sorensen's parameterisation: f3dB is the diode roll-off frequency and
// a the instantaneous fraction of the response.
func PSDDiode(f, d, fc, f3dB, a float64) float64 {
	x := f / f3dB
	diode := a*a + (1-a*a)/(1+x*x)
	return diode * Lorentzian(f, d, fc)
}

// TrapStiffness returns the trap stiffness kappa = 2*pi*fc*gamma in [pN/nm]
// for a corner frequency fc [Hz], bead radius [nm] and viscosity
// [pN s / nm^2].
func TrapStiffness(fc, radius, viscosity float64) float64 {
	return 2 * math.Pi * fc * DragSphere(radius, viscosity)
}

// DistanceCalibration returns the displacement sensitivity
// beta = sqrt(kT / (gamma D)) in [nm/V] for a diffusion coefficient D in
// detector units, bead radius [nm], viscosity [pN s / nm^2] and temperature
// [degC].
func DistanceCalibration(d, radius, viscosity, temperature float64) float64 {
	return math.Sqrt(KbT(temperature) / (DragSphere(radius, viscosity) * d))
}
