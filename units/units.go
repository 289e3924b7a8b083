// Package units provides shared constants and validation for the units used
// by trap calibration results
package units

// Unit constants
const (
	Stiffness        = "pN/nm"
	DisplacementSens = "nm/V"
	ForceSens        = "pN/V"
	Drag             = "pN s / nm"
	Frequency        = "Hz"
	Viscosity        = "pN s / nm^2"
	Length           = "nm"
	Energy           = "pN nm"
	Celsius          = "degC"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Stiffness, DisplacementSens, ForceSens, Drag, Frequency, Viscosity, Length, Energy, Celsius}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// AbsoluteZeroCelsius is the lowest expressible temperature in [degC].
const AbsoluteZeroCelsius = -273.15

// AsKelvin converts a temperature from degrees Celsius to Kelvin
func AsKelvin(celsius float64) float64 {
	return celsius + 273.15
}

// AsCelsius converts a temperature from Kelvin to degrees Celsius
func AsCelsius(kelvin float64) float64 {
	return kelvin - 273.15
}
