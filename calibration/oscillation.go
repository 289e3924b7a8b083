package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/DollSimon/tweezers-sub000/internal/monitoring"
	"github.com/DollSimon/tweezers-sub000/physics"
	"github.com/DollSimon/tweezers-sub000/units"
)

// ErrDriveBinNotFound is returned when no frequency bin matches the drive
// frequency.
var ErrDriveBinNotFound = errors.New("calibration: no frequency bin matches the drive frequency")

// WTh returns the theoretical power of a drive of known amplitude (detector
// units) at driveFreq [Hz], attenuated by the trap's own low-pass response
// with corner frequency cornerFreq.
func WTh(amplitude, cornerFreq, driveFreq float64) float64 {
	r := cornerFreq / driveFreq
	return amplitude * amplitude / (2 * (1 + r*r))
}

// WExp returns the experimentally measured drive power: the raw peak power
// at the drive bin minus the thermal background from the fitted curve at the
// same frequency, times the bin width.
//
// Bins on the raw and fitted grids are matched by integer truncation of
// their frequency values, which requires a frequency resolution of at least
// 1 Hz; coarser grids are accepted, finer ones fail rather than risk
// matching the wrong bin.
func WExp(rawFreq, rawPower, fitFreq, fitPower []float64, driveFreq float64) (float64, error) {
	if len(rawFreq) < 2 || len(rawFreq) != len(rawPower) || len(fitFreq) != len(fitPower) || len(fitFreq) == 0 {
		return 0, errors.New("calibration: malformed PSD arrays for drive power")
	}
	df := rawFreq[1] - rawFreq[0]
	if df < 1 {
		return 0, fmt.Errorf("calibration: frequency resolution %v Hz too fine for truncation bin matching (need >= 1 Hz)", df)
	}

	rawIdx, err := truncMatch(rawFreq, driveFreq)
	if err != nil {
		return 0, err
	}
	fitIdx, err := truncMatch(fitFreq, driveFreq)
	if err != nil {
		return 0, err
	}
	return (rawPower[rawIdx] - fitPower[fitIdx]) * df, nil
}

func truncMatch(freq []float64, driveFreq float64) (int, error) {
	want := int(driveFreq)
	for i, f := range freq {
		if int(f) == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %v Hz", ErrDriveBinNotFound, driveFreq)
}

// ThermalOsci performs the active oscillation calibration for the driven
// axis. drivePower is the measured drive power from WExp. The returned drag
// coefficient is authoritative for the orthogonal axis of the same bead,
// which must therefore be calibrated after this one via ThermalDrag.
func ThermalOsci(cornerFreq, diffCoef, driveFreq, amplitude, drivePower, temperature float64) (Record, error) {
	if driveFreq <= 0 || amplitude <= 0 {
		return Record{}, fmt.Errorf("calibration: drive frequency and amplitude must be positive, got %v Hz, %v", driveFreq, amplitude)
	}
	if temperature < units.AbsoluteZeroCelsius {
		return Record{}, fmt.Errorf("calibration: temperature below absolute zero: %v degC", temperature)
	}

	wth := WTh(amplitude, cornerFreq, driveFreq)
	dispSens := math.Sqrt(wth / drivePower)
	dragCoef := physics.KbT(temperature) / (dispSens * dispSens * diffCoef)
	stiffness := 2 * math.Pi * cornerFreq * dragCoef
	forceSens := dispSens * stiffness

	if math.IsNaN(dispSens) || math.IsInf(dispSens, 0) {
		monitoring.Warnf("calibration: non-physical displacement sensitivity %v from drive power %v", dispSens, drivePower)
	}
	return newRecord(stiffness, dispSens, forceSens, dragCoef), nil
}
