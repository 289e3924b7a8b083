package calibration

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/DollSimon/tweezers-sub000/psd"
)

// Drive describes the imposed oscillation on a driven trap axis.
type Drive struct {
	Frequency float64 // [Hz]
	Amplitude float64 // detector units
}

// AxisInput bundles everything needed to calibrate one trap axis.
type AxisInput struct {
	// Axis is the namespaced axis key the result is reported under,
	// e.g. "pmY".
	Axis string
	// Bead groups the axes of one trapped bead; in oscillation runs the
	// driven axis supplies the drag coefficient for the other axes of the
	// same bead.
	Bead      string
	Series    psd.TimeSeries
	Constants PhysicalConstants
	// Drive marks this as the driven axis of its bead.
	Drive *Drive
}

// AxisResult is the outcome of calibrating one axis. Err is set when this
// axis failed; other axes of the run are unaffected.
type AxisResult struct {
	Axis     string
	Spectrum psd.SpectrumResult
	Record   Record
	Err      error
}

// RunConfig configures a calibration run.
type RunConfig struct {
	Psd      psd.Settings
	MinF     float64
	MaxF     float64
	Diode    bool
	Weighted bool
	// UseMLE selects the closed-form MLE estimator instead of the
	// least-squares Lorentzian fit. Driven axes always use the
	// least-squares fit, which can exclude the drive bin and evaluate the
	// thermal background at it.
	UseMLE bool
	// Oscillation switches to the active calibration protocol: driven axes
	// are calibrated first, the remaining axes reuse their bead's measured
	// drag coefficient.
	Oscillation bool
}

// RunResult collects per-axis results under their namespaced keys.
type RunResult struct {
	ID   uuid.UUID
	Axes map[string]AxisResult
}

// Run calibrates all axes. Axes are independent and run concurrently; in
// oscillation mode the driven axes complete before their orthogonal
// counterparts start. A failed axis is reported in its AxisResult and never
// aborts the rest of the run.
func Run(inputs []AxisInput, cfg RunConfig) *RunResult {
	res := &RunResult{ID: uuid.New(), Axes: make(map[string]AxisResult, len(inputs))}

	if !cfg.Oscillation {
		for _, r := range runPhase(inputs, func(in AxisInput) AxisResult {
			return passiveAxis(in, cfg)
		}) {
			res.Axes[r.Axis] = r
		}
		return res
	}

	var driven, orthogonal []AxisInput
	for _, in := range inputs {
		if in.Drive != nil {
			driven = append(driven, in)
		} else {
			orthogonal = append(orthogonal, in)
		}
	}

	dragByBead := make(map[string]float64)
	for _, r := range runPhase(driven, func(in AxisInput) AxisResult {
		return drivenAxis(in, cfg)
	}) {
		res.Axes[r.Axis] = r
	}
	for _, in := range driven {
		if r := res.Axes[in.Axis]; r.Err == nil {
			dragByBead[in.Bead] = r.Record.DragCoefficient.Value
		}
	}

	for _, r := range runPhase(orthogonal, func(in AxisInput) AxisResult {
		drag, ok := dragByBead[in.Bead]
		if !ok {
			return AxisResult{Axis: in.Axis, Err: fmt.Errorf("calibration: no calibrated driven axis for bead %q", in.Bead)}
		}
		return orthogonalAxis(in, cfg, drag)
	}) {
		res.Axes[r.Axis] = r
	}
	return res
}

// runPhase calibrates one batch of independent axes concurrently, one
// worker per axis.
func runPhase(inputs []AxisInput, calibrate func(AxisInput) AxisResult) []AxisResult {
	results := make([]AxisResult, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in AxisInput) {
			defer wg.Done()
			results[i] = calibrate(in)
		}(i, in)
	}
	wg.Wait()
	return results
}

func passiveAxis(in AxisInput, cfg RunConfig) AxisResult {
	res := AxisResult{Axis: in.Axis}

	est, err := psd.Compute(in.Series, cfg.Psd)
	if err != nil {
		res.Err = err
		return res
	}
	res.Spectrum, res.Err = fitSpectrum(est, cfg)
	if res.Err != nil {
		return res
	}
	res.Record, res.Err = Thermal(res.Spectrum.CornerFrequency, res.Spectrum.DiffusionCoefficient, in.Constants)
	return res
}

func drivenAxis(in AxisInput, cfg RunConfig) AxisResult {
	res := AxisResult{Axis: in.Axis}

	est, err := psd.Compute(in.Series, cfg.Psd)
	if err != nil {
		res.Err = err
		return res
	}
	lf, err := psd.NewLorentzFit(est, psd.LorentzConfig{
		MinF:     cfg.MinF,
		MaxF:     cfg.MaxF,
		Diode:    cfg.Diode,
		Weighted: cfg.Weighted,
		PeakFreq: in.Drive.Frequency,
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Spectrum, res.Err = lf.Fit()
	if res.Err != nil {
		return res
	}
	wExp, err := WExp(est.Freq, est.Power, lf.FullFreq(), lf.FullFit(), in.Drive.Frequency)
	if err != nil {
		res.Err = err
		return res
	}
	res.Record, res.Err = ThermalOsci(res.Spectrum.CornerFrequency, res.Spectrum.DiffusionCoefficient,
		in.Drive.Frequency, in.Drive.Amplitude, wExp, in.Constants.Temperature)
	return res
}

func orthogonalAxis(in AxisInput, cfg RunConfig, dragCoef float64) AxisResult {
	res := AxisResult{Axis: in.Axis}

	est, err := psd.Compute(in.Series, cfg.Psd)
	if err != nil {
		res.Err = err
		return res
	}
	res.Spectrum, res.Err = fitSpectrum(est, cfg)
	if res.Err != nil {
		return res
	}
	res.Record, res.Err = ThermalDrag(res.Spectrum.CornerFrequency, res.Spectrum.DiffusionCoefficient,
		dragCoef, in.Constants.Temperature)
	return res
}

// fitSpectrum runs the configured spectrum strategy. Both strategies consume
// the same estimate and produce the same result shape.
func fitSpectrum(est *psd.Estimate, cfg RunConfig) (psd.SpectrumResult, error) {
	var fitter psd.SpectrumFitter
	var err error
	if cfg.UseMLE {
		fitter, err = psd.NewMLEFit(est, psd.MLEConfig{MinF: cfg.MinF, MaxF: cfg.MaxF})
	} else {
		fitter, err = psd.NewLorentzFit(est, psd.LorentzConfig{
			MinF:     cfg.MinF,
			MaxF:     cfg.MaxF,
			Diode:    cfg.Diode,
			Weighted: cfg.Weighted,
		})
	}
	if err != nil {
		return psd.SpectrumResult{}, err
	}
	return fitter.Fit()
}
