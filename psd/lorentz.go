package psd

import (
	"fmt"
	"math"

	"github.com/DollSimon/tweezers-sub000/fit"
	"github.com/DollSimon/tweezers-sub000/physics"
)

// SpectrumResult holds the parameters extracted from a PSD estimate by a
// spectrum fitter. Fields that do not apply to the chosen strategy are NaN.
type SpectrumResult struct {
	DiffusionCoefficient    float64
	CornerFrequency         float64
	DiffusionCoefficientErr float64
	CornerFrequencyErr      float64

	// Diode low-pass parameters, NaN unless the diode model was fitted.
	DiodeF3dB    float64
	DiodeA       float64
	DiodeF3dBErr float64
	DiodeAErr    float64

	R2           float64
	MeanResidual float64
	// Chi2 is the reduced chi-squared, NaN unless per-bin std was used.
	Chi2 float64
}

// SpectrumFitter extracts Lorentzian parameters from a PSD estimate.
// LorentzFit and MLEFit are interchangeable implementations.
type SpectrumFitter interface {
	Fit() (SpectrumResult, error)
}

// LorentzConfig configures a LorentzFit.
type LorentzConfig struct {
	// MinF and MaxF bound the fitted frequency window [Hz].
	MinF, MaxF float64
	// Diode fits the diode-corrected model with the four free parameters
	// [D, fc, f3dB, A] instead of the plain Lorentzian [D, fc].
	Diode bool
	// PeakFreq, when positive, excludes the frequency bin nearest to it
	// from the fit objective. The bin stays part of the full domain so the
	// fitted curve can be evaluated there (oscillation calibration needs
	// the thermal background at the drive frequency).
	PeakFreq float64
	// Weighted uses the estimate's per-bin std as point-wise sigma.
	Weighted bool
	// Seed overrides the default initial coefficients.
	Seed []float64
}

// LorentzFit fits the (optionally diode-corrected) Lorentzian model to a PSD
// estimate by nonlinear least squares.
type LorentzFit struct {
	cfg      LorentzConfig
	ls       *fit.LeastSquares
	fullFreq []float64
	model    fit.Func
}

// NewLorentzFit restricts the estimate to [MinF, MaxF] and prepares the fit.
// An empty window fails with ErrInsufficientData; a weighted fit without std
// data fails with fit.ErrMissingStd.
func NewLorentzFit(est *Estimate, cfg LorentzConfig) (*LorentzFit, error) {
	var fullFreq, fitFreq, fitPower, fitStd []float64
	hasStd := len(est.Std) == len(est.Freq) && len(est.Std) > 0

	for _, f := range est.Freq {
		if f < cfg.MinF || f > cfg.MaxF {
			continue
		}
		fullFreq = append(fullFreq, f)
	}
	if len(fullFreq) == 0 {
		return nil, fmt.Errorf("%w: empty fit window [%v, %v]", ErrInsufficientData, cfg.MinF, cfg.MaxF)
	}

	// The drive peak is signal, not thermal noise; drop the nearest bin
	// from the objective but keep the full window for later evaluation.
	peakIdx := -1
	if cfg.PeakFreq > 0 {
		peakIdx = nearestIndex(fullFreq, cfg.PeakFreq)
	}
	for i, f := range est.Freq {
		if f < cfg.MinF || f > cfg.MaxF {
			continue
		}
		if peakIdx >= 0 && f == fullFreq[peakIdx] {
			continue
		}
		fitFreq = append(fitFreq, f)
		fitPower = append(fitPower, est.Power[i])
		if hasStd {
			fitStd = append(fitStd, est.Std[i])
		}
	}

	lf := &LorentzFit{cfg: cfg, fullFreq: fullFreq}
	if cfg.Diode {
		lf.model = func(x float64, c []float64) float64 {
			return physics.PSDDiode(x, c[0], c[1], c[2], c[3])
		}
	} else {
		lf.model = func(x float64, c []float64) float64 {
			return physics.Lorentzian(x, c[0], c[1])
		}
	}

	seed := cfg.Seed
	if seed == nil {
		seed = defaultSeed(fitFreq, fitPower, cfg.Diode)
	}

	ls, err := fit.NewLeastSquares(fitFreq, fitPower, lf.model, fitStd, fit.Options{
		Weighted: cfg.Weighted,
		Seed:     seed,
	})
	if err != nil {
		return nil, err
	}
	lf.ls = ls
	return lf, nil
}

// defaultSeed derives initial coefficients from the windowed data: fc at the
// geometric centre of the window, D matching the first point's power. The
// fragile diode parameters start at twice the window centre with half
// instantaneous response.
func defaultSeed(freq, power []float64, diode bool) []float64 {
	fc := math.Sqrt(freq[0] * freq[len(freq)-1])
	d := power[0] * math.Pi * math.Pi * (freq[0]*freq[0] + fc*fc)
	if diode {
		return []float64{d, fc, 2 * fc, 0.5}
	}
	return []float64{d, fc}
}

func nearestIndex(freq []float64, f float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, v := range freq {
		if d := math.Abs(v - f); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Engine exposes the underlying least squares fit.
func (lf *LorentzFit) Engine() *fit.LeastSquares { return lf.ls }

// FullFreq returns the complete frequency window including any excluded
// drive-peak bin. The slice is a copy.
func (lf *LorentzFit) FullFreq() []float64 {
	return append([]float64(nil), lf.fullFreq...)
}

// FullFit evaluates the fitted model over the complete frequency window,
// including the excluded drive-peak bin.
func (lf *LorentzFit) FullFit() []float64 {
	y := make([]float64, len(lf.fullFreq))
	for i, f := range lf.fullFreq {
		y[i] = lf.ls.Eval(f)
	}
	return y
}

// Fit runs the fit and collects the spectrum parameters. Non-convergence
// yields NaN-filled results, not an error.
func (lf *LorentzFit) Fit() (SpectrumResult, error) {
	coef := lf.ls.Coef()
	coefErr := lf.ls.CoefErr()
	_, meanRes := lf.ls.Residuals()

	res := SpectrumResult{
		DiffusionCoefficient:    coef[0],
		CornerFrequency:         coef[1],
		DiffusionCoefficientErr: coefErr[0],
		CornerFrequencyErr:      coefErr[1],
		DiodeF3dB:               math.NaN(),
		DiodeA:                  math.NaN(),
		DiodeF3dBErr:            math.NaN(),
		DiodeAErr:               math.NaN(),
		R2:                      lf.ls.RSquared(),
		MeanResidual:            meanRes,
		Chi2:                    math.NaN(),
	}
	if lf.cfg.Diode {
		res.DiodeF3dB = coef[2]
		res.DiodeA = coef[3]
		res.DiodeF3dBErr = coefErr[2]
		res.DiodeAErr = coefErr[3]
	}
	if lf.cfg.Weighted {
		chi2, err := lf.ls.ChiSquared()
		if err != nil {
			return res, err
		}
		res.Chi2 = chi2
	}
	return res, nil
}
