package psd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/DollSimon/tweezers-sub000/internal/monitoring"
	"github.com/DollSimon/tweezers-sub000/physics"
)

// MLEConfig configures an MLEFit.
type MLEConfig struct {
	// MinF and MaxF bound the frequency window [Hz].
	MinF, MaxF float64
}

// MLEFit estimates corner frequency and diffusion coefficient directly from
// PSD moments with the closed-form maximum likelihood estimator of
// Norrelykke and Flyvbjerg. It is not a parametric curve fit; parameter
// errors come from a linearised information-matrix approximation using the
// fitted curve, not from a refit.
//
// The block count of the estimate is required for the bias correction.
type MLEFit struct {
	freq, power, std []float64
	nBlocks          int
}

// NewMLEFit restricts the estimate to [MinF, MaxF]. The estimate must carry
// a positive block count.
func NewMLEFit(est *Estimate, cfg MLEConfig) (*MLEFit, error) {
	if est.NBlocks <= 0 {
		return nil, fmt.Errorf("psd: MLE fit requires the block count, got %d", est.NBlocks)
	}
	m := &MLEFit{nBlocks: est.NBlocks}
	hasStd := len(est.Std) == len(est.Freq) && len(est.Std) > 0
	for i, f := range est.Freq {
		if f < cfg.MinF || f > cfg.MaxF {
			continue
		}
		m.freq = append(m.freq, f)
		m.power = append(m.power, est.Power[i])
		if hasStd {
			m.std = append(m.std, est.Std[i])
		}
	}
	if len(m.freq) == 0 {
		return nil, fmt.Errorf("%w: empty fit window [%v, %v]", ErrInsufficientData, cfg.MinF, cfg.MaxF)
	}
	return m, nil
}

// moments returns the S coefficients of the estimator for the given power
// values over the fit's frequencies.
func (m *MLEFit) moments(p []float64) (s01, s02, s11, s12, s22 float64) {
	n := float64(len(m.freq))
	for i, f := range m.freq {
		f2 := f * f
		s01 += p[i]
		s02 += p[i] * p[i]
		s11 += f2 * p[i]
		s12 += f2 * p[i] * p[i]
		s22 += f2 * f2 * p[i] * p[i]
	}
	return s01 / n, s02 / n, s11 / n, s12 / n, s22 / n
}

// Fit computes D and fc in closed form. A degenerate moment system
// (a*b <= 0) yields the defined, non-physical corner frequency 0 with a
// logged warning rather than an error.
func (m *MLEFit) Fit() (SpectrumResult, error) {
	n := float64(m.nBlocks)

	s01, s02, s11, s12, s22 := m.moments(m.power)
	det := s02*s22 - s12*s12
	pref := (1 + 1/n) / det
	a := pref * (s01*s22 - s11*s12)
	b := pref * (s11*s02 - s01*s12)

	var fc float64
	if a*b > 0 {
		fc = math.Sqrt(a / b)
	} else {
		monitoring.Warnf("psd: degenerate MLE moment system (a=%v b=%v), corner frequency set to 0", a, b)
		fc = 0
	}
	d := n * math.Pi * math.Pi / ((n + 1) * b)

	res := SpectrumResult{
		DiffusionCoefficient: d,
		CornerFrequency:      fc,
		DiodeF3dB:            math.NaN(),
		DiodeA:               math.NaN(),
		DiodeF3dBErr:         math.NaN(),
		DiodeAErr:            math.NaN(),
		Chi2:                 math.NaN(),
	}

	yFit := make([]float64, len(m.freq))
	for i, f := range m.freq {
		yFit[i] = physics.Lorentzian(f, d, fc)
	}
	res.DiffusionCoefficientErr, res.CornerFrequencyErr = m.errors(d, fc, a, b, yFit)

	yMean := stat.Mean(m.power, nil)
	var ssRes, ssTot, resSum float64
	for i, p := range m.power {
		ssRes += (p - yFit[i]) * (p - yFit[i])
		ssTot += (p - yMean) * (p - yMean)
		resSum += (p - yFit[i]) / yFit[i]
	}
	res.R2 = 1 - ssRes/ssTot
	res.MeanResidual = resSum / float64(len(m.power))

	if len(m.std) > 0 {
		var chi2 float64
		for i, p := range m.power {
			dv := p - yFit[i]
			chi2 += dv * dv / (m.std[i] * m.std[i])
		}
		if dof := len(m.freq) - 2; dof > 0 {
			res.Chi2 = chi2 / float64(dof)
		}
	}
	return res, nil
}

// errors propagates the moment covariance to sigma(D) and sigma(fc). The
// moments are recomputed from the fitted curve to build the 2x2 information
// matrix; this is a linearised approximation, not a refit.
func (m *MLEFit) errors(d, fc, a, b float64, yFit []float64) (sigmaD, sigmaFc float64) {
	n := float64(m.nBlocks)
	nFreq := float64(len(m.freq))

	_, s02, _, s12, s22 := m.moments(yFit)
	sB := mat.NewDense(2, 2, []float64{
		(n + 1) / n * s02, (n + 1) / n * s12,
		(n + 1) / n * s12, (n + 1) / n * s22,
	})
	var inv mat.Dense
	if err := inv.Inverse(sB); err != nil {
		monitoring.Warnf("psd: singular MLE information matrix: %v", err)
		return math.NaN(), math.NaN()
	}
	scale := 1 / (nFreq * n) * (n + 3) / n
	e00 := scale * inv.At(0, 0)
	e01 := scale * inv.At(0, 1)
	e11 := scale * inv.At(1, 1)

	varFc := fc * fc / 4 * (e00/(a*a) + e11/(b*b) - 2*e01/(a*b))
	varD := d * d * e11 / (b * b)
	return math.Sqrt(varD), math.Sqrt(varFc)
}
