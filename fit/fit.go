// Package fit provides curve fitting for calibration data: a generic
// nonlinear weighted least squares fit, a rescaled-basis polynomial fit and a
// Gaussian convenience fit, all sharing the same goodness-of-fit statistics.
//
// Fits degrade rather than fail on solver trouble: non-convergence yields
// NaN coefficients and a logged warning, so callers must check for NaN
// before trusting results.
package fit

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Func is a model function evaluated at a single x with coefficients coef.
type Func func(x float64, coef []float64) float64

// Fit holds the data and derived statistics shared by all fit flavours.
// Concrete fits embed it and install their solver; coefficients are computed
// on first use.
type Fit struct {
	x, y, std []float64
	eval      Func
	solve     func() (coef, coefErr []float64)

	once    sync.Once
	coef    []float64
	coefErr []float64
}

func (f *Fit) run() {
	f.once.Do(func() {
		f.coef, f.coefErr = f.solve()
	})
}

// Coef returns the fitted coefficients. The slice is a copy.
func (f *Fit) Coef() []float64 {
	f.run()
	return append([]float64(nil), f.coef...)
}

// CoefErr returns the one-standard-deviation errors of the coefficients.
// The slice is a copy.
func (f *Fit) CoefErr() []float64 {
	f.run()
	return append([]float64(nil), f.coefErr...)
}

// Eval evaluates the fitted curve at x.
func (f *Fit) Eval(x float64) float64 {
	f.run()
	return f.eval(x, f.coef)
}

// YFit returns the fitted curve evaluated at the data's x values.
func (f *Fit) YFit() []float64 {
	f.run()
	yFit := make([]float64, len(f.x))
	for i, xv := range f.x {
		yFit[i] = f.eval(xv, f.coef)
	}
	return yFit
}

// RSquared returns the coefficient of determination R^2 = 1 - SSres/SStot,
// computed in linear (not log) space.
func (f *Fit) RSquared() float64 {
	yFit := f.YFit()
	yMean := stat.Mean(f.y, nil)
	var ssRes, ssTot float64
	for i, yv := range f.y {
		ssRes += (yv - yFit[i]) * (yv - yFit[i])
		ssTot += (yv - yMean) * (yv - yMean)
	}
	return 1 - ssRes/ssTot
}

// Residuals returns the relative residuals (y - yFit) / yFit and their mean.
func (f *Fit) Residuals() ([]float64, float64) {
	yFit := f.YFit()
	res := make([]float64, len(f.y))
	var sum float64
	for i, yv := range f.y {
		res[i] = (yv - yFit[i]) / yFit[i]
		sum += res[i]
	}
	return res, sum / float64(len(res))
}

// ChiSquared returns the reduced chi-squared of the fit,
// sum((y-yFit)^2 / std^2) / (N - P). It returns ErrMissingStd when no usable
// standard deviations were given.
func (f *Fit) ChiSquared() (float64, error) {
	if !hasStd(f.std) {
		return 0, ErrMissingStd
	}
	yFit := f.YFit()
	var chi2 float64
	for i, yv := range f.y {
		d := yv - yFit[i]
		chi2 += d * d / (f.std[i] * f.std[i])
	}
	dof := float64(len(f.x) - len(f.coef))
	if dof <= 0 {
		return math.NaN(), nil
	}
	return chi2 / dof, nil
}

// X returns the fit's x data. The slice is a copy.
func (f *Fit) X() []float64 { return append([]float64(nil), f.x...) }

// Y returns the fit's y data. The slice is a copy.
func (f *Fit) Y() []float64 { return append([]float64(nil), f.y...) }

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
