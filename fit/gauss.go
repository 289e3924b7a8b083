package fit

import "math"

// GaussModel is the fixed Gaussian model amplitude*exp(-(x-mu)^2 / (2 sigma^2))
// with coefficients [amplitude, mu, sigma].
func GaussModel(x float64, coef []float64) float64 {
	d := x - coef[1]
	return coef[0] * math.Exp(-d*d/(2*coef[2]*coef[2]))
}

// Gauss is a convenience least squares fit of GaussModel, seeded from the
// data: peak value, peak position and a quarter of the x span.
type Gauss struct {
	*LeastSquares
}

// NewGauss prepares a Gaussian fit to (x, y).
func NewGauss(x, y, std []float64, weighted bool) (*Gauss, error) {
	if len(x) == 0 {
		return nil, ErrNoData
	}
	if len(x) != len(y) {
		return nil, ErrSizeMismatch
	}

	amp, mu := y[0], x[0]
	xmin, xmax := x[0], x[0]
	for i, yv := range y {
		if yv > amp {
			amp, mu = yv, x[i]
		}
		xmin = math.Min(xmin, x[i])
		xmax = math.Max(xmax, x[i])
	}
	sigma := (xmax - xmin) / 4
	if sigma == 0 {
		sigma = 1
	}

	ls, err := NewLeastSquares(x, y, GaussModel, std, Options{
		Weighted: weighted,
		Seed:     []float64{amp, mu, sigma},
	})
	if err != nil {
		return nil, err
	}
	return &Gauss{LeastSquares: ls}, nil
}

// Amplitude returns the fitted peak height.
func (g *Gauss) Amplitude() float64 { return g.Coef()[0] }

// Mean returns the fitted peak position.
func (g *Gauss) Mean() float64 { return g.Coef()[1] }

// Sigma returns the fitted standard deviation.
func (g *Gauss) Sigma() float64 { return g.Coef()[2] }
