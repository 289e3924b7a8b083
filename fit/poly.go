package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/DollSimon/tweezers-sub000/internal/monitoring"
)

// Poly is a weighted polynomial least squares fit over the domain
// [min(x), max(x)]. The coefficients live in an internal basis rescaled to
// [-1, 1] for conditioning; use Eval, YFit or Linspace to evaluate the
// polynomial, never the raw coefficients.
type Poly struct {
	Fit
	order      int
	xmin, xmax float64
}

// NewPoly prepares a polynomial fit of the given order. When std is
// provided, points are weighted with 1/std.
func NewPoly(x, y []float64, order int, std []float64) (*Poly, error) {
	if len(x) == 0 {
		return nil, ErrNoData
	}
	if len(x) != len(y) || (std != nil && len(std) != len(x)) {
		return nil, ErrSizeMismatch
	}

	xmin, xmax := x[0], x[0]
	for _, xv := range x {
		xmin = math.Min(xmin, xv)
		xmax = math.Max(xmax, xv)
	}

	p := &Poly{order: order, xmin: xmin, xmax: xmax}
	p.Fit = Fit{x: x, y: y, std: std}
	p.Fit.eval = p.evalScaled
	p.Fit.solve = p.lstsq
	return p, nil
}

// scale maps x into the internal [-1, 1] basis.
func (p *Poly) scale(x float64) float64 {
	if p.xmax == p.xmin {
		return 0
	}
	return (2*x - (p.xmax + p.xmin)) / (p.xmax - p.xmin)
}

func (p *Poly) evalScaled(x float64, coef []float64) float64 {
	u := p.scale(x)
	// Horner in the scaled variable.
	v := 0.0
	for k := len(coef) - 1; k >= 0; k-- {
		v = v*u + coef[k]
	}
	return v
}

func (p *Poly) lstsq() ([]float64, []float64) {
	nPts := len(p.x)
	nPar := p.order + 1

	a := mat.NewDense(nPts, nPar, nil)
	b := mat.NewVecDense(nPts, nil)
	for i, xv := range p.x {
		w := 1.0
		if p.std != nil && p.std[i] != 0 {
			w = 1 / p.std[i]
		}
		u := p.scale(xv)
		pow := 1.0
		for k := 0; k < nPar; k++ {
			a.Set(i, k, w*pow)
			pow *= u
		}
		b.SetVec(i, w*p.y[i])
	}

	var coefVec mat.VecDense
	if err := coefVec.SolveVec(a, b); err != nil {
		monitoring.Warnf("fit: polynomial fit failed: %v", err)
		return nanSlice(nPar), nanSlice(nPar)
	}
	coef := make([]float64, nPar)
	for k := range coef {
		coef[k] = coefVec.AtVec(k)
	}
	// No error estimate for polynomial coefficients; they are internal to
	// the rescaled basis anyway.
	return coef, nanSlice(nPar)
}

// Linspace returns n points of the fitted polynomial evenly spaced across
// the fit domain.
func (p *Poly) Linspace(n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	step := (p.xmax - p.xmin) / float64(n-1)
	for i := range xs {
		xs[i] = p.xmin + float64(i)*step
		ys[i] = p.Eval(xs[i])
	}
	return xs, ys
}
