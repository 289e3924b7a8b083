package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/DollSimon/tweezers-sub000/internal/monitoring"
)

// Options configures a LeastSquares fit.
type Options struct {
	// Weighted uses the per-point standard deviations as point-wise sigma.
	// The sigma values provide relative weighting only; they never rescale
	// the reported coefficient covariance.
	Weighted bool
	// Seed holds the initial coefficients. Its length fixes the number of
	// free parameters of the model.
	Seed []float64
	// MaxIter bounds the solver iterations, default 200.
	MaxIter int
}

// LeastSquares is a nonlinear weighted least squares fit using the
// Levenberg-Marquardt algorithm. Coefficient errors are the square roots of
// the diagonal of the scaled covariance matrix.
type LeastSquares struct {
	Fit
	opts Options
}

// NewLeastSquares prepares a least squares fit of model to (x, y). The fit
// itself runs on first access to the coefficients or any derived statistic.
func NewLeastSquares(x, y []float64, model Func, std []float64, opts Options) (*LeastSquares, error) {
	if len(x) == 0 {
		return nil, ErrNoData
	}
	if len(x) != len(y) || (std != nil && len(std) != len(x)) {
		return nil, ErrSizeMismatch
	}
	if len(opts.Seed) == 0 {
		return nil, ErrMissingSeed
	}
	if opts.Weighted && !hasStd(std) {
		return nil, ErrMissingStd
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 200
	}

	ls := &LeastSquares{opts: opts}
	ls.Fit = Fit{x: x, y: y, std: std, eval: model}
	ls.Fit.solve = ls.levmar
	return ls, nil
}

// weights returns the least squares weights 1/sigma^2 per point, or uniform
// weights for unweighted fits.
func (ls *LeastSquares) weights() []float64 {
	w := make([]float64, len(ls.x))
	for i := range w {
		w[i] = 1
		if ls.opts.Weighted && ls.std[i] != 0 {
			w[i] = 1 / (ls.std[i] * ls.std[i])
		}
	}
	return w
}

func (ls *LeastSquares) cost(coef, w []float64) float64 {
	var c float64
	for i, xv := range ls.x {
		r := ls.y[i] - ls.eval(xv, coef)
		c += w[i] * r * r
	}
	return c
}

// jacobian fills J with forward-difference partial derivatives of the model
// at the data points.
func (ls *LeastSquares) jacobian(j *mat.Dense, coef []float64) {
	p := append([]float64(nil), coef...)
	for k := range p {
		h := 1e-8 * math.Max(math.Abs(p[k]), 1)
		p[k] = coef[k] + h
		for i, xv := range ls.x {
			j.Set(i, k, (ls.eval(xv, p)-ls.eval(xv, coef))/h)
		}
		p[k] = coef[k]
	}
}

// levmar runs Levenberg-Marquardt. On failure it returns NaN coefficients
// and errors after logging a warning; it never panics or aborts the caller.
func (ls *LeastSquares) levmar() ([]float64, []float64) {
	nPts := len(ls.x)
	nPar := len(ls.opts.Seed)

	fail := func(reason string) ([]float64, []float64) {
		monitoring.Warnf("fit: least squares fit failed: %s", reason)
		return nanSlice(nPar), nanSlice(nPar)
	}

	w := ls.weights()
	coef := append([]float64(nil), ls.opts.Seed...)
	cost := ls.cost(coef, w)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return fail("model not finite at seed")
	}

	j := mat.NewDense(nPts, nPar, nil)
	jtj := mat.NewDense(nPar, nPar, nil)
	jtr := mat.NewVecDense(nPar, nil)
	lambda := 1e-3
	converged := cost == 0

	for iter := 0; iter < ls.opts.MaxIter && !converged; iter++ {
		ls.jacobian(j, coef)

		// Normal equations with weights: (J'WJ + lambda diag(J'WJ)) dp = J'Wr.
		for a := 0; a < nPar; a++ {
			var g float64
			for i, xv := range ls.x {
				g += w[i] * j.At(i, a) * (ls.y[i] - ls.eval(xv, coef))
			}
			jtr.SetVec(a, g)
			for b := a; b < nPar; b++ {
				var s float64
				for i := 0; i < nPts; i++ {
					s += w[i] * j.At(i, a) * j.At(i, b)
				}
				jtj.Set(a, b, s)
				jtj.Set(b, a, s)
			}
		}

		accepted := false
		for ; lambda < 1e12; lambda *= 10 {
			damped := mat.NewDense(nPar, nPar, nil)
			damped.Copy(jtj)
			for a := 0; a < nPar; a++ {
				damped.Set(a, a, jtj.At(a, a)*(1+lambda))
			}
			var dp mat.VecDense
			if err := dp.SolveVec(damped, jtr); err != nil {
				continue
			}
			trial := make([]float64, nPar)
			for a := range trial {
				trial[a] = coef[a] + dp.AtVec(a)
			}
			trialCost := ls.cost(trial, w)
			if math.IsNaN(trialCost) || trialCost >= cost {
				continue
			}
			rel := (cost - trialCost) / math.Max(cost, math.SmallestNonzeroFloat64)
			coef, cost = trial, trialCost
			lambda = math.Max(lambda/10, 1e-12)
			accepted = true
			if rel < 1e-12 || cost == 0 {
				converged = true
			}
			break
		}
		if !accepted {
			// No decrease possible in any damping regime: stationary point.
			converged = true
		}
	}

	if !converged {
		return fail("no convergence within iteration limit")
	}

	// Covariance: inv(J'WJ) scaled by the residual variance, so sigma only
	// ever provides relative weighting of the data points.
	ls.jacobian(j, coef)
	for a := 0; a < nPar; a++ {
		for b := a; b < nPar; b++ {
			var s float64
			for i := 0; i < nPts; i++ {
				s += w[i] * j.At(i, a) * j.At(i, b)
			}
			jtj.Set(a, b, s)
			jtj.Set(b, a, s)
		}
	}
	var cov mat.Dense
	if err := cov.Inverse(jtj); err != nil {
		monitoring.Warnf("fit: singular covariance matrix: %v", err)
		return coef, nanSlice(nPar)
	}
	scale := 0.0
	if dof := nPts - nPar; dof > 0 {
		scale = cost / float64(dof)
	}
	coefErr := make([]float64, nPar)
	for a := range coefErr {
		coefErr[a] = math.Sqrt(cov.At(a, a) * scale)
	}
	return coef, coefErr
}
