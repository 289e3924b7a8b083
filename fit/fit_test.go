package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/DollSimon/tweezers-sub000/internal/monitoring"
	"github.com/DollSimon/tweezers-sub000/internal/testutil"
)

// expModel is a simple two-parameter nonlinear test model a*exp(b*x).
func expModel(x float64, c []float64) float64 {
	return c[0] * math.Exp(c[1]*x)
}

func linspace(lo, hi float64, n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return xs
}

func TestLeastSquares_RecoversNoiselessParameters(t *testing.T) {
	x := linspace(0, 2, 50)
	want := []float64{2.5, -1.3}
	y := make([]float64, len(x))
	for i, xv := range x {
		y[i] = expModel(xv, want)
	}

	ls, err := NewLeastSquares(x, y, expModel, nil, Options{Seed: []float64{1, -1}})
	testutil.AssertNoError(t, err)

	coef := ls.Coef()
	testutil.AssertRelClose(t, "a", coef[0], want[0], 1e-8)
	testutil.AssertRelClose(t, "b", coef[1], want[1], 1e-8)
	testutil.AssertClose(t, "R2", ls.RSquared(), 1, 1e-10)

	_, meanRes := ls.Residuals()
	testutil.AssertClose(t, "mean residual", meanRes, 0, 1e-8)
}

func TestLeastSquares_WeightedRequiresStd(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{1, 2, 3}

	_, err := NewLeastSquares(x, y, expModel, nil, Options{Weighted: true, Seed: []float64{1, 0}})
	if !errors.Is(err, ErrMissingStd) {
		t.Errorf("err = %v, want ErrMissingStd", err)
	}

	// All-zero std carries no weighting information either.
	_, err = NewLeastSquares(x, y, expModel, []float64{0, 0, 0}, Options{Weighted: true, Seed: []float64{1, 0}})
	if !errors.Is(err, ErrMissingStd) {
		t.Errorf("err = %v, want ErrMissingStd for all-zero std", err)
	}
}

func TestLeastSquares_WeightedDoesNotRescaleErrors(t *testing.T) {
	x := linspace(0, 2, 40)
	y := make([]float64, len(x))
	for i, xv := range x {
		y[i] = expModel(xv, []float64{2, -1}) * (1 + 0.01*math.Sin(7*xv))
	}
	std := make([]float64, len(x))
	for i := range std {
		std[i] = 0.05
	}

	fitScaled := func(scale float64) []float64 {
		s := make([]float64, len(std))
		for i := range s {
			s[i] = std[i] * scale
		}
		ls, err := NewLeastSquares(x, y, expModel, s, Options{Weighted: true, Seed: []float64{1, -1}})
		testutil.AssertNoError(t, err)
		return ls.CoefErr()
	}

	// Scaling all sigmas by a constant must not change the reported errors:
	// sigma provides relative weighting only.
	e1, e2 := fitScaled(1), fitScaled(100)
	testutil.AssertRelClose(t, "err a", e2[0], e1[0], 1e-6)
	testutil.AssertRelClose(t, "err b", e2[1], e1[1], 1e-6)
}

func TestLeastSquares_FailureDegradesToNaN(t *testing.T) {
	defer monitoring.SetLogger(monitoring.Logf)
	var warned bool
	monitoring.SetLogger(func(string, ...interface{}) { warned = true })

	// The model is not finite anywhere, so the solver cannot start.
	bad := func(x float64, c []float64) float64 { return math.NaN() }
	ls, err := NewLeastSquares([]float64{1, 2, 3}, []float64{1, 2, 3}, bad, nil, Options{Seed: []float64{1}})
	testutil.AssertNoError(t, err)

	testutil.AssertAllNaN(t, "coef", ls.Coef())
	testutil.AssertAllNaN(t, "coefErr", ls.CoefErr())
	if !warned {
		t.Error("expected a convergence warning")
	}
}

func TestLeastSquares_InputValidation(t *testing.T) {
	if _, err := NewLeastSquares(nil, nil, expModel, nil, Options{Seed: []float64{1, 1}}); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
	if _, err := NewLeastSquares([]float64{1}, []float64{1, 2}, expModel, nil, Options{Seed: []float64{1, 1}}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("err = %v, want ErrSizeMismatch", err)
	}
	if _, err := NewLeastSquares([]float64{1}, []float64{1}, expModel, nil, Options{}); !errors.Is(err, ErrMissingSeed) {
		t.Errorf("err = %v, want ErrMissingSeed", err)
	}
}

func TestChiSquared(t *testing.T) {
	x := linspace(0, 2, 20)
	want := []float64{2, -1}
	y := make([]float64, len(x))
	std := make([]float64, len(x))
	for i, xv := range x {
		y[i] = expModel(xv, want)
		std[i] = 0.1
	}

	t.Run("missing std", func(t *testing.T) {
		ls, err := NewLeastSquares(x, y, expModel, nil, Options{Seed: []float64{1, -1}})
		testutil.AssertNoError(t, err)
		if _, err := ls.ChiSquared(); !errors.Is(err, ErrMissingStd) {
			t.Errorf("err = %v, want ErrMissingStd", err)
		}
	})

	t.Run("noiseless data", func(t *testing.T) {
		ls, err := NewLeastSquares(x, y, expModel, std, Options{Weighted: true, Seed: []float64{1, -1}})
		testutil.AssertNoError(t, err)
		chi2, err := ls.ChiSquared()
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, "chi2", chi2, 0, 1e-12)
	})
}

func TestPoly(t *testing.T) {
	x := linspace(-3, 7, 30)
	poly := func(xv float64) float64 { return 1.5 - 2*xv + 0.25*xv*xv }
	y := make([]float64, len(x))
	for i, xv := range x {
		y[i] = poly(xv)
	}

	p, err := NewPoly(x, y, 2, nil)
	testutil.AssertNoError(t, err)

	// Coefficients live in the rescaled basis; only the evaluator is
	// meaningful.
	for _, xv := range []float64{-3, 0, 2.5, 7} {
		testutil.AssertClose(t, "Eval", p.Eval(xv), poly(xv), 1e-9)
	}
	testutil.AssertClose(t, "R2", p.RSquared(), 1, 1e-12)

	xs, ys := p.Linspace(11)
	if len(xs) != 11 || len(ys) != 11 {
		t.Fatalf("Linspace lengths = %d, %d, want 11", len(xs), len(ys))
	}
	if xs[0] != -3 || xs[10] != 7 {
		t.Errorf("Linspace domain = [%v, %v], want [-3, 7]", xs[0], xs[10])
	}
	testutil.AssertClose(t, "Linspace value", ys[5], poly(xs[5]), 1e-9)
}

func TestGauss(t *testing.T) {
	x := linspace(-5, 15, 200)
	want := []float64{3, 4.2, 1.7}
	y := make([]float64, len(x))
	for i, xv := range x {
		y[i] = GaussModel(xv, want)
	}

	g, err := NewGauss(x, y, nil, false)
	testutil.AssertNoError(t, err)
	testutil.AssertRelClose(t, "amplitude", g.Amplitude(), want[0], 1e-6)
	testutil.AssertRelClose(t, "mean", g.Mean(), want[1], 1e-6)
	testutil.AssertRelClose(t, "sigma", math.Abs(g.Sigma()), want[2], 1e-6)
}
