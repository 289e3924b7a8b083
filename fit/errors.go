package fit

import "errors"

var (
	// ErrMissingStd is returned when a weighted fit or a chi-squared
	// computation is requested without usable per-point standard deviations.
	ErrMissingStd = errors.New("fit: no standard deviation data given")

	// ErrNoData is returned when the x/y arrays are empty.
	ErrNoData = errors.New("fit: no data points")

	// ErrSizeMismatch is returned when the x, y and std arrays disagree in
	// length.
	ErrSizeMismatch = errors.New("fit: x, y and std lengths differ")

	// ErrMissingSeed is returned when a nonlinear fit is created without
	// initial coefficients.
	ErrMissingSeed = errors.New("fit: seed coefficients required")
)

// hasStd reports whether std carries usable weighting information: non-nil
// and not all zero.
func hasStd(std []float64) bool {
	if std == nil {
		return false
	}
	for _, s := range std {
		if s != 0 {
			return true
		}
	}
	return false
}
