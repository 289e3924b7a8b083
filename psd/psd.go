// Package psd estimates power spectral densities from photodetector time
// series and extracts Lorentzian parameters from them, either by nonlinear
// least squares or by a closed-form maximum likelihood estimator.
//
// Two estimation strategies are exposed and are not interchangeable:
// Compute averages periodograms over time-domain blocks (Welch's method with
// a boxcar window), ComputeLogBinned computes one periodogram of the full
// series and merges adjacent frequency bins. The caller selects explicitly.
package psd

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData is returned when the series is shorter than the
	// block length or a fit window selects no data.
	ErrInsufficientData = errors.New("psd: insufficient data")

	// ErrInvalidOverlap is returned when the overlap is negative or not
	// smaller than the block length.
	ErrInvalidOverlap = errors.New("psd: overlap must be in [0, blockLength)")
)

// TimeSeries is an ordered sequence of detector samples for one trap axis.
// It is externally supplied and treated as immutable.
type TimeSeries struct {
	Samples      []float64
	SamplingFreq float64 // [Hz]
	Axis         string
}

// Estimate is a one-sided power spectral density with the 0 Hz bin removed.
// Freq, Power and Std always have equal lengths; Std is the sample standard
// deviation across blocks (NaN where only a single sample contributed).
type Estimate struct {
	Freq  []float64
	Power []float64
	Std   []float64

	BlockLength int
	NBlocks     int
	Overlap     int

	// Blocks holds the per-block PSDs when requested via Settings.KeepBlocks.
	Blocks [][]float64
}

// Settings configures Compute.
type Settings struct {
	// BlockLength is the number of samples per block.
	BlockLength int
	// Overlap is the number of samples consecutive blocks share. It takes
	// precedence over NBlocks.
	Overlap int
	// NBlocks, when set and Overlap is zero, derives the overlap such that
	// the series splits into this many blocks.
	NBlocks int
	// KeepBlocks retains the per-block PSDs on the Estimate.
	KeepBlocks bool
}

// Validate checks the settings for well-formedness.
func (s Settings) Validate() error {
	if s.BlockLength <= 0 {
		return fmt.Errorf("psd: block length must be positive, got %d", s.BlockLength)
	}
	if s.Overlap < 0 || s.Overlap >= s.BlockLength {
		return fmt.Errorf("%w: overlap %d, block length %d", ErrInvalidOverlap, s.Overlap, s.BlockLength)
	}
	if s.NBlocks < 0 {
		return fmt.Errorf("psd: block count must not be negative, got %d", s.NBlocks)
	}
	return nil
}

// Compute estimates the PSD by sliding fixed-length rectangular windows
// across the series with step blockLength-overlap, computing a one-sided
// periodogram per window and averaging bin-wise across windows.
func Compute(ts TimeSeries, s Settings) (*Estimate, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	n := len(ts.Samples)
	if n < s.BlockLength {
		return nil, fmt.Errorf("%w: series length %d < block length %d", ErrInsufficientData, n, s.BlockLength)
	}
	if ts.SamplingFreq <= 0 {
		return nil, fmt.Errorf("psd: sampling frequency must be positive, got %v", ts.SamplingFreq)
	}

	overlap := s.Overlap
	if overlap == 0 && s.NBlocks > 0 {
		overlap = s.BlockLength - n/s.NBlocks
		if overlap < 0 {
			overlap = 0
		}
		if overlap >= s.BlockLength {
			return nil, fmt.Errorf("%w: derived overlap %d from %d blocks", ErrInvalidOverlap, overlap, s.NBlocks)
		}
	}

	fft := fourier.NewFFT(s.BlockLength)
	step := s.BlockLength - overlap
	var blocks [][]float64
	for end := s.BlockLength; end <= n; end += step {
		p := periodogram(fft, ts.Samples[end-s.BlockLength:end], ts.SamplingFreq)
		blocks = append(blocks, p)
	}

	nBins := s.BlockLength / 2
	est := &Estimate{
		Freq:        make([]float64, nBins),
		Power:       make([]float64, nBins),
		Std:         make([]float64, nBins),
		BlockLength: s.BlockLength,
		NBlocks:     len(blocks),
		Overlap:     overlap,
	}
	if s.KeepBlocks {
		est.Blocks = blocks
	}

	col := make([]float64, len(blocks))
	for k := 0; k < nBins; k++ {
		est.Freq[k] = float64(k+1) * ts.SamplingFreq / float64(s.BlockLength)
		for b, blk := range blocks {
			col[b] = blk[k]
		}
		est.Power[k] = stat.Mean(col, nil)
		est.Std[k] = stat.StdDev(col, nil)
	}
	return est, nil
}

// ComputeLogBinned estimates the PSD from a single periodogram of the full
// series, merging adjacent frequency bins into nBlocks groups with log- or
// linear-spaced edges. Frequency and power are averaged per group; groups
// with a single contributing bin report NaN std, empty groups are skipped.
func ComputeLogBinned(ts TimeSeries, nBlocks int, logSpace bool) (*Estimate, error) {
	n := len(ts.Samples)
	if n < 2 {
		return nil, fmt.Errorf("%w: series length %d", ErrInsufficientData, n)
	}
	if nBlocks <= 0 {
		return nil, fmt.Errorf("psd: block count must be positive, got %d", nBlocks)
	}
	if ts.SamplingFreq <= 0 {
		return nil, fmt.Errorf("psd: sampling frequency must be positive, got %v", ts.SamplingFreq)
	}

	fft := fourier.NewFFT(n)
	power := periodogram(fft, ts.Samples, ts.SamplingFreq)
	freq := make([]float64, len(power))
	for k := range freq {
		freq[k] = float64(k+1) * ts.SamplingFreq / float64(n)
	}

	edges := make([]float64, nBlocks+1)
	if logSpace {
		floats.Span(edges, math.Log(freq[0]), math.Log(freq[len(freq)-1]))
		for i, e := range edges {
			edges[i] = math.Exp(e)
		}
	} else {
		floats.Span(edges, freq[0], freq[len(freq)-1])
	}

	est := &Estimate{BlockLength: n, Overlap: 0}
	for i := 0; i < nBlocks; i++ {
		var fs, ps []float64
		for k, f := range freq {
			if f >= edges[i] && f < edges[i+1] {
				fs = append(fs, f)
				ps = append(ps, power[k])
			}
		}
		if len(fs) == 0 {
			continue
		}
		est.Freq = append(est.Freq, stat.Mean(fs, nil))
		est.Power = append(est.Power, stat.Mean(ps, nil))
		if len(ps) == 1 {
			est.Std = append(est.Std, math.NaN())
		} else {
			est.Std = append(est.Std, stat.StdDev(ps, nil))
		}
	}
	est.NBlocks = len(est.Freq)
	return est, nil
}

// periodogram returns the one-sided, non-detrended boxcar periodogram of
// block with the DC bin dropped: len(block)/2 bins of power per Hz.
func periodogram(fft *fourier.FFT, block []float64, samplingFreq float64) []float64 {
	coeffs := fft.Coefficients(nil, block)
	n := len(block)
	scale := 1 / (samplingFreq * float64(n))
	p := make([]float64, n/2)
	for k := 1; k <= n/2; k++ {
		c := coeffs[k]
		v := (real(c)*real(c) + imag(c)*imag(c)) * scale
		if !(n%2 == 0 && k == n/2) {
			v *= 2 // one-sided spectrum, Nyquist bin not doubled
		}
		p[k-1] = v
	}
	return p
}
