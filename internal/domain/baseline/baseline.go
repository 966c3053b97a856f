// Package baseline computes an athlete's personal baseline for a metric and
// the smallest worthwhile change (SWC) derived from it.
//
// A chronologically ordered series is split in two: the leading share of
// samples forms the baseline window, the remainder the current window.
package baseline

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/forceplate/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Default calculator parameters.
const (
	DefaultSplitRatio    = 0.6
	DefaultSWCMultiplier = 0.2
	DefaultMinSamples    = 3

	// splitEpsilon absorbs float error in n*ratio so 5*0.6 splits at 3.
	splitEpsilon = 1e-9
)

// Aggregation selects how the current value is derived from the current window.
type Aggregation string

// Supported aggregations.
const (
	// Latest uses the most recent sample.
	Latest Aggregation = "latest"
	// WindowMean averages every sample of the current window.
	WindowMean Aggregation = "window_mean"
)

// ParseAggregation validates an aggregation name.
func ParseAggregation(s string) (Aggregation, error) {
	switch Aggregation(s) {
	case Latest, WindowMean:
		return Aggregation(s), nil
	}
	return "", fmt.Errorf("%w: aggregation %q", ErrInvalidParams, s)
}

// Baseline summarises the baseline window.
type Baseline struct {
	Mean    float64 `json:"mean"`
	SD      float64 `json:"sd"`
	SWC     float64 `json:"swc"`
	Samples int     `json:"samples"`
}

// Current summarises the current window.
type Current struct {
	Value   float64   `json:"value"`
	Date    time.Time `json:"date"` // date of the most recent sample
	Samples int       `json:"samples"`
}

// Calculator computes baselines with fixed parameters. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	splitRatio    float64
	swcMultiplier float64
	minSamples    int
	aggregation   Aggregation
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithSplitRatio sets the share of samples used as baseline. Values
// outside (0, 1) are ignored.
func WithSplitRatio(r float64) Option {
	return func(c *Calculator) {
		if r > 0 && r < 1 {
			c.splitRatio = r
		}
	}
}

// WithSWCMultiplier sets SWC = multiplier × SD. Non-positive values are ignored.
func WithSWCMultiplier(m float64) Option {
	return func(c *Calculator) {
		if m > 0 {
			c.swcMultiplier = m
		}
	}
}

// WithMinSamples sets the minimum baseline sample count. Values below 2
// are ignored because a standard deviation needs two samples.
func WithMinSamples(n int) Option {
	return func(c *Calculator) {
		if n >= 2 {
			c.minSamples = n
		}
	}
}

// WithAggregation sets how the current value is derived.
func WithAggregation(a Aggregation) Option {
	return func(c *Calculator) {
		if a == Latest || a == WindowMean {
			c.aggregation = a
		}
	}
}

// NewCalculator creates a calculator with defaults overridden by opts.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		splitRatio:    DefaultSplitRatio,
		swcMultiplier: DefaultSWCMultiplier,
		minSamples:    DefaultMinSamples,
		aggregation:   Latest,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SplitRatio returns the configured baseline share.
func (c *Calculator) SplitRatio() float64 { return c.splitRatio }

// SWCMultiplier returns the configured multiplier.
func (c *Calculator) SWCMultiplier() float64 { return c.swcMultiplier }

// MinSamples returns the configured minimum baseline size.
func (c *Calculator) MinSamples() int { return c.minSamples }

// Aggregation returns the configured current-value aggregation.
func (c *Calculator) Aggregation() Aggregation { return c.aggregation }

// SplitIndex returns how many of n samples form the baseline window.
func (c *Calculator) SplitIndex(n int) int {
	return int(math.Floor(float64(n)*c.splitRatio + splitEpsilon))
}

// Compute derives the baseline and current value from a chronologically
// ordered series. It returns ErrInsufficientData when the baseline window
// is smaller than the minimum or the current window is empty, and
// ErrZeroVariance when the baseline has no spread. With ErrZeroVariance the
// baseline mean, sample count and current value are still filled in and
// the SWC is zero.
func (c *Calculator) Compute(series []model.Sample) (Baseline, Current, error) {
	n := len(series)
	split := c.SplitIndex(n)
	if split < c.minSamples || n-split < 1 {
		return Baseline{}, Current{}, fmt.Errorf("%w: %d samples, %d in baseline, need %d",
			ErrInsufficientData, n, split, c.minSamples)
	}

	base := values(series[:split])
	mean, sd := stat.MeanStdDev(base, nil)
	cur := c.current(series[split:])
	if sd == 0 || math.IsNaN(sd) {
		return Baseline{Mean: mean, Samples: split}, cur,
			fmt.Errorf("%w: %d identical samples", ErrZeroVariance, split)
	}

	return Baseline{
		Mean:    mean,
		SD:      sd,
		SWC:     c.swcMultiplier * sd,
		Samples: split,
	}, cur, nil
}

func (c *Calculator) current(window []model.Sample) Current {
	cur := Current{
		Date:    window[len(window)-1].Date,
		Samples: len(window),
	}
	switch c.aggregation {
	case WindowMean:
		cur.Value = stat.Mean(values(window), nil)
	default:
		cur.Value = window[len(window)-1].Value
	}
	return cur
}

func values(samples []model.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}
