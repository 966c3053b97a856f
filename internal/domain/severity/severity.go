// Package severity grades a metric's deviation from its personal
// baseline into ordered tiers.
package severity

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/forceplate/internal/domain/baseline"
	"github.com/okian/forceplate/internal/domain/metric"
)

// Tier is an ordered severity grade. Higher values are more severe.
type Tier int

// Tiers from least to most severe.
const (
	Normal Tier = iota
	Caution
	Warning
	Critical
)

var tierNames = [...]string{"normal", "caution", "warning", "critical"} //nolint:gochecknoglobals // lookup

// Tiers returns the flagged tiers from most to least severe.
func Tiers() []Tier { return []Tier{Critical, Warning, Caution} }

// String implements fmt.Stringer.
func (t Tier) String() string {
	if t < Normal || t > Critical {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// Title is the capitalised tier name used in reports.
func (t Tier) Title() string {
	s := t.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Flagged reports whether t is above Normal.
func (t Tier) Flagged() bool { return t > Normal }

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	if t < Normal || t > Critical {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name in any case.
func (t *Tier) UnmarshalText(b []byte) error {
	p, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = p
	return nil
}

// ParseTier parses a tier name.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range tierNames {
		if n == s {
			return Tier(i), nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Max returns the more severe of a and b.
func Max(a, b Tier) Tier {
	if a > b {
		return a
	}
	return b
}

// Thresholds are the deviation-unit boundaries for each tier. A deviation
// must strictly exceed a boundary to reach its tier.
type Thresholds struct {
	Critical float64 `json:"critical" yaml:"critical"`
	Warning  float64 `json:"warning" yaml:"warning"`
	Caution  float64 `json:"caution" yaml:"caution"`
}

// DefaultThresholds returns 2.0 / 1.5 / 1.0.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 2.0, Warning: 1.5, Caution: 1.0}
}

// Validate requires critical > warning > caution > 0.
func (t Thresholds) Validate() error {
	if !(t.Caution > 0 && t.Warning > t.Caution && t.Critical > t.Warning) {
		return fmt.Errorf("%w: need critical > warning > caution > 0, got %g/%g/%g",
			ErrInvalidThresholds, t.Critical, t.Warning, t.Caution)
	}
	return nil
}

// Classify maps a non-negative deviation magnitude to its tier.
func (t Thresholds) Classify(units float64) Tier {
	switch {
	case units > t.Critical:
		return Critical
	case units > t.Warning:
		return Warning
	case units > t.Caution:
		return Caution
	default:
		return Normal
	}
}

// Assessment is the graded deviation of one athlete metric.
type Assessment struct {
	Metric         metric.ID        `json:"metric"`
	Direction      metric.Direction `json:"direction"`
	Current        float64          `json:"current"`
	CurrentDate    time.Time        `json:"current_date"`
	BaselineMean   float64          `json:"baseline_mean"`
	BaselineSD     float64          `json:"baseline_sd"`
	BaselineN      int              `json:"baseline_samples"`
	SWC            float64          `json:"swc"`
	Deviation      float64          `json:"deviation"`
	DeviationUnits float64          `json:"deviation_units"`
	PercentChange  float64          `json:"percent_change"`
	Adverse        bool             `json:"adverse"`
	Tier           Tier             `json:"tier"`
}

// Classifier grades deviations against fixed thresholds.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier validates thresholds and returns a classifier.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: t}, nil
}

// Thresholds returns the configured boundaries.
func (c *Classifier) Thresholds() Thresholds { return c.thresholds }

// Assess grades the current value against the baseline, treating change
// in adverse as the only direction that can be flagged. Percent change is
// zero when the baseline mean is zero. A baseline without a positive SWC
// has no deviation units and stays Normal.
func (c *Classifier) Assess(id metric.ID, adverse metric.Direction, b baseline.Baseline, cur baseline.Current) Assessment {
	dev := cur.Value - b.Mean
	a := Assessment{
		Metric:       id,
		Direction:    adverse,
		Current:      cur.Value,
		CurrentDate:  cur.Date,
		BaselineMean: b.Mean,
		BaselineSD:   b.SD,
		BaselineN:    b.Samples,
		SWC:          b.SWC,
		Deviation:    dev,
		Adverse:      dev*adverse.Sign() > 0,
	}
	if b.Mean != 0 {
		a.PercentChange = dev / b.Mean * 100
	}
	if b.SWC <= 0 {
		return a
	}
	a.DeviationUnits = math.Abs(dev) / b.SWC
	if a.Adverse {
		a.Tier = c.thresholds.Classify(a.DeviationUnits)
	}
	return a
}
