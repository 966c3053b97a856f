// Package metric is the canonical catalog of force-plate metrics: their
// identifiers, units, plausible ranges and the direction of change that
// counts as a decline in performance.
package metric

import (
	"fmt"
	"math"
	"strings"
)

// TestType identifies the protocol a record came from.
type TestType string

// Supported test protocols.
const (
	CMJ  TestType = "CMJ"  // countermovement jump
	IMTP TestType = "IMTP" // isometric mid-thigh pull
)

// TestTypes lists the supported protocols in report order.
func TestTypes() []TestType { return []TestType{CMJ, IMTP} }

// ParseTestType accepts the protocol name in any case.
func ParseTestType(s string) (TestType, error) {
	switch TestType(strings.ToUpper(strings.TrimSpace(s))) {
	case CMJ:
		return CMJ, nil
	case IMTP:
		return IMTP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTestType, s)
}

// Direction is the direction of change relative to baseline.
type Direction string

// Directions.
const (
	Decrease Direction = "decrease"
	Increase Direction = "increase"
)

// Sign returns -1 for Decrease and +1 for Increase.
func (d Direction) Sign() float64 {
	if d == Decrease {
		return -1
	}
	return 1
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool { return d == Decrease || d == Increase }

// Arrow is a compact symbol used in trend descriptions.
func (d Direction) Arrow() string {
	if d == Decrease {
		return "↓"
	}
	return "↑"
}

// ID is a canonical metric identifier.
type ID string

// Canonical metric identifiers.
const (
	CMJPeakPower                 ID = "cmj_peak_power"
	CMJRSIModified               ID = "cmj_rsi_modified"
	CMJContractionTime           ID = "cmj_contraction_time"
	CMJEccentricMeanBrakingForce ID = "cmj_eccentric_mean_braking_force"
	CMJEccentricBrakingRFD       ID = "cmj_eccentric_braking_rfd"
	CMJJumpHeight                ID = "cmj_jump_height"
	IMTPPeakForce                ID = "imtp_peak_force"
	IMTPNetPeakForce             ID = "imtp_net_peak_force"
	IMTPForce50ms                ID = "imtp_force_50ms"
	IMTPForce100ms               ID = "imtp_force_100ms"
	IMTPForce200ms               ID = "imtp_force_200ms"
	IMTPTimeToPeakForce          ID = "imtp_time_to_peak_force"
	IMTPAsymmetry                ID = "imtp_asymmetry"
)

// Definition describes one canonical metric. Values outside [Min, Max]
// are treated as measurement errors.
type Definition struct {
	ID      ID        `json:"id" yaml:"id"`
	Test    TestType  `json:"test_type" yaml:"test_type"`
	Label   string    `json:"label" yaml:"label"`
	Unit    string    `json:"unit" yaml:"unit"`
	Adverse Direction `json:"adverse_direction" yaml:"adverse_direction"`
	Min     float64   `json:"min" yaml:"min"`
	Max     float64   `json:"max" yaml:"max"`
}

// InBounds reports whether v is finite and physiologically plausible.
func (d Definition) InBounds(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= d.Min && v <= d.Max
}

// IsAdverse reports whether a signed deviation points in the adverse
// direction. A zero deviation is never adverse.
func (d Definition) IsAdverse(deviation float64) bool {
	return deviation*d.Adverse.Sign() > 0
}

var catalog = []Definition{ //nolint:gochecknoglobals // read-only table, exposed through copies
	{CMJPeakPower, CMJ, "Peak Power", "W", Decrease, 500, 12000},
	{CMJRSIModified, CMJ, "RSI-modified", "m/s", Decrease, 0.05, 2.5},
	{CMJContractionTime, CMJ, "Contraction Time", "ms", Increase, 200, 2000},
	{CMJEccentricMeanBrakingForce, CMJ, "Eccentric Mean Braking Force", "N", Decrease, 50, 6000},
	{CMJEccentricBrakingRFD, CMJ, "Eccentric Braking RFD", "N/s", Decrease, 50, 60000},
	{CMJJumpHeight, CMJ, "Jump Height", "m", Decrease, 0.02, 1.5},
	{IMTPPeakForce, IMTP, "Peak Vertical Force", "N", Decrease, 300, 10000},
	{IMTPNetPeakForce, IMTP, "Net Peak Vertical Force", "N", Decrease, 50, 8000},
	{IMTPForce50ms, IMTP, "Force at 50ms", "N", Decrease, 0, 10000},
	{IMTPForce100ms, IMTP, "Force at 100ms", "N", Decrease, 0, 10000},
	{IMTPForce200ms, IMTP, "Force at 200ms", "N", Decrease, 0, 10000},
	{IMTPTimeToPeakForce, IMTP, "Time to Peak Force", "ms", Increase, 50, 10000},
	{IMTPAsymmetry, IMTP, "Peak Force Asymmetry", "%", Increase, 0, 100},
}

var byID = func() map[ID]Definition { //nolint:gochecknoglobals // index over catalog
	m := make(map[ID]Definition, len(catalog))
	for _, d := range catalog {
		m[d.ID] = d
	}
	return m
}()

// Catalog returns every definition in catalog order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition for id.
func Lookup(id ID) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// MustLookup is Lookup for identifiers known at compile time.
func MustLookup(id ID) Definition {
	d, ok := byID[id]
	if !ok {
		panic(fmt.Sprintf("metric: unknown id %q", id))
	}
	return d
}

// Parse validates a metric identifier.
func Parse(s string) (ID, error) {
	id := ID(strings.TrimSpace(s))
	if _, ok := byID[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return id, nil
}

// ForTest returns the definitions measured by test t, in catalog order.
func ForTest(t TestType) []Definition {
	var out []Definition
	for _, d := range catalog {
		if d.Test == t {
			out = append(out, d)
		}
	}
	return out
}
