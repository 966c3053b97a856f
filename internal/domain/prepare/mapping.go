package prepare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/forceplate/internal/domain/metric"
)

// Value kinds decide how a cell is parsed.
const (
	KindNumber    = "number"
	KindAsymmetry = "asymmetry" // "6.6 L", "12 R" or a bare number; stored as |value|
)

// Column maps one vendor column to a canonical metric.
type Column struct {
	Metric metric.ID
	Scale  float64 // multiplier applied after parsing
	Kind   string
}

// Mapping is keyed by the trimmed vendor header.
type Mapping map[string]Column

// Units conversions for vendor exports.
const (
	inchesToMetres = 0.0254
	secondsToMs    = 1000
)

// DefaultMapping returns the ForceDecks export headers plus every
// canonical metric id as an identity column.
func DefaultMapping() Mapping {
	m := Mapping{
		"Peak Power [W]":                       {Metric: metric.CMJPeakPower, Scale: 1, Kind: KindNumber},
		"RSI-modified [m/s]":                   {Metric: metric.CMJRSIModified, Scale: 1, Kind: KindNumber},
		"Contraction Time [ms]":                {Metric: metric.CMJContractionTime, Scale: 1, Kind: KindNumber},
		"Eccentric Mean Braking Force [N]":     {Metric: metric.CMJEccentricMeanBrakingForce, Scale: 1, Kind: KindNumber},
		"Eccentric Braking RFD [N/s]":          {Metric: metric.CMJEccentricBrakingRFD, Scale: 1, Kind: KindNumber},
		"Jump Height (Imp-Mom) in Inches [in]": {Metric: metric.CMJJumpHeight, Scale: inchesToMetres, Kind: KindNumber},
		"Jump Height (Imp-Mom) [cm]":           {Metric: metric.CMJJumpHeight, Scale: 0.01, Kind: KindNumber},
		"Peak Vertical Force [N]":              {Metric: metric.IMTPPeakForce, Scale: 1, Kind: KindNumber},
		"Net Peak Vertical Force [N]":          {Metric: metric.IMTPNetPeakForce, Scale: 1, Kind: KindNumber},
		"Force at 50ms [N]":                    {Metric: metric.IMTPForce50ms, Scale: 1, Kind: KindNumber},
		"Force at 100ms [N]":                   {Metric: metric.IMTPForce100ms, Scale: 1, Kind: KindNumber},
		"Force at 200ms [N]":                   {Metric: metric.IMTPForce200ms, Scale: 1, Kind: KindNumber},
		"Peak Vertical Force % (Asym) (%)":     {Metric: metric.IMTPAsymmetry, Scale: 1, Kind: KindAsymmetry},
		"Start Time to Peak Force [s]":         {Metric: metric.IMTPTimeToPeakForce, Scale: secondsToMs, Kind: KindNumber},
	}
	for _, d := range metric.Catalog() {
		kind := KindNumber
		if d.ID == metric.IMTPAsymmetry {
			kind = KindAsymmetry
		}
		m[string(d.ID)] = Column{Metric: d.ID, Scale: 1, Kind: kind}
	}
	return m
}

// WithAliases returns a copy of m with extra vendor columns mapped to
// canonical metrics without scaling.
func (m Mapping) WithAliases(aliases map[string]string) (Mapping, error) {
	out := make(Mapping, len(m)+len(aliases))
	for k, v := range m {
		out[k] = v
	}
	headers := make([]string, 0, len(aliases))
	for h := range aliases {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	for _, h := range headers {
		id, err := metric.Parse(aliases[h])
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %w", ErrInvalidMapping, h, err)
		}
		key := strings.TrimSpace(h)
		if key == "" {
			return nil, fmt.Errorf("%w: empty column name for %s", ErrInvalidMapping, id)
		}
		kind := KindNumber
		if id == metric.IMTPAsymmetry {
			kind = KindAsymmetry
		}
		out[key] = Column{Metric: id, Scale: 1, Kind: kind}
	}
	return out, nil
}

// Identity column candidates, matched case-insensitively.
var (
	nameHeaders     = []string{"name", "athlete", "athlete name", "athlete_name"}
	dateHeaders     = []string{"date", "test date", "test_date"}
	positionHeaders = []string{"position", "pos"}
	sportHeaders    = []string{"sport", "team"}
	numberHeaders   = []string{"number", "jersey", "jersey number", "#"}
)

// findColumn returns the index of the first header equal to a candidate, or -1.
func findColumn(header []string, candidates []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, c := range candidates {
			if h == c {
				return i
			}
		}
	}
	return -1
}
