// Package rules holds the ordered table of performance categories the
// engine classifies athletes into. Tables are immutable once built;
// overrides produce a new table.
package rules

import (
	"fmt"
	"sort"

	"github.com/okian/forceplate/internal/domain/metric"
)

// Kind selects how a category's conditions are evaluated.
type Kind string

// Category kinds.
const (
	// Standard requires every condition metric to deviate adversely past
	// the caution threshold.
	Standard Kind = "standard"
	// Absolute compares the current value of a single metric against a
	// fixed threshold; exceeding it is critical.
	Absolute Kind = "absolute"
	// Cluster is a multi-metric pattern that overrides single-metric
	// categories for the same athlete.
	Cluster Kind = "cluster"
)

// Condition is one metric that must move in Direction.
type Condition struct {
	Metric    metric.ID        `json:"metric" yaml:"metric"`
	Direction metric.Direction `json:"direction" yaml:"direction"`
}

// Category is one row of the rule table.
type Category struct {
	ID               string      `json:"id" yaml:"id"`
	Name             string      `json:"name" yaml:"name"`
	TrendDescription string      `json:"trend_description" yaml:"trend_description"`
	Kind             Kind        `json:"kind" yaml:"kind"`
	Conditions       []Condition `json:"conditions" yaml:"conditions"`
	// Threshold is the absolute limit for Absolute categories.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// DropPercent, when set on a Cluster, replaces the SWC test with a
	// minimum percent change from baseline in each metric.
	DropPercent    float64  `json:"drop_percent,omitempty" yaml:"drop_percent,omitempty"`
	WeightRoom     []string `json:"weight_room" yaml:"weight_room"`
	Field          []string `json:"field" yaml:"field"`
	Interpretation string   `json:"interpretation" yaml:"interpretation"`
	ExecutionNote  string   `json:"execution_note" yaml:"execution_note"`
	ReevalDays     int      `json:"reeval_days" yaml:"reeval_days"`
	// Priority orders categories of equal tier for one athlete; lower first.
	Priority int `json:"priority" yaml:"priority"`
}

// IsCluster reports whether the category overrides single-metric ones.
func (c Category) IsCluster() bool { return c.Kind == Cluster }

// Metrics returns the condition metrics in order.
func (c Category) Metrics() []metric.ID {
	out := make([]metric.ID, len(c.Conditions))
	for i, cond := range c.Conditions {
		out[i] = cond.Metric
	}
	return out
}

func (c Category) clone() Category {
	c.Conditions = append([]Condition(nil), c.Conditions...)
	c.WeightRoom = append([]string(nil), c.WeightRoom...)
	c.Field = append([]string(nil), c.Field...)
	return c
}

func (c Category) validate() error {
	if c.ID == "" || c.Name == "" {
		return fmt.Errorf("%w: category needs id and name", ErrInvalidCategory)
	}
	if len(c.Conditions) == 0 {
		return fmt.Errorf("%w: %s has no conditions", ErrInvalidCategory, c.ID)
	}
	if c.ReevalDays <= 0 {
		return fmt.Errorf("%w: %s reeval_days must be positive", ErrInvalidCategory, c.ID)
	}
	seen := make(map[metric.ID]bool, len(c.Conditions))
	for _, cond := range c.Conditions {
		if _, ok := metric.Lookup(cond.Metric); !ok {
			return fmt.Errorf("%w: %s: %w", ErrInvalidCategory, c.ID, metric.ErrUnknownMetric)
		}
		if !cond.Direction.Valid() {
			return fmt.Errorf("%w: %s: direction %q", ErrInvalidCategory, c.ID, cond.Direction)
		}
		if seen[cond.Metric] {
			return fmt.Errorf("%w: %s repeats %s", ErrInvalidCategory, c.ID, cond.Metric)
		}
		seen[cond.Metric] = true
	}
	switch c.Kind {
	case Standard:
	case Absolute:
		if len(c.Conditions) != 1 || c.Threshold <= 0 {
			return fmt.Errorf("%w: %s absolute rule needs one metric and a positive threshold", ErrInvalidCategory, c.ID)
		}
	case Cluster:
		if len(c.Conditions) < 2 {
			return fmt.Errorf("%w: %s cluster needs at least two metrics", ErrInvalidCategory, c.ID)
		}
		if c.DropPercent < 0 {
			return fmt.Errorf("%w: %s drop_percent is negative", ErrInvalidCategory, c.ID)
		}
	default:
		return fmt.Errorf("%w: %s kind %q", ErrInvalidCategory, c.ID, c.Kind)
	}
	return nil
}

// Table is an ordered, immutable set of categories.
type Table struct {
	categories []Category
	index      map[string]int
}

// NewTable validates categories and builds a table in the given order.
func NewTable(categories []Category) (*Table, error) {
	t := &Table{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]int, len(categories)),
	}
	for _, c := range categories {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.index[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidCategory, c.ID)
		}
		t.index[c.ID] = len(t.categories)
		t.categories = append(t.categories, c.clone())
	}
	return t, nil
}

// Len returns the number of categories.
func (t *Table) Len() int { return len(t.categories) }

// At returns the category at position i.
func (t *Table) At(i int) Category { return t.categories[i].clone() }

// Categories returns copies of every category in table order.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = c.clone()
	}
	return out
}

// Lookup returns a category by id.
func (t *Table) Lookup(id string) (Category, bool) {
	i, ok := t.index[id]
	if !ok {
		return Category{}, false
	}
	return t.categories[i].clone(), true
}

// Position returns the table order of id, or -1.
func (t *Table) Position(id string) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	return -1
}

// IDs returns the category ids in table order.
func (t *Table) IDs() []string {
	out := make([]string, len(t.categories))
	for i, c := range t.categories {
		out[i] = c.ID
	}
	return out
}

// Metrics returns every metric referenced by the table, in catalog order.
func (t *Table) Metrics() []metric.ID {
	used := make(map[metric.ID]bool)
	for _, c := range t.categories {
		for _, cond := range c.Conditions {
			used[cond.Metric] = true
		}
	}
	var out []metric.ID
	for _, d := range metric.Catalog() {
		if used[d.ID] {
			out = append(out, d.ID)
		}
	}
	return out
}

// Overrides adjusts tunable fields of an existing table.
type Overrides struct {
	ReevalDays map[string]int
	// AsymmetryThreshold replaces the Threshold of every Absolute category.
	AsymmetryThreshold float64
	// ClusterDropPercent replaces DropPercent of percent-based clusters.
	ClusterDropPercent float64
}

// WithOverrides returns a new table with o applied. Unknown category ids
// yield ErrUnknownCategory.
func (t *Table) WithOverrides(o Overrides) (*Table, error) {
	cats := t.Categories()
	ids := make([]string, 0, len(o.ReevalDays))
	for id := range o.ReevalDays {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		i, ok := t.index[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
		}
		cats[i].ReevalDays = o.ReevalDays[id]
	}
	for i := range cats {
		if o.AsymmetryThreshold > 0 && cats[i].Kind == Absolute {
			cats[i].Threshold = o.AsymmetryThreshold
			if cats[i].ID == Asymmetry {
				cats[i].TrendDescription = asymmetryTrend(o.AsymmetryThreshold)
			}
		}
		if o.ClusterDropPercent > 0 && cats[i].Kind == Cluster && cats[i].DropPercent > 0 {
			cats[i].DropPercent = o.ClusterDropPercent
			if cats[i].ID == SystemicFatigue {
				cats[i].TrendDescription = systemicTrend(o.ClusterDropPercent)
			}
		}
	}
	return NewTable(cats)
}
