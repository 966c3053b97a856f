package rules

import (
	"fmt"

	"github.com/okian/forceplate/internal/domain/metric"
)

// Default category ids.
const (
	MaximalStrength       = "maximal_strength"
	ExplosiveStrengthRFD  = "explosive_strength_rfd"
	PowerOutput           = "power_output"
	SSCEfficiency         = "ssc_efficiency"
	EccentricControl      = "eccentric_control"
	TechnicalCoordination = "technical_coordination"
	Asymmetry             = "asymmetry"
	FatigueStrategyShift  = "fatigue_strategy_shift"
	SystemicFatigue       = "systemic_fatigue"
)

// Default thresholds for the non-SWC rules.
const (
	DefaultAsymmetryThreshold = 10.0
	DefaultClusterDropPercent = 10.0
)

func asymmetryTrend(threshold float64) string {
	return fmt.Sprintf("L-R Force Asymmetry > %g%%", threshold)
}

func systemicTrend(drop float64) string {
	return fmt.Sprintf("RSI-modified and Peak Power both down more than %g%%", drop)
}

func down(id metric.ID) Condition { return Condition{Metric: id, Direction: metric.Decrease} }
func up(id metric.ID) Condition   { return Condition{Metric: id, Direction: metric.Increase} }

// DefaultCategories returns the standard nine-category decision grid.
func DefaultCategories() []Category {
	return []Category{
		{
			ID:               MaximalStrength,
			Name:             "Maximal Strength Capacity",
			TrendDescription: "IMTP Peak Force and Net Peak Vertical Force declining",
			Kind:             Standard,
			Conditions:       []Condition{down(metric.IMTPPeakForce), down(metric.IMTPNetPeakForce)},
			WeightRoom: []string{
				"Heavy isometrics with 3-5 second holds",
				"Cluster sets (≥80% 1RM) - 3 reps, 20s rest, repeat 3×",
				"Wave loading (vary intensity within session)",
				"Extend rest periods to 4-5 minutes between sets",
			},
			Field: []string{
				"Resisted sprints (50-60% vdec)",
				"Heavy sled pushes",
				"Focus on max force production over speed",
			},
			Interpretation: "Maximal strength capacity declining. Consider making cluster sets and extended rest a phase emphasis for these athletes.",
			ExecutionNote:  "Still do your planned exercises (trap bar, safety bar, whatever), but execute them with longer rest, cluster structure, or add isometric holds.",
			ReevalDays:     9,
			Priority:       4,
		},
		{
			ID:               ExplosiveStrengthRFD,
			Name:             "Explosive Strength / RFD",
			TrendDescription: "Early-phase RFD (50-200ms) declining",
			Kind:             Standard,
			Conditions: []Condition{
				down(metric.IMTPForce50ms), down(metric.IMTPForce100ms), down(metric.IMTPForce200ms),
			},
			WeightRoom: []string{
				"Contrast/complex training (heavy → explosive superset)",
				"Olympic lift variations (60-70% 1RM)",
				"Accommodating resistance with explosive intent",
				"Example: Trap bar (heavy) → Box jumps (explosive)",
			},
			Field: []string{
				"Resisted sprints (10-30% vdec)",
				"Contrast sprints (resisted → unresisted)",
			},
			Interpretation: "Rate of force development declining. Consider contrast training emphasis in next phase for these athletes.",
			ExecutionNote:  "If you planned trap bar deadlifts, pair them with vertical jumps in a superset. Still the same movements, just executed as contrasts.",
			ReevalDays:     7,
			Priority:       5,
		},
		{
			ID:               PowerOutput,
			Name:             "Power Output",
			TrendDescription: "Peak Power declining",
			Kind:             Standard,
			Conditions:       []Condition{down(metric.CMJPeakPower)},
			WeightRoom: []string{
				"Contrast/complex training",
				"Cluster sets (70-80% 1RM)",
				"Olympic lift variations",
				"Ballistic movements emphasis",
			},
			Field: []string{
				"Contrast/complex training",
				"Resisted sprints (30-50% vdec)",
			},
			Interpretation: "Power output declining. Focus on moving submaximal loads with maximal intent.",
			ExecutionNote:  "Focus on moving submaximal loads with maximal intent. Use cluster sets for Olympic lifts.",
			ReevalDays:     7,
			Priority:       6,
		},
		{
			ID:               SSCEfficiency,
			Name:             "SSC Efficiency",
			TrendDescription: "RSI-modified and Eccentric Braking RFD declining",
			Kind:             Standard,
			Conditions:       []Condition{down(metric.CMJRSIModified), down(metric.CMJEccentricBrakingRFD)},
			WeightRoom: []string{
				"Reactive/ballistic techniques",
				"Drop jumps, altitude landings",
				"Reactive medicine ball work",
			},
			Field: []string{
				"Plyometric training (pogos, bounds, hurdle hops)",
				"Reactive agility drills",
			},
			Interpretation: "Stretch-shortening cycle efficiency compromised. Emphasize quick ground contacts and reactive training.",
			ExecutionNote:  `Emphasize quick ground contacts. Think "hot ground" mentality rather than max height.`,
			ReevalDays:     5,
			Priority:       7,
		},
		{
			ID:               EccentricControl,
			Name:             "Eccentric Control & Braking",
			TrendDescription: "Eccentric braking force declining",
			Kind:             Standard,
			Conditions:       []Condition{down(metric.CMJEccentricMeanBrakingForce)},
			WeightRoom: []string{
				"Tempo eccentrics (5-second down on squats/RDLs)",
				"Accentuated eccentric overload (105-120% 1RM)",
				"Reverse band work (overload eccentric phase)",
				"Example: Safety bar squat with 5-count down",
			},
			Field: []string{
				"Change of direction drills",
				"Deceleration-focused agility work",
			},
			Interpretation: "Eccentric strength declining - potential injury risk concern. Prioritize eccentric strength development.",
			ExecutionNote:  "If doing safety bar squats, add a 5-count down. Or use reverse bands.",
			ReevalDays:     12,
			Priority:       1,
		},
		{
			ID:               TechnicalCoordination,
			Name:             "Technical / Coordination",
			TrendDescription: "Contraction Time and Time to Peak Force increasing",
			Kind:             Standard,
			Conditions:       []Condition{up(metric.CMJContractionTime), up(metric.IMTPTimeToPeakForce)},
			WeightRoom: []string{
				"Wave loading (vary intensity within session)",
				"Cluster sets",
				"Rhythmic tempo work (consistent cadence)",
				"Motor control focus",
			},
			Field: []string{
				"Movement skill retraining",
				"Motor control drills",
				"Technical sprint work (not conditioning)",
			},
			Interpretation: "Movement efficiency declining. Reduce intensity and focus on movement quality.",
			ExecutionNote:  "Think movement quality over load. Use wave loading to get quality reps at different intensities.",
			ReevalDays:     6,
			Priority:       8,
		},
		{
			ID:               Asymmetry,
			Name:             "Asymmetry / Limb Imbalance",
			TrendDescription: asymmetryTrend(DefaultAsymmetryThreshold),
			Kind:             Absolute,
			Conditions:       []Condition{up(metric.IMTPAsymmetry)},
			Threshold:        DefaultAsymmetryThreshold,
			WeightRoom: []string{
				"Single-leg/unilateral strength work",
				"Split-stance patterns (split squats, SL RDLs)",
				"Unilateral jumps and landings",
				"Offset loading",
			},
			Field: []string{
				"Unilateral jumps",
				"Single-leg bounds",
				"Asymmetrical agility work",
			},
			Interpretation: "Limb imbalances detected. Address through unilateral training to reduce injury risk.",
			ExecutionNote:  "If squats are programmed, replace with split squats. Address the imbalance through exercise selection.",
			ReevalDays:     9,
			Priority:       2,
		},
		{
			ID:               FatigueStrategyShift,
			Name:             "Fatigue / Strategy Shift",
			TrendDescription: "Contraction Time increasing while Jump Height declines",
			Kind:             Cluster,
			Conditions:       []Condition{up(metric.CMJContractionTime), down(metric.CMJJumpHeight)},
			WeightRoom: []string{
				"Reduce tonnage 10-20%",
				"Increase rest between sets",
			},
			Field: []string{
				"Active recovery",
			},
			Interpretation: "Fatigue-driven protective motor strategy.",
			ExecutionNote:  "Keep the planned exercises but cut volume until the jump strategy normalises.",
			ReevalDays:     4,
			Priority:       9,
		},
		{
			ID:               SystemicFatigue,
			Name:             "Systemic Fatigue",
			TrendDescription: systemicTrend(DefaultClusterDropPercent),
			Kind:             Cluster,
			Conditions:       []Condition{down(metric.CMJRSIModified), down(metric.CMJPeakPower)},
			DropPercent:      DefaultClusterDropPercent,
			WeightRoom: []string{
				"Deload block (-20% load)",
				"Active recovery",
			},
			Field: []string{
				"Restoration micro-cycle",
			},
			Interpretation: "Global CNS / metabolic fatigue.",
			ExecutionNote:  "Treat this as the priority over single-metric flags until the athlete is re-tested.",
			ReevalDays:     12,
			Priority:       3,
		},
	}
}

// Default returns the default table. It panics only if the built-in
// categories are malformed.
func Default() *Table {
	t, err := NewTable(DefaultCategories())
	if err != nil {
		panic(err)
	}
	return t
}
