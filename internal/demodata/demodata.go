// Package demodata generates synthetic ForceDecks-style exports and a
// roster. Output is fully determined by the seed.
package demodata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/forceplate/internal/domain/prepare"
	"github.com/okian/forceplate/internal/domain/rules"
)

// Defaults for Generate.
const (
	DefaultAthletes     = 24
	DefaultTests        = 16
	DefaultIntervalDays = 7
	DefaultDeclineShare = 0.4
	DefaultSeed         = 42
)

// Config controls the synthetic team.
type Config struct {
	Athletes     int
	Tests        int
	IntervalDays int
	// DeclineShare is the fraction of athletes given a progressive decline.
	DeclineShare float64
	Seed         uint64
	// End is the date of the last test session. Zero means 2025-09-01.
	End time.Time
	// QualityIssues adds a duplicate, an undated row and a bad cell.
	QualityIssues bool
}

// DefaultConfig returns a team of 24 tested weekly for 16 weeks.
func DefaultConfig() Config {
	return Config{
		Athletes:     DefaultAthletes,
		Tests:        DefaultTests,
		IntervalDays: DefaultIntervalDays,
		DeclineShare: DefaultDeclineShare,
		Seed:         DefaultSeed,
	}
}

// Export is one generated data set.
type Export struct {
	CMJ    *prepare.Table
	IMTP   *prepare.Table
	Roster *prepare.Table
	// Declines lists the categories each declining athlete was given.
	Declines map[string][]string
}

// Column headers as exported by ForceDecks.
var (
	CMJHeader = []string{
		"Name", "Date", "Time", "Peak Power [W]", "RSI-modified [m/s]", "Contraction Time [ms]",
		"Eccentric Mean Braking Force [N]", "Eccentric Braking RFD [N/s]",
		"Jump Height (Imp-Mom) in Inches [in]", "Tags",
	}
	IMTPHeader = []string{
		"Name", "Date", "Time", "Peak Vertical Force [N]", "Net Peak Vertical Force [N]",
		"Force at 50ms [N]", "Force at 100ms [N]", "Force at 200ms [N]",
		"Peak Vertical Force % (Asym) (%)", "Start Time to Peak Force [s]", "Tags",
	}
	RosterHeader = []string{"Name", "Position", "Sport", "Number"}
)

var (
	firstNames = []string{
		"James", "Michael", "Robert", "David", "William", "Richard", "Joseph", "Thomas",
		"Charles", "Daniel", "Matthew", "Anthony", "Mark", "Steven", "Paul", "Andrew",
		"Joshua", "Kevin", "Brian", "George", "Timothy", "Ryan", "Jacob", "Nicholas",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Taylor", "Moore",
		"Jackson", "Martin", "Lee", "Perez", "Thompson", "White", "Harris", "Clark", "Walker",
	}
)

// profile is the position-level mean of the main outputs.
type profile struct {
	position string
	force    float64 // IMTP peak force, N
	power    float64 // CMJ peak power, W
}

var positions = []profile{
	{"WR", 2600, 4800}, {"RB", 3200, 5200}, {"TE", 3400, 5000}, {"QB", 2800, 4500},
	{"OL", 3800, 5500}, {"DL", 3600, 5300}, {"LB", 3300, 5100}, {"DB", 2700, 4700},
}

// declineTargets are the categories a synthetic decline can hit.
var declineTargets = []string{
	rules.MaximalStrength, rules.ExplosiveStrengthRFD, rules.PowerOutput,
	rules.SSCEfficiency, rules.EccentricControl, rules.SystemicFatigue,
}

// Generate builds the exports described by cfg.
func Generate(cfg Config) (*Export, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	out := &Export{
		CMJ:      &prepare.Table{Source: "cmj.csv", Header: CMJHeader},
		IMTP:     &prepare.Table{Source: "imtp.csv", Header: IMTPHeader},
		Roster:   &prepare.Table{Source: "roster.csv", Header: RosterHeader},
		Declines: make(map[string][]string),
	}

	numbers := rng.Perm(99)
	first := cfg.End.AddDate(0, 0, -cfg.IntervalDays*(cfg.Tests-1))
	for i := 0; i < cfg.Athletes; i++ {
		p := positions[i%len(positions)]
		name := fmt.Sprintf("%s %s", firstNames[i%len(firstNames)], lastNames[(i*7)%len(lastNames)])
		out.Roster.Rows = append(out.Roster.Rows, []string{name, p.position, "Football", fmt.Sprint(numbers[i] + 1)})

		a := newAthlete(rng, p)
		if rng.Float64() < cfg.DeclineShare {
			a.pickDeclines(rng)
			out.Declines[name] = a.declines
		}
		for t := 0; t < cfg.Tests; t++ {
			date := first.AddDate(0, 0, t*cfg.IntervalDays).Format("2006-01-02")
			progress := float64(t) / float64(cfg.Tests-1)
			out.CMJ.Rows = append(out.CMJ.Rows, a.cmjRow(rng, name, date, progress))
			out.IMTP.Rows = append(out.IMTP.Rows, a.imtpRow(rng, name, date, progress))
		}
	}

	if cfg.QualityIssues && len(out.CMJ.Rows) > 0 {
		dup := append([]string(nil), out.CMJ.Rows[0]...)
		dup[2] = "16:45:00"
		out.CMJ.Rows = append(out.CMJ.Rows, dup)

		undated := append([]string(nil), out.IMTP.Rows[0]...)
		undated[1] = "TBD"
		out.IMTP.Rows = append(out.IMTP.Rows, undated)

		out.CMJ.Rows[len(out.CMJ.Rows)/2][3] = "#DIV/0!"
	}
	return out, nil
}

func (c *Config) normalize() error {
	d := DefaultConfig()
	if c.Athletes == 0 {
		c.Athletes = d.Athletes
	}
	if c.Tests == 0 {
		c.Tests = d.Tests
	}
	if c.IntervalDays == 0 {
		c.IntervalDays = d.IntervalDays
	}
	if c.End.IsZero() {
		c.End = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	}
	switch {
	case c.Athletes < 1 || c.Athletes > 99:
		return fmt.Errorf("%w: athletes must be 1..99, got %d", ErrInvalidConfig, c.Athletes)
	case c.Tests < 2:
		return fmt.Errorf("%w: need at least 2 tests, got %d", ErrInvalidConfig, c.Tests)
	case c.IntervalDays < 1:
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidConfig, c.IntervalDays)
	case c.DeclineShare < 0 || c.DeclineShare > 1:
		return fmt.Errorf("%w: decline share must be 0..1, got %g", ErrInvalidConfig, c.DeclineShare)
	}
	return nil
}

// athlete holds one synthetic athlete's true levels and decline plan.
type athlete struct {
	p        profile
	rsi      float64
	brake    float64
	rfd      float64
	asym     float64
	side     string
	declines []string
	drop     float64 // fractional decline reached at the last test
}

func newAthlete(rng *rand.Rand, p profile) *athlete {
	side := "L"
	if rng.IntN(2) == 1 {
		side = "R"
	}
	scale := 1 + rng.NormFloat64()*0.05
	p.force *= scale
	p.power *= scale
	return &athlete{
		p:     p,
		rsi:   0.55 + rng.NormFloat64()*0.05,
		brake: 2400 * scale,
		rfd:   6000 * scale,
		asym:  math.Abs(4 + rng.NormFloat64()*2),
		side:  side,
	}
}

func (a *athlete) pickDeclines(rng *rand.Rand) {
	n := 1
	if rng.Float64() < 0.3 {
		n = 2
	}
	for _, i := range rng.Perm(len(declineTargets))[:n] {
		a.declines = append(a.declines, declineTargets[i])
	}
	switch rng.IntN(3) {
	case 0:
		a.drop = 0.25
	case 1:
		a.drop = 0.15
	default:
		a.drop = 0.08
	}
}

// factor is the multiplier for metrics feeding category at progress.
// Declines start after the first half of the series.
func (a *athlete) factor(category string, progress float64) float64 {
	for _, c := range a.declines {
		if c == category || (c == rules.SystemicFatigue && (category == rules.PowerOutput || category == rules.SSCEfficiency)) {
			if progress <= 0.5 {
				return 1
			}
			return 1 - a.drop*(progress-0.5)*2
		}
	}
	return 1
}

func noisy(rng *rand.Rand, mean, cv float64) float64 {
	return mean * (1 + rng.NormFloat64()*cv)
}

func (a *athlete) cmjRow(rng *rand.Rand, name, date string, progress float64) []string {
	power := noisy(rng, a.p.power, 0.04) * a.factor(rules.PowerOutput, progress)
	rsi := noisy(rng, a.rsi, 0.06) * a.factor(rules.SSCEfficiency, progress)
	brake := noisy(rng, a.brake, 0.05) * a.factor(rules.EccentricControl, progress)
	rfd := noisy(rng, a.rfd, 0.06) * a.factor(rules.EccentricControl, progress)
	contraction := noisy(rng, 720, 0.05)
	heightIn := noisy(rng, 15+power/1000, 0.04)
	return []string{
		name, date, "09:30:00",
		fmt.Sprintf("%.0f", power),
		fmt.Sprintf("%.3f", rsi),
		fmt.Sprintf("%.0f", contraction),
		fmt.Sprintf("%.0f", brake),
		fmt.Sprintf("%.0f", rfd),
		fmt.Sprintf("%.2f", heightIn),
		"",
	}
}

func (a *athlete) imtpRow(rng *rand.Rand, name, date string, progress float64) []string {
	maxF := a.factor(rules.MaximalStrength, progress)
	rfdF := a.factor(rules.ExplosiveStrengthRFD, progress)
	peak := noisy(rng, a.p.force, 0.04) * maxF
	asym := math.Abs(a.asym + rng.NormFloat64()*1.5)
	return []string{
		name, date, "10:15:00",
		fmt.Sprintf("%.0f", peak),
		fmt.Sprintf("%.0f", peak*0.72),
		fmt.Sprintf("%.0f", noisy(rng, a.p.force*0.30, 0.06)*rfdF),
		fmt.Sprintf("%.0f", noisy(rng, a.p.force*0.50, 0.05)*rfdF),
		fmt.Sprintf("%.0f", noisy(rng, a.p.force*0.75, 0.05)*rfdF),
		fmt.Sprintf("%.1f %s", asym, a.side),
		fmt.Sprintf("%.3f", noisy(rng, 0.30, 0.08)),
		"",
	}
}
