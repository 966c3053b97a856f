// Package render turns a classification result into a report document.
package render

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/okian/forceplate/internal/domain/types"
)

// Width is the text report line width.
const Width = 80

// Format is a report encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// ParseFormat accepts text or json, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case Text, "":
		return Text, nil
	case JSON:
		return JSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the HTTP media type of f.
func (f Format) ContentType() string {
	if f == JSON {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

// Meta is the report header data that is not part of the result.
type Meta struct {
	Team        string
	Phase       string
	NextPhase   string
	GeneratedAt time.Time
}

//go:embed report.txt.tmpl
var reportTemplate string

var textTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"rule":      func(ch string) string { return strings.Repeat(ch, Width) },
	"center":    center,
	"upper":     strings.ToUpper,
	"join":      func(s []string) string { return strings.Join(s, ", ") },
	"longDate":  func(t time.Time) string { return t.Format("January 02, 2006") },
	"window":    window,
	"athlete":   athlete,
	"finding":   finding,
	"unflagged": unflagged,
}).Parse(reportTemplate))

// Write renders res in format f.
func Write(w io.Writer, f Format, res *types.Result, meta Meta) error {
	if res == nil {
		return ErrNilResult
	}
	switch f {
	case JSON:
		return WriteJSON(w, res)
	default:
		return WriteText(w, res, meta)
	}
}

// WriteText renders the plain-text report.
func WriteText(w io.Writer, res *types.Result, meta Meta) error {
	if res == nil {
		return ErrNilResult
	}
	if meta.Team == "" {
		meta.Team = "Team"
	}
	data := struct {
		Meta
		Result *types.Result
	}{meta, res}
	if err := textTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// WriteJSON encodes res as indented JSON.
func WriteJSON(w io.Writer, res *types.Result) error {
	if res == nil {
		return ErrNilResult
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

func center(s string) string {
	pad := (Width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func window(w types.Window) string {
	switch {
	case w.Start == "" && w.End == "":
		return "no data"
	case w.Start == w.End:
		return w.Start
	}
	return w.Start + " to " + w.End
}

func athlete(e types.AthleteEntry) string {
	var details []string
	if e.Number != "" {
		details = append(details, "#"+e.Number)
	}
	if e.Position != "" {
		details = append(details, e.Position)
	}
	if len(details) == 0 {
		return e.Name
	}
	return fmt.Sprintf("%s (%s)", e.Name, strings.Join(details, ", "))
}

func finding(f types.Finding) string {
	if f.SWC == 0 {
		return fmt.Sprintf("%s: %s %s", f.Label, num(f.Current), f.Unit)
	}
	return fmt.Sprintf("%s: %s %s vs baseline %s (%+.1f SWC, %+.1f%%, %s)",
		f.Label, num(f.Current), f.Unit, num(f.BaselineMean), signedUnits(f), f.PercentChange, f.Tier)
}

// signedUnits gives deviation units the sign of the raw deviation.
func signedUnits(f types.Finding) float64 {
	if f.Deviation < 0 {
		return -f.DeviationUnits
	}
	return f.DeviationUnits
}

func num(v float64) string {
	switch {
	case v == 0:
		return "0"
	case v >= 100 || v <= -100:
		return fmt.Sprintf("%.0f", v)
	case v >= 10 || v <= -10:
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.3g", v)
}

func unflagged(cats []types.CategoryReport) []types.CategoryReport {
	var out []types.CategoryReport
	for _, c := range cats {
		if !c.Flagged() {
			out = append(out, c)
		}
	}
	return out
}
