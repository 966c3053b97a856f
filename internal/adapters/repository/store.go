// Package repository keeps generated reports for server mode.
package repository

import (
	"context"
	"time"

	"github.com/okian/forceplate/internal/domain/types"
)

// Header labels a report with its team and place in the training cycle.
type Header struct {
	Team      string `json:"team"`
	Phase     string `json:"trainingPhase,omitempty"`
	NextPhase string `json:"nextPhase,omitempty"`
}

// Report is one stored classification run.
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Header
	Sources []string      `json:"sources"`
	Result  *types.Result `json:"result"`
}

// Summary is the listing view of a Report.
type Summary struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"createdAt"`
	Team              string    `json:"team"`
	Phase             string    `json:"trainingPhase,omitempty"`
	WindowStart       string    `json:"windowStart"`
	WindowEnd         string    `json:"windowEnd"`
	TotalAthletes     int       `json:"totalAthletes"`
	AthletesFlagged   int       `json:"athletesFlagged"`
	CategoriesFlagged int       `json:"categoriesFlagged"`
}

// Summarize builds the listing view of r.
func (r Report) Summarize() Summary {
	s := Summary{ID: r.ID, CreatedAt: r.CreatedAt, Team: r.Team, Phase: r.Phase}
	if r.Result != nil {
		s.WindowStart = r.Result.Window.Start
		s.WindowEnd = r.Result.Window.End
		s.TotalAthletes = r.Result.Summary.TotalAthletes
		s.AthletesFlagged = r.Result.Summary.AthletesFlagged
		s.CategoriesFlagged = r.Result.Summary.CategoriesFlagged
	}
	return s
}

// Store provides access to archived reports.
type Store interface {
	// Put stores a result and returns the stored report with its new id.
	Put(ctx context.Context, h Header, sources []string, res *types.Result) (Report, error)
	// Get returns the report with id, or ErrNotFound.
	Get(ctx context.Context, id string) (Report, error)
	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)
	// Count returns the number of stored reports.
	Count(ctx context.Context) int
}
