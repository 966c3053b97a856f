// Package config defines process configuration and its loading.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a YAML file and environment variables on top of New.
// - Validation failures wrap ErrInvalidConfig and are fatal at startup.
package config

import (
	"time"
)

// DateLayout is the format of start_date and end_date.
const DateLayout = "2006-01-02"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// MaxUploadMB caps the multipart body of POST /reports.
	MaxUploadMB int `koanf:"max_upload_mb" validate:"gte=1,lte=1024"`

	// ReportHistory bounds the number of reports kept in server mode.
	ReportHistory int `koanf:"report_history" validate:"gte=1"`

	// ReportWorkers is the number of concurrent report runs in server mode.
	ReportWorkers int `koanf:"report_workers" validate:"gte=1,lte=64"`

	// QueueSize bounds report jobs waiting for a worker; beyond it uploads
	// are refused with 503.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// TeamName is printed in the report header.
	TeamName string `koanf:"team_name"`

	// TrainingPhase and NextPhase label the report header and footer.
	// Empty values are left out of the report.
	TrainingPhase string `koanf:"training_phase"`
	NextPhase     string `koanf:"next_phase"`

	// MetricsEnabled toggles Prometheus collection.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// Analysis holds every parameter of the classification run.
	Analysis Analysis `koanf:"analysis"`
}

// Analysis configures preparation, baselines and classification.
type Analysis struct {
	BaselineSplitRatio        float64           `koanf:"baseline_split_ratio" validate:"gt=0,lt=1"`
	SWCMultiplier             float64           `koanf:"swc_multiplier" validate:"gt=0"`
	SeverityThresholds        Thresholds        `koanf:"severity_thresholds"`
	MonthsToInclude           int               `koanf:"months_to_include" validate:"gte=0"`
	StartDate                 string            `koanf:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate                   string            `koanf:"end_date" validate:"omitempty,datetime=2006-01-02"`
	MinTestsPerAthlete        int               `koanf:"min_tests_per_athlete" validate:"gte=1"`
	MinBaselineSamples        int               `koanf:"min_baseline_samples" validate:"gte=2"`
	MinMetricFraction         float64           `koanf:"min_metric_fraction" validate:"gt=0,lte=1"`
	CurrentAggregation        string            `koanf:"current_aggregation" validate:"oneof=latest window_mean"`
	ClusterDropPercent        float64           `koanf:"cluster_drop_percent" validate:"gt=0,lt=100"`
	AsymmetryThresholdPercent float64           `koanf:"asymmetry_threshold_percent" validate:"gt=0,lte=100"`
	RequireRosterMatch        bool              `koanf:"require_roster_match"`
	ReevalDays                map[string]int    `koanf:"reeval_days" validate:"dive,gt=0"`
	ColumnAliases             map[string]string `koanf:"column_aliases" validate:"dive,required"`
}

// Thresholds are the deviation-unit boundaries of the severity tiers.
type Thresholds struct {
	Critical float64 `koanf:"critical" validate:"gt=0"`
	Warning  float64 `koanf:"warning" validate:"gt=0"`
	Caution  float64 `koanf:"caution" validate:"gt=0"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		MaxUploadMB:    32,
		ReportHistory:  50,
		ReportWorkers:  2,
		QueueSize:      16,
		TeamName:       "Team",
		MetricsEnabled: true,
		Analysis: Analysis{
			BaselineSplitRatio: 0.6,
			SWCMultiplier:      0.2,
			SeverityThresholds: Thresholds{
				Critical: 2.0,
				Warning:  1.5,
				Caution:  1.0,
			},
			MonthsToInclude:           6,
			MinTestsPerAthlete:        5,
			MinBaselineSamples:        3,
			MinMetricFraction:         0.5,
			CurrentAggregation:        "latest",
			ClusterDropPercent:        10,
			AsymmetryThresholdPercent: 10,
		},
	}
}

// Start returns the parsed start date, or the zero time when unset.
func (a Analysis) Start() time.Time { return parseDay(a.StartDate) }

// End returns the parsed end date, or the zero time when unset.
func (a Analysis) End() time.Time { return parseDay(a.EndDate) }

func parseDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
