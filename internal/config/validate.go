package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var configValidate = validator.New()

// Validate checks field ranges and the cross-field rules the tags cannot
// express. Every failure wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	a := c.Analysis
	t := a.SeverityThresholds
	if !(t.Critical > t.Warning && t.Warning > t.Caution) {
		return fmt.Errorf("%w: severity_thresholds need critical > warning > caution, got %g/%g/%g",
			ErrInvalidConfig, t.Critical, t.Warning, t.Caution)
	}
	start, end := a.Start(), a.End()
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("%w: start_date %s is after end_date %s", ErrInvalidConfig, a.StartDate, a.EndDate)
	}
	if _, err := a.Table(); err != nil {
		return fmt.Errorf("%w: reeval_days: %w", ErrInvalidConfig, err)
	}
	if _, err := a.Mapping(); err != nil {
		return fmt.Errorf("%w: column_aliases: %w", ErrInvalidConfig, err)
	}
	return nil
}
