package sim

import (
	"errors"
	"fmt"
)

var ErrInvalidSettings = errors.New("sim: invalid stepper control settings")

// Settings controls the step-doubling driver.
type Settings struct {
	Verbosity int `yaml:"verbosity"`
	// HInit is the initial step as a fraction of the run interval.
	HInit     float64 `yaml:"h_init"`
	MaxSteps  int     `yaml:"max_steps"`
	Tolerance float64 `yaml:"tolerance"`
	// Safety scales every step reduction.
	Safety float64 `yaml:"safety"`
	// MinStepsizeFactor and MaxStepsizeFactor bound the step as multiples of the initial step.
	MinStepsizeFactor float64 `yaml:"min_stepsize_factor"`
	MaxStepsizeFactor float64 `yaml:"max_stepsize_factor"`
}

func DefaultSettings() Settings {
	return Settings{
		Verbosity:         0,
		HInit:             0.1,
		MaxSteps:          100000,
		Tolerance:         1.0e-4,
		Safety:            0.9,
		MinStepsizeFactor: 0.001,
		MaxStepsizeFactor: 1000.0,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.HInit <= 0:
		return fmt.Errorf("%w: h_init must be positive, got %g", ErrInvalidSettings, s.HInit)
	case s.MaxSteps <= 0:
		return fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidSettings, s.MaxSteps)
	case s.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidSettings, s.Tolerance)
	case s.Safety <= 0 || s.Safety > 1:
		return fmt.Errorf("%w: safety must be in (0, 1], got %g", ErrInvalidSettings, s.Safety)
	case s.MinStepsizeFactor <= 0 || s.MinStepsizeFactor > 1:
		return fmt.Errorf("%w: min_stepsize_factor must be in (0, 1], got %g", ErrInvalidSettings, s.MinStepsizeFactor)
	case s.MaxStepsizeFactor < 1:
		return fmt.Errorf("%w: max_stepsize_factor must be at least 1, got %g", ErrInvalidSettings, s.MaxStepsizeFactor)
	}
	return nil
}
