package driver

import (
	"log/slog"

	"github.com/aretw0/fathom/pkg/classify"
)

// Option defines a functional option for configuring the Driver.
type Option func(*Driver)

// WithMaxRounds bounds the number of clarification restarts. Values below 1
// are ignored.
func WithMaxRounds(n int) Option {
	return func(d *Driver) {
		if n >= 1 {
			d.maxRounds = n
		}
	}
}

// WithThreadPolicy selects the restart thread-id behavior.
func WithThreadPolicy(p ThreadPolicy) Option {
	return func(d *Driver) {
		d.policy = p
	}
}

// WithQuestionDetector replaces the clarification heuristic.
func WithQuestionDetector(detect classify.QuestionDetector) Option {
	return func(d *Driver) {
		if detect != nil {
			d.detect = detect
		}
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver registers an invocation observer (e.g. metrics).
func WithObserver(obs InvokeObserver) Option {
	return func(d *Driver) {
		d.observe = obs
	}
}
