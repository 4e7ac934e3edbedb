package runner

import (
	"log/slog"

	"github.com/canonry/canonry"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEngine sets the engine jobs are validated against. Required.
func WithEngine(engine *canonry.Engine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithWorkers caps how many validations run at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}
