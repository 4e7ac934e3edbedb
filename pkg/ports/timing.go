package ports

import "time"

// TimingSink receives per-stage durations from the validation pipeline.
// Implementations must be safe for concurrent use; stages report in parallel.
type TimingSink interface {
	// ObserveStage records that the named pipeline stage took d.
	ObserveStage(stage string, d time.Duration)
}

// TimingSinkFunc adapts a plain function to the TimingSink interface.
type TimingSinkFunc func(stage string, d time.Duration)

// ObserveStage implements TimingSink.
func (f TimingSinkFunc) ObserveStage(stage string, d time.Duration) { f(stage, d) }
