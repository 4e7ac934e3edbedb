package cli

import (
	"log/slog"
	"time"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/pkg/domain"
)

// WatchValidate re-runs a pathway validation whenever the catalog changes.
// It blocks until the context is cancelled or the change feed closes. The
// render callback owns presentation, so watch mode works for markdown and
// JSON output alike.
func WatchValidate(ctx *SignalContext, engine *canonry.Engine, input *PathwayInput, logger *slog.Logger, render func(*domain.ValidationReport)) error {
	events, err := engine.Watch(ctx)
	if err != nil {
		return err
	}

	runOnce := func() {
		pw := input.Pathway
		report, err := engine.ValidatePathway(ctx, &pw, input.Context)
		if err != nil {
			// Broken catalogs stay on screen until the author fixes the
			// file and the watcher fires again.
			logger.Error("Validation failed", "err", err)
			PrintSystemMessage("Validation failed: %v", err)
			return
		}
		render(report)
	}

	runOnce()
	PrintSystemMessage("Waiting for changes...")

	for {
		select {
		case <-ctx.Done():
			if sig := ctx.Signal(); sig != nil {
				PrintSystemMessage("Stopped (%v).", sig)
			}
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			// Let the file system settle before reloading.
			time.Sleep(100 * time.Millisecond)
			PrintSystemMessage("Change detected.")
			runOnce()
			PrintSystemMessage("Waiting for changes...")
		}
	}
}
