package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/internal/cli"
	"github.com/canonry/canonry/internal/presentation/report"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/runner"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pathway-file]",
	Short: "Validate a pathway against its fandom catalog",
	Long: `Validates a tag and plot block combination. The pathway comes from a YAML
or JSON file, or from the --fandom/--tags/--blocks flags. Exits non-zero when
the pathway has blocking findings, so it slots into CI.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("file", "f", "", "Pathway file (YAML or JSON)")
	validateCmd.Flags().String("batch", "", "Batch file of labeled pathways to validate concurrently")
	validateCmd.Flags().Int("workers", 0, "Batch worker count (default: number of CPUs)")
	validateCmd.Flags().String("fandom", "", "Fandom ID (alternative to a pathway file)")
	validateCmd.Flags().StringSlice("tags", nil, "Tag IDs to validate")
	validateCmd.Flags().StringSlice("blocks", nil, "Plot block IDs to validate")
	validateCmd.Flags().String("context", "", "Evaluation context as a JSON object")
	validateCmd.Flags().Bool("json", false, "Print the raw report as JSON")
	validateCmd.Flags().BoolP("watch", "w", false, "Re-validate whenever the catalog changes")
}

func runValidate(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	watchMode, _ := cmd.Flags().GetBool("watch")
	batchPath, _ := cmd.Flags().GetString("batch")

	engine, logger, err := engineFromFlags(cmd)
	if err != nil {
		return err
	}

	if batchPath != "" {
		if watchMode {
			return fmt.Errorf("--batch and --watch cannot be used together")
		}
		workers, _ := cmd.Flags().GetInt("workers")
		return runBatch(cmd.Context(), engine, batchPath, workers, jsonOut, logger)
	}

	input, err := resolvePathwayInput(cmd, args)
	if err != nil {
		return err
	}

	render := func(r *domain.ValidationReport) {
		if jsonOut {
			_ = cli.PrintJSON(os.Stdout, r)
			return
		}
		cli.RenderMarkdown(os.Stdout, report.Markdown(r))
	}

	if watchMode {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.WatchValidate(sigCtx, engine, input, logger, render)
	}

	pw := input.Pathway
	result, err := engine.ValidatePathway(cmd.Context(), &pw, input.Context)
	if err != nil {
		return err
	}
	render(result)

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

// resolvePathwayInput picks the pathway source: a file path (positional or
// --file) wins over the flag-assembled form.
func resolvePathwayInput(cmd *cobra.Command, args []string) (*cli.PathwayInput, error) {
	path, _ := cmd.Flags().GetString("file")
	if path == "" && len(args) > 0 {
		path = args[0]
	}
	if path != "" {
		return cli.LoadPathwayInput(path)
	}

	fandom, _ := cmd.Flags().GetString("fandom")
	if fandom == "" {
		return nil, fmt.Errorf("either a pathway file or --fandom is required")
	}
	tags, _ := cmd.Flags().GetStringSlice("tags")
	blocks, _ := cmd.Flags().GetStringSlice("blocks")

	input := &cli.PathwayInput{
		Pathway: domain.Pathway{FandomID: fandom, TagIDs: tags, BlockIDs: blocks},
	}
	if raw, _ := cmd.Flags().GetString("context"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Context); err != nil {
			return nil, fmt.Errorf("error parsing --context JSON: %w", err)
		}
	}
	return input, nil
}

func runBatch(ctx context.Context, engine *canonry.Engine, path string, workers int, jsonOut bool, logger *slog.Logger) error {
	batch, err := cli.LoadBatchInput(path)
	if err != nil {
		return err
	}

	jobs := make([]runner.Job, len(batch.Jobs))
	for i, j := range batch.Jobs {
		label := j.Label
		if label == "" {
			label = fmt.Sprintf("job-%d", i+1)
		}
		jobs[i] = runner.Job{Label: label, Pathway: j.Pathway, Context: j.Context}
	}

	opts := []runner.Option{runner.WithEngine(engine), runner.WithLogger(logger)}
	if workers > 0 {
		opts = append(opts, runner.WithWorkers(workers))
	}
	r := runner.NewRunner(opts...)
	results, err := r.Run(ctx, jobs)
	if err != nil {
		return err
	}

	if jsonOut {
		_ = cli.PrintJSON(os.Stdout, results)
	} else {
		cli.RenderMarkdown(os.Stdout, report.BatchMarkdown(results))
	}

	if !results.Summary().AllValid() {
		os.Exit(1)
	}
	return nil
}
