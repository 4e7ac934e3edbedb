package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/canonry/canonry/internal/cli"
	"github.com/canonry/canonry/internal/presentation/report"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/spf13/cobra"
)

var conditionsCmd = &cobra.Command{
	Use:   "conditions <fandom> <block>",
	Short: "Evaluate a plot block's unlock conditions",
	Long: `Evaluates the block's condition tree against an evaluation context and
prints every leaf with its outcome. The context carries selected tags,
completed blocks and story metadata.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")

		var ectx domain.EvaluationContext
		if raw, _ := cmd.Flags().GetString("context"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &ectx); err != nil {
				fmt.Printf("Error parsing --context JSON: %v\n", err)
				os.Exit(1)
			}
		}

		engine, _, err := engineFromFlags(cmd)
		if err != nil {
			fmt.Printf("Evaluation failed: %v\n", err)
			os.Exit(1)
		}

		result, err := engine.EvaluateConditions(cmd.Context(), args[0], args[1], ectx)
		if err != nil {
			fmt.Printf("Evaluation failed: %v\n", err)
			os.Exit(1)
		}

		if jsonOut {
			_ = cli.PrintJSON(os.Stdout, result)
		} else {
			cli.RenderMarkdown(os.Stdout, report.ConditionsMarkdown(result))
		}
	},
}

func init() {
	rootCmd.AddCommand(conditionsCmd)

	conditionsCmd.Flags().String("context", "", "Evaluation context as a JSON object")
	conditionsCmd.Flags().Bool("json", false, "Print the raw report as JSON")
}
