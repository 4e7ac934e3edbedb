package main

import (
	"fmt"
	"os"

	"github.com/canonry/canonry/internal/cli"
	presgraph "github.com/canonry/canonry/internal/presentation/graph"
	"github.com/canonry/canonry/internal/presentation/report"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <fandom>",
	Short: "Audit the plot block dependency graph",
	Long: `Audits the fandom's dependency graph for cycles and prints the topological
order. With --from and --to it tests a proposed edge without storing it.
Exits non-zero when the graph (or the probe) has a cycle.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		var proposed *domain.Edge
		if from != "" || to != "" {
			if from == "" || to == "" {
				fmt.Println("A proposed edge requires both --from and --to.")
				os.Exit(1)
			}
			proposed = &domain.Edge{From: from, To: to}
		}

		engine, _, err := engineFromFlags(cmd)
		if err != nil {
			fmt.Printf("Graph audit failed: %v\n", err)
			os.Exit(1)
		}

		audit, err := engine.ValidateConditionGraph(cmd.Context(), args[0], proposed)
		if err != nil {
			fmt.Printf("Graph audit failed: %v\n", err)
			os.Exit(1)
		}

		switch {
		case jsonOut:
			_ = cli.PrintJSON(os.Stdout, audit)
		case mermaid:
			fmt.Print(presgraph.GenerateMermaid(audit))
		default:
			cli.RenderMarkdown(os.Stdout, report.GraphMarkdown(audit))
		}

		if audit.HasCircularDependencies {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("from", "", "Source block ID of a proposed dependency edge")
	graphCmd.Flags().String("to", "", "Target block ID of a proposed dependency edge")
	graphCmd.Flags().Bool("mermaid", false, "Print a Mermaid diagram instead of the report")
	graphCmd.Flags().Bool("json", false, "Print the raw audit as JSON")
}
