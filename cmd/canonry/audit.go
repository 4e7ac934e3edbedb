package main

import (
	"fmt"
	"os"

	"github.com/canonry/canonry/internal/cli"
	"github.com/canonry/canonry/internal/presentation/report"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <fandom>",
	Short: "Audit a whole fandom catalog for structural defects",
	Long: `Runs the full validation pipeline over every entity in the catalog:
unknown references, duplicate IDs, dangling parents, dependency cycles and
rule contradictions. Exits non-zero when the catalog has blocking findings.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")

		engine, _, err := engineFromFlags(cmd)
		if err != nil {
			fmt.Printf("Audit failed: %v\n", err)
			os.Exit(1)
		}

		result, err := engine.AuditFandom(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Audit failed: %v\n", err)
			os.Exit(1)
		}

		if jsonOut {
			_ = cli.PrintJSON(os.Stdout, result)
		} else {
			cli.RenderMarkdown(os.Stdout, report.Markdown(result))
		}

		if !result.Valid {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().Bool("json", false, "Print the raw report as JSON")
}
