package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canonry",
	Short: "Canonry validates fanfiction pathways against fandom catalogs",
	Long: `Canonry checks tag and plot block combinations for rule violations,
unsatisfied conditions, dependency cycles and genre conflicts before a story
outline is committed to them.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("catalog", ".", "Path to the catalog: a Loam repository or a directory of YAML/JSON files")
	rootCmd.PersistentFlags().String("format", "auto", "Catalog format: auto, loam or files")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for snapshot caching (host:port)")
	rootCmd.PersistentFlags().StringSlice("heuristics", nil, "Conflict heuristics to run (default: all built-ins)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-operation timeout, 0 disables")
	rootCmd.PersistentFlags().Bool("sequential", false, "Run validation stages sequentially instead of in parallel")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// engineFromFlags builds the engine every command shares, honoring the
// persistent flag surface.
func engineFromFlags(cmd *cobra.Command, extra ...canonry.Option) (*canonry.Engine, *slog.Logger, error) {
	catalog, _ := cmd.Flags().GetString("catalog")
	format, _ := cmd.Flags().GetString("format")
	redisAddr, _ := cmd.Flags().GetString("redis")
	heuristics, _ := cmd.Flags().GetStringSlice("heuristics")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	sequential, _ := cmd.Flags().GetBool("sequential")
	debug, _ := cmd.Flags().GetBool("debug")

	logger := cli.NewLogger(debug)
	engine, err := cli.BuildEngine(cli.EngineOptions{
		CatalogPath: catalog,
		Format:      format,
		RedisAddr:   redisAddr,
		Heuristics:  heuristics,
		Timeout:     timeout,
		Sequential:  sequential,
	}, logger, extra...)
	if err != nil {
		return nil, nil, err
	}
	return engine, logger, nil
}
