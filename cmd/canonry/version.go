package main

import (
	"fmt"
	"strings"

	"github.com/canonry/canonry"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of canonry",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("canonry version %s\n", strings.TrimSpace(canonry.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
