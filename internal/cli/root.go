// Package cli wires the application container and exposes the apflow
// command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "apflow",
	Short: "apflow - invoice extraction and approval pipeline",
	Long: `apflow ingests scanned invoices, extracts and merges fields from a
primary OCR source and an optional fallback source, reconciles line items
against declared totals, and walks each document through a two-stage
approval chain before staging it for export.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("apflow v0.3.0")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
