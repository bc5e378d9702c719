package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match <document-id>",
	Short: "Score a document against its vendor's reference documents",
	Long: `Runs the weighted-field match engine for one document: vendor identity
(hard criterion), amount proximity, date proximity, and reference number.
Prints the verdict with per-criterion sub-scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", args[0], err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.matcher.Match(cmd.Context(), id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
