package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"apflow/internal/domain"
)

var reviewActor string

// reviewCmd groups the human-review operations.
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review and approve documents",
	Long: `Operations on extracted documents: validation sign-off, the two-stage
approval chain, staging, manual field corrections, and the transition
history. Each mutating subcommand takes the document id and the version you
last saw; a version conflict means someone else changed the document first
and you need to re-read it.`,
}

var reviewValidateCmd = &cobra.Command{
	Use:   "validate <document-id> <version>",
	Short: "Mark an extracted document as validated",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd.Context(), args, func(a *app, ctx context.Context, id uuid.UUID, version int64) (*domain.CanonicalDocument, error) {
			return a.review.Validate(ctx, id, version, reviewActor)
		})
	},
}

var reviewApproveSec34Cmd = &cobra.Command{
	Use:   "approve-sec34 <document-id> <version>",
	Short: "Record the first-stage approval",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd.Context(), args, func(a *app, ctx context.Context, id uuid.UUID, version int64) (*domain.CanonicalDocument, error) {
			return a.review.ApproveSec34(ctx, id, version, reviewActor)
		})
	},
}

var reviewApproveSec33Cmd = &cobra.Command{
	Use:   "approve-sec33 <document-id> <version>",
	Short: "Record the second-stage approval",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd.Context(), args, func(a *app, ctx context.Context, id uuid.UUID, version int64) (*domain.CanonicalDocument, error) {
			return a.review.ApproveSec33(ctx, id, version, reviewActor)
		})
	},
}

var reviewStageCmd = &cobra.Command{
	Use:   "stage <document-id> <version>",
	Short: "Stage a fully approved document for export",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd.Context(), args, func(a *app, ctx context.Context, id uuid.UUID, version int64) (*domain.CanonicalDocument, error) {
			return a.review.Stage(ctx, id, version, reviewActor)
		})
	},
}

var reviewCorrectCmd = &cobra.Command{
	Use:   "correct <document-id> <version> <field> <value>",
	Short: "Manually correct one canonical field",
	Long: `Replaces a field's value with a manual correction. The value is
normalized like extractor output (dates to YYYY-MM-DD, amounts to plain
decimals) and recorded at full confidence with MANUAL source. An empty value
clears the field.

Example:
  apflow review correct 6b1f... 3 total_amount 1250.00 --actor jane`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd.Context(), args[:2], func(a *app, ctx context.Context, id uuid.UUID, version int64) (*domain.CanonicalDocument, error) {
			return a.review.CorrectField(ctx, id, version, args[2], args[3], reviewActor)
		})
	},
}

var reviewHistoryCmd = &cobra.Command{
	Use:   "history <document-id>",
	Short: "Print the transition history for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q: %w", args[0], err)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.review.History(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  v%-3d %-14s -> %-14s %-14s by %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Version,
				e.FromState, e.ToState, e.Event, e.Actor)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.PersistentFlags().StringVar(&reviewActor, "actor", "cli", "actor recorded in the audit trail")
	reviewCmd.AddCommand(reviewValidateCmd)
	reviewCmd.AddCommand(reviewApproveSec34Cmd)
	reviewCmd.AddCommand(reviewApproveSec33Cmd)
	reviewCmd.AddCommand(reviewStageCmd)
	reviewCmd.AddCommand(reviewCorrectCmd)
	reviewCmd.AddCommand(reviewHistoryCmd)
}

type transitionFunc func(a *app, ctx context.Context, id uuid.UUID, version int64) (*domain.CanonicalDocument, error)

func runTransition(ctx context.Context, args []string, fn transitionFunc) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", args[0], err)
	}
	version, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[1], err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := fn(a, ctx, id, version)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
