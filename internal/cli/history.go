package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/contact-dedupe/internal/db"
	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

var (
	historySession string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show removals mirrored to SurrealDB",
	Long: `List past runs, or the removals of one run, from the SurrealDB audit mirror.
Requires DEDUPE_SURREALDB_URL (or surrealdb.url in the config file).

Examples:
  dedupe history
  dedupe history --session 3f2a8c1e-... --limit 20`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historySession, "session", "s", "", "show removals of this session")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", db.DefaultListLimit, "max results")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !cfg.MirrorEnabled() {
		return fmt.Errorf("history: %w", db.ErrNotConfigured)
	}
	client, err := db.NewClient(ctx, dbConfig(), logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	if err := client.InitSchema(ctx); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	if historySession == "" {
		sessions, err := client.ListSessions(ctx, historyLimit)
		if err != nil {
			return err
		}
		printSessions(cmd.OutOrStdout(), sessions)
		return nil
	}

	removals, err := client.ListRemovals(ctx, historySession, historyLimit)
	if err != nil {
		return err
	}
	printRemovals(cmd.OutOrStdout(), removals)
	return nil
}

func printSessions(w io.Writer, sessions []models.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No mirrored runs found.")
		return
	}

	fmt.Fprintf(w, "Runs (%d):\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(w, "- %s  %s  %d removed\n", s.SessionID, s.Source, s.Removals)
		if verbose {
			fmt.Fprintf(w, "  %s → %s\n", s.Started.Local().Format("2006-01-02 15:04:05"), s.Finished.Local().Format("15:04:05"))
		}
	}
}

func printRemovals(w io.Writer, removals []models.MirroredRemoval) {
	if len(removals) == 0 {
		fmt.Fprintln(w, "No removals found.")
		return
	}

	fmt.Fprintf(w, "Removals (%d):\n\n", len(removals))
	for _, r := range removals {
		fmt.Fprintf(w, "- [%d] removed, [%d] kept  %s\n", r.RemovedIndex, r.KeptIndex, r.Reason)
		if verbose {
			fmt.Fprintf(w, "  at %s\n", r.RemovedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "  removed: %v\n", r.Removed)
			fmt.Fprintf(w, "  kept:    %v\n", r.Kept)
		}
	}
}
