package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/contact-dedupe/internal/csvfile"
	"github.com/raphaelgruber/contact-dedupe/internal/db"
	"github.com/raphaelgruber/contact-dedupe/internal/dedupe"
	"github.com/raphaelgruber/contact-dedupe/internal/metrics"
	"github.com/raphaelgruber/contact-dedupe/internal/models"
	"github.com/raphaelgruber/contact-dedupe/internal/prompt"
)

var (
	runAuditFile    string
	runFallbackFile string
	runNoKeepChoice bool
)

var runCmd = &cobra.Command{
	Use:   "run [file.csv]",
	Short: "Interactively remove duplicate contacts",
	Long: `Scan a contact CSV and resolve each suspected duplicate interactively.

For every candidate pair you are asked whether it is a duplicate and, if so,
which contact to keep. Answer y or yes to confirm; anything else keeps both.
When a pair shares a placeholder phone number (0600000000 and the like) you are
first offered to ignore that number for the rest of the run.

Examples:
  dedupe run
  dedupe run exports/contacts.csv
  dedupe run contacts.csv --no-keep-choice
  dedupe run contacts.csv --audit-file audit/removed.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDedupe,
}

func init() {
	runCmd.Flags().StringVar(&runAuditFile, "audit-file", "", "audit CSV of removed contacts (default removed_duplicates.csv next to the input)")
	runCmd.Flags().StringVar(&runFallbackFile, "fallback-file", "", "file written when the input cannot be overwritten (default <name>_cleaned.csv)")
	runCmd.Flags().BoolVar(&runNoKeepChoice, "no-keep-choice", false, "always keep the first contact of a pair without asking")
}

func runDedupe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	path := defaultInput
	if len(args) > 0 {
		path = args[0]
	}

	asker, err := prompt.New(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer asker.Close()

	path, err = resolveInputPath(ctx, path, asker, term.IsTerminal(int(os.Stdin.Fd())))
	if err != nil {
		return err
	}

	res, auditPath, err := dedupeFile(ctx, path, asker, cmd.OutOrStdout())
	if res.Stats.Total == 0 {
		return err
	}
	printSummary(cmd.OutOrStdout(), defaultTheme, res, auditPath)
	if verbose {
		printMetrics(cmd.OutOrStdout(), collector.Snapshot())
	}
	return err
}

// resolveInputPath returns path if it exists. Otherwise, when interactive, it
// asks once for another path.
func resolveInputPath(ctx context.Context, path string, asker dedupe.Asker, interactive bool) (string, error) {
	if _, err := os.Stat(path); err == nil || !interactive {
		return path, nil
	}

	answer, err := asker.Ask(ctx, fmt.Sprintf("%s not found. Path to the contact CSV:", path))
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			return "", fmt.Errorf("%w: no input file", csvfile.ErrInput)
		}
		return "", err
	}
	answer = strings.Trim(strings.TrimSpace(answer), `"'`)
	if answer == "" {
		return path, nil
	}
	return answer, nil
}

// loadDataset reads path with the configured column aliases.
func loadDataset(path string) (*models.Dataset, error) {
	var data *models.Dataset
	err := collector.Time(metrics.OpLoad, func() error {
		var err error
		data, err = csvfile.Load(path, cfg.Columns)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("contacts loaded",
		"file", path,
		"records", len(data.Records),
		"email_column", data.Columns.Email,
		"phone_column", data.Columns.Phone,
	)
	if missing := data.Columns.MissingNames(); len(missing) > 0 {
		logger.Warn("name columns not found, names will not be compared", "file", path, "missing", missing)
	}
	return data, nil
}

// dedupeFile runs an interactive session over path, writing prompts and
// outcomes to out. The audit path is returned for the summary.
func dedupeFile(ctx context.Context, path string, asker dedupe.Asker, out io.Writer) (dedupe.Result, string, error) {
	data, err := loadDataset(path)
	if err != nil {
		return dedupe.Result{}, "", err
	}

	auditFile := cfg.AuditFile
	if runAuditFile != "" {
		auditFile = runAuditFile
	}
	fallbackFile := cfg.FallbackFile
	if runFallbackFile != "" {
		fallbackFile = runFallbackFile
	}
	store := csvfile.NewStore(csvfile.Options{
		Path:         path,
		BackupSuffix: cfg.BackupSuffix,
		FallbackPath: fallbackFile,
		AuditPath:    auditFile,
		Logger:       logger,
	})

	mirrors, closeMirror := openMirror(ctx)
	defer closeMirror()

	sess := dedupe.NewSession(data, dedupe.Options{
		Persister: store,
		Mirrors:   mirrors,
		Logger:    logger,
		Metrics:   collector,
	})
	logger.Info("session started", "session", sess.ID(), "file", path)

	theme := defaultTheme
	fmt.Fprintf(out, "%s %d contacts from %s\n",
		theme.statusStyle().Render("Loaded"), len(data.Records), path)

	sc := dedupe.NewScanner(sess, dedupe.ScannerOptions{
		AskKeep:       cfg.AskKeep && !runNoKeepChoice,
		ProgressEvery: cfg.ProgressEvery,
		OnProgress: func(done, total int) {
			if done < total {
				fmt.Fprintln(out, theme.hintStyle().Render(fmt.Sprintf("… %d/%d contacts checked", done, total)))
			}
		},
	})

	res, err := dedupe.Run(ctx, sc, asker, dedupe.Hooks{
		OnRequest: func(req *dedupe.Request) {
			fmt.Fprint(out, renderRequest(theme, req, data.Columns))
		},
		OnOutcome: func(o *dedupe.Outcome) {
			fmt.Fprint(out, renderOutcome(theme, o))
		},
	})
	return res, store.AuditPath(), err
}

// openMirror connects the SurrealDB audit mirror when configured. A failed
// connection only disables mirroring.
func openMirror(ctx context.Context) ([]dedupe.AuditMirror, func()) {
	noop := func() {}
	if !cfg.MirrorEnabled() {
		return nil, noop
	}

	client, err := db.NewClient(ctx, dbConfig(), logger)
	if err != nil {
		logger.Warn("audit mirror disabled", "error", err)
		return nil, noop
	}
	if err := client.InitSchema(ctx); err != nil {
		logger.Warn("audit mirror disabled", "error", err)
		_ = client.Close(ctx)
		return nil, noop
	}

	return []dedupe.AuditMirror{client}, func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}
}

func dbConfig() db.Config {
	return db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}
}
