package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gloss/internal/config"
	"github.com/roach88/gloss/internal/docs"
	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/llm"
	"github.com/roach88/gloss/internal/runner"
	"github.com/roach88/gloss/internal/store"
	"github.com/roach88/gloss/internal/synonym"
)

// pollInterval is how long the log consumer waits before emitting a
// keepalive entry.
const pollInterval = 2 * time.Second

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Scope     string
	Project   string
	Database  string
	DocsDir   string
	Glob      string
	Synonyms  string
	BatchSize int

	// Client allows overriding the LM client (for testing). If nil, a
	// Gemini client is built from configuration.
	Client llm.Client
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a pipeline run and stream its progress",
		Long: `Start a glossary pipeline run for a project and stream its log output.

The scope selects where the pipeline starts:
  full    extract terms, define, review, refine (default)
  define  re-define the stored glossary's terms, then review and refine
  review  review the stored glossary, then refine
  refine  refine the stored glossary using stored review issues

Interrupting with Ctrl-C requests cooperative cancellation; the run stops
at the next stage or batch boundary and is marked cancelled.

Example:
  gloss run --db ./gloss.db --docs ./docs
  gloss run --scope review --project payments`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Scope, "scope", "full", "pipeline scope (full|define|review|refine)")
	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (default from GLOSS_PROJECT)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from GLOSS_DB_PATH)")
	cmd.Flags().StringVar(&opts.DocsDir, "docs", "", "document corpus directory (default from GLOSS_DOCS_DIR)")
	cmd.Flags().StringVar(&opts.Glob, "glob", "", "document glob pattern (default from GLOSS_DOC_GLOB)")
	cmd.Flags().StringVar(&opts.Synonyms, "synonyms", "", "synonym groups YAML file (default from GLOSS_SYNONYMS)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch", 0, "review batch size (default from GLOSS_REVIEW_BATCH)")

	return cmd
}

func runPipeline(cmd *cobra.Command, opts *RunOptions) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	applyFlagOverrides(cfg, opts)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Info("loading documents", "dir", cfg.DocsDir, "glob", cfg.DocGlob)
	documents, err := docs.Load(cfg.DocsDir, cfg.DocGlob)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load documents", err)
	}
	if len(documents) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no documents matched under %s", cfg.DocsDir))
	}
	slog.Info("documents loaded", "count", len(documents))

	groups, err := synonym.LoadGroups(cfg.SynonymsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load synonym groups", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	client := opts.Client
	if client == nil {
		gemini, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create LM client", err)
		}
		defer gemini.Close()
		client = gemini
	}

	mgr := runner.NewManager(st, client, slog.Default())
	handle, err := mgr.Start(ctx, runner.StartRequest{
		ProjectID:       cfg.ProjectID,
		Scope:           glossary.RunScope(opts.Scope),
		Documents:       documents,
		Synonyms:        groups,
		ReviewBatchSize: cfg.ReviewBatchSize,
	})
	if err != nil {
		if errors.Is(err, store.ErrRunActive) {
			return WrapExitError(ExitConflict, "cannot start run", err)
		}
		return WrapExitError(ExitCommandError, "failed to start run", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s started (scope %s)\n", handle.RunID(), opts.Scope)

	// Ctrl-C requests cooperative cancellation; a second Ctrl-C kills the
	// process the usual way.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			slog.Warn("interrupt received, cancelling run", "run", handle.RunID())
			mgr.Cancel(handle.RunID())
			signal.Stop(sigCh)
		}
	}()

	streamLogs(cmd, handle, opts.Verbose)

	run, err := mgr.Run(ctx, handle.RunID())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run status", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s %s\n", run.ID, run.Status)
	if run.ErrorMessage != "" {
		fmt.Fprintln(cmd.OutOrStdout(), run.ErrorMessage)
	}
	if run.Status != glossary.RunCompleted {
		return NewExitError(ExitFailure, fmt.Sprintf("run %s", run.Status))
	}
	return nil
}

// streamLogs drains the run's queue until the end-of-stream sentinel.
// Keepalive entries are only shown in verbose mode.
func streamLogs(cmd *cobra.Command, handle *runner.Handle, verbose bool) {
	out := cmd.OutOrStdout()
	for {
		entry, ok := handle.Poll(pollInterval)
		if !ok {
			return
		}
		if entry.Keepalive && !verbose {
			continue
		}
		fmt.Fprintf(out, "[%s] %s\n", entry.Level, entry.Message)
	}
}

func applyFlagOverrides(cfg *config.Config, opts *RunOptions) {
	if opts.Project != "" {
		cfg.ProjectID = opts.Project
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	if opts.DocsDir != "" {
		cfg.DocsDir = opts.DocsDir
	}
	if opts.Glob != "" {
		cfg.DocGlob = opts.Glob
	}
	if opts.Synonyms != "" {
		cfg.SynonymsPath = opts.Synonyms
	}
	if opts.BatchSize > 0 {
		cfg.ReviewBatchSize = opts.BatchSize
	}
}
