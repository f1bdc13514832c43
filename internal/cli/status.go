package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gloss/internal/config"
	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
	Project  string
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show a run's status and progress",
		Long: `Show one run's status, or the project's active run when no id is given.

Example:
  gloss status 0190a5c8-1a2b-7c3d-9e4f-567890abcdef
  gloss status --project payments`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from GLOSS_DB_PATH)")
	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (default from GLOSS_PROJECT)")

	return cmd
}

func showStatus(cmd *cobra.Command, opts *StatusOptions, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	if opts.Project != "" {
		cfg.ProjectID = opts.Project
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var run *glossary.Run
	if len(args) == 1 {
		run, err = st.GetRun(ctx, args[0])
	} else {
		run, err = st.ActiveRun(ctx, cfg.ProjectID)
	}
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, "no matching run", err)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if f.IsJSON() {
		return f.PrintJSON(runView(run))
	}

	f.Printf("run:      %s\n", run.ID)
	f.Printf("project:  %s\n", run.ProjectID)
	f.Printf("scope:    %s\n", run.Scope)
	f.Printf("status:   %s\n", run.Status)
	f.Printf("started:  %s\n", run.StartedAt.Format(time.RFC3339))
	if run.FinishedAt != nil {
		f.Printf("finished: %s\n", run.FinishedAt.Format(time.RFC3339))
	}
	if run.CurrentStep != "" {
		f.Printf("step:     %s (%d/%d)\n", run.CurrentStep, run.ProgressCurrent, run.ProgressTotal)
	}
	if run.ErrorMessage != "" {
		f.Printf("error:    %s\n", run.ErrorMessage)
	}
	return nil
}

// runView is the JSON shape of a run for CLI output.
func runView(run *glossary.Run) map[string]any {
	view := map[string]any{
		"id":               run.ID,
		"project_id":       run.ProjectID,
		"scope":            string(run.Scope),
		"status":           string(run.Status),
		"started_at":       run.StartedAt.Format(time.RFC3339Nano),
		"progress_current": run.ProgressCurrent,
		"progress_total":   run.ProgressTotal,
	}
	if run.FinishedAt != nil {
		view["finished_at"] = run.FinishedAt.Format(time.RFC3339Nano)
	}
	if run.CurrentStep != "" {
		view["current_step"] = run.CurrentStep
	}
	if run.ErrorMessage != "" {
		view["error_message"] = run.ErrorMessage
	}
	return view
}
