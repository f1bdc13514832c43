package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/gloss/internal/config"
	"github.com/roach88/gloss/internal/store"
)

// TermsOptions holds flags for the terms command.
type TermsOptions struct {
	*RootOptions
	Database string
	Project  string
}

// NewTermsCommand creates the terms command.
func NewTermsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TermsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Export the stored glossary",
		Long: `Print the project's stored glossary terms.

Example:
  gloss terms --project payments --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTerms(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from GLOSS_DB_PATH)")
	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (default from GLOSS_PROJECT)")

	return cmd
}

func listTerms(cmd *cobra.Command, opts *TermsOptions) error {
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

	g, err := st.LoadGlossary(ctx, cfg.ProjectID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load glossary", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if f.IsJSON() {
		return f.PrintJSON(g)
	}

	names := g.TermNames()
	sort.Strings(names)
	for _, name := range names {
		term := g.Terms[name]
		f.Printf("%s (confidence %.2f, %d occurrences)\n", term.Name, term.Confidence, len(term.Occurrences))
		f.Printf("  %s\n", term.Definition)
	}
	f.Printf("\n%d terms, %d open issues\n", len(names), len(g.Issues))
	return nil
}
