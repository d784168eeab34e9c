package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devterms/glossary/internal/cli/ui"
	"github.com/devterms/glossary/internal/glossary/pipeline"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(opts *globalOptions) *cobra.Command {
	var (
		source string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the term source without writing anything",
		Long: `Run the source, schema, normalize and resolve stages over the term source and
report every problem found. Nothing is written.

Each diagnostic names the term record by its position in the terms list, or
"(root)" for problems with the document itself, and points at the line in
the source file. The command exits non-zero when any error is found; warnings
such as dangling see_also entries are printed but do not fail the run.`,
		Example: `  # Validate the source named in glossary.yml (default: terms.yaml)
  glossary validate

  # Validate another file and print a machine-readable report
  glossary validate --source drafts/terms.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.logger.Sync()

			path := sess.cfg.SourcePath()
			if source != "" {
				path = source
			}
			return runValidate(sess, path, asJSON)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Term source document (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the report in JSON format")

	return cmd
}

func runValidate(sess *session, source string, asJSON bool) error {
	start := time.Now()

	res, err := sess.runner(sess.publishedSlugs()).ValidateFile(source)
	if err != nil {
		return sess.reportFailure(source, res, err, asJSON, ErrValidationFailed)
	}

	if asJSON {
		report := ui.NewReport(source, res.Diagnostics)
		report.Extra = map[string]any{
			"terms":     len(res.Terms),
			"redirects": len(res.Snapshot.Redirects),
		}
		return ui.WriteJSON(sess.out, report)
	}

	printSummary(sess, source, res, time.Since(start))
	return nil
}

// printSummary prints the warnings of a successful run and its totals
func printSummary(sess *session, source string, res *pipeline.Result, elapsed time.Duration) {
	if warnings := res.Diagnostics.Warnings(); len(warnings) > 0 {
		ui.WriteDiagnostics(sess.errOut, warnings, diagnosticOptions(source, res, sess.noColor))
		fmt.Fprintln(sess.errOut)
	}

	ui.WriteSuccess(sess.out, fmt.Sprintf("%s is valid", source), sess.noColor)
	kv := ui.NewKeyValueTable(sess.out, sess.noColor)
	kv.AddRow("Terms", fmt.Sprintf("%d", len(res.Terms)))
	kv.AddRow("Redirects", fmt.Sprintf("%d", len(res.Snapshot.Redirects)))
	kv.AddRow("Warnings", fmt.Sprintf("%d", len(res.Diagnostics.Warnings())))
	kv.AddRow("Duration", elapsed.Round(time.Millisecond).String())
	kv.Render()
}
