package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devterms/glossary/internal/cli/ui"
	"github.com/devterms/glossary/internal/glossary/export"
)

type exportFlags struct {
	source   string
	output   string
	revision string
	skip     bool
	asJSON   bool
}

// NewExportCommand creates the export command
func NewExportCommand(opts *globalOptions) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Validate the term source and publish the JSON artifact",
		Long: `Run the full pipeline and write the published artifact.

The artifact is written all-or-nothing: when validation fails or the
serialized document exceeds export.max_bytes, the previously published file
is left untouched.

The artifact version is the --revision flag, else the short commit hash of
the repository holding the source, else "unknown".`,
		Example: `  # Export to the output named in glossary.yml (default: dist/terms.json)
  glossary export

  # Export for a specific revision to a custom location
  glossary export --revision abc1234 --output public/terms.json

  # Only publish when a new slug appeared since the last artifact
  glossary export --skip-unless-new-slug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.logger.Sync()

			if !cmd.Flags().Changed("skip-unless-new-slug") {
				flags.skip = sess.cfg.Export.SkipUnlessNewSlug
			}
			return runExport(cmd.Context(), sess, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.source, "source", "s", "", "Term source document (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Artifact path (default from config)")
	cmd.Flags().StringVar(&flags.revision, "revision", "", "Version string recorded in the artifact (default: git short hash)")
	cmd.Flags().BoolVar(&flags.skip, "skip-unless-new-slug", false, "Skip writing when no new slug appeared since the last artifact")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Output the report in JSON format")

	return cmd
}

func runExport(ctx context.Context, sess *session, flags *exportFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	source := sess.cfg.SourcePath()
	if flags.source != "" {
		source = flags.source
	}
	output := sess.cfg.OutputPath()
	if flags.output != "" {
		output = flags.output
	}

	revision := flags.revision
	if revision == "" {
		revision = export.DetectRevision(ctx, filepath.Dir(source))
		sess.logger.Debug("Detected revision", zap.String("revision", revision))
	}

	published := sess.publishedSlugs()
	r := sess.runner(published)

	res, err := r.ValidateFile(source)
	if err != nil {
		return sess.reportFailure(source, res, err, flags.asJSON, ErrValidationFailed)
	}

	out, err := r.Export(res, sess.exporter(published, flags.skip), revision, output)
	if err != nil {
		return sess.reportFailure(source, res, err, flags.asJSON, ErrExportFailed)
	}

	sess.logger.Info("Export finished",
		zap.String("path", out.Path),
		zap.Bool("written", out.Written),
		zap.Int("terms", out.Artifact.TermsCount),
		zap.Int("bytes", out.Bytes))

	if flags.asJSON {
		report := ui.NewReport(source, res.Diagnostics)
		report.Extra = map[string]any{
			"path":        out.Path,
			"version":     out.Artifact.Version,
			"terms_count": out.Artifact.TermsCount,
			"bytes":       out.Bytes,
			"written":     out.Written,
			"skipped":     out.Skipped,
			"new_slugs":   out.NewSlugs,
		}
		return ui.WriteJSON(sess.out, report)
	}

	printSummary(sess, source, res, time.Since(start))
	fmt.Fprintln(sess.out)
	if out.Skipped {
		fmt.Fprint(sess.out, ui.Info(fmt.Sprintf("No new slugs since the last publish; %s was not rewritten", out.Path), sess.noColor))
		return nil
	}
	ui.WriteSuccess(sess.out, fmt.Sprintf("Wrote %s (%d terms, %d bytes, version %s)",
		out.Path, out.Artifact.TermsCount, out.Bytes, out.Artifact.Version), sess.noColor)
	if len(out.NewSlugs) > 0 {
		fmt.Fprintf(sess.out, "  New slugs: %v\n", out.NewSlugs)
	}
	return nil
}
