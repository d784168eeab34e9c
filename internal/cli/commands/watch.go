package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devterms/glossary/internal/cli/ui"
	"github.com/devterms/glossary/internal/watch"
)

type watchFlags struct {
	source string
	export bool
}

// NewWatchCommand creates the watch command
func NewWatchCommand(opts *globalOptions) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run validation whenever the term source changes",
		Long: `Watch the term source and re-run the pipeline on every saved change.

Changes are debounced (watch.debounce, default 100ms) and saves that leave
the file contents unchanged are skipped. Runs never overlap. Paths matching
watch.ignore are never considered.

With --export, each successful run also writes the artifact.`,
		Example: `  # Validate on every save
  glossary watch

  # Validate and publish on every save
  glossary watch --export`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, sess, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.source, "source", "s", "", "Term source document (default from config)")
	cmd.Flags().BoolVar(&flags.export, "export", false, "Write the artifact after each successful run")

	return cmd
}

// runWatch builds once, then rebuilds on every change until ctx is done
func runWatch(ctx context.Context, sess *session, flags *watchFlags) error {
	source := sess.cfg.SourcePath()
	if flags.source != "" {
		source = flags.source
	}
	source, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", source, err)
	}

	rebuilder := watch.NewRebuilder(func(changed []string) error {
		if flags.export {
			return runExport(ctx, sess, &exportFlags{source: source, skip: sess.cfg.Export.SkipUnlessNewSlug})
		}
		return runValidate(sess, source, false)
	}, sess.logger)

	onChange := func(files []string) error {
		fmt.Fprintln(sess.out)
		result := rebuilder.Rebuild(files)
		reportRebuild(sess, result)
		return result.Err
	}

	watcher, err := watch.NewFileWatcher(watch.Options{
		Root:     sess.cfg.Root,
		Files:    []string{source},
		Ignore:   sess.cfg.Watch.Ignore,
		Debounce: sess.cfg.Watch.Debounce,
		Logger:   sess.logger,
	}, onChange)
	if err != nil {
		return err
	}

	banner := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(sess.out)
	banner.Fprintln(sess.out, "Glossary watch")
	fmt.Fprintf(sess.out, "   Source: %s\n", source)
	if flags.export {
		fmt.Fprintf(sess.out, "   Output: %s\n", sess.cfg.OutputPath())
	}
	fmt.Fprintln(sess.out)

	reportRebuild(sess, rebuilder.FullBuild([]string{source}))

	if err := watcher.Start(); err != nil {
		return err
	}
	sess.logger.Info("Watching for changes", zap.String("source", source))
	color.New(color.FgYellow).Fprintln(sess.out, "Press Ctrl+C to stop")

	<-ctx.Done()

	fmt.Fprintln(sess.out, "\nShutting down...")
	if err := watcher.Stop(); err != nil {
		return fmt.Errorf("error stopping watcher: %w", err)
	}
	color.New(color.FgGreen).Fprintln(sess.out, "Goodbye!")
	return nil
}

// reportRebuild prints the outcome of one run. Pipeline failures have
// already been rendered by the run itself.
func reportRebuild(sess *session, result *watch.RebuildResult) {
	switch {
	case result.Skipped:
		sess.logger.Debug("Source unchanged")
	case result.Success:
		fmt.Fprint(sess.out, ui.Info(fmt.Sprintf("Rebuilt in %s", result.Duration.Round(time.Millisecond)), sess.noColor))
	case errors.Is(result.Err, ErrValidationFailed), errors.Is(result.Err, ErrExportFailed):
		fmt.Fprint(sess.out, ui.Info("Waiting for changes...", sess.noColor))
	default:
		ui.WriteError(sess.errOut, ui.ErrorOptions{
			Level:   ui.ErrorLevelError,
			Context: "REBUILD FAILED",
			Problem: result.Err.Error(),
			NoColor: sess.noColor,
		})
	}
}
