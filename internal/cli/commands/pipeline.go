package commands

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/devterms/glossary/internal/cli/ui"
	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
	"github.com/devterms/glossary/internal/glossary/export"
	"github.com/devterms/glossary/internal/glossary/pipeline"
)

var (
	// ErrValidationFailed is returned after diagnostics have been printed
	ErrValidationFailed = errors.New("validation failed")
	// ErrExportFailed is returned after an export diagnostic has been printed
	ErrExportFailed = errors.New("export failed")
)

// publishedSlugs reads the slugs of the last published artifact. A missing
// or unreadable artifact disables the checks that depend on it.
func (s *session) publishedSlugs() []string {
	path := s.cfg.PublishedPath()
	slugs, err := export.PublishedSlugs(path)
	if err != nil {
		s.logger.Warn("Ignoring previously published artifact", zap.String("path", path), zap.Error(err))
		return nil
	}
	return slugs
}

func (s *session) runner(published []string) *pipeline.Runner {
	return pipeline.New(pipeline.Options{
		RejectChains: s.cfg.Redirects.RejectChains,
		Published:    published,
		Logger:       s.logger,
	})
}

func (s *session) exporter(published []string, skip bool) *export.Exporter {
	return export.New(export.Options{
		MaxBytes:          s.cfg.Export.MaxBytes,
		Indent:            s.cfg.Export.Indent,
		SkipUnlessNewSlug: skip,
		Published:         published,
		Logger:            s.logger,
	})
}

// diagnosticOptions collects what the renderer needs to quote source lines
// and suggest fixes
func diagnosticOptions(source string, res *pipeline.Result, noColor bool) ui.DiagnosticOptions {
	opts := ui.DiagnosticOptions{
		NoColor: noColor,
		Fields:  glossary.AllFields(),
	}
	if data, err := os.ReadFile(source); err == nil {
		opts.Source = data
	}
	if res != nil && res.Index != nil {
		opts.Slugs = res.Index.Known()
	}
	return opts
}

// reportFailure prints the diagnostics carried by err and returns the error
// the command should exit with. Errors that carry no diagnostics are returned
// unchanged.
func (s *session) reportFailure(source string, res *pipeline.Result, err error, asJSON bool, sentinel error) error {
	diags, ok := gerrors.AsList(err)
	if !ok {
		return err
	}
	if res != nil {
		// Warnings of the same run are reported alongside the errors
		for _, d := range res.Diagnostics.Warnings() {
			if !contains(diags, d) {
				diags = append(diags, d)
			}
		}
	}

	if asJSON {
		if err := ui.WriteJSON(s.out, ui.NewReport(source, diags)); err != nil {
			return err
		}
		return sentinel
	}

	ui.WriteDiagnostics(s.errOut, diags, diagnosticOptions(source, res, s.noColor))
	fmt.Fprintln(s.errOut)
	if sentinel == ErrExportFailed {
		ui.WriteError(s.errOut, ui.ErrorOptions{
			Level:       ui.ErrorLevelError,
			Context:     "EXPORT FAILED",
			Problem:     diags.Errors().Error(),
			Consequence: "The previously published artifact was left untouched.",
			NoColor:     s.noColor,
		})
	} else {
		fmt.Fprint(s.errOut, ui.ValidationFailed(source, len(diags.Errors()), s.noColor))
	}
	return sentinel
}

func contains(list gerrors.List, d gerrors.Diagnostic) bool {
	for _, got := range list {
		if got == d {
			return true
		}
	}
	return false
}
