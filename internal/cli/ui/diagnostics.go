package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	gerrors "github.com/devterms/glossary/internal/glossary/errors"
	"github.com/devterms/glossary/internal/glossary/schema"
)

// DiagnosticOptions configures diagnostic rendering
type DiagnosticOptions struct {
	NoColor bool
	// Fields are the known record fields, used to suggest fixes for unknown keys
	Fields []string
	// Slugs are the known slugs and redirect sources, used to suggest fixes
	// for dangling references
	Slugs []string
	// Source is the document text. When set, the offending line is quoted.
	Source []byte
}

// FormatDiagnostic renders one diagnostic for the terminal
//
// Example output:
//
//	error[E303] RedirectTargetMissing (root)
//	  --> terms.yaml:13:3
//	   |
//	13 |   old-yak: yak-shavng
//	   |
//	   redirect "old-yak" points at "yak-shavng", which is not an active slug
//	   Did you mean: yak-shaving?
func FormatDiagnostic(d gerrors.Diagnostic, opts DiagnosticOptions) string {
	var b strings.Builder

	severityColor := color.New(color.FgRed, color.Bold)
	if d.IsWarning() {
		severityColor = color.New(color.FgYellow, color.Bold)
	}
	cyan := color.New(color.FgCyan)
	blue := color.New(color.FgBlue)
	yellow := color.New(color.FgYellow)
	if opts.NoColor {
		for _, c := range []*color.Color{severityColor, cyan, blue, yellow} {
			c.DisableColor()
		}
	}

	label := "term " + d.IndexLabel()
	if d.Index < 0 {
		label = d.IndexLabel()
	}
	severityColor.Fprintf(&b, "%s[%s]", d.Severity, d.Code())
	fmt.Fprintf(&b, " %s %s\n", d.Kind, label)

	if loc := d.Location.String(); loc != "" {
		cyan.Fprint(&b, "  --> ")
		b.WriteString(loc + "\n")
	}

	if line := sourceLine(opts.Source, d.Location.Line); line != "" {
		num := fmt.Sprintf("%d", d.Location.Line)
		gutter := strings.Repeat(" ", len(num))
		blue.Fprintf(&b, "%s |\n", gutter)
		blue.Fprintf(&b, "%s |", num)
		b.WriteString(" " + line + "\n")
		blue.Fprintf(&b, "%s |\n", gutter)
	}

	fmt.Fprintf(&b, "   %s\n", d.Message)
	if d.RelatedIndex >= 0 {
		fmt.Fprintf(&b, "   first defined by term %d\n", d.RelatedIndex)
	}

	if suggestions := Suggest(d, opts); len(suggestions) > 0 {
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(suggestions, ", "))
	}

	return b.String()
}

// Suggest returns likely fixes for diagnostics about unknown names
func Suggest(d gerrors.Diagnostic, opts DiagnosticOptions) []string {
	switch d.Kind {
	case gerrors.KindSchemaViolation:
		if d.Key == "" || d.Field != "" || !strings.HasPrefix(d.Message, "unknown") {
			return nil
		}
		if d.Index < 0 {
			return FindSimilar(d.Key, schema.RootKeys, nil)
		}
		return FindSimilar(d.Key, opts.Fields, nil)
	case gerrors.KindRedirectTargetMissing:
		return FindSimilar(d.Target, opts.Slugs, nil)
	case gerrors.KindUnresolvedSeeAlso:
		return FindSimilar(d.Key, opts.Slugs, nil)
	}
	return nil
}

func sourceLine(source []byte, line int) string {
	if len(source) == 0 || line <= 0 {
		return ""
	}
	lines := strings.Split(string(source), "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// WriteDiagnostics writes every diagnostic, errors first, separated by blank lines
func WriteDiagnostics(w io.Writer, diags gerrors.List, opts DiagnosticOptions) {
	ordered := append(diags.Errors(), diags.Warnings()...)
	for i, d := range ordered {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, FormatDiagnostic(d, opts))
	}
}

// Report is the machine-readable result of a run
type Report struct {
	Status   string        `json:"status"`
	Source   string        `json:"source"`
	Errors   gerrors.List  `json:"errors"`
	Warnings gerrors.List  `json:"warnings"`
	Summary  ReportSummary `json:"summary"`
	// Extra carries command-specific results, such as the export outcome
	Extra map[string]any `json:"extra,omitempty"`
}

// ReportSummary contains error and warning counts
type ReportSummary struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	TotalCount   int `json:"total_count"`
}

// NewReport builds a report for the diagnostics of a run
func NewReport(source string, diags gerrors.List) Report {
	errs := diags.Errors()
	warns := diags.Warnings()
	if errs == nil {
		errs = gerrors.List{}
	}
	if warns == nil {
		warns = gerrors.List{}
	}

	status := "success"
	if len(errs) > 0 {
		status = "error"
	} else if len(warns) > 0 {
		status = "warning"
	}

	return Report{
		Status:   status,
		Source:   source,
		Errors:   errs,
		Warnings: warns,
		Summary: ReportSummary{
			ErrorCount:   len(errs),
			WarningCount: len(warns),
			TotalCount:   len(diags),
		},
	}
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
