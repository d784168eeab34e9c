package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// List is a batch of diagnostics collected over a whole pass
type List []Diagnostic

// Add appends diagnostics to the list
func (l *List) Add(d ...Diagnostic) {
	*l = append(*l, d...)
}

// Merge appends every diagnostic carried by err. Errors that are not
// diagnostics are ignored.
func (l *List) Merge(err error) {
	if list, ok := AsList(err); ok {
		*l = append(*l, list...)
	}
}

// Errors returns the error-level diagnostics
func (l List) Errors() List {
	return l.filter(Error)
}

// Warnings returns the warning-level diagnostics
func (l List) Warnings() List {
	return l.filter(Warning)
}

func (l List) filter(sev Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors returns true if any diagnostic fails the run
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Has reports whether a diagnostic of the given kind is present
func (l List) Has(kind Kind) bool {
	return len(l.OfKind(kind)) > 0
}

// OfKind returns the diagnostics of the given kind
func (l List) OfKind(kind Kind) List {
	var out List
	for _, d := range l {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Err returns the list as an error when it holds at least one error-level
// diagnostic, nil otherwise
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// Error implements the error interface
func (l List) Error() string {
	errs := l.Errors()
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	}

	lines := make([]string, 0, len(errs))
	for _, d := range errs {
		lines = append(lines, "  - "+d.Error())
	}
	return fmt.Sprintf("%d errors:\n%s", len(errs), strings.Join(lines, "\n"))
}

// AsList extracts the diagnostics carried by err or anything it wraps
func AsList(err error) (List, bool) {
	var list List
	if stderrors.As(err, &list) {
		return list, true
	}
	var d Diagnostic
	if stderrors.As(err, &d) {
		return List{d}, true
	}
	var carrier interface{ Diagnostic() Diagnostic }
	if stderrors.As(err, &carrier) {
		return List{carrier.Diagnostic()}, true
	}
	return nil, false
}
