package errors

import (
	"encoding/json"
	"fmt"
)

// Severity represents the severity level of a diagnostic
type Severity int

const (
	Warning Severity = iota
	Error
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// RootIndex marks a diagnostic that is not tied to a single term record
const RootIndex = -1

// Location is a position in the source document. Zero values mean unknown.
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// String renders the location as file:line:column, omitting unknown parts
func (l Location) String() string {
	if l.File == "" && l.Line == 0 {
		return ""
	}
	file := l.File
	if file == "" {
		file = "<source>"
	}
	if l.Line == 0 {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// Diagnostic is one problem found while running the pipeline
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	// Index of the offending term record, or RootIndex
	Index int
	// RelatedIndex points at the earlier record a duplicate collides with, or RootIndex
	RelatedIndex int
	// Field is the record field the diagnostic is about, if any
	Field string
	// Key carries the slug, identity key or unknown document key involved
	Key string
	// Target is the replacement slug of a redirect diagnostic
	Target   string
	Message  string
	Location Location
}

// New creates an error-level diagnostic for a term record
func New(kind Kind, index int, message string) Diagnostic {
	return Diagnostic{
		Kind:         kind,
		Severity:     Error,
		Index:        index,
		RelatedIndex: RootIndex,
		Message:      message,
	}
}

// Newf is New with a formatted message
func Newf(kind Kind, index int, format string, args ...any) Diagnostic {
	return New(kind, index, fmt.Sprintf(format, args...))
}

// AsWarning downgrades the diagnostic to a warning
func (d Diagnostic) AsWarning() Diagnostic {
	d.Severity = Warning
	return d
}

// WithField records which field the diagnostic is about
func (d Diagnostic) WithField(field string) Diagnostic {
	d.Field = field
	return d
}

// WithKey records the slug or key the diagnostic is about
func (d Diagnostic) WithKey(key string) Diagnostic {
	d.Key = key
	return d
}

// WithTarget records the redirect target the diagnostic is about
func (d Diagnostic) WithTarget(target string) Diagnostic {
	d.Target = target
	return d
}

// WithRelated records the index of the earlier conflicting record
func (d Diagnostic) WithRelated(index int) Diagnostic {
	d.RelatedIndex = index
	return d
}

// WithLocation attaches a source position
func (d Diagnostic) WithLocation(loc Location) Diagnostic {
	d.Location = loc
	return d
}

// Code returns the stable code of the diagnostic kind
func (d Diagnostic) Code() string {
	return d.Kind.Code()
}

// IndexLabel renders the record index, or "(root)" for document-level problems
func (d Diagnostic) IndexLabel() string {
	if d.Index < 0 {
		return "(root)"
	}
	return fmt.Sprintf("%d", d.Index)
}

// IsError returns true if the diagnostic fails the run
func (d Diagnostic) IsError() bool {
	return d.Severity == Error
}

// IsWarning returns true if the diagnostic is informational only
func (d Diagnostic) IsWarning() bool {
	return d.Severity == Warning
}

// Error implements the error interface
func (d Diagnostic) Error() string {
	prefix := fmt.Sprintf("[%s] %s", d.IndexLabel(), d.Code())
	if loc := d.Location.String(); loc != "" {
		prefix = loc + ": " + prefix
	}
	return fmt.Sprintf("%s %s: %s", prefix, d.Kind, d.Message)
}

// MarshalJSON implements json.Marshaler. The index is a number, or the string
// "(root)" for document-level diagnostics.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	var index any = d.Index
	if d.Index < 0 {
		index = "(root)"
	}
	var related any
	if d.RelatedIndex >= 0 {
		related = d.RelatedIndex
	}
	var loc *Location
	if d.Location != (Location{}) {
		loc = &d.Location
	}
	return json.Marshal(struct {
		Index        any       `json:"index"`
		Reason       string    `json:"reason"`
		Kind         Kind      `json:"kind"`
		Code         string    `json:"code"`
		Severity     Severity  `json:"severity"`
		Phase        string    `json:"phase"`
		RelatedIndex any       `json:"related_index,omitempty"`
		Field        string    `json:"field,omitempty"`
		Key          string    `json:"key,omitempty"`
		Target       string    `json:"target,omitempty"`
		Location     *Location `json:"location,omitempty"`
	}{
		Index:        index,
		Reason:       d.Message,
		Kind:         d.Kind,
		Code:         d.Code(),
		Severity:     d.Severity,
		Phase:        d.Kind.Phase(),
		RelatedIndex: related,
		Field:        d.Field,
		Key:          d.Key,
		Target:       d.Target,
		Location:     loc,
	})
}
