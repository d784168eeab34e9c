// Package glossary defines the canonical glossary records shared by every
// pipeline stage: terms, redirects, and the raw snapshot they are built from.
package glossary

// ControversyLevel grades how heated a term's usage tends to be
type ControversyLevel string

const (
	ControversyLow    ControversyLevel = "low"
	ControversyMedium ControversyLevel = "medium"
	ControversyHigh   ControversyLevel = "high"
)

// Valid reports whether the level is one of low, medium or high
func (c ControversyLevel) Valid() bool {
	switch c {
	case ControversyLow, ControversyMedium, ControversyHigh:
		return true
	default:
		return false
	}
}

// Field names as they appear in the source document and the exported artifact.
const (
	FieldSlug             = "slug"
	FieldTerm             = "term"
	FieldDefinition       = "definition"
	FieldExplanation      = "explanation"
	FieldHumor            = "humor"
	FieldTags             = "tags"
	FieldSeeAlso          = "see_also"
	FieldAliases          = "aliases"
	FieldControversyLevel = "controversy_level"
)

// RequiredFields lists the fields every term record must carry
var RequiredFields = []string{FieldSlug, FieldTerm, FieldDefinition}

// OptionalFields lists the fields a term record may carry besides the required ones
var OptionalFields = []string{
	FieldExplanation,
	FieldHumor,
	FieldTags,
	FieldSeeAlso,
	FieldAliases,
	FieldControversyLevel,
}

// ListFields are the optional fields holding ordered string lists
var ListFields = []string{FieldTags, FieldSeeAlso, FieldAliases}

// IsListField reports whether the named field holds a list
func IsListField(name string) bool {
	for _, f := range ListFields {
		if f == name {
			return true
		}
	}
	return false
}

// AllFields returns required fields followed by optional fields
func AllFields() []string {
	fields := make([]string, 0, len(RequiredFields)+len(OptionalFields))
	fields = append(fields, RequiredFields...)
	return append(fields, OptionalFields...)
}

// Term is a canonical glossary entry. Absent optional fields are zero valued
// and omitted from JSON.
type Term struct {
	Slug             string           `json:"slug" yaml:"slug"`
	Term             string           `json:"term" yaml:"term"`
	Definition       string           `json:"definition" yaml:"definition"`
	Explanation      string           `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Humor            string           `json:"humor,omitempty" yaml:"humor,omitempty"`
	Tags             []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	SeeAlso          []string         `json:"see_also,omitempty" yaml:"see_also,omitempty"`
	Aliases          []string         `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	ControversyLevel ControversyLevel `json:"controversy_level,omitempty" yaml:"controversy_level,omitempty"`
}

// Names returns the display name followed by every alias
func (t Term) Names() []string {
	names := make([]string, 0, 1+len(t.Aliases))
	names = append(names, t.Term)
	return append(names, t.Aliases...)
}

// Raw converts the term back into the loosely typed record form the
// normalizer consumes. Absent fields are left out.
func (t Term) Raw() Raw {
	raw := Raw{
		FieldSlug:       t.Slug,
		FieldTerm:       t.Term,
		FieldDefinition: t.Definition,
	}
	if t.Explanation != "" {
		raw[FieldExplanation] = t.Explanation
	}
	if t.Humor != "" {
		raw[FieldHumor] = t.Humor
	}
	if len(t.Tags) > 0 {
		raw[FieldTags] = toAnySlice(t.Tags)
	}
	if len(t.SeeAlso) > 0 {
		raw[FieldSeeAlso] = toAnySlice(t.SeeAlso)
	}
	if len(t.Aliases) > 0 {
		raw[FieldAliases] = toAnySlice(t.Aliases)
	}
	if t.ControversyLevel != "" {
		raw[FieldControversyLevel] = string(t.ControversyLevel)
	}
	return raw
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Raw is a term record as decoded from the source document
type Raw map[string]any

// Redirect maps a retired slug to the slug of its replacement
type Redirect struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Snapshot is the immutable, decoded content of one source document.
// Redirects keep their source order.
type Snapshot struct {
	Terms     []Raw
	Redirects []Redirect
}

