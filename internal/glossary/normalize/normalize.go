// Package normalize turns raw term records into canonical terms. It is the
// only place normalization rules live: validation and export both go through
// it, so what is validated is exactly what is published.
package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
)

// String trims a scalar value. Empty and non-scalar values are absent.
func String(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	case bool, int, int64, uint64, float64:
		s = fmt.Sprint(v)
	default:
		return "", false
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// Array coerces a scalar into a one-element list, trims every entry and drops
// the empty ones. A list with nothing left is absent.
func Array(value any) ([]string, bool) {
	var items []any
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		items = []any{v}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := String(item); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Term normalizes the record at index into a canonical term. Every field
// problem of the record is returned together as an errors.List.
func Term(index int, raw glossary.Raw) (glossary.Term, error) {
	var (
		t    glossary.Term
		errs gerrors.List
	)

	required := map[string]*string{
		glossary.FieldSlug:       &t.Slug,
		glossary.FieldTerm:       &t.Term,
		glossary.FieldDefinition: &t.Definition,
	}
	for _, field := range glossary.RequiredFields {
		value, ok := String(raw[field])
		if !ok {
			errs.Add(gerrors.Newf(gerrors.KindMissingRequiredField, index,
				"missing required field %q", field).WithField(field))
			continue
		}
		*required[field] = value
	}

	if t.Slug != "" && !glossary.ValidSlug(t.Slug) {
		errs.Add(gerrors.Newf(gerrors.KindSlugFormatViolation, index,
			"slug %q must match %s and be %d-%d characters long",
			t.Slug, glossary.SlugPattern.String(), glossary.MinSlugLength, glossary.MaxSlugLength).
			WithField(glossary.FieldSlug).WithKey(t.Slug))
	}

	if t.Definition != "" {
		if n := utf8.RuneCountInString(t.Definition); n < glossary.MinDefinitionLength {
			errs.Add(gerrors.Newf(gerrors.KindDefinitionTooShort, index,
				"definition is %d characters, need at least %d", n, glossary.MinDefinitionLength).
				WithField(glossary.FieldDefinition))
		}
	}

	t.Explanation, _ = String(raw[glossary.FieldExplanation])
	t.Humor, _ = String(raw[glossary.FieldHumor])
	t.Tags, _ = Array(raw[glossary.FieldTags])
	t.SeeAlso, _ = Array(raw[glossary.FieldSeeAlso])
	t.Aliases, _ = Array(raw[glossary.FieldAliases])

	if level, ok := String(raw[glossary.FieldControversyLevel]); ok {
		t.ControversyLevel = glossary.ControversyLevel(level)
		if !t.ControversyLevel.Valid() {
			errs.Add(gerrors.Newf(gerrors.KindInvalidControversyLevel, index,
				"controversy_level %q must be one of low, medium, high", level).
				WithField(glossary.FieldControversyLevel))
		}
	}

	if errs.HasErrors() {
		return glossary.Term{}, errs
	}
	return t, nil
}

// Terms normalizes every record, collecting the problems of all of them
// before failing. On success the terms keep source order.
func Terms(raws []glossary.Raw) ([]glossary.Term, error) {
	var errs gerrors.List
	terms := make([]glossary.Term, 0, len(raws))
	for i, raw := range raws {
		t, err := Term(i, raw)
		if err != nil {
			errs.Merge(err)
			continue
		}
		terms = append(terms, t)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return terms, nil
}
