// Package schema checks the shape of a parsed glossary document before any
// record is normalized. It reports every violation it finds and never
// modifies the document.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
	"github.com/devterms/glossary/internal/glossary/source"
)

// RootKeys are the keys allowed at the top of the document
var RootKeys = []string{source.KeyTerms, source.KeyRedirects}

// Check validates the document shape and returns every violation found
func Check(doc *source.Document) gerrors.List {
	c := &checker{doc: doc}
	c.checkRoot()
	return c.violations
}

type checker struct {
	doc        *source.Document
	violations gerrors.List
}

func (c *checker) violation(index int, n *yaml.Node, format string, args ...any) gerrors.Diagnostic {
	return gerrors.New(gerrors.KindSchemaViolation, index, fmt.Sprintf(format, args...)).
		WithLocation(c.doc.Location(n))
}

func (c *checker) report(d gerrors.Diagnostic) {
	c.violations.Add(d)
}

func (c *checker) checkRoot() {
	root := c.doc.Root
	if root == nil {
		c.report(c.violation(gerrors.RootIndex, nil,
			"document is empty, expected a mapping with a %q key", source.KeyTerms))
		return
	}
	if root.Kind != yaml.MappingNode {
		c.report(c.violation(gerrors.RootIndex, root,
			"document root must be a mapping, got %s", source.KindName(root)))
		return
	}

	c.checkKeys(gerrors.RootIndex, root, RootKeys, "top-level")

	_, terms := source.Lookup(root, source.KeyTerms)
	c.checkTerms(terms, root)

	_, redirects := source.Lookup(root, source.KeyRedirects)
	c.checkRedirects(redirects)
}

// checkKeys reports duplicate and unknown keys of a mapping
func (c *checker) checkKeys(index int, mapping *yaml.Node, allowed []string, what string) {
	seen := make(map[string]bool)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		switch {
		case seen[key.Value]:
			c.report(c.violation(index, key, "duplicate %s key %q", what, key.Value).WithKey(key.Value))
		case !contains(allowed, key.Value):
			c.report(c.violation(index, key, "unknown %s key %q", what, key.Value).WithKey(key.Value))
		}
		seen[key.Value] = true
	}
}

func (c *checker) checkTerms(terms, root *yaml.Node) {
	switch {
	case terms == nil:
		c.report(c.violation(gerrors.RootIndex, root, "missing required key %q", source.KeyTerms).
			WithKey(source.KeyTerms))
		return
	case terms.Kind != yaml.SequenceNode:
		c.report(c.violation(gerrors.RootIndex, terms, "%q must be a sequence, got %s",
			source.KeyTerms, source.KindName(terms)).WithKey(source.KeyTerms))
		return
	case len(terms.Content) == 0:
		c.report(c.violation(gerrors.RootIndex, terms, "%q must not be empty", source.KeyTerms).
			WithKey(source.KeyTerms))
		return
	}

	for i, record := range terms.Content {
		c.checkRecord(i, record)
	}
}

func (c *checker) checkRecord(index int, record *yaml.Node) {
	if record.Kind == yaml.AliasNode {
		record = record.Alias
	}
	if record.Kind != yaml.MappingNode {
		c.report(c.violation(index, record, "term record must be a mapping, got %s", source.KindName(record)))
		return
	}

	c.checkKeys(index, record, glossary.AllFields(), "term")

	for _, field := range glossary.RequiredFields {
		if _, value := source.Lookup(record, field); value == nil {
			c.report(c.violation(index, record, "missing required field %q", field).WithField(field))
		}
	}

	for i := 0; i+1 < len(record.Content); i += 2 {
		key, value := record.Content[i], record.Content[i+1]
		if !contains(glossary.AllFields(), key.Value) {
			continue
		}
		if glossary.IsListField(key.Value) {
			c.checkList(index, key.Value, value)
		} else {
			c.checkScalar(index, key.Value, value)
		}
	}
}

func (c *checker) checkScalar(index int, field string, value *yaml.Node) {
	if resolve(value).Kind != yaml.ScalarNode {
		c.report(c.violation(index, value, "field %q must be a string, got %s",
			field, source.KindName(value)).WithField(field))
	}
}

// checkList accepts a single scalar or a sequence of scalars
func (c *checker) checkList(index int, field string, value *yaml.Node) {
	value = resolve(value)
	switch value.Kind {
	case yaml.ScalarNode:
		return
	case yaml.SequenceNode:
		for _, item := range value.Content {
			if resolve(item).Kind != yaml.ScalarNode {
				c.report(c.violation(index, item, "entries of %q must be strings, got %s",
					field, source.KindName(item)).WithField(field))
			}
		}
	default:
		c.report(c.violation(index, value, "field %q must be a string or a list of strings, got %s",
			field, source.KindName(value)).WithField(field))
	}
}

func (c *checker) checkRedirects(redirects *yaml.Node) {
	if redirects == nil || isNull(redirects) {
		return
	}
	redirects = resolve(redirects)
	if redirects.Kind != yaml.MappingNode {
		c.report(c.violation(gerrors.RootIndex, redirects, "%q must be a mapping, got %s",
			source.KeyRedirects, source.KindName(redirects)).WithKey(source.KeyRedirects))
		return
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(redirects.Content); i += 2 {
		key, value := redirects.Content[i], redirects.Content[i+1]
		from := resolve(key).Value
		if seen[from] {
			c.report(c.violation(gerrors.RootIndex, key, "duplicate redirect %q", from).WithKey(from))
		}
		seen[from] = true

		if !glossary.SlugMatchesPattern(from) {
			c.report(c.violation(gerrors.RootIndex, key, "redirect key %q is not a valid slug", from).
				WithKey(from))
		}
		if v := resolve(value); v.Kind != yaml.ScalarNode || isNull(v) {
			c.report(c.violation(gerrors.RootIndex, value, "redirect %q must map to a string, got %s",
				from, source.KindName(value)).WithKey(from))
		}
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	n = resolve(n)
	return n != nil && n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
