// Package source reads the glossary document into an immutable snapshot,
// keeping YAML node positions so later stages can point at the offending line.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
)

// Top-level keys of the source document
const (
	KeyTerms     = "terms"
	KeyRedirects = "redirects"
)

// Document is a parsed source document
type Document struct {
	Path string
	// Root is the top-level node of the document. It is nil for an empty file.
	Root *yaml.Node

	file *yaml.Node
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// Load reads and parses the document at path
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gerrors.Newf(gerrors.KindSourceReadFailure, gerrors.RootIndex,
			"failed to read %s: %v", path, err).
			WithLocation(gerrors.Location{File: path})
	}
	return Parse(path, data)
}

// Parse parses document bytes. The path is only used for error locations.
func Parse(path string, data []byte) (*Document, error) {
	var file yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		loc := gerrors.Location{File: path}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			loc.Line, _ = strconv.Atoi(m[1])
		}
		return nil, gerrors.Newf(gerrors.KindSourceReadFailure, gerrors.RootIndex,
			"failed to parse %s: %v", path, err).
			WithLocation(loc)
	}

	doc := &Document{Path: path, file: &file}
	if file.Kind == yaml.DocumentNode && len(file.Content) > 0 {
		doc.Root = file.Content[0]
	}
	return doc, nil
}

// Location returns the source position of a node
func (d *Document) Location(n *yaml.Node) gerrors.Location {
	loc := gerrors.Location{File: d.Path}
	if n != nil {
		loc.Line = n.Line
		loc.Column = n.Column
	}
	return loc
}

// Lookup returns the value node stored under key in a mapping node, and the
// key node itself
func Lookup(mapping *yaml.Node, key string) (keyNode, value *yaml.Node) {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i], mapping.Content[i+1]
		}
	}
	return nil, nil
}

// TermNodes returns the nodes of the term records, or nil when the document
// has no terms sequence
func (d *Document) TermNodes() []*yaml.Node {
	_, terms := Lookup(d.Root, KeyTerms)
	if terms == nil || terms.Kind != yaml.SequenceNode {
		return nil
	}
	return terms.Content
}

// TermLocation returns the position of the record at index, or the document
// position when the index is out of range
func (d *Document) TermLocation(index int) gerrors.Location {
	nodes := d.TermNodes()
	if index < 0 || index >= len(nodes) {
		return gerrors.Location{File: d.Path}
	}
	return d.Location(nodes[index])
}

// RedirectLocation returns the position of the redirect keyed by from
func (d *Document) RedirectLocation(from string) gerrors.Location {
	_, redirects := Lookup(d.Root, KeyRedirects)
	keyNode, _ := Lookup(redirects, from)
	if keyNode == nil {
		return gerrors.Location{File: d.Path}
	}
	return d.Location(keyNode)
}

// Snapshot decodes the document into raw records and ordered redirects. It
// assumes the document already passed the schema check.
func (d *Document) Snapshot() (glossary.Snapshot, error) {
	var snap glossary.Snapshot
	if d.Root == nil {
		return snap, gerrors.New(gerrors.KindSourceReadFailure, gerrors.RootIndex, "document is empty").
			WithLocation(gerrors.Location{File: d.Path})
	}

	for _, n := range d.TermNodes() {
		raw, ok := nodeValue(n).(map[string]any)
		if !ok {
			return snap, gerrors.New(gerrors.KindSchemaViolation, gerrors.RootIndex, "term record is not a mapping").
				WithLocation(d.Location(n))
		}
		snap.Terms = append(snap.Terms, glossary.Raw(raw))
	}

	_, redirects := Lookup(d.Root, KeyRedirects)
	if redirects != nil && redirects.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(redirects.Content); i += 2 {
			snap.Redirects = append(snap.Redirects, glossary.Redirect{
				From: scalarText(redirects.Content[i]),
				To:   scalarText(redirects.Content[i+1]),
			})
		}
	}
	return snap, nil
}

// scalarText returns the text of a scalar, following aliases
func scalarText(n *yaml.Node) string {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n.Value
}

// nodeValue converts a node into plain Go values. Scalars keep their source
// text so that YAML's implicit typing (numbers, dates) never changes a value.
func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
		return n.Value
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, nodeValue(c))
		}
		return items
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return m
	}
	return nil
}

// KindName describes a node kind for error messages
func KindName(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return fmt.Sprintf("a scalar (%s)", n.ShortTag())
	case yaml.AliasNode:
		return KindName(n.Alias)
	}
	return "an unknown value"
}
