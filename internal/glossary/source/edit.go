package source

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/devterms/glossary/internal/glossary"
)

// TermNode builds the mapping node of a term, fields in canonical order and
// absent optional fields left out
func TermNode(t glossary.Term) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(t); err != nil {
		return nil, fmt.Errorf("failed to encode term %q: %w", t.Slug, err)
	}
	return &n, nil
}

// AppendTerm adds a term record to the end of the terms sequence. A document
// without one gets a new terms key. Comments and the layout of existing
// records are kept.
func (d *Document) AppendTerm(t glossary.Term) error {
	node, err := TermNode(t)
	if err != nil {
		return err
	}

	if d.Root == nil {
		d.Root = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		d.file = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{d.Root}}
	}
	if d.Root.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: document root is %s, not a mapping", d.Path, KindName(d.Root))
	}

	_, terms := Lookup(d.Root, KeyTerms)
	if terms == nil {
		terms = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: KeyTerms}
		d.Root.Content = append([]*yaml.Node{key, terms}, d.Root.Content...)
	}
	if terms.Kind != yaml.SequenceNode {
		return fmt.Errorf("%s: %s is %s, not a sequence", d.Path, KeyTerms, KindName(terms))
	}
	// A flow style list would put the whole record on one line
	terms.Style &^= yaml.FlowStyle
	terms.Content = append(terms.Content, node)
	return nil
}

// Encode renders the document back to YAML with two-space indentation
func (d *Document) Encode() ([]byte, error) {
	root := d.file
	if root == nil || root.Kind == 0 {
		if d.Root == nil {
			return nil, nil
		}
		root = d.Root
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", d.Path, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Snippet renders a term as a single item of the terms sequence, ready to be
// pasted under terms:
func Snippet(t glossary.Term) ([]byte, error) {
	node, err := TermNode(t)
	if err != nil {
		return nil, err
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: []*yaml.Node{node}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return nil, fmt.Errorf("failed to encode term %q: %w", t.Slug, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
