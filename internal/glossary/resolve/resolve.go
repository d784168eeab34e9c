// Package resolve enforces identity across the whole term list: unique slugs,
// unique names and aliases, and redirects that point from retired slugs to
// active ones.
package resolve

import (
	"fmt"
	"strings"

	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
)

// Options tunes the checks that go beyond the baseline identity rules
type Options struct {
	// RejectChains turns redirect chains into errors instead of warnings
	RejectChains bool
	// Published is the slug set of the previously published artifact. When
	// set, slugs that vanished without a redirect are reported.
	Published []string
}

// Index answers identity lookups over a resolved term list
type Index struct {
	slugs      map[string]int
	identities map[string]int
	redirects  map[string]string
}

// Resolve checks the normalized terms and redirects in one pass, collecting
// every violation before returning. The returned index is usable even when
// errors were found.
func Resolve(terms []glossary.Term, redirects []glossary.Redirect, opts Options) (*Index, gerrors.List) {
	var diags gerrors.List
	idx := &Index{
		slugs:      make(map[string]int, len(terms)),
		identities: make(map[string]int, len(terms)),
		redirects:  make(map[string]string, len(redirects)),
	}

	for i, t := range terms {
		if first, ok := idx.slugs[t.Slug]; ok {
			diags.Add(gerrors.Newf(gerrors.KindDuplicateSlug, i,
				"slug %q is already used by term %d", t.Slug, first).
				WithRelated(first).WithKey(t.Slug).WithField(glossary.FieldSlug))
		} else {
			idx.slugs[t.Slug] = i
		}

		reported := make(map[string]bool)
		for _, name := range t.Names() {
			key := glossary.IdentityKey(name)
			if reported[key] {
				continue
			}
			first, ok := idx.identities[key]
			switch {
			case !ok:
				idx.identities[key] = i
			case first != i:
				reported[key] = true
				diags.Add(gerrors.Newf(gerrors.KindDuplicateNameConflict, i,
					"name %q has identity key %q, already used by term %d (%s)",
					name, key, first, terms[first].Slug).
					WithRelated(first).WithKey(key))
			}
		}
	}

	for _, r := range redirects {
		idx.redirects[r.From] = r.To
		if idx.Active(r.From) {
			diags.Add(gerrors.Newf(gerrors.KindRedirectConflict, gerrors.RootIndex,
				"redirect source %q is an active slug", r.From).WithKey(r.From))
		}
		if !idx.Active(r.To) {
			diags.Add(gerrors.Newf(gerrors.KindRedirectTargetMissing, gerrors.RootIndex,
				"redirect %q points at %q, which is not an active slug", r.From, r.To).
				WithKey(r.From).WithTarget(r.To))
		}
	}

	diags.Add(idx.chains(redirects, opts.RejectChains)...)
	diags.Add(idx.crossRefs(terms)...)
	diags.Add(idx.retired(opts.Published)...)

	return idx, diags
}

// chains reports redirects whose target is itself a redirect source
func (idx *Index) chains(redirects []glossary.Redirect, reject bool) gerrors.List {
	var diags gerrors.List
	for _, r := range redirects {
		if _, ok := idx.redirects[r.To]; !ok {
			continue
		}
		path, cyclic := idx.follow(r.From)
		var d gerrors.Diagnostic
		if cyclic {
			d = gerrors.Newf(gerrors.KindRedirectChain, gerrors.RootIndex,
				"redirect %q is part of a cycle: %s", r.From, strings.Join(path, " -> "))
		} else {
			d = gerrors.Newf(gerrors.KindRedirectChain, gerrors.RootIndex,
				"redirect %q chains through %s; point it at %q directly",
				r.From, strings.Join(path, " -> "), path[len(path)-1])
		}
		d = d.WithKey(r.From).WithTarget(path[len(path)-1])
		if !reject {
			d = d.AsWarning()
		}
		diags.Add(d)
	}
	return diags
}

// follow walks redirects from slug and returns the visited path. The path
// ends at the first slug that is not a redirect source, or repeats the first
// revisited slug when the walk loops.
func (idx *Index) follow(slug string) ([]string, bool) {
	path := []string{slug}
	seen := map[string]bool{slug: true}
	for {
		next, ok := idx.redirects[slug]
		if !ok {
			return path, false
		}
		path = append(path, next)
		if seen[next] {
			return path, true
		}
		seen[next] = true
		slug = next
	}
}

func (idx *Index) crossRefs(terms []glossary.Term) gerrors.List {
	var diags gerrors.List
	for i, t := range terms {
		for _, ref := range t.SeeAlso {
			if _, ok := idx.Lookup(ref); ok {
				continue
			}
			diags.Add(gerrors.Newf(gerrors.KindUnresolvedSeeAlso, i,
				"see_also entry %q does not match any term or redirect", ref).
				WithKey(ref).WithField(glossary.FieldSeeAlso).AsWarning())
		}
	}
	return diags
}

func (idx *Index) retired(published []string) gerrors.List {
	var diags gerrors.List
	for _, slug := range published {
		if _, active := idx.slugs[slug]; active {
			continue
		}
		if _, redirected := idx.redirects[slug]; redirected {
			continue
		}
		diags.Add(gerrors.Newf(gerrors.KindRetiredWithoutRedirect, gerrors.RootIndex,
			"published slug %q was removed without a redirect", slug).
			WithKey(slug).AsWarning())
	}
	return diags
}

// Lookup returns the index of the active term for slug, following redirects.
// Broken or cyclic redirects do not resolve.
func (idx *Index) Lookup(slug string) (int, bool) {
	if i, ok := idx.slugs[slug]; ok {
		return i, true
	}
	path, cyclic := idx.follow(slug)
	if cyclic || len(path) == 1 {
		return 0, false
	}
	i, ok := idx.slugs[path[len(path)-1]]
	return i, ok
}

// Active reports whether slug belongs to a term
func (idx *Index) Active(slug string) bool {
	_, ok := idx.slugs[slug]
	return ok
}

// Slugs returns every active slug, in no particular order
func (idx *Index) Slugs() []string {
	out := make([]string, 0, len(idx.slugs))
	for s := range idx.slugs {
		out = append(out, s)
	}
	return out
}

// Known returns the active slugs followed by redirect sources, for suggestions
func (idx *Index) Known() []string {
	out := idx.Slugs()
	for from := range idx.redirects {
		out = append(out, from)
	}
	return out
}

// String summarizes the index
func (idx *Index) String() string {
	return fmt.Sprintf("%d slugs, %d names, %d redirects", len(idx.slugs), len(idx.identities), len(idx.redirects))
}
