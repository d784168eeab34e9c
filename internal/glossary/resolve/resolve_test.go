package resolve

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
)

func term(slug, name string, aliases ...string) glossary.Term {
	return glossary.Term{Slug: slug, Term: name, Definition: "d", Aliases: aliases}
}

func TestResolveClean(t *testing.T) {
	terms := []glossary.Term{
		term("git", "Git"),
		term("continuous-integration", "Continuous Integration", "CI"),
	}
	redirects := []glossary.Redirect{{From: "ci-cd", To: "continuous-integration"}}

	idx, diags := Resolve(terms, redirects, Options{})
	assert.Empty(t, diags)
	assert.NoError(t, diags.Err())

	i, ok := idx.Lookup("ci-cd")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	assert.True(t, idx.Active("git"))
	assert.False(t, idx.Active("ci-cd"))
}

func TestResolveDuplicateSlug(t *testing.T) {
	terms := []glossary.Term{
		term("git", "Git"),
		term("svn", "Subversion"),
		term("git", "Git SCM"),
		term("git", "Gitty"),
	}

	_, diags := Resolve(terms, nil, Options{})
	dups := diags.OfKind(gerrors.KindDuplicateSlug)
	require.Len(t, dups, 2)

	assert.Equal(t, 2, dups[0].Index)
	assert.Equal(t, 0, dups[0].RelatedIndex)
	assert.Equal(t, 3, dups[1].Index)
	assert.Equal(t, 0, dups[1].RelatedIndex)
	assert.Equal(t, "git", dups[1].Key)
}

func TestResolveDuplicateNameConflict(t *testing.T) {
	terms := []glossary.Term{
		term("rtfm", "RTFM"),
		term("rtfm-again", "rtfm!!!"),
	}

	_, diags := Resolve(terms, nil, Options{})
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, gerrors.KindDuplicateNameConflict, d.Kind)
	assert.Equal(t, 1, d.Index)
	assert.Equal(t, 0, d.RelatedIndex)
	assert.Equal(t, "rtfm", d.Key)
	assert.True(t, d.IsError())
}

func TestResolveAliasConflicts(t *testing.T) {
	terms := []glossary.Term{
		term("continuous-integration", "Continuous Integration", "CI"),
		term("code-insight", "Code Insight", "C.I.", "ci"),
		term("self-alias", "Self", "self", "SELF!"),
	}

	_, diags := Resolve(terms, nil, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Index)
	assert.Equal(t, "ci", diags[0].Key)
}

func TestResolveEmptyIdentityKeys(t *testing.T) {
	terms := []glossary.Term{
		term("punct", "!!!"),
		term("more-punct", "???"),
		term("dashes", "Dashes", "--"),
	}

	_, diags := Resolve(terms, nil, Options{})
	conflicts := diags.OfKind(gerrors.KindDuplicateNameConflict)
	require.Len(t, conflicts, 2)
	for i, d := range conflicts {
		assert.Equal(t, i+1, d.Index)
		assert.Equal(t, 0, d.RelatedIndex)
		assert.Equal(t, "", d.Key)
	}
}

func TestResolveRedirects(t *testing.T) {
	terms := []glossary.Term{
		term("continuous-integration", "Continuous Integration"),
		term("git", "Git"),
	}

	tests := []struct {
		name      string
		redirects []glossary.Redirect
		kinds     []gerrors.Kind
	}{
		{
			name:      "valid redirect",
			redirects: []glossary.Redirect{{From: "ci-cd", To: "continuous-integration"}},
		},
		{
			name:      "source is active",
			redirects: []glossary.Redirect{{From: "continuous-integration", To: "git"}},
			kinds:     []gerrors.Kind{gerrors.KindRedirectConflict},
		},
		{
			name:      "source active and target missing",
			redirects: []glossary.Redirect{{From: "continuous-integration", To: "x"}},
			kinds:     []gerrors.Kind{gerrors.KindRedirectConflict, gerrors.KindRedirectTargetMissing},
		},
		{
			name:      "target missing",
			redirects: []glossary.Redirect{{From: "old-git", To: "gitt"}},
			kinds:     []gerrors.Kind{gerrors.KindRedirectTargetMissing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := Resolve(terms, tt.redirects, Options{})
			var kinds []gerrors.Kind
			for _, d := range diags {
				kinds = append(kinds, d.Kind)
				assert.Equal(t, gerrors.RootIndex, d.Index)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestResolveChains(t *testing.T) {
	terms := []glossary.Term{term("final", "Final")}
	redirects := []glossary.Redirect{
		{From: "first", To: "middle"},
		{From: "middle", To: "final"},
	}

	t.Run("warning by default", func(t *testing.T) {
		_, diags := Resolve(terms, redirects, Options{})
		chains := diags.OfKind(gerrors.KindRedirectChain)
		require.Len(t, chains, 1)
		assert.True(t, chains[0].IsWarning())
		assert.Equal(t, "first", chains[0].Key)
		assert.Contains(t, chains[0].Message, "first -> middle -> final")

		// "first" points at a redirect, not an active slug
		assert.True(t, diags.Has(gerrors.KindRedirectTargetMissing))
	})

	t.Run("error when rejected", func(t *testing.T) {
		_, diags := Resolve(terms, redirects, Options{RejectChains: true})
		chains := diags.OfKind(gerrors.KindRedirectChain)
		require.Len(t, chains, 1)
		assert.True(t, chains[0].IsError())
	})

	t.Run("cycle", func(t *testing.T) {
		cyclic := []glossary.Redirect{
			{From: "aaa", To: "bbb"},
			{From: "bbb", To: "aaa"},
		}
		idx, diags := Resolve(terms, cyclic, Options{})
		chains := diags.OfKind(gerrors.KindRedirectChain)
		require.Len(t, chains, 2)
		assert.Contains(t, chains[0].Message, "cycle")

		_, ok := idx.Lookup("aaa")
		assert.False(t, ok)
	})
}

func TestResolveCrossRefs(t *testing.T) {
	a := term("git", "Git")
	a.SeeAlso = []string{"github", "old-svn", "nowhere"}
	terms := []glossary.Term{a, term("github", "GitHub"), term("svn", "Subversion")}
	redirects := []glossary.Redirect{{From: "old-svn", To: "svn"}}

	_, diags := Resolve(terms, redirects, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, gerrors.KindUnresolvedSeeAlso, diags[0].Kind)
	assert.Equal(t, "nowhere", diags[0].Key)
	assert.Equal(t, 0, diags[0].Index)
	assert.True(t, diags[0].IsWarning())
	assert.NoError(t, diags.Err())
}

func TestResolveRetired(t *testing.T) {
	terms := []glossary.Term{term("git", "Git")}
	redirects := []glossary.Redirect{{From: "old-git", To: "git"}}

	_, diags := Resolve(terms, redirects, Options{Published: []string{"git", "old-git", "svn"}})
	require.Len(t, diags, 1)
	assert.Equal(t, gerrors.KindRetiredWithoutRedirect, diags[0].Kind)
	assert.Equal(t, "svn", diags[0].Key)
	assert.True(t, diags[0].IsWarning())
}

func TestResolveCollectsEverything(t *testing.T) {
	terms := []glossary.Term{
		term("git", "Git"),
		term("git", "GIT"),
		term("rtfm", "RTFM"),
		term("rtfm-2", "R.T.F.M."),
	}
	redirects := []glossary.Redirect{
		{From: "rtfm", To: "git"},
		{From: "old", To: "missing"},
	}

	_, diags := Resolve(terms, redirects, Options{})
	assert.True(t, diags.Has(gerrors.KindDuplicateSlug))
	assert.True(t, diags.Has(gerrors.KindDuplicateNameConflict))
	assert.True(t, diags.Has(gerrors.KindRedirectConflict))
	assert.True(t, diags.Has(gerrors.KindRedirectTargetMissing))
	assert.Len(t, diags.Errors(), 5)
}

func TestIndexSlugs(t *testing.T) {
	idx, _ := Resolve([]glossary.Term{term("git", "Git"), term("svn", "SVN")},
		[]glossary.Redirect{{From: "old-git", To: "git"}}, Options{})

	slugs := idx.Slugs()
	sort.Strings(slugs)
	assert.Equal(t, []string{"git", "svn"}, slugs)

	known := idx.Known()
	sort.Strings(known)
	assert.Equal(t, []string{"git", "old-git", "svn"}, known)
	assert.Equal(t, "2 slugs, 2 names, 1 redirects", idx.String())
}
