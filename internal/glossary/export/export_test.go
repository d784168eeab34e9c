package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
)

var fixedTime = time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.FixedZone("CET", 3600))

func fixedClock() time.Time { return fixedTime }

func sampleTerms() []glossary.Term {
	def := strings.Repeat("d", 80)
	return []glossary.Term{
		{Slug: "zebra", Term: "Zebra <Striped>", Definition: def, Tags: []string{"animals"}},
		{Slug: "apple", Term: "Apple & Co", Definition: def, ControversyLevel: glossary.ControversyLow},
	}
}

func TestNewArtifact(t *testing.T) {
	a := NewArtifact(sampleTerms(), " abc1234 ", fixedTime)
	assert.Equal(t, "abc1234", a.Version)
	assert.Equal(t, "2026-03-14T14:09:26.535Z", a.GeneratedAt)
	assert.Equal(t, 2, a.TermsCount)
	assert.Equal(t, []string{"zebra", "apple"}, a.Slugs())

	empty := NewArtifact(nil, "", fixedTime)
	assert.Equal(t, UnknownVersion, empty.Version)
	assert.Equal(t, 0, empty.TermsCount)
	assert.NotNil(t, empty.Terms)
}

func TestEncodeShape(t *testing.T) {
	e := New(Options{Indent: 2})
	data, err := e.Encode(NewArtifact(sampleTerms(), "abc1234", fixedTime))
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &top))
	assert.Len(t, top, 4)
	for _, key := range []string{"version", "generated_at", "terms_count", "terms"} {
		assert.Contains(t, top, key)
	}

	var terms []map[string]any
	require.NoError(t, json.Unmarshal(top["terms"], &terms))
	require.Len(t, terms, 2)
	assert.Equal(t, "zebra", terms[0]["slug"])
	assert.NotContains(t, terms[0], "humor")
	assert.NotContains(t, terms[0], "aliases")
	assert.NotContains(t, terms[0], "controversy_level")
	assert.Equal(t, "low", terms[1]["controversy_level"])

	// HTML characters stay readable
	assert.Contains(t, string(data), "Zebra <Striped>")
	assert.Contains(t, string(data), "Apple & Co")
	assert.Contains(t, string(data), "\n  \"version\"")
}

func TestEncodeDeterministic(t *testing.T) {
	e := New(Options{})
	first, err := e.Encode(NewArtifact(sampleTerms(), "v", fixedTime))
	require.NoError(t, err)
	second, err := e.Encode(NewArtifact(sampleTerms(), "v", fixedTime))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExportWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist", "terms.json")
	e := New(Options{Indent: 2, Clock: fixedClock})

	out, err := e.Export(sampleTerms(), "abc1234", path)
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.False(t, out.Skipped)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out.Bytes, len(data))

	var a Artifact
	require.NoError(t, json.Unmarshal(data, &a))
	assert.Equal(t, len(a.Terms), a.TermsCount)
	assert.Equal(t, "abc1234", a.Version)
	assert.Equal(t, sampleTerms(), a.Terms)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestExportSizeLimit(t *testing.T) {
	// 22 terms with 100,000-character definitions serialize to about 2.2 MB
	def := strings.Repeat("x", 100_000)
	terms := make([]glossary.Term, 22)
	for i := range terms {
		terms[i] = glossary.Term{Slug: "term-" + string(rune('a'+i)) + "xx", Term: "T", Definition: def}
	}

	path := filepath.Join(t.TempDir(), "terms.json")
	e := New(Options{Indent: 2, Clock: fixedClock})

	out, err := e.Export(terms, "abc1234", path)
	require.Error(t, err)
	assert.Nil(t, out)

	var sizeErr *SizeLimitError
	require.True(t, errors.As(err, &sizeErr))
	assert.Greater(t, sizeErr.ActualBytes, 2_200_000)
	assert.Equal(t, DefaultMaxBytes, sizeErr.LimitBytes)

	list, ok := gerrors.AsList(err)
	require.True(t, ok)
	assert.Equal(t, gerrors.KindSizeLimitExceeded, list[0].Kind)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no artifact may be written")
}

func TestExportSizeLimitCannotBeRaised(t *testing.T) {
	def := strings.Repeat("x", 100_000)
	terms := make([]glossary.Term, 22)
	for i := range terms {
		terms[i] = glossary.Term{Slug: "term-" + string(rune('a'+i)) + "xx", Term: "T", Definition: def}
	}

	path := filepath.Join(t.TempDir(), "terms.json")
	e := New(Options{MaxBytes: 5_000_000, Clock: fixedClock})

	_, err := e.Export(terms, "abc1234", path)
	require.Error(t, err)

	var sizeErr *SizeLimitError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, DefaultMaxBytes, sizeErr.LimitBytes)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportSizeBoundary(t *testing.T) {
	artifact := NewArtifact(sampleTerms(), "v", fixedTime)
	data, err := New(Options{}).Encode(artifact)
	require.NoError(t, err)

	dir := t.TempDir()

	exact := New(Options{MaxBytes: len(data), Clock: fixedClock})
	out, err := exact.Export(sampleTerms(), "v", filepath.Join(dir, "exact.json"))
	require.NoError(t, err)
	assert.Equal(t, len(data), out.Bytes)

	under := New(Options{MaxBytes: len(data) - 1, Clock: fixedClock})
	_, err = under.Export(sampleTerms(), "v", filepath.Join(dir, "under.json"))
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "under.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportFailedWriteKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"previous":true}`), 0644))

	big := sampleTerms()
	big[0].Definition = strings.Repeat("x", 1000)
	_, err := New(Options{MaxBytes: 500, Clock: fixedClock}).Export(big, "v", path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"previous":true}`, string(data))
}

func TestExportWriteError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := New(Options{Clock: fixedClock}).Export(sampleTerms(), "v", filepath.Join(blocker, "terms.json"))
	require.Error(t, err)

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, gerrors.KindArtifactWriteFailure, writeErr.Diagnostic().Kind)
}

func TestExportSkipUnlessNewSlug(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms.json")

	t.Run("no previous artifact writes", func(t *testing.T) {
		published, err := PublishedSlugs(path)
		require.NoError(t, err)
		assert.Nil(t, published)

		out, err := New(Options{SkipUnlessNewSlug: true, Published: published, Clock: fixedClock}).
			Export(sampleTerms(), "v1", path)
		require.NoError(t, err)
		assert.True(t, out.Written)
	})

	t.Run("same slugs skip", func(t *testing.T) {
		published, err := PublishedSlugs(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"zebra", "apple"}, published)

		out, err := New(Options{SkipUnlessNewSlug: true, Published: published, Clock: fixedClock}).
			Export(sampleTerms(), "v2", path)
		require.NoError(t, err)
		assert.True(t, out.Skipped)
		assert.False(t, out.Written)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"version":"v1"`)
	})

	t.Run("new slug writes", func(t *testing.T) {
		published, err := PublishedSlugs(path)
		require.NoError(t, err)

		terms := append(sampleTerms(), glossary.Term{Slug: "mango", Term: "Mango", Definition: strings.Repeat("m", 80)})
		out, err := New(Options{SkipUnlessNewSlug: true, Published: published, Clock: fixedClock}).
			Export(terms, "v3", path)
		require.NoError(t, err)
		assert.True(t, out.Written)
		assert.Equal(t, []string{"mango"}, out.NewSlugs)
	})
}

func TestPublishedSlugsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
	_, err := PublishedSlugs(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"terms":[]}`), 0644))
	slugs, err := PublishedSlugs(path)
	require.NoError(t, err)
	assert.NotNil(t, slugs)
	assert.Empty(t, slugs)
}

func TestNewSlugs(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, NewSlugs([]string{"c", "a", "b"}, []string{"a"}))
	assert.Nil(t, NewSlugs([]string{"a"}, []string{"a", "z"}))
}

func TestDetectRevisionOutsideRepository(t *testing.T) {
	rev := DetectRevision(context.Background(), t.TempDir())
	assert.Equal(t, UnknownVersion, rev)
}
