package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuilder(t *testing.T) {
	source := filepath.Join(t.TempDir(), "terms.yaml")
	require.NoError(t, os.WriteFile(source, []byte("v1"), 0644))

	var builds [][]string
	r := NewRebuilder(func(changed []string) error {
		builds = append(builds, changed)
		return nil
	}, nil)

	first := r.Rebuild([]string{source})
	assert.True(t, first.Success)
	assert.False(t, first.Skipped)
	assert.Equal(t, []string{source}, first.ChangedFiles)

	// Same bytes saved again
	same := r.Rebuild([]string{source})
	assert.True(t, same.Skipped)
	assert.Len(t, builds, 1)

	require.NoError(t, os.WriteFile(source, []byte("v2"), 0644))
	changed := r.Rebuild([]string{source})
	assert.False(t, changed.Skipped)
	assert.Len(t, builds, 2)

	full := r.FullBuild([]string{source})
	assert.False(t, full.Skipped)
	assert.Len(t, builds, 3)
}

func TestRebuilderFailure(t *testing.T) {
	source := filepath.Join(t.TempDir(), "terms.yaml")
	require.NoError(t, os.WriteFile(source, []byte("broken"), 0644))

	boom := errors.New("validation failed")
	calls := 0
	r := NewRebuilder(func([]string) error {
		calls++
		return boom
	}, nil)

	result := r.Rebuild([]string{source})
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, boom)

	// Unchanged broken content is not rebuilt
	assert.True(t, r.Rebuild([]string{source}).Skipped)
	assert.Equal(t, 1, calls)
}

func TestRebuilderDeletedFile(t *testing.T) {
	source := filepath.Join(t.TempDir(), "terms.yaml")
	require.NoError(t, os.WriteFile(source, []byte("v1"), 0644))

	calls := 0
	r := NewRebuilder(func([]string) error { calls++; return nil }, nil)
	r.Rebuild([]string{source})

	require.NoError(t, os.Remove(source))
	result := r.Rebuild([]string{source})
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, calls)
}
