package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

const validSource = `# Developer slang
terms:
  - slug: yak-shaving
    term: Yak Shaving
    definition: Doing a long chain of seemingly unrelated tasks that must be finished before the task you set out to do.
    explanation: Named after a Ren and Stimpy episode.
    humor: The yak did not ask for this.
    tags: [process, productivity]
    see_also: [bikeshedding]
  - slug: bikeshedding
    term: Bikeshedding
    definition: Spending a disproportionate amount of time on trivial details while important decisions get waved through.
redirects:
  bike-shed: bikeshedding
`

const projectConfig = `source: terms.yaml
output: dist/terms.json
log:
  level: warn
`

// setupProject creates a project with a config file and the given source in a
// temp dir and makes it the working directory
func setupProject(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "glossary.yml"), []byte(projectConfig), 0644))
	if source != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "terms.yaml"), []byte(source), 0644))
	}
	chdir(t, dir)
	return dir
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

// execute runs the root command with args and captures its output
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// syncBuffer is a bytes.Buffer safe for a writer and a reader goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Count(s string) int {
	return strings.Count(b.String(), s)
}
