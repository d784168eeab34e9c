package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_Start(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "terms.yaml")
	other := filepath.Join(tmpDir, "notes.txt")
	require.NoError(t, os.WriteFile(source, []byte("terms: []\n"), 0644))

	var mu sync.Mutex
	var changes [][]string

	watcher, err := NewFileWatcher(Options{
		Root:     tmpDir,
		Files:    []string{source},
		Debounce: 50 * time.Millisecond,
	}, func(files []string) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, files)
		return nil
	})
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.Start())

	// Allow watcher to initialize
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(source, []byte("terms:\n  - slug: abc\n"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, batch := range changes {
		assert.Equal(t, []string{source}, batch)
	}
}

func TestNewFileWatcherInvalidPattern(t *testing.T) {
	_, err := NewFileWatcher(Options{Ignore: []string{"[unclosed"}}, func([]string) error { return nil })
	assert.Error(t, err)
}

func TestFileWatcher_ShouldIgnore(t *testing.T) {
	watcher := &FileWatcher{
		root:    "/project",
		ignored: []string{"**/.*", "**/dist/**", "*.swp"},
	}

	tests := []struct {
		path     string
		expected bool
	}{
		{"/project/terms.yaml", false},
		{"/project/.terms.yaml.swx", true},
		{"/project/content/.hidden", true},
		{"/project/dist/terms.json", true},
		{"/project/site/dist/terms.json", true},
		{"/project/terms.yaml.swp", true},
		{"/project/content/terms.yaml", false},
		{"/elsewhere/terms.yaml", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, watcher.shouldIgnore(tt.path))
		})
	}
}

func TestFileWatcher_Matches(t *testing.T) {
	watcher := &FileWatcher{files: map[string]bool{"/project/terms.yaml": true}}
	assert.True(t, watcher.matches("/project/terms.yaml"))
	assert.True(t, watcher.matches("/project/./terms.yaml"))
	assert.False(t, watcher.matches("/project/other.yaml"))

	all := &FileWatcher{files: map[string]bool{}}
	assert.True(t, all.matches("anything.txt"))
}

func TestFileWatcher_Directories(t *testing.T) {
	watcher := &FileWatcher{files: map[string]bool{
		"/b/terms.yaml": true,
		"/a/one.yaml":   true,
		"/a/two.yaml":   true,
	}}
	assert.Equal(t, []string{"/a", "/b"}, watcher.directories())
}

func TestFileWatcher_Stop(t *testing.T) {
	tmpDir := t.TempDir()
	watcher, err := NewFileWatcher(Options{Files: []string{filepath.Join(tmpDir, "terms.yaml")}},
		func(files []string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, watcher.Start())

	assert.NoError(t, watcher.Stop())
	// Second stop is a no-op
	assert.NoError(t, watcher.Stop())
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var calls int
	var files []string

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		files = f
	})

	debouncer.Add("b.yaml")
	debouncer.Add("a.yaml")
	debouncer.Add("b.yaml") // Duplicate

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, files)
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	var callCount int

	debouncer := NewDebouncer(20 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	})

	debouncer.Add("terms.yaml")
	time.Sleep(80 * time.Millisecond)
	debouncer.Add("terms.yaml")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return callCount == 2
	}, time.Second, 10*time.Millisecond)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var mu sync.Mutex
	called := false

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	debouncer.Add("terms.yaml")
	debouncer.Stop()
	debouncer.Add("terms.yaml")
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, called)
}

func BenchmarkDebouncer_Add(b *testing.B) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	debouncer.SetCallback(func(files []string) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		debouncer.Add("terms.yaml")
	}
}
