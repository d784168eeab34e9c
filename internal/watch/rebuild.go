package watch

import (
	"crypto/sha256"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BuildFunc runs the pipeline for a set of changed files
type BuildFunc func(changed []string) error

// Rebuilder reruns a build when watched files change content. Saves that do
// not change the bytes, and events that arrive while a build is running for
// the same content, are skipped.
type Rebuilder struct {
	mu     sync.Mutex
	build  BuildFunc
	logger *zap.Logger

	// Content hashes by file, as of the last build
	hashes map[string][sha256.Size]byte
}

// RebuildResult holds the result of a rebuild
type RebuildResult struct {
	Success      bool
	Skipped      bool
	Err          error
	Duration     time.Duration
	ChangedFiles []string
}

// NewRebuilder creates a Rebuilder
func NewRebuilder(build BuildFunc, logger *zap.Logger) *Rebuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rebuilder{
		build:  build,
		logger: logger,
		hashes: make(map[string][sha256.Size]byte),
	}
}

// Rebuild runs the build if any of files changed since the last build
func (r *Rebuilder) Rebuild(files []string) *RebuildResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	result := &RebuildResult{}

	current := make(map[string][sha256.Size]byte, len(files))
	for _, file := range files {
		sum := hashFile(file)
		current[file] = sum
		if prev, ok := r.hashes[file]; !ok || prev != sum {
			result.ChangedFiles = append(result.ChangedFiles, file)
		}
	}
	sort.Strings(result.ChangedFiles)

	if len(result.ChangedFiles) == 0 {
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		r.logger.Debug("Content unchanged, skipping rebuild", zap.Strings("files", files))
		return result
	}

	result.Err = r.build(result.ChangedFiles)
	result.Success = result.Err == nil
	result.Duration = time.Since(start)

	// Failed builds are recorded as well
	for file, sum := range current {
		r.hashes[file] = sum
	}

	r.logger.Debug("Rebuild finished",
		zap.Strings("changed", result.ChangedFiles),
		zap.Bool("success", result.Success),
		zap.Duration("duration", result.Duration))
	return result
}

// FullBuild forgets every recorded hash and builds files
func (r *Rebuilder) FullBuild(files []string) *RebuildResult {
	r.ClearCache()
	return r.Rebuild(files)
}

// ClearCache forgets the recorded hashes so the next Rebuild always runs
func (r *Rebuilder) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes = make(map[string][sha256.Size]byte)
}

// hashFile returns the content hash of file. Unreadable files hash to zero so
// that a deleted file counts as a change and the build reports it.
func hashFile(file string) [sha256.Size]byte {
	data, err := os.ReadFile(file)
	if err != nil {
		return [sha256.Size]byte{}
	}
	return sha256.Sum256(data)
}
