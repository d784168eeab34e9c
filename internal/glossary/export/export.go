// Package export assembles the published glossary artifact. It is the only
// pipeline stage that writes to disk, and it writes all or nothing.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
)

const (
	// DefaultMaxBytes is the size ceiling of the serialized artifact (2 MiB)
	DefaultMaxBytes = 2 * 1024 * 1024

	// DefaultIndent is the number of spaces used to indent the JSON output
	DefaultIndent = 2

	// UnknownVersion is published when no revision is available
	UnknownVersion = "unknown"

	// TimeFormat is ISO-8601 in UTC with millisecond precision
	TimeFormat = "2006-01-02T15:04:05.000Z"
)

// Artifact is the published document. TermsCount always equals len(Terms).
type Artifact struct {
	Version     string          `json:"version"`
	GeneratedAt string          `json:"generated_at"`
	TermsCount  int             `json:"terms_count"`
	Terms       []glossary.Term `json:"terms"`
}

// NewArtifact builds an artifact for terms, in the order given
func NewArtifact(terms []glossary.Term, version string, now time.Time) Artifact {
	version = strings.TrimSpace(version)
	if version == "" {
		version = UnknownVersion
	}
	if terms == nil {
		terms = []glossary.Term{}
	}
	return Artifact{
		Version:     version,
		GeneratedAt: now.UTC().Format(TimeFormat),
		TermsCount:  len(terms),
		Terms:       terms,
	}
}

// Slugs returns the slugs of the artifact's terms
func (a Artifact) Slugs() []string {
	slugs := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		slugs[i] = t.Slug
	}
	return slugs
}

// Options configures an Exporter
type Options struct {
	// MaxBytes lowers the size ceiling; zero or anything above DefaultMaxBytes means DefaultMaxBytes
	MaxBytes int
	// Indent is the number of spaces per JSON level; zero writes compact JSON
	Indent int
	// SkipUnlessNewSlug makes Export a no-op when every slug was already
	// published. It only applies when Published is non-nil.
	SkipUnlessNewSlug bool
	// Published is the slug set of the previously published artifact
	Published []string
	// Clock returns the generation time; defaults to time.Now
	Clock  func() time.Time
	Logger *zap.Logger
}

// Exporter serializes and writes artifacts
type Exporter struct {
	maxBytes  int
	indent    int
	skip      bool
	published []string
	clock     func() time.Time
	logger    *zap.Logger
}

// New creates an Exporter
func New(opts Options) *Exporter {
	e := &Exporter{
		maxBytes:  opts.MaxBytes,
		indent:    opts.Indent,
		skip:      opts.SkipUnlessNewSlug,
		published: opts.Published,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}
	if e.maxBytes <= 0 || e.maxBytes > DefaultMaxBytes {
		e.maxBytes = DefaultMaxBytes
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Outcome describes what an export did
type Outcome struct {
	Artifact Artifact
	Path     string
	Bytes    int
	Written  bool
	// Skipped is set when no new slug was found in skip-unless-new-slug mode
	Skipped  bool
	NewSlugs []string
}

// Encode serializes the artifact and enforces the size ceiling
func (e *Exporter) Encode(a Artifact) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e.indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", e.indent))
	}
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	if buf.Len() > e.maxBytes {
		return nil, &SizeLimitError{ActualBytes: buf.Len(), LimitBytes: e.maxBytes}
	}
	return buf.Bytes(), nil
}

// Export builds the artifact for terms and writes it to path. Nothing is
// written when encoding fails or the artifact is too large.
func (e *Exporter) Export(terms []glossary.Term, version, path string) (*Outcome, error) {
	artifact := NewArtifact(terms, version, e.clock())
	out := &Outcome{Artifact: artifact, Path: path}

	if e.published != nil {
		out.NewSlugs = NewSlugs(artifact.Slugs(), e.published)
		if e.skip && len(out.NewSlugs) == 0 {
			out.Skipped = true
			e.logger.Info("No new slugs since last publish, skipping export",
				zap.String("path", path), zap.Int("terms", artifact.TermsCount))
			return out, nil
		}
	}

	data, err := e.Encode(artifact)
	if err != nil {
		return nil, err
	}
	out.Bytes = len(data)

	if err := WriteFile(path, data); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	out.Written = true

	e.logger.Debug("Artifact written",
		zap.String("path", path),
		zap.String("version", artifact.Version),
		zap.Int("terms", artifact.TermsCount),
		zap.Int("bytes", out.Bytes),
		zap.Int("max_bytes", e.maxBytes))
	return out, nil
}

// WriteFile writes data to a temporary file next to path and renames it into
// place. Readers see either the old content or the new, never a partial file.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// NewSlugs returns the slugs in current that are not in published, sorted
func NewSlugs(current, published []string) []string {
	seen := make(map[string]bool, len(published))
	for _, s := range published {
		seen[s] = true
	}
	var fresh []string
	for _, s := range current {
		if !seen[s] {
			fresh = append(fresh, s)
		}
	}
	sort.Strings(fresh)
	return fresh
}

// PublishedSlugs reads the slugs of a previously published artifact. A
// missing file yields nil with no error; an artifact with no terms yields an
// empty, non-nil slice.
func PublishedSlugs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read published artifact: %w", err)
	}

	var previous struct {
		Terms []struct {
			Slug string `json:"slug"`
		} `json:"terms"`
	}
	if err := json.Unmarshal(data, &previous); err != nil {
		return nil, fmt.Errorf("failed to parse published artifact %s: %w", path, err)
	}

	slugs := make([]string, 0, len(previous.Terms))
	for _, t := range previous.Terms {
		slugs = append(slugs, t.Slug)
	}
	return slugs, nil
}

// SizeLimitError is returned when the serialized artifact is too large
type SizeLimitError struct {
	ActualBytes int
	LimitBytes  int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("artifact is %d bytes, limit is %d bytes", e.ActualBytes, e.LimitBytes)
}

// Diagnostic converts the error for batch reporting
func (e *SizeLimitError) Diagnostic() gerrors.Diagnostic {
	return gerrors.New(gerrors.KindSizeLimitExceeded, gerrors.RootIndex, e.Error())
}

// WriteError is returned when the artifact could not be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error for batch reporting
func (e *WriteError) Diagnostic() gerrors.Diagnostic {
	return gerrors.New(gerrors.KindArtifactWriteFailure, gerrors.RootIndex, e.Error()).
		WithLocation(gerrors.Location{File: e.Path})
}
