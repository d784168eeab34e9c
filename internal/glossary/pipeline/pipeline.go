// Package pipeline runs the glossary stages in order over one snapshot:
// schema check, normalization, identity resolution, scoring and export.
// A stage that reports errors stops the run before the next stage starts.
package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
	"github.com/devterms/glossary/internal/glossary/export"
	"github.com/devterms/glossary/internal/glossary/normalize"
	"github.com/devterms/glossary/internal/glossary/resolve"
	"github.com/devterms/glossary/internal/glossary/schema"
	"github.com/devterms/glossary/internal/glossary/score"
	"github.com/devterms/glossary/internal/glossary/source"
)

// Stage names, used in logs
const (
	StageSource    = "source"
	StageSchema    = "schema"
	StageNormalize = "normalize"
	StageResolve   = "resolve"
	StageScore     = "score"
	StageExport    = "export"
)

// Options configures a run
type Options struct {
	// RejectChains makes redirect chains fail the run
	RejectChains bool
	// Published is the slug set of the last published artifact, if known
	Published []string
	Logger    *zap.Logger
}

// Result is everything a successful validation produces. Page generation
// consumes Terms directly.
type Result struct {
	Document *source.Document
	Snapshot glossary.Snapshot
	Terms    []glossary.Term
	Index    *resolve.Index
	Scores   []score.Entry
	// Diagnostics holds the warnings of a successful run
	Diagnostics gerrors.List
}

// Runner executes pipeline stages
type Runner struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Runner
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{opts: opts, logger: logger}
}

// ValidateFile loads the document at path and validates it
func (r *Runner) ValidateFile(path string) (*Result, error) {
	start := time.Now()
	doc, err := source.Load(path)
	if err != nil {
		r.logger.Debug("Stage failed", zap.String("stage", StageSource), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("Stage complete", zap.String("stage", StageSource),
		zap.String("path", path), zap.Duration("duration", time.Since(start)))
	return r.Validate(doc)
}

// Validate runs every stage except export. On failure the returned error is
// an errors.List holding every diagnostic of the failing stage, warnings
// included. When resolution fails the partial result, with its index, is
// returned alongside the error.
func (r *Runner) Validate(doc *source.Document) (*Result, error) {
	res := &Result{Document: doc}

	if err := r.stage(StageSchema, func() error {
		return schema.Check(doc).Err()
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageSource, func() error {
		snap, err := doc.Snapshot()
		res.Snapshot = snap
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageNormalize, func() error {
		terms, err := normalize.Terms(res.Snapshot.Terms)
		if err != nil {
			return locate(doc, err)
		}
		res.Terms = terms
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageResolve, func() error {
		idx, diags := resolve.Resolve(res.Terms, res.Snapshot.Redirects, resolve.Options{
			RejectChains: r.opts.RejectChains,
			Published:    r.opts.Published,
		})
		res.Index = idx
		r.logger.Debug("Index built", zap.Stringer("index", idx))
		res.Diagnostics = locateAll(doc, diags)
		for _, w := range res.Diagnostics.Warnings() {
			r.logger.Warn(w.Message, zap.String("code", w.Code()), zap.String("index", w.IndexLabel()))
		}
		return res.Diagnostics.Err()
	}); err != nil {
		return res, err
	}

	_ = r.stage(StageScore, func() error {
		res.Scores = score.All(res.Terms)
		return nil
	})

	return res, nil
}

// Export writes the artifact for a validated result
func (r *Runner) Export(res *Result, exp *export.Exporter, version, path string) (*export.Outcome, error) {
	var out *export.Outcome
	err := r.stage(StageExport, func() error {
		var err error
		out, err = exp.Export(res.Terms, version, path)
		return err
	})
	return out, err
}

// Run validates the document at path and exports it
func (r *Runner) Run(path string, exp *export.Exporter, version, output string) (*Result, *export.Outcome, error) {
	res, err := r.ValidateFile(path)
	if err != nil {
		return res, nil, err
	}
	out, err := r.Export(res, exp, version, output)
	if err != nil {
		return res, nil, err
	}
	return res, out, nil
}

func (r *Runner) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	fields := []zap.Field{zap.String("stage", name), zap.Duration("duration", time.Since(start))}
	if err != nil {
		if list, ok := gerrors.AsList(err); ok {
			fields = append(fields, zap.Int("errors", len(list.Errors())))
		}
		r.logger.Debug("Stage failed", append(fields, zap.Error(err))...)
		return err
	}
	r.logger.Debug("Stage complete", fields...)
	return nil
}

// locate attaches source positions to the diagnostics carried by err
func locate(doc *source.Document, err error) error {
	list, ok := gerrors.AsList(err)
	if !ok {
		return err
	}
	return locateAll(doc, list)
}

func locateAll(doc *source.Document, diags gerrors.List) gerrors.List {
	out := make(gerrors.List, len(diags))
	for i, d := range diags {
		if d.Location == (gerrors.Location{}) {
			switch {
			case d.Index >= 0:
				d.Location = doc.TermLocation(d.Index)
			case d.Key != "" && d.Kind != gerrors.KindRetiredWithoutRedirect:
				d.Location = doc.RedirectLocation(d.Key)
			default:
				d.Location = gerrors.Location{File: doc.Path}
			}
		}
		out[i] = d
	}
	return out
}
