package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/devterms/glossary/internal/cli/ui"
	"github.com/devterms/glossary/internal/glossary"
	gerrors "github.com/devterms/glossary/internal/glossary/errors"
	"github.com/devterms/glossary/internal/glossary/export"
	"github.com/devterms/glossary/internal/glossary/normalize"
	"github.com/devterms/glossary/internal/glossary/pipeline"
	"github.com/devterms/glossary/internal/glossary/resolve"
	"github.com/devterms/glossary/internal/glossary/score"
	"github.com/devterms/glossary/internal/glossary/source"
)

// noControversy is the select option that leaves controversy_level unset
const noControversy = "none"

// askTerm collects a candidate record. Tests replace it to skip the prompts.
var askTerm = promptTerm

// termAnswers holds the raw answers of the new-term prompts
type termAnswers struct {
	Slug        string
	Term        string
	Definition  string
	Explanation string
	Humor       string
	Tags        string
	SeeAlso     string `survey:"see_also"`
	Aliases     string
	Controversy string
}

// NewNewCommand creates the new command
func NewNewCommand(opts *globalOptions) *cobra.Command {
	var (
		src    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "new [slug]",
		Short: "Add a term to the source document interactively",
		Long: `Prompt for a new term, check it against the current source, and append it.

The candidate goes through the same checks as validate: slug format, the
definition length, controversy level, and uniqueness of its slug, name and
aliases against every existing term and redirect. Nothing is written when a
check fails.

The record is appended to the end of the terms list. Comments and the layout
of existing records are kept. With --dry-run the YAML is printed instead.

List answers (tags, see_also, aliases) are comma separated.`,
		Example: `  # Add a term, prompting for everything
  glossary new

  # Pre-fill the slug and only print the result
  glossary new yak-shaving --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.logger.Sync()

			path := sess.cfg.SourcePath()
			if src != "" {
				path = src
			}
			var slug string
			if len(args) > 0 {
				slug = args[0]
			}
			return runNew(sess, path, slug, dryRun)
		},
	}

	cmd.Flags().StringVarP(&src, "source", "s", "", "Term source document (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the new record instead of writing it")

	return cmd
}

func runNew(sess *session, path, slug string, dryRun bool) error {
	doc, current, err := loadForAppend(sess, path)
	if err != nil {
		return err
	}

	raw, err := askTerm(slug)
	if err != nil {
		return err
	}

	term, err := checkCandidate(sess, current, raw)
	if err != nil {
		return err
	}

	result := score.Compute(term)
	if dryRun {
		snippet, err := source.Snippet(term)
		if err != nil {
			return err
		}
		fmt.Fprint(sess.out, string(snippet))
		fmt.Fprint(sess.errOut, ui.Info(fmt.Sprintf("Dry run: %s was not modified (score %d)", path, result.Total), sess.noColor))
		return nil
	}

	if err := doc.AppendTerm(term); err != nil {
		return err
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := export.WriteFile(path, data); err != nil {
		return err
	}

	sess.logger.Info("Term added")
	ui.WriteSuccess(sess.out, fmt.Sprintf("Added %s to %s", term.Slug, path), sess.noColor)
	kv := ui.NewKeyValueTable(sess.out, sess.noColor)
	kv.AddRow("Score", fmt.Sprintf("%d/%d", result.Total, score.Max))
	if len(result.Badges) > 0 {
		badges := make([]string, len(result.Badges))
		for i, b := range result.Badges {
			badges[i] = string(b)
		}
		kv.AddRow("Badges", strings.Join(badges, ", "))
	}
	kv.Render()
	return nil
}

// loadForAppend parses the source and checks it is valid as it stands. A
// missing source starts an empty document.
func loadForAppend(sess *session, path string) (*source.Document, *pipeline.Result, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		doc, err := source.Parse(path, nil)
		if err != nil {
			return nil, nil, err
		}
		sess.logger.Debug("Source missing, starting a new document")
		return doc, &pipeline.Result{Document: doc}, nil
	}

	doc, err := source.Load(path)
	if err != nil {
		return nil, nil, sess.reportFailure(path, nil, err, false, ErrValidationFailed)
	}
	res, err := sess.runner(nil).Validate(doc)
	if err != nil {
		fmt.Fprint(sess.errOut, ui.Info("Fix the existing terms before adding a new one", sess.noColor))
		return nil, nil, sess.reportFailure(path, res, err, false, ErrValidationFailed)
	}
	return doc, res, nil
}

// checkCandidate normalizes raw as the next record of current and resolves it
// against every existing term and redirect
func checkCandidate(sess *session, current *pipeline.Result, raw glossary.Raw) (glossary.Term, error) {
	index := len(current.Terms)

	term, err := normalize.Term(index, raw)
	if err != nil {
		return glossary.Term{}, sess.rejectCandidate(err, nil)
	}

	terms := make([]glossary.Term, 0, index+1)
	terms = append(terms, current.Terms...)
	terms = append(terms, term)

	idx, diags := resolve.Resolve(terms, current.Snapshot.Redirects, resolve.Options{
		RejectChains: sess.cfg.Redirects.RejectChains,
	})
	// The current terms passed validation, so every error is the candidate's
	if err := diags.Err(); err != nil {
		return glossary.Term{}, sess.rejectCandidate(diags.Errors(), idx)
	}
	var warnings gerrors.List
	for _, d := range diags.Warnings() {
		if d.Index == index {
			warnings.Add(d)
		}
	}
	if len(warnings) > 0 {
		ui.WriteDiagnostics(sess.errOut, warnings, ui.DiagnosticOptions{
			NoColor: sess.noColor,
			Fields:  glossary.AllFields(),
			Slugs:   idx.Known(),
		})
		fmt.Fprintln(sess.errOut)
	}
	return term, nil
}

func (s *session) rejectCandidate(err error, idx *resolve.Index) error {
	diags, ok := gerrors.AsList(err)
	if !ok {
		return err
	}
	opts := ui.DiagnosticOptions{NoColor: s.noColor, Fields: glossary.AllFields()}
	if idx != nil {
		opts.Slugs = idx.Known()
	}
	ui.WriteDiagnostics(s.errOut, diags, opts)
	fmt.Fprintln(s.errOut)
	ui.WriteError(s.errOut, ui.ErrorOptions{
		Level:       ui.ErrorLevelError,
		Context:     "TERM REJECTED",
		Problem:     fmt.Sprintf("%d problem(s) with the new term", len(diags.Errors())),
		Consequence: "The source document was not modified.",
		NoColor:     s.noColor,
	})
	return ErrValidationFailed
}

// promptTerm asks for each field of a term
func promptTerm(slug string) (glossary.Raw, error) {
	questions := []*survey.Question{
		{
			Name:     "slug",
			Prompt:   &survey.Input{Message: "Slug:", Default: slug, Help: "lowercase words joined by hyphens, e.g. yak-shaving"},
			Validate: survey.ComposeValidators(survey.Required, validateSlugAnswer),
		},
		{
			Name:     "term",
			Prompt:   &survey.Input{Message: "Term:"},
			Validate: survey.Required,
		},
		{
			Name:     "definition",
			Prompt:   &survey.Multiline{Message: fmt.Sprintf("Definition (at least %d characters):", glossary.MinDefinitionLength)},
			Validate: validateDefinitionAnswer,
		},
		{
			Name:   "explanation",
			Prompt: &survey.Input{Message: "Explanation (optional):"},
		},
		{
			Name:   "humor",
			Prompt: &survey.Input{Message: "Humor (optional):"},
		},
		{
			Name:   "tags",
			Prompt: &survey.Input{Message: "Tags (optional, comma separated):"},
		},
		{
			Name:   "see_also",
			Prompt: &survey.Input{Message: "See also (optional, comma separated slugs):"},
		},
		{
			Name:   "aliases",
			Prompt: &survey.Input{Message: "Aliases (optional, comma separated):"},
		},
		{
			Name: "controversy",
			Prompt: &survey.Select{
				Message: "Controversy level:",
				Options: []string{noControversy, string(glossary.ControversyLow), string(glossary.ControversyMedium), string(glossary.ControversyHigh)},
				Default: noControversy,
			},
		},
	}

	var answers termAnswers
	if err := survey.Ask(questions, &answers); err != nil {
		return nil, err
	}
	return answers.raw(), nil
}

func validateSlugAnswer(ans interface{}) error {
	s, _ := ans.(string)
	if !glossary.ValidSlug(strings.TrimSpace(s)) {
		return fmt.Errorf("slug must match %s and be %d-%d characters long",
			glossary.SlugPattern.String(), glossary.MinSlugLength, glossary.MaxSlugLength)
	}
	return nil
}

func validateDefinitionAnswer(ans interface{}) error {
	s, _ := ans.(string)
	if n := utf8.RuneCountInString(strings.TrimSpace(s)); n < glossary.MinDefinitionLength {
		return fmt.Errorf("definition is %d characters, need at least %d", n, glossary.MinDefinitionLength)
	}
	return nil
}

// raw converts answers into a record. Blank optional answers are left out.
func (a termAnswers) raw() glossary.Raw {
	raw := glossary.Raw{
		glossary.FieldSlug:       strings.TrimSpace(a.Slug),
		glossary.FieldTerm:       a.Term,
		glossary.FieldDefinition: a.Definition,
	}
	optional := map[string]string{
		glossary.FieldExplanation: a.Explanation,
		glossary.FieldHumor:       a.Humor,
	}
	for field, value := range optional {
		if strings.TrimSpace(value) != "" {
			raw[field] = value
		}
	}
	lists := map[string]string{
		glossary.FieldTags:    a.Tags,
		glossary.FieldSeeAlso: a.SeeAlso,
		glossary.FieldAliases: a.Aliases,
	}
	for field, value := range lists {
		if items := splitList(value); len(items) > 0 {
			raw[field] = items
		}
	}
	if a.Controversy != "" && a.Controversy != noControversy {
		raw[glossary.FieldControversyLevel] = a.Controversy
	}
	return raw
}

// splitList splits a comma separated answer, dropping blank items
func splitList(s string) []any {
	var items []any
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
