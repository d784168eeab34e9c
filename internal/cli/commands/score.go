package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devterms/glossary/internal/cli/ui"
	"github.com/devterms/glossary/internal/glossary/score"
)

// NewScoreCommand creates the score command
func NewScoreCommand(opts *globalOptions) *cobra.Command {
	var (
		source string
		top    int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "score [slug...]",
		Short: "Show completeness scores and badges",
		Long: `Score terms by completeness on a 0-100 scale and list the badges they earn.

With slugs, prints the breakdown for those terms; retired slugs are followed
through their redirect. Without slugs, prints every term ranked by score,
highest first, ties in source order.

Score components:
  base         20
  humor        1 point per 5 characters, up to 30
  explanation  20 when longer than 20 characters
  tags         3 per tag, up to 10
  see_also     5 per cross-reference, up to 20`,
		Example: `  # Rank every term
  glossary score

  # Show the ten best terms
  glossary score --top 10

  # Break down two terms as JSON
  glossary score yak-shaving bikeshedding --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 0 {
				return fmt.Errorf("--top must not be negative, got %d", top)
			}
			sess, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.logger.Sync()

			path := sess.cfg.SourcePath()
			if source != "" {
				path = source
			}
			return runScore(sess, path, args, top, asJSON)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Term source document (default from config)")
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Only show the N highest scoring terms (0 shows all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output scores in JSON format")

	return cmd
}

func runScore(sess *session, source string, slugs []string, top int, asJSON bool) error {
	res, err := sess.runner(nil).ValidateFile(source)
	if err != nil {
		return sess.reportFailure(source, res, err, asJSON, ErrValidationFailed)
	}

	var entries []score.Entry
	var missing []string
	if len(slugs) == 0 {
		entries = score.Rank(res.Terms)
	} else {
		for _, slug := range slugs {
			i, ok := res.Index.Lookup(slug)
			if !ok {
				missing = append(missing, slug)
				fmt.Fprint(sess.errOut, ui.SlugNotFoundError(slug, ui.FindSimilar(slug, res.Index.Known(), nil), sess.noColor))
				continue
			}
			entries = append(entries, res.Scores[i])
		}
	}
	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}

	if asJSON {
		if entries == nil {
			entries = []score.Entry{}
		}
		if err := ui.WriteJSON(sess.out, entries); err != nil {
			return err
		}
	} else if len(entries) > 0 {
		renderScores(sess, entries, len(slugs) == 0)
	}

	if len(missing) > 0 {
		return fmt.Errorf("unknown slug(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func renderScores(sess *session, entries []score.Entry, ranked bool) {
	headers := []string{"Slug", "Term", "Score", "Humor", "Expl", "Tags", "Refs", "Badges"}
	align := []ui.Alignment{ui.AlignLeft, ui.AlignLeft, ui.AlignRight, ui.AlignRight, ui.AlignRight, ui.AlignRight, ui.AlignRight}
	if ranked {
		headers = append([]string{"#"}, headers...)
		align = append([]ui.Alignment{ui.AlignRight}, align...)
		ui.Header(sess.out, "Ranking", sess.noColor)
	}

	table := ui.NewTable(sess.out, headers, &ui.TableOptions{NoColor: sess.noColor, Align: align})
	for i, e := range entries {
		badges := make([]string, len(e.Badges))
		for j, b := range e.Badges {
			badges[j] = string(b)
		}
		row := []string{
			e.Slug,
			e.Name,
			fmt.Sprintf("%d", e.Total),
			fmt.Sprintf("%d", e.Components.Humor),
			fmt.Sprintf("%d", e.Components.Explanation),
			fmt.Sprintf("%d", e.Components.Tags),
			fmt.Sprintf("%d", e.Components.CrossRefs),
			strings.Join(badges, ", "),
		}
		if ranked {
			row = append([]string{fmt.Sprintf("%d", i+1)}, row...)
		}
		table.AddRow(row...)
	}
	table.Render()
}
