// Package score computes the contribution score and badges of a term. Every
// caller that needs a score (CI feedback, ranking, display) goes through
// Compute so the numbers never diverge.
package score

import (
	"sort"
	"unicode/utf8"

	"github.com/devterms/glossary/internal/glossary"
)

const (
	Base = 20
	Max  = 100

	HumorCap         = 30
	HumorCharsPerPt  = 5
	ExplanationBonus = 20
	// ExplanationMinChars is exclusive: the explanation must be longer
	ExplanationMinChars = 20
	TagPoints           = 3
	TagCap              = 10
	CrossRefPoints      = 5
	CrossRefCap         = 20

	PerfectionistThreshold = 90
	// ComedyGoldMinChars is exclusive
	ComedyGoldMinChars = 100
)

// Badge is a label awarded from a term's score and content
type Badge string

const (
	BadgePerfectionist Badge = "Perfectionist"
	BadgeComedyGold    Badge = "Comedy Gold"
	BadgeFlameWarrior  Badge = "Flame Warrior"
)

// Components breaks a score down by source
type Components struct {
	Base        int `json:"base"`
	Humor       int `json:"humor"`
	Explanation int `json:"explanation"`
	Tags        int `json:"tags"`
	CrossRefs   int `json:"crossrefs"`
}

// Sum adds up the components without applying the cap
func (c Components) Sum() int {
	return c.Base + c.Humor + c.Explanation + c.Tags + c.CrossRefs
}

// Result is the score of one term
type Result struct {
	Total      int        `json:"total"`
	Components Components `json:"components"`
	Badges     []Badge    `json:"badges"`
}

// Compute scores a canonical term
func Compute(t glossary.Term) Result {
	humorLen := utf8.RuneCountInString(t.Humor)

	c := Components{
		Base:      Base,
		Humor:     min(HumorCap, humorLen/HumorCharsPerPt),
		Tags:      min(TagCap, TagPoints*len(t.Tags)),
		CrossRefs: min(CrossRefCap, CrossRefPoints*len(t.SeeAlso)),
	}
	if utf8.RuneCountInString(t.Explanation) > ExplanationMinChars {
		c.Explanation = ExplanationBonus
	}

	total := min(Max, c.Sum())

	badges := make([]Badge, 0, 3)
	if total >= PerfectionistThreshold {
		badges = append(badges, BadgePerfectionist)
	}
	if humorLen > ComedyGoldMinChars {
		badges = append(badges, BadgeComedyGold)
	}
	if t.ControversyLevel != "" {
		badges = append(badges, BadgeFlameWarrior)
	}

	return Result{Total: total, Components: c, Badges: badges}
}

// Has reports whether the result carries the badge
func (r Result) Has(b Badge) bool {
	for _, got := range r.Badges {
		if got == b {
			return true
		}
	}
	return false
}

// Entry is a scored term with its position in the source list
type Entry struct {
	Index int           `json:"index"`
	Term  glossary.Term `json:"-"`
	Slug  string        `json:"slug"`
	Name  string        `json:"term"`
	Result
}

// All scores every term, keeping source order
func All(terms []glossary.Term) []Entry {
	entries := make([]Entry, len(terms))
	for i, t := range terms {
		entries[i] = Entry{Index: i, Term: t, Slug: t.Slug, Name: t.Term, Result: Compute(t)}
	}
	return entries
}

// Rank scores every term and orders them by total, highest first. Ties keep
// source order.
func Rank(terms []glossary.Term) []Entry {
	entries := All(terms)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total > entries[j].Total
	})
	return entries
}
