package catalog

import (
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Score weights for the keyword pass.
const (
	titleMatchScore        = 10
	titleWordBoundaryBonus = 5
	descMatchScore         = 3
	descWordBoundaryBonus  = 2
	allTermsInTitleBonus   = 20
	allTermsInDescBonus    = 10

	minTermLength = 3
)

// Rank filters and orders courses against a free-text query.
//
// A blank query returns every course in catalog order. Otherwise, if any
// normalised title contains the normalised query, exactly those courses are
// returned in catalog order. Failing that, courses are scored per query term
// (terms shorter than three characters are ignored) and returned by
// descending score, ties keeping catalog order. Courses scoring zero are
// dropped, so a query made only of short terms matches nothing.
//
// The input slice is never modified.
func Rank(query string, courses []Course) []Course {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(courses)
	}

	q := normalize(query)

	var exact []Course
	for _, c := range courses {
		if strings.Contains(normalize(c.Title), q) {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	terms := qualifyingTerms(q)
	if len(terms) == 0 {
		return []Course{}
	}

	type scored struct {
		course Course
		score  int
	}

	results := make([]scored, 0, len(courses))
	for _, c := range courses {
		s := score(terms, normalize(c.Title), normalize(c.Description))
		if s > 0 {
			results = append(results, scored{course: c, score: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	ranked := make([]Course, len(results))
	for i, r := range results {
		ranked[i] = r.course
	}
	return ranked
}

type term struct {
	text     string
	boundary *regexp.Regexp
}

func qualifyingTerms(normalizedQuery string) []term {
	var terms []term
	for _, t := range strings.Fields(normalizedQuery) {
		if utf8.RuneCountInString(t) < minTermLength {
			continue
		}
		terms = append(terms, term{
			text:     t,
			boundary: regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`),
		})
	}
	return terms
}

// score expects already-normalised title and description and at least one term.
func score(terms []term, title, desc string) int {
	total := 0
	allInTitle, allInDesc := true, true

	for _, t := range terms {
		if strings.Contains(title, t.text) {
			total += titleMatchScore
			if t.boundary.MatchString(title) {
				total += titleWordBoundaryBonus
			}
		} else {
			allInTitle = false
		}

		if strings.Contains(desc, t.text) {
			total += descMatchScore
			if t.boundary.MatchString(desc) {
				total += descWordBoundaryBonus
			}
		} else {
			allInDesc = false
		}
	}

	if allInTitle {
		total += allTermsInTitleBonus
	}
	if allInDesc {
		total += allTermsInDescBonus
	}

	return total
}

// normalize lowercases s and collapses whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
