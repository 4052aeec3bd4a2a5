// Package query computes the ordered subset of snippets to display.
//
// Filter is a pure function of its inputs and is cheap enough to run on every
// keystroke: no I/O, no shared state, input slice left untouched.
package query

import (
	"slices"
	"strings"

	"github.com/sakif/snippet-lab/internal/model"
)

// Filter returns the snippets that match search and category, pinned first.
//
// The search string is trimmed; an empty (or whitespace-only) search matches
// everything. Matching is a case-insensitive substring test against the title,
// the description, and each tag. The result is stably ordered: pinned snippets
// precede unpinned ones and input order is kept inside each group. The result
// is never nil.
func Filter(snippets []model.Snippet, search string, category model.FilterCategory) []model.Snippet {
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]model.Snippet, 0, len(snippets))
	for _, s := range snippets {
		if admits(category, s) && Matches(s, needle) {
			out = append(out, s)
		}
	}

	slices.SortStableFunc(out, func(a, b model.Snippet) int {
		return pinRank(a) - pinRank(b)
	})
	return out
}

// Matches reports whether s matches an already lower-cased needle.
func Matches(s model.Snippet, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Title), needle) ||
		strings.Contains(strings.ToLower(s.Description), needle) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func admits(category model.FilterCategory, s model.Snippet) bool {
	switch category {
	case model.FilterPinned:
		return s.IsPinned
	case model.FilterFavorites:
		return s.IsFavorite
	default:
		return true
	}
}

func pinRank(s model.Snippet) int {
	if s.IsPinned {
		return 0
	}
	return 1
}
