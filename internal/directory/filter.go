package directory

import "strings"

// SearchSurface joins the entity's display fields with single spaces and
// lowercases the result.
func SearchSurface(e Entity) string {
	return strings.ToLower(strings.Join(e.SearchFields(), " "))
}

// Matches reports whether e passes both the text and the tag predicate.
//
// The tag predicate is a case-insensitive substring test against the raw tech
// stack, so selecting "Go" also matches "Golang".
func Matches(e Entity, searchTerm, selectedTag string) bool {
	if searchTerm != "" && !strings.Contains(SearchSurface(e), strings.ToLower(searchTerm)) {
		return false
	}
	if selectedTag == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Stack()), strings.ToLower(selectedTag))
}

// Filter returns the entities matching searchTerm and selectedTag, preserving
// input order. An empty searchTerm and selectedTag keep everything.
func Filter[E Entity](entities []E, searchTerm, selectedTag string) []E {
	out := make([]E, 0, len(entities))
	for _, e := range entities {
		if Matches(e, searchTerm, selectedTag) {
			out = append(out, e)
		}
	}
	return out
}
