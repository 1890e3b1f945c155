package directory

import "strings"

const tagSeparator = ","

// SplitTechStack returns the trimmed, non-empty tokens of a tech stack string
// in the order they appear. Duplicates are kept.
func SplitTechStack(stack string) []string {
	if strings.TrimSpace(stack) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(stack, tagSeparator) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BuildTagIndex returns the distinct tags found across all entities, ordered by
// first sighting. Tags are compared exactly, so "Go" and "go" are both kept.
func BuildTagIndex[E Entity](entities []E) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, e := range entities {
		for _, tag := range SplitTechStack(e.Stack()) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// ToggleTag returns the tag selection after the user picks tag while current
// is selected: picking the selected tag again clears the selection.
func ToggleTag(current, tag string) string {
	if tag == current {
		return ""
	}
	return tag
}
