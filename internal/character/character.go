// Package character defines the quiz character pool and its filtering rules.
// This package is PURE and must NOT import any infrastructure packages
// (channel, session, platform).
package character

import (
	"sort"
	"strings"
)

// CategoryTag is the tag key whose values group characters for reporting
// and drive the displayed category of a rolled character.
const CategoryTag = "category"

// Character is an immutable record loaded from the roster boundary.
// Props hold display-only columns; Tags hold filterable columns, each of
// which may carry several values for one character.
type Character struct {
	Props    map[string]string   `json:"props"`
	Tags     map[string][]string `json:"tags"`
	ImageRef string              `json:"imageRef"`
}

// Categories returns the character's category-tag values, sorted.
func (c Character) Categories() []string {
	values := append([]string(nil), c.Tags[CategoryTag]...)
	sort.Strings(values)
	return values
}

// Fingerprint derives the character's stable identity: sorted prop values
// joined with sorted category-tag values, case-folded and
// whitespace-normalized. Two characters with identical content collide on
// purpose; the fingerprint is the dedup key that keeps a character excluded
// across reloads of the same roster.
func (c Character) Fingerprint() string {
	parts := make([]string, 0, len(c.Props)+len(c.Tags[CategoryTag]))
	for _, v := range c.Props {
		parts = append(parts, normalize(v))
	}
	sort.Strings(parts)

	categories := make([]string, 0, len(c.Tags[CategoryTag]))
	for _, v := range c.Tags[CategoryTag] {
		categories = append(categories, normalize(v))
	}
	sort.Strings(categories)

	return strings.Join(parts, "|") + "::" + strings.Join(categories, "|")
}

// normalize lower-cases and collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
