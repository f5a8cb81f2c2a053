package character

import (
	"errors"
	"math/rand"
	"sort"
)

// ErrPoolExhausted is returned by Roll when no character survives the
// used-set and filter checks. Callers must refuse the transition that needed
// a character instead of quietly relaxing the filters.
var ErrPoolExhausted = errors.New("no unused character matches the active filters")

// Available returns the pool entries that are not yet used and that match
// the selection, preserving pool order.
func Available(pool []Character, usedIDs map[string]bool, sel TagSelection) []Character {
	var out []Character
	for _, c := range pool {
		if usedIDs[c.Fingerprint()] {
			continue
		}
		if !Matches(c, sel) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Roll picks one character uniformly at random from the available set.
func Roll(pool []Character, usedIDs map[string]bool, sel TagSelection, rng *rand.Rand) (Character, error) {
	candidates := Available(pool, usedIDs, sel)
	if len(candidates) == 0 {
		return Character{}, ErrPoolExhausted
	}
	return candidates[rng.Intn(len(candidates))], nil
}

// CategoryCount reports how many characters carry a category value, and how
// many of those are still unused under the current filters.
type CategoryCount struct {
	Category  string `json:"category"`
	Remaining int    `json:"remaining"`
	Total     int    `json:"total"`
}

// CategoryCounts groups the pool by category-tag value. A character counts
// toward every category value it holds, so the totals may exceed the pool
// size when characters belong to several categories.
func CategoryCounts(pool []Character, usedIDs map[string]bool, sel TagSelection) []CategoryCount {
	totals := make(map[string]int)
	remaining := make(map[string]int)

	for _, c := range pool {
		live := !usedIDs[c.Fingerprint()] && Matches(c, sel)
		for _, category := range c.Tags[CategoryTag] {
			totals[category]++
			if live {
				remaining[category]++
			}
		}
	}

	counts := make([]CategoryCount, 0, len(totals))
	for category, total := range totals {
		counts = append(counts, CategoryCount{
			Category:  category,
			Remaining: remaining[category],
			Total:     total,
		})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Category < counts[j].Category })
	return counts
}
