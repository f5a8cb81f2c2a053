package character

// TagSelection maps a tag key to the set of values it accepts. An empty or
// absent value set for a key means "no constraint for that key"; an empty
// selection accepts every character.
type TagSelection map[string][]string

// IsEmpty reports whether the selection constrains nothing at all.
func (s TagSelection) IsEmpty() bool {
	for _, values := range s {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Matches evaluates the selection against one character: AND across tag
// keys, OR within a key's accepted values. The rule is generic over whatever
// keys the roster happens to carry; nothing here is specific to "category".
// A character with no values for a constrained key never matches it.
func Matches(c Character, sel TagSelection) bool {
	for key, accepted := range sel {
		if len(accepted) == 0 {
			continue
		}
		if !anyOverlap(c.Tags[key], accepted) {
			return false
		}
	}
	return true
}

func anyOverlap(have, accepted []string) bool {
	for _, h := range have {
		for _, a := range accepted {
			if h == a {
				return true
			}
		}
	}
	return false
}
