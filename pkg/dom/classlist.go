package dom

import "strings"

// AddClassName returns className with name appended, unless it is already
// one of its tokens. Runs of whitespace collapse to single spaces.
func AddClassName(className, name string) string {
	tokens := strings.Fields(className)
	for _, t := range tokens {
		if t == name {
			return strings.Join(tokens, " ")
		}
	}
	return strings.Join(append(tokens, name), " ")
}

// RemoveClassName returns className without any token equal to name.
// Tokens that merely contain name ("dd-dragging" for "dd-drag") are kept.
func RemoveClassName(className, name string) string {
	tokens := strings.Fields(className)
	kept := tokens[:0]
	for _, t := range tokens {
		if t != name {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " ")
}

// HasClassName reports whether name is one of className's tokens.
func HasClassName(className, name string) bool {
	for _, t := range strings.Fields(className) {
		if t == name {
			return true
		}
	}
	return false
}
