package options

// Effect is a drag operation hint as understood by the platform.
type Effect string

// EffectUnset means no override is applied.
const EffectUnset Effect = ""

const (
	EffectCopy     Effect = "copy"
	EffectMove     Effect = "move"
	EffectLink     Effect = "link"
	EffectCopyMove Effect = "copyMove"
	EffectCopyLink Effect = "copyLink"
	EffectLinkMove Effect = "linkMove"
	EffectAll      Effect = "all"
)

// EffectSet is a closed list of accepted effects.
type EffectSet []Effect

// Contains reports whether s is exactly one of the set's members.
func (set EffectSet) Contains(s string) bool {
	for _, e := range set {
		if string(e) == s {
			return true
		}
	}
	return false
}

var (
	dropEffects    = EffectSet{EffectCopy, EffectMove, EffectLink, EffectAll}
	allowedEffects = EffectSet{EffectCopy, EffectMove, EffectLink, EffectCopyMove, EffectCopyLink, EffectLinkMove, EffectAll}
)

// DropEffects returns the values accepted for a drop target's dropEffect.
func DropEffects() EffectSet {
	return append(EffectSet(nil), dropEffects...)
}

// AllowedEffects returns the values accepted for a drag source's
// effectAllowed.
func AllowedEffects() EffectSet {
	return append(EffectSet(nil), allowedEffects...)
}

// NormalizeEffect returns candidate unchanged when it is a member of set
// and EffectUnset otherwise. Matching is exact and case sensitive.
func NormalizeEffect(candidate string, set EffectSet) Effect {
	if set.Contains(candidate) {
		return Effect(candidate)
	}
	return EffectUnset
}
