package facts

import "strings"

// Matcher decides whether a concept name satisfies a guidance term. The
// exact semantics of relevance matching are deliberately pluggable.
type Matcher interface {
	Matches(conceptName, term string) bool
}

// StrictMatcher accepts only case-insensitive exact matches.
type StrictMatcher struct{}

func (StrictMatcher) Matches(conceptName, term string) bool {
	return strings.EqualFold(conceptName, term)
}

// FuzzyMatcher accepts case-insensitive substring matches in either
// direction, so "CombinedRatio" satisfies both "combined ratio" concepts and
// a guidance term of "ratio". Whitespace in terms is ignored because concept
// names are CamelCase.
type FuzzyMatcher struct{}

func (FuzzyMatcher) Matches(conceptName, term string) bool {
	name := strings.ToLower(conceptName)
	t := strings.ToLower(strings.ReplaceAll(term, " ", ""))
	if t == "" {
		return false
	}
	return strings.Contains(name, t) || strings.Contains(t, name)
}

// matchesAny reports whether any term accepts the concept name.
func matchesAny(m Matcher, conceptName string, terms []string) bool {
	for _, term := range terms {
		if m.Matches(conceptName, term) {
			return true
		}
	}
	return false
}
