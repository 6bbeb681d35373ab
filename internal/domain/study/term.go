package study

import "strings"

// taxonomyDelimiter separates an optional namespace prefix from the label
// in stored terms, e.g. "emotion__fear".
const taxonomyDelimiter = "__"

// TermCandidates are the two canonical forms a raw user term expands to.
// Stored terms may use either spaces or underscores as word separators,
// so both forms are matched.
type TermCandidates struct {
	// Underscore is the lowercased form with spaces replaced by underscores.
	Underscore string
	// Space is the lowercased form with underscores replaced by spaces.
	Space string
}

// Empty reports whether the candidates were derived from blank input.
// Empty candidates never match any stored term.
func (c TermCandidates) Empty() bool {
	return c.Underscore == "" && c.Space == ""
}

// NormalizeTerm expands raw user input into its two candidate forms.
// Normalization is idempotent: feeding either candidate back in yields the
// same pair.
func NormalizeTerm(raw string) TermCandidates {
	t := strings.ToLower(strings.TrimSpace(raw))
	return TermCandidates{
		Underscore: strings.ReplaceAll(t, " ", "_"),
		Space:      strings.ReplaceAll(t, "_", " "),
	}
}

// CleanTerm strips a taxonomy prefix from a stored term. The prefix is
// everything up to and including the first "__" from the left.
// TODO: audit the ingested corpus for labels that themselves contain "__";
// if any exist the split point needs revisiting.
func CleanTerm(stored string) string {
	if i := strings.Index(stored, taxonomyDelimiter); i >= 0 {
		return stored[i+len(taxonomyDelimiter):]
	}
	return stored
}

// MatchTerm reports whether a stored annotation term matches the
// candidates. The stored term is prefix-stripped and lowercased first,
// then compared for equality against either candidate. With fuzzy
// enabled, the underscore-form candidate may also be a prefix of the
// cleaned term; the space form never prefix-matches.
func MatchTerm(stored string, c TermCandidates, fuzzy bool) bool {
	if c.Empty() {
		return false
	}
	clean := strings.ToLower(CleanTerm(stored))
	if clean == c.Underscore || clean == c.Space {
		return true
	}
	if fuzzy {
		return strings.HasPrefix(clean, c.Underscore)
	}
	return false
}
