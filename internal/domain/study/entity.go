// Package study holds the domain model for the retrieval corpus: study
// metadata rows, the term normalization and matching rules, and the
// coordinate parsing and spatial matching rules. Everything here is pure;
// persistence lives behind the StudyStore interface.
package study

// Study is one row of corpus metadata.
type Study struct {
	ID      string `json:"study_id"`
	Title   string `json:"title"`
	Journal string `json:"journal"`
	// Year is nil when the source record carries no publication year.
	Year *int `json:"year"`
}

// Annotation links a study contrast to a term with an optional weight.
type Annotation struct {
	StudyID    string `json:"study_id"`
	ContrastID string `json:"contrast_id"`
	Term       string `json:"term"`
	// Weight influences ordering only, never inclusion. Nil sorts last.
	Weight *float64 `json:"weight"`
}

// TermStudyRow is one result row of a term-facet retrieval: study metadata
// joined with the matching annotation.
type TermStudyRow struct {
	Study
	// Term is the stored annotation term as ingested, prefix included.
	Term string `json:"term"`
	// CleanTerm is Term with any taxonomy prefix stripped.
	CleanTerm string   `json:"clean_term"`
	Weight    *float64 `json:"weight"`
}

// LocationStudyRow is one result row of a location-facet retrieval: study
// metadata plus one coordinate from the study's matching set. Which
// coordinate is chosen when several match is arbitrary and must not be
// relied upon.
type LocationStudyRow struct {
	Study
	Example Point `json:"example_coordinate"`
}

// QueryOptions carries pagination for all retrieval operations.
type QueryOptions struct {
	Limit  int
	Offset int
}

// ClampLimit folds out-of-range limits back into [1, max], substituting
// def for non-positive input. Callers pass already-parsed integers;
// unparseable strings are handled at the transport layer.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// ClampOffset floors negative offsets to zero.
func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
