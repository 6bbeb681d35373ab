package study

import "context"

// StudyStore is the persistence boundary for the retrieval operations.
// Implementations return rows already ordered and paginated; the service
// layer never re-sorts. All methods honor ctx cancellation.
type StudyStore interface {
	// StudiesByTerm returns studies carrying at least one annotation
	// matching the candidates, one row per matching annotation, ordered by
	// weight descending (nulls last), year descending, study id ascending.
	StudiesByTerm(ctx context.Context, c TermCandidates, fuzzy bool, opts QueryOptions) ([]TermStudyRow, error)

	// StudiesByLocation returns studies with at least one coordinate
	// matching q at radius r, one row per study with an example
	// coordinate, ordered by year descending, study id ascending.
	StudiesByLocation(ctx context.Context, q Point, r float64, opts QueryOptions) ([]LocationStudyRow, error)

	// DissociateTerms returns studies with at least one annotation
	// matching a and no annotation anywhere in the study matching b. One
	// row per study, carrying the study's best a-match by weight.
	DissociateTerms(ctx context.Context, a, b TermCandidates, fuzzy bool, opts QueryOptions) ([]TermStudyRow, error)

	// DissociateLocations returns studies with at least one coordinate
	// matching a at radius r and none matching b at radius r. One row per
	// study with an arbitrary example coordinate from the a-matching set.
	DissociateLocations(ctx context.Context, a, b Point, r float64, opts QueryOptions) ([]LocationStudyRow, error)

	// CorpusStats reports per-table counts and samples for diagnostics.
	CorpusStats(ctx context.Context) (*CorpusStats, error)

	// Ping verifies store reachability for readiness probes.
	Ping(ctx context.Context) error
}

// CorpusStats is the /debug/corpus payload body.
type CorpusStats struct {
	ServerVersion     string       `json:"server_version"`
	StudyCount        int64        `json:"study_count"`
	AnnotationCount   int64        `json:"annotation_count"`
	CoordinateCount   int64        `json:"coordinate_count"`
	SampleStudies     []Study      `json:"sample_studies"`
	SampleAnnotations []Annotation `json:"sample_annotations"`
}
