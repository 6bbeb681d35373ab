// Package testutil provides an in-memory StudyStore implementation backed
// by the pure domain predicates, so service and handler tests run without
// a database.
package testutil

import (
	"context"
	"sort"

	"github.com/atlaslab/studyatlas/internal/domain/study"
)

// Fixture is one complete study with its annotations and coordinates.
type Fixture struct {
	Study       study.Study
	Annotations []study.Annotation
	Coordinates []study.Point
}

// MemStore satisfies study.StudyStore over static fixtures. Err, when
// set, is returned by every operation, for failure-path tests.
type MemStore struct {
	Fixtures []Fixture
	Err      error
	// PingErr fails only the readiness probe.
	PingErr error
}

var _ study.StudyStore = (*MemStore)(nil)

func (m *MemStore) StudiesByTerm(ctx context.Context, c study.TermCandidates, fuzzy bool, opts study.QueryOptions) ([]study.TermStudyRow, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rows := []study.TermStudyRow{}
	for _, f := range m.Fixtures {
		for _, a := range f.Annotations {
			if study.MatchTerm(a.Term, c, fuzzy) {
				rows = append(rows, study.TermStudyRow{
					Study:     f.Study,
					Term:      a.Term,
					CleanTerm: study.CleanTerm(a.Term),
					Weight:    a.Weight,
				})
			}
		}
	}
	sortTermRows(rows)
	return paginate(rows, opts), nil
}

func (m *MemStore) DissociateTerms(ctx context.Context, a, b study.TermCandidates, fuzzy bool, opts study.QueryOptions) ([]study.TermStudyRow, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rows := []study.TermStudyRow{}
	for _, f := range m.Fixtures {
		if annotationMatches(f.Annotations, b, fuzzy) {
			continue
		}
		best, ok := bestMatch(f.Annotations, a, fuzzy)
		if !ok {
			continue
		}
		rows = append(rows, study.TermStudyRow{
			Study:     f.Study,
			Term:      best.Term,
			CleanTerm: study.CleanTerm(best.Term),
			Weight:    best.Weight,
		})
	}
	sortTermRows(rows)
	return paginate(rows, opts), nil
}

func (m *MemStore) StudiesByLocation(ctx context.Context, q study.Point, r float64, opts study.QueryOptions) ([]study.LocationStudyRow, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rows := []study.LocationStudyRow{}
	for _, f := range m.Fixtures {
		if p, ok := firstMatch(f.Coordinates, q, r); ok {
			rows = append(rows, study.LocationStudyRow{Study: f.Study, Example: p})
		}
	}
	sortLocationRows(rows)
	return paginate(rows, opts), nil
}

func (m *MemStore) DissociateLocations(ctx context.Context, a, b study.Point, r float64, opts study.QueryOptions) ([]study.LocationStudyRow, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rows := []study.LocationStudyRow{}
	for _, f := range m.Fixtures {
		if _, hit := firstMatch(f.Coordinates, b, r); hit {
			continue
		}
		if p, ok := firstMatch(f.Coordinates, a, r); ok {
			rows = append(rows, study.LocationStudyRow{Study: f.Study, Example: p})
		}
	}
	sortLocationRows(rows)
	return paginate(rows, opts), nil
}

func (m *MemStore) CorpusStats(ctx context.Context) (*study.CorpusStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	stats := &study.CorpusStats{ServerVersion: "memstore"}
	stats.StudyCount = int64(len(m.Fixtures))
	for _, f := range m.Fixtures {
		stats.AnnotationCount += int64(len(f.Annotations))
		stats.CoordinateCount += int64(len(f.Coordinates))
	}
	for i, f := range m.Fixtures {
		if i == 5 {
			break
		}
		stats.SampleStudies = append(stats.SampleStudies, f.Study)
	}
	return stats, nil
}

func (m *MemStore) Ping(ctx context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	return m.PingErr
}

func annotationMatches(anns []study.Annotation, c study.TermCandidates, fuzzy bool) bool {
	for _, a := range anns {
		if study.MatchTerm(a.Term, c, fuzzy) {
			return true
		}
	}
	return false
}

// bestMatch returns the matching annotation with the highest weight,
// nil weights losing to any numeric weight.
func bestMatch(anns []study.Annotation, c study.TermCandidates, fuzzy bool) (study.Annotation, bool) {
	var best study.Annotation
	found := false
	for _, a := range anns {
		if !study.MatchTerm(a.Term, c, fuzzy) {
			continue
		}
		if !found || weightLess(best.Weight, a.Weight) {
			best = a
			found = true
		}
	}
	return best, found
}

func firstMatch(points []study.Point, q study.Point, r float64) (study.Point, bool) {
	for _, p := range points {
		if study.MatchPoint(q, p, r) {
			return p, true
		}
	}
	return study.Point{}, false
}

// weightLess orders a before b when a is the worse weight.
func weightLess(a, b *float64) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return *a < *b
}

func sortTermRows(rows []study.TermStudyRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if wi, wj := rows[i].Weight, rows[j].Weight; !weightEqual(wi, wj) {
			return weightLess(wj, wi)
		}
		if yi, yj := rows[i].Year, rows[j].Year; !yearEqual(yi, yj) {
			return yearLess(yj, yi)
		}
		return rows[i].ID < rows[j].ID
	})
}

func sortLocationRows(rows []study.LocationStudyRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if yi, yj := rows[i].Year, rows[j].Year; !yearEqual(yi, yj) {
			return yearLess(yj, yi)
		}
		return rows[i].ID < rows[j].ID
	})
}

func weightEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func yearLess(a, b *int) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return *a < *b
}

func yearEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func paginate[T any](rows []T, opts study.QueryOptions) []T {
	if opts.Offset >= len(rows) {
		return []T{}
	}
	end := opts.Offset + opts.Limit
	if opts.Limit <= 0 || end > len(rows) {
		end = len(rows)
	}
	return rows[opts.Offset:end]
}

// Ptr returns a pointer to v. Fixture construction helper.
func Ptr[T any](v T) *T { return &v }
