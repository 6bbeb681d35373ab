package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaslab/studyatlas/internal/domain/study"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
	apperrors "github.com/atlaslab/studyatlas/pkg/errors"
)

// cleanTermExpr strips a taxonomy prefix inside SQL exactly the way
// study.CleanTerm does in Go: everything up to and including the first
// "__" goes, then the remainder is lowercased.
const cleanTermExpr = `lower(
	CASE WHEN position('__' in %[1]s.term) > 0
	     THEN substring(%[1]s.term from position('__' in %[1]s.term) + 2)
	     ELSE %[1]s.term
	END)`

// StudyStore is the PostGIS-backed study.StudyStore.
type StudyStore struct {
	pool       *pgxpool.Pool
	logger     logging.Logger
	targetSRID int
}

var _ study.StudyStore = (*StudyStore)(nil)

// NewStudyStore wires a store over an existing pool. targetSRID is the
// reference frame all stored geometries are transformed into before
// distance tests.
func NewStudyStore(pool *pgxpool.Pool, targetSRID int, logger logging.Logger) *StudyStore {
	return &StudyStore{pool: pool, logger: logger, targetSRID: targetSRID}
}

// argList numbers query parameters sequentially so predicate builders can
// append conditions without tracking positions by hand.
type argList struct {
	args []any
}

func (a *argList) next(v any) string {
	a.args = append(a.args, v)
	return fmt.Sprintf("$%d", len(a.args))
}

// termPredicate builds the WHERE fragment matching annotation terms in
// table alias against the candidates. Exact mode compares equality against
// both candidate forms; fuzzy mode additionally accepts the underscore
// candidate as a prefix of the cleaned term. The space form never
// prefix-matches, mirroring study.MatchTerm.
func termPredicate(alias string, c study.TermCandidates, fuzzy bool, a *argList) string {
	clean := fmt.Sprintf(cleanTermExpr, alias)
	if fuzzy {
		ps, pu := a.next(c.Space), a.next(c.Underscore)
		return fmt.Sprintf("(%s = %s OR starts_with(%s, %s))", clean, ps, clean, pu)
	}
	pu, ps := a.next(c.Underscore), a.next(c.Space)
	return fmt.Sprintf("(%s = %s OR %s = %s)", clean, pu, clean, ps)
}

// geomExpr reconciles a stored geometry's reference frame to the target
// SRID. Rows with no SRID are assumed to already be in the target frame.
func (s *StudyStore) geomExpr(alias string, a *argList) string {
	srid := a.next(s.targetSRID)
	return fmt.Sprintf(`(CASE WHEN ST_SRID(%[1]s.geom) IN (0, %[2]s::int)
	     THEN %[1]s.geom
	     ELSE ST_Transform(%[1]s.geom, %[2]s::int)
	END)`, alias, srid)
}

// locationExprs builds the geometry expression result rows select their
// example coordinate from, plus the matching predicate, mirroring
// study.MatchPoint. Exact mode (r == 0) compares raw stored components in
// the row's native frame, with no reprojection; radius mode reconciles
// frames first, then tests 3D distance within r OR planar distance within
// r with depth difference within r.
func (s *StudyStore) locationExprs(alias string, q study.Point, r float64, a *argList) (geom, pred string) {
	if r == 0 {
		geom = alias + ".geom"
		px, py, pz := a.next(q.X), a.next(q.Y), a.next(q.Z)
		pred = fmt.Sprintf("(ST_X(%[1]s) = %[2]s AND ST_Y(%[1]s) = %[3]s AND ST_Z(%[1]s) = %[4]s)",
			geom, px, py, pz)
		return geom, pred
	}
	geom = s.geomExpr(alias, a)
	px, py, pz := a.next(q.X), a.next(q.Y), a.next(q.Z)
	pr := a.next(r)
	srid := a.next(s.targetSRID)
	qpt := fmt.Sprintf("ST_SetSRID(ST_MakePoint(%s, %s, %s), %s::int)", px, py, pz, srid)
	pred = fmt.Sprintf(`(ST_3DDWithin(%[1]s, %[2]s, %[3]s)
	 OR (ST_DWithin(%[1]s, %[2]s, %[3]s) AND abs(ST_Z(%[1]s) - %[4]s) <= %[3]s))`,
		geom, qpt, pr, pz)
	return geom, pred
}

// ─────────────────────────────────────────────────────────────────────────
// Term facet
// ─────────────────────────────────────────────────────────────────────────

func (s *StudyStore) StudiesByTerm(ctx context.Context, c study.TermCandidates, fuzzy bool, opts study.QueryOptions) ([]study.TermStudyRow, error) {
	if c.Empty() {
		return []study.TermStudyRow{}, nil
	}

	var a argList
	pred := termPredicate("a", c, fuzzy, &a)
	sql := fmt.Sprintf(`
		SELECT m.study_id, m.title, m.journal, m.year,
		       a.term, %s AS clean_term, a.weight
		FROM ns.annotations_terms a
		JOIN ns.metadata m ON m.study_id = a.study_id
		WHERE %s
		ORDER BY a.weight DESC NULLS LAST, m.year DESC NULLS LAST, m.study_id ASC
		LIMIT %s OFFSET %s`,
		fmt.Sprintf(cleanTermExpr, "a"), pred, a.next(opts.Limit), a.next(opts.Offset))

	rows, err := s.pool.Query(ctx, sql, a.args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "query studies by term")
	}
	defer rows.Close()
	return scanTermRows(rows)
}

func (s *StudyStore) DissociateTerms(ctx context.Context, ca, cb study.TermCandidates, fuzzy bool, opts study.QueryOptions) ([]study.TermStudyRow, error) {
	if ca.Empty() {
		return []study.TermStudyRow{}, nil
	}

	sql, args := buildDissociateTermsSQL(ca, cb, fuzzy, opts)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "query term dissociation")
	}
	defer rows.Close()
	return scanTermRows(rows)
}

// buildDissociateTermsSQL assembles the dissociation statement. The
// exclusion is per study: a study is dropped when ANY of its annotations
// matches B, however many match A. Empty B candidates match nothing, so
// the exclusion clause is omitted entirely; embedding them would turn the
// fuzzy predicate into starts_with(term, ''), which is true for every row.
func buildDissociateTermsSQL(ca, cb study.TermCandidates, fuzzy bool, opts study.QueryOptions) (string, []any) {
	var a argList
	predA := termPredicate("a", ca, fuzzy, &a)

	exclusion := ""
	if !cb.Empty() {
		predB := termPredicate("b", cb, fuzzy, &a)
		exclusion = fmt.Sprintf(`
		WHERE NOT EXISTS (
			SELECT 1 FROM ns.annotations_terms b
			WHERE b.study_id = ba.study_id AND %s
		)`, predB)
	}

	sql := fmt.Sprintf(`
		WITH best_a AS (
			SELECT DISTINCT ON (a.study_id)
			       a.study_id, a.term, %s AS clean_term, a.weight
			FROM ns.annotations_terms a
			WHERE %s
			ORDER BY a.study_id, a.weight DESC NULLS LAST
		)
		SELECT m.study_id, m.title, m.journal, m.year,
		       ba.term, ba.clean_term, ba.weight
		FROM best_a ba
		JOIN ns.metadata m ON m.study_id = ba.study_id%s
		ORDER BY ba.weight DESC NULLS LAST, m.year DESC NULLS LAST, m.study_id ASC
		LIMIT %s OFFSET %s`,
		fmt.Sprintf(cleanTermExpr, "a"), predA, exclusion,
		a.next(opts.Limit), a.next(opts.Offset))
	return sql, a.args
}

// ─────────────────────────────────────────────────────────────────────────
// Location facet
// ─────────────────────────────────────────────────────────────────────────

func (s *StudyStore) StudiesByLocation(ctx context.Context, q study.Point, r float64, opts study.QueryOptions) ([]study.LocationStudyRow, error) {
	var a argList
	geom, pred := s.locationExprs("c", q, r, &a)
	sql := fmt.Sprintf(`
		WITH matched AS (
			SELECT DISTINCT ON (c.study_id)
			       c.study_id, ST_X(%[1]s) AS x, ST_Y(%[1]s) AS y, ST_Z(%[1]s) AS z
			FROM ns.coordinates c
			WHERE %[2]s
			ORDER BY c.study_id
		)
		SELECT m.study_id, m.title, m.journal, m.year, mc.x, mc.y, mc.z
		FROM matched mc
		JOIN ns.metadata m ON m.study_id = mc.study_id
		ORDER BY m.year DESC NULLS LAST, m.study_id ASC
		LIMIT %[3]s OFFSET %[4]s`,
		geom, pred, a.next(opts.Limit), a.next(opts.Offset))

	rows, err := s.pool.Query(ctx, sql, a.args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "query studies by location")
	}
	defer rows.Close()
	return scanLocationRows(rows)
}

func (s *StudyStore) DissociateLocations(ctx context.Context, pa, pb study.Point, r float64, opts study.QueryOptions) ([]study.LocationStudyRow, error) {
	var a argList
	geomA, predA := s.locationExprs("c", pa, r, &a)
	_, predB := s.locationExprs("d", pb, r, &a)
	sql := fmt.Sprintf(`
		WITH matched_a AS (
			SELECT DISTINCT ON (c.study_id)
			       c.study_id, ST_X(%[1]s) AS x, ST_Y(%[1]s) AS y, ST_Z(%[1]s) AS z
			FROM ns.coordinates c
			WHERE %[2]s
			ORDER BY c.study_id
		)
		SELECT m.study_id, m.title, m.journal, m.year, ma.x, ma.y, ma.z
		FROM matched_a ma
		JOIN ns.metadata m ON m.study_id = ma.study_id
		WHERE NOT EXISTS (
			SELECT 1 FROM ns.coordinates d
			WHERE d.study_id = ma.study_id AND %[3]s
		)
		ORDER BY m.year DESC NULLS LAST, m.study_id ASC
		LIMIT %[4]s OFFSET %[5]s`,
		geomA, predA, predB, a.next(opts.Limit), a.next(opts.Offset))

	rows, err := s.pool.Query(ctx, sql, a.args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "query location dissociation")
	}
	defer rows.Close()
	return scanLocationRows(rows)
}

// ─────────────────────────────────────────────────────────────────────────
// Diagnostics
// ─────────────────────────────────────────────────────────────────────────

func (s *StudyStore) CorpusStats(ctx context.Context) (*study.CorpusStats, error) {
	stats := &study.CorpusStats{}

	if err := s.pool.QueryRow(ctx, "SELECT version()").Scan(&stats.ServerVersion); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "query server version")
	}

	counts := []struct {
		table string
		dst   *int64
	}{
		{"ns.metadata", &stats.StudyCount},
		{"ns.annotations_terms", &stats.AnnotationCount},
		{"ns.coordinates", &stats.CoordinateCount},
	}
	for _, c := range counts {
		if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "count %s", c.table)
		}
	}

	rows, err := s.pool.Query(ctx,
		"SELECT study_id, title, journal, year FROM ns.metadata ORDER BY study_id LIMIT 5")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "sample metadata")
	}
	defer rows.Close()
	for rows.Next() {
		var st study.Study
		if err := rows.Scan(&st.ID, &st.Title, &st.Journal, &st.Year); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "scan metadata sample")
		}
		stats.SampleStudies = append(stats.SampleStudies, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "iterate metadata samples")
	}

	annRows, err := s.pool.Query(ctx,
		"SELECT study_id, contrast_id, term, weight FROM ns.annotations_terms ORDER BY study_id LIMIT 5")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "sample annotations")
	}
	defer annRows.Close()
	for annRows.Next() {
		var an study.Annotation
		if err := annRows.Scan(&an.StudyID, &an.ContrastID, &an.Term, &an.Weight); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "scan annotation sample")
		}
		stats.SampleAnnotations = append(stats.SampleAnnotations, an)
	}
	if err := annRows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "iterate annotation samples")
	}

	return stats, nil
}

func (s *StudyStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabase, "database unreachable")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────
// Row scanning
// ─────────────────────────────────────────────────────────────────────────

func scanTermRows(rows pgx.Rows) ([]study.TermStudyRow, error) {
	out := []study.TermStudyRow{}
	for rows.Next() {
		var r study.TermStudyRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Journal, &r.Year,
			&r.Term, &r.CleanTerm, &r.Weight); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "scan term row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "iterate term rows")
	}
	return out, nil
}

func scanLocationRows(rows pgx.Rows) ([]study.LocationStudyRow, error) {
	out := []study.LocationStudyRow{}
	for rows.Next() {
		var r study.LocationStudyRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Journal, &r.Year,
			&r.Example.X, &r.Example.Y, &r.Example.Z); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "scan location row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "iterate location rows")
	}
	return out, nil
}
