package postgres

import (
	"strings"
	"testing"

	"github.com/atlaslab/studyatlas/internal/domain/study"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
)

// normalizeSpace collapses formatting whitespace in generated SQL so
// assertions stay readable.
func normalizeSpace(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func TestArgListNumbering(t *testing.T) {
	var a argList
	if got := a.next("x"); got != "$1" {
		t.Fatalf("first arg = %s", got)
	}
	if got := a.next(2); got != "$2" {
		t.Fatalf("second arg = %s", got)
	}
	if len(a.args) != 2 || a.args[0] != "x" || a.args[1] != 2 {
		t.Fatalf("args = %v", a.args)
	}
}

func TestTermPredicateExact(t *testing.T) {
	var a argList
	c := study.NormalizeTerm("working memory")
	pred := normalizeSpace(termPredicate("a", c, false, &a))
	if !strings.Contains(pred, "= $1") || !strings.Contains(pred, "= $2") {
		t.Errorf("exact predicate should compare both candidates: %s", pred)
	}
	if strings.Contains(pred, "starts_with") {
		t.Errorf("exact predicate must not prefix-match: %s", pred)
	}
	if a.args[0] != "working_memory" || a.args[1] != "working memory" {
		t.Errorf("candidate args = %v", a.args)
	}
}

func TestTermPredicateFuzzy(t *testing.T) {
	var a argList
	pred := termPredicate("b", study.NormalizeTerm("alpha band"), true, &a)
	if got := strings.Count(pred, "starts_with"); got != 1 {
		t.Errorf("fuzzy predicate should prefix-match exactly once: %s", pred)
	}
	if !strings.Contains(pred, "b.term") {
		t.Errorf("predicate should reference the given alias: %s", pred)
	}
	// Space form keeps equality only; the prefix branch gets the
	// underscore form.
	if a.args[0] != "alpha band" || a.args[1] != "alpha_band" {
		t.Errorf("candidate args = %v", a.args)
	}
}

func TestLocationExprsExactModeUsesNativeFrame(t *testing.T) {
	s := &StudyStore{targetSRID: 4326, logger: logging.NewNop()}
	var a argList
	geom, pred := s.locationExprs("c", study.Point{X: 1, Y: 2, Z: 3}, 0, &a)
	pred = normalizeSpace(pred)
	if geom != "c.geom" {
		t.Errorf("exact mode should select raw stored geometry, got %s", geom)
	}
	for _, frag := range []string{"ST_X(c.geom)", "ST_Y(c.geom)", "ST_Z(c.geom)"} {
		if !strings.Contains(pred, frag) {
			t.Errorf("exact predicate missing %s: %s", frag, pred)
		}
	}
	if strings.Contains(pred, "ST_Transform") {
		t.Errorf("exact equality must not reproject: %s", pred)
	}
	if strings.Contains(pred, "DWithin") {
		t.Errorf("exact mode must not use distance functions: %s", pred)
	}
}

func TestLocationExprsRadiusMode(t *testing.T) {
	s := &StudyStore{targetSRID: 4326, logger: logging.NewNop()}
	var a argList
	geom, pred := s.locationExprs("c", study.Point{}, 6, &a)
	pred = normalizeSpace(pred)
	if !strings.Contains(geom, "ST_Transform") {
		t.Errorf("radius mode should reconcile frames: %s", geom)
	}
	if !strings.Contains(pred, "ST_3DDWithin") {
		t.Errorf("radius predicate missing 3D branch: %s", pred)
	}
	if !strings.Contains(pred, "ST_DWithin") || !strings.Contains(pred, "abs(ST_Z") {
		t.Errorf("radius predicate missing planar fallback: %s", pred)
	}
	if !strings.Contains(pred, " OR ") {
		t.Errorf("branches must combine with a single OR: %s", pred)
	}
}

func TestDissociateTermsSQLDropsExclusionForBlankB(t *testing.T) {
	sqlStr, args := buildDissociateTermsSQL(
		study.NormalizeTerm("fear"), study.NormalizeTerm("   "), true,
		study.QueryOptions{Limit: 50})
	if strings.Contains(sqlStr, "NOT EXISTS") {
		t.Errorf("blank B must not produce an exclusion clause: %s", sqlStr)
	}
	for _, arg := range args {
		if arg == "" {
			t.Errorf("empty candidate leaked into args: %v", args)
		}
	}

	sqlStr, _ = buildDissociateTermsSQL(
		study.NormalizeTerm("fear"), study.NormalizeTerm("pain"), true,
		study.QueryOptions{Limit: 50})
	if !strings.Contains(sqlStr, "NOT EXISTS") {
		t.Errorf("non-blank B requires the exclusion clause: %s", sqlStr)
	}
}

func TestGeomExprTransformsForeignSRID(t *testing.T) {
	s := &StudyStore{targetSRID: 4326, logger: logging.NewNop()}
	var a argList
	expr := normalizeSpace(s.geomExpr("c", &a))
	if !strings.Contains(expr, "ST_Transform") || !strings.Contains(expr, "ST_SRID") {
		t.Errorf("geometry expression must reconcile SRIDs: %s", expr)
	}
	if a.args[0] != 4326 {
		t.Errorf("SRID arg = %v", a.args[0])
	}
}
