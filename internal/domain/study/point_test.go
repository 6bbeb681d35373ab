package study

import (
	"testing"

	apperrors "github.com/atlaslab/studyatlas/pkg/errors"
)

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("-12_4.5_0")
	if err != nil {
		t.Fatalf("ParsePoint: %v", err)
	}
	if p.X != -12 || p.Y != 4.5 || p.Z != 0 {
		t.Errorf("got %+v", p)
	}
}

func TestParsePointRejectsBadInput(t *testing.T) {
	for _, s := range []string{
		"",
		"1_2",
		"1_2_3_4",
		"a_b_c",
		"1_2_z",
		"1__3", // empty middle component
	} {
		_, err := ParsePoint(s)
		if err == nil {
			t.Errorf("ParsePoint(%q) should fail", s)
			continue
		}
		if !apperrors.IsCode(err, apperrors.ErrCodeBadCoordinates) {
			t.Errorf("ParsePoint(%q) code = %s", s, apperrors.GetCode(err))
		}
	}
}

func TestMatchPointExactMode(t *testing.T) {
	q := Point{X: 1, Y: 2, Z: 3}
	if !MatchPoint(q, Point{X: 1, Y: 2, Z: 3}, 0) {
		t.Error("identical points should match at r=0")
	}
	if MatchPoint(q, Point{X: 1, Y: 2, Z: 3.0001}, 0) {
		t.Error("r=0 demands exact equality")
	}
}

func TestMatchPointEuclidean(t *testing.T) {
	q := Point{}
	if !MatchPoint(q, Point{X: 3, Y: 4, Z: 0}, 5) {
		t.Error("distance 5 should match r=5")
	}
	// 3D distance sqrt(26) > 5, but planar distance 5 <= 5 and |dz| 1 <= 5,
	// so the planar branch accepts it.
	if !MatchPoint(q, Point{X: 3, Y: 4, Z: 1}, 5) {
		t.Error("planar fallback should accept")
	}
}

func TestMatchPointPlanarFallbackBounds(t *testing.T) {
	q := Point{}
	// Planar distance fine but depth difference beyond r.
	if MatchPoint(q, Point{X: 1, Y: 0, Z: 10}, 5) {
		t.Error("depth difference beyond r must reject")
	}
	// Both branches fail.
	if MatchPoint(q, Point{X: 6, Y: 0, Z: 0}, 5) {
		t.Error("planar distance beyond r must reject")
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 50},
		{-3, 50},
		{1, 1},
		{500, 500},
		{501, 500},
		{50000, 500},
	}
	for _, c := range cases {
		if got := ClampLimit(c.in, 50, 500); got != c.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestClampOffset(t *testing.T) {
	if ClampOffset(-1) != 0 || ClampOffset(7) != 7 {
		t.Error("offset clamp broken")
	}
}
