package study

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/atlaslab/studyatlas/pkg/errors"
)

// Point is a 3D corpus coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point) String() string {
	return fmt.Sprintf("%g_%g_%g", p.X, p.Y, p.Z)
}

// ParsePoint parses the wire form "x_y_z": exactly three underscore
// separated real numbers, signed, integer or decimal. Anything else is a
// request-level error, never an empty result.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(strings.TrimSpace(s), "_")
	if len(parts) != 3 {
		return Point{}, apperrors.New(apperrors.ErrCodeBadCoordinates,
			"coordinate %q must be three underscore-separated numbers", s)
	}
	var vals [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return Point{}, apperrors.New(apperrors.ErrCodeBadCoordinates,
				"coordinate %q component %q is not a number", s, part)
		}
		vals[i] = v
	}
	return Point{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// MatchPoint reports whether stored matches the query point q at radius r.
// r == 0 demands exact component equality. r > 0 accepts either a full 3D
// Euclidean distance within r, or a planar (x,y) distance within r with
// the depth difference also within r. The two branches are a single OR so
// the store SQL can mirror this predicate one to one.
func MatchPoint(q, stored Point, r float64) bool {
	if r == 0 {
		return q.X == stored.X && q.Y == stored.Y && q.Z == stored.Z
	}
	dx, dy, dz := q.X-stored.X, q.Y-stored.Y, q.Z-stored.Z
	if math.Sqrt(dx*dx+dy*dy+dz*dz) <= r {
		return true
	}
	return math.Sqrt(dx*dx+dy*dy) <= r && math.Abs(dz) <= r
}
