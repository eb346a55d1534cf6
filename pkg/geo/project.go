package geo

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/railkit/trackproj/pkg/datastructure"
)

// distTol is the floating point tolerance (in working-CRS units) used when two
// sub-segments yield an equal minimum distance. The earlier sub-segment along
// the polyline wins, so results are stable under reordering.
const distTol = 1e-9

type PolylineProjection struct {
	// Closest is the closest point on the polyline to the query point.
	Closest datastructure.Point
	// Distance is the perpendicular (euclidean) distance from the query point
	// to Closest.
	Distance float64
	// Measure is the cumulative arc length from the polyline start vertex to
	// Closest.
	Measure float64
}

// ProjectPointToPolyline projects p onto the closest location of the polyline.
// Zero-length sub-segments are skipped. The second return value is false when
// the polyline has no non-degenerate sub-segment at all; such an element can
// never be selected as a projection target.
func ProjectPointToPolyline(p datastructure.Point, vertices []datastructure.Point) (PolylineProjection, bool) {
	best := PolylineProjection{Distance: math.MaxFloat64}
	found := false

	q := r2.Point{X: p.X, Y: p.Y}
	cumLength := 0.0

	for i := 0; i+1 < len(vertices); i++ {
		a := r2.Point{X: vertices[i].X, Y: vertices[i].Y}
		b := r2.Point{X: vertices[i+1].X, Y: vertices[i+1].Y}

		seg := b.Sub(a)
		segLenSq := seg.Dot(seg)
		if segLenSq == 0 {
			// coincident consecutive vertices, never a projection target
			continue
		}
		segLen := math.Sqrt(segLenSq)

		// orthogonal projection parameter of q onto the infinite line through
		// (a, b), clamped to the segment
		t := q.Sub(a).Dot(seg) / segLenSq
		t = math.Max(0, math.Min(1, t))

		closest := a.Add(seg.Mul(t))
		dist := q.Sub(closest).Norm()

		// strict improvement only: within tolerance the earlier sub-segment
		// (smaller cumulative length) is kept
		if !found || dist < best.Distance-distTol {
			best = PolylineProjection{
				Closest:  datastructure.NewPoint(closest.X, closest.Y),
				Distance: dist,
				Measure:  cumLength + t*segLen,
			}
			found = true
		}

		cumLength += segLen
	}

	return best, found
}

// PolylineLength returns the total arc length of the polyline, skipping
// zero-length sub-segments.
func PolylineLength(vertices []datastructure.Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(vertices); i++ {
		a := r2.Point{X: vertices[i].X, Y: vertices[i].Y}
		b := r2.Point{X: vertices[i+1].X, Y: vertices[i+1].Y}
		total += b.Sub(a).Norm()
	}
	return total
}

// IsDegenerate reports whether all vertices of the polyline are coincident,
// i.e. the element has no non-degenerate sub-segment.
func IsDegenerate(vertices []datastructure.Point) bool {
	for i := 0; i+1 < len(vertices); i++ {
		if vertices[i] != vertices[i+1] {
			return false
		}
	}
	return true
}
