package spatialindex

import (
	"log"
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
	"github.com/railkit/trackproj/pkg/geo"
)

// rtreego rejects rectangles with non-positive extents, so point-like
// envelopes get padded by this much.
const minExtent = 1e-9

type envelope struct {
	minX, minY, maxX, maxY float64
}

// distance is the euclidean distance from p to the envelope, zero when p is
// inside it.
func (e envelope) distance(p datastructure.Point) float64 {
	dx := math.Max(math.Max(e.minX-p.X, 0), p.X-e.maxX)
	dy := math.Max(math.Max(e.minY-p.Y, 0), p.Y-e.maxY)
	return math.Hypot(dx, dy)
}

type elementEntry struct {
	idx  int
	env  envelope
	rect rtreego.Rect
}

func (e *elementEntry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is a read-only spatial index over network elements. Elements live in
// a flat arena and the R-tree stores integer references into it, so the whole
// structure can be shared across concurrently running fix-projection tasks
// without locking once Build returns.
type Index struct {
	tree       *rtreego.Rtree
	elements   []datastructure.NetworkElement
	degenerate []bool
}

// Build computes the axis-aligned envelope of every element and bulk-inserts
// them into an R-tree. Elements whose vertices are all coincident are kept in
// the index but flagged; they can never be selected as a projection target.
// Vertices must already be in the engine's working CRS.
func Build(elements []datastructure.NetworkElement) (*Index, error) {
	if len(elements) == 0 {
		return nil, domain.Errorf(domain.ErrEmptyNetwork, "network index needs at least one element")
	}

	idx := &Index{
		tree:       rtreego.NewTree(2, 25, 50),
		elements:   elements,
		degenerate: make([]bool, len(elements)),
	}

	for i, el := range elements {
		env := envelope{
			minX: math.MaxFloat64, minY: math.MaxFloat64,
			maxX: -math.MaxFloat64, maxY: -math.MaxFloat64,
		}
		for _, v := range el.Vertices {
			env.minX = math.Min(env.minX, v.X)
			env.minY = math.Min(env.minY, v.Y)
			env.maxX = math.Max(env.maxX, v.X)
			env.maxY = math.Max(env.maxY, v.Y)
		}

		if geo.IsDegenerate(el.Vertices) {
			idx.degenerate[i] = true
			log.Printf("netelement %q has zero effective length, it will never be a projection target", el.ID)
		}

		rect, err := rtreego.NewRect(
			rtreego.Point{env.minX, env.minY},
			[]float64{
				math.Max(env.maxX-env.minX, minExtent),
				math.Max(env.maxY-env.minY, minExtent),
			},
		)
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrInternalServerError,
				"cannot build envelope for netelement %q", el.ID)
		}
		idx.tree.Insert(&elementEntry{idx: i, env: env, rect: rect})
	}

	return idx, nil
}

// Query returns the arena indexes of every element whose envelope intersects
// the disk of the given radius around p. This is a conservative superset
// filter: false positives are pruned later by the exact segment projector.
// Result order is unspecified.
func (idx *Index) Query(p datastructure.Point, radius float64) []int {
	rect, err := rtreego.NewRect(
		rtreego.Point{p.X - radius, p.Y - radius},
		[]float64{2 * radius, 2 * radius},
	)
	if err != nil {
		return nil
	}

	var out []int
	for _, hit := range idx.tree.SearchIntersect(rect) {
		entry := hit.(*elementEntry)
		if entry.env.distance(p) <= radius {
			out = append(out, entry.idx)
		}
	}
	return out
}

// Element returns the arena element at i.
func (idx *Index) Element(i int) datastructure.NetworkElement {
	return idx.elements[i]
}

// IsDegenerate reports whether the element at i has zero effective length.
func (idx *Index) IsDegenerate(i int) bool {
	return idx.degenerate[i]
}

func (idx *Index) Len() int {
	return len(idx.elements)
}
