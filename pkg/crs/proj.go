package crs

import (
	"sync"

	proj "github.com/twpayne/go-proj/v10"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
)

// ProjTransformer implements Transformer on top of the PROJ library. PROJ may
// load grid and datum resources lazily on first use, so a process-wide
// initialization runs once before the first transformation is created.
//
// PJ handles are not safe for concurrent use; a mutex serializes all calls,
// which keeps the whole transformer safe to share between goroutines. The
// projection engine batches its transforms outside the parallel fan-out, so
// the lock is never contended on the hot path.
type ProjTransformer struct {
	mu    sync.Mutex
	cache map[string]*proj.PJ
}

var initOnce sync.Once

func NewProjTransformer() *ProjTransformer {
	initOnce.Do(func() {
		// force PROJ database/resource loading up front instead of on the
		// first per-run transform
		if pj, err := proj.NewCRSToCRS("EPSG:4326", "EPSG:4326", nil); err == nil {
			_ = pj
		}
	})
	return &ProjTransformer{
		cache: make(map[string]*proj.PJ),
	}
}

func (t *ProjTransformer) Validate(id string) error {
	norm, err := NormalizeID(id)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// instantiating the identity transformation catches unknown codes and
	// CRS definitions PROJ cannot build (missing grids, unsupported datums)
	_, err = t.transformation(norm, norm)
	return err
}

func (t *ProjTransformer) Transform(points []datastructure.Point, sourceCrs, targetCrs string) ([]datastructure.Point, error) {
	src, err := NormalizeID(sourceCrs)
	if err != nil {
		return nil, err
	}
	dst, err := NormalizeID(targetCrs)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, domain.Errorf(domain.ErrBadParamInput, "transform needs at least one point")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// identity is still validated, never silently skipped
	if _, err := t.transformation(src, src); err != nil {
		return nil, err
	}
	if _, err := t.transformation(dst, dst); err != nil {
		return nil, err
	}
	if src == dst {
		out := make([]datastructure.Point, len(points))
		copy(out, points)
		return out, nil
	}

	pj, err := t.transformation(src, dst)
	if err != nil {
		return nil, err
	}

	out := make([]datastructure.Point, len(points))
	for i, p := range points {
		coord, err := pj.Forward(proj.NewCoord(p.X, p.Y, 0, 0))
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrTransformFailure,
				"transform %s -> %s failed at point %d (%f, %f)", src, dst, i, p.X, p.Y)
		}
		out[i] = datastructure.NewPoint(coord.X(), coord.Y())
	}
	return out, nil
}

// transformation returns a cached PJ for the src -> dst pair. Axes are
// normalized so every CRS is addressed in (x=lon/easting, y=lat/northing)
// order regardless of what the authority registry says. Caller must hold mu.
func (t *ProjTransformer) transformation(src, dst string) (*proj.PJ, error) {
	key := src + "|" + dst
	if pj, ok := t.cache[key]; ok {
		return pj, nil
	}

	pj, err := proj.NewCRSToCRS(src, dst, nil)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrInvalidCrs,
			"cannot instantiate transformation %s -> %s", src, dst)
	}
	pj, err = pj.NormalizeForVisualization()
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrInvalidCrs,
			"cannot normalize axis order for %s -> %s", src, dst)
	}

	t.cache[key] = pj
	return pj, nil
}
