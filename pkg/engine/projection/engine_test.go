package projection_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/crs"
	"github.com/railkit/trackproj/pkg/datastructure"
	"github.com/railkit/trackproj/pkg/engine/projection"
)

// identityTransformer validates identifiers but never moves a coordinate, so
// test geometry can be written directly in working-CRS meters.
type identityTransformer struct{}

func (identityTransformer) Validate(id string) error {
	_, err := crs.NormalizeID(id)
	return err
}

func (identityTransformer) Transform(points []datastructure.Point, sourceCrs, targetCrs string) ([]datastructure.Point, error) {
	if _, err := crs.NormalizeID(sourceCrs); err != nil {
		return nil, err
	}
	if _, err := crs.NormalizeID(targetCrs); err != nil {
		return nil, err
	}
	out := make([]datastructure.Point, len(points))
	copy(out, points)
	return out, nil
}

func element(id string, pts ...[2]float64) datastructure.NetworkElement {
	vertices := make([]datastructure.Point, len(pts))
	for i, p := range pts {
		vertices[i] = datastructure.NewPoint(p[0], p[1])
	}
	return datastructure.NetworkElement{ID: id, Vertices: vertices}
}

// fix places a GNSS fix at working coordinates (x, y); with the identity
// transformer the longitude is x and the latitude is y.
func fix(x, y float64) datastructure.GnssFix {
	return datastructure.GnssFix{Latitude: y, Longitude: x, Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestEngine(t *testing.T, elements []datastructure.NetworkElement, opts ...projection.Option) *projection.Engine {
	t.Helper()
	opts = append([]projection.Option{projection.WithTransformer(identityTransformer{})}, opts...)
	engine, err := projection.NewEngine(elements, "EPSG:31370", "EPSG:31370", opts...)
	assert.Nil(t, err)
	return engine
}

func TestNewEngine(t *testing.T) {
	t.Run("invalid CRS fails before the network is inspected", func(t *testing.T) {
		_, err := projection.NewEngine(nil, "not a crs", "EPSG:31370",
			projection.WithTransformer(identityTransformer{}))
		assert.True(t, errors.Is(err, domain.ErrInvalidCrs))
		assert.False(t, errors.Is(err, domain.ErrEmptyNetwork))
	})

	t.Run("empty network is rejected", func(t *testing.T) {
		_, err := projection.NewEngine(nil, "EPSG:31370", "EPSG:31370",
			projection.WithTransformer(identityTransformer{}))
		assert.True(t, errors.Is(err, domain.ErrEmptyNetwork))
	})

	t.Run("elements need an id and at least two vertices", func(t *testing.T) {
		_, err := projection.NewEngine([]datastructure.NetworkElement{
			element("lonely", [2]float64{0, 0}),
		}, "EPSG:31370", "EPSG:31370", projection.WithTransformer(identityTransformer{}))
		assert.True(t, errors.Is(err, domain.ErrBadParamInput))
	})

	t.Run("duplicate element ids are rejected", func(t *testing.T) {
		_, err := projection.NewEngine([]datastructure.NetworkElement{
			element("e1", [2]float64{0, 0}, [2]float64{10, 0}),
			element("e1", [2]float64{0, 5}, [2]float64{10, 5}),
		}, "EPSG:31370", "EPSG:31370", projection.WithTransformer(identityTransformer{}))
		assert.True(t, errors.Is(err, domain.ErrBadParamInput))
	})
}

func TestProject(t *testing.T) {
	network := []datastructure.NetworkElement{
		element("track-a", [2]float64{0, 0}, [2]float64{100, 0}),
		element("track-b", [2]float64{0, 50}, [2]float64{100, 50}),
	}

	t.Run("one result per fix in input order", func(t *testing.T) {
		engine := newTestEngine(t, network)
		fixes := []datastructure.GnssFix{fix(10, 3), fix(90, 48), fix(50, 1)}

		out, err := engine.Project(fixes, "EPSG:31370", "EPSG:31370", projection.DefaultConfig())
		assert.Nil(t, err)
		assert.Len(t, out, 3)

		assert.Equal(t, "track-a", out[0].NetelementID)
		assert.InDelta(t, 10.0, out[0].MeasureMeters, 1e-9)
		assert.InDelta(t, 3.0, out[0].ProjectionDistanceMeters, 1e-9)

		assert.Equal(t, "track-b", out[1].NetelementID)
		assert.InDelta(t, 90.0, out[1].MeasureMeters, 1e-9)

		assert.Equal(t, "track-a", out[2].NetelementID)
		assert.InDelta(t, 50.0, out[2].MeasureMeters, 1e-9)

		// original coordinates and timestamps survive untouched
		assert.InDelta(t, 3.0, out[0].OriginalLatitude, 1e-12)
		assert.InDelta(t, 10.0, out[0].OriginalLongitude, 1e-12)
		assert.Equal(t, fixes[0].Timestamp, out[0].Timestamp)
		assert.Equal(t, "EPSG:31370", out[0].Crs)
	})

	t.Run("zero fixes yields zero results", func(t *testing.T) {
		engine := newTestEngine(t, network)
		out, err := engine.Project(nil, "EPSG:31370", "EPSG:31370", projection.DefaultConfig())
		assert.Nil(t, err)
		assert.NotNil(t, out)
		assert.Len(t, out, 0)
	})

	t.Run("invalid gnss CRS fails even with zero fixes", func(t *testing.T) {
		engine := newTestEngine(t, network)
		_, err := engine.Project(nil, "nope", "EPSG:31370", projection.DefaultConfig())
		assert.True(t, errors.Is(err, domain.ErrInvalidCrs))
	})

	t.Run("invalid target CRS fails before any fix is projected", func(t *testing.T) {
		engine := newTestEngine(t, network)
		_, err := engine.Project([]datastructure.GnssFix{fix(10, 3)}, "EPSG:31370", "nope", projection.DefaultConfig())
		assert.True(t, errors.Is(err, domain.ErrInvalidCrs))
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		engine := newTestEngine(t, network)
		cfg := projection.DefaultConfig()
		cfg.MaxSearchRadiusMeters = -1
		_, err := engine.Project([]datastructure.GnssFix{fix(10, 3)}, "EPSG:31370", "EPSG:31370", cfg)
		assert.True(t, errors.Is(err, domain.ErrBadParamInput))
	})

	t.Run("a fix with no candidate aborts the whole call", func(t *testing.T) {
		engine := newTestEngine(t, network)
		cfg := projection.DefaultConfig()
		cfg.MaxSearchRadiusMeters = 10

		fixes := []datastructure.GnssFix{fix(10, 3), fix(5000, 5000), fix(50, 1)}
		out, err := engine.Project(fixes, "EPSG:31370", "EPSG:31370", cfg)
		assert.True(t, errors.Is(err, domain.ErrUnprojectable))
		assert.Contains(t, err.Error(), "fix 1")
		assert.Nil(t, out)
	})

	t.Run("only degenerate candidates is unprojectable", func(t *testing.T) {
		engine := newTestEngine(t, []datastructure.NetworkElement{
			element("point-like", [2]float64{0, 0}, [2]float64{0, 0}),
			element("real", [2]float64{5000, 0}, [2]float64{5100, 0}),
		})
		cfg := projection.DefaultConfig()
		cfg.MaxSearchRadiusMeters = 10

		_, err := engine.Project([]datastructure.GnssFix{fix(1, 1)}, "EPSG:31370", "EPSG:31370", cfg)
		assert.True(t, errors.Is(err, domain.ErrUnprojectable))
	})

	t.Run("nearest element wins", func(t *testing.T) {
		engine := newTestEngine(t, network)
		out, err := engine.Project([]datastructure.GnssFix{fix(50, 10)}, "EPSG:31370", "EPSG:31370", projection.DefaultConfig())
		assert.Nil(t, err)
		assert.Equal(t, "track-a", out[0].NetelementID)
		assert.InDelta(t, 10.0, out[0].ProjectionDistanceMeters, 1e-9)
	})

	t.Run("equidistant elements tie-break on element id", func(t *testing.T) {
		engine := newTestEngine(t, []datastructure.NetworkElement{
			element("z-track", [2]float64{0, 10}, [2]float64{100, 10}),
			element("a-track", [2]float64{0, -10}, [2]float64{100, -10}),
		})
		out, err := engine.Project([]datastructure.GnssFix{fix(50, 0)}, "EPSG:31370", "EPSG:31370", projection.DefaultConfig())
		assert.Nil(t, err)
		assert.Equal(t, "a-track", out[0].NetelementID)
	})

	t.Run("equidistant candidates tie-break on measure first", func(t *testing.T) {
		// both elements pass at distance 10 but the fix sits at measure 20 on
		// "late" and measure 5 on "early"
		engine := newTestEngine(t, []datastructure.NetworkElement{
			element("late", [2]float64{-15, 10}, [2]float64{100, 10}),
			element("early", [2]float64{0, -10}, [2]float64{100, -10}),
		})
		out, err := engine.Project([]datastructure.GnssFix{fix(5, 0)}, "EPSG:31370", "EPSG:31370", projection.DefaultConfig())
		assert.Nil(t, err)
		assert.Equal(t, "early", out[0].NetelementID)
		assert.InDelta(t, 5.0, out[0].MeasureMeters, 1e-9)
	})

	t.Run("warnings fire above the threshold and never change results", func(t *testing.T) {
		var mu sync.Mutex
		var warned []int
		warnOpt := projection.WithWarnFunc(func(fixIdx int, f datastructure.GnssFix, d float64) {
			mu.Lock()
			warned = append(warned, fixIdx)
			mu.Unlock()
		})

		cfg := projection.DefaultConfig()
		cfg.ProjectionDistanceWarningThresholdMeters = 5

		engine := newTestEngine(t, network, warnOpt)
		fixes := []datastructure.GnssFix{fix(10, 3), fix(20, 8), fix(30, 9)}
		out, err := engine.Project(fixes, "EPSG:31370", "EPSG:31370", cfg)
		assert.Nil(t, err)
		assert.Equal(t, []int{1, 2}, warned)

		warned = nil
		cfg.SuppressWarnings = true
		quietOut, err := engine.Project(fixes, "EPSG:31370", "EPSG:31370", cfg)
		assert.Nil(t, err)
		assert.Empty(t, warned)
		assert.Equal(t, out, quietOut)
	})

	t.Run("results are deterministic across worker counts", func(t *testing.T) {
		engine := newTestEngine(t, network)
		fixes := make([]datastructure.GnssFix, 0, 50)
		for i := 0; i < 50; i++ {
			fixes = append(fixes, fix(float64(i*2), float64(i%7)))
		}

		serial := projection.DefaultConfig()
		serial.NumWorkers = 1
		parallel := projection.DefaultConfig()
		parallel.NumWorkers = 8

		a, err := engine.Project(fixes, "EPSG:31370", "EPSG:31370", serial)
		assert.Nil(t, err)
		b, err := engine.Project(fixes, "EPSG:31370", "EPSG:31370", parallel)
		assert.Nil(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("progress reaches the fix count", func(t *testing.T) {
		var mu sync.Mutex
		last := 0
		engine := newTestEngine(t, network, projection.WithProgressFunc(func(done, total int) {
			mu.Lock()
			last = done
			mu.Unlock()
		}))

		fixes := []datastructure.GnssFix{fix(10, 1), fix(20, 1), fix(30, 1)}
		_, err := engine.Project(fixes, "EPSG:31370", "EPSG:31370", projection.DefaultConfig())
		assert.Nil(t, err)
		assert.Equal(t, 3, last)
	})
}

func TestProjectOneShot(t *testing.T) {
	t.Run("nil config uses the defaults", func(t *testing.T) {
		out, err := projection.Project(
			[]datastructure.GnssFix{fix(10, 3)},
			"EPSG:31370",
			[]datastructure.NetworkElement{element("t", [2]float64{0, 0}, [2]float64{100, 0})},
			"EPSG:31370", "EPSG:31370", nil,
			projection.WithTransformer(identityTransformer{}),
		)
		assert.Nil(t, err)
		assert.Len(t, out, 1)
		assert.Equal(t, "t", out[0].NetelementID)
	})
}
