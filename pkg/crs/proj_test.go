package crs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/crs"
	"github.com/railkit/trackproj/pkg/datastructure"
)

// newProjTransformer skips the test when the native PROJ library or its EPSG
// database is not installed on the machine running the tests.
func newProjTransformer(t *testing.T) *crs.ProjTransformer {
	t.Helper()
	tf := crs.NewProjTransformer()
	if err := tf.Validate("EPSG:4326"); err != nil {
		t.Skipf("PROJ unavailable: %v", err)
	}
	return tf
}

func TestProjTransformer(t *testing.T) {
	// Brussels, lon/lat
	brussels := datastructure.NewPoint(4.3517, 50.8503)

	t.Run("identity transform leaves coordinates untouched", func(t *testing.T) {
		tf := newProjTransformer(t)
		out, err := tf.Transform([]datastructure.Point{brussels}, "EPSG:4326", "epsg:4326")
		assert.Nil(t, err)
		assert.Len(t, out, 1)
		assert.InDelta(t, brussels.X, out[0].X, 1e-12)
		assert.InDelta(t, brussels.Y, out[0].Y, 1e-12)
	})

	t.Run("wgs84 to lambert72 round trip", func(t *testing.T) {
		tf := newProjTransformer(t)

		projected, err := tf.Transform([]datastructure.Point{brussels}, "EPSG:4326", "EPSG:31370")
		assert.Nil(t, err)
		// Brussels is near the center of the Belgian Lambert 72 grid
		assert.Greater(t, projected[0].X, 140000.0)
		assert.Less(t, projected[0].X, 160000.0)
		assert.Greater(t, projected[0].Y, 160000.0)
		assert.Less(t, projected[0].Y, 180000.0)

		back, err := tf.Transform(projected, "EPSG:31370", "EPSG:4326")
		assert.Nil(t, err)
		assert.InDelta(t, brussels.X, back[0].X, 1e-6)
		assert.InDelta(t, brussels.Y, back[0].Y, 1e-6)
	})

	t.Run("unknown code is rejected", func(t *testing.T) {
		tf := newProjTransformer(t)
		err := tf.Validate("EPSG:999999")
		assert.True(t, errors.Is(err, domain.ErrInvalidCrs))
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		tf := newProjTransformer(t)
		_, err := tf.Transform(nil, "EPSG:4326", "EPSG:31370")
		assert.True(t, errors.Is(err, domain.ErrBadParamInput))
	})
}
