package crs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/crs"
)

func TestNormalizeID(t *testing.T) {
	t.Run("lower case and whitespace are normalized", func(t *testing.T) {
		norm, err := crs.NormalizeID("  epsg:31370 ")
		assert.Nil(t, err)
		assert.Equal(t, "EPSG:31370", norm)
	})

	t.Run("malformed identifiers are rejected", func(t *testing.T) {
		for _, id := range []string{"", "EPSG", "EPSG:", ":4326", "EPSG:abc", "EPSG 4326", "EPSG::4326"} {
			_, err := crs.NormalizeID(id)
			assert.True(t, errors.Is(err, domain.ErrInvalidCrs), "expected ErrInvalidCrs for %q", id)
		}
	})
}

func TestSameCRS(t *testing.T) {
	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.True(t, crs.SameCRS("epsg:4326", " EPSG:4326"))
	})

	t.Run("different codes differ", func(t *testing.T) {
		assert.False(t, crs.SameCRS("EPSG:4326", "EPSG:31370"))
	})

	t.Run("malformed identifiers never match", func(t *testing.T) {
		assert.False(t, crs.SameCRS("bogus", "bogus"))
	})
}
