package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/railkit/trackproj/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trackproj.yaml")
	assert.Nil(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
listen_addr: ":5000"
network_file: network.geojson
working_crs: EPSG:31370
projection:
  max_search_radius_meters: 250
  projection_distance_warning_threshold_meters: 25
  suppress_warnings: true
`)
		cfg, err := config.Load(path)
		assert.Nil(t, err)
		assert.Equal(t, ":5000", cfg.ListenAddr)
		assert.Equal(t, "EPSG:31370", cfg.WorkingCrs)
		assert.Equal(t, 250.0, cfg.Projection.MaxSearchRadiusMeters)
		assert.Equal(t, 25.0, cfg.Projection.ProjectionDistanceWarningThresholdMeters)
		assert.True(t, cfg.Projection.SuppressWarnings)
	})

	t.Run("unset projection values fall back to defaults", func(t *testing.T) {
		path := writeConfig(t, `
listen_addr: ":5000"
network_file: network.geojson
working_crs: EPSG:31370
`)
		cfg, err := config.Load(path)
		assert.Nil(t, err)
		assert.Equal(t, 1000.0, cfg.Projection.MaxSearchRadiusMeters)
		assert.Equal(t, 50.0, cfg.Projection.ProjectionDistanceWarningThresholdMeters)
	})

	t.Run("missing required fields are rejected", func(t *testing.T) {
		path := writeConfig(t, `
listen_addr: ":5000"
`)
		_, err := config.Load(path)
		assert.NotNil(t, err)
	})

	t.Run("explicit zero radius is rejected, not defaulted", func(t *testing.T) {
		path := writeConfig(t, `
listen_addr: ":5000"
network_file: network.geojson
working_crs: EPSG:31370
projection:
  max_search_radius_meters: 0
`)
		_, err := config.Load(path)
		assert.NotNil(t, err)
	})

	t.Run("negative radius is rejected", func(t *testing.T) {
		path := writeConfig(t, `
listen_addr: ":5000"
network_file: network.geojson
working_crs: EPSG:31370
projection:
  max_search_radius_meters: -5
`)
		_, err := config.Load(path)
		assert.NotNil(t, err)
	})
}
