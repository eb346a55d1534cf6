package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/railkit/trackproj/pkg/engine/projection"
)

// ServerConfig is the trackproj server configuration.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" validate:"required"`

	// NetworkFile is the railway network model, GeoJSON (.geojson/.json) or
	// OSM PBF (.pbf).
	NetworkFile string `yaml:"network_file" validate:"required"`

	// NetworkCrs overrides the CRS declared by the network file; empty keeps
	// the declared one.
	NetworkCrs string `yaml:"network_crs"`

	// WorkingCrs is the metric CRS used for indexing and projection.
	WorkingCrs string `yaml:"working_crs" validate:"required"`

	// Projection holds the engine defaults; requests may override them.
	Projection projection.Config `yaml:"projection"`
}

// Load reads and validates a YAML server config. Unset projection fields fall
// back to the engine defaults.
func Load(path string) (ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{Projection: projection.DefaultConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, err
	}

	// an absent radius key falls back to the default; an explicit zero must
	// reach Validate and fail there
	var probe struct {
		Projection struct {
			MaxSearchRadiusMeters *float64 `yaml:"max_search_radius_meters"`
		} `yaml:"projection"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return ServerConfig{}, err
	}
	if probe.Projection.MaxSearchRadiusMeters == nil {
		cfg.Projection.MaxSearchRadiusMeters = projection.DefaultConfig().MaxSearchRadiusMeters
	}

	v := validator.New()
	if err := v.Struct(&cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := cfg.Projection.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}
