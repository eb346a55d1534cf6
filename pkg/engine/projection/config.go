package projection

import (
	"github.com/go-playground/validator/v10"

	"github.com/railkit/trackproj/domain"
)

var validate = validator.New()

// Config carries the tunable thresholds of a projection run. One instance may
// be shared across many fixes; the engine never mutates it.
type Config struct {
	// MaxSearchRadiusMeters bounds the candidate search around each fix, in
	// working-CRS meters.
	MaxSearchRadiusMeters float64 `json:"max_search_radius_meters" yaml:"max_search_radius_meters" validate:"gt=0"`

	// ProjectionDistanceWarningThresholdMeters is the perpendicular distance
	// above which a data-quality warning is emitted for a fix.
	ProjectionDistanceWarningThresholdMeters float64 `json:"projection_distance_warning_threshold_meters" yaml:"projection_distance_warning_threshold_meters" validate:"gte=0"`

	// SuppressWarnings silences the threshold warnings without changing any
	// output value.
	SuppressWarnings bool `json:"suppress_warnings" yaml:"suppress_warnings"`

	// NumWorkers bounds the fix-projection fan-out. Zero means one worker per
	// CPU core.
	NumWorkers int `json:"num_workers,omitempty" yaml:"num_workers" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		MaxSearchRadiusMeters:                    1000.0,
		ProjectionDistanceWarningThresholdMeters: 50.0,
		SuppressWarnings:                         false,
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(&c); err != nil {
		return domain.WrapErrorf(err, domain.ErrBadParamInput, "invalid projection config")
	}
	return nil
}
