package datastructure

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/railkit/trackproj/domain"
)

var validate = validator.New()

// GnssFix is a single timestamped GNSS measurement from a train journey.
// The timestamp must carry an explicit UTC offset (RFC3339). Fixes are
// immutable once constructed and keep their input row order end to end.
type GnssFix struct {
	Latitude  float64           `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64           `json:"longitude" validate:"gte=-180,lte=180"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func NewGnssFix(lat, lon float64, timestamp time.Time) (GnssFix, error) {
	fix := GnssFix{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: timestamp,
	}
	if err := validate.Struct(&fix); err != nil {
		return GnssFix{}, domain.WrapErrorf(err, domain.ErrBadParamInput,
			"gnss fix (%f, %f) out of range", lat, lon)
	}
	return fix, nil
}
