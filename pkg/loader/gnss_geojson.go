package loader

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
)

// ParseGnssGeoJSON reads GNSS fixes from a GeoJSON FeatureCollection of Point
// features. Every feature needs a "timestamp" property (RFC3339 with an
// explicit UTC offset); the remaining properties are kept as fix metadata.
// Feature order is preserved. Returns the fixes together with the CRS
// identifier declared by the file (default "EPSG:4326").
func ParseGnssGeoJSON(path string) ([]datastructure.GnssFix, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot read gnss geojson %s", path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, "", domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot parse gnss geojson %s", path)
	}
	crsID := declaredCrs(data)

	fixes := make([]datastructure.GnssFix, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, "", domain.Errorf(domain.ErrBadParamInput,
				"feature %d: gnss positions must have Point geometry", i)
		}

		raw, ok := f.Properties["timestamp"].(string)
		if !ok {
			return nil, "", domain.Errorf(domain.ErrBadParamInput,
				"feature %d: missing \"timestamp\" property", i)
		}
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, "", domain.WrapErrorf(err, domain.ErrBadParamInput,
				"feature %d: timestamp %q must be RFC3339 with an explicit UTC offset (e.g. 2025-12-09T14:30:00+01:00)",
				i, raw)
		}

		fix, err := datastructure.NewGnssFix(pt[1], pt[0], ts)
		if err != nil {
			return nil, "", domain.WrapErrorf(err, domain.ErrBadParamInput, "feature %d rejected", i)
		}

		for name, v := range f.Properties {
			if name == "timestamp" {
				continue
			}
			if fix.Metadata == nil {
				fix.Metadata = make(map[string]string)
			}
			if s, ok := v.(string); ok {
				fix.Metadata[name] = s
			} else {
				fix.Metadata[name] = fmt.Sprint(v)
			}
		}
		fixes = append(fixes, fix)
	}

	if len(fixes) == 0 {
		return nil, "", domain.Errorf(domain.ErrBadParamInput, "%s contains no gnss positions", path)
	}
	return fixes, crsID, nil
}
