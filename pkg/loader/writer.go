package loader

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
)

var csvHeader = []string{
	"original_latitude", "original_longitude", "timestamp",
	"projected_x", "projected_y", "netelement_id",
	"measure_meters", "projection_distance_meters", "crs",
}

// WriteProjectedCSV writes one row per projected position, in input order.
func WriteProjectedCSV(path string, positions []datastructure.ProjectedPosition) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot create output csv %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot write csv header")
	}
	for _, pos := range positions {
		record := []string{
			formatFloat(pos.OriginalLatitude),
			formatFloat(pos.OriginalLongitude),
			pos.Timestamp.Format(time.RFC3339),
			formatFloat(pos.ProjectedX),
			formatFloat(pos.ProjectedY),
			pos.NetelementID,
			formatFloat(pos.MeasureMeters),
			formatFloat(pos.ProjectionDistanceMeters),
			pos.Crs,
		}
		if err := w.Write(record); err != nil {
			return domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot write csv row")
		}
	}
	w.Flush()
	return w.Error()
}

// WriteProjectedGeoJSON writes the projected positions as a FeatureCollection
// of points carrying the projection attributes as properties.
func WriteProjectedGeoJSON(path string, positions []datastructure.ProjectedPosition) error {
	fc := geojson.NewFeatureCollection()
	for _, pos := range positions {
		feat := geojson.NewFeature(orb.Point{pos.ProjectedX, pos.ProjectedY})
		feat.Properties["timestamp"] = pos.Timestamp.Format(time.RFC3339)
		feat.Properties["netelement_id"] = pos.NetelementID
		feat.Properties["measure_meters"] = pos.MeasureMeters
		feat.Properties["projection_distance_meters"] = pos.ProjectionDistanceMeters
		feat.Properties["original_latitude"] = pos.OriginalLatitude
		feat.Properties["original_longitude"] = pos.OriginalLongitude
		feat.Properties["crs"] = pos.Crs
		fc.Append(feat)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot marshal geojson output")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot write output geojson %s", path)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
