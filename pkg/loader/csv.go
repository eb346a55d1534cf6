package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
)

// ParseGnssCSV reads GNSS fixes from a CSV file with a header row. latCol,
// lonCol and timeCol name the required columns; every other column is
// preserved as fix metadata. Timestamps must be RFC3339 with an explicit UTC
// offset. Row order is preserved.
func ParseGnssCSV(path, latCol, lonCol, timeCol string) ([]datastructure.GnssFix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot open gnss csv %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot parse gnss csv %s", path)
	}
	if len(records) == 0 {
		return nil, domain.Errorf(domain.ErrBadParamInput, "gnss csv %s has no header row", path)
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	latIdx, ok := colIdx[latCol]
	if !ok {
		return nil, domain.Errorf(domain.ErrBadParamInput, "latitude column %q not found in %s", latCol, path)
	}
	lonIdx, ok := colIdx[lonCol]
	if !ok {
		return nil, domain.Errorf(domain.ErrBadParamInput, "longitude column %q not found in %s", lonCol, path)
	}
	timeIdx, ok := colIdx[timeCol]
	if !ok {
		return nil, domain.Errorf(domain.ErrBadParamInput, "timestamp column %q not found in %s", timeCol, path)
	}

	fixes := make([]datastructure.GnssFix, 0, len(records)-1)
	for row, record := range records[1:] {
		lat, err := strconv.ParseFloat(record[latIdx], 64)
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "row %d: latitude %q is not numeric", row+1, record[latIdx])
		}
		lon, err := strconv.ParseFloat(record[lonIdx], 64)
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "row %d: longitude %q is not numeric", row+1, record[lonIdx])
		}
		ts, err := parseTimestamp(record[timeIdx])
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrBadParamInput,
				"row %d: timestamp %q must be RFC3339 with an explicit UTC offset (e.g. 2025-12-09T14:30:00+01:00)",
				row+1, record[timeIdx])
		}

		fix, err := datastructure.NewGnssFix(lat, lon, ts)
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "row %d rejected", row+1)
		}

		for i, name := range header {
			if i == latIdx || i == lonIdx || i == timeIdx || i >= len(record) {
				continue
			}
			if fix.Metadata == nil {
				fix.Metadata = make(map[string]string)
			}
			fix.Metadata[name] = record[i]
		}
		fixes = append(fixes, fix)
	}
	return fixes, nil
}

// parseTimestamp accepts RFC3339 only; the format itself guarantees a "Z" or
// numeric UTC offset is present.
func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return ts, nil
}
