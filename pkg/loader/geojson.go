package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
)

// geojsonCrsMember is the legacy GeoJSON "crs" foreign member, e.g.
// {"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::31370"}}.
// RFC 7946 dropped it; when absent the network is WGS84.
type geojsonCrsMember struct {
	Crs struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// ParseNetworkGeoJSON reads netelements from a GeoJSON FeatureCollection.
// Every LineString feature becomes one element; each part of a
// MultiLineString becomes its own element with a "#<part>" id suffix. The
// element id is taken from the "id" property, falling back to the feature id.
// Returns the elements together with the CRS identifier declared by the file
// (default "EPSG:4326").
func ParseNetworkGeoJSON(path string) ([]datastructure.NetworkElement, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot read network geojson %s", path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, "", domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot parse network geojson %s", path)
	}
	crsID := declaredCrs(data)

	var elements []datastructure.NetworkElement
	for i, f := range fc.Features {
		id := featureID(f)
		if id == "" {
			id = fmt.Sprintf("feature/%d", i)
		}

		switch g := f.Geometry.(type) {
		case orb.LineString:
			el, err := datastructure.NewNetworkElement(id, lineToVertices(g))
			if err != nil {
				return nil, "", err
			}
			elements = append(elements, el)
		case orb.MultiLineString:
			for part, line := range g {
				partID := id
				if len(g) > 1 {
					partID = fmt.Sprintf("%s#%d", id, part)
				}
				el, err := datastructure.NewNetworkElement(partID, lineToVertices(line))
				if err != nil {
					return nil, "", err
				}
				elements = append(elements, el)
			}
		default:
			// points, polygons etc. are not track axes
			continue
		}
	}

	if len(elements) == 0 {
		return nil, "", domain.Errorf(domain.ErrEmptyNetwork, "%s contains no LineString features", path)
	}
	return elements, crsID, nil
}

func featureID(f *geojson.Feature) string {
	if v, ok := f.Properties["id"].(string); ok && v != "" {
		return v
	}
	switch v := f.ID.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%d", int64(v))
	}
	return ""
}

func lineToVertices(line orb.LineString) []datastructure.Point {
	vertices := make([]datastructure.Point, len(line))
	for i, p := range line {
		vertices[i] = datastructure.NewPoint(p[0], p[1])
	}
	return vertices
}

// declaredCrs reads the CRS identifier a GeoJSON document declares via the
// legacy "crs" member; absent or unusable means WGS84 per RFC 7946.
func declaredCrs(data []byte) string {
	var member geojsonCrsMember
	if err := json.Unmarshal(data, &member); err == nil && member.Crs.Properties.Name != "" {
		if id := crsFromURN(member.Crs.Properties.Name); id != "" {
			return id
		}
	}
	return "EPSG:4326"
}

// crsFromURN extracts "EPSG:31370" from "urn:ogc:def:crs:EPSG::31370" and
// similar forms; returns "" when the URN is not an authority:code reference.
func crsFromURN(urn string) string {
	parts := strings.Split(urn, ":")
	if len(parts) < 2 {
		return ""
	}
	code := parts[len(parts)-1]
	if code == "" {
		return ""
	}
	// the OGC CRS84 family is WGS84 with explicit lon/lat axis order, which
	// is the axis order used here anyway
	if strings.EqualFold(code, "CRS84") {
		return "EPSG:4326"
	}
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] != "" {
			if strings.EqualFold(parts[i], "def") || strings.EqualFold(parts[i], "crs") {
				return ""
			}
			return strings.ToUpper(parts[i]) + ":" + code
		}
	}
	return ""
}
