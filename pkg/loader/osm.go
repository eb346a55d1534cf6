package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
)

// rail track types worth projecting onto; sidings and yards included, but not
// platforms, subways-under-construction etc.
var validRailwayType = map[string]bool{
	"rail":         true,
	"light_rail":   true,
	"narrow_gauge": true,
	"tram":         true,
	"siding":       true,
	"yard":         true,
}

// ParseOSMRailNetwork extracts railway ways from an OpenStreetMap PBF extract
// and returns them as netelements with ids of the form "way/<osm id>".
// Coordinates are WGS84, so the declared CRS is always "EPSG:4326".
func ParseOSMRailNetwork(path string) ([]datastructure.NetworkElement, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot open osm pbf %s", path)
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, 3)
	defer scanner.Close()

	// pbf files order nodes before ways, so one scan is enough
	nodeCoord := make(map[osm.NodeID]datastructure.Point)
	var railWays []*osm.Way

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodeCoord[o.ID] = datastructure.NewPoint(o.Lon, o.Lat)
		case *osm.Way:
			if validRailwayType[o.Tags.Find("railway")] {
				railWays = append(railWays, o)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", domain.WrapErrorf(err, domain.ErrBadParamInput, "cannot scan osm pbf %s", path)
	}

	elements := make([]datastructure.NetworkElement, 0, len(railWays))
	for _, way := range railWays {
		vertices := make([]datastructure.Point, 0, len(way.Nodes))
		for _, wn := range way.Nodes {
			coord, ok := nodeCoord[wn.ID]
			if !ok {
				continue // node outside the extract
			}
			vertices = append(vertices, coord)
		}
		if len(vertices) < 2 {
			continue
		}
		el, err := datastructure.NewNetworkElement(fmt.Sprintf("way/%d", way.ID), vertices)
		if err != nil {
			return nil, "", err
		}
		elements = append(elements, el)
	}

	if len(elements) == 0 {
		return nil, "", domain.Errorf(domain.ErrEmptyNetwork, "%s contains no railway ways", path)
	}
	return elements, "EPSG:4326", nil
}
