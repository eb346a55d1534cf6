package datastructure

import "time"

// ProjectedPosition is the result of projecting one GnssFix onto the railway
// network: the chosen netelement, the along-element measure, the perpendicular
// offset, and the projected point expressed in the target CRS. One per input
// fix, in input order.
type ProjectedPosition struct {
	OriginalLatitude  float64   `json:"original_latitude"`
	OriginalLongitude float64   `json:"original_longitude"`
	Timestamp         time.Time `json:"timestamp"`

	ProjectedX float64 `json:"projected_x"`
	ProjectedY float64 `json:"projected_y"`

	NetelementID string `json:"netelement_id"`

	// MeasureMeters is the arc length from the element start vertex to the
	// projected point, in working-CRS meters.
	MeasureMeters float64 `json:"measure_meters"`

	// ProjectionDistanceMeters is the perpendicular distance between the fix
	// and its projected point, in working-CRS meters.
	ProjectionDistanceMeters float64 `json:"projection_distance_meters"`

	Crs string `json:"crs"`
}
