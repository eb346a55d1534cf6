package datastructure

// Point is a planar coordinate pair. For geographic CRS the axis order is
// (X=longitude, Y=latitude); for projected CRS it is (X=easting, Y=northing).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}
