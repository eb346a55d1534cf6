package datastructure

import (
	"github.com/railkit/trackproj/domain"
)

// NetworkElement is a single railway track axis segment (netelement): an
// ordered polyline with a stable non-empty id. Vertices are planar points in
// the CRS the network source declared; elements are read-only after the
// spatial index is built.
type NetworkElement struct {
	ID       string  `json:"id" validate:"required"`
	Vertices []Point `json:"vertices" validate:"min=2"`
}

func NewNetworkElement(id string, vertices []Point) (NetworkElement, error) {
	el := NetworkElement{
		ID:       id,
		Vertices: vertices,
	}
	if err := validate.Struct(&el); err != nil {
		return NetworkElement{}, domain.WrapErrorf(err, domain.ErrBadParamInput,
			"netelement %q must have a non-empty id and at least 2 vertices", id)
	}
	return el, nil
}
