package crs

import (
	"regexp"
	"strings"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
)

// Transformer converts planar coordinate pairs between named coordinate
// reference systems. Implementations must validate identifiers eagerly and
// treat a transform call as all-or-nothing over its input batch: no partial
// results are ever returned.
//
// The geodesy backend hides behind this interface so it can be swapped
// without touching the projection engine.
type Transformer interface {
	// Validate checks an "AUTHORITY:CODE" identifier against the geodesy
	// registry. Returns domain.ErrInvalidCrs when the identifier is
	// malformed, unknown, or cannot be instantiated.
	Validate(id string) error

	// Transform converts a non-empty batch of points from sourceCrs to
	// targetCrs. When the two identifiers are equal (after normalization)
	// the transform is the identity, but both identifiers are still
	// validated. A numerical failure mid-batch returns
	// domain.ErrTransformFailure naming the offending point index.
	Transform(points []datastructure.Point, sourceCrs, targetCrs string) ([]datastructure.Point, error)
}

var idPattern = regexp.MustCompile(`^[A-Za-z]+:[0-9]+$`)

// NormalizeID upper-cases and trims an "AUTHORITY:CODE" identifier. Returns
// domain.ErrInvalidCrs for anything that does not match the form.
func NormalizeID(id string) (string, error) {
	norm := strings.ToUpper(strings.TrimSpace(id))
	if !idPattern.MatchString(norm) {
		return "", domain.Errorf(domain.ErrInvalidCrs,
			"malformed CRS identifier %q, want AUTHORITY:CODE (e.g. EPSG:4326)", id)
	}
	return norm, nil
}

// SameCRS reports whether two identifiers name the same CRS after
// normalization. Malformed identifiers are never the same.
func SameCRS(a, b string) bool {
	na, errA := NormalizeID(a)
	nb, errB := NormalizeID(b)
	if errA != nil || errB != nil {
		return false
	}
	return na == nb
}
