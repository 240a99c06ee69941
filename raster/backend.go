package raster

import (
	"fmt"

	geo "github.com/nci/geometry"
)

// GDALBackendKind is the only backend kind currently supported. The
// connection dispatches on the kind tag so that adding a backend means
// extending one switch, not subclassing.
const GDALBackendKind = "gdal"

// Backend is the capability set a raster engine provides to the extraction
// policy: open a resource, clip a handle to a box, reproject a handle into
// another CRS. Implementations never mutate the handles they are given.
type Backend interface {
	Open(path string, opts map[string]string) (*Handle, error)
	ClipBox(h *Handle, box BoundingBox) (*Handle, error)
	Reproject(h *Handle, dstCRS string) (*Handle, error)
}

// GeometryOps is the geometry collaborator. Coordinate transform math lives
// behind this interface and is never reimplemented here.
type GeometryOps interface {
	// Transform reprojects g from srcCRS to dstCRS.
	Transform(g geo.Geometry, srcCRS, dstCRS string) (geo.Geometry, error)
	// Bounds returns the bounding box of g in whatever CRS g is currently in.
	Bounds(g geo.Geometry) (BoundingBox, error)
	// CRSMatch reports whether two CRS identifiers describe the same CRS.
	CRSMatch(a, b string) (bool, error)
}

// ROI is a polygon or multipolygon query boundary with its CRS. It is owned
// by the caller and never mutated by extraction calls.
type ROI struct {
	Geometry geo.Geometry
	CRS      string
}

// UnsupportedBackendError is returned by Open for a backend kind outside the
// supported set.
type UnsupportedBackendError struct {
	Kind string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("raster backend %q not supported", e.Kind)
}

// GeometryMismatchError is returned when a clip box has no overlap with a
// raster, i.e. the ROI lies wholly outside the raster bounds.
type GeometryMismatchError struct {
	Box    BoundingBox
	Bounds BoundingBox
}

func (e *GeometryMismatchError) Error() string {
	return fmt.Sprintf("clip box %v does not intersect raster bounds %v", e.Box, e.Bounds)
}
