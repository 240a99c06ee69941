//go:build !cgo

package raster

import (
	"errors"

	geo "github.com/nci/geometry"
)

// errGDALUnavailable is returned by every gdalBackend method when the module
// is built without cgo: the real backend in gdal.go requires the GDAL C
// library and is only compiled in when cgo is enabled.
var errGDALUnavailable = errors.New("raster: gdal backend unavailable (built without cgo)")

// gdalBackend is the no-cgo placeholder for the cgo implementation in
// gdal.go. It satisfies Backend and GeometryOps so the package compiles, but
// every operation fails with errGDALUnavailable.
type gdalBackend struct{}

func newGDALBackend() *gdalBackend {
	return &gdalBackend{}
}

func (b *gdalBackend) Open(path string, opts map[string]string) (*Handle, error) {
	return nil, errGDALUnavailable
}

func (b *gdalBackend) ClipBox(h *Handle, box BoundingBox) (*Handle, error) {
	return nil, errGDALUnavailable
}

func (b *gdalBackend) Reproject(h *Handle, dstCRS string) (*Handle, error) {
	return nil, errGDALUnavailable
}

func (b *gdalBackend) Transform(g geo.Geometry, srcCRS, dstCRS string) (geo.Geometry, error) {
	return nil, errGDALUnavailable
}

func (b *gdalBackend) Bounds(g geo.Geometry) (BoundingBox, error) {
	return BoundingBox{}, errGDALUnavailable
}

func (b *gdalBackend) CRSMatch(a, bCRS string) (bool, error) {
	return false, errGDALUnavailable
}
