package raster

import (
	"fmt"
)

// Connection binds an open raster handle to the backend that produced it.
// CRS, resolution, bounds and dtype are derived once at open time; the
// underlying resource is assumed append-only for the handle's lifetime.
type Connection struct {
	BackendKind string
	Path        string
	Handle      *Handle

	backend Backend
	geom    GeometryOps
}

// Open opens a raster resource with the named backend kind.
func Open(path string, backendKind string, opts map[string]string) (*Connection, error) {
	switch backendKind {
	case GDALBackendKind:
		b := newGDALBackend()
		return newConnection(path, backendKind, b, b, opts)
	default:
		return nil, &UnsupportedBackendError{Kind: backendKind}
	}
}

// newConnection wires an explicit backend and geometry collaborator. Tests
// inject fakes through here.
func newConnection(path, backendKind string, b Backend, g GeometryOps, opts map[string]string) (*Connection, error) {
	h, err := b.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %v", path, err)
	}
	return &Connection{
		BackendKind: backendKind,
		Path:        path,
		Handle:      h,
		backend:     b,
		geom:        g,
	}, nil
}

// ContainsROI reports whether the ROI's bounding box, expressed in the
// raster's CRS, lies fully inside the raster bounds (inclusive on all four
// sides). This is a coarse box test: a rotated or irregular polygon whose
// box fits can still exceed the actual raster coverage undetected.
func (c *Connection) ContainsROI(roi ROI) (bool, error) {
	same, err := c.geom.CRSMatch(roi.CRS, c.Handle.CRS)
	if err != nil {
		return false, err
	}
	g := roi.Geometry
	if !same {
		g, err = c.geom.Transform(roi.Geometry, roi.CRS, c.Handle.CRS)
		if err != nil {
			return false, fmt.Errorf("reproject ROI to raster CRS: %v", err)
		}
	}
	box, err := c.geom.Bounds(g)
	if err != nil {
		return false, err
	}
	return c.Handle.Bounds.Contains(box), nil
}

// ExtractWindow returns the minimal raster window fully covering the ROI,
// expanded by two independent paddings:
//
//   - projectionPadding is a linear distance in the raster's CRS units. It is
//     applied before the first clip so enough raw-CRS coverage survives any
//     reprojection distortion at the ROI edges.
//   - interpolationPadding is a count of raster cells. It is applied as
//     interpolationPadding * resolution to the ROI's bounds in the ROI's own
//     CRS, after any reprojection of the window.
//
// Reprojection happens only when the ROI CRS differs from the raster CRS.
// A ROI wholly outside the raster bounds surfaces as GeometryMismatchError
// from the first clip.
func (c *Connection) ExtractWindow(roi ROI, projectionPadding float64, interpolationPadding int) (*Handle, error) {
	same, err := c.geom.CRSMatch(roi.CRS, c.Handle.CRS)
	if err != nil {
		return nil, err
	}

	roiGeom := roi.Geometry
	if !same {
		roiGeom, err = c.geom.Transform(roi.Geometry, roi.CRS, c.Handle.CRS)
		if err != nil {
			return nil, fmt.Errorf("reproject ROI to raster CRS: %v", err)
		}
	}
	roiBox, err := c.geom.Bounds(roiGeom)
	if err != nil {
		return nil, err
	}

	window, err := c.backend.ClipBox(c.Handle, roiBox.Pad(projectionPadding))
	if err != nil {
		return nil, err
	}

	if !same {
		window, err = c.backend.Reproject(window, roi.CRS)
		if err != nil {
			return nil, fmt.Errorf("reproject window to %q: %v", roi.CRS, err)
		}
	}

	// The second box is padded with the raster's resolution even though it is
	// expressed in the ROI's CRS: the guarantee is this many raster cells'
	// worth of margin, not a distance native to the ROI's CRS.
	nativeBox, err := c.geom.Bounds(roi.Geometry)
	if err != nil {
		return nil, err
	}
	pad := float64(interpolationPadding) * c.Handle.Resolution
	return c.backend.ClipBox(window, nativeBox.Pad(pad))
}
