package raster

import "fmt"

// Handle is an open raster. All metadata is derived once at open time and
// the handle is read-only afterwards, so it may be shared by concurrent
// extraction calls as long as the backend supports concurrent reads.
//
// Data is a flat row-major grid: Data[i*len(XCoords)+j] is the value of the
// cell whose center is (XCoords[j], YCoords[i]). YCoords is typically
// descending for north-up rasters; clipping handles either direction.
type Handle struct {
	CRS        string
	Resolution float64 // absolute cell size along the x axis, in CRS units
	Bounds     BoundingBox
	DType      string
	NoData     float64
	Data       []float64
	XCoords    []float64
	YCoords    []float64
}

func (h *Handle) Width() int {
	return len(h.XCoords)
}

func (h *Handle) Height() int {
	return len(h.YCoords)
}

// At returns the value of cell (row, col).
func (h *Handle) At(row, col int) float64 {
	return h.Data[row*len(h.XCoords)+col]
}

// axisStep is the cell size along one coordinate axis, derived from the
// spacing of the axis values.
func axisStep(coords []float64, fallback float64) float64 {
	if len(coords) < 2 {
		return fallback
	}
	step := coords[1] - coords[0]
	if step < 0 {
		step = -step
	}
	return step
}

// axisRange returns the index range [lo, hi) of cells whose extent along the
// axis intersects [min, max]. Cell extent is the center +/- half a step.
// Works for ascending and descending axes; the kept range is contiguous.
func axisRange(coords []float64, step, min, max float64) (int, int) {
	half := step / 2
	lo, hi := -1, -1
	for i, c := range coords {
		if c+half >= min && c-half <= max {
			if lo < 0 {
				lo = i
			}
			hi = i + 1
		}
	}
	return lo, hi
}

// clipHandle restricts h to the cells intersecting box and returns a new
// handle with recomputed coordinate axes and bounds. The input handle is
// never modified. An empty intersection is an error, not an empty result.
func clipHandle(h *Handle, box BoundingBox) (*Handle, error) {
	xStep := axisStep(h.XCoords, h.Resolution)
	yStep := axisStep(h.YCoords, h.Resolution)

	x0, x1 := axisRange(h.XCoords, xStep, box.MinX, box.MaxX)
	y0, y1 := axisRange(h.YCoords, yStep, box.MinY, box.MaxY)
	if x0 < 0 || y0 < 0 {
		return nil, &GeometryMismatchError{Box: box, Bounds: h.Bounds}
	}

	width := x1 - x0
	out := &Handle{
		CRS:        h.CRS,
		Resolution: h.Resolution,
		DType:      h.DType,
		NoData:     h.NoData,
		Data:       make([]float64, 0, (y1-y0)*width),
		XCoords:    append([]float64(nil), h.XCoords[x0:x1]...),
		YCoords:    append([]float64(nil), h.YCoords[y0:y1]...),
	}
	for i := y0; i < y1; i++ {
		row := i * len(h.XCoords)
		out.Data = append(out.Data, h.Data[row+x0:row+x1]...)
	}
	out.Bounds = boundsFromAxes(out.XCoords, out.YCoords, xStep, yStep)
	return out, nil
}

// boundsFromAxes computes the outer edge box of a grid from its
// center-coordinate axes.
func boundsFromAxes(xCoords, yCoords []float64, xStep, yStep float64) BoundingBox {
	minX, maxX := minMax(xCoords)
	minY, maxY := minMax(yCoords)
	return BoundingBox{
		MinX: minX - xStep/2,
		MinY: minY - yStep/2,
		MaxX: maxX + xStep/2,
		MaxY: maxY + yStep/2,
	}
}

func minMax(vals []float64) (float64, float64) {
	min, max := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func (h *Handle) String() string {
	return fmt.Sprintf("raster %vx%v %s crs=%q bounds=%v", h.Width(), h.Height(), h.DType, h.CRS, h.Bounds)
}
