package raster

import "fmt"

// BoundingBox is an axis-aligned box in the coordinate space of some CRS.
// The CRS is carried by context, not by the box: boxes are recomputed per
// call and must never be reused across a CRS change.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBoundingBox validates min <= max on both axes.
func NewBoundingBox(minX, minY, maxX, maxY float64) (BoundingBox, error) {
	if minX > maxX || minY > maxY {
		return BoundingBox{}, fmt.Errorf("invalid bounding box: (%v, %v, %v, %v)", minX, minY, maxX, maxY)
	}
	return BoundingBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, nil
}

// Pad grows the box by dist on all four sides. A negative dist shrinks it.
func (b BoundingBox) Pad(dist float64) BoundingBox {
	return BoundingBox{
		MinX: b.MinX - dist,
		MinY: b.MinY - dist,
		MaxX: b.MaxX + dist,
		MaxY: b.MaxY + dist,
	}
}

// Contains reports whether o lies fully inside b, inclusive on all sides.
func (b BoundingBox) Contains(o BoundingBox) bool {
	return o.MinX >= b.MinX && o.MinY >= b.MinY && o.MaxX <= b.MaxX && o.MaxY <= b.MaxY
}

// Intersects reports whether b and o share any area or edge.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return o.MinX <= b.MaxX && o.MaxX >= b.MinX && o.MinY <= b.MaxY && o.MaxY >= b.MinY
}

func (b BoundingBox) Width() float64 {
	return b.MaxX - b.MinX
}

func (b BoundingBox) Height() float64 {
	return b.MaxY - b.MinY
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%v, %v, %v, %v)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}
