// Package trees connects TreeMap plot-id rasters to their tree record
// tables: pixel windows become plot-indexed point sets, plot ids are
// semi-joined against a lazy csv/parquet tree table, and the joined records
// are normalized from imperial forestry units into the canonical metric
// schema.
package trees

import (
	"treemap/raster"
)

// PlotPoint is one raster cell as a point record: the pixel-center
// coordinate and the plot id stored in that pixel.
type PlotPoint struct {
	PlotID int64
	X, Y   float64
}

// PlotIndex is a point-indexed view of a plot-id raster window, tagged with
// the window's CRS.
type PlotIndex struct {
	CRS    string
	NoData int64
	Points []PlotPoint
}

// BuildPlotIndex expands the full cross-product grid of a raster window into
// point records: cell (i, j) maps to the point (x[j], y[i]) carrying that
// pixel's plot id. Every cell becomes a record, nodata cells included; no
// deduplication, filtering or sorting happens here.
func BuildPlotIndex(h *raster.Handle) *PlotIndex {
	points := make([]PlotPoint, 0, h.Width()*h.Height())
	for i, y := range h.YCoords {
		for j, x := range h.XCoords {
			points = append(points, PlotPoint{PlotID: int64(h.At(i, j)), X: x, Y: y})
		}
	}
	return &PlotIndex{
		CRS:    h.CRS,
		NoData: int64(h.NoData),
		Points: points,
	}
}

// WithoutNoData returns a copy of the index with nodata cells removed.
func (p *PlotIndex) WithoutNoData() *PlotIndex {
	out := &PlotIndex{CRS: p.CRS, NoData: p.NoData}
	for _, pt := range p.Points {
		if pt.PlotID != p.NoData {
			out.Points = append(out.Points, pt)
		}
	}
	return out
}

// UniqueIDs returns the distinct plot ids in the index, in first-seen order.
func (p *PlotIndex) UniqueIDs() []int64 {
	seen := make(map[int64]bool, len(p.Points))
	var ids []int64
	for _, pt := range p.Points {
		if !seen[pt.PlotID] {
			seen[pt.PlotID] = true
			ids = append(ids, pt.PlotID)
		}
	}
	return ids
}
