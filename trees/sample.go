package trees

import (
	"fmt"
	"math"

	"treemap/tabular"
)

// Tree is one tree record in canonical metric units: DIA in centimeters, HT
// in meters, CR as a 0-1 fraction and TPA in trees per square meter.
type Tree struct {
	TreeID   int64
	PlotID   int64
	SPCD     int64
	StatusCD int64
	DIA      float64
	HT       float64
	CR       float64
	TPA      float64
}

// TreeSample is the materialized result of a plot query. It is owned by the
// caller and never shared or mutated by the connection.
type TreeSample struct {
	Trees []Tree
}

// NewTreeSample builds typed records from a metric frame. The frame must
// carry the canonical column set produced by ToMetric.
func NewTreeSample(f *tabular.Frame) (*TreeSample, error) {
	for _, name := range []string{ColTreeID, ColPlotID, ColSpecies, ColStatus, ColDiameter, ColHeight, ColCrown, "TPA"} {
		if f.Column(name) == nil {
			return nil, fmt.Errorf("tree frame is missing column %s", name)
		}
	}

	sample := &TreeSample{Trees: make([]Tree, f.NumRows())}
	for i := range sample.Trees {
		sample.Trees[i] = Tree{
			TreeID:   asID(f.Column(ColTreeID)[i]),
			PlotID:   asID(f.Column(ColPlotID)[i]),
			SPCD:     asID(f.Column(ColSpecies)[i]),
			StatusCD: asID(f.Column(ColStatus)[i]),
			DIA:      f.Column(ColDiameter)[i],
			HT:       f.Column(ColHeight)[i],
			CR:       f.Column(ColCrown)[i],
			TPA:      f.Column("TPA")[i],
		}
	}
	return sample, nil
}

// asID narrows a numeric cell to an integer identifier. Missing cells map to
// zero; identifier columns are never missing in well-formed TreeMap tables.
func asID(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	return int64(v)
}
