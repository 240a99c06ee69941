package trees

import (
	"fmt"

	"treemap/raster"
	"treemap/tabular"
)

// Canonical tree table column names.
const (
	ColTreeID   = "TREE_ID"
	ColPlotID   = "PLOT_ID"
	ColSpecies  = "SPCD"
	ColStatus   = "STATUSCD"
	ColDiameter = "DIA"
	ColHeight   = "HT"
	ColActualHT = "ACTUALHT"
	ColCrown    = "CR"
	ColTPA      = "TPA_UNADJ"
)

// linkageKeys maps a TreeMap release to the column linking tree records to
// raster plot ids.
var linkageKeys = map[string]string{
	"2014": "tl_id",
	"2016": "tm_id",
}

// InvalidVersionError is returned for a TreeMap version outside the
// supported releases.
type InvalidVersionError struct {
	Version string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid TreeMap version: %s", e.Version)
}

// treeTable is the deferred join side of a TreeMap connection: a lazy
// tabular source plus the version-specific plot linkage key.
type treeTable struct {
	linkKey string
	frame   *tabular.LazyFrame
}

func openTreeTable(path, version string) (*treeTable, error) {
	key, ok := linkageKeys[version]
	if !ok {
		return nil, &InvalidVersionError{Version: version}
	}
	frame, err := tabular.Open(path)
	if err != nil {
		return nil, err
	}
	return &treeTable{linkKey: key, frame: frame}, nil
}

// query builds and runs the deferred join for a plot id set:
// semi-join on the linkage key, fresh positional TREE_ID, projection to the
// fixed column set, per-row height coalesce (ACTUALHT over HT), and the
// linkage key renamed to PLOT_ID. The single Materialize at the end is the
// only point where table I/O happens, so the membership filter reaches the
// source scan. The returned frame is in source (imperial) units.
func (t *treeTable) query(plotIDs []int64) (*tabular.Frame, error) {
	lazy := t.frame.
		FilterIn(t.linkKey, plotIDs).
		WithRowIndex(ColTreeID).
		Select(ColTreeID, t.linkKey, ColSpecies, ColStatus, ColDiameter, ColHeight, ColActualHT, ColCrown, ColTPA).
		Coalesce(ColHeight, ColActualHT).
		Drop(ColActualHT).
		Rename(t.linkKey, ColPlotID)
	return lazy.Materialize()
}

// Connection is a TreeMap raster connection joined to its tree record table.
// The raster side is a plain gdal-backed raster connection; the version
// selects which linkage key column ties tree records to raster plot ids.
type Connection struct {
	*raster.Connection
	Version   string
	TablePath string

	table *treeTable
}

// NewConnection opens the TreeMap raster and its tree table. version must be
// one of the supported TreeMap releases ("2014", "2016").
func NewConnection(rasterPath, tablePath, version string, opts map[string]string) (*Connection, error) {
	table, err := openTreeTable(tablePath, version)
	if err != nil {
		return nil, err
	}
	rc, err := raster.Open(rasterPath, raster.GDALBackendKind, opts)
	if err != nil {
		return nil, err
	}
	return &Connection{
		Connection: rc,
		Version:    version,
		TablePath:  tablePath,
		table:      table,
	}, nil
}

// QueryTreesByPlots materializes the tree records linked to the given plot
// ids and returns them converted to the canonical metric schema.
func (c *Connection) QueryTreesByPlots(plotIDs []int64) (*TreeSample, error) {
	frame, err := c.table.query(plotIDs)
	if err != nil {
		return nil, fmt.Errorf("query trees for %d plots: %v", len(plotIDs), err)
	}
	return NewTreeSample(ToMetric(frame))
}
