package trees

import (
	"io/ioutil"
	"path/filepath"
	"reflect"
	"testing"

	"treemap/tabular"
)

const testTreeTableCSV = `tl_id,SPCD,STATUSCD,DIA,HT,ACTUALHT,CR,TPA_UNADJ
11,122,1,10,20,,50,100
12,131,1,12,30,25,40,50
11,122,2,8,15,12,30,75
99,110,1,9,18,,20,60
`

func writeTreeTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trees.csv")
	if err := ioutil.WriteFile(path, []byte(testTreeTableCSV), 0644); err != nil {
		t.Fatalf("failed to write table fixture: %v", err)
	}
	return path
}

func TestOpenTreeTableInvalidVersion(t *testing.T) {
	_, err := openTreeTable(writeTreeTable(t), "2020")
	if err == nil {
		t.Fatalf("expected error for unknown TreeMap version")
	}
	if _, ok := err.(*InvalidVersionError); !ok {
		t.Errorf("expecting InvalidVersionError, actual %T: %v", err, err)
	}
}

// The version check runs before any source validation, so a bad version wins
// over a bad path.
func TestOpenTreeTableVersionCheckedFirst(t *testing.T) {
	_, err := openTreeTable("/no/such/trees.csv", "2020")
	if _, ok := err.(*InvalidVersionError); !ok {
		t.Errorf("expecting InvalidVersionError, actual %T: %v", err, err)
	}
}

func TestOpenTreeTableUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trees.txt")
	if err := ioutil.WriteFile(path, []byte("tl_id\n1\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	_, err := openTreeTable(path, "2014")
	if _, ok := err.(*tabular.UnsupportedFormatError); !ok {
		t.Errorf("expecting UnsupportedFormatError, actual %T: %v", err, err)
	}
}

func TestTreeTableQuery(t *testing.T) {
	table, err := openTreeTable(writeTreeTable(t), "2014")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	frame, err := table.query([]int64{11, 12})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	expectedCols := []string{ColTreeID, ColPlotID, ColSpecies, ColStatus, ColDiameter, ColHeight, ColCrown, ColTPA}
	if !reflect.DeepEqual(frame.Columns, expectedCols) {
		t.Errorf("columns: expecting %v, actual %v", expectedCols, frame.Columns)
	}
	if frame.NumRows() != 3 {
		t.Fatalf("rows: expecting 3, actual %v", frame.NumRows())
	}

	if !reflect.DeepEqual(frame.Column(ColPlotID), []float64{11, 12, 11}) {
		t.Errorf("plot 99 leaked through the semi-join: %v", frame.Column(ColPlotID))
	}
	if !reflect.DeepEqual(frame.Column(ColTreeID), []float64{0, 1, 2}) {
		t.Errorf("TREE_ID should be positional per query: %v", frame.Column(ColTreeID))
	}
	// ACTUALHT wins where present, HT stands where ACTUALHT is missing.
	if !reflect.DeepEqual(frame.Column(ColHeight), []float64{20, 25, 12}) {
		t.Errorf("height coalesce: expecting [20 25 12], actual %v", frame.Column(ColHeight))
	}
	if frame.Column(ColActualHT) != nil {
		t.Errorf("ACTUALHT should be dropped after the coalesce")
	}
}

func TestTreeTableQueryEmptyPlots(t *testing.T) {
	table, err := openTreeTable(writeTreeTable(t), "2014")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	frame, err := table.query([]int64{777})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if frame.NumRows() != 0 {
		t.Errorf("rows: expecting 0, actual %v", frame.NumRows())
	}
	if len(frame.Columns) == 0 {
		t.Errorf("empty result should keep the canonical columns")
	}
}

func TestQueryToMetricSample(t *testing.T) {
	table, err := openTreeTable(writeTreeTable(t), "2014")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	frame, err := table.query([]int64{12})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	sample, err := NewTreeSample(ToMetric(frame))
	if err != nil {
		t.Fatalf("sample build failed: %v", err)
	}
	if len(sample.Trees) != 1 {
		t.Fatalf("trees: expecting 1, actual %v", len(sample.Trees))
	}

	tree := sample.Trees[0]
	if tree.PlotID != 12 || tree.SPCD != 131 || tree.StatusCD != 1 {
		t.Errorf("tree ids: %+v", tree)
	}
	if !approx(tree.DIA, 12*2.54) {
		t.Errorf("DIA: expecting %v, actual %v", 12*2.54, tree.DIA)
	}
	// ACTUALHT=25ft coalesced over HT=30ft before conversion.
	if !approx(tree.HT, 25*0.3048) {
		t.Errorf("HT: expecting %v, actual %v", 25*0.3048, tree.HT)
	}
	if !approx(tree.CR, 0.4) {
		t.Errorf("CR: expecting 0.4, actual %v", tree.CR)
	}
	if !approx(tree.TPA, 50*2.47105/10000) {
		t.Errorf("TPA: expecting %v, actual %v", 50*2.47105/10000, tree.TPA)
	}
}

func TestNewTreeSampleMissingColumn(t *testing.T) {
	frame := imperialFrame()
	// Still imperial: TPA_UNADJ has not been renamed yet.
	if _, err := NewTreeSample(frame); err == nil {
		t.Errorf("expected error for frame without canonical TPA column")
	}
}
