package tabular

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const testTreeCSV = `tl_id,SPCD,STATUSCD,DIA,HT,ACTUALHT,CR,TPA_UNADJ
1,122,1,10,20,,50,100
2,131,1,12,30,25,40,50
1,122,2,8,15,12,30,75
3,110,1,9,18,,20,60
`

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trees.csv")
	if err := ioutil.WriteFile(path, []byte(testTreeCSV), 0644); err != nil {
		t.Fatalf("failed to write csv fixture: %v", err)
	}
	return path
}

func TestOpenInvalidPath(t *testing.T) {
	_, err := Open("/no/such/dir/trees.csv")
	if err == nil {
		t.Fatalf("expected error for nonexistent path")
	}
	if _, ok := err.(*InvalidSourcePathError); !ok {
		t.Errorf("expecting InvalidSourcePathError, actual %T: %v", err, err)
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trees.txt")
	if err := ioutil.WriteFile(path, []byte("tl_id\n1\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	_, err := Open(path)
	if err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	if _, ok := err.(*UnsupportedFormatError); !ok {
		t.Errorf("expecting UnsupportedFormatError, actual %T: %v", err, err)
	}
}

func TestMaterializePipeline(t *testing.T) {
	lazy, err := Open(writeTestCSV(t))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	frame, err := lazy.
		FilterIn("tl_id", []int64{1}).
		WithRowIndex("TREE_ID").
		Select("TREE_ID", "tl_id", "SPCD", "DIA", "HT", "ACTUALHT").
		Coalesce("HT", "ACTUALHT").
		Drop("ACTUALHT").
		Rename("tl_id", "PLOT_ID").
		Materialize()
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	expectedCols := []string{"TREE_ID", "PLOT_ID", "SPCD", "DIA", "HT"}
	if !reflect.DeepEqual(frame.Columns, expectedCols) {
		t.Errorf("columns: expecting %v, actual %v", expectedCols, frame.Columns)
	}
	if frame.NumRows() != 2 {
		t.Fatalf("rows: expecting 2, actual %v", frame.NumRows())
	}

	if !reflect.DeepEqual(frame.Column("TREE_ID"), []float64{0, 1}) {
		t.Errorf("row index: expecting [0 1], actual %v", frame.Column("TREE_ID"))
	}
	if !reflect.DeepEqual(frame.Column("PLOT_ID"), []float64{1, 1}) {
		t.Errorf("semi-join leaked rows: %v", frame.Column("PLOT_ID"))
	}
	// First matching row has no ACTUALHT, so HT stays 20; the second has
	// ACTUALHT=12 which wins over HT=15.
	if !reflect.DeepEqual(frame.Column("HT"), []float64{20, 12}) {
		t.Errorf("height coalesce: expecting [20 12], actual %v", frame.Column("HT"))
	}
	if frame.Column("ACTUALHT") != nil {
		t.Errorf("ACTUALHT column should have been dropped")
	}
}

func TestMissingValuesAreNaN(t *testing.T) {
	lazy, err := Open(writeTestCSV(t))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	frame, err := lazy.Materialize()
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	actualHT := frame.Column("ACTUALHT")
	if !math.IsNaN(actualHT[0]) || !math.IsNaN(actualHT[3]) {
		t.Errorf("empty cells should be NaN: %v", actualHT)
	}
	if actualHT[1] != 25 || actualHT[2] != 12 {
		t.Errorf("present cells corrupted: %v", actualHT)
	}
}

// Opening a frame must not read the source: all I/O is deferred to
// Materialize so the membership filter can reach the scan.
func TestMaterializeDefersIO(t *testing.T) {
	path := writeTestCSV(t)
	lazy, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	lazy = lazy.FilterIn("tl_id", []int64{1}).WithRowIndex("TREE_ID")

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove fixture: %v", err)
	}
	if _, err := lazy.Materialize(); err == nil {
		t.Errorf("materialize after source removal should fail, so I/O must have happened at open time")
	}
}

func TestBuilderOpsDoNotShareState(t *testing.T) {
	lazy, err := Open(writeTestCSV(t))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	base := lazy.WithRowIndex("TREE_ID")
	first, err := base.FilterIn("tl_id", []int64{1}).Materialize()
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	second, err := base.FilterIn("tl_id", []int64{2, 3}).Materialize()
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	if first.NumRows() != 2 || second.NumRows() != 2 {
		t.Errorf("derived frames interfered: %v and %v rows", first.NumRows(), second.NumRows())
	}
	if !reflect.DeepEqual(second.Column("tl_id"), []float64{2, 3}) {
		t.Errorf("second filter: expecting [2 3], actual %v", second.Column("tl_id"))
	}
	// Row indexes are positional per query, so both start at 0.
	if !reflect.DeepEqual(second.Column("TREE_ID"), []float64{0, 1}) {
		t.Errorf("row index not positional: %v", second.Column("TREE_ID"))
	}
}

func TestFrameCopyIsDeep(t *testing.T) {
	lazy, err := Open(writeTestCSV(t))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	frame, err := lazy.Materialize()
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	clone := frame.Copy()
	clone.Column("DIA")[0] = -1
	clone.Columns[0] = "changed"
	if frame.Column("DIA")[0] == -1 || frame.Columns[0] == "changed" {
		t.Errorf("copy shares state with the original frame")
	}
}
