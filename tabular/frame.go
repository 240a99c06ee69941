// Package tabular provides a deferred tabular pipeline over csv and parquet
// sources. Filter and column operations accumulate on a LazyFrame; no row is
// read until Materialize, so the membership filter is pushed into the source
// scan and non-matching rows are never buffered.
//
// Tables are numeric: every cell is a float64 and missing values are NaN.
package tabular

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// Row is one record keyed by column name.
type Row map[string]float64

// MembershipFilter keeps rows whose integer value in Column belongs to
// Values (a semi-join on the column).
type MembershipFilter struct {
	Column string
	Values map[int64]bool
}

func (f *MembershipFilter) keep(r Row) bool {
	v, ok := r[f.Column]
	if !ok || math.IsNaN(v) {
		return false
	}
	return f.Values[int64(v)]
}

// Source streams rows from a tabular resource. A non-nil filter is applied
// during the scan, before any buffering.
type Source interface {
	Columns() ([]string, error)
	Scan(filter *MembershipFilter, emit func(Row) error) error
}

// InvalidSourcePathError is returned when the tabular source path does not
// exist.
type InvalidSourcePathError struct {
	Path string
}

func (e *InvalidSourcePathError) Error() string {
	return fmt.Sprintf("invalid tree table path: %s", e.Path)
}

// UnsupportedFormatError is returned for any path extension other than .csv
// or .parquet.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format for tree table: %s", e.Path)
}

// Open dispatches on the path extension and returns an empty lazy frame over
// the source. No data is read here.
func Open(path string) (*LazyFrame, error) {
	var src Source
	switch {
	case strings.HasSuffix(path, ".csv"):
		src = &csvSource{path: path}
	case strings.HasSuffix(path, ".parquet"):
		src = &parquetSource{path: path}
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &InvalidSourcePathError{Path: path}
	}
	return &LazyFrame{src: src}, nil
}

type opKind int

const (
	opRowIndex opKind = iota
	opSelect
	opCoalesce
	opDrop
	opRename
)

type frameOp struct {
	kind opKind
	name string   // row index column, coalesce destination, rename source
	to   string   // coalesce source, rename destination
	cols []string // select and drop column sets
}

// LazyFrame is a deferred computation over a Source. Every operation returns
// a new frame; nothing executes until Materialize.
type LazyFrame struct {
	src    Source
	filter *MembershipFilter
	ops    []frameOp
}

func (l *LazyFrame) with(o frameOp) *LazyFrame {
	ops := make([]frameOp, len(l.ops), len(l.ops)+1)
	copy(ops, l.ops)
	return &LazyFrame{src: l.src, filter: l.filter, ops: append(ops, o)}
}

// FilterIn keeps rows whose integer value in col is a member of ids. The
// filter is pushed down into the source scan.
func (l *LazyFrame) FilterIn(col string, ids []int64) *LazyFrame {
	values := make(map[int64]bool, len(ids))
	for _, id := range ids {
		values[id] = true
	}
	return &LazyFrame{
		src:    l.src,
		filter: &MembershipFilter{Column: col, Values: values},
		ops:    l.ops,
	}
}

// WithRowIndex prepends a column of sequential integers over the surviving
// rows. The numbering is positional: it is not stable across queries with
// different filters.
func (l *LazyFrame) WithRowIndex(name string) *LazyFrame {
	return l.with(frameOp{kind: opRowIndex, name: name})
}

// Select projects the frame to exactly cols, in order.
func (l *LazyFrame) Select(cols ...string) *LazyFrame {
	return l.with(frameOp{kind: opSelect, cols: cols})
}

// Coalesce sets dst to src wherever src is non-missing, row by row.
func (l *LazyFrame) Coalesce(dst, src string) *LazyFrame {
	return l.with(frameOp{kind: opCoalesce, name: dst, to: src})
}

// Drop removes cols from the frame.
func (l *LazyFrame) Drop(cols ...string) *LazyFrame {
	return l.with(frameOp{kind: opDrop, cols: cols})
}

// Rename renames column from to to.
func (l *LazyFrame) Rename(from, to string) *LazyFrame {
	return l.with(frameOp{kind: opRename, name: from, to: to})
}

// Materialize executes the deferred pipeline: one pass over the source with
// the filter applied in-scan, then the accumulated column operations. This
// is the only point where I/O happens.
func (l *LazyFrame) Materialize() (*Frame, error) {
	cols, err := l.src.Columns()
	if err != nil {
		return nil, err
	}
	for _, o := range l.ops {
		cols = applyColumnOrder(cols, o)
	}

	frame := &Frame{
		Columns: cols,
		Data:    make(map[string][]float64, len(cols)),
	}
	// Columns exist even when no row survives the filter.
	for _, c := range cols {
		frame.Data[c] = []float64{}
	}
	idx := 0
	err = l.src.Scan(l.filter, func(r Row) error {
		for _, o := range l.ops {
			applyRowOp(r, o, idx)
		}
		for _, c := range cols {
			v, ok := r[c]
			if !ok {
				v = math.NaN()
			}
			frame.Data[c] = append(frame.Data[c], v)
		}
		idx++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func applyColumnOrder(cols []string, o frameOp) []string {
	switch o.kind {
	case opRowIndex:
		return append([]string{o.name}, cols...)
	case opSelect:
		return append([]string(nil), o.cols...)
	case opDrop:
		out := cols[:0:0]
		for _, c := range cols {
			dropped := false
			for _, d := range o.cols {
				if c == d {
					dropped = true
					break
				}
			}
			if !dropped {
				out = append(out, c)
			}
		}
		return out
	case opRename:
		out := append([]string(nil), cols...)
		for i, c := range out {
			if c == o.name {
				out[i] = o.to
			}
		}
		return out
	default:
		return cols
	}
}

func applyRowOp(r Row, o frameOp, idx int) {
	switch o.kind {
	case opRowIndex:
		r[o.name] = float64(idx)
	case opCoalesce:
		if v, ok := r[o.to]; ok && !math.IsNaN(v) {
			r[o.name] = v
		}
	case opDrop:
		for _, c := range o.cols {
			delete(r, c)
		}
	case opRename:
		if v, ok := r[o.name]; ok {
			r[o.to] = v
			delete(r, o.name)
		}
	}
}

// Frame is a materialized, column-major table.
type Frame struct {
	Columns []string
	Data    map[string][]float64
}

// NumRows returns the row count.
func (f *Frame) NumRows() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Data[f.Columns[0]])
}

// Column returns the named column, or nil if absent.
func (f *Frame) Column(name string) []float64 {
	return f.Data[name]
}

// Copy returns a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Data:    make(map[string][]float64, len(f.Data)),
	}
	for name, col := range f.Data {
		out.Data[name] = append([]float64(nil), col...)
	}
	return out
}
