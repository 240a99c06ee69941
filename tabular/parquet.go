package tabular

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/parquet-go/parquet-go"
)

// parquetSource streams a flat-schema parquet file. Rows are decoded one row
// group at a time; the membership filter runs per row inside the scan so
// filtered-out rows are never accumulated.
type parquetSource struct {
	path string
}

func (s *parquetSource) openFile() (*parquet.File, *os.File, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %v", s.path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat %s: %v", s.path, err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open parquet %s: %v", s.path, err)
	}
	return pf, f, nil
}

func (s *parquetSource) Columns() ([]string, error) {
	pf, f, err := s.openFile()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fieldNames(pf), nil
}

func fieldNames(pf *parquet.File) []string {
	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}
	return names
}

func (s *parquetSource) Scan(filter *MembershipFilter, emit func(Row) error) error {
	pf, f, err := s.openFile()
	if err != nil {
		return err
	}
	defer f.Close()

	names := fieldNames(pf)
	buf := make([]parquet.Row, 128)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, prow := range buf[:n] {
				row := make(Row, len(names))
				for _, v := range prow {
					col := v.Column()
					if col < 0 || col >= len(names) {
						continue
					}
					row[names[col]] = valueToFloat(v)
				}
				if filter != nil && !filter.keep(row) {
					continue
				}
				if emitErr := emit(row); emitErr != nil {
					rows.Close()
					return emitErr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return fmt.Errorf("read parquet rows of %s: %v", s.path, err)
			}
			if n == 0 {
				break
			}
		}
		rows.Close()
	}
	return nil
}

func valueToFloat(v parquet.Value) float64 {
	if v.IsNull() {
		return math.NaN()
	}
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return 1
		}
		return 0
	case parquet.Int32, parquet.Int64:
		return float64(v.Int64())
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	default:
		return math.NaN()
	}
}
