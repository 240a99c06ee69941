package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// csvSource streams a headered csv file. Each scan re-reads the file; the
// source itself holds no state.
type csvSource struct {
	path string
}

func (s *csvSource) Columns() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", s.path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header of %s: %v", s.path, err)
	}
	return header, nil
}

func (s *csvSource) Scan(filter *MembershipFilter, emit func(Row) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %v", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read csv header of %s: %v", s.path, err)
	}
	header = append([]string(nil), header...)

	for {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read csv row of %s: %v", s.path, err)
		}

		row := make(Row, len(header))
		for i, field := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = parseCell(field)
		}
		if filter != nil && !filter.keep(row) {
			continue
		}
		if err := emit(row); err != nil {
			return err
		}
	}
}

// parseCell maps empty and non-numeric cells to NaN.
func parseCell(field string) float64 {
	if field == "" || field == "NA" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
