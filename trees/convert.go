package trees

import "treemap/tabular"

// TreeMap tables carry imperial forestry units: DIA in inches, HT in feet,
// CR as a percentage, TPA_UNADJ in trees per acre.
const (
	feetToMeters        = 0.3048
	inchesToCentimeters = 2.54
	perAcreToPerHectare = 2.47105
	sqMetersPerHectare  = 10000
)

// ToMetric converts an imperial TreeMap frame into the canonical metric
// schema: CR percentage to fraction, HT feet to meters, DIA inches to
// centimeters, TPA_UNADJ per-acre to trees per square meter (renamed TPA).
// The five rescalings are independent per row; the input frame is never
// mutated.
func ToMetric(f *tabular.Frame) *tabular.Frame {
	out := f.Copy()
	scaleColumn(out, ColCrown, 1.0/100)
	scaleColumn(out, ColHeight, feetToMeters)
	scaleColumn(out, ColDiameter, inchesToCentimeters)
	scaleColumn(out, ColTPA, perAcreToPerHectare)
	scaleColumn(out, ColTPA, 1.0/sqMetersPerHectare)
	renameColumn(out, ColTPA, "TPA")
	return out
}

func scaleColumn(f *tabular.Frame, name string, factor float64) {
	col := f.Column(name)
	for i := range col {
		col[i] *= factor
	}
}

func renameColumn(f *tabular.Frame, from, to string) {
	for i, c := range f.Columns {
		if c == from {
			f.Columns[i] = to
		}
	}
	if col, ok := f.Data[from]; ok {
		f.Data[to] = col
		delete(f.Data, from)
	}
}
