// Package dataset wraps gota DataFrames behind a small Table type tailored to
// the modeling flow: typed CSV loading, factor handling, wide/long pivoting,
// and conversion into gonum matrices for the estimators.
package dataset

import (
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// Table is an immutable tabular dataset. Every operation returns a new Table;
// the underlying DataFrame is never mutated in place.
type Table struct {
	df dataframe.DataFrame
}

// FromDataFrame wraps an existing gota DataFrame.
func FromDataFrame(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "dataset: invalid dataframe")
	}
	return &Table{df: df}, nil
}

// FromRecords builds a Table from a header row plus data rows.
func FromRecords(records [][]string) (*Table, error) {
	df := dataframe.LoadRecords(records)
	return FromDataFrame(df)
}

// DataFrame exposes the wrapped gota DataFrame.
func (t *Table) DataFrame() dataframe.DataFrame {
	return t.df
}

// NRow returns the number of rows.
func (t *Table) NRow() int { return t.df.Nrow() }

// NCol returns the number of columns.
func (t *Table) NCol() int { return t.df.Ncol() }

// Names returns the column names in order.
func (t *Table) Names() []string { return t.df.Names() }

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, n := range t.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether the named column holds int or float values.
func (t *Table) IsNumeric(name string) bool {
	if !t.HasColumn(name) {
		return false
	}
	ty := t.df.Col(name).Type()
	return ty == series.Int || ty == series.Float
}

// NumericColumns returns the names of all int/float columns.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, name := range t.df.Names() {
		if t.IsNumeric(name) {
			out = append(out, name)
		}
	}
	return out
}

// NominalColumns returns the names of all string/bool columns.
func (t *Table) NominalColumns() []string {
	var out []string
	for _, name := range t.df.Names() {
		if !t.IsNumeric(name) {
			out = append(out, name)
		}
	}
	return out
}

// Select returns a Table restricted to the given columns, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	for _, c := range cols {
		if !t.HasColumn(c) {
			return nil, errors.NewValueError("Table.Select", "unknown column "+c)
		}
	}
	return FromDataFrame(t.df.Select(cols))
}

// Drop returns a Table without the given columns.
func (t *Table) Drop(cols ...string) (*Table, error) {
	dropped := make(map[string]bool, len(cols))
	for _, c := range cols {
		dropped[c] = true
	}
	var keep []string
	for _, name := range t.df.Names() {
		if !dropped[name] {
			keep = append(keep, name)
		}
	}
	if len(keep) == 0 {
		return nil, errors.NewValueError("Table.Drop", "dropping every column")
	}
	return FromDataFrame(t.df.Select(keep))
}

// Subset returns a Table containing the given rows, in index order.
func (t *Table) Subset(indices []int) (*Table, error) {
	for _, i := range indices {
		if i < 0 || i >= t.df.Nrow() {
			return nil, errors.NewDimensionError("Table.Subset", t.df.Nrow(), i, 0)
		}
	}
	return FromDataFrame(t.df.Subset(indices))
}

// Filter keeps rows where the named column compares true against value.
func (t *Table) Filter(col string, comp series.Comparator, value interface{}) (*Table, error) {
	if !t.HasColumn(col) {
		return nil, errors.NewValueError("Table.Filter", "unknown column "+col)
	}
	return FromDataFrame(t.df.Filter(dataframe.F{Colname: col, Comparator: comp, Comparando: value}))
}

// Mutate adds or replaces a column.
func (t *Table) Mutate(s series.Series) (*Table, error) {
	if s.Len() != t.df.Nrow() {
		return nil, errors.NewDimensionError("Table.Mutate", t.df.Nrow(), s.Len(), 0)
	}
	return FromDataFrame(t.df.Mutate(s))
}

// Rename returns a Table with one column renamed.
func (t *Table) Rename(newName, oldName string) (*Table, error) {
	if !t.HasColumn(oldName) {
		return nil, errors.NewValueError("Table.Rename", "unknown column "+oldName)
	}
	return FromDataFrame(t.df.Rename(newName, oldName))
}

// Col returns the named column as a gota series.
func (t *Table) Col(name string) (series.Series, error) {
	if !t.HasColumn(name) {
		return series.Series{}, errors.NewValueError("Table.Col", "unknown column "+name)
	}
	return t.df.Col(name), nil
}

// Floats returns the named column as float64 values. Non-numeric entries
// become NaN, matching gota semantics.
func (t *Table) Floats(name string) ([]float64, error) {
	s, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	return s.Float(), nil
}

// Strings returns the named column as raw string records.
func (t *Table) Strings(name string) ([]string, error) {
	s, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	return s.Records(), nil
}

// Levels returns the sorted distinct values of a nominal column. Missing
// entries (empty or NA markers) are excluded.
func (t *Table) Levels(name string) ([]string, error) {
	recs, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, r := range recs {
		if isMissing(r) {
			continue
		}
		seen[r] = true
	}
	levels := make([]string, 0, len(seen))
	for lvl := range seen {
		levels = append(levels, lvl)
	}
	sort.Strings(levels)
	return levels, nil
}

// DropNA removes rows containing missing values in any of the given columns;
// with no columns given it checks every column.
func (t *Table) DropNA(cols ...string) (*Table, error) {
	if len(cols) == 0 {
		cols = t.df.Names()
	}
	colRecs := make([][]string, len(cols))
	for i, c := range cols {
		recs, err := t.Strings(c)
		if err != nil {
			return nil, err
		}
		colRecs[i] = recs
	}

	var keep []int
	for row := 0; row < t.df.Nrow(); row++ {
		ok := true
		for i := range cols {
			if isMissing(colRecs[i][row]) {
				ok = false
				break
			}
			if t.IsNumeric(cols[i]) {
				if v, err := strconv.ParseFloat(colRecs[i][row], 64); err == nil && math.IsNaN(v) {
					ok = false
					break
				}
			}
		}
		if ok {
			keep = append(keep, row)
		}
	}
	if len(keep) == 0 {
		return nil, errors.NewValueError("Table.DropNA", "all rows contain missing values")
	}
	return t.Subset(keep)
}

// Describe returns gota's per-column summary (mean, stddev, quantiles) as a
// printable table.
func (t *Table) Describe() string {
	return t.df.Describe().String()
}

// Records returns the raw records including the header row.
func (t *Table) Records() [][]string {
	return t.df.Records()
}

// Matrix converts the given numeric columns into a dense n×p matrix, columns
// in argument order. Non-numeric columns are rejected; NaN cells pass through
// so downstream imputation can handle them.
func (t *Table) Matrix(cols ...string) (*mat.Dense, error) {
	if len(cols) == 0 {
		cols = t.NumericColumns()
	}
	if len(cols) == 0 {
		return nil, errors.NewValueError("Table.Matrix", "no numeric columns to convert")
	}
	n := t.df.Nrow()
	if n == 0 {
		return nil, errors.NewModelError("Table.Matrix", "empty data", errors.ErrEmptyData)
	}

	out := mat.NewDense(n, len(cols), nil)
	for j, c := range cols {
		if !t.IsNumeric(c) {
			return nil, errors.NewValueError("Table.Matrix", "column "+c+" is not numeric")
		}
		vals, err := t.Floats(c)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// LabelVector encodes a nominal column as an n×1 matrix of class indices into
// levels. The level slice defines the encoding; pass the result of Levels for
// a stable alphabetical order.
func (t *Table) LabelVector(col string, levels []string) (*mat.Dense, error) {
	recs, err := t.Strings(col)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(levels))
	for i, lvl := range levels {
		index[lvl] = i
	}
	out := mat.NewDense(len(recs), 1, nil)
	for i, r := range recs {
		idx, ok := index[r]
		if !ok {
			return nil, errors.NewValueError("Table.LabelVector", "value "+r+" not in levels for column "+col)
		}
		out.Set(i, 0, float64(idx))
	}
	return out, nil
}

// FloatVector converts a numeric column into an n×1 matrix.
func (t *Table) FloatVector(col string) (*mat.Dense, error) {
	vals, err := t.Floats(col)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(vals), 1, nil)
	for i, v := range vals {
		out.Set(i, 0, v)
	}
	return out, nil
}

// FromMatrix builds a Table from a dense matrix and column names. Used by
// recipe steps that synthesize features (dummy columns, PCA scores).
func FromMatrix(m mat.Matrix, cols []string) (*Table, error) {
	r, c := m.Dims()
	if len(cols) != c {
		return nil, errors.NewDimensionError("dataset.FromMatrix", c, len(cols), 1)
	}
	records := make([][]string, r+1)
	records[0] = cols
	for i := 0; i < r; i++ {
		row := make([]string, c)
		for j := 0; j < c; j++ {
			row[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		records[i+1] = row
	}
	df := dataframe.LoadRecords(records, dataframe.DetectTypes(false), dataframe.DefaultType(series.Float))
	return FromDataFrame(df)
}

// IsMissing reports whether a raw record value is a missing-value marker.
func IsMissing(v string) bool { return isMissing(v) }

func isMissing(v string) bool {
	switch v {
	case "", "NA", "NaN", "nan", "N/A", "null", "<NA>":
		return true
	}
	return false
}
