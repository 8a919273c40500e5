package dataset

import (
	"sort"

	"github.com/go-gota/gota/dataframe"

	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// PivotWider spreads a long table into a wide one: one output row per
// distinct value of id, one output column per distinct value of the names
// column, cells taken from the values column. Missing combinations get fill.
// This is how the country × roll-call vote matrix is built.
func (t *Table) PivotWider(id, names, values, fill string) (*Table, error) {
	for _, c := range []string{id, names, values} {
		if !t.HasColumn(c) {
			return nil, errors.NewValueError("Table.PivotWider", "unknown column "+c)
		}
	}

	idRecs, err := t.Strings(id)
	if err != nil {
		return nil, err
	}
	nameRecs, err := t.Strings(names)
	if err != nil {
		return nil, err
	}
	valueRecs, err := t.Strings(values)
	if err != nil {
		return nil, err
	}

	// Stable orders: ids by first appearance, new columns sorted.
	var idOrder []string
	idSeen := make(map[string]bool)
	colSeen := make(map[string]bool)
	cells := make(map[string]map[string]string)

	for i := range idRecs {
		idv, namev := idRecs[i], nameRecs[i]
		if isMissing(idv) || isMissing(namev) {
			continue
		}
		if !idSeen[idv] {
			idSeen[idv] = true
			idOrder = append(idOrder, idv)
			cells[idv] = make(map[string]string)
		}
		colSeen[namev] = true
		cells[idv][namev] = valueRecs[i]
	}

	if len(idOrder) == 0 {
		return nil, errors.NewModelError("Table.PivotWider", "empty data", errors.ErrEmptyData)
	}

	newCols := make([]string, 0, len(colSeen))
	for c := range colSeen {
		newCols = append(newCols, c)
	}
	sort.Strings(newCols)

	records := make([][]string, 0, len(idOrder)+1)
	header := append([]string{id}, newCols...)
	records = append(records, header)
	for _, idv := range idOrder {
		row := make([]string, 0, len(header))
		row = append(row, idv)
		for _, c := range newCols {
			v, ok := cells[idv][c]
			if !ok || isMissing(v) {
				v = fill
			}
			row = append(row, v)
		}
		records = append(records, row)
	}

	return FromDataFrame(dataframe.LoadRecords(records))
}

// PivotLonger gathers the given columns into namesTo/valuesTo pairs, keeping
// every other column as an identifier. Each input row becomes len(cols)
// output rows.
func (t *Table) PivotLonger(cols []string, namesTo, valuesTo string) (*Table, error) {
	if len(cols) == 0 {
		return nil, errors.NewValueError("Table.PivotLonger", "no columns to gather")
	}
	gathered := make(map[string]bool, len(cols))
	for _, c := range cols {
		if !t.HasColumn(c) {
			return nil, errors.NewValueError("Table.PivotLonger", "unknown column "+c)
		}
		gathered[c] = true
	}

	var idCols []string
	for _, name := range t.df.Names() {
		if !gathered[name] {
			idCols = append(idCols, name)
		}
	}

	idRecs := make([][]string, len(idCols))
	for i, c := range idCols {
		recs, err := t.Strings(c)
		if err != nil {
			return nil, err
		}
		idRecs[i] = recs
	}
	valRecs := make([][]string, len(cols))
	for i, c := range cols {
		recs, err := t.Strings(c)
		if err != nil {
			return nil, err
		}
		valRecs[i] = recs
	}

	header := append(append([]string{}, idCols...), namesTo, valuesTo)
	records := [][]string{header}
	for row := 0; row < t.df.Nrow(); row++ {
		for ci, c := range cols {
			out := make([]string, 0, len(header))
			for i := range idCols {
				out = append(out, idRecs[i][row])
			}
			out = append(out, c, valRecs[ci][row])
			records = append(records, out)
		}
	}

	return FromDataFrame(dataframe.LoadRecords(records))
}
