// Package table provides a generic in-memory table with named, ordered
// columns and heterogeneous cell values.
package table

// Cell pairs a column name with a value when appending rows.
type Cell struct {
	Column string
	Value  any
}

// Table holds rows of heterogeneous values under named, ordered columns.
// A nil cell is the null marker: it represents a value that is absent for
// that row.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty table with no columns and no rows.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)

	return cols
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// Cell returns the value at the given row for the named column, or nil
// when the column does not exist.
func (t *Table) Cell(row int, column string) any {
	if row < 0 || row >= len(t.rows) {
		return nil
	}

	idx, ok := t.index[column]
	if !ok {
		return nil
	}

	return t.rows[row][idx]
}

// Column returns all values of the named column in row order, or nil
// when the column does not exist.
func (t *Table) Column(name string) []any {
	idx, ok := t.index[name]
	if !ok {
		return nil
	}

	values := make([]any, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[idx]
	}

	return values
}

// AppendRow adds a row from the given cells. Columns not yet known are
// appended in first-seen order and backfilled with nil for prior rows;
// known columns missing from the cells stay nil for the new row.
func (t *Table) AppendRow(cells []Cell) {
	row := make([]any, len(t.columns))

	for _, c := range cells {
		idx, ok := t.index[c.Column]
		if !ok {
			idx = len(t.columns)
			t.columns = append(t.columns, c.Column)
			t.index[c.Column] = idx

			for i := range t.rows {
				t.rows[i] = append(t.rows[i], nil)
			}

			row = append(row, nil)
		}

		row[idx] = c.Value
	}

	t.rows = append(t.rows, row)
}

// Reindex reorders the table to exactly the given columns. Columns not
// present in the table yield all-nil columns; columns left out of the
// list are dropped.
func (t *Table) Reindex(columns []string) {
	newIndex := make(map[string]int, len(columns))
	for i, col := range columns {
		newIndex[col] = i
	}

	newRows := make([][]any, len(t.rows))

	for i, row := range t.rows {
		newRow := make([]any, len(columns))

		for j, col := range columns {
			if idx, ok := t.index[col]; ok {
				newRow[j] = row[idx]
			}
		}

		newRows[i] = newRow
	}

	t.columns = make([]string, len(columns))
	copy(t.columns, columns)
	t.index = newIndex
	t.rows = newRows
}

// DropEmptyColumns removes every column whose value is nil for all rows.
func (t *Table) DropEmptyColumns() {
	kept := make([]string, 0, len(t.columns))

	for i, col := range t.columns {
		for _, row := range t.rows {
			if row[i] != nil {
				kept = append(kept, col)

				break
			}
		}
	}

	if len(kept) != len(t.columns) {
		t.Reindex(kept)
	}
}
