package features

import "fmt"

// Row is one person's feature row: the front embedding followed by the side embedding.
type Row struct {
	ID     string
	Values []float32
}

// Table is the extractor output, one row per usable front/side pair.
type Table struct {
	Columns []string
	Rows    []Row
}

// ColumnNames returns front_feature_0..dim-1 followed by side_feature_0..dim-1.
func ColumnNames(dim int) []string {
	cols := make([]string, 0, 2*dim)
	for i := 0; i < dim; i++ {
		cols = append(cols, fmt.Sprintf("front_feature_%d", i))
	}
	for i := 0; i < dim; i++ {
		cols = append(cols, fmt.Sprintf("side_feature_%d", i))
	}
	return cols
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// First returns the first row, or false when the table is empty.
func (t *Table) First() (Row, bool) {
	if t == nil || len(t.Rows) == 0 {
		return Row{}, false
	}
	return t.Rows[0], true
}
