// Package table implements the flat tabular structure produced by metadata
// assembly: ordered columns, one row per run, string-valued cells.
package table

import "strings"

// Row is one record with insertion-ordered columns.
type Row struct {
	values map[string]string
	order  []string
}

func NewRow() *Row {
	return &Row{values: make(map[string]string)}
}

// Set stores a cell value, tracking first-encounter column order.
func (r *Row) Set(column, value string) {
	if _, ok := r.values[column]; !ok {
		r.order = append(r.order, column)
	}
	r.values[column] = value
}

func (r *Row) Get(column string) string {
	return r.values[column]
}

func (r *Row) Columns() []string {
	return r.order
}

// Table is an ordered collection of rows sharing a column universe.
type Table struct {
	columns []string
	seen    map[string]struct{}
	rows    []*Row
}

func New() *Table {
	return &Table{seen: make(map[string]struct{})}
}

// Append adds a row, extending the table's columns with any not yet
// encountered, in the row's own order.
func (t *Table) Append(row *Row) {
	for _, col := range row.order {
		if _, ok := t.seen[col]; !ok {
			t.seen[col] = struct{}{}
			t.columns = append(t.columns, col)
		}
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Columns() []string {
	return t.columns
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Rows() []*Row {
	return t.rows
}

// Records renders the table as one map per row, restricted to the current
// column set.
func (t *Table) Records() []map[string]string {
	records := make([]map[string]string, 0, len(t.rows))
	for _, row := range t.rows {
		record := make(map[string]string, len(t.columns))
		for _, col := range t.columns {
			record[col] = row.Get(col)
		}
		records = append(records, record)
	}
	return records
}

// DropEmptyColumns removes columns whose cells are empty in every row.
func (t *Table) DropEmptyColumns() {
	kept := t.columns[:0]
	for _, col := range t.columns {
		empty := true
		for _, row := range t.rows {
			if row.Get(col) != "" {
				empty = false
				break
			}
		}
		if empty {
			delete(t.seen, col)
			continue
		}
		kept = append(kept, col)
	}
	t.columns = kept
}

// RenameColumns rewrites column names through the given function, in place.
// Rows keep their cells reachable under the new names.
func (t *Table) RenameColumns(rename func(string) string) {
	renamed := make([]string, 0, len(t.columns))
	seen := make(map[string]struct{}, len(t.columns))
	for _, col := range t.columns {
		newCol := rename(col)
		if _, ok := seen[newCol]; !ok {
			seen[newCol] = struct{}{}
			renamed = append(renamed, newCol)
		}
		if newCol == col {
			continue
		}
		for _, row := range t.rows {
			if val, ok := row.values[col]; ok {
				if _, exists := row.values[newCol]; !exists {
					row.values[newCol] = val
					row.order = append(row.order, newCol)
				}
				delete(row.values, col)
			}
		}
	}
	t.columns = renamed
	t.seen = seen
}

// CollapseDuplicateColumns drops columns colliding case-insensitively with an
// earlier column, keeping the first.
func (t *Table) CollapseDuplicateColumns() {
	lower := make(map[string]struct{}, len(t.columns))
	kept := t.columns[:0]
	for _, col := range t.columns {
		key := strings.ToLower(col)
		if _, ok := lower[key]; ok {
			delete(t.seen, col)
			continue
		}
		lower[key] = struct{}{}
		kept = append(kept, col)
	}
	t.columns = kept
}

// RestrictRows keeps only the rows whose id-column cell matches one of the
// wanted ids, reordered to match the wanted order.
func (t *Table) RestrictRows(idColumn string, ids []string) {
	byID := make(map[string]*Row, len(t.rows))
	for _, row := range t.rows {
		byID[row.Get(idColumn)] = row
	}
	restricted := make([]*Row, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			restricted = append(restricted, row)
		}
	}
	t.rows = restricted
}

// OrderColumns places the given columns first (those present), followed by
// every remaining column in encountered order.
func (t *Table) OrderColumns(prefix []string) {
	inPrefix := make(map[string]struct{}, len(prefix))
	ordered := make([]string, 0, len(t.columns))
	for _, col := range prefix {
		if _, ok := t.seen[col]; ok {
			inPrefix[col] = struct{}{}
			ordered = append(ordered, col)
		}
	}
	for _, col := range t.columns {
		if _, ok := inPrefix[col]; !ok {
			ordered = append(ordered, col)
		}
	}
	t.columns = ordered
}
