// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlfetch

// Row is a single result row, readable by column name.
//
// A Row is only valid for the synchronous extent of the callback it is
// passed to: an Executor may reuse the underlying buffers between rows.
// Consumers that keep a row past the callback must copy the values out or
// take a [Snapshot].
type Row interface {
	// Columns returns the column names of the result set, in the order they
	// appear in the query.
	Columns() []string

	// Value returns the value of the named column and reports whether the
	// column exists in the result set. If the result set contains the same
	// column name more than once the first occurrence is returned.
	Value(name string) (any, bool)
}

// row is the Row implementation delivered by the executors in this package.
// The values slice is owned by the executor and rewritten between rows.
type row struct {
	columns []string
	values  []any
	index   map[string]int
}

func (r *row) Columns() []string {
	return r.columns
}

func (r *row) Value(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// columnIndex maps column names to their first position in cols.
func columnIndex(cols []string) map[string]int {
	index := make(map[string]int, len(cols))
	for i, col := range cols {
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}
	return index
}

// Snapshot returns a copy of r that remains valid after the callback it was
// delivered to returns. Byte slices are deep-copied since drivers reuse
// their buffers between rows.
func Snapshot(r Row) Row {
	cols := r.Columns()
	rc := &row{
		columns: append([]string(nil), cols...),
		values:  make([]any, len(cols)),
		index:   columnIndex(cols),
	}
	for i, col := range cols {
		val, _ := r.Value(col)
		if b, ok := val.([]byte); ok {
			val = append([]byte(nil), b...)
		}
		rc.values[i] = val
	}
	return rc
}
