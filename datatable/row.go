// Copyright 2026 The chartmodel Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datatable

// Row is a positional, non-owning view over one row of a DataSource.
// It reflects live data by index, not by copy: after a concurrent
// mutation the same Row may describe different values, and callers that
// suspect races should re-derive the view.
type Row struct {
	source DataSource
	index  int
}

// NewRow returns a view over row index of source.
func NewRow(source DataSource, index int) Row {
	return Row{source: source, index: index}
}

// Source returns the data source this row belongs to.
func (r Row) Source() DataSource { return r.source }

// Index returns the row index this view points at.
func (r Row) Index() int { return r.index }

// Len returns the number of cells in the row.
func (r Row) Len() int {
	if r.source == nil {
		return 0
	}
	return r.source.ColumnCount()
}

// At returns the cell value at the given column. Out-of-range rows yield
// typed nulls per the permissive read policy; an out-of-range column
// yields an untyped null (the column shape is static, so this indicates
// a caller bug and renderers treat it as missing data).
func (r Row) At(col int) Value {
	if r.source == nil {
		return Value{IsNull: true}
	}
	v, err := r.source.Cell(col, r.index)
	if err != nil {
		return Value{IsNull: true}
	}
	return v
}

// Values returns a snapshot copy of all cell values in the row.
func (r Row) Values() []Value {
	n := r.Len()
	vals := make([]Value, n)
	for col := 0; col < n; col++ {
		vals[col] = r.At(col)
	}
	return vals
}
