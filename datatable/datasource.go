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

// DataSource provides read-only access to tabular data.
// Implementations must be thread-safe for concurrent reads.
// All methods return errors rather than panic, with one deliberate
// exception: a row index beyond the current row count is tolerated by
// Cell and yields a typed null value, so that renderers racing a
// shrinking table do not have to pre-check the row count.
type DataSource interface {
	// RowCount returns the total number of rows in the data source.
	RowCount() int

	// ColumnCount returns the total number of columns in the data source.
	ColumnCount() int

	// ColumnTypes returns the declared type of every column. The returned
	// slice is a copy; the column shape of a source never changes.
	ColumnTypes() []DataType

	// ColumnType returns the data type of the column at the given index.
	// Returns ErrInvalidColumn if col is out of range.
	ColumnType(col int) (DataType, error)

	// ColumnName returns the name of the column at the given index.
	// Returns ErrInvalidColumn if col is out of range.
	ColumnName(col int) (string, error)

	// Cell returns the value at the specified column and row.
	// Returns ErrInvalidColumn if col is out of range. A row beyond the
	// current row count yields a null value of the column's type.
	Cell(col, row int) (Value, error)

	// Row returns a live positional view over the specified row.
	Row(row int) Row

	// AddDataListener registers a listener for change notification.
	AddDataListener(l DataListener)

	// RemoveDataListener unregisters a previously added listener.
	RemoveDataListener(l DataListener)
}

// DataListener receives change notifications from a DataSource.
// Notification is synchronous on the mutating goroutine and is delivered
// after the mutation is visible, so a listener re-reading the source sees
// at least the state described by the events, possibly a later one.
type DataListener interface {
	// DataAdded is called after rows have been appended. One event is
	// delivered per affected cell.
	DataAdded(source DataSource, events []DataChangeEvent)

	// DataUpdated is called after cell values have been replaced.
	DataUpdated(source DataSource, events []DataChangeEvent)

	// DataRemoved is called after rows have been deleted. A bulk removal
	// (Clear) delivers an empty event slice unless the table was
	// configured for per-cell clear events.
	DataRemoved(source DataSource, events []DataChangeEvent)
}

// DataSortListener is an optional extension of DataListener. Listeners
// that also implement it are notified when a table's row order changes
// without any cell value changing.
type DataSortListener interface {
	// DataSorted is called after the source's rows have been reordered.
	DataSorted(source DataSource)
}
