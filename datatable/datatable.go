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

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Option configures a DataTable during creation.
type Option func(*tableOptions)

type tableOptions struct {
	name         string
	columnNames  []string
	meta         Metadata
	perCellClear bool
}

// WithTableName sets a name for the table, used in log output.
func WithTableName(name string) Option {
	return func(o *tableOptions) { o.name = name }
}

// WithColumnNames sets the column names. Missing names are filled with
// generated ones ("col0", "col1", ...); surplus names are ignored.
func WithColumnNames(names ...string) Option {
	return func(o *tableOptions) { o.columnNames = names }
}

// WithMetadata attaches provenance metadata to the table, e.g. the file
// it was loaded from.
func WithMetadata(meta Metadata) Option {
	return func(o *tableOptions) { o.meta = meta }
}

// WithPerCellClear makes Clear emit one removal event per cell, like
// Remove does, instead of the default single bulk notification with an
// empty event slice.
func WithPerCellClear() Option {
	return func(o *tableOptions) { o.perCellClear = true }
}

// DataTable is the mutable, observable, sortable DataSource
// implementation. It owns its row storage; the column shape (count,
// types, names) is fixed at construction.
//
// All structural mutations and count-dependent reads are serialized by a
// table-wide lock so readers never observe a torn state. Listener
// notification happens outside that lock, so a listener may re-enter the
// table freely; if mutations race, a listener can observe a table state
// newer than the event it is processing.
type DataTable struct {
	name  string
	names []string
	types []DataType
	meta  Metadata

	mu   sync.RWMutex
	rows [][]Value

	listenerMu sync.Mutex
	listeners  []DataListener

	perCellClear bool
}

var _ DataSource = (*DataTable)(nil)

// New creates an empty table with the given column types.
func New(types []DataType, opts ...Option) *DataTable {
	var o tableOptions
	for _, opt := range opts {
		opt(&o)
	}

	names := make([]string, len(types))
	for i := range names {
		if i < len(o.columnNames) {
			names[i] = o.columnNames[i]
		} else {
			names[i] = fmt.Sprintf("col%d", i)
		}
	}

	return &DataTable{
		name:         o.name,
		names:        names,
		types:        append([]DataType(nil), types...),
		meta:         o.meta,
		perCellClear: o.perCellClear,
	}
}

// NewUniform creates an empty table with cols columns of a single type.
func NewUniform(cols int, dataType DataType, opts ...Option) *DataTable {
	types := make([]DataType, cols)
	for i := range types {
		types[i] = dataType
	}
	return New(types, opts...)
}

// NewFromSource creates a table with the column shape of src and a copy
// of all its rows. Returns ErrNoDataSource if src is nil.
func NewFromSource(src DataSource, opts ...Option) (*DataTable, error) {
	if src == nil {
		return nil, ErrNoDataSource
	}

	types := src.ColumnTypes()
	names := make([]string, len(types))
	for i := range names {
		n, err := src.ColumnName(i)
		if err != nil {
			return nil, err
		}
		names[i] = n
	}

	opts = append([]Option{WithColumnNames(names...)}, opts...)
	t := New(types, opts...)
	for row := 0; row < src.RowCount(); row++ {
		if _, err := t.AddRow(src.Row(row)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Name returns the table's name, if one was set.
func (t *DataTable) Name() string { return t.name }

// Metadata returns the metadata attached at construction, nil if none.
func (t *DataTable) Metadata() Metadata { return t.meta }

// ColumnCount returns the number of columns.
func (t *DataTable) ColumnCount() int { return len(t.types) }

// ColumnTypes returns a copy of the declared column types.
func (t *DataTable) ColumnTypes() []DataType {
	return append([]DataType(nil), t.types...)
}

// ColumnType returns the declared type of the given column.
func (t *DataTable) ColumnType(col int) (DataType, error) {
	if col < 0 || col >= len(t.types) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	return t.types[col], nil
}

// ColumnName returns the name of the given column.
func (t *DataTable) ColumnName(col int) (string, error) {
	if col < 0 || col >= len(t.names) {
		return "", fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	return t.names[col], nil
}

// RowCount returns the current number of rows.
func (t *DataTable) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Cell returns the value at (col, row). A row at or beyond the current
// row count yields a null value of the column's type; a bad column index
// is a contract violation and returns ErrInvalidColumn.
func (t *DataTable) Cell(col, row int) (Value, error) {
	if col < 0 || col >= len(t.types) {
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	if row < 0 {
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if row >= len(t.rows) {
		return NewNullValue(t.types[col]), nil
	}
	return t.rows[row][col], nil
}

// Row returns a live view over the given row index.
func (t *DataTable) Row(row int) Row {
	return NewRow(t, row)
}

// Add appends one row built from the given values. The number of values
// must equal the column count (ErrColumnCount) and every non-nil value
// must be assignable to its column's declared type (ErrColumnType); on
// failure the table is left completely unchanged. On success listeners
// receive one event per cell, after the row is stored, and the new row's
// index is returned.
func (t *DataTable) Add(values ...any) (int, error) {
	if len(values) != len(t.types) {
		return 0, fmt.Errorf("%w: expected %d, got %d",
			ErrColumnCount, len(t.types), len(values))
	}

	row := make([]Value, len(values))
	for col, raw := range values {
		v, err := valueOf(raw, t.types[col])
		if err != nil {
			return 0, fmt.Errorf("column %d: %w", col, err)
		}
		row[col] = v
	}

	t.mu.Lock()
	index := len(t.rows)
	t.rows = append(t.rows, row)
	t.mu.Unlock()

	events := make([]DataChangeEvent, len(row))
	for col, v := range row {
		events[col] = DataChangeEvent{
			Source: t,
			Col:    col,
			Row:    index,
			Old:    NewNullValue(t.types[col]),
			New:    v,
		}
	}
	Logger().Debug("row added", "table", t.name, "row", index)
	t.notifyAdded(events)
	return index, nil
}

// AddRow appends a copy of another row's values through the same
// validation path as Add. The values are copied, not referenced.
func (t *DataTable) AddRow(row Row) (int, error) {
	vals := row.Values()
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return t.Add(args...)
}

// Set replaces the value of one cell and returns the old value. Writing
// a value equal to the current one is an observable no-op: no event is
// emitted. Returns ErrInvalidRow or ErrInvalidColumn for bad indices and
// ErrColumnType for an incompatible value.
func (t *DataTable) Set(col, row int, value any) (Value, error) {
	if col < 0 || col >= len(t.types) {
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	v, err := valueOf(value, t.types[col])
	if err != nil {
		return Value{}, err
	}

	t.mu.Lock()
	if row < 0 || row >= len(t.rows) {
		t.mu.Unlock()
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	old := t.rows[row][col]
	if old.Equal(v) {
		t.mu.Unlock()
		return old, nil
	}
	t.rows[row][col] = v
	t.mu.Unlock()

	t.notifyUpdated([]DataChangeEvent{{
		Source: t,
		Col:    col,
		Row:    row,
		Old:    old,
		New:    v,
	}})
	return old, nil
}

// Remove deletes one row, shifting all later rows' indices down by one.
// Listeners receive one event per column carrying the removed values.
func (t *DataTable) Remove(row int) error {
	t.mu.Lock()
	events, err := t.removeLocked(row)
	t.mu.Unlock()
	if err != nil {
		return err
	}
	Logger().Debug("row removed", "table", t.name, "row", row)
	t.notifyRemoved(events)
	return nil
}

// RemoveLast deletes the last row of the table.
func (t *DataTable) RemoveLast() error {
	t.mu.Lock()
	row := len(t.rows) - 1
	events, err := t.removeLocked(row)
	t.mu.Unlock()
	if err != nil {
		return err
	}
	Logger().Debug("row removed", "table", t.name, "row", row)
	t.notifyRemoved(events)
	return nil
}

// removeLocked deletes one row and builds its removal events.
// Callers must hold t.mu.
func (t *DataTable) removeLocked(row int) ([]DataChangeEvent, error) {
	if row < 0 || row >= len(t.rows) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	old := t.rows[row]
	events := make([]DataChangeEvent, len(old))
	for col, v := range old {
		events[col] = DataChangeEvent{
			Source: t,
			Col:    col,
			Row:    row,
			Old:    v,
			New:    NewNullValue(t.types[col]),
		}
	}
	t.rows = append(t.rows[:row], t.rows[row+1:]...)
	return events, nil
}

// Clear removes all rows in one operation. By default listeners receive
// a single DataRemoved notification with an empty event slice; tables
// built with WithPerCellClear emit one event per removed cell instead.
func (t *DataTable) Clear() {
	t.mu.Lock()
	old := t.rows
	t.rows = nil
	t.mu.Unlock()

	var events []DataChangeEvent
	if t.perCellClear {
		for row, vals := range old {
			for col, v := range vals {
				events = append(events, DataChangeEvent{
					Source: t,
					Col:    col,
					Row:    row,
					Old:    v,
					New:    NewNullValue(t.types[col]),
				})
			}
		}
	}
	Logger().Debug("table cleared", "table", t.name, "rows", len(old))
	t.notifyRemoved(events)
}

// Sort reorders the rows in place using the given comparator chain. The
// sort is stable: rows equal under every comparator keep their original
// relative order. No per-cell events are emitted; listeners implementing
// DataSortListener are notified once.
func (t *DataTable) Sort(comparators ...DataComparator) error {
	for _, c := range comparators {
		if c.Column < 0 || c.Column >= len(t.types) {
			return fmt.Errorf("%w: %d", ErrInvalidSortColumn, c.Column)
		}
	}

	t.mu.Lock()
	sort.SliceStable(t.rows, func(i, j int) bool {
		return compareRows(comparators, t.rows[i], t.rows[j]) < 0
	})
	t.mu.Unlock()

	Logger().Debug("table sorted", "table", t.name, "keys", len(comparators))
	t.notifySorted()
	return nil
}

// AddDataListener registers a listener for change notification.
func (t *DataTable) AddDataListener(l DataListener) {
	if l == nil {
		return
	}
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()
	t.listeners = append(t.listeners, l)
}

// RemoveDataListener unregisters a previously added listener. Func-typed
// listeners are matched by function identity.
func (t *DataTable) RemoveDataListener(l DataListener) {
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()
	for i, registered := range t.listeners {
		if sameListener(registered, l) {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

// sameListener compares listeners without panicking on uncomparable
// dynamic types: func values are matched by code pointer.
func sameListener(a, b DataListener) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	return false
}

// snapshotListeners copies the listener registry so notification can
// iterate without holding any lock.
func (t *DataTable) snapshotListeners() []DataListener {
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()
	return append([]DataListener(nil), t.listeners...)
}

func (t *DataTable) notifyAdded(events []DataChangeEvent) {
	for _, l := range t.snapshotListeners() {
		notifySafely(func() { l.DataAdded(t, events) })
	}
}

func (t *DataTable) notifyUpdated(events []DataChangeEvent) {
	for _, l := range t.snapshotListeners() {
		notifySafely(func() { l.DataUpdated(t, events) })
	}
}

func (t *DataTable) notifyRemoved(events []DataChangeEvent) {
	for _, l := range t.snapshotListeners() {
		notifySafely(func() { l.DataRemoved(t, events) })
	}
}

func (t *DataTable) notifySorted() {
	for _, l := range t.snapshotListeners() {
		if sl, ok := l.(DataSortListener); ok {
			notifySafely(func() { sl.DataSorted(t) })
		}
	}
}

// notifySafely invokes one listener callback, recovering panics so a
// faulty listener cannot take down the producing goroutine.
func notifySafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("data listener panicked", "panic", r)
		}
	}()
	fn()
}
