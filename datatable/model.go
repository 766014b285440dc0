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
	"sort"
	"sync"
)

// TableModel is a read-only sorted/filtered projection of a DataSource.
// It maintains a visible-row to source-row index mapping and refreshes it
// automatically when the underlying source changes. The source itself is
// never mutated; sorting and filtering are view state.
type TableModel struct {
	source DataSource
	names  []string

	mu        sync.RWMutex
	filter    Filter
	sortState SortState
	visible   []int // visible row index -> source row index
}

// NewTableModel creates a projection over src showing all rows in source
// order. Returns ErrNoDataSource if src is nil. The model registers
// itself as a listener on src; call Close to detach it.
func NewTableModel(src DataSource) (*TableModel, error) {
	if src == nil {
		return nil, ErrNoDataSource
	}

	names := make([]string, src.ColumnCount())
	for i := range names {
		n, err := src.ColumnName(i)
		if err != nil {
			return nil, err
		}
		names[i] = n
	}

	m := &TableModel{
		source:    src,
		names:     names,
		sortState: SortState{Column: -1},
	}
	if err := m.Refresh(); err != nil {
		return nil, err
	}
	src.AddDataListener(m)
	return m, nil
}

// Source returns the underlying data source.
func (m *TableModel) Source() DataSource { return m.source }

// ColumnNames returns a copy of the source's column names.
func (m *TableModel) ColumnNames() []string {
	return append([]string(nil), m.names...)
}

// SetFilter replaces the active filter and rebuilds the projection.
// A nil filter shows all rows.
func (m *TableModel) SetFilter(f Filter) error {
	m.mu.Lock()
	m.filter = f
	m.mu.Unlock()
	return m.Refresh()
}

// SetSort replaces the active sort and rebuilds the projection. Passing
// SortNone clears sorting and restores source order. Returns
// ErrInvalidSortColumn for a bad column index.
func (m *TableModel) SetSort(col int, direction SortDirection) error {
	if direction != SortNone && (col < 0 || col >= m.source.ColumnCount()) {
		return fmt.Errorf("%w: %d", ErrInvalidSortColumn, col)
	}
	m.mu.Lock()
	if direction == SortNone {
		m.sortState = SortState{Column: -1}
	} else {
		m.sortState = SortState{Column: col, Direction: direction}
	}
	m.mu.Unlock()
	return m.Refresh()
}

// SortState returns the current sorting configuration.
func (m *TableModel) SortState() SortState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortState
}

// VisibleRowCount returns the number of rows passing the filter.
func (m *TableModel) VisibleRowCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.visible)
}

// SourceIndex maps a visible row index back to the source row index.
func (m *TableModel) SourceIndex(visible int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if visible < 0 || visible >= len(m.visible) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRow, visible)
	}
	return m.visible[visible], nil
}

// VisibleCell returns the value at (col, row) in projection coordinates.
// Like DataSource.Cell, a row beyond the visible count yields a typed
// null and a bad column returns ErrInvalidColumn.
func (m *TableModel) VisibleCell(col, row int) (Value, error) {
	if col < 0 || col >= m.source.ColumnCount() {
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	if row < 0 {
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}

	m.mu.RLock()
	if row >= len(m.visible) {
		m.mu.RUnlock()
		dt, _ := m.source.ColumnType(col)
		return NewNullValue(dt), nil
	}
	sourceRow := m.visible[row]
	m.mu.RUnlock()

	return m.source.Cell(col, sourceRow)
}

// VisibleRow returns a snapshot of the values of one visible row.
func (m *TableModel) VisibleRow(row int) ([]Value, error) {
	sourceRow, err := m.SourceIndex(row)
	if err != nil {
		return nil, err
	}
	return m.source.Row(sourceRow).Values(), nil
}

// Refresh rebuilds the projection from the current source contents.
func (m *TableModel) Refresh() error {
	m.mu.RLock()
	filter := m.filter
	sortState := m.sortState
	m.mu.RUnlock()

	type projRow struct {
		source int
		values []Value
	}

	count := m.source.RowCount()
	rows := make([]projRow, 0, count)
	for row := 0; row < count; row++ {
		vals := m.source.Row(row).Values()
		if filter != nil {
			passes, err := filter.Evaluate(vals, m.names)
			if err != nil {
				return err
			}
			if !passes {
				continue
			}
		}
		rows = append(rows, projRow{source: row, values: vals})
	}

	if sortState.IsSorted() {
		cmp := DataComparator{Column: sortState.Column, Direction: sortState.Direction}
		sort.SliceStable(rows, func(i, j int) bool {
			return cmp.compare(rows[i].values, rows[j].values) < 0
		})
	}

	visible := make([]int, len(rows))
	for i, r := range rows {
		visible[i] = r.source
	}

	m.mu.Lock()
	m.visible = visible
	m.mu.Unlock()
	return nil
}

// Close detaches the model from its source. The model keeps serving its
// last projection but no longer follows source changes.
func (m *TableModel) Close() {
	m.source.RemoveDataListener(m)
}

// DataAdded implements DataListener.
func (m *TableModel) DataAdded(DataSource, []DataChangeEvent) { m.refreshLogged() }

// DataUpdated implements DataListener.
func (m *TableModel) DataUpdated(DataSource, []DataChangeEvent) { m.refreshLogged() }

// DataRemoved implements DataListener.
func (m *TableModel) DataRemoved(DataSource, []DataChangeEvent) { m.refreshLogged() }

// DataSorted implements DataSortListener.
func (m *TableModel) DataSorted(DataSource) { m.refreshLogged() }

func (m *TableModel) refreshLogged() {
	if err := m.Refresh(); err != nil {
		Logger().Warn("table model refresh failed", "err", err)
	}
}
