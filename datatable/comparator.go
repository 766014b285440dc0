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

// DataComparator is a single-column ordering rule usable as one term in a
// multi-key sort. A sequence of comparators defines a total preorder over
// rows: compare by the first, fall through to the next on ties.
type DataComparator struct {
	// Column is the index of the column to compare by.
	Column int

	// Direction is the sort direction for this column.
	Direction SortDirection
}

// Ascending returns a comparator sorting the given column in ascending order.
func Ascending(col int) DataComparator {
	return DataComparator{Column: col, Direction: SortAscending}
}

// Descending returns a comparator sorting the given column in descending order.
func Descending(col int) DataComparator {
	return DataComparator{Column: col, Direction: SortDescending}
}

// compare orders two rows by this comparator's column. Values that cannot
// be compared (mixed types within a column should not happen on the table
// write path) are treated as equal so a sort never aborts midway.
func (c DataComparator) compare(a, b []Value) int {
	if c.Column < 0 || c.Column >= len(a) || c.Column >= len(b) {
		return 0
	}
	result, err := a[c.Column].Compare(b[c.Column])
	if err != nil {
		return 0
	}
	if c.Direction == SortDescending {
		return -result
	}
	return result
}

// compareRows applies a comparator chain with first-non-zero-wins
// semantics. Rows equal under every comparator compare as equal, which
// combined with a stable sort preserves their original relative order.
func compareRows(comparators []DataComparator, a, b []Value) int {
	for _, c := range comparators {
		if result := c.compare(a, b); result != 0 {
			return result
		}
	}
	return 0
}
