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

// DataChangeEvent describes one cell's value transition at (Col, Row).
// Events are immutable; Old and New carry value snapshots taken at the
// time of the mutation.
type DataChangeEvent struct {
	// Source identifies the data source the change happened in.
	Source DataSource

	// Col is the column index of the changed cell.
	Col int

	// Row is the row index of the changed cell at the time of the change.
	// Row indices shift when earlier rows are removed.
	Row int

	// Old is the cell's value before the change. For an added row it is
	// a null value of the column's type.
	Old Value

	// New is the cell's value after the change. For a removed row it is
	// a null value of the column's type.
	New Value
}
