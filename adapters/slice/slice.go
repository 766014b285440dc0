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

// Package slice builds datatable.DataTables from in-memory Go values:
// row slices, record maps and JSON documents.
package slice

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gochart/chartmodel/datatable"
)

// FromRows builds a table with the given column names and types and one
// row per entry of rows. Values go through the table's normal validation
// path, so a type mismatch aborts with the offending row untouched.
func FromRows(names []string, types []datatable.DataType, rows [][]any) (*datatable.DataTable, error) {
	if len(names) != len(types) {
		return nil, fmt.Errorf("%w: %d names for %d columns",
			datatable.ErrColumnCount, len(names), len(types))
	}
	t := datatable.New(types, datatable.WithColumnNames(names...))
	for _, row := range rows {
		if _, err := t.Add(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromMaps builds a table from record maps, one row per map. Columns are
// the union of all keys in sorted order; missing keys become nulls.
// Column types are inferred from the values (numeric columns holding
// only whole numbers become TypeInt).
func FromMaps(records []map[string]any) (*datatable.DataTable, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", datatable.ErrNoDataSource)
	}

	nameSet := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			nameSet[k] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for k := range nameSet {
		names = append(names, k)
	}
	sort.Strings(names)

	types := make([]datatable.DataType, len(names))
	for col, name := range names {
		types[col] = inferColumn(records, name)
	}

	t := datatable.New(types, datatable.WithColumnNames(names...))
	for _, rec := range records {
		values := make([]any, len(names))
		for col, name := range names {
			v, err := coerce(rec[name], types[col])
			if err != nil {
				return nil, err
			}
			values[col] = v
		}
		if _, err := t.Add(values...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromJSON parses a JSON array of objects (or a single object) into a
// table via FromMaps.
func FromJSON(data []byte) (*datatable.DataTable, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		var single map[string]any
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
		records = []map[string]any{single}
	}
	return FromMaps(records)
}

// inferColumn picks a DataType for one key across all records. JSON
// numbers arrive as float64; a column of whole numbers becomes TypeInt.
func inferColumn(records []map[string]any, name string) datatable.DataType {
	resolved := false
	result := datatable.TypeString

	for _, rec := range records {
		raw, ok := rec[name]
		if !ok || raw == nil {
			continue
		}

		var dt datatable.DataType
		switch v := raw.(type) {
		case bool:
			dt = datatable.TypeBool
		case string:
			dt = datatable.TypeString
		case time.Time:
			dt = datatable.TypeDate
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				dt = datatable.TypeInt
			} else {
				dt = datatable.TypeFloat
			}
		case float32:
			dt = datatable.TypeFloat
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
			dt = datatable.TypeInt
		default:
			dt = datatable.TypeString
		}

		switch {
		case !resolved:
			result, resolved = dt, true
		case result == dt:
		case result == datatable.TypeInt && dt == datatable.TypeFloat,
			result == datatable.TypeFloat && dt == datatable.TypeInt:
			result = datatable.TypeFloat
		default:
			return datatable.TypeString
		}
	}
	return result
}

// coerce adapts one raw record value to the inferred column type.
func coerce(raw any, dt datatable.DataType) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch dt {
	case datatable.TypeInt:
		if f, ok := raw.(float64); ok {
			return int64(f), nil
		}
	case datatable.TypeString:
		// Mixed-type columns degrade to strings.
		if _, ok := raw.(string); !ok {
			return fmt.Sprintf("%v", raw), nil
		}
	}
	return raw, nil
}
