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
	"strconv"
	"strings"
)

// Filter decides whether a row is visible in a filtered view.
type Filter interface {
	// Evaluate reports whether the given row passes the filter.
	// columnNames carries the source's column names for name lookup.
	Evaluate(row []Value, columnNames []string) (bool, error)

	// Description returns a human-readable form of the filter.
	Description() string
}

// CompareOp is a comparison operator used by ColumnFilter.
type CompareOp int

const (
	// OpEqual matches cells equal to the operand (case-insensitive).
	OpEqual CompareOp = iota
	// OpNotEqual matches cells not equal to the operand.
	OpNotEqual
	// OpGreater matches cells greater than the operand.
	OpGreater
	// OpLess matches cells less than the operand.
	OpLess
	// OpGreaterEqual matches cells greater than or equal to the operand.
	OpGreaterEqual
	// OpLessEqual matches cells less than or equal to the operand.
	OpLessEqual
	// OpContains matches cells containing the operand as a substring.
	OpContains
)

// String returns the operator's query syntax.
func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreater:
		return ">"
	case OpLess:
		return "<"
	case OpGreaterEqual:
		return ">="
	case OpLessEqual:
		return "<="
	case OpContains:
		return "~"
	default:
		return fmt.Sprintf("unknown(%d)", int(op))
	}
}

// ColumnFilter compares one column against a textual operand. Numeric
// cells are compared numerically when the operand parses as a number,
// otherwise comparison falls back to case-insensitive text. An empty
// Column with OpContains searches every column.
type ColumnFilter struct {
	// Column is the name of the column to test. Empty means any column
	// (only valid with OpContains).
	Column string

	// Op is the comparison operator.
	Op CompareOp

	// Operand is the value to compare against, in textual form.
	Operand string
}

// Evaluate implements the Filter interface.
func (f *ColumnFilter) Evaluate(row []Value, columnNames []string) (bool, error) {
	if f.Column == "" {
		if f.Op != OpContains {
			return false, fmt.Errorf("%w: operator %s requires a column",
				ErrInvalidFilter, f.Op)
		}
		needle := strings.ToLower(f.Operand)
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell.Formatted), needle) {
				return true, nil
			}
		}
		return false, nil
	}

	col := -1
	for i, name := range columnNames {
		if strings.EqualFold(name, f.Column) {
			col = i
			break
		}
	}
	if col < 0 || col >= len(row) {
		return false, fmt.Errorf("%w: %s", ErrColumnNotFound, f.Column)
	}
	cell := row[col]

	switch f.Op {
	case OpEqual:
		return strings.EqualFold(cell.Formatted, f.Operand), nil
	case OpNotEqual:
		return !strings.EqualFold(cell.Formatted, f.Operand), nil
	case OpContains:
		return strings.Contains(
			strings.ToLower(cell.Formatted), strings.ToLower(f.Operand)), nil
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return f.compareOrdered(cell), nil
	default:
		return false, fmt.Errorf("%w: unknown operator %d", ErrInvalidFilter, f.Op)
	}
}

// compareOrdered applies a relational operator, numerically when both
// sides parse as numbers and lexicographically otherwise.
func (f *ColumnFilter) compareOrdered(cell Value) bool {
	if cellNum, ok := cell.Float(); ok {
		if operand, err := strconv.ParseFloat(strings.TrimSpace(f.Operand), 64); err == nil {
			switch f.Op {
			case OpGreater:
				return cellNum > operand
			case OpLess:
				return cellNum < operand
			case OpGreaterEqual:
				return cellNum >= operand
			case OpLessEqual:
				return cellNum <= operand
			}
			return false
		}
	}

	cmp := strings.Compare(
		strings.ToLower(cell.Formatted), strings.ToLower(f.Operand))
	switch f.Op {
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	}
	return false
}

// Description implements the Filter interface.
func (f *ColumnFilter) Description() string {
	if f.Column == "" {
		return fmt.Sprintf("any ~ %q", f.Operand)
	}
	return fmt.Sprintf("%s %s %q", f.Column, f.Op, f.Operand)
}

// compositeFilter combines multiple filters with AND or OR logic.
type compositeFilter struct {
	filters []Filter
	all     bool // true for AND, false for OR
}

// And returns a filter passing rows that pass every given filter.
// With no filters the result passes all rows.
func And(filters ...Filter) Filter {
	return &compositeFilter{filters: filters, all: true}
}

// Or returns a filter passing rows that pass at least one given filter.
// With no filters the result passes all rows.
func Or(filters ...Filter) Filter {
	return &compositeFilter{filters: filters, all: false}
}

// Evaluate implements the Filter interface with short-circuiting.
func (f *compositeFilter) Evaluate(row []Value, columnNames []string) (bool, error) {
	if len(f.filters) == 0 {
		return true, nil
	}
	for _, filter := range f.filters {
		passes, err := filter.Evaluate(row, columnNames)
		if err != nil {
			return false, err
		}
		if f.all && !passes {
			return false, nil
		}
		if !f.all && passes {
			return true, nil
		}
	}
	return f.all, nil
}

// Description implements the Filter interface.
func (f *compositeFilter) Description() string {
	if len(f.filters) == 0 {
		return "empty filter"
	}
	op := " OR "
	if f.all {
		op = " AND "
	}
	descriptions := make([]string, len(f.filters))
	for i, filter := range f.filters {
		descriptions[i] = filter.Description()
	}
	return "(" + strings.Join(descriptions, op) + ")"
}
