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

// Package datatable provides the typed, observable tabular data model that
// chart renderers read from: a mutable DataTable with per-column types,
// change notification, multi-key stable sorting, filtering and column
// statistics.
package datatable

import (
	"fmt"
	"strconv"
	"time"
)

// DataType represents the type of data in a column.
type DataType int

const (
	// TypeString represents string data.
	TypeString DataType = iota
	// TypeInt represents integer data (any size, stored as int64).
	TypeInt
	// TypeFloat represents floating-point data (stored as float64).
	TypeFloat
	// TypeBool represents boolean data.
	TypeBool
	// TypeDate represents date/time data (stored as time.Time).
	TypeDate
)

// String returns the string representation of a DataType.
func (dt DataType) String() string {
	switch dt {
	case TypeString:
		return "String"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeBool:
		return "Bool"
	case TypeDate:
		return "Date"
	default:
		return fmt.Sprintf("Unknown(%d)", dt)
	}
}

// Value is a typed container for cell values.
// It holds the raw value, type information, and a pre-formatted string for
// display. Values are immutable once constructed.
type Value struct {
	// Raw holds the underlying value. Depending on Type it is one of
	// int64, float64, string, bool or time.Time; nil when IsNull is set.
	Raw any

	// Type indicates the data type of this value.
	Type DataType

	// IsNull indicates whether this value is null/nil.
	IsNull bool

	// Formatted is a pre-formatted string representation for display.
	// Renderers use it for labels without re-formatting on every frame.
	Formatted string
}

// NewValue creates a new Value from a raw value and type.
// The raw value must already be in the canonical representation for the
// type; use the DataTable write path for coercion of arbitrary Go values.
func NewValue(raw any, dataType DataType) Value {
	if raw == nil {
		return NewNullValue(dataType)
	}
	return Value{
		Raw:       raw,
		Type:      dataType,
		Formatted: formatValue(raw, dataType),
	}
}

// NewNullValue creates a null value of the specified type.
func NewNullValue(dataType DataType) Value {
	return Value{Type: dataType, IsNull: true}
}

// valueOf coerces an arbitrary Go value into the canonical representation
// for the given column type. A nil raw becomes a typed null. Callers may
// also pass a Value of the matching type.
func valueOf(raw any, dataType DataType) (Value, error) {
	if raw == nil {
		return NewNullValue(dataType), nil
	}
	if v, ok := raw.(Value); ok {
		if v.IsNull {
			return NewNullValue(dataType), nil
		}
		if v.Type == dataType {
			return v, nil
		}
		// Int values widen into float columns, like raw integers do.
		if dataType == TypeFloat && v.Type == TypeInt {
			if i, ok := v.Int(); ok {
				return NewValue(float64(i), TypeFloat), nil
			}
		}
		return Value{}, fmt.Errorf("%w: expected %s, got %s value",
			ErrColumnType, dataType, v.Type)
	}

	switch dataType {
	case TypeString:
		if s, ok := raw.(string); ok {
			return NewValue(s, TypeString), nil
		}
	case TypeInt:
		if i, ok := toInt64(raw); ok {
			return NewValue(i, TypeInt), nil
		}
	case TypeFloat:
		if f, ok := toFloat64(raw); ok {
			return NewValue(f, TypeFloat), nil
		}
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return NewValue(b, TypeBool), nil
		}
	case TypeDate:
		if t, ok := raw.(time.Time); ok {
			return NewValue(t, TypeDate), nil
		}
	}
	return Value{}, fmt.Errorf("%w: expected %s, got %T",
		ErrColumnType, dataType, raw)
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	}
	return 0, false
}

func toFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	// Integers widen into float columns.
	if i, ok := toInt64(raw); ok {
		return float64(i), true
	}
	return 0, false
}

// Int returns the value as int64. The second result is false if the value
// is null or not an integer.
func (v Value) Int() (int64, bool) {
	if v.IsNull || v.Type != TypeInt {
		return 0, false
	}
	i, ok := v.Raw.(int64)
	return i, ok
}

// Float returns the value as float64. Integer values are widened so that
// numeric columns can be consumed uniformly (e.g. by axis autoscaling).
// The second result is false if the value is null or non-numeric.
func (v Value) Float() (float64, bool) {
	if v.IsNull {
		return 0, false
	}
	switch v.Type {
	case TypeFloat:
		f, ok := v.Raw.(float64)
		return f, ok
	case TypeInt:
		i, ok := v.Raw.(int64)
		return float64(i), ok
	}
	return 0, false
}

// Text returns the value as string. The second result is false if the
// value is null or not a string.
func (v Value) Text() (string, bool) {
	if v.IsNull || v.Type != TypeString {
		return "", false
	}
	s, ok := v.Raw.(string)
	return s, ok
}

// Bool returns the value as bool. The second result is false if the value
// is null or not a boolean.
func (v Value) Bool() (bool, bool) {
	if v.IsNull || v.Type != TypeBool {
		return false, false
	}
	b, ok := v.Raw.(bool)
	return b, ok
}

// Date returns the value as time.Time. The second result is false if the
// value is null or not a date.
func (v Value) Date() (time.Time, bool) {
	if v.IsNull || v.Type != TypeDate {
		return time.Time{}, false
	}
	t, ok := v.Raw.(time.Time)
	return t, ok
}

// Compare orders v against other. It returns a negative number if v sorts
// before other, zero if they are equal and a positive number otherwise.
// Null values sort before non-null values. Comparing values of different
// types returns ErrTypeMismatch.
func (v Value) Compare(other Value) (int, error) {
	if v.IsNull || other.IsNull {
		switch {
		case v.IsNull && other.IsNull:
			return 0, nil
		case v.IsNull:
			return -1, nil
		default:
			return 1, nil
		}
	}
	if v.Type != other.Type {
		return 0, fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, v.Type, other.Type)
	}

	switch v.Type {
	case TypeInt:
		a, _ := v.Int()
		b, _ := other.Int()
		return cmpOrdered(a, b), nil
	case TypeFloat:
		a, _ := v.Float()
		b, _ := other.Float()
		return cmpOrdered(a, b), nil
	case TypeString:
		a, _ := v.Text()
		b, _ := other.Text()
		return cmpOrdered(a, b), nil
	case TypeBool:
		a, _ := v.Bool()
		b, _ := other.Bool()
		return cmpBool(a, b), nil
	case TypeDate:
		a, _ := v.Date()
		b, _ := other.Date()
		switch {
		case a.Before(b):
			return -1, nil
		case a.After(b):
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrTypeMismatch, v.Type)
}

// Equal reports value equality. Two nulls of any type are equal; values of
// different types are never equal.
func (v Value) Equal(other Value) bool {
	if v.IsNull || other.IsNull {
		return v.IsNull && other.IsNull
	}
	if v.Type != other.Type {
		return false
	}
	c, err := v.Compare(other)
	return err == nil && c == 0
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// formatValue converts a raw value to a formatted string.
func formatValue(raw any, dataType DataType) string {
	if raw == nil {
		return ""
	}
	switch dataType {
	case TypeInt:
		if i, ok := toInt64(raw); ok {
			return strconv.FormatInt(i, 10)
		}
	case TypeFloat:
		if f, ok := toFloat64(raw); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return strconv.FormatBool(b)
		}
	case TypeDate:
		if t, ok := raw.(time.Time); ok {
			return t.Format(time.RFC3339)
		}
	}
	return fmt.Sprintf("%v", raw)
}

// Metadata holds optional metadata about a data source.
type Metadata map[string]any

// SortDirection specifies the direction of sorting.
type SortDirection int

const (
	// SortNone indicates no sorting.
	SortNone SortDirection = iota
	// SortAscending indicates ascending sort order.
	SortAscending
	// SortDescending indicates descending sort order.
	SortDescending
)

// String returns the string representation of a SortDirection.
func (sd SortDirection) String() string {
	switch sd {
	case SortNone:
		return "None"
	case SortAscending:
		return "Ascending"
	case SortDescending:
		return "Descending"
	default:
		return fmt.Sprintf("Unknown(%d)", sd)
	}
}

// SortState represents the current sorting configuration of a view.
type SortState struct {
	// Column is the index of the sorted column (-1 if unsorted).
	Column int
	// Direction is the sort direction.
	Direction SortDirection
}

// IsSorted returns true if this state represents an active sort.
func (s SortState) IsSorted() bool {
	return s.Column >= 0 && s.Direction != SortNone
}
