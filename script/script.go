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

// Package script compiles Go expressions over table rows with the yaegi
// interpreter. A compiled Program can serve as a row filter or derive a
// computed column from an existing data source.
//
// Expressions see the current row as `row map[string]interface{}` keyed
// by column name, plus three accessor helpers that spare the caller the
// type assertions: num(row, "col") float64, str(row, "col") string and
// flag(row, "col") bool. The math and strings packages are imported.
//
//	num(row, "price") > 10 && strings.Contains(str(row, "name"), "kit")
package script

import (
	"errors"
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/gochart/chartmodel/datatable"
)

// Errors returned by this package.
var (
	// ErrCompile is returned when an expression does not compile or
	// does not evaluate to a supported type.
	ErrCompile = errors.New("expression compile failed")

	// ErrEval is returned when a compiled expression panics at runtime.
	ErrEval = errors.New("expression evaluation failed")
)

// programTemplate wraps the user expression into an interpretable
// package. The blank assignments keep the fixed imports legal for
// expressions that do not use them.
const programTemplate = `package expr

import (
	"math"
	"strings"
)

var (
	_ = math.Abs
	_ = strings.Contains
)

func num(row map[string]interface{}, key string) float64 {
	switch v := row[key].(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return math.NaN()
}

func str(row map[string]interface{}, key string) string {
	if s, ok := row[key].(string); ok {
		return s
	}
	return ""
}

func flag(row map[string]interface{}, key string) bool {
	if b, ok := row[key].(bool); ok {
		return b
	}
	return false
}

var (
	_ = num
	_ = str
	_ = flag
)

func eval(row map[string]interface{}) interface{} {
	return %s
}
`

// Program is a compiled row expression.
type Program struct {
	source string
	fn     func(map[string]interface{}) interface{}
}

// Compile builds a Program from a Go expression.
func Compile(expression string) (*Program, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}

	if _, err := i.Eval(fmt.Sprintf(programTemplate, expression)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	v, err := i.Eval("expr.eval")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	fn, ok := v.Interface().(func(map[string]interface{}) interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected evaluator type %T",
			ErrCompile, v.Interface())
	}
	return &Program{source: expression, fn: fn}, nil
}

// Source returns the original expression text.
func (p *Program) Source() string { return p.source }

// Eval runs the expression against one row. Panics inside the expression
// are recovered and reported as ErrEval.
func (p *Program) Eval(row map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrEval, r)
		}
	}()
	return p.fn(row), nil
}

// Filter returns a datatable.Filter backed by the program. The
// expression must evaluate to bool for every row.
func (p *Program) Filter() datatable.Filter {
	return &exprFilter{program: p}
}

type exprFilter struct {
	program *Program
}

// Evaluate implements datatable.Filter.
func (f *exprFilter) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	result, err := f.program.Eval(rowMap(row, columnNames))
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression yielded %T, want bool",
			datatable.ErrInvalidFilter, result)
	}
	return b, nil
}

// Description implements datatable.Filter.
func (f *exprFilter) Description() string {
	return f.program.Source()
}

// Derive builds a new table with all columns of src plus one computed
// column appended. Column shapes are fixed post-construction, so
// derivation always produces a fresh table; src is left untouched. The
// expression result must be assignable to the declared column type
// (nil results become nulls).
func Derive(src datatable.DataSource, name string, dt datatable.DataType, p *Program) (*datatable.DataTable, error) {
	if src == nil {
		return nil, datatable.ErrNoDataSource
	}

	cols := src.ColumnCount()
	names := make([]string, cols, cols+1)
	for col := 0; col < cols; col++ {
		n, err := src.ColumnName(col)
		if err != nil {
			return nil, err
		}
		names[col] = n
	}
	names = append(names, name)
	types := append(src.ColumnTypes(), dt)

	out := datatable.New(types, datatable.WithColumnNames(names...))
	count := src.RowCount()
	for row := 0; row < count; row++ {
		vals := src.Row(row).Values()
		computed, err := p.Eval(rowMap(vals, names[:cols]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		values := make([]any, 0, cols+1)
		for _, v := range vals {
			values = append(values, v)
		}
		values = append(values, computed)
		if _, err := out.Add(values...); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
	return out, nil
}

// rowMap exposes a row to the interpreter as a name-keyed map of raw
// values (nil for nulls).
func rowMap(row []datatable.Value, columnNames []string) map[string]any {
	m := make(map[string]any, len(row))
	for col, v := range row {
		if col >= len(columnNames) {
			break
		}
		if v.IsNull {
			m[columnNames[col]] = nil
		} else {
			m[columnNames[col]] = v.Raw
		}
	}
	return m
}
