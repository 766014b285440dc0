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
	"strings"
)

// ParseFilter parses a query expression into a Filter. The grammar is a
// flat sequence of comparisons joined by AND/OR (case-insensitive,
// evaluated left to right without precedence):
//
//	price >= 10 AND name ~ "widget" OR stock != 0
//
// Supported operators: = != > < >= <= and ~ (contains). Quoting the
// operand is optional. A bare term without an operator matches rows
// containing the term in any column.
//
// An empty query returns a nil Filter (match all). Unknown column names
// and malformed expressions return errors wrapping ErrColumnNotFound and
// ErrInvalidFilter respectively.
func ParseFilter(query string, columnNames []string) (Filter, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	parts := splitByLogicOps(query)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidFilter)
	}

	var (
		filters []Filter
		ops     []string
	)
	for _, part := range parts {
		if part.isOperator {
			ops = append(ops, strings.ToUpper(part.text))
			continue
		}
		f, err := parseComparison(part.text, columnNames)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if len(ops) != len(filters)-1 {
		return nil, fmt.Errorf("%w: mismatched expressions and operators",
			ErrInvalidFilter)
	}

	// Left-associative fold, matching the sequential evaluation of the
	// query grammar.
	result := filters[0]
	for i, op := range ops {
		if op == "AND" {
			result = And(result, filters[i+1])
		} else {
			result = Or(result, filters[i+1])
		}
	}
	return result, nil
}

type queryPart struct {
	text       string
	isOperator bool
}

// splitByLogicOps splits the query on word-boundary AND/OR while
// preserving the operators.
func splitByLogicOps(query string) []queryPart {
	var parts []queryPart
	current := ""
	flush := func() {
		if s := strings.TrimSpace(current); s != "" {
			parts = append(parts, queryPart{text: s})
		}
		current = ""
	}

	i := 0
	for i < len(query) {
		if word := matchLogicOp(query, i); word != "" {
			flush()
			parts = append(parts, queryPart{text: word, isOperator: true})
			i += len(word)
			continue
		}
		current += string(query[i])
		i++
	}
	flush()
	return parts
}

// matchLogicOp reports the AND/OR keyword starting at offset i of query,
// or "" if none starts there on a word boundary.
func matchLogicOp(query string, i int) string {
	for _, word := range []string{"AND", "OR"} {
		n := len(word)
		if i+n > len(query) || !strings.EqualFold(query[i:i+n], word) {
			continue
		}
		boundedLeft := i == 0 || isSpace(query[i-1])
		boundedRight := i+n >= len(query) || isSpace(query[i+n])
		if boundedLeft && boundedRight {
			return word
		}
	}
	return ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// comparisonOps lists operator symbols longest-first so that a tie at
// the same position resolves to ">=" over ">" and "!=" over "=".
var comparisonOps = []struct {
	op     CompareOp
	symbol string
}{
	{OpGreaterEqual, ">="},
	{OpLessEqual, "<="},
	{OpNotEqual, "!="},
	{OpEqual, "="},
	{OpGreater, ">"},
	{OpLess, "<"},
	{OpContains, "~"},
}

// parseComparison parses a single expression like `column >= value`. The
// expression splits on the earliest operator occurrence, so operator
// characters later in the operand (`name ~ a=b`) stay part of the
// operand. An expression without an operator becomes a contains-anywhere
// search.
func parseComparison(expr string, columnNames []string) (Filter, error) {
	expr = strings.TrimSpace(expr)

	bestIdx := -1
	var bestOp CompareOp
	var bestSym string
	for _, opInfo := range comparisonOps {
		idx := strings.Index(expr, opInfo.symbol)
		if idx <= 0 {
			continue
		}
		if bestIdx == -1 || idx < bestIdx {
			bestIdx, bestOp, bestSym = idx, opInfo.op, opInfo.symbol
		}
	}
	if bestIdx <= 0 {
		return &ColumnFilter{Op: OpContains, Operand: strings.Trim(expr, "\"'")}, nil
	}

	column := strings.TrimSpace(expr[:bestIdx])
	operand := strings.TrimSpace(expr[bestIdx+len(bestSym):])
	operand = strings.Trim(operand, "\"'")

	if !containsNameFold(columnNames, column) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	return &ColumnFilter{Column: column, Op: bestOp, Operand: operand}, nil
}

func containsNameFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
