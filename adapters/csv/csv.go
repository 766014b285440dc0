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

// Package csv loads delimiter-separated text into a datatable.DataTable
// with per-column type inference, and writes data sources back out.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gochart/chartmodel/datatable"
)

// Config controls CSV parsing and writing.
type Config struct {
	// Delimiter is the field separator. Ignored on read when
	// DetectDelimiter is set.
	Delimiter rune

	// HasHeaders treats the first row as column names.
	HasHeaders bool

	// TrimSpace strips leading whitespace from fields.
	TrimSpace bool

	// DetectDelimiter picks the separator by counting candidate runes
	// on the first line (comma, semicolon, tab, pipe).
	DetectDelimiter bool
}

// DefaultConfig returns the configuration for a plain comma-separated
// file with a header row.
func DefaultConfig() Config {
	return Config{Delimiter: ',', HasHeaders: true, TrimSpace: true}
}

// FromFile reads a CSV file into a new DataTable.
func FromFile(path string, cfg Config) (*datatable.DataTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}
	defer f.Close()
	return FromReader(f, cfg)
}

// FromReader reads CSV data into a new DataTable. Column types are
// inferred from the data: a column where every non-empty field parses as
// an integer becomes TypeInt, then TypeFloat, TypeBool and TypeDate are
// tried in that order, with TypeString as the fallback. Empty fields
// become nulls.
func FromReader(r io.Reader, cfg Config) (*datatable.DataTable, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv data: %w", err)
	}

	if cfg.DetectDelimiter {
		cfg.Delimiter = DetectDelimiter(firstLine(content))
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = cfg.Delimiter
	reader.TrimLeadingSpace = cfg.TrimSpace
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv data: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty csv input", datatable.ErrNoDataSource)
	}

	var headers []string
	rows := records
	if cfg.HasHeaders {
		headers = records[0]
		rows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("col%d", i)
		}
	}

	types := make([]datatable.DataType, len(headers))
	for col := range types {
		types[col] = inferType(rows, col)
	}

	t := datatable.New(types, datatable.WithColumnNames(headers...))
	for _, record := range rows {
		values := make([]any, len(types))
		for col := range types {
			field := ""
			if col < len(record) {
				field = record[col]
			}
			v, err := parseField(field, types[col])
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

// DetectDelimiter picks the most plausible separator for a header line by
// counting occurrences of the common candidates.
func DetectDelimiter(line string) rune {
	separators := map[rune]int{
		',':  strings.Count(line, ","),
		';':  strings.Count(line, ";"),
		'\t': strings.Count(line, "\t"),
		'|':  strings.Count(line, "|"),
	}

	best, bestCount := ',', 0
	for sep, count := range separators {
		if count > bestCount {
			best, bestCount = sep, count
		}
	}
	return best
}

func firstLine(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}
	return string(bytes.TrimRight(content, "\r"))
}

// dateLayouts are the layouts tried for date columns, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// inferType picks the narrowest DataType every non-empty field of the
// column parses as.
func inferType(rows [][]string, col int) datatable.DataType {
	allInt, allFloat, allBool, allDate := true, true, true, true
	seen := false

	for _, record := range rows {
		if col >= len(record) {
			continue
		}
		field := strings.TrimSpace(record[col])
		if field == "" {
			continue
		}
		seen = true
		if allInt {
			_, err := strconv.ParseInt(field, 10, 64)
			allInt = err == nil
		}
		if allFloat {
			_, err := strconv.ParseFloat(field, 64)
			allFloat = err == nil
		}
		if allBool {
			_, err := strconv.ParseBool(field)
			allBool = err == nil
		}
		if allDate {
			allDate = parseDate(field) != nil
		}
	}

	switch {
	case !seen:
		return datatable.TypeString
	case allInt:
		return datatable.TypeInt
	case allFloat:
		return datatable.TypeFloat
	case allBool:
		return datatable.TypeBool
	case allDate:
		return datatable.TypeDate
	default:
		return datatable.TypeString
	}
}

func parseDate(field string) *time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, field); err == nil {
			return &t
		}
	}
	return nil
}

// parseField converts one textual field into the Go value the table's
// write path expects for the column type. Empty fields become nulls.
func parseField(field string, dt datatable.DataType) (any, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, nil
	}
	switch dt {
	case datatable.TypeInt:
		return strconv.ParseInt(field, 10, 64)
	case datatable.TypeFloat:
		return strconv.ParseFloat(field, 64)
	case datatable.TypeBool:
		return strconv.ParseBool(field)
	case datatable.TypeDate:
		if t := parseDate(field); t != nil {
			return *t, nil
		}
		return nil, fmt.Errorf("%w: unparseable date %q",
			datatable.ErrColumnType, field)
	default:
		return field, nil
	}
}

// Write writes a data source as CSV. The header row carries the column
// names when cfg.HasHeaders is set; cells are written in their display
// form and nulls become empty fields.
func Write(src datatable.DataSource, w io.Writer, cfg Config) error {
	if src == nil {
		return datatable.ErrNoDataSource
	}
	writer := csv.NewWriter(w)
	if cfg.Delimiter != 0 {
		writer.Comma = cfg.Delimiter
	}
	defer writer.Flush()

	cols := src.ColumnCount()
	if cfg.HasHeaders {
		headers := make([]string, cols)
		for col := 0; col < cols; col++ {
			name, err := src.ColumnName(col)
			if err != nil {
				return err
			}
			headers[col] = name
		}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("writing csv header: %w", err)
		}
	}

	count := src.RowCount()
	for row := 0; row < count; row++ {
		record := make([]string, cols)
		for col := 0; col < cols; col++ {
			v, err := src.Cell(col, row)
			if err != nil {
				return err
			}
			record[col] = v.Formatted
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	return writer.Error()
}

// WriteFile writes a data source to a CSV file.
func WriteFile(src datatable.DataSource, path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()
	return Write(src, f, cfg)
}
