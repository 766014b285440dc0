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

// Package arrow adapts Apache Arrow records, tables and Parquet files to
// the datatable.DataSource contract, and converts data sources back to
// Arrow for egress.
package arrow

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/gochart/chartmodel/datatable"
)

// Source is an immutable DataSource materialized from Arrow data. Cell
// values are converted once at construction, so the backing Arrow memory
// can be released immediately after the adapter is built.
//
// Source never changes, so listener registration is a no-op; for a
// mutable copy go through datatable.NewFromSource.
type Source struct {
	names []string
	types []datatable.DataType
	rows  [][]datatable.Value
}

var _ datatable.DataSource = (*Source)(nil)

// FromRecord builds a Source from one Arrow record batch.
func FromRecord(rec arrow.Record) (*Source, error) {
	if rec == nil {
		return nil, datatable.ErrNoDataSource
	}
	s := newSource(rec.Schema())
	s.appendRecord(rec)
	return s, nil
}

// FromTable builds a Source from a (possibly chunked) Arrow table.
func FromTable(tbl arrow.Table) (*Source, error) {
	if tbl == nil {
		return nil, datatable.ErrNoDataSource
	}
	s := newSource(tbl.Schema())

	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()
	for tr.Next() {
		s.appendRecord(tr.Record())
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("reading arrow table: %w", err)
	}
	return s, nil
}

// FromParquetFile reads a Parquet file into a Source.
func FromParquetFile(ctx context.Context, path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("creating parquet reader: %w", err)
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("creating arrow reader: %w", err)
	}

	tbl, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading parquet data: %w", err)
	}
	defer tbl.Release()

	return FromTable(tbl)
}

func newSource(schema *arrow.Schema) *Source {
	s := &Source{
		names: make([]string, schema.NumFields()),
		types: make([]datatable.DataType, schema.NumFields()),
	}
	for i, field := range schema.Fields() {
		s.names[i] = field.Name
		s.types[i] = toDataType(field.Type)
	}
	return s
}

func (s *Source) appendRecord(rec arrow.Record) {
	numRows := int(rec.NumRows())
	for row := 0; row < numRows; row++ {
		vals := make([]datatable.Value, len(s.types))
		for col, arr := range rec.Columns() {
			vals[col] = cellValue(arr, row, s.types[col])
		}
		s.rows = append(s.rows, vals)
	}
}

// RowCount implements datatable.DataSource.
func (s *Source) RowCount() int { return len(s.rows) }

// ColumnCount implements datatable.DataSource.
func (s *Source) ColumnCount() int { return len(s.types) }

// ColumnTypes implements datatable.DataSource.
func (s *Source) ColumnTypes() []datatable.DataType {
	return append([]datatable.DataType(nil), s.types...)
}

// ColumnType implements datatable.DataSource.
func (s *Source) ColumnType(col int) (datatable.DataType, error) {
	if col < 0 || col >= len(s.types) {
		return 0, fmt.Errorf("%w: %d", datatable.ErrInvalidColumn, col)
	}
	return s.types[col], nil
}

// ColumnName implements datatable.DataSource.
func (s *Source) ColumnName(col int) (string, error) {
	if col < 0 || col >= len(s.names) {
		return "", fmt.Errorf("%w: %d", datatable.ErrInvalidColumn, col)
	}
	return s.names[col], nil
}

// Cell implements datatable.DataSource.
func (s *Source) Cell(col, row int) (datatable.Value, error) {
	if col < 0 || col >= len(s.types) {
		return datatable.Value{}, fmt.Errorf("%w: %d", datatable.ErrInvalidColumn, col)
	}
	if row < 0 {
		return datatable.Value{}, fmt.Errorf("%w: %d", datatable.ErrInvalidRow, row)
	}
	if row >= len(s.rows) {
		return datatable.NewNullValue(s.types[col]), nil
	}
	return s.rows[row][col], nil
}

// Row implements datatable.DataSource.
func (s *Source) Row(row int) datatable.Row {
	return datatable.NewRow(s, row)
}

// AddDataListener implements datatable.DataSource. The source is
// immutable, so there is nothing to listen to.
func (s *Source) AddDataListener(datatable.DataListener) {}

// RemoveDataListener implements datatable.DataSource.
func (s *Source) RemoveDataListener(datatable.DataListener) {}

// toDataType maps an Arrow type onto the model's closed scalar set.
// Types without a natural mapping become strings.
func toDataType(dt arrow.DataType) datatable.DataType {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return datatable.TypeInt
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return datatable.TypeFloat
	case arrow.BOOL:
		return datatable.TypeBool
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return datatable.TypeDate
	default:
		return datatable.TypeString
	}
}

// cellValue converts one Arrow cell into a model Value of the mapped
// column type.
func cellValue(col arrow.Array, pos int, dt datatable.DataType) datatable.Value {
	if col.IsNull(pos) {
		return datatable.NewNullValue(dt)
	}

	switch col.DataType().ID() {
	case arrow.STRING:
		return datatable.NewValue(col.(*array.String).Value(pos), datatable.TypeString)
	case arrow.BINARY:
		return datatable.NewValue(string(col.(*array.Binary).Value(pos)), datatable.TypeString)
	case arrow.BOOL:
		return datatable.NewValue(col.(*array.Boolean).Value(pos), datatable.TypeBool)
	case arrow.INT8:
		return datatable.NewValue(int64(col.(*array.Int8).Value(pos)), datatable.TypeInt)
	case arrow.INT16:
		return datatable.NewValue(int64(col.(*array.Int16).Value(pos)), datatable.TypeInt)
	case arrow.INT32:
		return datatable.NewValue(int64(col.(*array.Int32).Value(pos)), datatable.TypeInt)
	case arrow.INT64:
		return datatable.NewValue(col.(*array.Int64).Value(pos), datatable.TypeInt)
	case arrow.UINT8:
		return datatable.NewValue(int64(col.(*array.Uint8).Value(pos)), datatable.TypeInt)
	case arrow.UINT16:
		return datatable.NewValue(int64(col.(*array.Uint16).Value(pos)), datatable.TypeInt)
	case arrow.UINT32:
		return datatable.NewValue(int64(col.(*array.Uint32).Value(pos)), datatable.TypeInt)
	case arrow.UINT64:
		return datatable.NewValue(int64(col.(*array.Uint64).Value(pos)), datatable.TypeInt)
	case arrow.FLOAT16:
		return datatable.NewValue(float64(col.(*array.Float16).Value(pos).Float32()), datatable.TypeFloat)
	case arrow.FLOAT32:
		return datatable.NewValue(float64(col.(*array.Float32).Value(pos)), datatable.TypeFloat)
	case arrow.FLOAT64:
		return datatable.NewValue(col.(*array.Float64).Value(pos), datatable.TypeFloat)
	case arrow.DATE32:
		return datatable.NewValue(col.(*array.Date32).Value(pos).ToTime(), datatable.TypeDate)
	case arrow.DATE64:
		return datatable.NewValue(col.(*array.Date64).Value(pos).ToTime(), datatable.TypeDate)
	case arrow.TIMESTAMP:
		t := col.(*array.Timestamp).Value(pos).ToTime(timestampUnit(col.DataType()))
		return datatable.NewValue(t, datatable.TypeDate)
	default:
		return datatable.NewValue(col.ValueStr(pos), datatable.TypeString)
	}
}

func timestampUnit(dt arrow.DataType) arrow.TimeUnit {
	if ts, ok := dt.(*arrow.TimestampType); ok {
		return ts.Unit
	}
	return arrow.Nanosecond
}

// ToRecord converts any DataSource into an Arrow record batch. The
// caller owns the returned record and must Release it.
func ToRecord(src datatable.DataSource, mem memory.Allocator) (arrow.Record, error) {
	if src == nil {
		return nil, datatable.ErrNoDataSource
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	types := src.ColumnTypes()
	fields := make([]arrow.Field, len(types))
	for col, dt := range types {
		name, err := src.ColumnName(col)
		if err != nil {
			return nil, err
		}
		fields[col] = arrow.Field{Name: name, Type: toArrowType(dt), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	count := src.RowCount()
	for row := 0; row < count; row++ {
		for col, dt := range types {
			v, err := src.Cell(col, row)
			if err != nil {
				return nil, err
			}
			appendValue(builder.Field(col), v, dt)
		}
	}
	return builder.NewRecord(), nil
}

// WriteParquet writes any DataSource to a Parquet file.
func WriteParquet(src datatable.DataSource, path string) error {
	rec, err := ToRecord(src, nil)
	if err != nil {
		return err
	}
	defer rec.Release()

	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating parquet file: %w", err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	writer, err := pqarrow.NewFileWriter(tbl.Schema(), f, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	defer writer.Close()

	if err := writer.WriteTable(tbl, tbl.NumRows()); err != nil {
		return fmt.Errorf("writing parquet table: %w", err)
	}
	return nil
}

func toArrowType(dt datatable.DataType) arrow.DataType {
	switch dt {
	case datatable.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case datatable.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case datatable.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	case datatable.TypeDate:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(b array.Builder, v datatable.Value, dt datatable.DataType) {
	if v.IsNull {
		b.AppendNull()
		return
	}
	switch dt {
	case datatable.TypeInt:
		i, _ := v.Int()
		b.(*array.Int64Builder).Append(i)
	case datatable.TypeFloat:
		f, _ := v.Float()
		b.(*array.Float64Builder).Append(f)
	case datatable.TypeBool:
		bv, _ := v.Bool()
		b.(*array.BooleanBuilder).Append(bv)
	case datatable.TypeDate:
		t, _ := v.Date()
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(t.UnixMicro()))
	default:
		b.(*array.StringBuilder).Append(v.Formatted)
	}
}
