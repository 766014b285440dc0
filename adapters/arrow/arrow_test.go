package arrow

import (
	"errors"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/gochart/chartmodel/datatable"
)

func buildRecord(t *testing.T) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	builder.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	builder.Field(1).(*array.StringBuilder).AppendValues([]string{"a", "b", ""}, []bool{true, true, false})
	builder.Field(2).(*array.Float64Builder).AppendValues([]float64{1.5, 2.5, 3.5}, nil)
	return builder.NewRecord()
}

func TestFromRecord(t *testing.T) {
	rec := buildRecord(t)
	defer rec.Release()

	src, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord error = %v", err)
	}

	if got := src.RowCount(); got != 3 {
		t.Fatalf("RowCount = %d, want 3", got)
	}
	if got := src.ColumnCount(); got != 3 {
		t.Fatalf("ColumnCount = %d, want 3", got)
	}

	wantTypes := []datatable.DataType{
		datatable.TypeInt, datatable.TypeString, datatable.TypeFloat,
	}
	for col, want := range wantTypes {
		dt, err := src.ColumnType(col)
		if err != nil {
			t.Fatalf("ColumnType(%d) error = %v", col, err)
		}
		if dt != want {
			t.Errorf("column %d type = %s, want %s", col, dt, want)
		}
	}

	v, err := src.Cell(0, 1)
	if err != nil {
		t.Fatalf("Cell error = %v", err)
	}
	if got, _ := v.Int(); got != 2 {
		t.Errorf("Cell(0, 1) = %d, want 2", got)
	}

	v, _ = src.Cell(1, 2)
	if !v.IsNull {
		t.Error("arrow null did not map to a null value")
	}
}

func TestFromRecordNil(t *testing.T) {
	if _, err := FromRecord(nil); !errors.Is(err, datatable.ErrNoDataSource) {
		t.Errorf("FromRecord(nil) error = %v, want ErrNoDataSource", err)
	}
}

func TestFromTable(t *testing.T) {
	rec := buildRecord(t)
	defer rec.Release()
	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec, rec})
	defer tbl.Release()

	src, err := FromTable(tbl)
	if err != nil {
		t.Fatalf("FromTable error = %v", err)
	}
	if got := src.RowCount(); got != 6 {
		t.Errorf("RowCount = %d, want 6 (two batches)", got)
	}
}

func TestSourceIsValidDataSource(t *testing.T) {
	rec := buildRecord(t)
	defer rec.Release()
	src, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord error = %v", err)
	}

	// Permissive row reads, strict column checks.
	v, err := src.Cell(0, 99)
	if err != nil {
		t.Fatalf("Cell beyond count error = %v, want nil", err)
	}
	if !v.IsNull || v.Type != datatable.TypeInt {
		t.Errorf("Cell beyond count = %+v, want typed null", v)
	}
	if _, err := src.Cell(9, 0); !errors.Is(err, datatable.ErrInvalidColumn) {
		t.Errorf("Cell bad column error = %v, want ErrInvalidColumn", err)
	}

	// Mutable copies go through NewFromSource.
	table, err := datatable.NewFromSource(src)
	if err != nil {
		t.Fatalf("NewFromSource error = %v", err)
	}
	if got := table.RowCount(); got != 3 {
		t.Errorf("copied RowCount = %d, want 3", got)
	}
}

func TestToRecordRoundTrip(t *testing.T) {
	when := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	table := datatable.New(
		[]datatable.DataType{
			datatable.TypeInt, datatable.TypeString, datatable.TypeFloat,
			datatable.TypeBool, datatable.TypeDate,
		},
		datatable.WithColumnNames("id", "name", "score", "ok", "when"),
	)
	if _, err := table.Add(7, "x", 1.25, true, when); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if _, err := table.Add(nil, nil, nil, nil, nil); err != nil {
		t.Fatalf("Add nulls error = %v", err)
	}

	rec, err := ToRecord(table, memory.NewGoAllocator())
	if err != nil {
		t.Fatalf("ToRecord error = %v", err)
	}
	defer rec.Release()

	if got := rec.NumRows(); got != 2 {
		t.Fatalf("NumRows = %d, want 2", got)
	}

	back, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord error = %v", err)
	}

	v, _ := back.Cell(0, 0)
	if got, _ := v.Int(); got != 7 {
		t.Errorf("id = %d, want 7", got)
	}
	v, _ = back.Cell(2, 0)
	if got, _ := v.Float(); got != 1.25 {
		t.Errorf("score = %g, want 1.25", got)
	}
	v, _ = back.Cell(3, 0)
	if got, _ := v.Bool(); !got {
		t.Error("ok = false, want true")
	}
	v, _ = back.Cell(4, 0)
	if got, _ := v.Date(); !got.Equal(when) {
		t.Errorf("when = %v, want %v", got, when)
	}

	for col := 0; col < back.ColumnCount(); col++ {
		v, _ := back.Cell(col, 1)
		if !v.IsNull {
			t.Errorf("column %d row 1 = %+v, want null", col, v)
		}
	}
}

func TestToRecordNilSource(t *testing.T) {
	if _, err := ToRecord(nil, nil); !errors.Is(err, datatable.ErrNoDataSource) {
		t.Errorf("ToRecord(nil) error = %v, want ErrNoDataSource", err)
	}
}

func TestParquetRoundTrip(t *testing.T) {
	table := datatable.New(
		[]datatable.DataType{datatable.TypeInt, datatable.TypeString},
		datatable.WithColumnNames("n", "s"),
	)
	table.Add(1, "one")
	table.Add(2, "two")

	path := t.TempDir() + "/round.parquet"
	if err := WriteParquet(table, path); err != nil {
		t.Fatalf("WriteParquet error = %v", err)
	}

	back, err := FromParquetFile(t.Context(), path)
	if err != nil {
		t.Fatalf("FromParquetFile error = %v", err)
	}
	if got := back.RowCount(); got != 2 {
		t.Fatalf("RowCount = %d, want 2", got)
	}
	v, _ := back.Cell(1, 1)
	if s, _ := v.Text(); s != "two" {
		t.Errorf("Cell(1, 1) = %q, want %q", s, "two")
	}
}
