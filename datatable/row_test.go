package datatable

import "testing"

func TestRowView(t *testing.T) {
	table := newTestTable(t)
	row := table.Row(1)

	if row.Source() != DataSource(table) {
		t.Error("Source does not point back at the table")
	}
	if got := row.Index(); got != 1 {
		t.Errorf("Index = %d, want 1", got)
	}
	if got := row.Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
	if s, _ := row.At(1).Text(); s != "beta" {
		t.Errorf("At(1) = %q, want %q", s, "beta")
	}
}

func TestRowIsLiveView(t *testing.T) {
	table := newTestTable(t)
	row := table.Row(0)

	if _, err := table.Set(1, 0, "renamed"); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if s, _ := row.At(1).Text(); s != "renamed" {
		t.Errorf("At(1) after Set = %q, want %q (view must be live)", s, "renamed")
	}
}

func TestRowOutOfRange(t *testing.T) {
	table := newTestTable(t)

	v := table.Row(99).At(0)
	if !v.IsNull || v.Type != TypeInt {
		t.Errorf("At on out-of-range row = %+v, want typed null", v)
	}

	v = table.Row(0).At(99)
	if !v.IsNull {
		t.Error("At on out-of-range column is not null")
	}
}

func TestRowValuesSnapshot(t *testing.T) {
	table := newTestTable(t)
	vals := table.Row(2).Values()

	if len(vals) != 3 {
		t.Fatalf("Values len = %d, want 3", len(vals))
	}
	if s, _ := vals[1].Text(); s != "gamma" {
		t.Errorf("Values[1] = %q, want %q", s, "gamma")
	}

	// The snapshot is detached from later mutations.
	table.Set(1, 2, "changed")
	if s, _ := vals[1].Text(); s != "gamma" {
		t.Errorf("snapshot tracked mutation: %q, want %q", s, "gamma")
	}
}
