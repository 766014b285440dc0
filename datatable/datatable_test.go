package datatable

import (
	"errors"
	"sync"
	"testing"
)

// recordingListener captures every notification it receives.
type recordingListener struct {
	mu      sync.Mutex
	added   [][]DataChangeEvent
	updated [][]DataChangeEvent
	removed [][]DataChangeEvent
	sorted  int
}

func (l *recordingListener) DataAdded(_ DataSource, events []DataChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.added = append(l.added, events)
}

func (l *recordingListener) DataUpdated(_ DataSource, events []DataChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updated = append(l.updated, events)
}

func (l *recordingListener) DataRemoved(_ DataSource, events []DataChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = append(l.removed, events)
}

func (l *recordingListener) DataSorted(DataSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sorted++
}

func newTestTable(t *testing.T) *DataTable {
	t.Helper()
	table := New([]DataType{TypeInt, TypeString, TypeFloat},
		WithColumnNames("id", "name", "score"))
	rows := [][]any{
		{1, "alpha", 1.5},
		{2, "beta", 2.5},
		{3, "gamma", 3.5},
	}
	for _, row := range rows {
		if _, err := table.Add(row...); err != nil {
			t.Fatalf("Add(%v) error = %v", row, err)
		}
	}
	return table
}

func TestTableOptions(t *testing.T) {
	table := New([]DataType{TypeInt},
		WithTableName("metrics"),
		WithMetadata(Metadata{"origin": "unit test"}))

	if got := table.Name(); got != "metrics" {
		t.Errorf("Name = %q, want %q", got, "metrics")
	}
	if got := table.Metadata()["origin"]; got != "unit test" {
		t.Errorf("Metadata[origin] = %v, want %q", got, "unit test")
	}
	name, _ := table.ColumnName(0)
	if name != "col0" {
		t.Errorf("ColumnName(0) = %q, want generated %q", name, "col0")
	}
}

func TestAddAndGet(t *testing.T) {
	table := newTestTable(t)

	if got := table.RowCount(); got != 3 {
		t.Fatalf("RowCount = %d, want 3", got)
	}

	v, err := table.Cell(1, 2)
	if err != nil {
		t.Fatalf("Cell(1, 2) error = %v", err)
	}
	if s, _ := v.Text(); s != "gamma" {
		t.Errorf("Cell(1, 2) = %q, want %q", s, "gamma")
	}

	idx, err := table.Add(4, "delta", 4.5)
	if err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if idx != 3 {
		t.Errorf("Add returned index %d, want 3", idx)
	}
}

func TestAddWrongArity(t *testing.T) {
	table := newTestTable(t)
	before := table.RowCount()

	_, err := table.Add(1, "too few")
	if !errors.Is(err, ErrColumnCount) {
		t.Fatalf("Add with 2 values error = %v, want ErrColumnCount", err)
	}
	if got := table.RowCount(); got != before {
		t.Errorf("RowCount after failed Add = %d, want %d", got, before)
	}
}

func TestAddWrongType(t *testing.T) {
	table := newTestTable(t)
	before := table.RowCount()

	_, err := table.Add("not an int", "name", 1.0)
	if !errors.Is(err, ErrColumnType) {
		t.Fatalf("Add with bad type error = %v, want ErrColumnType", err)
	}
	if got := table.RowCount(); got != before {
		t.Errorf("RowCount after failed Add = %d, want %d", got, before)
	}
}

func TestAddNulls(t *testing.T) {
	table := newTestTable(t)
	idx, err := table.Add(nil, nil, nil)
	if err != nil {
		t.Fatalf("Add(nil, nil, nil) error = %v", err)
	}
	for col := 0; col < table.ColumnCount(); col++ {
		v, err := table.Cell(col, idx)
		if err != nil {
			t.Fatalf("Cell(%d, %d) error = %v", col, idx, err)
		}
		if !v.IsNull {
			t.Errorf("Cell(%d, %d).IsNull = false, want true", col, idx)
		}
	}
}

func TestAddNotifiesPerCell(t *testing.T) {
	table := newTestTable(t)
	l := &recordingListener{}
	table.AddDataListener(l)

	if _, err := table.Add(9, "omega", 9.5); err != nil {
		t.Fatalf("Add error = %v", err)
	}

	if len(l.added) != 1 {
		t.Fatalf("got %d DataAdded calls, want 1", len(l.added))
	}
	events := l.added[0]
	if len(events) != 3 {
		t.Fatalf("got %d events, want one per cell (3)", len(events))
	}
	for col, ev := range events {
		if ev.Col != col || ev.Row != 3 {
			t.Errorf("event %d at (%d, %d), want (%d, 3)", col, ev.Col, ev.Row, col)
		}
		if !ev.Old.IsNull {
			t.Errorf("event %d Old.IsNull = false, want true", col)
		}
		if ev.New.IsNull {
			t.Errorf("event %d New.IsNull = true, want false", col)
		}
	}
}

func TestListenerSeesStoredRow(t *testing.T) {
	table := newTestTable(t)
	var seen int
	table.AddDataListener(listenerFunc(func(src DataSource, events []DataChangeEvent) {
		seen = src.RowCount()
	}))

	if _, err := table.Add(4, "delta", 4.5); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if seen != 4 {
		t.Errorf("listener observed RowCount = %d, want 4 (row stored before notify)", seen)
	}
}

// listenerFunc adapts a function to DataListener for add notifications.
type listenerFunc func(DataSource, []DataChangeEvent)

func (f listenerFunc) DataAdded(s DataSource, e []DataChangeEvent)   { f(s, e) }
func (f listenerFunc) DataUpdated(s DataSource, e []DataChangeEvent) {}
func (f listenerFunc) DataRemoved(s DataSource, e []DataChangeEvent) {}

func TestSetEmitsSingleEvent(t *testing.T) {
	table := newTestTable(t)
	l := &recordingListener{}
	table.AddDataListener(l)

	old, err := table.Set(1, 0, "ALPHA")
	if err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if s, _ := old.Text(); s != "alpha" {
		t.Errorf("Set returned old = %q, want %q", s, "alpha")
	}

	if len(l.updated) != 1 || len(l.updated[0]) != 1 {
		t.Fatalf("updated notifications = %v, want one call with one event", l.updated)
	}
	ev := l.updated[0][0]
	if got, _ := ev.Old.Text(); got != "alpha" {
		t.Errorf("event Old = %q, want %q", got, "alpha")
	}
	if got, _ := ev.New.Text(); got != "ALPHA" {
		t.Errorf("event New = %q, want %q", got, "ALPHA")
	}
}

func TestSetSameValueIsNoOp(t *testing.T) {
	table := newTestTable(t)
	l := &recordingListener{}
	table.AddDataListener(l)

	if _, err := table.Set(1, 0, "alpha"); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if len(l.updated) != 0 {
		t.Errorf("same-value Set emitted %d notifications, want 0", len(l.updated))
	}
}

func TestSetBadIndices(t *testing.T) {
	table := newTestTable(t)
	if _, err := table.Set(0, 99, 1); !errors.Is(err, ErrInvalidRow) {
		t.Errorf("Set bad row error = %v, want ErrInvalidRow", err)
	}
	if _, err := table.Set(99, 0, 1); !errors.Is(err, ErrInvalidColumn) {
		t.Errorf("Set bad column error = %v, want ErrInvalidColumn", err)
	}
}

func TestCellPermissiveRow(t *testing.T) {
	table := newTestTable(t)

	v, err := table.Cell(0, 99)
	if err != nil {
		t.Fatalf("Cell beyond row count error = %v, want nil", err)
	}
	if !v.IsNull || v.Type != TypeInt {
		t.Errorf("Cell beyond row count = %+v, want typed null", v)
	}

	if _, err := table.Cell(99, 0); !errors.Is(err, ErrInvalidColumn) {
		t.Errorf("Cell bad column error = %v, want ErrInvalidColumn", err)
	}
}

func TestRemoveShiftsRows(t *testing.T) {
	table := newTestTable(t)
	l := &recordingListener{}
	table.AddDataListener(l)

	if err := table.Remove(1); err != nil {
		t.Fatalf("Remove(1) error = %v", err)
	}
	if got := table.RowCount(); got != 2 {
		t.Fatalf("RowCount after Remove = %d, want 2", got)
	}

	// The row previously at index 2 is now at index 1.
	v, _ := table.Cell(1, 1)
	if s, _ := v.Text(); s != "gamma" {
		t.Errorf("Cell(1, 1) after Remove = %q, want %q", s, "gamma")
	}

	if len(l.removed) != 1 || len(l.removed[0]) != 3 {
		t.Fatalf("removal notifications = %v, want one call with 3 events", l.removed)
	}
	ev := l.removed[0][1]
	if got, _ := ev.Old.Text(); got != "beta" {
		t.Errorf("removal event Old = %q, want %q (pre-removal snapshot)", got, "beta")
	}
	if !ev.New.IsNull {
		t.Error("removal event New.IsNull = false, want true")
	}
}

func TestRemoveLast(t *testing.T) {
	table := newTestTable(t)
	if err := table.RemoveLast(); err != nil {
		t.Fatalf("RemoveLast error = %v", err)
	}
	if got := table.RowCount(); got != 2 {
		t.Errorf("RowCount = %d, want 2", got)
	}

	empty := New([]DataType{TypeInt})
	if err := empty.RemoveLast(); !errors.Is(err, ErrInvalidRow) {
		t.Errorf("RemoveLast on empty table error = %v, want ErrInvalidRow", err)
	}
}

func TestRemoveBadIndex(t *testing.T) {
	table := newTestTable(t)
	if err := table.Remove(-1); !errors.Is(err, ErrInvalidRow) {
		t.Errorf("Remove(-1) error = %v, want ErrInvalidRow", err)
	}
	if err := table.Remove(3); !errors.Is(err, ErrInvalidRow) {
		t.Errorf("Remove(3) error = %v, want ErrInvalidRow", err)
	}
}

func TestClearBulkNotification(t *testing.T) {
	table := newTestTable(t)
	l := &recordingListener{}
	table.AddDataListener(l)

	table.Clear()

	if got := table.RowCount(); got != 0 {
		t.Fatalf("RowCount after Clear = %d, want 0", got)
	}
	if len(l.removed) != 1 {
		t.Fatalf("got %d DataRemoved calls, want 1 (bulk)", len(l.removed))
	}
	if len(l.removed[0]) != 0 {
		t.Errorf("bulk Clear carried %d events, want 0", len(l.removed[0]))
	}
}

func TestClearPerCellOption(t *testing.T) {
	table := New([]DataType{TypeInt, TypeString}, WithPerCellClear())
	table.Add(1, "a")
	table.Add(2, "b")

	l := &recordingListener{}
	table.AddDataListener(l)
	table.Clear()

	if len(l.removed) != 1 {
		t.Fatalf("got %d DataRemoved calls, want 1", len(l.removed))
	}
	if got := len(l.removed[0]); got != 4 {
		t.Errorf("per-cell Clear carried %d events, want 4", got)
	}
}

func TestSortSingleKey(t *testing.T) {
	table := New([]DataType{TypeInt}, WithColumnNames("n"))
	for _, n := range []int{3, 1, 2} {
		table.Add(n)
	}

	if err := table.Sort(Ascending(0)); err != nil {
		t.Fatalf("Sort error = %v", err)
	}

	want := []int64{1, 2, 3}
	for row, w := range want {
		v, _ := table.Cell(0, row)
		if got, _ := v.Int(); got != w {
			t.Errorf("row %d = %d, want %d", row, got, w)
		}
	}
}

func TestSortStableTieBreak(t *testing.T) {
	table := New([]DataType{TypeInt, TypeString}, WithColumnNames("key", "tag"))
	rows := [][]any{
		{2, "first-2"},
		{1, "first-1"},
		{2, "second-2"},
		{1, "second-1"},
	}
	for _, row := range rows {
		table.Add(row...)
	}

	if err := table.Sort(Ascending(0)); err != nil {
		t.Fatalf("Sort error = %v", err)
	}

	want := []string{"first-1", "second-1", "first-2", "second-2"}
	for row, w := range want {
		v, _ := table.Cell(1, row)
		if got, _ := v.Text(); got != w {
			t.Errorf("row %d tag = %q, want %q (stability violated)", row, got, w)
		}
	}
}

func TestSortMultiKey(t *testing.T) {
	table := New([]DataType{TypeInt, TypeFloat}, WithColumnNames("group", "score"))
	rows := [][]any{
		{1, 2.0},
		{2, 1.0},
		{1, 1.0},
		{2, 2.0},
	}
	for _, row := range rows {
		table.Add(row...)
	}

	if err := table.Sort(Ascending(0), Descending(1)); err != nil {
		t.Fatalf("Sort error = %v", err)
	}

	want := [][2]float64{{1, 2.0}, {1, 1.0}, {2, 2.0}, {2, 1.0}}
	for row, w := range want {
		g, _ := table.Cell(0, row)
		s, _ := table.Cell(1, row)
		gi, _ := g.Int()
		sf, _ := s.Float()
		if float64(gi) != w[0] || sf != w[1] {
			t.Errorf("row %d = (%d, %g), want (%g, %g)", row, gi, sf, w[0], w[1])
		}
	}
}

func TestSortNotifiesSortListener(t *testing.T) {
	table := newTestTable(t)
	l := &recordingListener{}
	table.AddDataListener(l)

	if err := table.Sort(Descending(0)); err != nil {
		t.Fatalf("Sort error = %v", err)
	}
	if l.sorted != 1 {
		t.Errorf("DataSorted calls = %d, want 1", l.sorted)
	}
	if len(l.added)+len(l.updated)+len(l.removed) != 0 {
		t.Error("Sort emitted cell-level events, want none")
	}
}

func TestSortBadColumn(t *testing.T) {
	table := newTestTable(t)
	if err := table.Sort(Ascending(7)); !errors.Is(err, ErrInvalidSortColumn) {
		t.Errorf("Sort bad column error = %v, want ErrInvalidSortColumn", err)
	}
}

func TestRemoveDataListener(t *testing.T) {
	table := newTestTable(t)
	l := &recordingListener{}
	table.AddDataListener(l)
	table.Add(4, "delta", 4.5)
	table.RemoveDataListener(l)
	table.Add(5, "epsilon", 5.5)

	if len(l.added) != 1 {
		t.Errorf("got %d DataAdded calls, want 1 (none after removal)", len(l.added))
	}
}

func TestRemoveFuncListener(t *testing.T) {
	table := newTestTable(t)
	var first, second int
	fl := listenerFunc(func(DataSource, []DataChangeEvent) { first++ })
	other := listenerFunc(func(DataSource, []DataChangeEvent) { second++ })
	table.AddDataListener(fl)
	table.AddDataListener(other)

	table.Add(4, "delta", 4.5)
	table.RemoveDataListener(fl)
	table.Add(5, "epsilon", 5.5)

	if first != 1 {
		t.Errorf("removed func listener called %d times, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining func listener called %d times, want 2", second)
	}
}

func TestAddRowCopiesValues(t *testing.T) {
	src := newTestTable(t)
	dst := New(src.ColumnTypes())

	if _, err := dst.AddRow(src.Row(1)); err != nil {
		t.Fatalf("AddRow error = %v", err)
	}
	v, _ := dst.Cell(1, 0)
	if s, _ := v.Text(); s != "beta" {
		t.Errorf("copied cell = %q, want %q", s, "beta")
	}

	// Mutating the source afterwards must not affect the copy.
	src.Set(1, 1, "CHANGED")
	v, _ = dst.Cell(1, 0)
	if s, _ := v.Text(); s != "beta" {
		t.Errorf("copy tracked source mutation: got %q, want %q", s, "beta")
	}
}

func TestAddRowWidensIntoFloatColumn(t *testing.T) {
	src := New([]DataType{TypeInt})
	src.Add(7)

	dst := New([]DataType{TypeFloat})
	if _, err := dst.AddRow(src.Row(0)); err != nil {
		t.Fatalf("AddRow into float column error = %v", err)
	}
	v, _ := dst.Cell(0, 0)
	if f, _ := v.Float(); f != 7.0 {
		t.Errorf("widened cell = %g, want 7", f)
	}
}

func TestNewFromSource(t *testing.T) {
	src := newTestTable(t)
	clone, err := NewFromSource(src)
	if err != nil {
		t.Fatalf("NewFromSource error = %v", err)
	}
	if got := clone.RowCount(); got != src.RowCount() {
		t.Fatalf("clone RowCount = %d, want %d", got, src.RowCount())
	}
	for row := 0; row < src.RowCount(); row++ {
		for col := 0; col < src.ColumnCount(); col++ {
			a, _ := src.Cell(col, row)
			b, _ := clone.Cell(col, row)
			if !a.Equal(b) {
				t.Errorf("cell (%d, %d): clone = %v, want %v", col, row, b, a)
			}
		}
	}

	if _, err := NewFromSource(nil); !errors.Is(err, ErrNoDataSource) {
		t.Errorf("NewFromSource(nil) error = %v, want ErrNoDataSource", err)
	}
}

func TestListenerPanicIsRecovered(t *testing.T) {
	table := newTestTable(t)
	table.AddDataListener(listenerFunc(func(DataSource, []DataChangeEvent) {
		panic("listener bug")
	}))
	l := &recordingListener{}
	table.AddDataListener(l)

	if _, err := table.Add(4, "delta", 4.5); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if len(l.added) != 1 {
		t.Error("listener after a panicking one was not notified")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	table := New([]DataType{TypeInt, TypeFloat})

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				table.Add(seed*1000+i, float64(i))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				count := table.RowCount()
				if count > 0 {
					if _, err := table.Cell(0, count-1); err != nil {
						t.Errorf("Cell error = %v", err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := table.RowCount(); got != 400 {
		t.Errorf("RowCount = %d, want 400", got)
	}
}
