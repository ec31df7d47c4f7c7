package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/google/uuid"
)

// FakeBackend is an in-memory backend.Backend with programmable failures.
type FakeBackend struct {
	mu     sync.Mutex
	tables map[string][]backend.Row
	counts map[string]*int64
	errs   map[string]error
	calls  []string
}

var _ backend.Backend = (*FakeBackend)(nil)

// NewFakeBackend returns an empty fake.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		tables: make(map[string][]backend.Row),
		counts: make(map[string]*int64),
		errs:   make(map[string]error),
	}
}

// Seed appends rows to table.
func (f *FakeBackend) Seed(table string, rows ...backend.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		f.tables[table] = append(f.tables[table], clone(r))
	}
}

// SetCount makes Count(table) return n (which may be nil) instead of the
// number of seeded rows.
func (f *FakeBackend) SetCount(table string, n *int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[table] = n
}

// Fail makes op ("count", "select", "get", "insert", "update", "delete",
// "ping") on table fail with err. Pass a nil err to clear it.
func (f *FakeBackend) Fail(op, table string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op+":"+table)
		return
	}
	f.errs[op+":"+table] = err
}

// Rows returns a copy of table's rows.
func (f *FakeBackend) Rows(table string) []backend.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]backend.Row, 0, len(f.tables[table]))
	for _, r := range f.tables[table] {
		out = append(out, clone(r))
	}
	return out
}

// Calls lists the operations performed, as "op:table".
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeBackend) record(op, table string) error {
	f.calls = append(f.calls, op+":"+table)
	return f.errs[op+":"+table]
}

func (f *FakeBackend) Count(ctx context.Context, table string) (*int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("count", table); err != nil {
		return nil, err
	}
	if n, ok := f.counts[table]; ok {
		return n, nil
	}
	n := int64(len(f.tables[table]))
	return &n, nil
}

func (f *FakeBackend) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("select", table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []backend.Row
	for _, r := range f.tables[table] {
		if !q.Since.IsZero() && q.SinceColumn != "" {
			ts, ok := backend.Time(r, q.SinceColumn)
			if !ok || ts.Before(q.Since) {
				continue
			}
		}
		rows = append(rows, r)
	}

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			less := lessValue(rows[i], rows[j], q.OrderBy)
			if q.Descending {
				return lessValue(rows[j], rows[i], q.OrderBy)
			}
			return less
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]backend.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, project(r, q.Columns))
	}
	return out, nil
}

func (f *FakeBackend) Get(ctx context.Context, table, id string) (backend.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get", table); err != nil {
		return nil, err
	}
	if i := f.indexLocked(table, id); i >= 0 {
		return clone(f.tables[table][i]), nil
	}
	return nil, backend.ErrNotFound
}

func (f *FakeBackend) Insert(ctx context.Context, table string, row backend.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("insert", table); err != nil {
		return err
	}

	r := clone(row)
	id, _ := r["id"].(string)
	if id == "" {
		id = uuid.NewString()
		r["id"] = id
	}
	if f.indexLocked(table, id) >= 0 {
		return &backend.Error{
			Code:    backend.CodeUniqueViolation,
			Message: fmt.Sprintf("duplicate key value violates unique constraint %q", table+"_pkey"),
			Table:   table,
		}
	}
	f.tables[table] = append(f.tables[table], r)
	return nil
}

func (f *FakeBackend) Update(ctx context.Context, table, id string, row backend.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update", table); err != nil {
		return err
	}
	i := f.indexLocked(table, id)
	if i < 0 {
		return backend.ErrNotFound
	}
	for k, v := range row {
		if k == "id" {
			continue
		}
		f.tables[table][i][k] = v
	}
	return nil
}

func (f *FakeBackend) Delete(ctx context.Context, table, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete", table); err != nil {
		return err
	}
	i := f.indexLocked(table, id)
	if i < 0 {
		return backend.ErrNotFound
	}
	rows := f.tables[table]
	f.tables[table] = append(rows[:i:i], rows[i+1:]...)
	return nil
}

func (f *FakeBackend) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("ping", "")
}

func (f *FakeBackend) indexLocked(table, id string) int {
	for i, r := range f.tables[table] {
		if rid, _ := r["id"].(string); rid == id {
			return i
		}
	}
	return -1
}

func lessValue(a, b backend.Row, col string) bool {
	ta, okA := backend.Time(a, col)
	tb, okB := backend.Time(b, col)
	if okA && okB {
		return ta.Before(tb)
	}
	return fmt.Sprint(a[col]) < fmt.Sprint(b[col])
}

func project(r backend.Row, cols []string) backend.Row {
	if len(cols) == 0 {
		return clone(r)
	}
	out := make(backend.Row, len(cols))
	for _, c := range cols {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func clone(r backend.Row) backend.Row {
	out := make(backend.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
