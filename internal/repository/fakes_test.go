package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/wealth-ops/internal/database"
)

type execCall struct {
	sql  string
	args []any
}

// fakeQuerier records statements and replays canned rows
type fakeQuerier struct {
	execs      []execCall
	execErrAt  int
	rowsAffect int64
	rows       [][]any
	row        []any
	rowErr     error
	queryErr   error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.execErrAt > 0 && len(f.execs) == f.execErrAt {
		return pgconn.CommandTag{}, errors.New("exec failed")
	}
	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", f.rowsAffect)), nil
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{data: f.rows, pos: -1}, nil
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return &fakeRow{values: f.row, err: f.rowErr}
}

// fakeTx runs fn against the same querier and reports whether it rolled back
type fakeTx struct {
	q          *fakeQuerier
	rolledBack bool
	committed  bool
}

func (t *fakeTx) WithTransaction(_ context.Context, fn func(q database.Querier) error) error {
	if err := fn(t.q); err != nil {
		t.rolledBack = true
		return err
	}
	t.committed = true
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.data[r.pos], dest)
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values for %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}
