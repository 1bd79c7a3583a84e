package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQuerier struct {
	execs  []string
	failOn int
}

func (r *recordingQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.execs = append(r.execs, sql)
	if r.failOn > 0 && len(r.execs) == r.failOn {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (r *recordingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (r *recordingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements()
	require.NotEmpty(t, stmts)

	joined := ""
	for _, s := range stmts {
		assert.NotContains(t, s, ";")
		joined += s
	}
	for _, table := range []string{"price_bars", "backtest_runs", "backtest_trades", "system_state"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestEnsureSchema(t *testing.T) {
	q := &recordingQuerier{}
	require.NoError(t, EnsureSchema(context.Background(), q))
	assert.Len(t, q.execs, len(SchemaStatements()))
}

func TestEnsureSchemaStopsOnError(t *testing.T) {
	q := &recordingQuerier{failOn: 2}
	err := EnsureSchema(context.Background(), q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply schema")
	assert.Len(t, q.execs, 2)
}
