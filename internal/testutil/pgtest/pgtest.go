// Package pgtest provides in-process fakes for db.Querier.
package pgtest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
)

type Querier struct {
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row

	Calls []Call
}

type Call struct {
	SQL  string
	Args []any
}

func (q *Querier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
	if q.ExecFunc == nil {
		return pgconn.CommandTag("OK 0"), nil
	}
	return q.ExecFunc(ctx, sql, args...)
}

func (q *Querier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
	if q.QueryFunc == nil {
		return &Rows{}, nil
	}
	return q.QueryFunc(ctx, sql, args...)
}

func (q *Querier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
	if q.QueryRowFunc == nil {
		return Row{Err: pgx.ErrNoRows}
	}
	return q.QueryRowFunc(ctx, sql, args...)
}

// Row scans Values into the destinations positionally, converting between
// compatible kinds the way pgx does for named integer types.
type Row struct {
	Values []any
	Err    error
}

func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(dest, r.Values)
}

type Rows struct {
	pgx.Rows

	Data [][]any
	Fail error

	pos    int
	closed bool
}

func (r *Rows) Next() bool {
	if r.closed || r.pos >= len(r.Data) {
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	return assign(dest, r.Data[r.pos-1])
}

func (r *Rows) Err() error {
	return r.Fail
}

func (r *Rows) Close() {
	r.closed = true
}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("pgtest: scan %d destinations from %d values", len(dest), len(values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		switch {
		case v.Type().AssignableTo(target.Type()):
			target.Set(v)
		case v.Type().ConvertibleTo(target.Type()):
			target.Set(v.Convert(target.Type()))
		case target.Kind() == reflect.Pointer && v.Type().ConvertibleTo(target.Type().Elem()):
			ptr := reflect.New(target.Type().Elem())
			ptr.Elem().Set(v.Convert(target.Type().Elem()))
			target.Set(ptr)
		default:
			return fmt.Errorf("pgtest: cannot scan %s into %s", v.Type(), target.Type())
		}
	}
	return nil
}
