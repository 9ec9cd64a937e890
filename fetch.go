// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlfetch

import (
	"context"
)

// Executor executes a compiled query and streams its result rows to a
// callback.
//
// Implementations must invoke onRow once per result row, in arrival order,
// strictly before Execute returns, and must never invoke it concurrently
// for the same call. The returned error is the completion signal of the
// query: a nil return means every row was delivered and the query
// terminated cleanly, a non-nil return means execution failed. Errors that
// occur inside onRow are the callback's own concern; Execute does not
// intercept them.
type Executor interface {
	Execute(ctx context.Context, query string, params []any, onRow func(Row)) error
}

// Fetcher is the capability a query builder needs to gain the fetch surface
// of this package: access to its compiled statement and to the executor
// that runs it. [Query] implements Fetcher, and so can any other builder
// type that exposes the same two handles, at which point every fetch
// function in this package works on it unchanged.
type Fetcher interface {
	// Statement returns the compiled SQL and its parameters.
	Statement() (query string, params []any)

	// Executor returns the executor the query runs on.
	Executor() Executor
}

// Run executes f's query, invoking onRow once for every result row, in
// arrival order. It returns once the final row has been delivered, or with
// the first execution error. Run is the primitive every other fetch
// function in this package is built from.
func Run(ctx context.Context, f Fetcher, onRow func(Row)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	query, params := f.Statement()
	return f.Executor().Execute(ctx, query, params, onRow)
}

// Stream executes f's query and decodes each row into a T, invoking
// onResult with the decoded value or with the [DecodeError] describing why
// the row could not be decoded. A row that fails to decode does not stop
// the stream: onResult is invoked exactly once per row regardless, and
// Stream still returns nil when execution itself succeeded. Contrast
// [AllAs], which fails the whole fetch on the first undecodable row.
func Stream[T any](ctx context.Context, f Fetcher, onResult func(T, error)) error {
	return Run(ctx, f, func(r Row) {
		v, err := DecodeRow[T](r)
		onResult(v, err)
	})
}

// All executes f's query and returns every result row, in arrival order.
// The rows are snapshotted, so they remain valid after All returns. An
// empty result set yields an empty slice, never an error. If execution
// fails, any rows collected so far are discarded and only the error is
// returned.
func All(ctx context.Context, f Fetcher) ([]Row, error) {
	var rows []Row
	err := Run(ctx, f, func(r Row) {
		rows = append(rows, Snapshot(r))
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// First executes f's query and returns its first result row, with ok
// reporting whether there was one. An empty result is not an error.
//
// First is defined in terms of [All]: the query is run to completion and
// the first row selected from the result, so it is no cheaper than All.
func First(ctx context.Context, f Fetcher) (r Row, ok bool, err error) {
	rows, err := All(ctx, f)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// AllAs executes f's query and decodes every row into a T, in row order.
// If any row fails to decode the whole fetch fails with that row's
// [DecodeError] and no partial results are returned. Decoding happens after
// the result set has been fully collected, so an execution error always
// takes precedence over any decode error.
func AllAs[T any](ctx context.Context, f Fetcher) ([]T, error) {
	rows, err := All(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(rows))
	for i, r := range rows {
		v, err := DecodeRow[T](r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Two holds the two values decoded from a single row by [AllAs2].
type Two[A, B any] struct {
	A A
	B B
}

// Three holds the three values decoded from a single row by [AllAs3].
type Three[A, B, C any] struct {
	A A
	B B
	C C
}

// AllAs2 executes f's query and decodes from each row two independently
// typed values, both read from the same row's column set. The columns the
// two decodes consume may overlap. As with [AllAs], the first projection of
// any row that fails to decode fails the whole fetch.
func AllAs2[A, B any](ctx context.Context, f Fetcher) ([]Two[A, B], error) {
	rows, err := All(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]Two[A, B], len(rows))
	for i, r := range rows {
		a, err := DecodeRow[A](r)
		if err != nil {
			return nil, err
		}
		b, err := DecodeRow[B](r)
		if err != nil {
			return nil, err
		}
		out[i] = Two[A, B]{A: a, B: b}
	}
	return out, nil
}

// AllAs3 is [AllAs2] for three projections per row.
func AllAs3[A, B, C any](ctx context.Context, f Fetcher) ([]Three[A, B, C], error) {
	rows, err := All(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]Three[A, B, C], len(rows))
	for i, r := range rows {
		a, err := DecodeRow[A](r)
		if err != nil {
			return nil, err
		}
		b, err := DecodeRow[B](r)
		if err != nil {
			return nil, err
		}
		c, err := DecodeRow[C](r)
		if err != nil {
			return nil, err
		}
		out[i] = Three[A, B, C]{A: a, B: b, C: c}
	}
	return out, nil
}

// FirstAs executes f's query and decodes the first result row into a T,
// with ok reporting whether there was one. An empty result is not an
// error; a first row that cannot be decoded is a [DecodeError]. Like
// [First], the query is run to completion before the row is selected.
func FirstAs[T any](ctx context.Context, f Fetcher) (v T, ok bool, err error) {
	var zero T
	r, ok, err := First(ctx, f)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err = DecodeRow[T](r)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}
