// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlfetch_test

import (
	"context"
	"errors"

	. "gopkg.in/check.v1"

	"github.com/canonical/sqlfetch"
)

type FetchSuite struct{}

var _ = Suite(&FetchSuite{})

// fakeRow is a Row backed by parallel column/value slices.
type fakeRow struct {
	cols []string
	vals []any
}

func (r *fakeRow) Columns() []string {
	return r.cols
}

func (r *fakeRow) Value(name string) (any, bool) {
	for i, col := range r.cols {
		if col == name {
			return r.vals[i], true
		}
	}
	return nil, false
}

// fakeExecutor delivers a fixed set of rows. If failAfter is non-negative
// it fails execution after delivering that many rows. Once execution has
// completed, delivering another row is a contract violation and panics.
type fakeExecutor struct {
	rows      []sqlfetch.Row
	failAfter int
	delivered int
	completed bool
}

func newFakeExecutor(rows ...sqlfetch.Row) *fakeExecutor {
	return &fakeExecutor{rows: rows, failAfter: -1}
}

func (e *fakeExecutor) deliver(r sqlfetch.Row, onRow func(sqlfetch.Row)) {
	if e.completed {
		panic("row delivered after completion")
	}
	e.delivered++
	onRow(r)
}

func (e *fakeExecutor) Execute(ctx context.Context, query string, params []any, onRow func(sqlfetch.Row)) error {
	for i, r := range e.rows {
		if e.failAfter >= 0 && i == e.failAfter {
			e.completed = true
			return errors.New("mid-stream transport failure")
		}
		e.deliver(r, onRow)
	}
	e.completed = true
	return nil
}

// fakeQuery is the minimal Fetcher: a statement plus the executor to run
// it on.
type fakeQuery struct {
	query    string
	params   []any
	executor sqlfetch.Executor
}

func (q *fakeQuery) Statement() (string, []any) {
	return q.query, q.params
}

func (q *fakeQuery) Executor() sqlfetch.Executor {
	return q.executor
}

func planetRow(id int64, name string) sqlfetch.Row {
	return &fakeRow{cols: []string{"id", "name"}, vals: []any{id, name}}
}

func (s *FetchSuite) TestExecutionFailureDiscardsPartial(c *C) {
	exec := newFakeExecutor(planetRow(1, "Earth"), planetRow(2, "Mars"), planetRow(3, "Venus"))
	exec.failAfter = 2

	rows, err := sqlfetch.All(context.Background(), &fakeQuery{query: "SELECT", executor: exec})
	c.Assert(err, ErrorMatches, "mid-stream transport failure")
	c.Assert(rows, IsNil)
	c.Assert(exec.delivered, Equals, 2)
}

func (s *FetchSuite) TestFirstDoesNotShortCircuit(c *C) {
	exec := newFakeExecutor(planetRow(1, "Earth"), planetRow(2, "Mars"), planetRow(3, "Venus"))

	row, ok, err := sqlfetch.First(context.Background(), &fakeQuery{query: "SELECT", executor: exec})
	c.Assert(err, IsNil)
	c.Assert(ok, Equals, true)
	id, _ := row.Value("id")
	c.Assert(id, Equals, int64(1))
	// First is full collection then selection: every row is delivered.
	c.Assert(exec.delivered, Equals, 3)
}

func (s *FetchSuite) TestStreamResolvesDespiteDecodeFailures(c *C) {
	bad := &fakeRow{cols: []string{"id", "name"}, vals: []any{"one", "Earth"}}
	exec := newFakeExecutor(planetRow(1, "Earth"), bad, planetRow(3, "Venus"))

	var errs []error
	err := sqlfetch.Stream(context.Background(), &fakeQuery{query: "SELECT", executor: exec}, func(p Planet, err error) {
		errs = append(errs, err)
	})
	c.Assert(err, IsNil)
	c.Assert(errs, HasLen, 3)
	c.Assert(errs[0], IsNil)
	c.Assert(errs[1], NotNil)
	c.Assert(errs[2], IsNil)
}

func (s *FetchSuite) TestLateDeliveryPanics(c *C) {
	exec := newFakeExecutor(planetRow(1, "Earth"))

	err := sqlfetch.Run(context.Background(), &fakeQuery{query: "SELECT", executor: exec}, func(sqlfetch.Row) {})
	c.Assert(err, IsNil)

	// Delivering a row after the completion signal has resolved violates
	// the Executor contract and is asserted, not tolerated.
	c.Assert(func() {
		exec.deliver(planetRow(2, "Mars"), func(sqlfetch.Row) {})
	}, PanicMatches, "row delivered after completion")
}

func (s *FetchSuite) TestRunNilContext(c *C) {
	exec := newFakeExecutor(planetRow(1, "Earth"))

	var n int
	err := sqlfetch.Run(nil, &fakeQuery{query: "SELECT", executor: exec}, func(sqlfetch.Row) { n++ })
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 1)
}

func (s *FetchSuite) TestSnapshotCopiesBytes(c *C) {
	buf := []byte("Earth")
	live := &fakeRow{cols: []string{"name"}, vals: []any{buf}}

	snap := sqlfetch.Snapshot(live)
	copy(buf, "XXXXX")

	val, ok := snap.Value("name")
	c.Assert(ok, Equals, true)
	c.Assert(string(val.([]byte)), Equals, "Earth")
}

func (s *FetchSuite) TestSnapshotOutlivesCallback(c *C) {
	db, err := planetDB()
	c.Assert(err, IsNil)
	defer db.PlainDB().Close()

	var kept []sqlfetch.Row
	err = sqlfetch.Run(context.Background(), db.Query("SELECT id, name FROM planet ORDER BY id"), func(r sqlfetch.Row) {
		kept = append(kept, sqlfetch.Snapshot(r))
	})
	c.Assert(err, IsNil)
	c.Assert(kept, HasLen, 3)
	name, _ := kept[0].Value("name")
	c.Assert(asText(name), Equals, "Earth")
	name, _ = kept[2].Value("name")
	c.Assert(asText(name), Equals, "Venus")
}
