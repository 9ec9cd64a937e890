// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlfetch_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync/atomic"

	"github.com/mattn/go-sqlite3"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlfetch"
)

// This file contains a wrapper sql.Driver over the SQLite driver which
// counts the result sets opened and closed by queries run through it. We
// use it to check that the executors always close their sql.Rows, on both
// success and failure paths.

var openedRows int64
var closedRows int64

type Driver struct {
	driver.Driver
}

type Conn struct {
	*sqlite3.SQLiteConn
}

type Rows struct {
	driver.Rows
}

func (r *Rows) Close() error {
	atomic.AddInt64(&closedRows, 1)
	return r.Rows.Close()
}

func (c *Conn) Query(query string, args []driver.Value) (driver.Rows, error) {
	rows, err := c.SQLiteConn.Query(query, args)
	if err != nil {
		return nil, err
	}
	atomic.AddInt64(&openedRows, 1)
	return &Rows{rows}, nil
}

func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	rows, err := c.SQLiteConn.QueryContext(ctx, query, args)
	if err != nil {
		return nil, err
	}
	atomic.AddInt64(&openedRows, 1)
	return &Rows{rows}, nil
}

func (d *Driver) Open(name string) (driver.Conn, error) {
	conn, err := d.Driver.Open(name)
	if err != nil {
		return nil, err
	}
	return &Conn{conn.(*sqlite3.SQLiteConn)}, nil
}

func init() {
	sql.Register("sqlite3_rowcheck", &Driver{&sqlite3.SQLiteDriver{}})
}

type DriverSuite struct{}

var _ = Suite(&DriverSuite{})

func (s *DriverSuite) TestExecutorsCloseRows(c *C) {
	sqldb, err := sql.Open("sqlite3_rowcheck", ":memory:")
	c.Assert(err, IsNil)
	defer sqldb.Close()

	_, err = sqldb.Exec(`CREATE TABLE planet (id integer, name text);`)
	c.Assert(err, IsNil)
	_, err = sqldb.Exec(`INSERT INTO planet VALUES (1, 'Earth'), (2, 'Mars');`)
	c.Assert(err, IsNil)

	db := sqlfetch.NewDB(sqldb)
	ctx := context.Background()

	before := atomic.LoadInt64(&openedRows)

	_, err = sqlfetch.All(ctx, db.Query("SELECT id, name FROM planet"))
	c.Assert(err, IsNil)

	_, _, err = sqlfetch.FirstAs[Planet](ctx, db.Query("SELECT id, name FROM planet ORDER BY id"))
	c.Assert(err, IsNil)

	// A failed decode must still close the underlying result set.
	_, err = sqlfetch.AllAs[Reading](ctx, db.Query("SELECT id, name AS value FROM planet"))
	c.Assert(err, NotNil)

	err = sqlfetch.Stream(ctx, db.Query("SELECT id, name FROM planet"), func(Planet, error) {})
	c.Assert(err, IsNil)

	opened := atomic.LoadInt64(&openedRows) - before
	c.Assert(opened >= 4, Equals, true)
	c.Assert(atomic.LoadInt64(&closedRows), Equals, atomic.LoadInt64(&openedRows))
}
