// Copyright 2025 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlfetch

import (
	"context"
	"database/sql"
	"sync/atomic"
)

var ErrTXDone = sql.ErrTxDone

// DB wraps a database handle and executes queries on it. DB implements
// [Executor]: rows are scanned with database/sql and delivered to the row
// callback one at a time, reusing the scan buffers between rows.
type DB struct {
	// sqldb is the underlying database/sql DB object.
	sqldb *sql.DB
}

// NewDB creates a new [sqlfetch.DB] from a [sql.DB].
func NewDB(sqldb *sql.DB) *DB {
	if sqldb == nil {
		return nil
	}
	return &DB{sqldb: sqldb}
}

// PlainDB returns the underlying database object.
func (db *DB) PlainDB() *sql.DB {
	return db.sqldb
}

// Query represents a compiled query bound to the executor that will run it.
// It is built with [DB.Query] or [TX.Query] and run by the fetch functions
// of this package, for example:
//
//	planets, err := sqlfetch.AllAs[Planet](ctx, db.Query("SELECT id, name FROM planet"))
type Query struct {
	query    string
	params   []any
	executor Executor
}

// Query builds a new query from a SQL statement and its parameters. The
// query is not run until it is passed to one of the fetch functions.
func (db *DB) Query(query string, params ...any) *Query {
	return &Query{query: query, params: params, executor: db}
}

// Statement returns the compiled SQL and its parameters.
func (q *Query) Statement() (string, []any) {
	return q.query, q.params
}

// Executor returns the executor the query runs on.
func (q *Query) Executor() Executor {
	return q.executor
}

// Execute implements [Executor] on the database.
func (db *DB) Execute(ctx context.Context, query string, params []any, onRow func(Row)) error {
	rows, err := db.sqldb.QueryContext(ctx, query, params...)
	if err != nil {
		return err
	}
	return streamRows(rows, onRow)
}

// streamRows drives rows to completion, delivering each one to onRow in
// arrival order. The scan buffers are reused between rows, so the Row
// passed to onRow is only valid until the next delivery.
func streamRows(rows *sql.Rows, onRow func(Row)) error {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	r := &row{columns: cols, values: values, index: columnIndex(cols)}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		onRow(r)
	}
	return rows.Err()
}

// TX represents a transaction on the database.
type TX struct {
	sqltx *sql.Tx
	done  int32
}

func (tx *TX) isDone() bool {
	return atomic.LoadInt32(&tx.done) == 1
}

func (tx *TX) setDone() error {
	if !atomic.CompareAndSwapInt32(&tx.done, 0, 1) {
		return ErrTXDone
	}
	return nil
}

// Begin starts a transaction. A transaction must be ended with a
// [TX.Commit] or [TX.Rollback].
func (db *DB) Begin(ctx context.Context, opts *TXOptions) (*TX, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sqltx, err := db.sqldb.BeginTx(ctx, opts.plainTXOptions())
	if err != nil {
		return nil, err
	}
	return &TX{sqltx: sqltx}, nil
}

// Commit commits the transaction.
func (tx *TX) Commit() error {
	err := tx.setDone()
	if err == nil {
		err = tx.sqltx.Commit()
	}
	return err
}

// Rollback aborts the transaction.
func (tx *TX) Rollback() error {
	err := tx.setDone()
	if err == nil {
		err = tx.sqltx.Rollback()
	}
	return err
}

// TXOptions holds the transaction options to be used in [DB.Begin].
type TXOptions struct {
	// Isolation is the transaction isolation level.
	// If zero, the driver or database's default level is used.
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

func (txopts *TXOptions) plainTXOptions() *sql.TxOptions {
	if txopts == nil {
		return nil
	}
	return &sql.TxOptions{Isolation: txopts.Isolation, ReadOnly: txopts.ReadOnly}
}

// Query builds a new query that runs inside the transaction. The query is
// not run until it is passed to one of the fetch functions. A query built
// on a finished transaction fails with [ErrTXDone] when run.
func (tx *TX) Query(query string, params ...any) *Query {
	return &Query{query: query, params: params, executor: tx}
}

// Execute implements [Executor] on the transaction.
func (tx *TX) Execute(ctx context.Context, query string, params []any, onRow func(Row)) error {
	if tx.isDone() {
		return ErrTXDone
	}
	rows, err := tx.sqltx.QueryContext(ctx, query, params...)
	if err != nil {
		return err
	}
	return streamRows(rows, onRow)
}
