/*
Package sqlfetch is a result-fetching layer for SQL databases that turns a
query's raw row stream into strongly-typed Go values.

It sits between query execution and application code: a query builder hands
over its compiled SQL and an executor, and sqlfetch provides streaming,
raw and typed access to the rows the executor delivers, in arrival order.
It does not parse SQL, manage connections or cache statements; it only
decodes results.

# Basics

Queries are built on a [DB] and run with the package-level fetch functions.
Result rows are decoded into structs through their `db` tags:

	type Planet struct {
		ID   int    `db:"id"`
		Name string `db:"name"`
	}

	db := sqlfetch.NewDB(sqldb)
	planets, err := sqlfetch.AllAs[Planet](ctx, db.Query("SELECT id, name FROM planet"))
	planet, ok, err := sqlfetch.FirstAs[Planet](ctx, db.Query("SELECT id, name FROM planet WHERE id = ?", 3))

Two or three independently typed values can be decoded from each row of a
single query. The decodes read the same row and may consume overlapping
columns:

	pairs, err := sqlfetch.AllAs2[Planet, Moon](ctx, db.Query(`
		SELECT p.id, p.name, m.name AS moon_name
		FROM planet AS p JOIN moon AS m ON m.planet_id = p.id`))

# Streaming

[Run] invokes a callback once per row as rows arrive and is the primitive
everything else is built from. [Stream] adds decoding with per-row error
locality: a row that fails to decode is reported to the callback and the
stream carries on, whereas the typed collection functions ([AllAs],
[AllAs2], [AllAs3], [FirstAs]) fail the whole fetch on the first bad row.
Execution errors are always fatal and discard any partly-collected results.

# Extending

The fetch functions operate on the [Fetcher] interface, so any query
builder that can expose its compiled SQL and an [Executor] gains the whole
surface without reimplementing the streaming machinery.
*/
package sqlfetch
