package demo

import (
	"context"
	"fmt"
	"os"

	"github.com/canonical/go-dqlite/app"

	"github.com/canonical/sqlfetch"
)

type Server struct {
	ID      int    `db:"id"`
	Address string `db:"address"`
	Role    string `db:"role"`
}

// demo runs the fetch layer against a single-node dqlite database.
func demo() error {
	dir, err := os.MkdirTemp("", "sqlfetch-demo")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	dqlite, err := app.New(dir, app.WithAddress("127.0.0.1:9001"))
	if err != nil {
		return err
	}
	defer dqlite.Close()

	ctx := context.Background()
	if err := dqlite.Ready(ctx); err != nil {
		return err
	}

	sqldb, err := dqlite.Open(ctx, "demo")
	if err != nil {
		return err
	}
	defer sqldb.Close()

	_, err = sqldb.Exec(`
		CREATE TABLE IF NOT EXISTS server (
			id integer,
			address text,
			role text
		)`)
	if err != nil {
		return err
	}
	_, err = sqldb.Exec(`INSERT INTO server VALUES (1, '10.0.0.1:9001', 'voter'), (2, '10.0.0.2:9001', 'spare')`)
	if err != nil {
		return err
	}

	db := sqlfetch.NewDB(sqldb)

	servers, err := sqlfetch.AllAs[Server](ctx, db.Query("SELECT id, address, role FROM server ORDER BY id"))
	if err != nil {
		return err
	}
	for _, s := range servers {
		fmt.Printf("server %d at %s is a %s\n", s.ID, s.Address, s.Role)
	}

	leader, ok, err := sqlfetch.FirstAs[Server](ctx, db.Query("SELECT id, address, role FROM server WHERE role = 'voter'"))
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("voter: %s\n", leader.Address)
	}

	return nil
}
