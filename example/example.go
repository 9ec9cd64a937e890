package example

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/sqlfetch"
)

type Person struct {
	Name     string `db:"name"`
	Height   int    `db:"height_cm"`
	HomeTown string `db:"home_town"`
}

type Place struct {
	Name       string `db:"town_name"`
	Population int    `db:"population"`
}

func example() error {
	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}

	_, err = sqldb.Exec(`
		CREATE TABLE people (
			name text,
			height_cm integer,
			home_town text
		);
		CREATE TABLE location (
			town_name text,
			population integer
		);`)
	if err != nil {
		return err
	}

	var people = []Person{{"Jim", 150, "Kabul"}, {"Saba", 162, "Berlin"}, {"Dave", 169, "Brasília"}, {"Sophie", 174, "Berlin"}, {"Kiri", 168, "Cape Town"}}
	var places = []Place{{"Kabul", 13000000}, {"Berlin", 3677472}, {"Brasília", 3039444}, {"Cape Town", 4710000}}

	for _, p := range people {
		_, err := sqldb.Exec("INSERT INTO people VALUES (?, ?, ?)", p.Name, p.Height, p.HomeTown)
		if err != nil {
			return err
		}
	}
	for _, pl := range places {
		_, err := sqldb.Exec("INSERT INTO location VALUES (?, ?)", pl.Name, pl.Population)
		if err != nil {
			return err
		}
	}

	ctx := context.Background()
	db := sqlfetch.NewDB(sqldb)

	// Find everyone taller than Saba.
	taller, err := sqlfetch.AllAs[Person](ctx, db.Query(`
		SELECT name, height_cm, home_town
		FROM people
		WHERE height_cm > ?`, 162))
	if err != nil {
		return err
	}
	for _, p := range taller {
		fmt.Printf("%s is %dcm tall\n", p.Name, p.Height)
	}

	// Fetch each tall person along with their home town, decoding both
	// from the same joined row.
	pairs, err := sqlfetch.AllAs2[Person, Place](ctx, db.Query(`
		SELECT p.name, p.height_cm, p.home_town, l.town_name, l.population
		FROM people AS p, location AS l
		WHERE p.home_town = l.town_name
		AND p.height_cm > ?`, 162))
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		fmt.Printf("%s lives in %s (population %d)\n", pair.A.Name, pair.B.Name, pair.B.Population)
	}

	// Stream the whole table, reporting decode problems per row without
	// stopping.
	err = sqlfetch.Stream(ctx, db.Query("SELECT name, height_cm, home_town FROM people"), func(p Person, err error) {
		if err != nil {
			fmt.Printf("skipping row: %v\n", err)
			return
		}
		fmt.Printf("saw %s\n", p.Name)
	})
	if err != nil {
		return err
	}

	return sqldb.Close()
}
