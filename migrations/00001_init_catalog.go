package migration

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pressly/goose"
	"github.com/venicegeo/bf-scene-catalog/schema"
)

func init() {
	goose.AddMigration(Up00001, Down00001)
}

//Up00001 enables PostGIS and creates the catalog tables
func Up00001(tx *sql.Tx) error {
	if _, err := tx.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`); err != nil {
		return err
	}
	registry := schema.Default()
	for _, name := range registry.Names() {
		table, err := registry.Table(name)
		if err != nil {
			return err
		}
		if _, err = tx.Exec(table.CreateSQL()); err != nil {
			return err
		}
	}
	return nil
}

//Down00001 drops the catalog tables. The extension stays.
func Down00001(tx *sql.Tx) error {
	for _, name := range schema.Default().Names() {
		if _, err := tx.Exec("DROP TABLE IF EXISTS public." + pq.QuoteIdentifier(name)); err != nil {
			return err
		}
	}
	return nil
}
