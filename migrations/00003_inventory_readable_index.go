package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00003, Down00003)
}

// Up00003 speeds up the readable-scene selection of the inventory ingest
func Up00003(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_existings1_readable
		ON public.existings1 (scene) WHERE read_permission = 1;

		CREATE INDEX IF NOT EXISTS idx_existings2_readable
		ON public.existings2 (scene) WHERE read_permission = 1;
		`)
	return err
}

// Down00003 undoes the effects of Up00003
func Down00003(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP INDEX IF EXISTS public.idx_existings1_readable;
		DROP INDEX IF EXISTS public.idx_existings2_readable;
		`)
	return err
}
