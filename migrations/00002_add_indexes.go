package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00002, Down00002)
}

// Up00002 indexes the footprints for spatial queries and outname_base for
// the duplicate checks
func Up00002(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sentinel1data_geometry
		ON public.sentinel1data USING gist (geometry);

		CREATE INDEX IF NOT EXISTS idx_sentinel1data_bbox
		ON public.sentinel1data USING gist (bbox);

		CREATE INDEX IF NOT EXISTS idx_sentinel2data_footprint
		ON public.sentinel2data USING gist (footprint);

		CREATE INDEX IF NOT EXISTS idx_sentinel1data_outname_base
		ON public.sentinel1data (outname_base);

		CREATE INDEX IF NOT EXISTS idx_sentinel2data_outname_base
		ON public.sentinel2data (outname_base);

		CREATE INDEX IF NOT EXISTS idx_duplicates_outname_base
		ON public.duplicates (outname_base);
		`)
	return err
}

// Down00002 undoes the effects of Up00002
func Down00002(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP INDEX IF EXISTS public.idx_sentinel1data_geometry;
		DROP INDEX IF EXISTS public.idx_sentinel1data_bbox;
		DROP INDEX IF EXISTS public.idx_sentinel2data_footprint;
		DROP INDEX IF EXISTS public.idx_sentinel1data_outname_base;
		DROP INDEX IF EXISTS public.idx_sentinel2data_outname_base;
		DROP INDEX IF EXISTS public.idx_duplicates_outname_base;
		`)
	return err
}
