package ingest

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/metrics"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/sweep"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// CleanupReport lists what Cleanup changed
type CleanupReport struct {
	Removed  map[string]int
	Promoted []string
}

func onDisk(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && sweep.Readable(path)
}

// catalogTables lists the primary tables, duplicates and the inventories
func catalogTables() []string {
	tables := append(primaryTables(), schema.DuplicatesTable)
	for _, f := range model.Families {
		tables = append(tables, f.InventoryTable())
	}
	return tables
}

func isPrimary(table string) bool {
	for _, t := range primaryTables() {
		if t == table {
			return true
		}
	}
	return false
}

// cleanup order: duplicates, primaries, then everything else
func cleanupRank(table string) int {
	switch {
	case table == schema.DuplicatesTable:
		return 0
	case isPrimary(table):
		return 1
	default:
		return 2
	}
}

// Cleanup removes the rows of the given tables whose scene is no longer a
// readable file. With no tables it cleans the primary tables, duplicates and
// the inventories. A primary row that is removed hands its outname base over
// to the one duplicate left on disk, if there is exactly one.
func (e *Engine) Cleanup(tables ...string) (*CleanupReport, error) {
	if len(tables) == 0 {
		tables = catalogTables()
	}
	ordered := make([]string, 0, len(tables))
	for rank := 0; rank <= 2; rank++ {
		for _, t := range tables {
			if cleanupRank(t) == rank {
				ordered = append(ordered, t)
			}
		}
	}

	report := &CleanupReport{Removed: map[string]int{}, Promoted: []string{}}
	for _, table := range ordered {
		rows, err := e.store.Query(table, []string{"scene", "outname_base"}, nil, nil)
		if err != nil {
			return report, err
		}
		for _, row := range rows {
			scene, _ := row["scene"].(string)
			if onDisk(scene) {
				continue
			}
			util.LogInfo(e.logCtx, fmt.Sprintf("Removing missing scene %s from %s", scene, table))
			n, err := e.store.DeleteWhere(table, catalog.Equals("scene", scene))
			if err != nil {
				return report, util.LogSimpleErr(e.logCtx, fmt.Sprintf("Could not remove %s: ", scene), err)
			}
			report.Removed[table] += int(n)
			metrics.ScenesRemoved.WithLabelValues(table).Add(float64(n))

			if base, ok := row["outname_base"].(string); ok && isPrimary(table) {
				promoted, err := e.promoteDuplicate(base)
				if err != nil {
					return report, err
				}
				if promoted != "" {
					report.Promoted = append(report.Promoted, promoted)
				}
			}
		}
	}
	return report, nil
}

// promoteDuplicate moves the single on-disk duplicate of base into its
// primary table and returns its path. Nothing happens when there is no such
// duplicate or more than one.
func (e *Engine) promoteDuplicate(base string) (string, error) {
	rows, err := e.store.Query(schema.DuplicatesTable, []string{"scene"}, []catalog.Predicate{catalog.Equals("outname_base", base)}, nil)
	if err != nil {
		return "", err
	}
	candidates := []string{}
	for _, row := range rows {
		if scene, ok := row["scene"].(string); ok && onDisk(scene) {
			candidates = append(candidates, scene)
		}
	}
	if len(candidates) != 1 {
		return "", nil
	}

	scene := candidates[0]
	rec, err := e.identifier.Identify(scene)
	if err != nil {
		util.LogAlert(e.logCtx, fmt.Sprintf("Duplicate %s stays in %s: %v", scene, schema.DuplicatesTable, err))
		return "", nil
	}
	// the duplicate row goes only once the primary row is in place
	result, err := e.store.InsertOrReject(rec.TableName(), []schema.Row{rec.Row()}, false)
	if err != nil {
		return "", err
	}
	if result.Inserted != 1 {
		return "", util.LogSimpleErr(e.logCtx, fmt.Sprintf("Could not promote %s, it stays in %s: ", scene, schema.DuplicatesTable),
			errors.Wrapf(util.ErrSchema, "insert into %s: inserted=%d rejected=%d failed=%d", rec.TableName(), result.Inserted, result.Rejected, result.Failed))
	}
	if _, err = e.store.DeleteWhere(schema.DuplicatesTable, catalog.Equals("scene", scene)); err != nil {
		return "", err
	}
	util.LogInfo(e.logCtx, fmt.Sprintf("Moved %s from %s into %s", scene, schema.DuplicatesTable, rec.TableName()))
	return scene, nil
}

// DropElement removes scene from table. For a primary table the duplicates
// sharing its outname base are deleted too when withDuplicates is set;
// otherwise a single remaining duplicate takes its place. It reports whether
// the scene was cataloged.
func (e *Engine) DropElement(table string, scene string, withDuplicates bool) (bool, error) {
	rows, err := e.store.Query(table, []string{"outname_base"}, []catalog.Predicate{catalog.Equals("scene", scene)}, nil)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	if _, err = e.store.DeleteWhere(table, catalog.Equals("scene", scene)); err != nil {
		return false, err
	}
	message := fmt.Sprintf("Entry with scene %s was dropped from %s", scene, table)

	base, _ := rows[0]["outname_base"].(string)
	if !isPrimary(table) || base == "" {
		util.LogInfo(e.logCtx, message)
		return true, nil
	}

	if withDuplicates {
		n, err := e.store.DeleteWhere(schema.DuplicatesTable, catalog.Equals("outname_base", base))
		if err != nil {
			return true, err
		}
		util.LogInfo(e.logCtx, fmt.Sprintf("%s along with %d duplicates", message, n))
		return true, nil
	}

	promoted, err := e.promoteDuplicate(base)
	if err != nil {
		return true, err
	}
	if promoted != "" {
		message += fmt.Sprintf(" and %s was moved from %s into its place", promoted, schema.DuplicatesTable)
	}
	util.LogAudit(e.logCtx, util.LogAuditInput{Actor: "ingest", Action: "drop", Actee: scene, Message: message, Severity: util.NOTICE})
	return true, nil
}
