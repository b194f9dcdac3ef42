package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/export"
	"github.com/venicegeo/bf-scene-catalog/ingest"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/scene"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/sweep"
	"github.com/venicegeo/bf-scene-catalog/util"
)

var stdout io.Writer = os.Stdout

func exitErr(ctx util.LogContext, message string, err error) error {
	return cli.NewExitError(util.LogSimpleErr(ctx, message, err).Error(), 1)
}

func newEngine(store *catalog.Store) *ingest.Engine {
	return ingest.NewEngine(store, scene.NewIdentifier(store.Registry()))
}

func ingestOptions(c *cli.Context) ingest.Options {
	return ingest.Options{
		Update:  c.Bool("update"),
		Verbose: c.Bool("verbose"),
		DryRun:  c.Bool("dry-run"),
	}
}

//familiesFlag resolves the --family flag; "all" means every family
func familiesFlag(c *cli.Context) ([]model.Family, error) {
	name := c.String("family")
	if name == "" || strings.EqualFold(name, "all") {
		return model.Families, nil
	}
	family, ok := model.ParseFamily(name)
	if !ok {
		return nil, errors.Wrapf(util.ErrParse, "unknown family %q", name)
	}
	return []model.Family{family}, nil
}

//expandPaths replaces each directory argument with the scene archives it holds
func expandPaths(args []string, recursive bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrap(util.ErrIOFailure, err.Error())
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := sweep.FindScenes(arg, recursive)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func versionAction(*cli.Context) error {
	fmt.Fprintln(stdout, "bf-scene-catalog version "+version)
	return nil
}

func sweepAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	root := c.Args().First()
	if root == "" {
		root = util.GetSceneRoot()
	}
	families, err := familiesFlag(c)
	if err != nil {
		return exitErr(ctx, "Bad arguments: ", err)
	}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	engine := newEngine(store)
	for _, family := range families {
		result, err := engine.RefreshInventory(root, family, c.Bool("recursive"))
		if err != nil {
			return exitErr(ctx, "Sweep failed: ", err)
		}
		fmt.Fprintf(stdout, "%s: %d archives\n", family.InventoryTable(), result.Inserted+result.Updated)
	}
	return nil
}

func ingestAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	if c.NArg() == 0 {
		return cli.NewExitError("No scene paths given", 1)
	}
	paths, err := expandPaths(c.Args(), c.Bool("recursive"))
	if err != nil {
		return exitErr(ctx, "Could not list scenes: ", err)
	}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	report, err := newEngine(store).Ingest(paths, ingestOptions(c))
	if err != nil {
		return exitErr(ctx, "Ingest failed: ", err)
	}
	fmt.Fprintln(stdout, report.String())
	return nil
}

func ingestInventoryAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	families, err := familiesFlag(c)
	if err != nil {
		return exitErr(ctx, "Bad arguments: ", err)
	}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	engine := newEngine(store)
	for _, family := range families {
		report, err := engine.IngestFromInventory(family, ingestOptions(c))
		if err != nil {
			return exitErr(ctx, "Ingest failed: ", err)
		}
		fmt.Fprintln(stdout, report.String())
	}
	return nil
}

func importCSVAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	file, err := os.Open(c.Args().First())
	if err != nil {
		return exitErr(ctx, "Could not open CSV: ", err)
	}
	defer file.Close()
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	report, err := newEngine(store).ImportCSV(file, ingestOptions(c))
	if err != nil {
		return exitErr(ctx, "Import failed: ", err)
	}
	fmt.Fprintln(stdout, report.String())
	return nil
}

func cleanupAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	report, err := newEngine(store).Cleanup(c.Args()...)
	if err != nil {
		return exitErr(ctx, "Cleanup failed: ", err)
	}
	tables := make([]string, 0, len(report.Removed))
	for table := range report.Removed {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Fprintf(stdout, "%s: removed %d\n", table, report.Removed[table])
	}
	for _, promoted := range report.Promoted {
		fmt.Fprintf(stdout, "promoted %s\n", promoted)
	}
	return nil
}

func newExporter(ctx util.LogContext, store *catalog.Store) (*export.Exporter, error) {
	cfg, err := getDBConfig(ctx)
	if err != nil {
		return nil, err
	}
	return export.NewExporter(store, cfg), nil
}

func exportAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	table, out := c.String("table"), c.String("out")
	if table == "" || out == "" {
		return cli.NewExitError("--table and --out are required", 1)
	}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()
	exporter, err := newExporter(ctx, store)
	if err != nil {
		return exitErr(ctx, "Could not configure export: ", err)
	}

	if c.Bool("geojson") {
		file, err := os.Create(out)
		if err != nil {
			return exitErr(ctx, "Could not create output: ", err)
		}
		defer file.Close()
		if err = exporter.GeoJSON(table, nil, nil, file); err != nil {
			return exitErr(ctx, "Export failed: ", err)
		}
		fmt.Fprintln(stdout, out)
		return nil
	}

	written, err := exporter.Shapefile(table, out)
	if err != nil {
		return exitErr(ctx, "Export failed: ", err)
	}
	fmt.Fprintln(stdout, written)
	return nil
}

func countAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()
	exporter, err := newExporter(ctx, store)
	if err != nil {
		return exitErr(ctx, "Could not configure export: ", err)
	}

	counts, err := exporter.CountScenes(c.String("table"))
	if err != nil {
		return exitErr(ctx, "Count failed: ", err)
	}
	for _, count := range counts {
		fmt.Fprintf(stdout, "%s\t%d\n", count.OutnameBase, count.Count)
	}
	return nil
}

//parsePredicates turns repeated column=value flags into predicates; values
//for the same column are ORed
func parsePredicates(conditions []string) ([]catalog.Predicate, error) {
	byColumn := map[string][]interface{}{}
	var order []string
	for _, cond := range conditions {
		parts := strings.SplitN(cond, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, errors.Wrapf(util.ErrParse, "condition %q is not column=value", cond)
		}
		if _, ok := byColumn[parts[0]]; !ok {
			order = append(order, parts[0])
		}
		byColumn[parts[0]] = append(byColumn[parts[0]], parts[1])
	}
	preds := make([]catalog.Predicate, 0, len(order))
	for _, column := range order {
		preds = append(preds, catalog.In(column, byColumn[column]...))
	}
	return preds, nil
}

// scenePredicates combines the column=value conditions with the acquisition
// window and the required polarizations
func scenePredicates(where []string, mindate string, maxdate string, pols []string) ([]catalog.Predicate, error) {
	preds, err := parsePredicates(where)
	if err != nil {
		return nil, err
	}
	window, err := catalog.DateRange(mindate, maxdate)
	if err != nil {
		return nil, err
	}
	polarized, err := catalog.Polarizations(pols...)
	if err != nil {
		return nil, err
	}
	return append(append(preds, window...), polarized...), nil
}

// filterUnprocessed drops the rows whose outname base already names a
// product under processdir
func filterUnprocessed(rows []schema.Row, processdir string, recursive bool) ([]schema.Row, error) {
	bases := make([]string, 0, len(rows))
	for _, row := range rows {
		bases = append(bases, fmt.Sprint(row["outname_base"]))
	}
	pending, err := sweep.Unprocessed(processdir, recursive, bases)
	if err != nil {
		return nil, err
	}
	keep := map[string]bool{}
	for _, base := range pending {
		keep[base] = true
	}
	kept := []schema.Row{}
	for _, row := range rows {
		if keep[fmt.Sprint(row["outname_base"])] {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func queryAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	preds, err := scenePredicates(c.StringSlice("where"), c.String("mindate"), c.String("maxdate"), c.StringSlice("polarization"))
	if err != nil {
		return exitErr(ctx, "Bad arguments: ", err)
	}
	var area *catalog.SpatialFilter
	if wkt := c.String("wkt"); wkt != "" {
		area = &catalog.SpatialFilter{WKT: wkt, SRID: c.Int("srid")}
	}
	columns := c.StringSlice("column")
	processdir := c.String("processdir")
	if processdir != "" && len(columns) > 0 && !slices.Contains(columns, "outname_base") {
		columns = append(columns, "outname_base")
	}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	rows, err := store.Query(c.String("table"), columns, preds, area)
	if err != nil {
		return exitErr(ctx, "Query failed: ", err)
	}
	if processdir != "" {
		if rows, err = filterUnprocessed(rows, processdir, c.Bool("recursive")); err != nil {
			return exitErr(ctx, "Could not scan processing directory: ", err)
		}
	}
	encoder := json.NewEncoder(stdout)
	for _, row := range rows {
		if err = encoder.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func moveAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	if c.String("to") == "" || c.NArg() == 0 {
		return cli.NewExitError("--to and at least one scene are required", 1)
	}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	report, err := newEngine(store).Move(c.Args(), c.String("to"))
	if err != nil {
		return exitErr(ctx, "Move failed: ", err)
	}
	fmt.Fprintf(stdout, "Moved:%d Conflicts:%d Failed:%d\n", len(report.Moved), len(report.Conflicts), len(report.Failed))
	for _, e := range report.Errors {
		fmt.Fprintln(stdout, e)
	}
	return nil
}

func dropAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	if c.String("table") == "" || c.NArg() != 1 {
		return cli.NewExitError("--table and exactly one scene are required", 1)
	}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	dropped, err := newEngine(store).DropElement(c.String("table"), c.Args().First(), c.Bool("with-duplicates"))
	if err != nil {
		return exitErr(ctx, "Drop failed: ", err)
	}
	if !dropped {
		fmt.Fprintln(stdout, "Scene not found")
		return nil
	}
	fmt.Fprintln(stdout, "Dropped "+c.Args().First())
	return nil
}

func tablesAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	if table := c.Args().First(); table != "" {
		return describeTable(c, store, table)
	}
	if c.Bool("all") {
		names, err := store.TableNames(true)
		if err != nil {
			return exitErr(ctx, "Could not list tables: ", err)
		}
		fmt.Fprintln(stdout, strings.Join(names, "\n"))
		return nil
	}

	sizes, err := store.Size()
	if err != nil {
		return exitErr(ctx, "Could not size tables: ", err)
	}
	printCounts(sizes)
	return nil
}

func printCounts[V int | int64](counts map[string]V) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(stdout, "%s\t%d\n", key, counts[key])
	}
}

//describeTable prints the columns and key of one table, or the --dirs and
//--count-by views of it
func describeTable(c *cli.Context, store *catalog.Store, table string) error {
	ctx := &util.BasicLogContext{}
	if c.Bool("dirs") {
		dirs, err := store.UniqueDirectories(table)
		if err != nil {
			return exitErr(ctx, "Could not list directories: ", err)
		}
		fmt.Fprintln(stdout, strings.Join(dirs, "\n"))
		return nil
	}
	if column := c.String("count-by"); column != "" {
		counts, err := store.CountBy(table, column)
		if err != nil {
			return exitErr(ctx, "Could not count: ", err)
		}
		printCounts(counts)
		return nil
	}

	columns, err := store.ColumnNames(table)
	if err != nil {
		return exitErr(ctx, "Could not describe table: ", err)
	}
	keys, err := store.PrimaryKeys(table)
	if err != nil {
		return exitErr(ctx, "Could not describe table: ", err)
	}
	fmt.Fprintf(stdout, "columns:\t%s\nprimary key:\t%s\n", strings.Join(columns, ", "), strings.Join(keys, ", "))
	return nil
}

func dropTableAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	if c.NArg() != 1 {
		return cli.NewExitError("Exactly one table is required", 1)
	}
	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	defer store.DB().Close()

	if err = store.DropTable(c.Args().First()); err != nil {
		return exitErr(ctx, "Drop failed: ", err)
	}
	return nil
}
