// Package export writes catalog tables out as shapefiles and GeoJSON and
// reports duplicate counts.
package export

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/metrics"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// Catalog is the read side of catalog.Store
type Catalog interface {
	TableNames(includeSystem bool) ([]string, error)
	Query(table string, columns []string, preds []catalog.Predicate, area *catalog.SpatialFilter) ([]schema.Row, error)
	Registry() *schema.Registry
}

var runCommand = func(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// Exporter reads from a catalog
type Exporter struct {
	store   Catalog
	db      util.DBConfig
	ogr2ogr string
	logCtx  util.LogContext
}

// NewExporter creates an Exporter; db describes the connection handed to ogr2ogr
func NewExporter(store Catalog, db util.DBConfig) *Exporter {
	return &Exporter{store: store, db: db, ogr2ogr: util.GetOgr2OgrPath(), logCtx: &util.BasicLogContext{}}
}

func (x *Exporter) present(table string) (bool, error) {
	names, err := x.store.TableNames(false)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == table {
			return true, nil
		}
	}
	return false, nil
}

// Shapefile writes table to destination with ogr2ogr and returns the path
// written. ".shp" is appended when missing and parent directories are
// created. Existing files of the same name are overwritten.
func (x *Exporter) Shapefile(table string, destination string) (string, error) {
	ok, err := x.present(table)
	if err != nil {
		return "", err
	}
	if !ok {
		metrics.Exports.WithLabelValues("rejected").Inc()
		return "", errors.Wrapf(util.ErrExport, "table %s is not present in the database", table)
	}

	if !strings.HasSuffix(destination, ".shp") {
		destination += ".shp"
	}
	if err = os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		metrics.Exports.WithLabelValues("failed").Inc()
		return "", errors.Wrapf(util.ErrExport, "creating %s: %v", filepath.Dir(destination), err)
	}

	output, err := runCommand(x.ogr2ogr, "-f", "ESRI Shapefile", destination, x.db.OGRDescriptor(), table)
	if err != nil {
		metrics.Exports.WithLabelValues("failed").Inc()
		return "", util.LogSimpleErr(x.logCtx,
			fmt.Sprintf("ogr2ogr export of %s failed: %s: ", table, strings.TrimSpace(string(output))),
			errors.Wrap(util.ErrExport, err.Error()))
	}
	metrics.Exports.WithLabelValues("ok").Inc()
	util.LogInfo(x.logCtx, fmt.Sprintf("Exported %s to %s", table, destination))
	return destination, nil
}

// SceneCount is the number of cataloged copies of one outname base
type SceneCount struct {
	OutnameBase string `json:"outname_base"`
	Count       int    `json:"count"`
}

// CountScenes groups table by outname base and adds the duplicates recorded
// for each base, sorted by base
func (x *Exporter) CountScenes(table string) ([]SceneCount, error) {
	rows, err := x.store.Query(table, []string{"outname_base"}, nil, nil)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, row := range rows {
		base, _ := row["outname_base"].(string)
		counts[base]++
	}

	if table != schema.DuplicatesTable && len(counts) > 0 {
		bases := make([]interface{}, 0, len(counts))
		for base := range counts {
			bases = append(bases, base)
		}
		dups, err := x.store.Query(schema.DuplicatesTable, []string{"outname_base"}, []catalog.Predicate{catalog.In("outname_base", bases...)}, nil)
		if err != nil {
			return nil, err
		}
		for _, row := range dups {
			base, _ := row["outname_base"].(string)
			counts[base]++
		}
	}

	result := make([]SceneCount, 0, len(counts))
	for base, n := range counts {
		result = append(result, SceneCount{OutnameBase: base, Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OutnameBase < result[j].OutnameBase })
	return result, nil
}
