package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// fakeCatalog keeps every table in memory, keyed by scene
type fakeCatalog struct {
	tables     map[string]map[string]schema.Row
	maintained []string
	// failWrites makes every InsertOrReject row of these tables fail
	failWrites map[string]bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{tables: map[string]map[string]schema.Row{}}
}

func (c *fakeCatalog) table(name string) map[string]schema.Row {
	if c.tables[name] == nil {
		c.tables[name] = map[string]schema.Row{}
	}
	return c.tables[name]
}

func (c *fakeCatalog) scenes(name string) []string {
	scenes := []string{}
	for scene := range c.tables[name] {
		scenes = append(scenes, scene)
	}
	sort.Strings(scenes)
	return scenes
}

func (c *fakeCatalog) Exists(table string, key schema.Row) (bool, error) {
	_, ok := c.table(table)[key["scene"].(string)]
	return ok, nil
}

func (c *fakeCatalog) InsertOrReject(table string, rows []schema.Row, update bool) (catalog.InsertResult, error) {
	result := catalog.InsertResult{}
	if c.failWrites[table] {
		result.Failed = len(rows)
		return result, nil
	}
	t := c.table(table)
	for _, row := range rows {
		scene, ok := row["scene"].(string)
		if !ok {
			result.Failed++
			continue
		}
		if _, exists := t[scene]; exists {
			if update {
				t[scene] = row
				result.Updated++
			} else {
				result.Rejected++
			}
			continue
		}
		t[scene] = row
		result.Inserted++
	}
	return result, nil
}

func matches(row schema.Row, preds []catalog.Predicate) bool {
	for _, p := range preds {
		hit := false
		for _, v := range p.Values {
			if fmt.Sprint(row[p.Column]) == fmt.Sprint(v) {
				hit = true
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (c *fakeCatalog) Query(table string, columns []string, preds []catalog.Predicate, area *catalog.SpatialFilter) ([]schema.Row, error) {
	rows := []schema.Row{}
	for _, scene := range c.scenes(table) {
		row := c.tables[table][scene]
		if !matches(row, preds) {
			continue
		}
		out := schema.Row{}
		for _, col := range columns {
			out[col] = row[col]
		}
		rows = append(rows, out)
	}
	return rows, nil
}

func (c *fakeCatalog) DeleteWhere(table string, preds ...catalog.Predicate) (int64, error) {
	var n int64
	t := c.table(table)
	for scene, row := range t {
		if matches(row, preds) {
			delete(t, scene)
			n++
		}
	}
	return n, nil
}

func (c *fakeCatalog) Replace(table string, rows []schema.Row) (catalog.InsertResult, error) {
	c.tables[table] = map[string]schema.Row{}
	return c.InsertOrReject(table, rows, false)
}

func (c *fakeCatalog) Maintain(tables ...string) error {
	c.maintained = append(c.maintained, tables...)
	return nil
}

func (c *fakeCatalog) UpdateScenePath(table string, oldPath string, newPath string) (int64, error) {
	t := c.table(table)
	row, ok := t[oldPath]
	if !ok {
		return 0, nil
	}
	delete(t, oldPath)
	row["scene"] = newPath
	t[newPath] = row
	return 1, nil
}

// fakeIdentifier serves prepared records by path
type fakeIdentifier map[string]model.Record

func (f fakeIdentifier) Identify(path string) (model.Record, error) {
	rec, ok := f[path]
	if !ok {
		return nil, errors.Wrapf(util.ErrParse, "unrecognized scene %s", path)
	}
	return rec, nil
}

func s2Record(path string, base string, level string) model.Sentinel2Record {
	return model.Sentinel2Record{
		Scene:       path,
		OutnameBase: base,
		Metadata:    schema.Row{"processing_level": level},
	}
}

func writeFile(t *testing.T, path string) string {
	assert.Nil(t, os.MkdirAll(filepath.Dir(path), 0755))
	assert.Nil(t, os.WriteFile(path, []byte("scene"), 0644))
	return path
}
