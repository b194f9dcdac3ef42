package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

type fakeCatalog struct {
	present []string
	rows    map[string][]schema.Row
}

func (c *fakeCatalog) TableNames(includeSystem bool) ([]string, error) {
	return c.present, nil
}

func (c *fakeCatalog) Registry() *schema.Registry {
	return schema.Default()
}

func (c *fakeCatalog) Query(table string, columns []string, preds []catalog.Predicate, area *catalog.SpatialFilter) ([]schema.Row, error) {
	out := []schema.Row{}
	for _, row := range c.rows[table] {
		keep := true
		for _, p := range preds {
			hit := false
			for _, v := range p.Values {
				hit = hit || fmt.Sprint(row[p.Column]) == fmt.Sprint(v)
			}
			keep = keep && hit
		}
		if !keep {
			continue
		}
		if len(columns) == 0 {
			out = append(out, row)
			continue
		}
		projected := schema.Row{}
		for _, col := range columns {
			projected[col] = row[col]
		}
		out = append(out, projected)
	}
	return out, nil
}

var testDB = util.DBConfig{Host: "db", Port: "5432", User: "scenes", Password: "secret", Name: "catalog"}

func stubCommand(t *testing.T, output string, err error) *[]string {
	called := []string{}
	old := runCommand
	t.Cleanup(func() { runCommand = old })
	runCommand = func(name string, args ...string) ([]byte, error) {
		called = append([]string{name}, args...)
		return []byte(output), err
	}
	return &called
}

func TestShapefile(t *testing.T) {
	// Mock
	called := stubCommand(t, "", nil)
	t.Setenv(util.OGR2OGR_PATH, "/opt/gdal/bin/ogr2ogr")
	x := NewExporter(&fakeCatalog{present: []string{schema.Sentinel1Table}}, testDB)
	dest := filepath.Join(t.TempDir(), "nested", "s1")

	// Tested code
	written, err := x.Shapefile(schema.Sentinel1Table, dest)

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, dest+".shp", written)
	assert.DirExists(t, filepath.Dir(dest))
	assert.Equal(t, []string{
		"/opt/gdal/bin/ogr2ogr", "-f", "ESRI Shapefile", dest + ".shp",
		"PG:host=db port=5432 user=scenes dbname=catalog password=secret active_schema=public",
		schema.Sentinel1Table,
	}, *called)
}

func TestShapefile_MissingTable(t *testing.T) {
	called := stubCommand(t, "", nil)
	x := NewExporter(&fakeCatalog{present: []string{schema.Sentinel1Table}}, testDB)

	_, err := x.Shapefile(schema.Sentinel2Table, filepath.Join(t.TempDir(), "s2.shp"))

	assert.True(t, errors.Is(err, util.ErrExport))
	assert.Empty(t, *called)
}

func TestShapefile_CommandFails(t *testing.T) {
	stubCommand(t, "FAILURE: unable to open datasource", errors.New("exit status 1"))
	x := NewExporter(&fakeCatalog{present: []string{schema.DuplicatesTable}}, testDB)

	_, err := x.Shapefile(schema.DuplicatesTable, filepath.Join(t.TempDir(), "dups.shp"))

	assert.True(t, errors.Is(err, util.ErrExport))
}

func TestCountScenes(t *testing.T) {
	// Mock
	store := &fakeCatalog{rows: map[string][]schema.Row{
		schema.Sentinel1Table: {
			{"scene": "/a/x.zip", "outname_base": "A"},
			{"scene": "/a/y.zip", "outname_base": "C"},
		},
		schema.DuplicatesTable: {
			{"scene": "/b/x.zip", "outname_base": "A"},
			{"scene": "/c/x.zip", "outname_base": "A"},
			{"scene": "/b/z.zip", "outname_base": "Z"},
		},
	}}
	x := NewExporter(store, testDB)

	// Tested code
	counts, err := x.CountScenes(schema.Sentinel1Table)

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, []SceneCount{{OutnameBase: "A", Count: 3}, {OutnameBase: "C", Count: 1}}, counts)
}

func TestGeoJSON(t *testing.T) {
	// Mock
	store := &fakeCatalog{rows: map[string][]schema.Row{
		schema.Sentinel2Table: {{
			"scene":            "/a/S2B.zip",
			"outname_base":     "S2B",
			"processing_level": "Level-2A",
			"footprint":        "SRID=4326;POLYGON((10 50,11 50,11 51,10 51,10 50))",
		}},
		schema.DuplicatesTable: {{"scene": "/b/S2B.zip", "outname_base": "S2B"}},
		schema.ExistingS2Table: {{"scene": "/a/S2B.zip", "outname_base": "S2B", "read_permission": 1, "file_size_mb": 812, "owner": "1000"}},
	}}
	x := NewExporter(store, testDB)
	var buf bytes.Buffer

	// Tested code
	err := x.GeoJSON(schema.Sentinel2Table, []catalog.Predicate{catalog.Equals("processing_level", "Level-2A")}, nil, &buf)

	// Asserts
	assert.Nil(t, err)
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string                 `json:"id"`
			Geometry   map[string]interface{} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	assert.Nil(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, "/a/S2B.zip", f.ID)
	assert.Equal(t, "Polygon", f.Geometry["type"])
	assert.Equal(t, "Level-2A", f.Properties["processing_level"])
	assert.Equal(t, schema.Sentinel2Table, f.Properties["table"])
	assert.Equal(t, []interface{}{"/b/S2B.zip"}, f.Properties["duplicates"])
	assert.Equal(t, float64(1), f.Properties["duplicateCount"])
	assert.Equal(t, true, f.Properties["read_permission"])
	assert.Equal(t, float64(812), f.Properties["file_size_mb"])
	assert.Nil(t, f.Properties["footprint"])
}

func TestGeoJSON_UnknownTable(t *testing.T) {
	x := NewExporter(&fakeCatalog{}, testDB)

	err := x.GeoJSON("landsat", nil, nil, &bytes.Buffer{})

	assert.True(t, errors.Is(err, util.ErrSchema))
}
