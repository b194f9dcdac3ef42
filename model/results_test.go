package model

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-scene-catalog/schema"
)

// General test mocks and utils

var mockPolygon = orb.Polygon{orb.Ring{{30, 10}, {40, 40}, {20, 40}, {10, 20}, {30, 10}}}

var mockRow = schema.Row{
	"scene":        "/data/S1A_IW_GRDH_1SDV_20150222T170750_20150222T170815_004739_005DD8_3768.zip",
	"outname_base": "S1A__IW___A_20150222T170750",
	"samples":      int64(25000),
	"bbox":         "SRID=4326;POLYGON((10 10,40 10,40 40,10 40,10 10))",
	"geometry":     EWKT(mockPolygon),
}

func assertFeatureContainsRow(t *testing.T, feature *geojson.Feature) {
	assert.Equal(t, mockRow["scene"], feature.ID)
	assert.Equal(t, "S1A__IW___A_20150222T170750", feature.Properties.MustString("outname_base"))
	assert.Equal(t, schema.Sentinel1Table, feature.Properties.MustString("table"))
	assert.Equal(t, int64(25000), feature.Properties["samples"])
	_, hasGeometryProperty := feature.Properties["geometry"]
	assert.False(t, hasGeometryProperty)
}

// Actual tests

func TestCatalogResult_GeoJSONFeature(t *testing.T) {
	// Mock
	result, err := NewCatalogResult(schema.Sentinel1, mockRow)
	assert.Nil(t, err)

	// Tested code
	feature, err := result.GeoJSONFeature()

	// Asserts
	assert.Nil(t, err)
	assert.NotNil(t, feature)
	assertFeatureContainsRow(t, feature)
	assert.Equal(t, orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{40, 40}}, feature.BBox.Bound())
	assert.Equal(t, "Polygon", feature.Geometry.GeoJSONType())
}

func TestNewCatalogResult_BadGeometry(t *testing.T) {
	_, err := NewCatalogResult(schema.Sentinel1, schema.Row{"scene": "a", "bbox": "SRID=4326;NOT WKT"})

	assert.NotNil(t, err)
}

func TestDuplicatedCatalogResult_GeoJSONFeature(t *testing.T) {
	// Mock
	base, _ := NewCatalogResult(schema.Sentinel1, mockRow)
	result := DuplicatedCatalogResult{
		CatalogResult:   base,
		DuplicateCopies: &DuplicateCopies{Scenes: []string{"/b/copy.zip", "/a/copy.zip"}},
	}

	// Tested code
	feature, err := result.GeoJSONFeature()

	// Asserts
	assert.Nil(t, err)
	assertFeatureContainsRow(t, feature)
	assert.Equal(t, []string{"/a/copy.zip", "/b/copy.zip"}, feature.Properties["duplicates"])
	assert.Equal(t, 2, feature.Properties.MustInt("duplicateCount"))
}

func TestDuplicatedCatalogResult_GeoJSONFeature_NoCopies(t *testing.T) {
	base, _ := NewCatalogResult(schema.Sentinel1, mockRow)
	result := DuplicatedCatalogResult{CatalogResult: base}

	feature, err := result.GeoJSONFeature()

	assert.Nil(t, err)
	_, ok := feature.Properties["duplicates"]
	assert.False(t, ok)
}

func TestMultiCatalogResult_GeoJSONFeatureCollection(t *testing.T) {
	// Mock
	single, _ := NewCatalogResult(schema.Sentinel1, mockRow)
	result := MultiCatalogResult{
		FeatureCreators: []GeoJSONFeatureCreator{single, single, single},
	}

	// Tested code
	fc, err := result.GeoJSONFeatureCollection()

	// Asserts
	assert.Nil(t, err)
	assert.NotNil(t, fc)
	assert.Len(t, fc.Features, 3)
	for _, feature := range fc.Features {
		assertFeatureContainsRow(t, feature)
	}
}
