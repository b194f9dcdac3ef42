package model

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/venicegeo/bf-scene-catalog/schema"
)

// CatalogResult is one catalog row as a GeoJSON feature. Footprint becomes
// the feature geometry; every other column becomes a property.
type CatalogResult struct {
	Table     string
	Scene     string
	Footprint orb.Geometry
	Columns   schema.Row
}

// NewCatalogResult builds a result from a queried row, taking the footprint
// from the first non-empty geometry column.
func NewCatalogResult(table schema.Table, row schema.Row) (CatalogResult, error) {
	result := CatalogResult{Table: table.Name, Columns: schema.Row{}}
	geometryColumns := map[string]bool{}
	for _, name := range table.GeometryColumns() {
		geometryColumns[name] = true
		text, ok := row[name].(string)
		if !ok || text == "" || result.Footprint != nil {
			continue
		}
		geom, err := ParseEWKT(text)
		if err != nil {
			return result, err
		}
		result.Footprint = geom
	}
	for k, v := range row {
		if geometryColumns[k] {
			continue
		}
		result.Columns[k] = v
	}
	if scene, ok := row["scene"].(string); ok {
		result.Scene = scene
	}
	return result, nil
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (cr CatalogResult) GeoJSONFeature() (*geojson.Feature, error) {
	f := geojson.NewFeature(cr.Footprint)
	f.ID = cr.Scene
	for k, v := range cr.Columns {
		f.Properties[k] = v
	}
	f.Properties["table"] = cr.Table
	if cr.Footprint != nil {
		f.BBox = geojson.NewBBox(cr.Footprint.Bound())
	}
	return f, nil
}

// DuplicatedCatalogResult is a catalog result with the paths of its known copies
type DuplicatedCatalogResult struct {
	CatalogResult
	*DuplicateCopies
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (result DuplicatedCatalogResult) GeoJSONFeature() (*geojson.Feature, error) {
	feature, err := result.CatalogResult.GeoJSONFeature()
	if err != nil {
		return nil, err
	}

	if result.DuplicateCopies != nil {
		if err = result.DuplicateCopies.Apply(feature); err != nil {
			return nil, err
		}
	}

	return feature, nil
}

// MultiCatalogResult is a container type for bundling multiple results together
type MultiCatalogResult struct {
	FeatureCreators []GeoJSONFeatureCreator
}

// GeoJSONFeatureCollection implements the GeoJSONFeatureCollectionCreator interface
func (result MultiCatalogResult) GeoJSONFeatureCollection() (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, creator := range result.FeatureCreators {
		feature, err := creator.GeoJSONFeature()
		if err != nil {
			return nil, err
		}
		fc.Append(feature)
	}
	return fc, nil
}
