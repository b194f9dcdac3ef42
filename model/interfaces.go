package model

import (
	"github.com/paulmach/orb/geojson"
	"github.com/venicegeo/bf-scene-catalog/schema"
)

// Record is a typed catalog row that knows which table it belongs to
type Record interface {
	TableName() string
	ScenePath() string
	Outname() string
	Row() schema.Row
}

// GeoJSONFeatureCreator is an interface for data that can convert itself to a GeoJSON feature
type GeoJSONFeatureCreator interface {
	GeoJSONFeature() (*geojson.Feature, error)
}

// GeoJSONFeatureCollectionCreator is an interface for data that can convert itself to a GeoJSON feature collection
type GeoJSONFeatureCollectionCreator interface {
	GeoJSONFeatureCollection() (*geojson.FeatureCollection, error)
}

// GeoJSONFeatureMixin is an interface for data that can be used to augment an existing GeoJSON feature
type GeoJSONFeatureMixin interface {
	Apply(*geojson.Feature) error
}
