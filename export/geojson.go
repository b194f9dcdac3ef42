package export

import (
	"io"

	"github.com/paulmach/orb/geojson"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/schema"
)

// mixedResult is a feature creator decorated with any number of mixins
type mixedResult struct {
	creator model.GeoJSONFeatureCreator
	mixins  []model.GeoJSONFeatureMixin
}

func (m mixedResult) GeoJSONFeature() (*geojson.Feature, error) {
	feature, err := m.creator.GeoJSONFeature()
	if err != nil {
		return nil, err
	}
	for _, mixin := range m.mixins {
		if err = mixin.Apply(feature); err != nil {
			return nil, err
		}
	}
	return feature, nil
}

func familyOfTable(table string) (model.Family, bool) {
	for _, f := range model.Families {
		if f.PrimaryTable() == table {
			return f, true
		}
	}
	return "", false
}

// FeatureCollection queries table and turns the rows into GeoJSON features.
// Rows of a primary table carry their duplicate copies and inventory state.
func (x *Exporter) FeatureCollection(table string, preds []catalog.Predicate, area *catalog.SpatialFilter) (*geojson.FeatureCollection, error) {
	desc, err := x.store.Registry().Table(table)
	if err != nil {
		return nil, err
	}
	rows, err := x.store.Query(table, nil, preds, area)
	if err != nil {
		return nil, err
	}

	results := make([]model.CatalogResult, 0, len(rows))
	bases := []interface{}{}
	scenes := []interface{}{}
	for _, row := range rows {
		result, err := model.NewCatalogResult(desc, row)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
		if base, ok := row["outname_base"].(string); ok {
			bases = append(bases, base)
		}
		scenes = append(scenes, result.Scene)
	}

	copies := map[string][]string{}
	inventory := map[string]model.InventoryRecord{}
	family, primary := familyOfTable(table)
	if primary && len(results) > 0 {
		if len(bases) > 0 {
			dups, err := x.store.Query(schema.DuplicatesTable, []string{"scene", "outname_base"}, []catalog.Predicate{catalog.In("outname_base", bases...)}, nil)
			if err != nil {
				return nil, err
			}
			for _, row := range dups {
				base, _ := row["outname_base"].(string)
				scene, _ := row["scene"].(string)
				copies[base] = append(copies[base], scene)
			}
		}
		inv, err := x.store.Query(family.InventoryTable(), nil, []catalog.Predicate{catalog.In("scene", scenes...)}, nil)
		if err != nil {
			return nil, err
		}
		for _, row := range inv {
			if rec, err := model.InventoryRecordFromRow(family, row); err == nil {
				inventory[rec.Scene] = rec
			}
		}
	}

	multi := model.MultiCatalogResult{FeatureCreators: make([]model.GeoJSONFeatureCreator, 0, len(results))}
	for _, result := range results {
		if !primary {
			multi.FeatureCreators = append(multi.FeatureCreators, result)
			continue
		}
		base, _ := result.Columns["outname_base"].(string)
		mixed := mixedResult{creator: model.DuplicatedCatalogResult{
			CatalogResult:   result,
			DuplicateCopies: &model.DuplicateCopies{Scenes: copies[base]},
		}}
		if rec, ok := inventory[result.Scene]; ok {
			mixed.mixins = append(mixed.mixins, rec.Status())
		}
		multi.FeatureCreators = append(multi.FeatureCreators, mixed)
	}
	return multi.GeoJSONFeatureCollection()
}

// GeoJSON writes the FeatureCollection of table to w
func (x *Exporter) GeoJSON(table string, preds []catalog.Predicate, area *catalog.SpatialFilter, w io.Writer) error {
	fc, err := x.FeatureCollection(table, preds, area)
	if err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
