package model

import (
	"sort"

	"github.com/paulmach/orb/geojson"
)

// DuplicateCopies is a mixin listing the other archives that share a scene's outname_base
type DuplicateCopies struct {
	Scenes []string
}

// Apply implements the GeoJSONFeatureMixin interface
func (dc DuplicateCopies) Apply(feature *geojson.Feature) error {
	scenes := append([]string{}, dc.Scenes...)
	sort.Strings(scenes)
	feature.Properties["duplicates"] = scenes
	feature.Properties["duplicateCount"] = len(scenes)
	return nil
}

// InventoryStatus is a mixin carrying the on-disk state of a scene
type InventoryStatus struct {
	ReadPermission bool
	FileSizeMB     int
	Owner          string
}

// Apply implements the GeoJSONFeatureMixin interface
func (is InventoryStatus) Apply(feature *geojson.Feature) error {
	feature.Properties["read_permission"] = is.ReadPermission
	feature.Properties["file_size_mb"] = is.FileSizeMB
	feature.Properties["owner"] = is.Owner
	return nil
}

// Status returns the inventory state of the record as a mixin
func (r InventoryRecord) Status() InventoryStatus {
	return InventoryStatus{ReadPermission: r.ReadPermission, FileSizeMB: r.FileSizeMB, Owner: r.Owner}
}
