package model

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// Sentinel1Record is a cataloged SAR scene
type Sentinel1Record struct {
	Scene           string
	OutnameBase     string
	Sensor          string
	Orbit           string
	OrbitNumberAbs  int
	OrbitNumberRel  int
	CycleNumber     int
	FrameNumber     int
	AcquisitionMode string
	Start           string
	Stop            string
	Product         string
	Samples         int
	Lines           int
	HH, VV, HV, VH  bool
	BBox            orb.Polygon
	Geometry        orb.Polygon
}

// TableName implements Record
func (r Sentinel1Record) TableName() string { return schema.Sentinel1Table }

// ScenePath implements Record
func (r Sentinel1Record) ScenePath() string { return r.Scene }

// Outname implements Record
func (r Sentinel1Record) Outname() string { return r.OutnameBase }

// Row implements Record
func (r Sentinel1Record) Row() schema.Row {
	row := schema.Row{
		"sensor":           r.Sensor,
		"orbit":            r.Orbit,
		"orbitnumber_abs":  r.OrbitNumberAbs,
		"orbitnumber_rel":  r.OrbitNumberRel,
		"cyclenumber":      r.CycleNumber,
		"framenumber":      r.FrameNumber,
		"acquisition_mode": r.AcquisitionMode,
		"start":            r.Start,
		"stop":             r.Stop,
		"product":          r.Product,
		"samples":          r.Samples,
		"lines":            r.Lines,
		"outname_base":     r.OutnameBase,
		"scene":            r.Scene,
		"hh":               flag(r.HH),
		"vv":               flag(r.VV),
		"hv":               flag(r.HV),
		"vh":               flag(r.VH),
		"bbox":             nil,
		"geometry":         nil,
	}
	if len(r.BBox) > 0 {
		row["bbox"] = EWKT(r.BBox)
	}
	if len(r.Geometry) > 0 {
		row["geometry"] = EWKT(r.Geometry)
	}
	return row
}

// Sentinel1OutnameBase composes the canonical SAR basename, e.g. S1A__IW___A_20150222T170750
func Sentinel1OutnameBase(sensor, mode, orbit, start string) string {
	return fmt.Sprintf("%s_%s_%s_%s", padRight(sensor, 4), padRight(mode, 4), orbit, start)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat("_", width-len(s))
}

// Sentinel2Record is a cataloged optical scene; Metadata holds the coerced
// product metadata keyed by column name.
type Sentinel2Record struct {
	Scene       string
	OutnameBase string
	Metadata    schema.Row
}

// TableName implements Record
func (r Sentinel2Record) TableName() string { return schema.Sentinel2Table }

// ScenePath implements Record
func (r Sentinel2Record) ScenePath() string { return r.Scene }

// Outname implements Record
func (r Sentinel2Record) Outname() string { return r.OutnameBase }

// Row implements Record
func (r Sentinel2Record) Row() schema.Row {
	row := make(schema.Row, len(r.Metadata)+2)
	for k, v := range r.Metadata {
		row[k] = v
	}
	row["scene"] = r.Scene
	row["outname_base"] = r.OutnameBase
	return row
}

// Sentinel2OutnameBase is the archive file name without extension
func Sentinel2OutnameBase(path string) string {
	return OutnameBaseOf(path)
}

// OutnameBaseOf is the archive file name without extension. Inventory rows
// use it before the archive has been identified.
func OutnameBaseOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DuplicateRecord is a scene whose outname_base is cataloged under another path
type DuplicateRecord struct {
	Scene       string
	OutnameBase string
}

// TableName implements Record
func (r DuplicateRecord) TableName() string { return schema.DuplicatesTable }

// ScenePath implements Record
func (r DuplicateRecord) ScenePath() string { return r.Scene }

// Outname implements Record
func (r DuplicateRecord) Outname() string { return r.OutnameBase }

// Row implements Record
func (r DuplicateRecord) Row() schema.Row {
	return schema.Row{"scene": r.Scene, "outname_base": r.OutnameBase}
}

// InventoryRecord is the on-disk state of one archive as of the last sweep
type InventoryRecord struct {
	Family         Family
	Scene          string
	OutnameBase    string
	ReadPermission bool
	FileSizeMB     int
	Owner          string
}

// TableName implements Record
func (r InventoryRecord) TableName() string { return r.Family.InventoryTable() }

// ScenePath implements Record
func (r InventoryRecord) ScenePath() string { return r.Scene }

// Outname implements Record
func (r InventoryRecord) Outname() string { return r.OutnameBase }

// Row implements Record
func (r InventoryRecord) Row() schema.Row {
	return schema.Row{
		"scene":           r.Scene,
		"outname_base":    r.OutnameBase,
		"read_permission": flag(r.ReadPermission),
		"file_size_mb":    r.FileSizeMB,
		"owner":           r.Owner,
	}
}

// InventoryRecordFromRow maps a row of an inventory table back to a record
func InventoryRecordFromRow(family Family, row schema.Row) (InventoryRecord, error) {
	rec := InventoryRecord{Family: family}
	var err error
	if rec.Scene, err = stringValue(row, "scene"); err != nil {
		return rec, err
	}
	rec.OutnameBase, _ = stringValue(row, "outname_base")
	rec.Owner, _ = stringValue(row, "owner")
	perm, err := intValue(row, "read_permission")
	if err != nil {
		return rec, err
	}
	rec.ReadPermission = perm == 1
	if rec.FileSizeMB, err = intValue(row, "file_size_mb"); err != nil {
		return rec, err
	}
	return rec, nil
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stringValue(row schema.Row, key string) (string, error) {
	switch v := row[key].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", errors.Wrapf(util.ErrSchema, "column %s is empty", key)
	default:
		return fmt.Sprint(v), nil
	}
}

func intValue(row schema.Row, key string) (int, error) {
	switch v := row[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	case []byte:
		return strconv.Atoi(string(v))
	case nil:
		return 0, nil
	default:
		return 0, errors.Wrapf(util.ErrSchema, "column %s has non-integer value %v", key, v)
	}
}
