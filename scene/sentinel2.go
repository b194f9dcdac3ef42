package scene

import (
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

var sentinel2MetadataFiles = []string{"MTD_MSIL2A.xml", "MTD_MSIL1C.xml"}

func readSentinel2Metadata(fsys fs.FS, stem string) (Metadata, error) {
	for _, name := range sentinel2MetadataFiles {
		if _, err := fs.Stat(fsys, stem+".SAFE/"+name); err == nil {
			return readMetadata(fsys, stem+".SAFE/"+name)
		}
	}
	// Renamed archives keep their original .SAFE directory name
	found, err := findFiles(fsys, func(name string) bool {
		base := path.Base(name)
		return (base == sentinel2MetadataFiles[0] || base == sentinel2MetadataFiles[1]) &&
			strings.Count(name, "/") <= 1
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.Wrap(util.ErrParse, "archive has no MTD_MSIL2A.xml or MTD_MSIL1C.xml")
	}
	return readMetadata(fsys, found[0])
}

// CoerceValue converts a metadata string to the Go value stored in a column of type t
func CoerceValue(value string, t schema.ColumnType) (interface{}, error) {
	value = strings.TrimSpace(value)
	switch t {
	case schema.Integer:
		i, err := strconv.Atoi(strings.TrimSuffix(value, ".0"))
		if err != nil {
			return nil, errors.Wrapf(util.ErrParse, "not an integer: %q", value)
		}
		return i, nil
	case schema.Float:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Wrapf(util.ErrParse, "not a float: %q", value)
		}
		return f, nil
	case schema.Timestamp:
		return model.ParseSceneTime(value)
	case schema.Polygon:
		if strings.HasPrefix(strings.ToUpper(value), "SRID=") {
			return value, nil
		}
		return model.EWKTPrefix + value, nil
	default:
		return value, nil
	}
}

// CoerceMetadata maps metadata keys onto the columns of table: keys are
// lower-cased with spaces replaced by underscores, values converted to the
// column type. Keys without a matching column are dropped.
func CoerceMetadata(md Metadata, table schema.Table) (schema.Row, error) {
	row := schema.Row{}
	for key, values := range md {
		name := strings.ReplaceAll(strings.ToLower(key), " ", "_")
		col, ok := table.Column(name)
		if !ok || col.PrimaryKey || name == "outname_base" || len(values) == 0 {
			continue
		}
		v, err := CoerceValue(values[0], col.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", name)
		}
		row[name] = v
	}
	return row, nil
}

func identifySentinel2(scenePath string, fsys fs.FS, table schema.Table) (model.Sentinel2Record, error) {
	rec := model.Sentinel2Record{
		Scene:       scenePath,
		OutnameBase: model.Sentinel2OutnameBase(scenePath),
	}

	md, err := readSentinel2Metadata(fsys, rec.OutnameBase)
	if err != nil {
		return rec, err
	}

	if rec.Metadata, err = CoerceMetadata(md, table); err != nil {
		return rec, err
	}
	return rec, nil
}
