// Package scene turns Sentinel scene archives into catalog records.
package scene

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// Identifier reads scene archives against the column layouts of a registry
type Identifier struct {
	registry *schema.Registry
}

// NewIdentifier creates an Identifier; a nil registry means schema.Default()
func NewIdentifier(registry *schema.Registry) *Identifier {
	if registry == nil {
		registry = schema.Default()
	}
	return &Identifier{registry: registry}
}

// Identify determines the family of the archive at path and extracts its record.
// All failures wrap util.ErrParse.
func (id *Identifier) Identify(path string) (model.Record, error) {
	family, ok := model.FamilyOf(path)
	if !ok {
		return nil, errors.Wrapf(util.ErrParse, "unrecognized scene file name: %s", filepath.Base(path))
	}

	fsys, err := openArchive(path)
	if err != nil {
		return nil, err
	}

	switch family {
	case model.Sentinel2:
		table, err := id.registry.Table(family.PrimaryTable())
		if err != nil {
			return nil, err
		}
		rec, err := identifySentinel2(path, fsys, table)
		if err != nil {
			return nil, err
		}
		return rec, nil
	default:
		rec, err := identifySentinel1(path, fsys)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
}
