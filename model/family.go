package model

import (
	"path/filepath"
	"regexp"

	"github.com/venicegeo/bf-scene-catalog/schema"
)

// Family is a sensor family with its own file grammar and tables
type Family string

// Supported families
const (
	Sentinel1 Family = "S1"
	Sentinel2 Family = "S2"
)

// Families lists every supported family
var Families = []Family{Sentinel1, Sentinel2}

var familyPatterns = map[Family]*regexp.Regexp{
	Sentinel1: regexp.MustCompile(`^S1[AB]_.*\.zip$`),
	Sentinel2: regexp.MustCompile(`^S2[AB]_MSI.*\.zip$`),
}

// Pattern matches the basenames of this family's archives
func (f Family) Pattern() *regexp.Regexp {
	return familyPatterns[f]
}

// PrimaryTable is the table holding the family's scene records
func (f Family) PrimaryTable() string {
	if f == Sentinel2 {
		return schema.Sentinel2Table
	}
	return schema.Sentinel1Table
}

// InventoryTable is the table holding the family's on-disk inventory
func (f Family) InventoryTable() string {
	if f == Sentinel2 {
		return schema.ExistingS2Table
	}
	return schema.ExistingS1Table
}

// ParseFamily accepts "S1"/"S2" and the common long forms
func ParseFamily(name string) (Family, bool) {
	switch name {
	case "S1", "s1", "sentinel1", "sentinel-1", "Sentinel-1":
		return Sentinel1, true
	case "S2", "s2", "sentinel2", "sentinel-2", "Sentinel-2":
		return Sentinel2, true
	}
	return "", false
}

// FamilyOf detects the family of an archive from its file name
func FamilyOf(path string) (Family, bool) {
	base := filepath.Base(path)
	for _, f := range Families {
		if f.Pattern().MatchString(base) {
			return f, true
		}
	}
	return "", false
}
