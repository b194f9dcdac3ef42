// Package csvcolumnmap locates named columns in a CSV header row.
package csvcolumnmap

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/util"
)

//csvNamedColumn matches a canonical name to a column index in a csv file
type csvNamedColumn struct {
	index int
	key   string
}

//CsvColumnMap matches the name and index of columns
type CsvColumnMap struct {
	entries []csvNamedColumn
	width   int
}

//CreateValueMap creates an empty map suitable for matching
//values to column names
func (m *CsvColumnMap) CreateValueMap() map[string]string {
	return make(map[string]string, len(m.entries))
}

//UpdateMap populates the valueMap with the values read from the csv.
//Short rows leave the missing columns empty.
func (m *CsvColumnMap) UpdateMap(rawValues []string, valueMap map[string]string) {
	for _, namedCol := range m.entries {
		if namedCol.index < len(rawValues) {
			valueMap[namedCol.key] = strings.TrimSpace(rawValues[namedCol.index])
		} else {
			valueMap[namedCol.key] = ""
		}
	}
}

//Width is the number of columns of the header row
func (m *CsvColumnMap) Width() int {
	return m.width
}

//New creates a new column map populated with indices extracted from the provided
//columnNamesRow. Header names are matched case-insensitively.
func New(namedColumns []string, columnNamesRow []string) (CsvColumnMap, error) {
	inverseMap := make(map[string]int, len(columnNamesRow))
	for idx, name := range columnNamesRow {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := inverseMap[name]; !dup {
			inverseMap[name] = idx
		}
	}

	entries := make([]csvNamedColumn, len(namedColumns))
	for idx, name := range namedColumns {
		columnIndex, keyExists := inverseMap[strings.ToLower(name)]
		if !keyExists {
			return CsvColumnMap{}, errors.Wrapf(util.ErrSchema, "no such column: %s", name)
		}
		entries[idx] = csvNamedColumn{columnIndex, name}
	}

	return CsvColumnMap{entries: entries, width: len(columnNamesRow)}, nil
}
