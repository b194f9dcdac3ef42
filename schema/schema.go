// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema declares the layouts of the catalog tables.
package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// SRID is the spatial reference of every stored geometry (WGS84 lon/lat)
const SRID = 4326

// ColumnType is the declared type of a catalog column
type ColumnType int

// Column types
const (
	Text ColumnType = iota
	Integer
	Float
	Timestamp
	Polygon
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Timestamp:
		return "timestamp"
	case Polygon:
		return "polygon"
	default:
		return "text"
	}
}

// SQLType is the PostgreSQL type used when creating the column
func (t ColumnType) SQLType() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "double precision"
	case Timestamp:
		return "timestamp without time zone"
	case Polygon:
		return fmt.Sprintf("geometry(POLYGON, %d)", SRID)
	default:
		return "text"
	}
}

// Column is a single column descriptor
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
}

// Row maps column names to values
type Row map[string]interface{}

// Table describes one catalog table
type Table struct {
	Name    string
	Columns []Column
}

// PrimaryKey returns the primary key column names in declaration order
func (t Table) PrimaryKey() []string {
	keys := []string{}
	for _, col := range t.Columns {
		if col.PrimaryKey {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

// ColumnNames returns all column names in declaration order
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by name
func (t Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// GeometryColumns returns the names of the polygon columns
func (t Table) GeometryColumns() []string {
	names := []string{}
	for _, col := range t.Columns {
		if col.Type == Polygon {
			names = append(names, col.Name)
		}
	}
	return names
}

// CreateSQL is the idempotent DDL for the table
func (t Table) CreateSQL() string {
	defs := make([]string, 0, len(t.Columns)+1)
	for _, col := range t.Columns {
		defs = append(defs, pq.QuoteIdentifier(col.Name)+" "+col.Type.SQLType())
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		defs = append(defs, "PRIMARY KEY ("+QuoteIdentifiers(pk)+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", pq.QuoteIdentifier(t.Name), strings.Join(defs, ",\n\t"))
}

// Project drops the entries of row that are not columns of the table
func (t Table) Project(row Row) Row {
	out := make(Row, len(t.Columns))
	for _, col := range t.Columns {
		if v, ok := row[col.Name]; ok {
			out[col.Name] = v
		}
	}
	return out
}

// Key extracts the primary key values of row
func (t Table) Key(row Row) (Row, error) {
	key := Row{}
	for _, name := range t.PrimaryKey() {
		v, ok := row[name]
		if !ok || v == nil {
			return nil, errors.Wrapf(util.ErrSchema, "row for table %s is missing primary key column %s", t.Name, name)
		}
		key[name] = v
	}
	return key, nil
}

// QuoteIdentifiers quotes and comma-joins a list of identifiers
func QuoteIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = pq.QuoteIdentifier(name)
	}
	return strings.Join(quoted, ", ")
}

// Registry is the set of tables the catalog knows about
type Registry struct {
	mu     sync.RWMutex
	tables map[string]Table
}

// NewRegistry creates a registry holding the given tables
func NewRegistry(tables ...Table) *Registry {
	r := &Registry{tables: map[string]Table{}}
	for _, t := range tables {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a table descriptor
func (r *Registry) Register(t Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[t.Name] = t
}

// Table returns the descriptor for name, or ErrSchema
func (r *Registry) Table(name string) (Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	if !ok {
		return Table{}, errors.Wrapf(util.ErrSchema, "table %q is not registered", name)
	}
	return t, nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, err := r.Table(name)
	return err == nil
}

// Names lists the registered table names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
