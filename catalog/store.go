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

// Package catalog stores scene records in PostgreSQL/PostGIS.
package catalog

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// ConnectionProvider is a function that can provide a database connection.
type ConnectionProvider func(util.LogContext) (*sql.DB, error)

// bookkeeping tables of PostGIS and goose, hidden from TableNames by default
var systemTables = map[string]bool{
	"spatial_ref_sys":   true,
	"geometry_columns":  true,
	"geography_columns": true,
	"raster_columns":    true,
	"raster_overviews":  true,
	"goose_db_version":  true,
}

// Store is the catalog's handle on the database
type Store struct {
	db       *sql.DB
	registry *schema.Registry
	logCtx   util.LogContext
}

// InsertResult tallies the outcome of InsertOrReject
type InsertResult struct {
	Inserted     int
	Updated      int
	Rejected     int
	Failed       int
	RejectedKeys []string
	UpdatedKeys  []string
}

// Add folds other into r
func (r *InsertResult) Add(other InsertResult) {
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Rejected += other.Rejected
	r.Failed += other.Failed
	r.RejectedKeys = append(r.RejectedKeys, other.RejectedKeys...)
	r.UpdatedKeys = append(r.UpdatedKeys, other.UpdatedKeys...)
}

// New creates a Store over db for the tables of registry
func New(db *sql.DB, registry *schema.Registry) *Store {
	if registry == nil {
		registry = schema.Default()
	}
	return &Store{db: db, registry: registry, logCtx: &util.BasicLogContext{}}
}

// Registry returns the table descriptors the store works with
func (s *Store) Registry() *schema.Registry {
	return s.registry
}

// DB returns the underlying connection pool
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) tableExists(name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		name).Scan(&exists)
	return exists, err
}

// EnsureTable creates the table if it is not present yet. It reports whether
// the table was created.
func (s *Store) EnsureTable(table schema.Table) (bool, error) {
	exists, err := s.tableExists(table.Name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err = s.db.Exec(table.CreateSQL()); err != nil {
		return false, errors.Wrapf(err, "creating table %s", table.Name)
	}
	util.LogInfo(s.logCtx, fmt.Sprintf("Created table %s", table.Name))
	return true, nil
}

// EnsureTables creates every registered table that does not exist yet
func (s *Store) EnsureTables() error {
	for _, name := range s.registry.Names() {
		table, err := s.registry.Table(name)
		if err != nil {
			return err
		}
		if _, err = s.EnsureTable(table); err != nil {
			return err
		}
	}
	return nil
}

// AddTable registers a table descriptor and creates the table
func (s *Store) AddTable(table schema.Table) error {
	if table.Name == "" || len(table.PrimaryKey()) == 0 {
		return errors.Wrapf(util.ErrSchema, "table %q needs a name and a primary key", table.Name)
	}
	s.registry.Register(table)
	_, err := s.EnsureTable(table)
	return err
}

// DropTable removes a registered table from the database
func (s *Store) DropTable(name string) error {
	if _, err := s.registry.Table(name); err != nil {
		return err
	}
	_, err := s.db.Exec("DROP TABLE IF EXISTS " + pq.QuoteIdentifier(name))
	if err == nil {
		util.LogAudit(s.logCtx, util.LogAuditInput{Actor: "catalog", Action: "drop table", Actee: name, Message: "Table dropped", Severity: util.NOTICE})
	}
	return err
}

// TableNames lists the tables of the public schema
func (s *Store) TableNames(includeSystem bool) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, err
		}
		if !includeSystem && systemTables[name] {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ColumnNames lists the columns of a table in ordinal order
func (s *Store) ColumnNames(table string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position`,
		table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.Wrapf(util.ErrSchema, "table %s does not exist", table)
	}
	return names, nil
}

// PrimaryKeys lists the primary key columns of a table
func (s *Store) PrimaryKeys(table string) ([]string, error) {
	exists, err := s.tableExists(table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Wrapf(util.ErrSchema, "table %s does not exist", table)
	}

	rows, err := s.db.Query(`
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = to_regclass($1) AND i.indisprimary
		ORDER BY a.attnum`,
		"public."+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Exists reports whether a row matching every primary key value of key exists
func (s *Store) Exists(table string, key schema.Row) (bool, error) {
	t, err := s.registry.Table(table)
	if err != nil {
		return false, err
	}
	key, err = t.Key(key)
	if err != nil {
		return false, err
	}

	conditions, args := keyConditions(t, key, 1)
	var exists bool
	err = s.db.QueryRow(
		fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s)", pq.QuoteIdentifier(t.Name), conditions),
		args...).Scan(&exists)
	return exists, err
}

func keyConditions(t schema.Table, key schema.Row, firstParam int) (string, []interface{}) {
	pk := t.PrimaryKey()
	conditions := make([]string, len(pk))
	args := make([]interface{}, len(pk))
	for i, name := range pk {
		conditions[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(name), firstParam+i)
		args[i] = key[name]
	}
	return strings.Join(conditions, " AND "), args
}

func keyString(t schema.Table, key schema.Row) string {
	parts := []string{}
	for _, name := range t.PrimaryKey() {
		parts = append(parts, fmt.Sprint(key[name]))
	}
	return strings.Join(parts, "|")
}

type execer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// buildInsert renders the upsert for the columns present in row. Rows
// inserted report true, rows updated report false, rejected rows yield no
// result at all.
func buildInsert(t schema.Table, row schema.Row, update bool) (string, []interface{}) {
	columns := []string{}
	values := []string{}
	args := []interface{}{}
	updates := []string{}
	for _, col := range t.Columns {
		v, ok := row[col.Name]
		if !ok {
			continue
		}
		args = append(args, v)
		placeholder := fmt.Sprintf("$%d", len(args))
		if col.Type == schema.Polygon {
			placeholder = fmt.Sprintf("ST_GeomFromEWKT(%s)", placeholder)
		}
		columns = append(columns, pq.QuoteIdentifier(col.Name))
		values = append(values, placeholder)
		if !col.PrimaryKey {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", pq.QuoteIdentifier(col.Name), pq.QuoteIdentifier(col.Name)))
		}
	}

	conflict := "DO NOTHING"
	if update && len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s RETURNING (xmax = 0) AS inserted",
		pq.QuoteIdentifier(t.Name), strings.Join(columns, ", "), strings.Join(values, ", "),
		schema.QuoteIdentifiers(t.PrimaryKey()), conflict)
	return query, args
}

// insertRow performs the existence check and the write for one row as a
// single statement, so no other writer can slip in between.
func (s *Store) insertRow(db execer, t schema.Table, row schema.Row, update bool, result *InsertResult) error {
	row = t.Project(row)
	key, err := t.Key(row)
	if err != nil {
		result.Failed++
		util.LogAlert(s.logCtx, err.Error())
		return err
	}

	query, args := buildInsert(t, row, update)
	var inserted bool
	err = db.QueryRow(query, args...).Scan(&inserted)
	switch {
	case err == sql.ErrNoRows:
		result.Rejected++
		result.RejectedKeys = append(result.RejectedKeys, keyString(t, key))
	case err != nil:
		result.Failed++
		return util.LogSimpleErr(s.logCtx, fmt.Sprintf("Failed to write %s into %s: ", keyString(t, key), t.Name), err)
	case inserted:
		result.Inserted++
	default:
		result.Updated++
		result.UpdatedKeys = append(result.UpdatedKeys, keyString(t, key))
	}
	return nil
}

// InsertOrReject writes rows into a registered table. A row whose primary key
// is already present is rejected, or overwritten when update is set. Rows are
// projected onto the table's columns first; rows lacking a primary key value
// are counted as failed and skipped.
func (s *Store) InsertOrReject(table string, rows []schema.Row, update bool) (InsertResult, error) {
	result := InsertResult{RejectedKeys: []string{}, UpdatedKeys: []string{}}
	t, err := s.registry.Table(table)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		// per-row failures are logged and counted
		_ = s.insertRow(s.db, t, row, update, &result)
	}
	return result, nil
}

// Replace swaps the whole content of a table for rows in one transaction
func (s *Store) Replace(table string, rows []schema.Row) (InsertResult, error) {
	result := InsertResult{RejectedKeys: []string{}, UpdatedKeys: []string{}}
	t, err := s.registry.Table(table)
	if err != nil {
		return result, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return result, err
	}
	if _, err = tx.Exec("DELETE FROM " + pq.QuoteIdentifier(t.Name)); err != nil {
		tx.Rollback()
		return result, err
	}
	for _, row := range rows {
		if err = s.insertRow(tx, t, row, false, &result); err != nil && !errors.Is(err, util.ErrSchema) {
			tx.Rollback()
			return result, err
		}
	}
	return result, tx.Commit()
}

// UpdateScenePath points the row of oldPath at newPath
func (s *Store) UpdateScenePath(table string, oldPath string, newPath string) (int64, error) {
	t, err := s.registry.Table(table)
	if err != nil {
		return 0, err
	}
	if _, ok := t.Column("scene"); !ok {
		return 0, errors.Wrapf(util.ErrSchema, "table %s has no scene column", table)
	}
	res, err := s.db.Exec(fmt.Sprintf(`UPDATE %s SET "scene" = $1 WHERE "scene" = $2`, pq.QuoteIdentifier(t.Name)), newPath, oldPath)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Size counts the rows of every registered table present in the database
func (s *Store) Size() (map[string]int64, error) {
	present, err := s.TableNames(false)
	if err != nil {
		return nil, err
	}
	sizes := map[string]int64{}
	for _, name := range present {
		if !s.registry.Has(name) {
			continue
		}
		var count int64
		if err = s.db.QueryRow("SELECT COUNT(*) FROM " + pq.QuoteIdentifier(name)).Scan(&count); err != nil {
			return nil, err
		}
		sizes[name] = count
	}
	return sizes, nil
}

// CountBy groups a registered table by column and counts the rows per value
func (s *Store) CountBy(table string, column string) (map[string]int, error) {
	t, err := s.registry.Table(table)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Column(column); !ok {
		return nil, errors.Wrapf(util.ErrSchema, "table %s has no column %s", table, column)
	}
	col := pq.QuoteIdentifier(column)
	rows, err := s.db.Query(fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s", col, pq.QuoteIdentifier(t.Name), col))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var value sql.NullString
		var count int
		if err = rows.Scan(&value, &count); err != nil {
			return nil, err
		}
		counts[value.String] += count
	}
	return counts, rows.Err()
}

// UniqueDirectories lists the distinct directories holding the scenes of a table
func (s *Store) UniqueDirectories(table string) ([]string, error) {
	rows, err := s.Query(table, []string{"scene"}, nil, nil)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	dirs := []string{}
	for _, row := range rows {
		scene, _ := row["scene"].(string)
		dir := scene
		if i := strings.LastIndex(scene, "/"); i >= 0 {
			dir = scene[:i]
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Maintain runs VACUUM ANALYZE on the given registered tables, which must
// exist. VACUUM cannot run inside a transaction, so this uses the bare pool.
func (s *Store) Maintain(tables ...string) error {
	for _, name := range tables {
		t, err := s.registry.Table(name)
		if err != nil {
			return err
		}
		if _, err = s.db.Exec("VACUUM ANALYZE " + pq.QuoteIdentifier(t.Name)); err != nil {
			return util.LogSimpleErr(s.logCtx, fmt.Sprintf("Maintenance of %s failed: ", t.Name), err)
		}
	}
	return nil
}
