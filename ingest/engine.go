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

// Package ingest reconciles scene archives on disk with the catalog tables.
package ingest

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/metrics"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/sweep"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// Catalog is the subset of catalog.Store the engine works with
type Catalog interface {
	Exists(table string, key schema.Row) (bool, error)
	InsertOrReject(table string, rows []schema.Row, update bool) (catalog.InsertResult, error)
	Query(table string, columns []string, preds []catalog.Predicate, area *catalog.SpatialFilter) ([]schema.Row, error)
	DeleteWhere(table string, preds ...catalog.Predicate) (int64, error)
	Replace(table string, rows []schema.Row) (catalog.InsertResult, error)
	UpdateScenePath(table string, oldPath string, newPath string) (int64, error)
	Maintain(tables ...string) error
}

// Identifier turns an archive path into a catalog record
type Identifier interface {
	Identify(path string) (model.Record, error)
}

// Options tune a single ingest run
type Options struct {
	// Update overwrites the non-key columns of scenes already cataloged
	Update bool
	// Verbose keeps the keys of rejected, updated and duplicate scenes in the report
	Verbose bool
	// DryRun classifies scenes without writing
	DryRun bool

	// Cancel is polled between scenes for AbortIngestJobMessage
	Cancel <-chan string
	// Status receives status requests while the run is in progress
	Status <-chan chan string
}

// Engine applies the reconciliation rules to batches of scenes
type Engine struct {
	store      Catalog
	identifier Identifier
	logCtx     util.LogContext
}

// NewEngine creates an Engine
func NewEngine(store Catalog, identifier Identifier) *Engine {
	return &Engine{store: store, identifier: identifier, logCtx: &util.BasicLogContext{}}
}

func primaryTables() []string {
	tables := make([]string, len(model.Families))
	for i, f := range model.Families {
		tables[i] = f.PrimaryTable()
	}
	return tables
}

// Ingest identifies every path and files it into its primary table, the
// duplicates table, or nowhere. Scenes are processed in order; per-scene
// failures are counted and the batch continues.
func (e *Engine) Ingest(paths []string, opts Options) (*Report, error) {
	report := newReport()
	seen := map[string]string{}
	lastProgressLogTime := time.Now()
	progressLogInterval := time.Second * 30

	util.LogInfo(e.logCtx, fmt.Sprintf("Ingesting %d scenes", len(paths)))

SceneLoop:
	for _, path := range paths {
		if abort := drainMessages(opts.Cancel); abort {
			util.LogInfo(e.logCtx, "Ingest canceled by user.")
			report.CanceledByUser = true
			break SceneLoop
		}
		drainStatusChannel(opts.Status, report)

		if time.Since(lastProgressLogTime) > progressLogInterval {
			util.LogInfo(e.logCtx, "Ingest progress: "+report.Summary())
			lastProgressLogTime = time.Now()
		}

		e.ingestOne(path, opts, seen, report)
	}

	report.EndTime = time.Now()
	util.LogInfo(e.logCtx, "Ingest complete: "+report.Summary())
	return report, nil
}

func (e *Engine) ingestOne(path string, opts Options, seen map[string]string, report *Report) {
	rec, err := e.identifier.Identify(path)
	if err != nil {
		util.LogAlert(e.logCtx, fmt.Sprintf("Skipping %s: %v", path, err))
		report.fail(path, "unknown", opts.Verbose)
		return
	}
	table := rec.TableName()
	scenePath := rec.ScenePath()
	base := rec.Outname()

	exists, err := e.store.Exists(table, schema.Row{"scene": scenePath})
	if err != nil {
		util.LogSimpleErr(e.logCtx, fmt.Sprintf("Could not look up %s: ", scenePath), err)
		report.fail(scenePath, table, opts.Verbose)
		return
	}
	if exists {
		if !opts.Update {
			report.reject(scenePath, table, opts.Verbose)
			return
		}
		if !opts.DryRun {
			result, err := e.store.InsertOrReject(table, []schema.Row{rec.Row()}, true)
			if err != nil || result.Failed > 0 {
				if err == nil {
					err = errors.New("write failed")
				}
				util.LogSimpleErr(e.logCtx, fmt.Sprintf("Could not update %s: ", scenePath), err)
				report.fail(scenePath, table, opts.Verbose)
				return
			}
		}
		report.update(scenePath, table, opts.Verbose)
		return
	}

	duplicate := false
	if other, ok := seen[base]; ok {
		if other == scenePath {
			report.reject(scenePath, table, opts.Verbose)
			return
		}
		duplicate = true
	} else {
		cataloged, err := e.store.Query(table, []string{"scene"}, []catalog.Predicate{catalog.Equals("outname_base", base)}, nil)
		if err != nil {
			util.LogSimpleErr(e.logCtx, fmt.Sprintf("Could not look up outname base %s: ", base), err)
			report.fail(scenePath, table, opts.Verbose)
			return
		}
		duplicate = len(cataloged) > 0
	}
	if duplicate {
		e.fileDuplicate(model.DuplicateRecord{Scene: scenePath, OutnameBase: base}, opts, report)
		return
	}

	if !opts.DryRun {
		result, err := e.store.InsertOrReject(table, []schema.Row{rec.Row()}, false)
		if err != nil || result.Failed > 0 {
			if err == nil {
				err = errors.New("write failed")
			}
			util.LogSimpleErr(e.logCtx, fmt.Sprintf("Could not insert %s: ", scenePath), err)
			report.fail(scenePath, table, opts.Verbose)
			return
		}
		if result.Rejected > 0 {
			report.reject(scenePath, table, opts.Verbose)
			return
		}
	}
	seen[base] = scenePath
	report.insert(scenePath, table)
}

func (e *Engine) fileDuplicate(dup model.DuplicateRecord, opts Options, report *Report) {
	if opts.DryRun {
		known, err := e.store.Exists(schema.DuplicatesTable, schema.Row{"scene": dup.Scene})
		if err != nil {
			report.fail(dup.Scene, schema.DuplicatesTable, opts.Verbose)
			return
		}
		if known {
			report.reject(dup.Scene, schema.DuplicatesTable, opts.Verbose)
		} else {
			report.duplicate(dup.Scene, opts.Verbose)
		}
		return
	}

	result, err := e.store.InsertOrReject(dup.TableName(), []schema.Row{dup.Row()}, false)
	switch {
	case err != nil || result.Failed > 0:
		util.LogAlert(e.logCtx, fmt.Sprintf("Could not record duplicate %s", dup.Scene))
		report.fail(dup.Scene, schema.DuplicatesTable, opts.Verbose)
	case result.Rejected > 0:
		report.reject(dup.Scene, schema.DuplicatesTable, opts.Verbose)
	default:
		report.duplicate(dup.Scene, opts.Verbose)
	}
}

// FilterSceneList drops the paths whose file name is already cataloged in a
// primary table or in duplicates, under any directory
func (e *Engine) FilterSceneList(paths []string) ([]string, error) {
	known := map[string]bool{}
	for _, table := range append(primaryTables(), schema.DuplicatesTable) {
		rows, err := e.store.Query(table, []string{"scene"}, nil, nil)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if scene, ok := row["scene"].(string); ok {
				known[filepath.Base(scene)] = true
			}
		}
	}

	filtered := []string{}
	for _, path := range paths {
		if !known[filepath.Base(path)] {
			filtered = append(filtered, path)
		}
	}
	return filtered, nil
}

// IsRegistered reports whether the outname base of the archive at path is
// cataloged in table or in duplicates
func (e *Engine) IsRegistered(path string, table string) (bool, error) {
	rec, err := e.identifier.Identify(path)
	if err != nil {
		return false, err
	}
	for _, t := range []string{table, schema.DuplicatesTable} {
		rows, err := e.store.Query(t, []string{"scene"}, []catalog.Predicate{catalog.Equals("outname_base", rec.Outname())}, nil)
		if err != nil {
			return false, err
		}
		if len(rows) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// RefreshInventory sweeps root for the archives of family and replaces the
// family's inventory table with the result
func (e *Engine) RefreshInventory(root string, family model.Family, recursive bool) (catalog.InsertResult, error) {
	records, err := sweep.Sweep(root, family, recursive)
	if err != nil {
		return catalog.InsertResult{}, err
	}
	rows := make([]schema.Row, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}
	result, err := e.store.Replace(family.InventoryTable(), rows)
	if err != nil {
		return result, util.LogSimpleErr(e.logCtx, fmt.Sprintf("Could not refresh %s: ", family.InventoryTable()), err)
	}
	util.LogInfo(e.logCtx, fmt.Sprintf("Inventory %s holds %d scenes", family.InventoryTable(), result.Inserted))
	return result, nil
}

// IngestFromInventory ingests the readable inventory scenes of family that
// are not cataloged yet
func (e *Engine) IngestFromInventory(family model.Family, opts Options) (*Report, error) {
	rows, err := e.store.Query(family.InventoryTable(), []string{"scene"},
		[]catalog.Predicate{catalog.Equals("read_permission", 1)}, nil)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(rows))
	for _, row := range rows {
		if scene, ok := row["scene"].(string); ok {
			paths = append(paths, scene)
		}
	}
	if paths, err = e.FilterSceneList(paths); err != nil {
		return nil, err
	}
	return e.Ingest(paths, opts)
}

// Report counts the outcomes of an ingest run
type Report struct {
	Inserted   int
	Updated    int
	Rejected   int
	Duplicates int
	Failed     int

	RejectedKeys  []string
	UpdatedKeys   []string
	DuplicateKeys []string
	FailedKeys    []string

	StartTime      time.Time
	EndTime        time.Time
	CanceledByUser bool
}

func newReport() *Report {
	return &Report{
		RejectedKeys:  []string{},
		UpdatedKeys:   []string{},
		DuplicateKeys: []string{},
		FailedKeys:    []string{},
		StartTime:     time.Now(),
	}
}

func (r *Report) insert(scene string, table string) {
	r.Inserted++
	metrics.ScenesProcessed.WithLabelValues(table, metrics.OutcomeInserted).Inc()
}

func (r *Report) update(scene string, table string, verbose bool) {
	r.Updated++
	if verbose {
		r.UpdatedKeys = append(r.UpdatedKeys, scene)
	}
	metrics.ScenesProcessed.WithLabelValues(table, metrics.OutcomeUpdated).Inc()
}

func (r *Report) reject(scene string, table string, verbose bool) {
	r.Rejected++
	if verbose {
		r.RejectedKeys = append(r.RejectedKeys, scene)
	}
	metrics.ScenesProcessed.WithLabelValues(table, metrics.OutcomeRejected).Inc()
}

func (r *Report) duplicate(scene string, verbose bool) {
	r.Duplicates++
	if verbose {
		r.DuplicateKeys = append(r.DuplicateKeys, scene)
	}
	metrics.ScenesProcessed.WithLabelValues(schema.DuplicatesTable, metrics.OutcomeDuplicate).Inc()
}

func (r *Report) fail(scene string, table string, verbose bool) {
	r.Failed++
	if verbose {
		r.FailedKeys = append(r.FailedKeys, scene)
	}
	metrics.ScenesProcessed.WithLabelValues(table, metrics.OutcomeFailed).Inc()
}

// Add folds other into r, keeping r's start time
func (r *Report) Add(other *Report) {
	if other == nil {
		return
	}
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Rejected += other.Rejected
	r.Duplicates += other.Duplicates
	r.Failed += other.Failed
	r.RejectedKeys = append(r.RejectedKeys, other.RejectedKeys...)
	r.UpdatedKeys = append(r.UpdatedKeys, other.UpdatedKeys...)
	r.DuplicateKeys = append(r.DuplicateKeys, other.DuplicateKeys...)
	r.FailedKeys = append(r.FailedKeys, other.FailedKeys...)
	r.CanceledByUser = r.CanceledByUser || other.CanceledByUser
	if other.EndTime.After(r.EndTime) {
		r.EndTime = other.EndTime
	}
}

// Summary is a one-line account of the counts
func (r *Report) Summary() string {
	return fmt.Sprintf("Inserted:%v Updated:%v Rejected:%v Duplicates:%v Failed:%v",
		r.Inserted, r.Updated, r.Rejected, r.Duplicates, r.Failed)
}

func (r *Report) String() string {
	return fmt.Sprintf(`
		Start:	%v
		End:	%v
		Canceled: %v
		#Inserted:	%v
		#Updated:	%v
		#Rejected:	%v
		#Duplicates:	%v
		#Error:		%v
		`,
		r.StartTime.Format(statusTimeLayout),
		r.EndTime.Format(statusTimeLayout),
		r.CanceledByUser,
		r.Inserted,
		r.Updated,
		r.Rejected,
		r.Duplicates,
		r.Failed)
}
