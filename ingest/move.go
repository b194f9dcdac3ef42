package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/metrics"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/sweep"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// MoveReport lists the outcome of Move per scene. Errors holds one entry per
// conflict or failure, wrapping util.ErrMoveConflict or util.ErrIOFailure.
type MoveReport struct {
	Moved     []string
	Conflicts []string
	Failed    []string
	Errors    []error
}

var renameFunc = os.Rename

// moveFile renames src to dst, falling back to copy and delete across devices
func moveFile(src string, dst string) error {
	if err := renameFunc(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err = out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// Move relocates scene archives into directory and points their catalog rows
// at the new location. A scene whose file name already exists in directory
// is left in place as a conflict; a failed move is recorded and the batch
// continues. The error return is reserved for an unusable directory.
func (e *Engine) Move(scenes []string, directory string) (*MoveReport, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, errors.Wrapf(util.ErrIOFailure, "cannot create %s: %v", directory, err)
	}
	if !sweep.Writable(directory) {
		return nil, errors.Wrapf(util.ErrIOFailure, "directory %s cannot be written to", directory)
	}

	report := &MoveReport{Moved: []string{}, Conflicts: []string{}, Failed: []string{}, Errors: []error{}}
	for _, scene := range scenes {
		target := filepath.Join(directory, filepath.Base(scene))
		if _, err := os.Stat(target); err == nil {
			report.Conflicts = append(report.Conflicts, target)
			report.Errors = append(report.Errors, errors.Wrapf(util.ErrMoveConflict, "%s already exists", target))
			metrics.ScenesMoved.WithLabelValues("conflict").Inc()
			continue
		}
		if err := moveFile(scene, target); err != nil {
			report.Failed = append(report.Failed, scene)
			report.Errors = append(report.Errors, errors.Wrapf(util.ErrIOFailure, "moving %s: %v", scene, err))
			metrics.ScenesMoved.WithLabelValues("failed").Inc()
			continue
		}
		report.Moved = append(report.Moved, target)
		metrics.ScenesMoved.WithLabelValues("moved").Inc()

		if err := e.repoint(scene, target); err != nil {
			report.Errors = append(report.Errors, err)
		}
	}

	if len(report.Failed) > 0 {
		util.LogAlert(e.logCtx, fmt.Sprintf("The following scenes could not be moved: %v", report.Failed))
	}
	if len(report.Conflicts) > 0 {
		util.LogAlert(e.logCtx, fmt.Sprintf("The following scenes already exist at the target location: %v", report.Conflicts))
	}
	return report, nil
}

// repoint updates the scene path in the first table that catalogs it
func (e *Engine) repoint(oldPath string, newPath string) error {
	for _, table := range append(primaryTables(), schema.DuplicatesTable) {
		n, err := e.store.UpdateScenePath(table, oldPath, newPath)
		if err != nil {
			return util.LogSimpleErr(e.logCtx, fmt.Sprintf("Moved %s but could not update %s: ", oldPath, table), err)
		}
		if n > 0 {
			return nil
		}
	}
	return nil
}
