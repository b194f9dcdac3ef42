// Package sweep walks scene directories and describes the archives it finds.
package sweep

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/util"
	"golang.org/x/sys/unix"
)

const bytesPerMB = 1024 * 1024

var (
	accessFunc = unix.Access
	statFunc   = unix.Stat
)

// Find lists the regular files under root whose base name matches any of
// patterns. Without recursive only root itself is searched. The result is
// sorted; unreadable subdirectories are skipped.
func Find(root string, patterns []*regexp.Regexp, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(util.ErrIOFailure, "cannot sweep %s: %v", root, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(util.ErrIOFailure, "%s is not a directory", root)
	}

	found := []string{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		for _, p := range patterns {
			if p.MatchString(d.Name()) {
				found = append(found, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(util.ErrIOFailure, "sweeping %s: %v", root, err)
	}
	sort.Strings(found)
	return found, nil
}

// FindScenes lists the archives of the given families under root
func FindScenes(root string, recursive bool, families ...model.Family) ([]string, error) {
	if len(families) == 0 {
		families = model.Families
	}
	patterns := make([]*regexp.Regexp, len(families))
	for i, f := range families {
		patterns[i] = f.Pattern()
	}
	return Find(root, patterns, recursive)
}

// Readable reports whether the current process may read path
func Readable(path string) bool {
	return accessFunc(path, unix.R_OK) == nil
}

// Writable reports whether the current process may write to path
func Writable(path string) bool {
	return accessFunc(path, unix.W_OK) == nil
}

// Inspect builds the inventory entry of a single archive
func Inspect(family model.Family, path string) (model.InventoryRecord, error) {
	var st unix.Stat_t
	if err := statFunc(path, &st); err != nil {
		return model.InventoryRecord{}, errors.Wrapf(util.ErrIOFailure, "stat %s: %v", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return model.InventoryRecord{
		Family:         family,
		Scene:          abs,
		OutnameBase:    model.OutnameBaseOf(abs),
		ReadPermission: Readable(path),
		FileSizeMB:     int(st.Size / bytesPerMB),
		Owner:          strconv.FormatUint(uint64(st.Uid), 10),
	}, nil
}

// Inventory inspects every path. Paths that vanish between the sweep and the
// inspection are logged and left out.
func Inventory(family model.Family, paths []string) []model.InventoryRecord {
	ctx := &util.BasicLogContext{}
	records := make([]model.InventoryRecord, 0, len(paths))
	for _, path := range paths {
		record, err := Inspect(family, path)
		if err != nil {
			util.LogAlert(ctx, err.Error())
			continue
		}
		records = append(records, record)
	}
	return records
}

// Sweep finds the archives of family under root and inspects them
func Sweep(root string, family model.Family, recursive bool) ([]model.InventoryRecord, error) {
	paths, err := FindScenes(root, recursive, family)
	if err != nil {
		return nil, err
	}
	return Inventory(family, paths), nil
}

// Unprocessed keeps the outname bases that no file under processdir carries
// in its name
func Unprocessed(processdir string, recursive bool, bases []string) ([]string, error) {
	products, err := Find(processdir, []*regexp.Regexp{regexp.MustCompile(`^`)}, recursive)
	if err != nil {
		return nil, err
	}
	kept := []string{}
	for _, base := range bases {
		done := false
		for _, product := range products {
			if strings.Contains(filepath.Base(product), base) {
				done = true
				break
			}
		}
		if !done {
			kept = append(kept, base)
		}
	}
	return kept, nil
}
