package scene

import (
	"context"
	"io/fs"
	"sort"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// openArchive exposes a scene archive as a read-only file system
var openArchive = func(path string) (fs.FS, error) {
	fsys, err := archives.FileSystem(context.Background(), path, nil)
	if err != nil {
		return nil, errors.Wrapf(util.ErrParse, "cannot open archive %s: %v", path, err)
	}
	return fsys, nil
}

// findFiles lists the archive members accepted by match, sorted
func findFiles(fsys fs.FS, match func(name string) bool) ([]string, error) {
	found := []string{}
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && match(name) {
			found = append(found, name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(util.ErrParse, "cannot list archive: %v", err)
	}
	sort.Strings(found)
	return found, nil
}

func readMetadata(fsys fs.FS, name string) (Metadata, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, errors.Wrapf(util.ErrParse, "cannot open %s: %v", name, err)
	}
	defer file.Close()
	return ParseMetadata(file)
}
