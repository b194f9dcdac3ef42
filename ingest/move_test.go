package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

func TestMove(t *testing.T) {
	// Mock
	root := t.TempDir()
	target := filepath.Join(root, "archive")
	moved := writeFile(t, filepath.Join(root, "in", filepath.Base(sceneA)))
	dup := writeFile(t, filepath.Join(root, "dup", filepath.Base(sceneC)))
	clash := writeFile(t, filepath.Join(root, "in", "S2A_MSIL1C_clash.zip"))
	writeFile(t, filepath.Join(target, "S2A_MSIL1C_clash.zip"))
	missing := filepath.Join(root, "in", "S2A_MSIL1C_missing.zip")

	store := newFakeCatalog()
	_, _ = store.InsertOrReject(schema.Sentinel2Table, []schema.Row{{"scene": moved, "outname_base": baseA}}, false)
	_, _ = store.InsertOrReject(schema.DuplicatesTable, []schema.Row{{"scene": dup, "outname_base": baseC}}, false)
	engine := NewEngine(store, fakeIdentifier{})

	// Tested code
	report, err := engine.Move([]string{moved, dup, clash, missing}, target)

	// Asserts
	assert.Nil(t, err)
	newMoved := filepath.Join(target, filepath.Base(sceneA))
	newDup := filepath.Join(target, filepath.Base(sceneC))
	assert.Equal(t, []string{newMoved, newDup}, report.Moved)
	assert.Equal(t, []string{filepath.Join(target, "S2A_MSIL1C_clash.zip")}, report.Conflicts)
	assert.Equal(t, []string{missing}, report.Failed)
	assert.Len(t, report.Errors, 2)
	assert.True(t, errors.Is(report.Errors[0], util.ErrMoveConflict))
	assert.True(t, errors.Is(report.Errors[1], util.ErrIOFailure))

	assert.Equal(t, []string{newMoved}, store.scenes(schema.Sentinel2Table))
	assert.Equal(t, []string{newDup}, store.scenes(schema.DuplicatesTable))
	_, statErr := os.Stat(clash)
	assert.Nil(t, statErr)
	_, statErr = os.Stat(newMoved)
	assert.Nil(t, statErr)
}

func TestMove_CopyFallback(t *testing.T) {
	// Mock
	root := t.TempDir()
	src := writeFile(t, filepath.Join(root, "src", filepath.Base(sceneA)))
	oldRename := renameFunc
	defer func() { renameFunc = oldRename }()
	renameFunc = func(string, string) error { return &os.LinkError{Op: "rename", Err: os.ErrInvalid} }
	engine := NewEngine(newFakeCatalog(), fakeIdentifier{})

	// Tested code
	report, err := engine.Move([]string{src}, filepath.Join(root, "dst"))

	// Asserts
	assert.Nil(t, err)
	assert.Len(t, report.Moved, 1)
	data, readErr := os.ReadFile(report.Moved[0])
	assert.Nil(t, readErr)
	assert.Equal(t, "scene", string(data))
	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr))
}
