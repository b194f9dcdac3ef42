package ingest

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

func TestImportCSV(t *testing.T) {
	// Mock
	engine, store, _ := newTestEngine()
	data := "sensor,scene\nS2B," + sceneA + "\nS2A," + sceneC + "\nS2A,\n"

	// Tested code
	report, err := engine.ImportCSV(strings.NewReader(data), Options{})

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, []string{sceneC, sceneA}, store.scenes(schema.Sentinel2Table))
}

func TestImportCSV_Semicolons(t *testing.T) {
	// Mock
	engine, store, _ := newTestEngine()
	data := "sensor;scene;outname_base\nS2B;" + sceneA + ";" + baseA + "\nS2A;" + sceneC + ";" + baseC + "\n"

	// Tested code
	report, err := engine.ImportCSV(strings.NewReader(data), Options{})

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, []string{sceneC, sceneA}, store.scenes(schema.Sentinel2Table))
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter("sensor,scene\n"))
	assert.Equal(t, ';', sniffDelimiter("sensor;scene;outname_base\n"))
	assert.Equal(t, '\t', sniffDelimiter("sensor\tscene\n"))
	assert.Equal(t, ',', sniffDelimiter("scene\n"))
}

func TestImportCSV_NoSceneColumn(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.ImportCSV(strings.NewReader("path\n/data/a.zip\n"), Options{})

	assert.True(t, errors.Is(err, util.ErrSchema))
}

func TestImportCSV_Empty(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.ImportCSV(strings.NewReader(""), Options{})

	assert.True(t, errors.Is(err, util.ErrParse))
}
