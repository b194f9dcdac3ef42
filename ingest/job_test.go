package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/schema"
)

func TestJob_Run(t *testing.T) {
	// Mock
	root := t.TempDir()
	path := writeFile(t, filepath.Join(root, filepath.Base(sceneA)))
	store := newFakeCatalog()
	_, _ = store.InsertOrReject(schema.Sentinel2Table, []schema.Row{{"scene": filepath.Join(root, "vanished.zip"), "outname_base": "vanished"}}, false)
	engine := NewEngine(store, fakeIdentifier{path: s2Record(path, baseA, "Level-2A")})
	job := NewJob(engine, JobConfig{Root: root, Families: []model.Family{model.Sentinel2}, Cleanup: true})

	// Tested code
	status := job.Run(nil)

	// Asserts
	assert.Contains(t, status, "#Inserted:\t1")
	assert.Equal(t, []string{path}, store.scenes(schema.ExistingS2Table))
	assert.Equal(t, []string{path}, store.scenes(schema.Sentinel2Table))
	assert.Contains(t, store.maintained, schema.ExistingS2Table)
}

func TestJob_RunWhileReportsStatus(t *testing.T) {
	// Mock
	engine := NewEngine(newFakeCatalog(), fakeIdentifier{})
	job := NewJob(engine, JobConfig{Root: t.TempDir()})
	schedule, err := ParseSchedule("0 0 1 1 *")
	assert.Nil(t, err)
	messages := make(chan string)
	done := make(chan struct{})

	// Tested code
	go func() {
		job.RunWhile(messages, schedule)
		close(done)
	}()
	status := job.GetStatus()
	close(messages)
	<-done

	// Asserts
	assert.Contains(t, status, "Status: Sleeping until")
	assert.Contains(t, status, "Previous job:\n\tNone")
}

func TestDrainMessages(t *testing.T) {
	messages := make(chan string, 3)
	messages <- "noise"
	messages <- AbortIngestJobMessage
	messages <- BeginIngestJobMessage

	assert.True(t, drainMessages(messages))
	assert.False(t, drainMessages(messages))
	assert.False(t, drainMessages(nil))
}
