package util

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPError(t *testing.T) {
	// Mock
	var logs bytes.Buffer
	SetLogOutput(&logs)
	defer SetLogOutput(os.Stderr)
	req := httptest.NewRequest("GET", "/count/landsat", nil)
	rec := httptest.NewRecorder()

	// Tested code
	HTTPError(req, rec, &BasicLogContext{}, "no such table", http.StatusNotFound)

	// Asserts
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "404 Not Found: no such table")
	assert.Contains(t, logs.String(), `"actee":"/count/landsat"`)
}
