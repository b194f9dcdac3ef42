package util

import "github.com/pkg/errors"

// Error kinds surfaced by the catalog. Callers test for them with errors.Is;
// the concrete errors are wrapped with errors.Wrap / errors.Wrapf.
var (
	ErrConnectivity = errors.New("database unreachable")
	ErrSchema       = errors.New("schema error")
	ErrParse        = errors.New("scene parse error")
	ErrMoveConflict = errors.New("destination already exists")
	ErrIOFailure    = errors.New("file operation failed")
	ErrExport       = errors.New("export failed")
)
