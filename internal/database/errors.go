package database

import "errors"

// ErrNotFound is returned by id-keyed reads and conditional writes that
// matched no row. Callers decide whether this is a 404 or a no-op.
var ErrNotFound = errors.New("record not found")
