package piece

import "errors"

// ErrOutOfBounds is returned when an offset or range falls outside a tree.
var ErrOutOfBounds = errors.New("piece: offset out of bounds")

// ErrLoadFailed is returned when a lazily-materialized stored piece fails to
// read its bytes from the backing file.
var ErrLoadFailed = errors.New("piece: failed to load stored region")
