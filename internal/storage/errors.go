package storage

import "errors"

// ErrNotFound is returned when a requested well or report does not exist.
var ErrNotFound = errors.New("storage: not found")
