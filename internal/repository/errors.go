package repository

import "errors"

// ErrNotFound is returned by updates that match no document
var ErrNotFound = errors.New("document not found")
