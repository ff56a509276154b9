package storage

import "errors"

// ErrNotFound is returned when a slug is not in the dataset.
var ErrNotFound = errors.New("merchant not found")

// ErrNoSnapshot is returned by a Source that has never been published to.
var ErrNoSnapshot = errors.New("no snapshot published")
