package storage

import "errors"

// Common storage errors
var (
	// ErrNotFound indicates that the key is absent from the collection
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates that the key is already present in the collection
	ErrAlreadyExists = errors.New("record already exists")

	// ErrUnknownCollection indicates that the collection is not provided by the store
	ErrUnknownCollection = errors.New("unknown collection")
)
