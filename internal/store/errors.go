package store

import "errors"

var (
	ErrNotFound = errors.New("key not found")
	ErrEmptyKey = errors.New("key must not be empty")
	ErrClosed   = errors.New("store is closed")
)
