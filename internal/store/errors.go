package store

import "errors"

var (
	ErrEmptyPath   = errors.New("database path cannot be empty")
	ErrStoreClosed = errors.New("record store is closed")
	ErrNilRecord   = errors.New("record cannot be nil")
)
