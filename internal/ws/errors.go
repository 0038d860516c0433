package ws

import "errors"

// Connection-related errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteBufferFull  = errors.New("connection write buffer full")
)

// Registry-related errors
var (
	ErrNilConnection = errors.New("connection cannot be nil")
)
