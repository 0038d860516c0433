package types

import "errors"

var (
	ErrInvalidTeacherID = errors.New("teacher ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrMissingEventType = errors.New("event missing type field")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMalformedEvent   = errors.New("malformed event payload")
	ErrPayloadTooLarge  = errors.New("event payload exceeds size limit")
)
