package client

import "errors"

var (
	ErrNotConnected = errors.New("client is not connected")
)
