package live

import "errors"

var (
	// ErrSlotOccupied rejects a start while a different teacher is live.
	ErrSlotOccupied = errors.New("another teacher is currently live")
)
