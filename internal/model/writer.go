package model

import "time"

// Writer defines a generic interface for persisting task snapshot data.
type Writer interface {
	// Write takes a snapshot payload and persists it. The implementation
	// is expected to know how to handle the payload type it receives.
	Write(payload interface{}, timestamp, taskName string) error

	// GetInterval returns the configured snapshot interval for this writer.
	GetInterval() time.Duration
}
