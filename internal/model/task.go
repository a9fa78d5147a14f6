package model

import "StreamRank/internal/summary"

// Task defines a single, self-contained counting task over the event
// stream. This is the interface for the "execution layer".
type Task interface {
	ProcessEvent(ev *Event)
	Snapshot() interface{}
	Top(k int) ([]summary.Element, error)
	Reset()
	Name() string
}
