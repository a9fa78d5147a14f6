package model

import "time"

// Event is a single keyed observation flowing through the engine: a cache
// lookup, a request by client id, a packet by source address.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key"`
	// Weight is the number of observations this event stands for.
	// Producers that send unweighted events leave it zero; the engine
	// treats zero as 1.
	Weight uint64 `json:"weight,omitempty"`
}
