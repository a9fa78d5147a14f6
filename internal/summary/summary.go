// Package summary implements the Space-Saving algorithm described in
// "Efficient Computation of Frequent and Top-k Elements in Data Streams"
// by Metwally, Agrawal and Abbadi. A Summary tracks approximate counts for
// the most frequent elements of a stream using a fixed number of counters,
// with a deterministic upper bound on how much each reported count may
// overstate the true frequency.
//
// A Summary performs no internal locking. Callers that share one across
// goroutines must serialize access externally, or keep per-goroutine
// summaries and combine them with Merge.
package summary

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a caller error: bad capacity, empty
	// element, zero weight, out-of-range k or an unusable planner input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorruptSnapshot reports an undecodable or inconsistent snapshot.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Element is one entry of a ranked view. Error bounds the overestimate:
// the true frequency lies in [Count-Error, Count].
type Element struct {
	Key   string `json:"key"`
	Count uint64 `json:"count"`
	Error uint64 `json:"error"`
}

// noSlot marks the absence of a neighbor in the counter arena.
const noSlot = -1

// counter is a single arena slot. Slots are allocated once, while the
// summary is below capacity, and repurposed in place afterwards.
type counter struct {
	element  string
	count    uint64
	errBound uint64
	prev     int
	next     int
}

// Summary is a fixed-capacity approximate top-k frequency counter.
// Counters are kept as an arena of slots threaded into a doubly linked
// list ordered by descending count; the index maps elements to slots.
type Summary struct {
	capacity int
	slots    []counter
	index    map[string]int
	head     int
	tail     int
	size     int
	total    uint64
}

// New creates an empty summary tracking at most capacity elements.
func New(capacity int) (*Summary, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArgument, capacity)
	}
	return &Summary{
		capacity: capacity,
		slots:    make([]counter, 0, capacity),
		index:    make(map[string]int, capacity),
		head:     noSlot,
		tail:     noSlot,
	}, nil
}

// Record counts a single observation of element and returns its new count.
func (s *Summary) Record(element string) (uint64, error) {
	return s.RecordN(element, 1)
}

// RecordN counts weight observations of element and returns its new count.
// The update is all-or-nothing: on an invalid argument nothing changes.
func (s *Summary) RecordN(element string, weight uint64) (uint64, error) {
	if element == "" {
		return 0, fmt.Errorf("%w: empty element", ErrInvalidArgument)
	}
	if weight == 0 {
		return 0, fmt.Errorf("%w: weight must be at least 1", ErrInvalidArgument)
	}
	return s.record(element, weight, 0), nil
}

// Merge folds every tracked element of other into s. Counts are absorbed
// as weights and error bounds accumulate as a conservative sum, so the
// result is a valid approximation of the combined streams rather than an
// exact union. The capacities of the two summaries need not match.
func (s *Summary) Merge(other *Summary) {
	if other == nil || other == s {
		return
	}
	for i := other.head; i != noSlot; i = other.slots[i].next {
		c := &other.slots[i]
		s.record(c.element, c.count, c.errBound)
	}
}

// Top returns the top-k elements in descending count order, bounded by the
// current size. It fails if k is negative or exceeds the capacity.
func (s *Summary) Top(k int) ([]Element, error) {
	if k < 0 || k > s.capacity {
		return nil, fmt.Errorf("%w: k %d outside [0, %d]", ErrInvalidArgument, k, s.capacity)
	}
	n := k
	if s.size < n {
		n = s.size
	}
	out := make([]Element, 0, n)
	for i := s.head; i != noSlot && len(out) < n; i = s.slots[i].next {
		c := &s.slots[i]
		out = append(out, Element{Key: c.element, Count: c.count, Error: c.errBound})
	}
	return out, nil
}

// Elements returns all tracked elements in descending count order.
func (s *Summary) Elements() []Element {
	top, _ := s.Top(s.size)
	return top
}

// Size is the number of tracked elements, bounded by Capacity.
func (s *Summary) Size() int {
	return s.size
}

// Capacity is the maximum number of elements the summary tracks.
func (s *Summary) Capacity() int {
	return s.capacity
}

// TotalCount is the total weight ever recorded, including weight absorbed
// by elements that have since been evicted.
func (s *Summary) TotalCount() uint64 {
	return s.total
}

func (s *Summary) String() string {
	return fmt.Sprintf("Summary{total=%d, size=%d, capacity=%d}", s.total, s.size, s.capacity)
}

// record applies one invariant-preserving update. inherited carries a
// pre-existing error bound when folding in another summary's counter.
func (s *Summary) record(element string, weight, inherited uint64) uint64 {
	s.total += weight

	// Tracked element: bump and relocate.
	if i, ok := s.index[element]; ok {
		c := &s.slots[i]
		c.count += weight
		c.errBound += inherited
		s.relocate(i)
		return c.count
	}

	// Untracked element with a free slot: append at the tail.
	if s.size < s.capacity {
		s.slots = append(s.slots, counter{
			element:  element,
			count:    weight,
			errBound: inherited,
			prev:     s.tail,
			next:     noSlot,
		})
		i := len(s.slots) - 1
		if s.head == noSlot {
			s.head = i
		} else {
			s.slots[s.tail].next = i
		}
		s.tail = i
		s.index[element] = i
		s.size++
		s.relocate(i)
		return weight
	}

	// Untracked element at capacity: repurpose the minimum counter. Its
	// current count becomes the error bound inherited by the newcomer.
	i := s.tail
	c := &s.slots[i]
	delete(s.index, c.element)
	s.index[element] = i
	c.element = element
	c.errBound = c.count + inherited
	c.count += weight
	s.relocate(i)
	return c.count
}

// relocate restores descending count order after slot i's count grew.
// Only slot i can be out of place, so a single insertion-sort step
// bounded by the displaced distance suffices; the list is never re-sorted.
func (s *Summary) relocate(i int) {
	prev := s.slots[i].prev
	if prev == noSlot || s.slots[prev].count >= s.slots[i].count {
		return
	}
	s.unlink(i)
	next := prev
	for prev != noSlot && s.slots[i].count > s.slots[prev].count {
		next = prev
		prev = s.slots[prev].prev
	}
	s.slots[i].prev = prev
	s.slots[i].next = next
	s.slots[next].prev = i
	if prev == noSlot {
		s.head = i
	} else {
		s.slots[prev].next = i
	}
}

// unlink detaches slot i from the order without touching the index.
func (s *Summary) unlink(i int) {
	c := &s.slots[i]
	if i == s.head {
		s.head = c.next
	} else {
		s.slots[c.prev].next = c.next
	}
	if i == s.tail {
		s.tail = c.prev
	} else {
		s.slots[c.next].prev = c.prev
	}
}
