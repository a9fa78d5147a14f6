package summary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Snapshot layout, all fields big-endian:
//
//	magic   uint32
//	version uint16
//	capacity uint32
//	totalCount uint64
//	size    uint32
//	size times, in descending rank order:
//	  keyLen uint32, key bytes, count uint64, errorBound uint64
//
// The format is internal and versioned; it is not guaranteed compatible
// across versions, so every header field is validated on restore.
const (
	snapshotMagic   uint32 = 0x53524b31 // "SRK1"
	snapshotVersion uint16 = 1

	// maxKeyLen caps a single decoded key. Anything larger is taken as
	// stream corruption rather than a legitimate element.
	maxKeyLen = 1 << 20
)

// Encode writes a snapshot of the summary to w.
func (s *Summary) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, v := range []interface{}{
		snapshotMagic,
		snapshotVersion,
		uint32(s.capacity),
		s.total,
		uint32(s.size),
	} {
		if err := binary.Write(bw, binary.BigEndian, v); err != nil {
			return fmt.Errorf("failed to encode snapshot header: %w", err)
		}
	}
	for i := s.head; i != noSlot; i = s.slots[i].next {
		c := &s.slots[i]
		if err := binary.Write(bw, binary.BigEndian, uint32(len(c.element))); err != nil {
			return fmt.Errorf("failed to encode counter: %w", err)
		}
		if _, err := bw.WriteString(c.element); err != nil {
			return fmt.Errorf("failed to encode counter: %w", err)
		}
		if err := binary.Write(bw, binary.BigEndian, c.count); err != nil {
			return fmt.Errorf("failed to encode counter: %w", err)
		}
		if err := binary.Write(bw, binary.BigEndian, c.errBound); err != nil {
			return fmt.Errorf("failed to encode counter: %w", err)
		}
	}
	return bw.Flush()
}

// Decode reconstructs a summary from a snapshot written by Encode. The
// counter order, the slot arena and the element index are rebuilt in one
// pass. Streams whose declared size exceeds the capacity, or that carry
// fewer counters than declared, are rejected as corrupt.
func Decode(r io.Reader) (*Summary, error) {
	br := bufio.NewReader(r)

	var (
		magic    uint32
		version  uint16
		capacity uint32
		total    uint64
		size     uint32
	)
	if err := readFields(br, &magic, &version, &capacity, &total, &size); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCorruptSnapshot, err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrCorruptSnapshot, magic)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, version)
	}
	if capacity == 0 {
		return nil, fmt.Errorf("%w: zero capacity", ErrCorruptSnapshot)
	}
	if size > capacity {
		return nil, fmt.Errorf("%w: size %d exceeds capacity %d", ErrCorruptSnapshot, size, capacity)
	}

	s, err := New(int(capacity))
	if err != nil {
		return nil, err
	}
	s.total = total

	prevCount := uint64(0)
	for i := 0; i < int(size); i++ {
		var keyLen uint32
		if err := readFields(br, &keyLen); err != nil {
			return nil, fmt.Errorf("%w: truncated after %d of %d counters: %v", ErrCorruptSnapshot, i, size, err)
		}
		if keyLen == 0 || keyLen > maxKeyLen {
			return nil, fmt.Errorf("%w: implausible key length %d", ErrCorruptSnapshot, keyLen)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(br, key); err != nil {
			return nil, fmt.Errorf("%w: truncated after %d of %d counters: %v", ErrCorruptSnapshot, i, size, err)
		}
		var count, errBound uint64
		if err := readFields(br, &count, &errBound); err != nil {
			return nil, fmt.Errorf("%w: truncated after %d of %d counters: %v", ErrCorruptSnapshot, i, size, err)
		}
		element := string(key)
		if _, dup := s.index[element]; dup {
			return nil, fmt.Errorf("%w: duplicate element %q", ErrCorruptSnapshot, element)
		}
		if i > 0 && count > prevCount {
			return nil, fmt.Errorf("%w: counters not in descending count order", ErrCorruptSnapshot)
		}
		prevCount = count

		s.slots = append(s.slots, counter{
			element:  element,
			count:    count,
			errBound: errBound,
			prev:     s.tail,
			next:     noSlot,
		})
		if s.head == noSlot {
			s.head = i
		} else {
			s.slots[s.tail].next = i
		}
		s.tail = i
		s.index[element] = i
		s.size++
	}
	return s, nil
}

func readFields(r io.Reader, fields ...interface{}) error {
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return err
		}
	}
	return nil
}
