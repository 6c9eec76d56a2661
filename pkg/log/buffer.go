package log

import (
	"bytes"
	"io"
	"sync"
)

// Ring is an [io.Writer] that keeps the most recent log records in memory.
// Each Write is one record. It is safe for concurrent use.
type Ring struct {
	records [][]byte
	next    int
	mu      sync.Mutex
	full    bool
}

// NewRing creates a [Ring] holding up to capacity records. A non-positive
// capacity defaults to 100.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 100
	}

	return &Ring{records: make([][]byte, capacity)}
}

// Write implements [io.Writer]. The oldest record is dropped when the ring
// is full.
func (r *Ring) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[r.next] = bytes.Clone(p)
	r.next = (r.next + 1) % len(r.records)

	if r.next == 0 {
		r.full = true
	}

	return len(p), nil
}

// Len returns the number of stored records.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full {
		return len(r.records)
	}

	return r.next
}

// Records returns copies of the stored records, oldest first.
func (r *Ring) Records() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshot()
}

// Flush writes the stored records to w, oldest first, and empties the ring.
func (r *Ring) Flush(w io.Writer) (int64, error) {
	r.mu.Lock()
	records := r.snapshot()
	clear(r.records)
	r.next = 0
	r.full = false
	r.mu.Unlock()

	var total int64

	for _, rec := range records {
		n, err := w.Write(rec)
		total += int64(n)

		if err != nil {
			return total, err //nolint:wrapcheck // Return the writer's error.
		}
	}

	return total, nil
}

func (r *Ring) snapshot() [][]byte {
	var out [][]byte

	if r.full {
		for _, rec := range r.records[r.next:] {
			out = append(out, bytes.Clone(rec))
		}
	}

	for _, rec := range r.records[:r.next] {
		out = append(out, bytes.Clone(rec))
	}

	return out
}
