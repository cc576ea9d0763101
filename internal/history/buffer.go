package history

import (
	"sync"

	"github.com/pauljones0/stockwatch/internal/models"
)

const DefaultCapacity = 30

// Buffer is a bounded, most-recent-first log of scans.
type Buffer struct {
	mu       sync.RWMutex
	scans    []models.Scan
	capacity int
}

// New creates a Buffer holding at most capacity scans. Non-positive values
// fall back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		scans:    make([]models.Scan, 0, capacity+1),
		capacity: capacity,
	}
}

// Record inserts scan at the front, evicting the oldest entry when full.
func (b *Buffer) Record(scan models.Scan) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scans = append(b.scans, models.Scan{})
	copy(b.scans[1:], b.scans)
	b.scans[0] = scan
	if len(b.scans) > b.capacity {
		b.scans = b.scans[:b.capacity]
	}
}

// Scans returns a copy of the buffer, newest first.
func (b *Buffer) Scans() []models.Scan {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.Scan, len(b.scans))
	copy(out, b.scans)
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.scans)
}

func (b *Buffer) Cap() int {
	return b.capacity
}
