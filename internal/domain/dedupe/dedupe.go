// Package dedupe detects repeated test rows so that an athlete contributes
// at most one record per protocol per day.
package dedupe

import (
	"fmt"
	"time"

	"github.com/okian/forceplate/internal/domain/metric"
)

// Key identifies a test session.
type Key struct {
	Athlete string
	Date    time.Time
	Test    metric.TestType
}

// String renders the key for QC messages.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Athlete, k.Test, k.Date.Format(time.DateOnly))
}

// Deduper records seen sessions. It is not safe for concurrent use; a
// preparation pass owns its deduper.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded. On first
	// sight it records key with line and returns (line, false); otherwise
	// it returns the line recorded first and true.
	SeenAndRecord(key Key, line int) (firstLine int, seen bool)

	Size() int
}

type inMemoryDeduper struct {
	seen map[Key]int
}

// NewInMemoryDeduper creates a deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &inMemoryDeduper{seen: make(map[Key]int, o.capacity)}
}

func (d *inMemoryDeduper) SeenAndRecord(key Key, line int) (int, bool) {
	key.Date = key.Date.UTC().Truncate(24 * time.Hour)
	if first, ok := d.seen[key]; ok {
		return first, true
	}
	d.seen[key] = line
	return line, false
}

func (d *inMemoryDeduper) Size() int {
	return len(d.seen)
}
