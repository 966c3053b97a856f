package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/forceplate/internal/domain/types"
	"github.com/okian/forceplate/pkg/metrics"
)

// Archive is a bounded, in-memory Store. Reports are immutable once stored.
type Archive struct {
	mu       sync.RWMutex
	capacity int
	order    []string // oldest first
	byID     map[string]Report
	now      func() time.Time
	newID    func() string
}

// NewArchive creates an empty archive.
func NewArchive(opts ...Option) *Archive {
	a := &Archive{
		capacity: DefaultCapacity,
		byID:     make(map[string]Report),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ Store = (*Archive)(nil)

// Put implements Store.
func (a *Archive) Put(_ context.Context, h Header, sources []string, res *types.Result) (Report, error) {
	if res == nil {
		return Report{}, ErrNilResult
	}
	r := Report{
		ID:        a.newID(),
		CreatedAt: a.now().UTC(),
		Header:    h,
		Sources:   append([]string(nil), sources...),
		Result:    res,
	}

	a.mu.Lock()
	a.byID[r.ID] = r
	a.order = append(a.order, r.ID)
	for len(a.order) > a.capacity {
		delete(a.byID, a.order[0])
		a.order = a.order[1:]
	}
	n := len(a.order)
	a.mu.Unlock()

	metrics.UpdateArchivedReports(n)
	return r, nil
}

// Get implements Store.
func (a *Archive) Get(_ context.Context, id string) (Report, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.byID[id]
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// List implements Store.
func (a *Archive) List(_ context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if limit > len(a.order) {
		limit = len(a.order)
	}
	out := make([]Summary, 0, limit)
	for i := len(a.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.byID[a.order[i]].Summarize())
	}
	return out, nil
}

// Count implements Store.
func (a *Archive) Count(_ context.Context) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}
