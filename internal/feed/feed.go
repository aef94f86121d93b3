// Package feed tracks pending counts per category and signals when a count
// increases over the previously observed baseline.
package feed

import (
	"context"
	"sync"

	"github.com/kbadu/datashop/internal/errs"
	"github.com/kbadu/datashop/internal/model"
)

type Category string

const (
	CategoryOrders     Category = "orders"
	CategoryTopups     Category = "topups"
	CategoryComplaints Category = "complaints"
)

// Snapshot holds the last observed counts. The -1 sentinel means no baseline
// has been established for the category yet.
type Snapshot struct {
	Orders     int `json:"orders"`
	Topups     int `json:"topups"`
	Complaints int `json:"complaints"`
}

func NewSnapshot() Snapshot {
	return Snapshot{Orders: -1, Topups: -1, Complaints: -1}
}

type Signals struct {
	Orders     bool `json:"orders"`
	Topups     bool `json:"topups"`
	Complaints bool `json:"complaints"`
}

func (s Signals) Any() bool {
	return s.Orders || s.Topups || s.Complaints
}

// Diff compares fresh counts against the previous snapshot. An uninitialized
// category establishes its baseline without signalling, so the first poll
// never alerts. A count strictly above the baseline signals that category;
// equal or lower counts update the baseline silently.
func Diff(prev Snapshot, counts model.PendingCounts) (Snapshot, Signals) {
	next := Snapshot{
		Orders:     counts.Orders,
		Topups:     counts.Topups,
		Complaints: counts.Complaints,
	}

	signals := Signals{
		Orders:     prev.Orders >= 0 && counts.Orders > prev.Orders,
		Topups:     prev.Topups >= 0 && counts.Topups > prev.Topups,
		Complaints: prev.Complaints >= 0 && counts.Complaints > prev.Complaints,
	}

	return next, signals
}

type CountSource interface {
	PendingCounts(ctx context.Context) (model.PendingCounts, error)
}

// Feed is the stateful wrapper around Diff. The has-new flags are sticky:
// only an explicit Acknowledge clears them. An in-progress guard keeps an
// overlapping poll from diffing against a baseline it did not establish.
type Feed struct {
	mu      sync.Mutex
	snap    Snapshot
	hasNew  Signals
	polling bool
}

func New() *Feed {
	return &Feed{snap: NewSnapshot()}
}

// Poll fetches fresh counts, diffs them against the current baseline and
// advances it. Returns the signals raised by this cycle; callers fire a
// single combined alert when Signals.Any() is true.
func (f *Feed) Poll(ctx context.Context, src CountSource) (Signals, error) {
	f.mu.Lock()
	if f.polling {
		f.mu.Unlock()
		return Signals{}, errs.ErrPollInProgress
	}
	f.polling = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.polling = false
		f.mu.Unlock()
	}()

	counts, err := src.PendingCounts(ctx)
	if err != nil {
		return Signals{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	next, signals := Diff(f.snap, counts)
	f.snap = next

	f.hasNew.Orders = f.hasNew.Orders || signals.Orders
	f.hasNew.Topups = f.hasNew.Topups || signals.Topups
	f.hasNew.Complaints = f.hasNew.Complaints || signals.Complaints

	return signals, nil
}

func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *Feed) HasNew() Signals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasNew
}

// Acknowledge clears the has-new flag for one category, e.g. when the
// operator opens the corresponding view.
func (f *Feed) Acknowledge(category Category) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch category {
	case CategoryOrders:
		f.hasNew.Orders = false
	case CategoryTopups:
		f.hasNew.Topups = false
	case CategoryComplaints:
		f.hasNew.Complaints = false
	}
}
