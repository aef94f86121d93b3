// Package bulk applies a status change across a filtered set of order items.
// Updates are issued concurrently as independent requests; there is no atomic
// multi-item commit on the remote store, so partial failure is an expected
// outcome reported as counts, not escalated to a hard error.
package bulk

import (
	"context"
	"sync"

	"github.com/kbadu/datashop/internal/errs"
	"github.com/kbadu/datashop/internal/model"
	"github.com/kbadu/datashop/internal/transition"
	"go.uber.org/zap"
)

type ScopeDecision int

const (
	ScopeAbort ScopeDecision = iota
	ScopeAll
	ScopeSingle
)

// Decider is consulted when more than one item is eligible. It receives the
// total filtered count and the eligible count and must return an explicit
// choice; there is no default.
type Decider func(filtered, eligible int) ScopeDecision

type Result struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Eligible  int `json:"eligible"`
}

type Store interface {
	UpdateItemStatus(ctx context.Context, itemID string, to model.Status) error
	BatchComplete(ctx context.Context) (int, error)
}

type Coordinator struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewCoordinator(store Store, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{store: store, logger: logger}
}

// Eligible selects the items whose current status differs from the target and
// for which the transition has a valid edge. Items already in the target
// status or with no valid edge are excluded silently.
func Eligible(items []model.OrderItem, target model.Status) []model.OrderItem {
	var eligible []model.OrderItem
	for _, item := range items {
		if item.Status == target {
			continue
		}
		if transition.CanTransition(item.Status, target) {
			eligible = append(eligible, item)
		}
	}
	return eligible
}

// Apply runs the bulk update. triggerID identifies the item that triggered
// the action, used when the operator scopes the run down to a single item.
func (c *Coordinator) Apply(ctx context.Context, items []model.OrderItem, target model.Status, triggerID string, decide Decider) (Result, error) {
	if !target.Known() {
		return Result{}, &errs.ValidationError{Field: "status", Reason: "unknown target status"}
	}

	eligible := Eligible(items, target)
	if len(eligible) == 0 {
		return Result{}, errs.ErrNoEligible
	}

	chosen := eligible
	if len(eligible) > 1 {
		if decide == nil {
			return Result{}, errs.ErrAborted
		}
		switch decide(len(items), len(eligible)) {
		case ScopeAll:
			// proceed with the full eligible set
		case ScopeSingle:
			single, ok := findItem(eligible, triggerID)
			if !ok {
				return Result{}, &errs.ValidationError{Field: "itemId", Reason: "triggering item is not eligible"}
			}
			chosen = []model.OrderItem{single}
		default:
			return Result{}, errs.ErrAborted
		}
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result = Result{Eligible: len(eligible)}
	)

	for _, item := range chosen {
		wg.Add(1)
		go func(item model.OrderItem) {
			defer wg.Done()

			err := c.store.UpdateItemStatus(ctx, item.ID, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				c.logger.Warnf("bulk update item %s -> %s: %v", item.ID, target, err)
				return
			}
			result.Succeeded++
		}(item)
	}

	wg.Wait()

	return result, nil
}

// BatchComplete delegates to the store's single server-side operation that
// completes every currently-Processing item.
func (c *Coordinator) BatchComplete(ctx context.Context) (int, error) {
	return c.store.BatchComplete(ctx)
}

func findItem(items []model.OrderItem, id string) (model.OrderItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return model.OrderItem{}, false
}
