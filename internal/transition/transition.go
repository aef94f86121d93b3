// Package transition validates and applies order item status changes.
package transition

import (
	"context"

	"github.com/kbadu/datashop/internal/errs"
	"github.com/kbadu/datashop/internal/model"
)

// edges is the allowed-transition graph. Cancelled is terminal.
var edges = map[model.Status]map[model.Status]bool{
	model.Pending: {
		model.Processing: true,
		model.Completed:  true,
		model.Cancelled:  true,
	},
	model.Processing: {
		model.Completed: true,
		model.Cancelled: true,
	},
	model.Completed: {
		model.Processing: true, // re-open
	},
}

func CanTransition(from, to model.Status) bool {
	return edges[from][to]
}

type Store interface {
	GetOrderItem(ctx context.Context, itemID string) (model.OrderItem, error)
	UpdateItemStatus(ctx context.Context, itemID string, to model.Status) error
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Transition moves one item to the target status. A transition into the
// item's current status is an idempotent no-op. The engine mutates no local
// state; callers re-fetch to observe the new status.
func (e *Engine) Transition(ctx context.Context, itemID string, to model.Status) (model.Status, error) {
	if !to.Known() {
		return model.StatusNA, &errs.ValidationError{Field: "status", Reason: "unknown target status"}
	}

	item, err := e.store.GetOrderItem(ctx, itemID)
	if err != nil {
		return model.StatusNA, err
	}

	if item.Status == to {
		return to, nil
	}

	if !CanTransition(item.Status, to) {
		return item.Status, &errs.TransitionError{From: string(item.Status), To: string(to)}
	}

	if err := e.store.UpdateItemStatus(ctx, itemID, to); err != nil {
		return item.Status, err
	}

	return to, nil
}
