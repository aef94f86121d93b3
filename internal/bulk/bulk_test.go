package bulk

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kbadu/datashop/internal/errs"
	"github.com/kbadu/datashop/internal/model"
	"github.com/kbadu/datashop/internal/transition"
	"go.uber.org/zap/zaptest"
)

type fakeStore struct {
	mu      sync.Mutex
	updated []string
	failIDs map[string]bool
	batched int
}

func (f *fakeStore) UpdateItemStatus(ctx context.Context, itemID string, to model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[itemID] {
		return &errs.RemoteError{StatusCode: 500}
	}
	f.updated = append(f.updated, itemID)
	return nil
}

func (f *fakeStore) BatchComplete(ctx context.Context) (int, error) {
	return f.batched, nil
}

func newCoordinator(t *testing.T, store Store) *Coordinator {
	t.Helper()
	return NewCoordinator(store, zaptest.NewLogger(t).Sugar())
}

func mixedItems() []model.OrderItem {
	return []model.OrderItem{
		{ID: "1", Status: model.Pending},
		{ID: "2", Status: model.Processing},
		{ID: "3", Status: model.Completed},
		{ID: "4", Status: model.Cancelled},
		{ID: "5", Status: model.Pending},
	}
}

func TestEligibleMixedStatuses(t *testing.T) {
	eligible := Eligible(mixedItems(), model.Completed)

	if len(eligible) != 3 {
		t.Fatalf("expected 3 eligible, got %d", len(eligible))
	}
	for _, item := range eligible {
		if item.Status == model.Completed || item.Status == model.Cancelled {
			t.Errorf("item %s with status %s must be excluded", item.ID, item.Status)
		}
	}
}

func TestEligibleIsSubsetOfValidEdges(t *testing.T) {
	statuses := []model.Status{model.Pending, model.Processing, model.Completed, model.Cancelled, model.StatusNA}

	var items []model.OrderItem
	for i, s := range statuses {
		items = append(items, model.OrderItem{ID: string(rune('a' + i)), Status: s})
	}

	for _, target := range []model.Status{model.Pending, model.Processing, model.Completed, model.Cancelled} {
		for _, item := range Eligible(items, target) {
			if item.Status == target {
				t.Errorf("already-target item %s selected for %s", item.ID, target)
			}
			if !transition.CanTransition(item.Status, target) {
				t.Errorf("eligible item %s has no valid edge %s -> %s", item.ID, item.Status, target)
			}
		}
	}
}

func TestApplySingleEligibleSkipsDecider(t *testing.T) {
	store := &fakeStore{}
	coord := newCoordinator(t, store)

	items := []model.OrderItem{{ID: "42", Status: model.Pending}}
	deciderCalled := false
	decide := func(filtered, eligible int) ScopeDecision {
		deciderCalled = true
		return ScopeAbort
	}

	result, err := coord.Apply(context.Background(), items, model.Cancelled, "42", decide)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deciderCalled {
		t.Error("decider must not be consulted for a single eligible item")
	}
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(store.updated) != 1 || store.updated[0] != "42" {
		t.Errorf("expected one update for item 42, got %v", store.updated)
	}
}

func TestApplyScopeAll(t *testing.T) {
	store := &fakeStore{}
	coord := newCoordinator(t, store)

	var gotFiltered, gotEligible int
	decide := func(filtered, eligible int) ScopeDecision {
		gotFiltered, gotEligible = filtered, eligible
		return ScopeAll
	}

	result, err := coord.Apply(context.Background(), mixedItems(), model.Completed, "1", decide)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFiltered != 5 || gotEligible != 3 {
		t.Errorf("decider saw filtered=%d eligible=%d; want 5 and 3", gotFiltered, gotEligible)
	}
	if result.Succeeded != 3 {
		t.Errorf("expected 3 succeeded, got %+v", result)
	}
}

func TestApplyScopeSingle(t *testing.T) {
	store := &fakeStore{}
	coord := newCoordinator(t, store)

	decide := func(filtered, eligible int) ScopeDecision { return ScopeSingle }

	result, err := coord.Apply(context.Background(), mixedItems(), model.Completed, "2", decide)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 1 {
		t.Errorf("expected 1 succeeded, got %+v", result)
	}
	if len(store.updated) != 1 || store.updated[0] != "2" {
		t.Errorf("expected only item 2 updated, got %v", store.updated)
	}
}

func TestApplyScopeSingleTriggerNotEligible(t *testing.T) {
	store := &fakeStore{}
	coord := newCoordinator(t, store)

	decide := func(filtered, eligible int) ScopeDecision { return ScopeSingle }

	// item 4 is Cancelled, so it can never be the single target
	_, err := coord.Apply(context.Background(), mixedItems(), model.Completed, "4", decide)

	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.updated) != 0 {
		t.Errorf("no updates expected, got %v", store.updated)
	}
}

func TestApplyAbort(t *testing.T) {
	store := &fakeStore{}
	coord := newCoordinator(t, store)

	decide := func(filtered, eligible int) ScopeDecision { return ScopeAbort }

	_, err := coord.Apply(context.Background(), mixedItems(), model.Completed, "1", decide)
	if !errors.Is(err, errs.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if len(store.updated) != 0 {
		t.Errorf("aborted run must not touch the store, got %v", store.updated)
	}
}

func TestApplyRequiresExplicitChoice(t *testing.T) {
	store := &fakeStore{}
	coord := newCoordinator(t, store)

	_, err := coord.Apply(context.Background(), mixedItems(), model.Completed, "1", nil)
	if !errors.Is(err, errs.ErrAborted) {
		t.Fatalf("expected ErrAborted without a decider, got %v", err)
	}
}

func TestApplyPartialFailure(t *testing.T) {
	store := &fakeStore{failIDs: map[string]bool{"2": true}}
	coord := newCoordinator(t, store)

	decide := func(filtered, eligible int) ScopeDecision { return ScopeAll }

	result, err := coord.Apply(context.Background(), mixedItems(), model.Completed, "1", decide)
	if err != nil {
		t.Fatalf("partial failure must not be a hard error: %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("expected 2 succeeded / 1 failed, got %+v", result)
	}
}

func TestApplyEmptyEligible(t *testing.T) {
	store := &fakeStore{}
	coord := newCoordinator(t, store)

	items := []model.OrderItem{
		{ID: "1", Status: model.Cancelled},
		{ID: "2", Status: model.Completed},
	}

	_, err := coord.Apply(context.Background(), items, model.Completed, "1", nil)
	if !errors.Is(err, errs.ErrNoEligible) {
		t.Fatalf("expected ErrNoEligible, got %v", err)
	}
}

func TestBatchComplete(t *testing.T) {
	store := &fakeStore{batched: 9}
	coord := newCoordinator(t, store)

	n, err := coord.BatchComplete(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 9 {
		t.Errorf("expected 9, got %d", n)
	}
}
