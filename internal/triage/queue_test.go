package triage

import (
	"errors"
	"testing"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
)

func TestQueueStageThenUnstageRestoresUnsorted(t *testing.T) {
	store, _ := newTestStore(t)
	queue := NewDeleteQueue(store, nil)
	assetA := mustAssetID(t, "asset-a")

	queue.Stage(assetA)
	if !queue.Contains(assetA) {
		t.Fatalf("expected asset to be staged")
	}
	if _, found := store.Category(assetA); found {
		t.Fatalf("staging must not write a category record")
	}

	queue.Unstage(assetA)
	if queue.Contains(assetA) {
		t.Fatalf("asset should have left the queue")
	}
	if _, found := store.Category(assetA); found {
		t.Fatalf("unstaged asset should be unsorted as before staging")
	}
}

func TestQueueStageThenUnstageRestoresPreviousCategory(t *testing.T) {
	store, _ := newTestStore(t)
	queue := NewDeleteQueue(store, nil)
	assetA := mustAssetID(t, "asset-a")

	store.Assign(assetA, CategoryKeep)
	queue.Stage(assetA)
	queue.Unstage(assetA)

	category, found := store.Category(assetA)
	if !found || category != CategoryKeep {
		t.Fatalf("expected keep after unstage, got %q found=%v", category, found)
	}
}

func TestQueueStageIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	queue := NewDeleteQueue(store, nil)
	assetA := mustAssetID(t, "asset-a")

	queue.Stage(assetA)
	queue.Stage(assetA)
	if queue.Len() != 1 {
		t.Fatalf("expected one queue entry, got %d", queue.Len())
	}
}

func TestQueueClearRestoresEveryAsset(t *testing.T) {
	store, _ := newTestStore(t)
	queue := NewDeleteQueue(store, nil)
	assetA := mustAssetID(t, "asset-a")
	assetB := mustAssetID(t, "asset-b")

	store.Assign(assetA, CategoryFavorite)
	queue.Stage(assetA)
	queue.Stage(assetB)
	queue.Clear()

	if queue.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", queue.Len())
	}
	category, found := store.Category(assetA)
	if !found || category != CategoryFavorite {
		t.Fatalf("expected favorite restored, got %q found=%v", category, found)
	}
	if _, found := store.Category(assetB); found {
		t.Fatalf("expected asset-b back to unsorted")
	}
}

func TestQueueCommitWritesTerminalRecords(t *testing.T) {
	store, _ := newTestStore(t)
	queue := NewDeleteQueue(store, nil)
	assetA := mustAssetID(t, "asset-a")
	assetB := mustAssetID(t, "asset-b")

	queue.Stage(assetA)
	queue.Stage(assetB)

	var deleted []media.AssetID
	err := queue.Commit(func(ids []media.AssetID) error {
		deleted = append(deleted, ids...)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected commit error: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected both assets handed to the deleter, got %d", len(deleted))
	}
	if queue.Len() != 0 {
		t.Fatalf("queue should be empty after commit")
	}

	for _, id := range []media.AssetID{assetA, assetB} {
		category, found := store.Category(id)
		if !found || category != CategoryDelete {
			t.Fatalf("expected terminal delete for %s, got %q found=%v", id, category, found)
		}
	}
	if counts := store.Counts(); counts.Delete != 2 {
		t.Fatalf("expected delete count 2, got %+v", counts)
	}

	// A physically deleted asset must not be resurrectable by local undo.
	if store.CanUndo() {
		t.Fatalf("staging entries should be purged after commit")
	}
	if _, ok := store.Undo(); ok {
		t.Fatalf("undo must not touch committed deletions")
	}
}

func TestQueueCommitFailureLeavesEverythingIntact(t *testing.T) {
	store, _ := newTestStore(t)
	queue := NewDeleteQueue(store, nil)
	assetA := mustAssetID(t, "asset-a")
	assetB := mustAssetID(t, "asset-b")

	store.Assign(assetA, CategoryKeep)
	queue.Stage(assetA)
	queue.Stage(assetB)
	countsBefore := store.Counts()

	cause := errors.New("asset source rejected the batch")
	err := queue.Commit(func(ids []media.AssetID) error {
		return cause
	})
	if err == nil {
		t.Fatalf("expected commit to fail")
	}
	if !errors.Is(err, ErrDeletionFailed) {
		t.Fatalf("expected ErrDeletionFailed, got %v", err)
	}
	var deletionErr *DeletionError
	if !errors.As(err, &deletionErr) {
		t.Fatalf("expected DeletionError, got %T", err)
	}
	if deletionErr.Failed != 2 {
		t.Fatalf("expected 2 failed assets, got %d", deletionErr.Failed)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped")
	}

	if queue.Len() != 2 {
		t.Fatalf("queue must be preserved on failure, got %d", queue.Len())
	}
	if store.Counts() != countsBefore {
		t.Fatalf("category state must be untouched: before %+v after %+v", countsBefore, store.Counts())
	}
	category, found := store.Category(assetA)
	if !found || category != CategoryKeep {
		t.Fatalf("expected keep unchanged, got %q found=%v", category, found)
	}
}

func TestQueueCommitEmptyIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	queue := NewDeleteQueue(store, nil)

	called := false
	err := queue.Commit(func(ids []media.AssetID) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("deleter must not run for an empty queue")
	}
}
