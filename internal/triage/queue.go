package triage

import (
	"sync"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
	"go.uber.org/zap"
)

// DeleteQueue stages assets for physical deletion. Staging records an undo
// entry but no category record; the terminal delete record is only written
// once the bulk deletion has actually succeeded. Deletion against the asset
// source is one confirmable operation, so queuing avoids a confirmation per
// swipe.
type DeleteQueue struct {
	store  *Store
	logger *zap.Logger

	mu      sync.Mutex
	entries []stagedEntry
}

// NewDeleteQueue constructs an empty queue writing through the given store.
func NewDeleteQueue(store *Store, logger *zap.Logger) *DeleteQueue {
	if logger == nil {
		logger = noOpLogger
	}
	return &DeleteQueue{store: store, logger: logger}
}

// Stage adds the asset to the queue, recording its pre-staging category in an
// undo entry. Staging an already staged asset is a no-op.
func (q *DeleteQueue) Stage(id media.AssetID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.indexLocked(id) >= 0 {
		return
	}
	q.entries = append(q.entries, q.store.stageUndo(id))
}

// Unstage removes the asset from the queue and restores its pre-staging
// category state.
func (q *DeleteQueue) Unstage(id media.AssetID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexLocked(id)
	if i < 0 {
		return
	}
	entry := q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	q.store.restoreStaged(entry)
}

// Clear unstages every queued asset.
func (q *DeleteQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, entry := range q.entries {
		q.store.restoreStaged(entry)
	}
	q.entries = nil
}

// Commit hands the full queue to the supplied physical-deletion operation.
// On success the queue is cleared and every asset receives a terminal,
// non-undoable delete record. On failure the queue and all category state are
// left exactly as they were.
func (q *DeleteQueue) Commit(deleteMany func([]media.AssetID) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}

	ids := make([]media.AssetID, 0, len(q.entries))
	for _, entry := range q.entries {
		ids = append(ids, entry.id)
	}

	if err := deleteMany(ids); err != nil {
		q.logger.Warn("bulk deletion failed; queue preserved",
			zap.Int("assets", len(ids)),
			zap.Error(err))
		return newDeletionError(len(ids), err)
	}

	q.store.finalizeDeletes(ids)
	q.entries = nil
	q.logger.Info("delete queue committed", zap.Int("assets", len(ids)))
	return nil
}

// Len reports the number of staged assets.
func (q *DeleteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Contains reports whether the asset is currently staged.
func (q *DeleteQueue) Contains(id media.AssetID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.indexLocked(id) >= 0
}

// IDs returns a snapshot of the staged identifiers in staging order.
func (q *DeleteQueue) IDs() []media.AssetID {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]media.AssetID, 0, len(q.entries))
	for _, entry := range q.entries {
		ids = append(ids, entry.id)
	}
	return ids
}

// discard drops the queue entry for an asset whose staging transition has
// already been reversed through the store's own undo.
func (q *DeleteQueue) discard(id media.AssetID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexLocked(id)
	if i < 0 {
		return
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
}

// forget empties the queue without touching the store. Used by reset, which
// wipes all state anyway.
func (q *DeleteQueue) forget() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}

func (q *DeleteQueue) indexLocked(id media.AssetID) int {
	for i, entry := range q.entries {
		if entry.id == id {
			return i
		}
	}
	return -1
}
