package triage

import (
	"context"
	"errors"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
	"go.uber.org/zap"
)

var (
	errMissingStore   = errors.New("triage: store is required")
	errMissingDeleter = errors.New("triage: deleter is required")
)

// Deleter performs the physical bulk deletion against the asset source.
type Deleter interface {
	DeleteMany(ctx context.Context, ids []media.AssetID) error
}

// SessionConfig describes the dependencies of a triage session.
type SessionConfig struct {
	Store   *Store
	Deleter Deleter
	Logger  *zap.Logger
}

// Session is the operation surface the UI layer drives: category lookups and
// counts on the read side, assignment, undo, staging, and queue commit on the
// write side.
type Session struct {
	store   *Store
	queue   *DeleteQueue
	deleter Deleter
	logger  *zap.Logger
}

// NewSession wires a session over the given store.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Session{
		store:   cfg.Store,
		queue:   NewDeleteQueue(cfg.Store, logger),
		deleter: cfg.Deleter,
		logger:  logger,
	}, nil
}

// StorageErr reports ErrStorageUnavailable when every storage tier failed.
// Callers check this once at startup; per-call mutations never surface it.
func (s *Session) StorageErr() error {
	if s.store.Tier() == TierDisabled {
		return ErrStorageUnavailable
	}
	return nil
}

// Category returns the asset's category, or false when it is unsorted.
func (s *Session) Category(id media.AssetID) (Category, bool) {
	return s.store.Category(id)
}

// Assign records the user's decision for the asset.
func (s *Session) Assign(id media.AssetID, category Category) {
	s.store.Assign(id, category)
}

// Undo reverses the most recent undoable transition. When that transition was
// a staging, the asset also leaves the delete queue.
func (s *Session) Undo() (media.AssetID, bool) {
	id, ok := s.store.Undo()
	if ok {
		s.queue.discard(id)
	}
	return id, ok
}

// CanUndo reports whether an undoable transition exists.
func (s *Session) CanUndo() bool {
	return s.store.CanUndo()
}

// Counts returns the aggregate counts of live category records.
func (s *Session) Counts() Counts {
	return s.store.Counts()
}

// DeletedCount counts assets whose physical deletion has been confirmed.
func (s *Session) DeletedCount() int64 {
	return s.store.Counts().Delete
}

// PendingDeleteCount counts assets staged but not yet committed. Kept
// separate from DeletedCount so the caller decides how to combine the two.
func (s *Session) PendingDeleteCount() int {
	return s.queue.Len()
}

// PendingDeletes returns the staged identifiers in staging order.
func (s *Session) PendingDeletes() []media.AssetID {
	return s.queue.IDs()
}

// Stage queues the asset for deletion.
func (s *Session) Stage(id media.AssetID) {
	s.queue.Stage(id)
}

// Unstage removes the asset from the delete queue, restoring its prior state.
func (s *Session) Unstage(id media.AssetID) {
	s.queue.Unstage(id)
}

// UnstageAll empties the delete queue, restoring every staged asset.
func (s *Session) UnstageAll() {
	s.queue.Clear()
}

// CommitDeleteQueue performs the physical bulk deletion of everything staged.
// On failure the queue and category state are untouched and the returned
// DeletionError carries the affected asset count.
func (s *Session) CommitDeleteQueue(ctx context.Context) error {
	if s.deleter == nil {
		return errMissingDeleter
	}
	return s.queue.Commit(func(ids []media.AssetID) error {
		return s.deleter.DeleteMany(ctx, ids)
	})
}

// Reset irreversibly deletes all decisions, the undo log, and the queue.
func (s *Session) Reset() {
	s.queue.forget()
	s.store.Reset()
}
