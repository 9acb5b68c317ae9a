package triage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// undoLimit bounds the undo log; the oldest entries are trimmed first.
const undoLimit = 100

// emergencyRecordCap bounds the emergency tier so it runs in constant memory.
const emergencyRecordCap = 512

var noOpLogger = zap.NewNop()

// Tier identifies which storage tier the store is currently running on.
// Downgrades are one-directional; the store never re-promotes within a session.
type Tier int

const (
	// TierPersistent is the sqlite-backed tier.
	TierPersistent Tier = iota
	// TierMemory is the unbounded in-memory fallback.
	TierMemory
	// TierEmergency is the hard-capped in-memory tier without an undo log.
	TierEmergency
	// TierDisabled turns mutations into no-ops and reads into empty results.
	TierDisabled
)

// String returns the tier name used in logs.
func (t Tier) String() string {
	switch t {
	case TierPersistent:
		return "persistent"
	case TierMemory:
		return "memory"
	case TierEmergency:
		return "emergency"
	default:
		return "disabled"
	}
}

// StoreConfig describes the dependencies of the category store.
type StoreConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

type lookupEntry struct {
	category Category
	found    bool
}

// Store is the durable mapping from asset identifier to category, with a
// read-through lookup cache, cached aggregate counts, and a bounded undo log.
// Mutations are serialized; reads against the caches are lock-free.
type Store struct {
	mu      sync.Mutex
	backend backend
	tier    Tier
	clock   func() time.Time
	ids     IDProvider
	logger  *zap.Logger
	lookup  sync.Map
	counts  atomic.Pointer[Counts]
}

// NewStore constructs the store and selects the strongest reachable tier.
// Construction never fails: every tier failure descends the chain, ending at
// the disabled tier where decisions are silently dropped.
func NewStore(cfg StoreConfig) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	s := &Store{
		clock:  clock,
		ids:    ids,
		logger: logger,
	}
	s.backend, s.tier = s.selectBackend(cfg.Database)
	switch s.tier {
	case TierPersistent:
	case TierDisabled:
		s.logger.Error("category store disabled; decisions will not be recorded")
	default:
		s.logger.Warn("category store running degraded",
			zap.String("tier", s.tier.String()))
	}
	return s
}

func (s *Store) selectBackend(db *gorm.DB) (backend, Tier) {
	if db != nil {
		persistent := newGormBackend(db)
		err := persistent.ping()
		if err == nil {
			return persistent, TierPersistent
		}
		s.logger.Error("persistent tier unavailable", zap.Error(err))
	} else {
		s.logger.Warn("no database handle; skipping persistent tier")
	}

	fallback, err := newMemoryBackend(memoryConfig{name: "memory", undo: true})
	if err == nil {
		return fallback, TierMemory
	}
	s.logger.Error("in-memory tier unavailable", zap.Error(err))

	emergency, err := newMemoryBackend(memoryConfig{name: "emergency", maxRecords: emergencyRecordCap})
	if err == nil {
		return emergency, TierEmergency
	}
	s.logger.Error("emergency tier unavailable", zap.Error(err))

	return disabledBackend{}, TierDisabled
}

// Tier reports the tier currently in use.
func (s *Store) Tier() Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// degrade swaps in the next weaker tier after a backend failure. Records held
// by the failed tier are not migrated; the session continues on fresh state
// rather than crashing. Caller holds s.mu.
func (s *Store) degrade(operation string, cause error) {
	from := s.tier
	switch s.tier {
	case TierPersistent:
		next, err := newMemoryBackend(memoryConfig{name: "memory", undo: true})
		if err == nil {
			s.backend, s.tier = next, TierMemory
			break
		}
		fallthrough
	case TierMemory:
		next, err := newMemoryBackend(memoryConfig{name: "emergency", maxRecords: emergencyRecordCap})
		if err == nil {
			s.backend, s.tier = next, TierEmergency
			break
		}
		fallthrough
	default:
		s.backend, s.tier = disabledBackend{}, TierDisabled
	}
	s.logger.Error("storage tier downgraded",
		zap.String("operation", operation),
		zap.String("from", from.String()),
		zap.String("to", s.tier.String()),
		zap.Error(cause))
	s.invalidateAllLocked()
}

// run executes fn against the current backend, descending the chain on
// failure. The disabled tier never errors, so the loop always terminates.
// Caller holds s.mu.
func (s *Store) run(operation string, fn func(backend) error) {
	for {
		err := fn(s.backend)
		if err == nil {
			return
		}
		s.degrade(operation, err)
	}
}

func (s *Store) invalidate(id media.AssetID) {
	s.lookup.Delete(id)
	s.counts.Store(nil)
}

func (s *Store) invalidateAllLocked() {
	s.lookup.Range(func(key, _ any) bool {
		s.lookup.Delete(key)
		return true
	})
	s.counts.Store(nil)
}

// Category returns the asset's category, or false when the asset is unsorted.
// Results, including negative ones, are cached until the next mutation of the
// same asset.
func (s *Store) Category(id media.AssetID) (Category, bool) {
	if cached, ok := s.lookup.Load(id); ok {
		entry := cached.(lookupEntry)
		return entry.category, entry.found
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryLocked(id)
}

func (s *Store) categoryLocked(id media.AssetID) (Category, bool) {
	if cached, ok := s.lookup.Load(id); ok {
		entry := cached.(lookupEntry)
		return entry.category, entry.found
	}
	var entry lookupEntry
	s.run("category_lookup", func(b backend) error {
		category, found, err := b.Category(id)
		if err != nil {
			return err
		}
		entry = lookupEntry{category: category, found: found}
		return nil
	})
	s.lookup.Store(id, entry)
	return entry.category, entry.found
}

// Counts returns the aggregate counts of live category records. The value is
// cached until the next mutation and recomputed at most once per invalidation.
func (s *Store) Counts() Counts {
	if cached := s.counts.Load(); cached != nil {
		return *cached
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached := s.counts.Load(); cached != nil {
		return *cached
	}
	var counts Counts
	s.run("counts", func(b backend) error {
		computed, err := b.Counts()
		if err != nil {
			return err
		}
		counts = computed
		return nil
	})
	s.counts.Store(&counts)
	return counts
}

// Assign upserts the asset's category record, resolving the previous category
// from the existing record, and appends an undo entry.
func (s *Store) Assign(id media.AssetID, category Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignLocked(id, category, nil, true)
}

// AssignWithPrevious upserts with a caller-supplied previous category so
// callers never need to read before writing.
func (s *Store) AssignWithPrevious(id media.AssetID, category Category, previous Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignLocked(id, category, &previous, true)
}

func (s *Store) assignLocked(id media.AssetID, category Category, previous *Category, recordUndo bool) {
	var resolvedPrevious Category
	var hasPrevious bool
	if previous != nil {
		resolvedPrevious, hasPrevious = *previous, true
	} else {
		resolvedPrevious, hasPrevious = s.categoryLocked(id)
	}

	record := newCategoryRecord(id, category, s.clock().UTC().Unix())
	s.run("assign", func(b backend) error {
		return b.Upsert(record)
	})

	if recordUndo {
		s.appendUndoLocked(id, resolvedPrevious, hasPrevious, category)
	}
	s.invalidate(id)
}

// appendUndoLocked appends one undo entry and trims the log to its bound.
// Returns the entry identifier, or "" when the entry could not be created.
func (s *Store) appendUndoLocked(id media.AssetID, previous Category, hasPrevious bool, next Category) string {
	entryID, err := s.ids.NewID()
	if err != nil {
		s.logger.Error("undo entry id generation failed",
			zap.String("asset_id", id.String()),
			zap.Error(err))
		return ""
	}
	record := UndoRecord{
		EntryID:           entryID,
		AssetID:           id.String(),
		HasPrevious:       hasPrevious,
		NewCategory:       next.String(),
		RecordedAtSeconds: s.clock().UTC().Unix(),
	}
	if hasPrevious {
		record.PreviousCategory = previous.String()
	}
	s.run("undo_append", func(b backend) error {
		if err := b.AppendUndo(record); err != nil {
			return err
		}
		return b.TrimUndo(undoLimit)
	})
	return entryID
}

// Remove deletes the asset's category record, returning it to unsorted.
func (s *Store) Remove(id media.AssetID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store) removeLocked(id media.AssetID) {
	s.run("remove", func(b backend) error {
		return b.Remove(id)
	})
	s.invalidate(id)
}

// RemoveMany deletes the given records in one backend operation and
// invalidates the aggregate counts once, not once per asset.
func (s *Store) RemoveMany(ids []media.AssetID) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run("remove_many", func(b backend) error {
		return b.RemoveMany(ids)
	})
	for _, id := range ids {
		s.lookup.Delete(id)
	}
	s.counts.Store(nil)
}

// Undo reverses the newest logged transition and reports the affected asset.
// Reversal itself is not undoable: it re-assigns without recording a new
// entry, or deletes the record when the asset was previously unsorted.
func (s *Store) Undo() (media.AssetID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest *UndoRecord
	s.run("undo_peek", func(b backend) error {
		record, err := b.NewestUndo()
		if err != nil {
			return err
		}
		newest = record
		return nil
	})
	if newest == nil {
		return "", false
	}

	id := media.AssetID(newest.AssetID)
	if previous, ok := newest.previous(); ok {
		s.assignLocked(id, previous, nil, false)
	} else {
		s.removeLocked(id)
	}
	s.run("undo_pop", func(b backend) error {
		return b.DeleteUndo(newest.EntryID)
	})
	return id, true
}

// CanUndo reports whether the undo log has at least one entry.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var length int64
	s.run("undo_length", func(b backend) error {
		n, err := b.UndoLength()
		if err != nil {
			return err
		}
		length = n
		return nil
	})
	return length > 0
}

// Reset deletes every category record and undo entry and clears all caches.
// Irreversible.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run("reset", func(b backend) error {
		return b.Clear()
	})
	s.invalidateAllLocked()
}

// stagedEntry remembers what a staging undo entry recorded, so the queue can
// restore the pre-staging state even after the log trimmed the entry away.
type stagedEntry struct {
	id          media.AssetID
	entryID     string
	previous    Category
	hasPrevious bool
}

// stageUndo records the undoable staging transition for the delete queue
// without writing a category record.
func (s *Store) stageUndo(id media.AssetID) stagedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, hasPrevious := s.categoryLocked(id)
	entryID := s.appendUndoLocked(id, previous, hasPrevious, CategoryDelete)
	return stagedEntry{
		id:          id,
		entryID:     entryID,
		previous:    previous,
		hasPrevious: hasPrevious,
	}
}

// restoreStaged puts an unstaged asset back to its pre-staging state and
// discards the now-irrelevant undo entry.
func (s *Store) restoreStaged(entry stagedEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.hasPrevious {
		s.assignLocked(entry.id, entry.previous, nil, false)
	} else {
		s.removeLocked(entry.id)
	}
	if entry.entryID != "" {
		s.run("undo_discard", func(b backend) error {
			return b.DeleteUndo(entry.entryID)
		})
	}
}

// finalizeDeletes writes terminal, non-undoable delete records for assets
// whose physical deletion has been confirmed, and purges their undo entries
// so local undo can never resurrect them.
func (s *Store) finalizeDeletes(ids []media.AssetID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.assignLocked(id, CategoryDelete, nil, false)
	}
	s.run("undo_purge", func(b backend) error {
		return b.PurgeUndoForAssets(ids)
	})
}
