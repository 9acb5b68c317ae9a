package triage

import (
	"fmt"
	"sort"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
)

// memoryConfig shapes an in-memory tier. The plain fallback tier is
// unbounded with a full undo log; the emergency tier caps records and keeps
// no undo log so it runs in constant memory.
type memoryConfig struct {
	name       string
	maxRecords int
	undo       bool
}

// memoryBackend serves the in-memory and emergency tiers of the chain.
type memoryBackend struct {
	cfg     memoryConfig
	records map[media.AssetID]CategoryRecord
	undo    []UndoRecord
}

func newMemoryBackend(cfg memoryConfig) (*memoryBackend, error) {
	if cfg.maxRecords < 0 {
		return nil, fmt.Errorf("triage: negative record cap %d", cfg.maxRecords)
	}
	if cfg.name == "" {
		cfg.name = "memory"
	}
	return &memoryBackend{
		cfg:     cfg,
		records: make(map[media.AssetID]CategoryRecord),
	}, nil
}

func (b *memoryBackend) Name() string {
	return b.cfg.name
}

func (b *memoryBackend) Category(id media.AssetID) (Category, bool, error) {
	record, ok := b.records[id]
	if !ok {
		return "", false, nil
	}
	return Category(record.Category), true, nil
}

func (b *memoryBackend) Upsert(record CategoryRecord) error {
	id := media.AssetID(record.AssetID)
	if b.cfg.maxRecords > 0 {
		if _, exists := b.records[id]; !exists && len(b.records) >= b.cfg.maxRecords {
			b.evictOldest()
		}
	}
	b.records[id] = record
	return nil
}

// evictOldest drops the least recently assigned record to hold the cap.
func (b *memoryBackend) evictOldest() {
	var victim media.AssetID
	oldest := int64(-1)
	for id, record := range b.records {
		if oldest < 0 || record.AssignedAtSeconds < oldest {
			victim = id
			oldest = record.AssignedAtSeconds
		}
	}
	if oldest >= 0 {
		delete(b.records, victim)
	}
}

func (b *memoryBackend) Remove(id media.AssetID) error {
	delete(b.records, id)
	return nil
}

func (b *memoryBackend) RemoveMany(ids []media.AssetID) error {
	for _, id := range ids {
		delete(b.records, id)
	}
	return nil
}

func (b *memoryBackend) Counts() (Counts, error) {
	var counts Counts
	for _, record := range b.records {
		switch Category(record.Category) {
		case CategoryKeep:
			counts.Keep++
		case CategoryDelete:
			counts.Delete++
		case CategoryFavorite:
			counts.Favorite++
		}
	}
	return counts, nil
}

func (b *memoryBackend) AppendUndo(record UndoRecord) error {
	if !b.cfg.undo {
		return nil
	}
	b.undo = append(b.undo, record)
	sort.Slice(b.undo, func(i, j int) bool {
		return b.undo[i].EntryID < b.undo[j].EntryID
	})
	return nil
}

func (b *memoryBackend) TrimUndo(limit int) error {
	if excess := len(b.undo) - limit; excess > 0 {
		b.undo = append(b.undo[:0:0], b.undo[excess:]...)
	}
	return nil
}

func (b *memoryBackend) NewestUndo() (*UndoRecord, error) {
	if len(b.undo) == 0 {
		return nil, nil
	}
	record := b.undo[len(b.undo)-1]
	return &record, nil
}

func (b *memoryBackend) DeleteUndo(entryID string) error {
	for i, record := range b.undo {
		if record.EntryID == entryID {
			b.undo = append(b.undo[:i], b.undo[i+1:]...)
			return nil
		}
	}
	return nil
}

func (b *memoryBackend) PurgeUndoForAssets(ids []media.AssetID) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id.String()] = struct{}{}
	}
	kept := b.undo[:0]
	for _, record := range b.undo {
		if _, gone := drop[record.AssetID]; !gone {
			kept = append(kept, record)
		}
	}
	b.undo = kept
	return nil
}

func (b *memoryBackend) UndoLength() (int64, error) {
	return int64(len(b.undo)), nil
}

func (b *memoryBackend) Clear() error {
	b.records = make(map[media.AssetID]CategoryRecord)
	b.undo = nil
	return nil
}

// disabledBackend is the terminal tier: mutations are no-ops and reads are
// empty. The store logs once when it lands here.
type disabledBackend struct{}

func (disabledBackend) Name() string                                      { return "disabled" }
func (disabledBackend) Category(media.AssetID) (Category, bool, error)    { return "", false, nil }
func (disabledBackend) Upsert(CategoryRecord) error                       { return nil }
func (disabledBackend) Remove(media.AssetID) error                        { return nil }
func (disabledBackend) RemoveMany([]media.AssetID) error                  { return nil }
func (disabledBackend) Counts() (Counts, error)                           { return Counts{}, nil }
func (disabledBackend) AppendUndo(UndoRecord) error                       { return nil }
func (disabledBackend) TrimUndo(int) error                                { return nil }
func (disabledBackend) NewestUndo() (*UndoRecord, error)                  { return nil, nil }
func (disabledBackend) DeleteUndo(string) error                           { return nil }
func (disabledBackend) PurgeUndoForAssets([]media.AssetID) error          { return nil }
func (disabledBackend) UndoLength() (int64, error)                        { return 0, nil }
func (disabledBackend) Clear() error                                      { return nil }
