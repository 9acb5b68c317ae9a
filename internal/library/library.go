package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/assets"
	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
	"go.uber.org/zap"
)

var (
	errMissingRoot = errors.New("library: root directory is required")
	// ErrUnknownAsset indicates an identifier outside the scanned library.
	ErrUnknownAsset = errors.New("library: unknown asset")
)

var kindByExtension = map[string]media.Kind{
	".jpg":  media.KindPhoto,
	".jpeg": media.KindPhoto,
	".png":  media.KindPhoto,
	".gif":  media.KindPhoto,
	".heic": media.KindPhoto,
	".webp": media.KindPhoto,
	".mp4":  media.KindVideo,
	".mov":  media.KindVideo,
	".m4v":  media.KindVideo,
}

// Config describes a directory-backed asset library.
type Config struct {
	Root   string
	Logger *zap.Logger
}

// Library serves a local directory tree as an assets.Source. Identifiers are
// slash-separated paths relative to the root. It exists for the CLI and for
// exercising the engine against real files; a platform-backed source plugs in
// behind the same interface.
type Library struct {
	root   string
	logger *zap.Logger

	mu   sync.Mutex
	warm map[media.AssetID]struct{}
}

// New constructs a library over the given root directory.
func New(cfg Config) (*Library, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errMissingRoot
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{
		root:   cfg.Root,
		logger: logger,
		warm:   make(map[media.AssetID]struct{}),
	}, nil
}

// FetchAll walks the root and returns every recognized media file, ordered by
// creation time, oldest first, with the identifier as tie-breaker.
func (l *Library) FetchAll(ctx context.Context) ([]media.Asset, error) {
	var found []media.Asset
	err := filepath.WalkDir(l.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		kind, ok := kindByExtension[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		relative, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		id, err := media.NewAssetID(filepath.ToSlash(relative))
		if err != nil {
			l.logger.Warn("skipping unaddressable file", zap.String("path", path), zap.Error(err))
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		found = append(found, media.Asset{
			ID: id,
			Metadata: media.Metadata{
				Kind:      kind,
				CreatedAt: info.ModTime(),
				GroupID:   filepath.ToSlash(filepath.Dir(relative)),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].Metadata.CreatedAt.Equal(found[j].Metadata.CreatedAt) {
			return found[i].Metadata.CreatedAt.Before(found[j].Metadata.CreatedAt)
		}
		return found[i].ID < found[j].ID
	})
	return found, nil
}

// LoadRendition reads the file bytes. Local files need no progressive
// delivery, so deliver is never called; the final rendition is returned
// directly. Renditions are byte-identical across qualities here — the
// library does no transcoding.
func (l *Library) LoadRendition(ctx context.Context, id media.AssetID, quality assets.Quality, deliver func(assets.Rendition)) (assets.Rendition, error) {
	path, err := l.resolve(id)
	if err != nil {
		return assets.Rendition{}, err
	}
	if ctx.Err() != nil {
		return assets.Rendition{}, ctx.Err()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return assets.Rendition{}, fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	return assets.Rendition{AssetID: id, Quality: quality, Data: data}, nil
}

// StartWarming records the warm set. Local disk needs no actual prefetch;
// the bookkeeping keeps the collaborator contract observable.
func (l *Library) StartWarming(ids []media.AssetID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		l.warm[id] = struct{}{}
	}
}

// StopWarming drops identifiers from the warm set.
func (l *Library) StopWarming(ids []media.AssetID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		delete(l.warm, id)
	}
}

// WarmCount reports the current warm-set size.
func (l *Library) WarmCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warm)
}

// DeleteMany removes the files from disk. It stops at the first failure and
// reports it; files already removed stay removed, which the caller treats as
// a failed batch and re-prompts.
func (l *Library) DeleteMany(ctx context.Context, ids []media.AssetID) error {
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		path, err := l.resolve(id)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("library: delete %s: %w", id, err)
		}
	}
	l.logger.Info("assets deleted", zap.Int("count", len(ids)))
	return nil
}

// resolve maps an identifier back to a path under the root, rejecting
// anything that would escape it.
func (l *Library) resolve(id media.AssetID) (string, error) {
	relative := filepath.FromSlash(id.String())
	if !filepath.IsLocal(relative) {
		return "", fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	return filepath.Join(l.root, relative), nil
}
