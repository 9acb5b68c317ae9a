package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/assets"
	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
)

func writeFile(t *testing.T, root, name string, modTime time.Time) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("unexpected mkdir error: %v", err)
	}
	if err := os.WriteFile(path, []byte("content of "+name), 0o644); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("unexpected chtimes error: %v", err)
	}
}

func newTestLibrary(t *testing.T) (*Library, string) {
	t.Helper()
	root := t.TempDir()
	lib, err := New(Config{Root: root})
	if err != nil {
		t.Fatalf("unexpected library error: %v", err)
	}
	return lib, root
}

func TestLibraryRequiresRoot(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestLibraryFetchAllOrdersByCreationTime(t *testing.T) {
	lib, root := newTestLibrary(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, root, "newest.jpg", base.Add(2*time.Hour))
	writeFile(t, root, "oldest.mp4", base)
	writeFile(t, root, "middle.png", base.Add(time.Hour))
	writeFile(t, root, "notes.txt", base) // not media, skipped

	found, err := lib.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(found))
	}
	if found[0].ID != media.AssetID("oldest.mp4") {
		t.Fatalf("expected oldest first, got %s", found[0].ID)
	}
	if found[2].ID != media.AssetID("newest.jpg") {
		t.Fatalf("expected newest last, got %s", found[2].ID)
	}
	if found[0].Metadata.Kind != media.KindVideo {
		t.Fatalf("expected video kind, got %s", found[0].Metadata.Kind)
	}
	if found[2].Metadata.Kind != media.KindPhoto {
		t.Fatalf("expected photo kind, got %s", found[2].Metadata.Kind)
	}
}

func TestLibraryFetchAllWalksSubdirectories(t *testing.T) {
	lib, root := newTestLibrary(t)
	now := time.Now()
	writeFile(t, root, filepath.Join("2024", "06", "trip.jpg"), now)

	found, err := lib.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(found))
	}
	if found[0].ID != media.AssetID("2024/06/trip.jpg") {
		t.Fatalf("unexpected id %s", found[0].ID)
	}
	if found[0].Metadata.GroupID != "2024/06" {
		t.Fatalf("unexpected group %s", found[0].Metadata.GroupID)
	}
}

func TestLibraryLoadRendition(t *testing.T) {
	lib, root := newTestLibrary(t)
	writeFile(t, root, "photo.jpg", time.Now())

	rendition, err := lib.LoadRendition(context.Background(), media.AssetID("photo.jpg"), assets.QualityPreview, func(assets.Rendition) {
		t.Fatalf("local files should not deliver progressively")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(rendition.Data) != "content of photo.jpg" {
		t.Fatalf("unexpected rendition bytes %q", rendition.Data)
	}
	if rendition.Degraded {
		t.Fatalf("final rendition must not be degraded")
	}
}

func TestLibraryLoadRenditionRejectsEscapingIDs(t *testing.T) {
	lib, _ := newTestLibrary(t)
	_, err := lib.LoadRendition(context.Background(), media.AssetID("../outside.jpg"), assets.QualityPreview, nil)
	if !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestLibraryLoadRenditionUnknownAsset(t *testing.T) {
	lib, _ := newTestLibrary(t)
	_, err := lib.LoadRendition(context.Background(), media.AssetID("missing.jpg"), assets.QualityPreview, nil)
	if !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestLibraryDeleteMany(t *testing.T) {
	lib, root := newTestLibrary(t)
	writeFile(t, root, "a.jpg", time.Now())
	writeFile(t, root, "b.jpg", time.Now())

	err := lib.DeleteMany(context.Background(), []media.AssetID{"a.jpg", "b.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a.jpg")); !os.IsNotExist(err) {
		t.Fatalf("expected a.jpg to be gone")
	}
}

func TestLibraryDeleteManyReportsFailure(t *testing.T) {
	lib, root := newTestLibrary(t)
	writeFile(t, root, "a.jpg", time.Now())

	err := lib.DeleteMany(context.Background(), []media.AssetID{"a.jpg", "missing.jpg"})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, statErr := os.Stat(filepath.Join(root, "a.jpg")); !os.IsNotExist(statErr) {
		t.Fatalf("files before the failure stay deleted")
	}
}

func TestLibraryWarmingBookkeeping(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ids := []media.AssetID{"a.jpg", "b.jpg"}

	lib.StartWarming(ids)
	if lib.WarmCount() != 2 {
		t.Fatalf("expected 2 warm assets, got %d", lib.WarmCount())
	}
	lib.StopWarming(ids[:1])
	if lib.WarmCount() != 1 {
		t.Fatalf("expected 1 warm asset, got %d", lib.WarmCount())
	}
}
