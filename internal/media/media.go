package media

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

// ErrInvalidAssetID indicates that an asset identifier is empty or exceeds storage bounds.
var ErrInvalidAssetID = errors.New("media: invalid asset id")

// AssetID represents a validated, opaque asset identifier. It is stable for
// the lifetime of the collection and unique per item.
type AssetID string

// NewAssetID validates raw input and returns an AssetID.
func NewAssetID(rawInput string) (AssetID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAssetID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidAssetID, maxIdentifierLength)
	}
	return AssetID(trimmed), nil
}

// String returns the underlying string identifier.
func (id AssetID) String() string {
	return string(id)
}

// Kind enumerates the supported media kinds.
type Kind string

const (
	// KindPhoto is a still image.
	KindPhoto Kind = "photo"
	// KindVideo is a playable video item.
	KindVideo Kind = "video"
)

// Metadata carries the narrow per-asset facts the core needs. It is fetched
// once per asset; the live platform handle never crosses into the core.
type Metadata struct {
	Kind      Kind
	Duration  time.Duration
	CreatedAt time.Time
	GroupID   string
}

// Asset pairs an identifier with its metadata.
type Asset struct {
	ID       AssetID
	Metadata Metadata
}
