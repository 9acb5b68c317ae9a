package assets

import (
	"context"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
)

// Quality selects the rendition class to fetch.
type Quality string

const (
	// QualityThumbnail is the small grid-cell rendition.
	QualityThumbnail Quality = "thumbnail"
	// QualityPreview is the screen-sized rendition shown while swiping.
	QualityPreview Quality = "preview"
	// QualityFull is the full-resolution rendition.
	QualityFull Quality = "full"
	// QualityVideo is the playable rendition for video assets.
	QualityVideo Quality = "video"
)

// Rendition is one fetched visual representation of an asset. Degraded marks
// a progressive intermediate delivery that a better result may supersede.
type Rendition struct {
	AssetID  media.AssetID
	Quality  Quality
	Data     []byte
	Degraded bool
}

// Source is the collaborator that owns the actual media collection. The live
// platform handle stays behind this interface; the core only ever sees
// identifiers, metadata, and rendition bytes.
//
// LoadRendition may call deliver zero or more times with progressively better
// renditions before returning the final one; it must honor ctx cancellation.
type Source interface {
	FetchAll(ctx context.Context) ([]media.Asset, error)
	LoadRendition(ctx context.Context, id media.AssetID, quality Quality, deliver func(Rendition)) (Rendition, error)
	StartWarming(ids []media.AssetID)
	StopWarming(ids []media.AssetID)
	DeleteMany(ctx context.Context, ids []media.AssetID) error
}
