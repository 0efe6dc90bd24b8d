// Package upload turns one user photo into stored responsive images.
package upload

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/kitshelf/internal/egress"
	"github.com/erazemk/kitshelf/internal/imaging"
	"github.com/erazemk/kitshelf/internal/model"
)

// CacheControl is sent with every stored image. Paths embed an upload
// timestamp, so the content at a URL never changes.
const CacheControl = "public, max-age=31536000, immutable"

// BlobStorage persists blobs. Put returns the URL a blob is served from.
type BlobStorage interface {
	Put(ctx context.Context, path string, blob *imaging.Blob, cacheControl string) (string, error)
	Delete(ctx context.Context, path string) error
}

// Deriver produces the three responsive sizes of an image.
type Deriver interface {
	DeriveSizes(ctx context.Context, src []byte) (*imaging.ImageSet, error)
}

// Result is the outcome of a successful upload.
type Result struct {
	Image   model.ImageRef `json:"image"`
	Savings egress.Savings `json:"savings"`
}

// Orchestrator validates, derives and stores kit images.
type Orchestrator struct {
	Deriver Deriver
	Storage BlobStorage
	Logger  *slog.Logger

	// Now is used for path timestamps; nil means time.Now.
	Now func() time.Time
}

// Upload stores the thumbnail, medium and full sizes of src for a kit and
// returns their URLs. The three uploads run in parallel; if any fails the
// call fails.
func (o *Orchestrator) Upload(ctx context.Context, kitID string, src []byte) (*Result, error) {
	if kitID == "" {
		return nil, fmt.Errorf("uploading image: %w: empty kit id", imaging.ErrInvalidArgument)
	}

	set, err := o.derive(ctx, src)
	if err != nil {
		return nil, err
	}

	stamp := o.now().UnixMilli()
	sizes := []model.ImageSize{model.SizeThumbnail, model.SizeMedium, model.SizeFull}
	urls := make([]string, len(sizes))

	g, gctx := errgroup.WithContext(ctx)
	for i, size := range sizes {
		g.Go(func() error {
			url, err := o.Storage.Put(gctx, Path(kitID, size, stamp), set.Get(size), CacheControl)
			if err != nil {
				return fmt.Errorf("uploading %s image: %w", size, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.rollback(ctx, kitID, sizes, stamp)
		return nil, err
	}

	result := &Result{
		Image:   model.ImageRef{Thumbnail: urls[0], Medium: urls[1], Full: urls[2]},
		Savings: egress.EstimateSavings(set.OriginalSize, set.TotalCompressedSize),
	}
	o.logSavings(ctx, kitID, result.Savings)
	return result, nil
}

// InlineMedium derives all sizes of src and returns only the medium one as a
// data URI, for storing the image directly on the kit record.
func (o *Orchestrator) InlineMedium(ctx context.Context, src []byte) (*Result, error) {
	set, err := o.derive(ctx, src)
	if err != nil {
		return nil, err
	}

	uri := "data:" + set.Medium.MIME + ";base64," + base64.StdEncoding.EncodeToString(set.Medium.Data)
	result := &Result{
		Image:   model.ImageRef{URL: uri},
		Savings: egress.EstimateSavings(set.OriginalSize, set.Medium.Size()),
	}
	o.logSavings(ctx, "", result.Savings)
	return result, nil
}

func (o *Orchestrator) derive(ctx context.Context, src []byte) (*imaging.ImageSet, error) {
	if _, err := imaging.CheckFile(src); err != nil {
		return nil, err
	}
	set, err := o.Deriver.DeriveSizes(ctx, src)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// rollback deletes every size of a failed upload. A cancelled Put may still
// have landed, so all paths are removed, not just the ones that reported success.
func (o *Orchestrator) rollback(ctx context.Context, kitID string, sizes []model.ImageSize, stamp int64) {
	ctx = context.WithoutCancel(ctx)
	for _, size := range sizes {
		path := Path(kitID, size, stamp)
		if err := o.Storage.Delete(ctx, path); err != nil && o.Logger != nil {
			o.Logger.WarnContext(ctx, "failed to remove partial upload", "kit_id", kitID, "path", path, "error", err)
		}
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) logSavings(ctx context.Context, kitID string, s egress.Savings) {
	if o.Logger == nil {
		return
	}
	level := slog.LevelInfo
	if s.Inflated() {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "image compressed",
		"kit_id", kitID,
		"original", humanize.IBytes(uint64(s.OriginalSize)),
		"compressed", humanize.IBytes(uint64(s.CompressedSize)),
		"reduction_percent", s.ReductionPercent,
	)
}

// Path returns the storage path of one derived size:
// kit-images/{kitID}/{kitID}_{size}_{unixmillis}.jpg.
func Path(kitID string, size model.ImageSize, unixMillis int64) string {
	return fmt.Sprintf("kit-images/%s/%s_%s_%d.jpg", kitID, kitID, size, unixMillis)
}

// KitPrefix is the storage prefix holding every image of a kit.
func KitPrefix(kitID string) string {
	return "kit-images/" + kitID + "/"
}
