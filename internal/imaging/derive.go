package imaging

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/kitshelf/internal/model"
)

// Preset is the compression setting for one derived size. Width governs the
// output; the height follows the source aspect ratio.
type Preset struct {
	Size    model.ImageSize
	Width   int
	Quality float64
}

// Presets are the three responsive sizes, nominally bounded by 200x200,
// 400x600 and 800x1200.
var Presets = [3]Preset{
	{Size: model.SizeThumbnail, Width: 200, Quality: 0.70},
	{Size: model.SizeMedium, Width: 400, Quality: 0.75},
	{Size: model.SizeFull, Width: 800, Quality: 0.78},
}

// ImageSet is the result of deriving all three sizes from one source.
type ImageSet struct {
	Thumbnail           *Blob
	Medium              *Blob
	Full                *Blob
	OriginalSize        int64
	TotalCompressedSize int64
}

// Get returns the blob for a size, or nil for an unknown size.
func (s *ImageSet) Get(size model.ImageSize) *Blob {
	switch size {
	case model.SizeThumbnail:
		return s.Thumbnail
	case model.SizeMedium:
		return s.Medium
	case model.SizeFull:
		return s.Full
	}
	return nil
}

// DeriveError reports which size failed during derivation.
type DeriveError struct {
	Size model.ImageSize
	Err  error
}

func (e *DeriveError) Error() string {
	return fmt.Sprintf("deriving %s image: %v", e.Size, e.Err)
}

func (e *DeriveError) Unwrap() error { return e.Err }

// CompressFunc has the signature of Compress.
type CompressFunc func(ctx context.Context, src []byte, targetWidth int, quality float64) (*Blob, error)

// Observer receives compression outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	Compressed(size model.ImageSize, inBytes, outBytes int64)
	Failed(size model.ImageSize)
}

// Deriver produces the thumbnail, medium and full sizes of an image.
// The zero value uses Compress and records nothing.
type Deriver struct {
	Compress CompressFunc
	Observer Observer
}

// DeriveSizes compresses src into all three presets concurrently. Either all
// three succeed or the call fails with a *DeriveError naming the first size
// that failed; the remaining compressions are cancelled.
func (d *Deriver) DeriveSizes(ctx context.Context, src []byte) (*ImageSet, error) {
	compress := d.Compress
	if compress == nil {
		compress = Compress
	}

	var blobs [len(Presets)]*Blob
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range Presets {
		g.Go(func() error {
			blob, err := compress(gctx, src, p.Width, p.Quality)
			if err != nil {
				// Sizes stopped by a sibling's failure are not failures themselves.
				cancelled := errors.Is(err, context.Canceled) && gctx.Err() != nil
				if d.Observer != nil && !cancelled {
					d.Observer.Failed(p.Size)
				}
				return &DeriveError{Size: p.Size, Err: err}
			}
			if d.Observer != nil {
				d.Observer.Compressed(p.Size, int64(len(src)), blob.Size())
			}
			blobs[i] = blob
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &ImageSet{
		Thumbnail:    blobs[0],
		Medium:       blobs[1],
		Full:         blobs[2],
		OriginalSize: int64(len(src)),
	}
	for _, b := range blobs {
		set.TotalCompressedSize += b.Size()
	}
	return set, nil
}
