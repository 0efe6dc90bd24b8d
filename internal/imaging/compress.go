package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// OutputMIME is the MIME type of every compressed blob.
const OutputMIME = "image/jpeg"

// MaxPixels bounds the decoded source area to keep memory use predictable.
const MaxPixels = 64_000_000

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDecode          = errors.New("decoding image")
	ErrEncode          = errors.New("encoding image")
)

// Blob is a compressed image ready for storage.
type Blob struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Size returns the encoded size in bytes.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}

// Compress decodes src, resizes it to exactly targetWidth pixels wide with
// the height following the source aspect ratio, and re-encodes it as JPEG.
// quality is in (0, 1].
func Compress(ctx context.Context, src []byte, targetWidth int, quality float64) (*Blob, error) {
	if targetWidth <= 0 {
		return nil, fmt.Errorf("%w: target width must be positive, got %d", ErrInvalidArgument, targetWidth)
	}
	if !(quality > 0 && quality <= 1) {
		return nil, fmt.Errorf("%w: quality must be in (0, 1], got %v", ErrInvalidArgument, quality)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := decode(src)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := targetDimensions(bounds.Dx(), bounds.Dy(), targetWidth)
	dst := resize(img, w, h)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder produced no data", ErrEncode)
	}

	return &Blob{
		Data:   buf.Bytes(),
		MIME:   OutputMIME,
		Width:  w,
		Height: h,
	}, nil
}

func decode(src []byte) (image.Image, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimensions", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	// Animated GIFs decode to their first frame.
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// targetDimensions returns the output size for a source of w0 x h0 scaled to
// width w. The height is rounded and never below 1.
func targetDimensions(w0, h0, w int) (int, int) {
	h := int(math.Round(float64(w) * float64(h0) / float64(w0)))
	if h < 1 {
		h = 1
	}
	return w, h
}

// resize scales img into a w x h RGBA canvas over an opaque white background.
// Uses high-quality Catmull-Rom interpolation.
func resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	return max(1, min(100, v))
}
