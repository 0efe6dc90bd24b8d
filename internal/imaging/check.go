package imaging

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
)

// MaxFileSize is the largest accepted upload.
const MaxFileSize = 10 << 20

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
)

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// CheckFile validates an upload before any decoding happens. The MIME type is
// sniffed from the bytes, not taken from client headers. It returns the
// detected MIME type.
func CheckFile(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedType)
	}
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("%w: %s exceeds the %s limit", ErrTooLarge,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(MaxFileSize))
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return "", fmt.Errorf("%w: %s (JPEG, PNG, WebP and GIF accepted)", ErrUnsupportedType, detected)
	}
	return detected, nil
}
