package model

import "strings"

// ImageSize names one of the derived image variants.
type ImageSize string

// Image sizes.
const (
	SizeThumbnail ImageSize = "thumbnail"
	SizeMedium    ImageSize = "medium"
	SizeFull      ImageSize = "full"
)

// ImageRef points at a kit's photo. The simple path stores a single URL or
// data URI in URL; the multi-size path stores one URL per derived size.
type ImageRef struct {
	URL       string `json:"url,omitempty"`
	Thumbnail string `json:"thumbnail_url,omitempty"`
	Medium    string `json:"medium_url,omitempty"`
	Full      string `json:"full_url,omitempty"`
}

// IsEmpty reports whether no usable reference is set.
func (r ImageRef) IsEmpty() bool {
	return strings.TrimSpace(r.URL) == "" &&
		strings.TrimSpace(r.Thumbnail) == "" &&
		strings.TrimSpace(r.Medium) == "" &&
		strings.TrimSpace(r.Full) == ""
}

// Resolve returns the URL to display for the given size, falling back to
// the nearest available variant: thumbnail -> medium -> full, medium -> full,
// full -> medium. A single-URL reference serves every size.
func (r ImageRef) Resolve(size ImageSize) string {
	var url string
	switch size {
	case SizeThumbnail:
		url = firstNonEmpty(r.Thumbnail, r.Medium, r.Full)
	case SizeFull:
		url = firstNonEmpty(r.Full, r.Medium)
	default:
		url = firstNonEmpty(r.Medium, r.Full)
	}
	if url == "" {
		url = strings.TrimSpace(r.URL)
	}
	return url
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
