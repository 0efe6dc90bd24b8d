package api

import (
	"strings"

	"github.com/erazemk/kitshelf/internal/collection"
	"github.com/erazemk/kitshelf/internal/model"
	"github.com/erazemk/kitshelf/internal/store"
	"github.com/erazemk/kitshelf/internal/upload"
)

// kitView is a kit as sent to clients, with its display labels and the
// image URL to show at each size.
type kitView struct {
	*model.Kit
	DisplayPrefix string       `json:"display_prefix"`
	DisplayTitle  string       `json:"display_title"`
	SeriesShort   string       `json:"series_short,omitempty"`
	DisplayImage  displayImage `json:"display_image"`
}

type displayImage struct {
	Thumbnail string `json:"thumbnail,omitempty"`
	Medium    string `json:"medium,omitempty"`
	Full      string `json:"full,omitempty"`
}

func newKitView(k *model.Kit) kitView {
	return kitView{
		Kit:           k,
		DisplayPrefix: k.DisplayPrefix(),
		DisplayTitle:  k.DisplayTitle(),
		SeriesShort:   model.SeriesAbbreviation(k.Series),
		DisplayImage: displayImage{
			Thumbnail: k.Image.Resolve(model.SizeThumbnail),
			Medium:    k.Image.Resolve(model.SizeMedium),
			Full:      k.Image.Resolve(model.SizeFull),
		},
	}
}

type listResponse struct {
	collection.Page
	Items []kitView `json:"items"`
}

func newListResponse(p collection.Page) listResponse {
	items := make([]kitView, len(p.Items))
	for i := range p.Items {
		items[i] = newKitView(&p.Items[i])
	}
	return listResponse{Page: p, Items: items}
}

// ownsImagePath reports whether a stored path belongs to kitID.
func ownsImagePath(kitID, path string) bool {
	return kitID != "" && strings.HasPrefix(path, upload.KitPrefix(kitID))
}

// checkImageRef rejects references to stored media outside kitID's own
// images. External URLs and data URIs pass. kitID is "" for a kit that does
// not exist yet.
func checkImageRef(blobs *store.BlobStore, kitID string, ref model.ImageRef) error {
	if blobs == nil {
		return nil
	}
	for _, u := range []string{ref.URL, ref.Thumbnail, ref.Medium, ref.Full} {
		if path, ok := blobs.PathOf(u); ok && !ownsImagePath(kitID, path) {
			return &model.ValidationError{Fields: []model.FieldError{
				{Field: "image", Message: "refers to an image stored for another kit"},
			}}
		}
	}
	return nil
}
