package model

import (
	"strings"
	"time"
)

// Kit is a single scale-model kit tracked by a user, either owned or wished for.
type Kit struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"owner_id"`
	Brand         Brand       `json:"brand"`
	ProductLine   ProductLine `json:"product_line"`
	Grade         Grade       `json:"grade,omitempty"`
	Subline       Subline     `json:"subline,omitempty"`
	ModelNumber   string      `json:"model_number"`
	ModelName     string      `json:"model_name"`
	Series        string      `json:"series,omitempty"`
	ReleaseYear   *int        `json:"release_year,omitempty"`
	Owned         bool        `json:"owned"`
	Exclusive     bool        `json:"exclusive"`
	PurchaseDate  *time.Time  `json:"purchase_date,omitempty"`
	PurchasePrice *float64    `json:"purchase_price,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Image         ImageRef    `json:"image"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Price returns the purchase price, or 0 when none was recorded.
func (k *Kit) Price() float64 {
	if k.PurchasePrice == nil {
		return 0
	}
	return *k.PurchasePrice
}

// HasImage reports whether the kit carries any image reference.
func (k *Kit) HasImage() bool {
	return !k.Image.IsEmpty()
}

// DisplayPrefix returns the short label shown before the model number.
// Third-party brands show the brand, Bandai kits outside the Gundam line show
// the product line, and Gundam kits show the HG subline or the grade.
func (k *Kit) DisplayPrefix() string {
	if k.Brand != DefaultBrand {
		return string(k.Brand)
	}
	if k.ProductLine != DefaultProductLine && k.ProductLine != "" {
		return string(k.ProductLine)
	}
	if k.Grade == GradeHG && k.Subline != "" {
		return string(k.Subline)
	}
	return string(k.Grade)
}

// DisplayTitle formats a kit as "[PREFIX] [MODEL_NUMBER] [MODEL_NAME]",
// e.g. "HGUC 191 RX-78-2 Gundam Revive".
func (k *Kit) DisplayTitle() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{k.DisplayPrefix(), k.ModelNumber, k.ModelName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

var seriesAbbreviations = map[string]string{
	"Iron-Blooded Orphans": "IBO",
	"Universal Century":    "UC",
	"Cosmic Era":           "CE",
	"Gundam 00":            "00",
	"Wing":                 "Wing",
	"SEED":                 "SEED",
	"SEED Destiny":         "SEED D",
	"Age":                  "AGE",
	"Reconguista in G":     "RG",
	"Build Fighters":       "BF",
	"Build Fighters Try":   "BFT",
	"Build Divers":         "BD",
}

// SeriesAbbreviation returns the short form of a known series name, or "".
func SeriesAbbreviation(series string) string {
	return seriesAbbreviations[series]
}
