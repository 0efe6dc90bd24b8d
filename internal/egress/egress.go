// Package egress estimates storage and bandwidth savings from image
// compression. Every function is pure and deterministic.
package egress

import (
	"math"

	"github.com/erazemk/kitshelf/internal/model"
)

const (
	// GiB is the divisor used for every gigabyte figure.
	GiB = 1 << 30

	// MonthlyViews is the view count assumed for a single upload's savings.
	MonthlyViews = 5000

	// OptimizedKitBytes is the estimated size of one kit's three derived images.
	OptimizedKitBytes = 330 << 10
	// OriginalKitBytes is the estimated size of one unoptimized phone photo.
	OriginalKitBytes = 5 << 19

	// Views per image per month at each usage tier.
	ConservativeViews = 100
	ModerateViews     = 500
	HeavyViews        = 1000
)

// Savings describes the effect of compressing one image.
type Savings struct {
	OriginalSize       int64   `json:"original_size"`
	CompressedSize     int64   `json:"compressed_size"`
	SavedBytes         int64   `json:"saved_bytes"`
	ReductionPercent   float64 `json:"reduction_percent"`
	ProjectedMonthlyGB float64 `json:"projected_monthly_gb"`
}

// Inflated reports whether compression produced more bytes than it consumed.
func (s Savings) Inflated() bool {
	return s.SavedBytes < 0
}

// EstimateSavings compares an original and compressed size. Inflation is
// reported as negative savings rather than clamped to zero.
func EstimateSavings(originalSize, compressedSize int64) Savings {
	saved := originalSize - compressedSize
	s := Savings{
		OriginalSize:       originalSize,
		CompressedSize:     compressedSize,
		SavedBytes:         saved,
		ProjectedMonthlyGB: round(float64(saved)*MonthlyViews/GiB, 2),
	}
	if originalSize > 0 {
		s.ReductionPercent = round(float64(saved)/float64(originalSize)*100, 1)
	}
	return s
}

// MonthlyEgress is the projected monthly transfer in GB per usage tier.
type MonthlyEgress struct {
	Conservative float64 `json:"conservative"`
	Moderate     float64 `json:"moderate"`
	Heavy        float64 `json:"heavy"`
}

// ImageStats summarizes the image footprint of a collection.
type ImageStats struct {
	TotalKits          int           `json:"total_kits"`
	KitsWithImages     int           `json:"kits_with_images"`
	EstimatedTotalSize int64         `json:"estimated_total_size"`
	AverageImageSize   int64         `json:"average_image_size"`
	MonthlyEgress      MonthlyEgress `json:"monthly_egress"`
}

// AggregateCollectionStats estimates storage and monthly egress for the kits
// that carry an image.
func AggregateCollectionStats(kits []model.Kit) ImageStats {
	withImages := countWithImages(kits)
	total := int64(withImages) * OptimizedKitBytes

	stats := ImageStats{
		TotalKits:          len(kits),
		KitsWithImages:     withImages,
		EstimatedTotalSize: total,
		MonthlyEgress: MonthlyEgress{
			Conservative: tierGB(withImages, ConservativeViews),
			Moderate:     tierGB(withImages, ModerateViews),
			Heavy:        tierGB(withImages, HeavyViews),
		},
	}
	if withImages > 0 {
		stats.AverageImageSize = total / int64(withImages)
	}
	return stats
}

// Optimization is the estimated saving of compressing every kit image.
type Optimization struct {
	SavedPerKitKB           int64   `json:"saved_per_kit_kb"`
	TotalSavedStorageGB     float64 `json:"total_saved_storage_gb"`
	EstimatedMonthlySavings float64 `json:"estimated_monthly_savings_gb"`
	CompressionRatioPercent int     `json:"compression_ratio_percent"`
}

// OptimizationSavings estimates what compression saves across a collection
// compared to storing original photos, at moderate usage.
func OptimizationSavings(kits []model.Kit) Optimization {
	const savedPerKit = OriginalKitBytes - OptimizedKitBytes
	withImages := int64(countWithImages(kits))

	return Optimization{
		SavedPerKitKB:           savedPerKit >> 10,
		TotalSavedStorageGB:     round(float64(withImages*savedPerKit)/GiB, 2),
		EstimatedMonthlySavings: round(float64(withImages*ModerateViews*savedPerKit)/GiB, 2),
		CompressionRatioPercent: int(math.Round(float64(savedPerKit) / OriginalKitBytes * 100)),
	}
}

// Totals are the headline numbers of a collection.
type Totals struct {
	Total      int     `json:"total"`
	Owned      int     `json:"owned"`
	Wishlist   int     `json:"wishlist"`
	TotalSpent float64 `json:"total_spent"`
}

// CollectionTotals counts owned and wishlist kits and sums every recorded
// purchase price.
func CollectionTotals(kits []model.Kit) Totals {
	t := Totals{Total: len(kits)}
	for i := range kits {
		if kits[i].Owned {
			t.Owned++
		} else {
			t.Wishlist++
		}
		t.TotalSpent += kits[i].Price()
	}
	t.TotalSpent = round(t.TotalSpent, 2)
	return t
}

func countWithImages(kits []model.Kit) int {
	n := 0
	for i := range kits {
		if kits[i].HasImage() {
			n++
		}
	}
	return n
}

func tierGB(kitsWithImages, viewsPerImage int) float64 {
	return round(float64(int64(kitsWithImages)*int64(viewsPerImage)*OptimizedKitBytes)/GiB, 2)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
