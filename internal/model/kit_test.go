package model

import (
	"errors"
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestDisplayPrefix(t *testing.T) {
	tests := []struct {
		name string
		kit  Kit
		want string
	}{
		{"hg with subline", Kit{Brand: BrandBandai, ProductLine: ProductLineGundam, Grade: GradeHG, Subline: SublineHGUC}, "HGUC"},
		{"hg without subline", Kit{Brand: BrandBandai, ProductLine: ProductLineGundam, Grade: GradeHG}, "HG"},
		{"master grade", Kit{Brand: BrandBandai, ProductLine: ProductLineGundam, Grade: GradeMG}, "MG"},
		{"third-party brand", Kit{Brand: BrandMotorNuclear, ProductLine: ProductLineGundam}, "Motor Nuclear"},
		{"third-party brand ignores grade", Kit{Brand: BrandSNAA, Grade: GradeHG, Subline: SublineHGCE}, "SNAA"},
		{"bandai kamen rider", Kit{Brand: BrandBandai, ProductLine: ProductLineKamenRider}, "Kamen Rider"},
		{"empty product line treated as gundam", Kit{Brand: BrandBandai, Grade: GradeRG}, "RG"},
	}

	for _, tt := range tests {
		if got := tt.kit.DisplayPrefix(); got != tt.want {
			t.Errorf("%s: DisplayPrefix() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDisplayTitle(t *testing.T) {
	k := Kit{
		Brand:       BrandBandai,
		ProductLine: ProductLineGundam,
		Grade:       GradeHG,
		Subline:     SublineHGUC,
		ModelNumber: "191",
		ModelName:   "RX-78-2 Gundam Revive",
	}
	if got, want := k.DisplayTitle(), "HGUC 191 RX-78-2 Gundam Revive"; got != want {
		t.Errorf("DisplayTitle() = %q, want %q", got, want)
	}

	k = Kit{Brand: BrandBandai, ProductLine: ProductLineKamenRider, ModelName: "Figure-rise Kuuga"}
	if got, want := k.DisplayTitle(), "Kamen Rider Figure-rise Kuuga"; got != want {
		t.Errorf("DisplayTitle() = %q, want %q", got, want)
	}
}

func TestSeriesAbbreviation(t *testing.T) {
	tests := map[string]string{
		"Iron-Blooded Orphans": "IBO",
		"SEED Destiny":         "SEED D",
		"Build Fighters Try":   "BFT",
		"Unknown Series":       "",
	}
	for in, want := range tests {
		if got := SeriesAbbreviation(in); got != want {
			t.Errorf("SeriesAbbreviation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImageRefResolve(t *testing.T) {
	full := ImageRef{Thumbnail: "t", Medium: "m", Full: "f"}
	onlyFull := ImageRef{Full: "f"}
	onlyMedium := ImageRef{Medium: "m"}
	simple := ImageRef{URL: "data:image/jpeg;base64,AAAA"}

	tests := []struct {
		ref  ImageRef
		size ImageSize
		want string
	}{
		{full, SizeThumbnail, "t"},
		{full, SizeMedium, "m"},
		{full, SizeFull, "f"},
		{onlyFull, SizeThumbnail, "f"},
		{onlyFull, SizeMedium, "f"},
		{onlyMedium, SizeFull, "m"},
		{onlyMedium, SizeThumbnail, "m"},
		{ImageRef{Thumbnail: "t"}, SizeMedium, ""},
		{simple, SizeThumbnail, simple.URL},
		{simple, SizeFull, simple.URL},
		{ImageRef{}, SizeMedium, ""},
	}

	for _, tt := range tests {
		if got := tt.ref.Resolve(tt.size); got != tt.want {
			t.Errorf("%+v.Resolve(%s) = %q, want %q", tt.ref, tt.size, got, tt.want)
		}
	}
}

func TestImageRefIsEmpty(t *testing.T) {
	if !(ImageRef{URL: "  "}).IsEmpty() {
		t.Error("whitespace-only reference should be empty")
	}
	if (ImageRef{Medium: "m"}).IsEmpty() {
		t.Error("reference with a medium url should not be empty")
	}
}

func TestKitInputValidate(t *testing.T) {
	valid := func() KitInput {
		return KitInput{
			Grade:       GradeHG,
			Subline:     SublineHGUC,
			ModelNumber: "191",
			ModelName:   "RX-78-2 Gundam",
		}
	}

	tests := []struct {
		name      string
		mutate    func(*KitInput)
		wantField string
	}{
		{"valid", func(*KitInput) {}, ""},
		{"missing grade for bandai gundam", func(in *KitInput) { in.Grade = ""; in.Subline = "" }, "grade"},
		{"subline without hg", func(in *KitInput) { in.Grade = GradeMG }, "subline"},
		{"third-party brand needs no grade", func(in *KitInput) { in.Brand = BrandCangDao; in.Grade = ""; in.Subline = "" }, ""},
		{"kamen rider needs no grade", func(in *KitInput) { in.ProductLine = ProductLineKamenRider; in.Grade = ""; in.Subline = "" }, ""},
		{"missing model number", func(in *KitInput) { in.ModelNumber = "   " }, "model_number"},
		{"missing model name", func(in *KitInput) { in.ModelName = "" }, "model_name"},
		{"model number too long", func(in *KitInput) { in.ModelNumber = strings.Repeat("1", 51) }, "model_number"},
		{"model name too long", func(in *KitInput) { in.ModelName = strings.Repeat("x", 256) }, "model_name"},
		{"series too long", func(in *KitInput) { in.Series = strings.Repeat("s", 101) }, "series"},
		{"negative price", func(in *KitInput) { in.PurchasePrice = ptr(-1.0) }, "purchase_price"},
		{"zero price allowed", func(in *KitInput) { in.PurchasePrice = ptr(0.0) }, ""},
		{"zero release year", func(in *KitInput) { in.ReleaseYear = ptr(0) }, "release_year"},
		{"unknown brand", func(in *KitInput) { in.Brand = "Kotobukiya" }, "brand"},
		{"unknown grade", func(in *KitInput) { in.Grade = "XG"; in.Subline = "" }, "grade"},
	}

	for _, tt := range tests {
		in := valid()
		tt.mutate(&in)
		err := in.Validate()

		if tt.wantField == "" {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}

		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected *ValidationError, got %T", tt.name, err)
			continue
		}
		found := false
		for _, f := range verr.Fields {
			if f.Field == tt.wantField {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: expected error on %q, got %v", tt.name, tt.wantField, verr.Fields)
		}
	}
}

func TestKitInputDefaults(t *testing.T) {
	in := KitInput{Grade: GradeRG, ModelNumber: " 1 ", ModelName: " Zaku "}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if in.Brand != BrandBandai || in.ProductLine != ProductLineGundam {
		t.Errorf("defaults not applied: %q / %q", in.Brand, in.ProductLine)
	}
	if in.ModelNumber != "1" || in.ModelName != "Zaku" {
		t.Errorf("text not trimmed: %q / %q", in.ModelNumber, in.ModelName)
	}

	var k Kit
	in.Apply(&k)
	if k.ModelName != "Zaku" || k.Grade != GradeRG {
		t.Errorf("Apply did not copy fields: %+v", k)
	}
}
