package model

// Brand is the kit manufacturer.
type Brand string

// Brands.
const (
	BrandBandai       Brand = "Bandai"
	BrandSNAA         Brand = "SNAA"
	BrandMotorNuclear Brand = "Motor Nuclear"
	BrandInEraPlus    Brand = "In Era+"
	BrandHemoxian     Brand = "Hemoxian"
	BrandCangDao      Brand = "CangDao"
	BrandAniMester    Brand = "AniMester"
	BrandOther        Brand = "Other"

	DefaultBrand = BrandBandai
)

// Brands lists every brand in display order.
var Brands = []Brand{
	BrandBandai, BrandSNAA, BrandMotorNuclear, BrandInEraPlus,
	BrandHemoxian, BrandCangDao, BrandAniMester, BrandOther,
}

// Valid reports whether b is a known brand.
func (b Brand) Valid() bool {
	for _, v := range Brands {
		if b == v {
			return true
		}
	}
	return false
}

// ProductLine is the franchise a kit belongs to.
type ProductLine string

// Product lines.
const (
	ProductLineGundam     ProductLine = "Gundam"
	ProductLineKamenRider ProductLine = "Kamen Rider"
	ProductLineOther      ProductLine = "Other"

	DefaultProductLine = ProductLineGundam
)

// ProductLines lists every product line.
var ProductLines = []ProductLine{ProductLineGundam, ProductLineKamenRider, ProductLineOther}

// Valid reports whether p is a known product line.
func (p ProductLine) Valid() bool {
	for _, v := range ProductLines {
		if p == v {
			return true
		}
	}
	return false
}

// Grade is the manufacturer complexity/scale tier.
type Grade string

// Grades.
const (
	GradeHG    Grade = "HG"
	GradeRG    Grade = "RG"
	GradeMG    Grade = "MG"
	GradePG    Grade = "PG"
	GradeEG    Grade = "EG"
	GradeSD    Grade = "SD"
	GradeBB    Grade = "BB"
	GradeRE100 Grade = "RE/100"
	GradeFM    Grade = "FM"
	GradeNG    Grade = "NG"
)

// Grades lists every grade.
var Grades = []Grade{
	GradeHG, GradeRG, GradeMG, GradePG, GradeEG,
	GradeSD, GradeBB, GradeRE100, GradeFM, GradeNG,
}

// Valid reports whether g is a known grade.
func (g Grade) Valid() bool {
	for _, v := range Grades {
		if g == v {
			return true
		}
	}
	return false
}

// Subline is a High Grade sub-classification tied to one continuity.
type Subline string

// Sublines.
const (
	SublineHGUC  Subline = "HGUC"
	SublineHGIBO Subline = "HGIBO"
	SublineHGCE  Subline = "HGCE"
	SublineHG00  Subline = "HG00"
	SublineHGAC  Subline = "HGAC"
	SublineHGAGE Subline = "HGAGE"
	SublineHGBF  Subline = "HGBF"
	SublineHGGTO Subline = "HGGTO"
	SublineHGBC  Subline = "HGBC"
)

// Sublines lists every subline.
var Sublines = []Subline{
	SublineHGUC, SublineHGIBO, SublineHGCE, SublineHG00, SublineHGAC,
	SublineHGAGE, SublineHGBF, SublineHGGTO, SublineHGBC,
}

// Valid reports whether s is a known subline.
func (s Subline) Valid() bool {
	for _, v := range Sublines {
		if s == v {
			return true
		}
	}
	return false
}
