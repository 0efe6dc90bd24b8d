package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// KitInput is the writable part of a kit, as accepted on create and update.
type KitInput struct {
	Brand         Brand       `json:"brand"`
	ProductLine   ProductLine `json:"product_line"`
	Grade         Grade       `json:"grade"`
	Subline       Subline     `json:"subline"`
	ModelNumber   string      `json:"model_number" validate:"required,max=50"`
	ModelName     string      `json:"model_name" validate:"required,max=255"`
	Series        string      `json:"series" validate:"max=100"`
	ReleaseYear   *int        `json:"release_year" validate:"omitempty,gt=0"`
	Owned         bool        `json:"owned"`
	Exclusive     bool        `json:"exclusive"`
	PurchaseDate  *time.Time  `json:"purchase_date"`
	PurchasePrice *float64    `json:"purchase_price" validate:"omitempty,gte=0"`
	Notes         string      `json:"notes"`
	Image         ImageRef    `json:"image"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims text fields and fills in the default brand and product line.
func (in *KitInput) Normalize() {
	in.ModelNumber = strings.TrimSpace(in.ModelNumber)
	in.ModelName = strings.TrimSpace(in.ModelName)
	in.Series = strings.TrimSpace(in.Series)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Brand == "" {
		in.Brand = DefaultBrand
	}
	if in.ProductLine == "" {
		in.ProductLine = DefaultProductLine
	}
}

// RequiresGrade reports whether a grade must be set for the brand and product line.
func (in *KitInput) RequiresGrade() bool {
	return in.Brand == BrandBandai && in.ProductLine == ProductLineGundam
}

// Validate normalizes the input and checks field limits, enum membership and
// the grade/subline rules. It returns a *ValidationError on failure.
func (in *KitInput) Validate() error {
	in.Normalize()

	verr := &ValidationError{}
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validating kit: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(jsonFieldName(fe.Field()), describeTag(fe))
		}
	}

	if !in.Brand.Valid() {
		verr.add("brand", fmt.Sprintf("unknown brand %q", in.Brand))
	}
	if !in.ProductLine.Valid() {
		verr.add("product_line", fmt.Sprintf("unknown product line %q", in.ProductLine))
	}
	if in.Grade != "" && !in.Grade.Valid() {
		verr.add("grade", fmt.Sprintf("unknown grade %q", in.Grade))
	}
	if in.Subline != "" && !in.Subline.Valid() {
		verr.add("subline", fmt.Sprintf("unknown subline %q", in.Subline))
	}

	if in.RequiresGrade() && in.Grade == "" {
		verr.add("grade", "required for Bandai Gundam kits")
	}
	if in.Subline != "" && in.Grade != GradeHG {
		verr.add("subline", "only allowed for HG kits")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Apply copies the input onto a kit, leaving identity and timestamps alone.
func (in *KitInput) Apply(k *Kit) {
	k.Brand = in.Brand
	k.ProductLine = in.ProductLine
	k.Grade = in.Grade
	k.Subline = in.Subline
	k.ModelNumber = in.ModelNumber
	k.ModelName = in.ModelName
	k.Series = in.Series
	k.ReleaseYear = in.ReleaseYear
	k.Owned = in.Owned
	k.Exclusive = in.Exclusive
	k.PurchaseDate = in.PurchaseDate
	k.PurchasePrice = in.PurchasePrice
	k.Notes = in.Notes
	k.Image = in.Image
}

func jsonFieldName(field string) string {
	switch field {
	case "ModelNumber":
		return "model_number"
	case "ModelName":
		return "model_name"
	case "Series":
		return "series"
	case "ReleaseYear":
		return "release_year"
	case "PurchasePrice":
		return "purchase_price"
	}
	return strings.ToLower(field)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be negative"
	}
	return "is invalid"
}
