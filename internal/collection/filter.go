// Package collection filters, sorts and paginates an in-memory kit list.
// It holds no state: callers thread a FilterState value through every call.
package collection

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/erazemk/kitshelf/internal/model"
)

// Ownership selects the owned/wishlist partition.
type Ownership string

// Ownership values.
const (
	OwnershipAll      Ownership = "all"
	OwnershipOwned    Ownership = "owned"
	OwnershipWishlist Ownership = "wishlist"
)

// ParseOwnership maps unknown or empty values to OwnershipAll.
func ParseOwnership(s string) Ownership {
	switch o := Ownership(strings.ToLower(strings.TrimSpace(s))); o {
	case OwnershipOwned, OwnershipWishlist:
		return o
	}
	return OwnershipAll
}

// Exclusivity selects retailer-exclusive or regular kits.
type Exclusivity string

// Exclusivity values.
const (
	ExclusiveAll     Exclusivity = "all"
	ExclusiveOnly    Exclusivity = "exclusive"
	ExclusiveRegular Exclusivity = "regular"
)

// ParseExclusivity maps unknown or empty values to ExclusiveAll.
func ParseExclusivity(s string) Exclusivity {
	switch e := Exclusivity(strings.ToLower(strings.TrimSpace(s))); e {
	case ExclusiveOnly, ExclusiveRegular:
		return e
	}
	return ExclusiveAll
}

// SortKey is the field a view is ordered by.
type SortKey string

// Sort keys. SortNone keeps the input order.
const (
	SortNone        SortKey = ""
	SortModelNumber SortKey = "model_number"
	SortModelName   SortKey = "model_name"
	SortPrice       SortKey = "price"
)

// ParseSortKey maps unknown values to SortNone.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortModelNumber, SortModelName, SortPrice:
		return k
	}
	return SortNone
}

// FilterState is the full set of browsing choices. It is a value: the With
// methods return a modified copy and never touch the receiver.
type FilterState struct {
	Ownership Ownership
	Brand     model.Brand
	Grade     model.Grade
	Subline   model.Subline
	Exclusive Exclusivity
	Search    string
	SortKey   SortKey
	SortDesc  bool
	Page      int
	ShowAll   bool
}

// NewFilterState returns the state with every filter unset, on page 1.
func NewFilterState() FilterState {
	return FilterState{
		Ownership: OwnershipAll,
		Exclusive: ExclusiveAll,
		Page:      1,
	}
}

// WithOwnership switches the owned/wishlist partition.
func (s FilterState) WithOwnership(o Ownership) FilterState {
	s.Ownership = o
	s.Page = 1
	return s
}

// WithBrand sets the brand filter; "" matches every brand.
func (s FilterState) WithBrand(b model.Brand) FilterState {
	s.Brand = b
	s.Page = 1
	return s
}

// WithGrade sets the grade filter. Any grade other than HG clears the subline.
func (s FilterState) WithGrade(g model.Grade) FilterState {
	s.Grade = g
	if g != model.GradeHG {
		s.Subline = ""
	}
	s.Page = 1
	return s
}

// WithSubline sets the subline filter. It only takes effect under grade HG.
func (s FilterState) WithSubline(sl model.Subline) FilterState {
	s.Subline = sl
	s.Page = 1
	return s
}

// WithExclusive sets the exclusive filter.
func (s FilterState) WithExclusive(e Exclusivity) FilterState {
	s.Exclusive = e
	s.Page = 1
	return s
}

// WithSearch sets the free-text search.
func (s FilterState) WithSearch(q string) FilterState {
	s.Search = q
	s.Page = 1
	return s
}

// WithSort sets the sort key and direction.
func (s FilterState) WithSort(key SortKey, desc bool) FilterState {
	s.SortKey = key
	s.SortDesc = desc
	s.Page = 1
	return s
}

// WithPage moves to page n.
func (s FilterState) WithPage(n int) FilterState {
	s.Page = n
	return s
}

// WithShowAll toggles the unpaginated view. Turning it off returns to page 1.
func (s FilterState) WithShowAll(on bool) FilterState {
	s.ShowAll = on
	if !on {
		s.Page = 1
	}
	return s
}

// ParseFilterState builds a FilterState from query parameters:
// partition, q, brand, grade, subline, exclusive, sort, order, page and all.
// Unknown values fall back to the unfiltered default.
func ParseFilterState(q url.Values) FilterState {
	st := NewFilterState()
	st.Ownership = ParseOwnership(q.Get("partition"))
	st.Exclusive = ParseExclusivity(q.Get("exclusive"))
	st.Search = q.Get("q")
	st.SortKey = ParseSortKey(q.Get("sort"))
	st.SortDesc = strings.EqualFold(q.Get("order"), "desc")

	if b := strings.TrimSpace(q.Get("brand")); b != "" && !strings.EqualFold(b, "all") {
		st.Brand = model.Brand(b)
	}
	if g := strings.TrimSpace(q.Get("grade")); g != "" && !strings.EqualFold(g, "all") {
		st.Grade = model.Grade(g)
	}
	if st.Grade == model.GradeHG {
		st.Subline = model.Subline(strings.TrimSpace(q.Get("subline")))
	}

	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		st.Page = p
	}
	if all, err := strconv.ParseBool(q.Get("all")); err == nil {
		st.ShowAll = all
	}
	return st
}

// Predicate reports whether a kit passes one filter.
type Predicate func(*model.Kit) bool

// Predicates returns one predicate per active filter. An unset filter
// contributes nothing, so an empty state yields no predicates.
func (s FilterState) Predicates() []Predicate {
	var preds []Predicate

	if q := strings.ToLower(s.Search); q != "" {
		preds = append(preds, func(k *model.Kit) bool {
			return containsFold(k.ModelName, q) ||
				containsFold(k.ModelNumber, q) ||
				containsFold(k.Series, q) ||
				containsFold(string(k.Subline), q) ||
				containsFold(string(k.Brand), q)
		})
	}
	if s.Brand != "" {
		brand := s.Brand
		preds = append(preds, func(k *model.Kit) bool { return k.Brand == brand })
	}
	if s.Grade != "" {
		grade := s.Grade
		preds = append(preds, func(k *model.Kit) bool { return k.Grade == grade })
	}
	if s.Grade == model.GradeHG && s.Subline != "" {
		subline := s.Subline
		preds = append(preds, func(k *model.Kit) bool { return k.Subline == subline })
	}
	switch s.Exclusive {
	case ExclusiveOnly:
		preds = append(preds, func(k *model.Kit) bool { return k.Exclusive })
	case ExclusiveRegular:
		preds = append(preds, func(k *model.Kit) bool { return !k.Exclusive })
	}
	switch s.Ownership {
	case OwnershipOwned:
		preds = append(preds, func(k *model.Kit) bool { return k.Owned })
	case OwnershipWishlist:
		preds = append(preds, func(k *model.Kit) bool { return !k.Owned })
	}

	return preds
}

// Filter returns the kits that pass every predicate, in input order.
// The input slice is never modified.
func Filter(kits []model.Kit, preds ...Predicate) []model.Kit {
	out := make([]model.Kit, 0, len(kits))
next:
	for i := range kits {
		for _, p := range preds {
			if !p(&kits[i]) {
				continue next
			}
		}
		out = append(out, kits[i])
	}
	return out
}

// containsFold reports whether the lowercase needle occurs in s, ignoring case.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}
