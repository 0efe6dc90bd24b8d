package collection

import (
	"cmp"
	"slices"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/erazemk/kitshelf/internal/model"
)

// PageSize is the number of kits on one page.
const PageSize = 20

// maxPageTokens is the widest page selector PageNumbers produces.
const maxPageTokens = 7

// PageToken is one entry in a page selector: a page number or Ellipsis.
type PageToken int

// Ellipsis marks a gap in the page selector.
const Ellipsis PageToken = -1

// IsEllipsis reports whether t is a gap marker.
func (t PageToken) IsEllipsis() bool { return t == Ellipsis }

func (t PageToken) String() string {
	if t.IsEllipsis() {
		return "…"
	}
	return strconv.Itoa(int(t))
}

// MarshalJSON renders page numbers as numbers and gaps as "…".
func (t PageToken) MarshalJSON() ([]byte, error) {
	if t.IsEllipsis() {
		return []byte(`"…"`), nil
	}
	return strconv.AppendInt(nil, int64(t), 10), nil
}

// Page is one rendered view of the collection.
type Page struct {
	Items       []model.Kit `json:"items"`
	Total       int         `json:"total"`
	TotalPages  int         `json:"total_pages"`
	Page        int         `json:"page"`
	ShowAll     bool        `json:"show_all"`
	PageNumbers []PageToken `json:"page_numbers"`
}

// View filters, sorts and paginates kits according to st. A page below 1 is
// treated as 1 and a page past the end as the last page. The input slice is
// never modified.
func View(kits []model.Kit, st FilterState) Page {
	filtered := Filter(kits, st.Predicates()...)
	Sort(filtered, st.SortKey, st.SortDesc)

	n := len(filtered)
	totalPages := (n + PageSize - 1) / PageSize

	if st.ShowAll {
		pages := min(totalPages, 1)
		return Page{
			Items:       filtered,
			Total:       n,
			TotalPages:  pages,
			Page:        1,
			ShowAll:     true,
			PageNumbers: PageNumbers(1, pages),
		}
	}

	page := max(st.Page, 1)
	if totalPages > 0 {
		page = min(page, totalPages)
	}

	start := min((page-1)*PageSize, n)
	end := min(start+PageSize, n)

	return Page{
		Items:       filtered[start:end:end],
		Total:       n,
		TotalPages:  totalPages,
		Page:        page,
		PageNumbers: PageNumbers(page, totalPages),
	}
}

// Sort orders kits in place by key. The sort is stable and SortNone leaves
// the order untouched. Model numbers compare naturally so "2" sorts before
// "10"; a missing price counts as 0.
func Sort(kits []model.Kit, key SortKey, desc bool) {
	var compare func(a, b *model.Kit) int

	switch key {
	case SortModelNumber:
		c := collate.New(language.Und, collate.Numeric)
		compare = func(a, b *model.Kit) int { return c.CompareString(a.ModelNumber, b.ModelNumber) }
	case SortModelName:
		c := collate.New(language.Und)
		compare = func(a, b *model.Kit) int { return c.CompareString(a.ModelName, b.ModelName) }
	case SortPrice:
		compare = func(a, b *model.Kit) int { return cmp.Compare(a.Price(), b.Price()) }
	default:
		return
	}

	slices.SortStableFunc(kits, func(a, b model.Kit) int {
		if desc {
			return -compare(&a, &b)
		}
		return compare(&a, &b)
	})
}

// PageNumbers returns the page selector for page current of total. Up to
// seven pages are listed in full; beyond that the first and last pages stay
// anchored and gaps are marked with Ellipsis.
func PageNumbers(current, total int) []PageToken {
	if total <= 0 {
		return []PageToken{}
	}

	tokens := make([]PageToken, 0, maxPageTokens)
	if total <= maxPageTokens {
		for i := 1; i <= total; i++ {
			tokens = append(tokens, PageToken(i))
		}
		return tokens
	}

	tokens = append(tokens, 1)
	switch {
	case current <= 3:
		for i := 2; i <= 5; i++ {
			tokens = append(tokens, PageToken(i))
		}
		tokens = append(tokens, Ellipsis, PageToken(total))
	case current >= total-2:
		tokens = append(tokens, Ellipsis)
		for i := total - 4; i <= total; i++ {
			tokens = append(tokens, PageToken(i))
		}
	default:
		tokens = append(tokens, Ellipsis)
		for i := current - 1; i <= current+1; i++ {
			tokens = append(tokens, PageToken(i))
		}
		tokens = append(tokens, Ellipsis, PageToken(total))
	}
	return tokens
}
