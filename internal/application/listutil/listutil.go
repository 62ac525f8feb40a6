package listutil

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"memberadmin/internal/domain/member"
)

// PageSize is the fixed number of rows per page.
const PageSize = 10

// SortParams carries presentational sorting parsed from a request.
type SortParams struct {
	Sort string // column name, empty for store order
	Dir  string // "asc" or "desc"
}

// SortColumns are the columns the table can be sorted by.
var SortColumns = []string{member.FieldName, member.FieldEmail, member.FieldRole}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // max(1, ceil(Total / PerPage))
}

// Filter returns the records whose name, email or role contains query, ignoring case.
// PRE: none
// POST: Order is preserved; empty query returns records unchanged; no match returns an empty slice
// INVARIANT: records is not mutated
func Filter(records []member.Member, query string) []member.Member {
	if query == "" {
		return records
	}
	out := make([]member.Member, 0, len(records))
	for _, r := range records {
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return out
}

// TotalPages returns the number of pages needed for count rows.
// POST: Returns max(1, ceil(count / PageSize))
func TotalPages(count int) int {
	pages := (count + PageSize - 1) / PageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Slice returns the rows of the given 1-indexed page.
// PRE: none; pages outside [1, TotalPages] yield an empty slice
// POST: Returns records[(page-1)*PageSize : page*PageSize] clipped to len(records)
func Slice[T any](records []T, page int) []T {
	if page < 1 {
		return records[:0]
	}
	start := (page - 1) * PageSize
	if start >= len(records) {
		return records[len(records):]
	}
	end := start + PageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// ClampPage moves page into [1, TotalPages(total)].
func ClampPage(page, total int) int {
	if last := TotalPages(total); page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	return page
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, total int) PageInfo {
	return PageInfo{
		Page:       ClampPage(page, total),
		PerPage:    PageSize,
		Total:      total,
		TotalPages: TotalPages(total),
	}
}

// Offset returns the index of the first row on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row number on the current page.
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
// POST: Returns min(Offset+PerPage, Total)
func (p PageInfo) EndRow() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// HasPrev reports whether a Prev control should render.
func (p PageInfo) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a Next control should render.
func (p PageInfo) HasNext() bool {
	return p.Page < p.TotalPages
}

// PrevPage returns the page before the current one.
func (p PageInfo) PrevPage() int {
	return p.Page - 1
}

// NextPage returns the page after the current one.
func (p PageInfo) NextPage() int {
	return p.Page + 1
}

// PageNumbers returns every valid page number, one button each.
// POST: Returns 1..TotalPages
func (p PageInfo) PageNumbers() []int {
	pages := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ParsePage extracts the page query parameter.
// PRE: none
// POST: ok is false when the parameter is absent; page is at least 1
func ParsePage(q url.Values) (page int, ok bool) {
	if !q.Has("page") {
		return 0, false
	}
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	return page, true
}

// ParseSortParams extracts sort and dir from URL query values.
// PRE: none
// POST: returns SortParams; Dir is always "asc" or "desc"; unknown columns are dropped
func ParseSortParams(q url.Values) SortParams {
	col := q.Get("sort")
	dir := q.Get("dir")

	if !isAllowedColumn(col) {
		col = ""
	}
	if dir != "asc" && dir != "desc" {
		dir = "asc"
	}
	return SortParams{Sort: col, Dir: dir}
}

// SortMembers returns a sorted copy of records. Ties keep their original order.
// PRE: none
// POST: records is not mutated; an empty Sort returns the input order
func SortMembers(records []member.Member, sp SortParams) []member.Member {
	out := make([]member.Member, len(records))
	copy(out, records)
	if sp.Sort == "" {
		return out
	}

	key := func(m member.Member) string {
		switch sp.Sort {
		case member.FieldEmail:
			return strings.ToLower(m.Email)
		case member.FieldRole:
			return strings.ToLower(m.Role)
		default:
			return strings.ToLower(m.Name)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if sp.Dir == "desc" {
			return key(out[i]) > key(out[j])
		}
		return key(out[i]) < key(out[j])
	})
	return out
}

func isAllowedColumn(col string) bool {
	for _, a := range SortColumns {
		if col == a {
			return true
		}
	}
	return false
}
