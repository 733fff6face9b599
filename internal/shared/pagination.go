package shared

// DefaultPerPage is used when a listing asks for a non-positive page size.
const DefaultPerPage = 20

// Pagination describes one page of an in-memory listing.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination normalises page and perPage for total rows.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	p := Pagination{Page: max(page, 1), PerPage: perPage, Total: total}
	if total > 0 {
		p.TotalPages = (total + perPage - 1) / perPage
	}
	return p
}

// Bounds returns the half-open row range of the page, clamped to Total.
func (p Pagination) Bounds() (start, end int) {
	start = min((p.Page-1)*p.PerPage, p.Total)
	end = min(start+p.PerPage, p.Total)
	return start, end
}

// HasNext reports whether a later page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// Prev returns the previous page number.
func (p Pagination) Prev() int { return max(p.Page-1, 1) }

// Next returns the next page number.
func (p Pagination) Next() int { return min(p.Page+1, max(p.TotalPages, 1)) }
