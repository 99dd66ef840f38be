package pagination

import (
	"errors"
	"strconv"
	"strings"
)

// PerPage is the listing page size used across the site.
const PerPage = 10

// Paginator splits a counted collection into fixed-size pages.
type Paginator struct {
	Count   int64
	PerPage int
}

func New(count int64, perPage int) Paginator {
	if perPage <= 0 {
		perPage = PerPage
	}
	if count < 0 {
		count = 0
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages is at least 1, even for an empty collection.
func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	return int((p.Count + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// GetPage resolves a raw query value to a page. Anything that is not an
// integer gives the first page; out-of-range numbers clamp to the first or
// last page, including ones too large for an int.
func (p Paginator) GetPage(raw string) Page {
	last := p.NumPages()
	n, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
		n = last
	case err != nil || n < 1:
		n = 1
	case n > last:
		n = last
	}
	return p.Page(n)
}

// Page builds page n, which must already be in range.
func (p Paginator) Page(n int) Page {
	return Page{Number: n, NumPages: p.NumPages(), PerPage: p.PerPage, Count: p.Count}
}

// Page describes one page of a listing. Items are loaded separately using
// Offset and Limit.
type Page struct {
	Number   int
	NumPages int
	PerPage  int
	Count    int64
}

func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

func (p Page) Limit() int { return p.PerPage }

func (p Page) HasPrevious() bool { return p.Number > 1 }

func (p Page) HasNext() bool { return p.Number < p.NumPages }

func (p Page) HasOtherPages() bool { return p.HasPrevious() || p.HasNext() }

func (p Page) PreviousNumber() int { return p.Number - 1 }

func (p Page) NextNumber() int { return p.Number + 1 }

// StartIndex is the 1-based index of the first item on the page, 0 when empty.
func (p Page) StartIndex() int64 {
	if p.Count == 0 {
		return 0
	}
	return int64(p.Offset()) + 1
}

// EndIndex is the 1-based index of the last item on the page.
func (p Page) EndIndex() int64 {
	end := int64(p.Number * p.PerPage)
	if end > p.Count {
		return p.Count
	}
	return end
}

// Range lists every page number, for rendering page links.
func (p Page) Range() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
