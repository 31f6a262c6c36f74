package pager

import "fmt"

const (
	DefaultInterval = 5
	DefaultPerPage  = 4
)

// Pager maps a page number to an interleaved set of row indices.
// Page p shows rows p%Interval, +Interval, +2*Interval ... inside the block of
// Interval*PerPage rows selected by p/Interval. A field below 1, as in the
// zero value, takes its default.
type Pager struct {
	Interval int
	PerPage  int
}

func Default() Pager {
	return Pager{Interval: DefaultInterval, PerPage: DefaultPerPage}
}

func (p Pager) normalized() Pager {
	if p.Interval < 1 {
		p.Interval = DefaultInterval
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	return p
}

func New(interval, perPage int) (Pager, error) {
	if interval < 1 {
		return Pager{}, fmt.Errorf("pager: interval must be >= 1, got %d", interval)
	}
	if perPage < 1 {
		return Pager{}, fmt.Errorf("pager: responses per page must be >= 1, got %d", perPage)
	}
	return Pager{Interval: interval, PerPage: perPage}, nil
}

// TotalPages is Interval * ceil(totalRows/Interval). An empty dataset still
// gets one pattern group of (empty) pages.
func (p Pager) TotalPages(totalRows int) int {
	p = p.normalized()
	sets := totalRows / p.Interval
	if totalRows%p.Interval > 0 {
		sets++
	}
	if sets == 0 {
		return p.Interval
	}
	return p.Interval * sets
}

// Rows returns the row indices shown on page, in column order. The result is
// empty for trailing pages past the end of the dataset.
func (p Pager) Rows(page, totalRows int) []int {
	if page < 0 {
		return nil
	}
	p = p.normalized()
	patternIdx := page % p.Interval
	patternSet := page / p.Interval
	base := patternIdx + patternSet*p.Interval*p.PerPage

	rows := make([]int, 0, p.PerPage)
	for col := 0; col < p.PerPage; col++ {
		row := base + col*p.Interval
		if row >= totalRows {
			break
		}
		rows = append(rows, row)
	}
	return rows
}

// PageOf is the inverse of Rows: the page on which row is displayed.
func (p Pager) PageOf(row int) int {
	if row < 0 {
		return -1
	}
	p = p.normalized()
	block := p.Interval * p.PerPage
	return (row/block)*p.Interval + (row%block)%p.Interval
}
