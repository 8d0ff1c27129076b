package history

// Pager holds a fetched trip snapshot together with the active filter and
// page. It is owned by a single page session and is not safe for concurrent
// use.
type Pager struct {
	size     int
	trips    []Trip
	filter   Filter
	filtered []Trip
	page     int
}

func NewPager(trips []Trip, size int) *Pager {
	if size < 1 {
		size = DefaultPageSize
	}
	p := &Pager{size: size}
	p.Reset(trips)
	return p
}

// Reset replaces the snapshot, keeping the filter and returning to page 1.
func (p *Pager) Reset(trips []Trip) {
	p.trips = trips
	p.filtered = Apply(trips, p.filter)
	p.page = 1
}

// SetFilter applies f to the snapshot and returns to page 1.
func (p *Pager) SetFilter(f Filter) {
	p.filter = f
	p.filtered = Apply(p.trips, f)
	p.page = 1
}

func (p *Pager) Filter() Filter { return p.filter }

func (p *Pager) Filtered() []Trip { return p.filtered }

func (p *Pager) Page() []Trip {
	return Paginate(p.filtered, p.size, p.page)
}

func (p *Pager) PageNumber() int { return p.page }

func (p *Pager) Pages() int {
	return Pages(len(p.filtered), p.size)
}

// Next moves forward one page and reports whether it moved.
func (p *Pager) Next() bool {
	if p.page >= p.Pages() {
		return false
	}
	p.page++
	return true
}

// Prev moves back one page and reports whether it moved.
func (p *Pager) Prev() bool {
	if p.page <= 1 {
		return false
	}
	p.page--
	return true
}

// GoTo jumps to page n, clamped into range.
func (p *Pager) GoTo(n int) {
	p.page = min(max(n, 1), p.Pages())
}
