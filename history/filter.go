package history

import "github.com/semanticallynull/twomove-rider/reservation"

// Filter narrows the trip list. Zero fields are not applied.
type Filter struct {
	Estado    reservation.Estado
	TipoViaje reservation.TipoViaje
	// Fecha is a YYYY-MM-DD calendar day.
	Fecha string
}

func (f Filter) Empty() bool {
	return f == Filter{}
}

// Match reports whether t satisfies every predicate set in f.
func (f Filter) Match(t Trip) bool {
	if f.Estado != "" && t.Estado != f.Estado {
		return false
	}
	if f.TipoViaje != "" && t.TipoViaje != f.TipoViaje {
		return false
	}
	if f.Fecha != "" && t.Day() != f.Fecha {
		return false
	}
	return true
}

// Apply returns the trips matching f in their original order. An empty
// filter returns trips as is.
func Apply(trips []Trip, f Filter) []Trip {
	if f.Empty() {
		return trips
	}
	out := make([]Trip, 0, len(trips))
	for _, t := range trips {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Pages is the number of pages needed for n items, at least one.
func Pages(n, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns the 1-indexed page of list. page is clamped into range,
// so asking past the end yields the last page.
func Paginate[T any](list []T, size, page int) []T {
	if size < 1 {
		size = DefaultPageSize
	}
	if len(list) == 0 {
		return []T{}
	}
	page = min(max(page, 1), Pages(len(list), size))
	start := (page - 1) * size
	end := min(start+size, len(list))
	return list[start:end]
}
