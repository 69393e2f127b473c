package listing

import (
	"errors"
	"fmt"
	"iter"
)

// ErrUnknownFilterValue is returned by ParseFilter for values outside the filter vocabulary.
var ErrUnknownFilterValue = errors.New("listing: unknown filter value")

// Filter selects listings by status. FilterAll selects everything.
type Filter string

// FilterAll is the sentinel that matches every listing.
const FilterAll Filter = "all"

// ByStatus returns the filter matching exactly s.
func ByStatus(s Status) Filter {
	return Filter(s.String())
}

// DefaultFilters is the set offered by the dashboard. Closed statuses are accepted
// by ParseFilter but not advertised.
func DefaultFilters() []Filter {
	return []Filter{FilterAll, ByStatus(StatusAvailable), ByStatus(StatusPending), ByStatus(StatusSold)}
}

// ParseFilter validates external input against the filter vocabulary.
func ParseFilter(s string) (Filter, error) {
	if s == "" || Filter(s) == FilterAll {
		return FilterAll, nil
	}
	if _, err := ParseStatus(s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownFilterValue, s)
	}
	return Filter(s), nil
}

// Source exposes the listing collection a FilterIndex reads from.
// The index never mutates or retains the returned slice beyond one iteration.
type Source interface {
	Listings() []*Listing
}

// SourceFunc adapts a function to Source.
type SourceFunc func() []*Listing

// Listings calls f.
func (f SourceFunc) Listings() []*Listing { return f() }

// Slice is a Source over a fixed slice.
type Slice []*Listing

// Listings returns s.
func (s Slice) Listings() []*Listing { return s }

// FilterIndex is a read-only filtered view over a collection owned elsewhere.
type FilterIndex struct {
	source Source
}

// NewFilterIndex builds an index over source.
func NewFilterIndex(source Source) *FilterIndex {
	return &FilterIndex{source: source}
}

// Filter yields the listings matching f in their original order. The source is
// consulted again on every call. An unknown filter value is a programming error
// and panics.
func (x *FilterIndex) Filter(f Filter) iter.Seq[*Listing] {
	match := matcher(f)
	return func(yield func(*Listing) bool) {
		for _, l := range x.source.Listings() {
			if !match(l) {
				continue
			}
			if !yield(l) {
				return
			}
		}
	}
}

// Collect drains Filter(f) into a slice.
func (x *FilterIndex) Collect(f Filter) []*Listing {
	out := make([]*Listing, 0)
	for l := range x.Filter(f) {
		out = append(out, l)
	}
	return out
}

func matcher(f Filter) func(*Listing) bool {
	if f == FilterAll {
		return func(*Listing) bool { return true }
	}
	status, err := ParseStatus(string(f))
	if err != nil {
		panic(fmt.Errorf("%w: %q", ErrUnknownFilterValue, string(f)))
	}
	return func(l *Listing) bool { return l.Status == status }
}
