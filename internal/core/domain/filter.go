package domain

import (
	"strings"
)

// Filter defaults and slider settings.
const (
	SiteAll         = "all"
	DefaultPriceMin = 0
	DefaultPriceMax = 1000000
	PriceStep       = 10000
)

// SiteOptions lists the values offered by the site selector, in display order.
var SiteOptions = []string{SiteAll, SiteArgenprop, SiteZonaprop}

// Filter narrows the properties of the page currently loaded. It never
// triggers a new fetch and is never persisted.
type Filter struct {
	SearchTerm string
	Site       string
	PriceMin   float64
	PriceMax   float64
}

// DefaultFilter matches every property of a page.
func DefaultFilter() Filter {
	return Filter{
		Site:     SiteAll,
		PriceMin: DefaultPriceMin,
		PriceMax: DefaultPriceMax,
	}
}

// IsDefault reports whether f is the no-op filter.
func (f Filter) IsDefault() bool {
	return f == DefaultFilter()
}

// Normalized fills an empty site with "all" and swaps inverted bounds.
func (f Filter) Normalized() Filter {
	if f.Site == "" {
		f.Site = SiteAll
	}
	if f.PriceMin > f.PriceMax {
		f.PriceMin, f.PriceMax = f.PriceMax, f.PriceMin
	}
	return f
}

// Matches: title contains the term (case-insensitive), the site matches
// unless "all" is selected, and the price lies in [PriceMin, PriceMax].
func (f Filter) Matches(p Property) bool {
	if !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.SearchTerm)) {
		return false
	}
	if f.Site != SiteAll && p.Site != f.Site {
		return false
	}
	price, ok := p.Price()
	if !ok {
		return false
	}
	return price >= f.PriceMin && price <= f.PriceMax
}

// Apply returns the matching properties in their original order.
func (f Filter) Apply(properties []Property) []Property {
	out := make([]Property, 0, len(properties))
	for _, p := range properties {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
