package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

// Query parameters of the listing page.
const (
	paramPage     = "page"
	paramSearch   = "q"
	paramSite     = "site"
	paramPriceMin = "price_min"
	paramPriceMax = "price_max"
	paramExpanded = "filters"
)

// parseFilter reads the filter state from the query string. Unknown sites
// fall back to all.
func parseFilter(query url.Values) domain.Filter {
	f := domain.DefaultFilter()
	f.SearchTerm = parseString(query, paramSearch)

	site := strings.ToLower(parseString(query, paramSite))
	for _, opt := range domain.SiteOptions {
		if site == opt {
			f.Site = site
			break
		}
	}

	if v := parseFloat(query, paramPriceMin); v != nil {
		f.PriceMin = *v
	}
	if v := parseFloat(query, paramPriceMax); v != nil {
		f.PriceMax = *v
	}
	return f.Normalized()
}

// listingURL builds a /properties link carrying page and the non-default
// parts of the filter.
func listingURL(page int, f domain.Filter, expanded bool) string {
	q := url.Values{}
	if page > 1 {
		q.Set(paramPage, strconv.Itoa(page))
	}
	if f.SearchTerm != "" {
		q.Set(paramSearch, f.SearchTerm)
	}
	if f.Site != "" && f.Site != domain.SiteAll {
		q.Set(paramSite, f.Site)
	}
	if f.PriceMin != domain.DefaultPriceMin {
		q.Set(paramPriceMin, formatAmount(f.PriceMin))
	}
	if f.PriceMax != domain.DefaultPriceMax {
		q.Set(paramPriceMax, formatAmount(f.PriceMax))
	}
	if expanded {
		q.Set(paramExpanded, "1")
	}

	if len(q) == 0 {
		return "/properties"
	}
	return "/properties?" + q.Encode()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
