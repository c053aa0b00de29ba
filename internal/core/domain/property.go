package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
)

// Known origin portals of the scraped listings.
const (
	SiteArgenprop = "argenprop"
	SiteZonaprop  = "zonaprop"
)

const geohashPrecision = 9

// Property is one scraped rental listing. Measures and amounts are kept as
// the text the scraper stored; helpers below extract numbers from them.
type Property struct {
	ID               string
	Title            string
	Description      string
	ExtraFeatures    string
	Site             string
	Neighborhood     string
	PropertyTypeID   string
	PropertyTypeName string
	PublisherName    string
	PublisherPhone   string
	PriceAmount      string
	PriceCurrency    string
	ExpensesAmount   string
	ExpensesCurrency string
	WhatsApp         string
	TotalArea        string
	CoveredArea      string
	Rooms            string
	Bedrooms         string
	Bathrooms        string
	Age              string
	Latitude         *float64
	Longitude        *float64
	Address          string
	Images           string
	URL              string
	ScrapedAt        *time.Time

	// Photos is derived from Images by ParsePhotos.
	Photos []string
}

// ParsePhotos splits the pipe-delimited image string and keeps the entries
// that start with "http".
func ParsePhotos(images string) []string {
	if images == "" {
		return []string{}
	}
	parts := strings.Split(images, "|")
	photos := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "http") {
			photos = append(photos, p)
		}
	}
	return photos
}

// CoverPhoto is the first photo, or "" when the listing has none.
func (p Property) CoverPhoto() string {
	if len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}

var firstIntegerRe = regexp.MustCompile(`\d+`)

// FirstInteger returns the first run of digits in text, or 0.
// "3 dormitorios" -> 3, "45 m²" -> 45, "a estrenar" -> 0.
func FirstInteger(text string) int {
	m := firstIntegerRe.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// NumericValue converts a stored amount into a number. An empty amount
// counts as 0; text that is not a plain number is reported with ok=false.
func NumericValue(text string) (value float64, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Price is the numeric listing price used by the price-range filter.
func (p Property) Price() (float64, bool) {
	return NumericValue(p.PriceAmount)
}

// CurrencySymbol maps the stored currency to what cards display.
func CurrencySymbol(currency string) string {
	if currency == "$" {
		return "$"
	}
	return "USD"
}

// HasExpenses reports whether the listing declares monthly expenses.
func (p Property) HasExpenses() bool {
	return FirstInteger(p.ExpensesAmount) > 0
}

// WhatsAppNumber drops the ".0" the scraper appends to numeric phones.
func (p Property) WhatsAppNumber() string {
	return strings.Replace(p.WhatsApp, ".0", "", 1)
}

// HasLocation reports whether both coordinates are present.
func (p Property) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Geohash encodes the coordinates, or returns "" when they are missing.
func (p Property) Geohash() string {
	if !p.HasLocation() {
		return ""
	}
	return geohash.EncodeWithPrecision(*p.Latitude, *p.Longitude, geohashPrecision)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp shapes Postgres and the scrapers
// produce. Unparseable input yields nil.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
