package web

import (
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

// PropertyResponse is one listing in the JSON API. Amounts and measures
// are passed through as stored.
type PropertyResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ExtraFeatures    string     `json:"extra_features,omitempty"`
	Site             string     `json:"site"`
	Neighborhood     string     `json:"neighborhood,omitempty"`
	PropertyType     string     `json:"property_type,omitempty"`
	PublisherName    string     `json:"publisher_name,omitempty"`
	PublisherPhone   string     `json:"publisher_phone,omitempty"`
	WhatsApp         string     `json:"whatsapp,omitempty"`
	PriceAmount      string     `json:"price_amount"`
	PriceCurrency    string     `json:"price_currency"`
	ExpensesAmount   string     `json:"expenses_amount,omitempty"`
	ExpensesCurrency string     `json:"expenses_currency,omitempty"`
	TotalArea        string     `json:"total_area,omitempty"`
	CoveredArea      string     `json:"covered_area,omitempty"`
	Rooms            string     `json:"rooms,omitempty"`
	Bedrooms         string     `json:"bedrooms,omitempty"`
	Bathrooms        string     `json:"bathrooms,omitempty"`
	Age              string     `json:"age,omitempty"`
	Address          string     `json:"address"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	Geohash          string     `json:"geohash,omitempty"`
	Photos           []string   `json:"photos"`
	URL              string     `json:"url,omitempty"`
	ScrapedAt        *time.Time `json:"scraped_at,omitempty"`
}

// PaginatedPropertiesResponse is one listing page in the JSON API.
type PaginatedPropertiesResponse struct {
	Data       []PropertyResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

func toPropertyResponse(p domain.Property) PropertyResponse {
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}
	return PropertyResponse{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		ExtraFeatures:    p.ExtraFeatures,
		Site:             p.Site,
		Neighborhood:     p.Neighborhood,
		PropertyType:     p.PropertyTypeName,
		PublisherName:    p.PublisherName,
		PublisherPhone:   p.PublisherPhone,
		WhatsApp:         p.WhatsAppNumber(),
		PriceAmount:      p.PriceAmount,
		PriceCurrency:    p.PriceCurrency,
		ExpensesAmount:   p.ExpensesAmount,
		ExpensesCurrency: p.ExpensesCurrency,
		TotalArea:        p.TotalArea,
		CoveredArea:      p.CoveredArea,
		Rooms:            p.Rooms,
		Bedrooms:         p.Bedrooms,
		Bathrooms:        p.Bathrooms,
		Age:              p.Age,
		Address:          p.Address,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		Geohash:          p.Geohash(),
		Photos:           photos,
		URL:              p.URL,
		ScrapedAt:        p.ScrapedAt,
	}
}

func toPaginatedPropertiesResponse(page *domain.PropertyPage) PaginatedPropertiesResponse {
	data := make([]PropertyResponse, 0, len(page.Properties))
	for _, p := range page.Properties {
		data = append(data, toPropertyResponse(p))
	}
	return PaginatedPropertiesResponse{
		Data:       data,
		Total:      page.TotalCount,
		Page:       page.CurrentPage,
		PerPage:    page.ItemsPerPage,
		TotalPages: page.TotalPages(),
	}
}
