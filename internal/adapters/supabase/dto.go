package supabase

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

// propertyColumns is the column list requested for every property row.
var propertyColumns = []string{
	"id", "title", "description", "caractextra", "site", "barrio",
	"tipo_propiedad_id", "tipo_propiedad_nombre", "publisher_nombre", "publisher_telefono",
	"price_amount", "price_currency", "expenses_amount", "expenses_currency", "whatsapp",
	"superficie_total", "superficie_cubierta", "ambientes", "dormitorios", "banos", "antiguedad",
	"latitude", "longitude", "address", "images", "url", "scraped_at",
}

// flexText accepts a JSON string, number, bool or null and keeps its text.
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexText(s)
		return nil
	}
	*f = flexText(b)
	return nil
}

// flexFloat accepts a JSON number or a numeric string. Anything else is nil.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var t flexText
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	s := strings.TrimSpace(string(t))
	if s == "" {
		f.value = nil
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.value = nil
		return nil
	}
	f.value = &v
	return nil
}

// flexTime accepts the timestamp shapes Postgres and scrapers produce.
type flexTime struct {
	value *time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var t flexText
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	f.value = domain.ParseTimestamp(string(t))
	return nil
}

// propertyRowDTO is one row of the properties table.
type propertyRowDTO struct {
	ID               flexText  `json:"id"`
	Title            flexText  `json:"title"`
	Description      flexText  `json:"description"`
	ExtraFeatures    flexText  `json:"caractextra"`
	Site             flexText  `json:"site"`
	Neighborhood     flexText  `json:"barrio"`
	PropertyTypeID   flexText  `json:"tipo_propiedad_id"`
	PropertyTypeName flexText  `json:"tipo_propiedad_nombre"`
	PublisherName    flexText  `json:"publisher_nombre"`
	PublisherPhone   flexText  `json:"publisher_telefono"`
	PriceAmount      flexText  `json:"price_amount"`
	PriceCurrency    flexText  `json:"price_currency"`
	ExpensesAmount   flexText  `json:"expenses_amount"`
	ExpensesCurrency flexText  `json:"expenses_currency"`
	WhatsApp         flexText  `json:"whatsapp"`
	TotalArea        flexText  `json:"superficie_total"`
	CoveredArea      flexText  `json:"superficie_cubierta"`
	Rooms            flexText  `json:"ambientes"`
	Bedrooms         flexText  `json:"dormitorios"`
	Bathrooms        flexText  `json:"banos"`
	Age              flexText  `json:"antiguedad"`
	Latitude         flexFloat `json:"latitude"`
	Longitude        flexFloat `json:"longitude"`
	Address          flexText  `json:"address"`
	Images           flexText  `json:"images"`
	URL              flexText  `json:"url"`
	ScrapedAt        flexTime  `json:"scraped_at"`
}

func (d propertyRowDTO) toDomain() domain.Property {
	return domain.Property{
		ID:               string(d.ID),
		Title:            string(d.Title),
		Description:      string(d.Description),
		ExtraFeatures:    string(d.ExtraFeatures),
		Site:             string(d.Site),
		Neighborhood:     string(d.Neighborhood),
		PropertyTypeID:   string(d.PropertyTypeID),
		PropertyTypeName: string(d.PropertyTypeName),
		PublisherName:    string(d.PublisherName),
		PublisherPhone:   string(d.PublisherPhone),
		PriceAmount:      string(d.PriceAmount),
		PriceCurrency:    string(d.PriceCurrency),
		ExpensesAmount:   string(d.ExpensesAmount),
		ExpensesCurrency: string(d.ExpensesCurrency),
		WhatsApp:         string(d.WhatsApp),
		TotalArea:        string(d.TotalArea),
		CoveredArea:      string(d.CoveredArea),
		Rooms:            string(d.Rooms),
		Bedrooms:         string(d.Bedrooms),
		Bathrooms:        string(d.Bathrooms),
		Age:              string(d.Age),
		Latitude:         d.Latitude.value,
		Longitude:        d.Longitude.value,
		Address:          string(d.Address),
		Images:           string(d.Images),
		URL:              string(d.URL),
		ScrapedAt:        d.ScrapedAt.value,
		Photos:           domain.ParsePhotos(string(d.Images)),
	}
}

// userDTO is the GoTrue user object.
type userDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u userDTO) toDomain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email}
}

// signUpResponse covers both shapes of /signup: the bare user when email
// confirmation is on, or a session carrying the user when it is off.
type signUpResponse struct {
	userDTO
	User *userDTO `json:"user"`
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshGrantRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int64   `json:"expires_in"`
	ExpiresAt    int64   `json:"expires_at"`
	RefreshToken string  `json:"refresh_token"`
	User         userDTO `json:"user"`
}

func (t tokenResponse) toDomain(now time.Time) domain.Session {
	s := domain.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		User:         t.User.toDomain(),
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	return s
}
