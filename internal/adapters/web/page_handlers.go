package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port/usecases_port"
)

const msgPropertyNotFound = "Property not found"

type siteOption struct {
	Value    string
	Label    string
	Selected bool
}

// listingView is the model of the /properties page.
type listingView struct {
	State           *domain.ListingState
	Filter          domain.Filter
	FiltersExpanded bool
	Properties      []domain.Property
	TotalPages      int
	PrevURL         string
	NextURL         string
	ToggleURL       string
	SiteOptions     []siteOption
	PriceFloor      int
	PriceCeiling    int
	PriceStep       int
}

type detailView struct {
	Property domain.Property
}

type errorView struct {
	Message string
}

type PageHandler struct {
	listPropertiesUC usecases_port.ListPropertiesUseCasePort
	getPropertyUC    usecases_port.GetPropertyUseCasePort
	views            *Views
}

func NewPageHandler(listPropertiesUC usecases_port.ListPropertiesUseCasePort,
	getPropertyUC usecases_port.GetPropertyUseCasePort,
	views *Views) *PageHandler {
	return &PageHandler{
		listPropertiesUC: listPropertiesUC,
		getPropertyUC:    getPropertyUC,
		views:            views,
	}
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, model interface{}) {
	err := h.views.Render(w, status, page, viewData{
		Title: title,
		User:  currentUser(r.Context()),
		Page:  model,
	})
	if err != nil {
		contextkeys.LoggerFromContext(r.Context()).Error("Failed to render page", err, port.Fields{"page": page})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageHome, "Alquileres", nil)
}

// ListProperties handles GET /properties.
func (h *PageHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parsePage(query)
	filter := parseFilter(query)
	expanded := parseBool(query, paramExpanded)

	logger := contextkeys.LoggerFromContext(r.Context())
	handlerLogger := logger.WithFields(port.Fields{
		"handler": "ListProperties",
		"page":    page,
	})
	handlerLogger.Debug("Processing request to list properties", nil)

	state := domain.NewListingState()
	state.Begin(page)

	status := http.StatusOK
	result, err := h.listPropertiesUC.Execute(r.Context(), page)
	if err != nil {
		handlerLogger.Error("Use case failed", err, nil)
		state.Fail(loadErrorMessage(err, domain.ListLoadErrorPrefix))
		status = http.StatusBadGateway
	} else {
		state.Succeed(result)
	}

	filtered := filter.Apply(state.Properties)
	handlerLogger.Info("Rendering properties page", port.Fields{
		"total_count":   state.TotalCount,
		"items_on_page": len(state.Properties),
		"items_shown":   len(filtered),
	})

	h.render(w, r, status, pageProperties, "Propiedades", newListingView(state, filter, filtered, expanded))
}

func newListingView(state *domain.ListingState, filter domain.Filter, filtered []domain.Property, expanded bool) listingView {
	totalPages := state.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}

	options := make([]siteOption, 0, len(domain.SiteOptions))
	for _, site := range domain.SiteOptions {
		options = append(options, siteOption{
			Value:    site,
			Label:    siteLabel(site),
			Selected: site == filter.Site,
		})
	}

	v := listingView{
		State:           state,
		Filter:          filter,
		FiltersExpanded: expanded,
		Properties:      filtered,
		TotalPages:      totalPages,
		ToggleURL:       listingURL(state.Page, filter, !expanded),
		SiteOptions:     options,
		PriceFloor:      domain.DefaultPriceMin,
		PriceCeiling:    domain.DefaultPriceMax,
		PriceStep:       domain.PriceStep,
	}
	if state.HasPrev() {
		v.PrevURL = listingURL(state.PrevPage(), filter, expanded)
	}
	if state.HasNext() {
		v.NextURL = listingURL(state.NextPage(), filter, expanded)
	}
	return v
}

// PropertyDetail handles GET /properties/{propertyID}.
func (h *PageHandler) PropertyDetail(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")

	logger := contextkeys.LoggerFromContext(r.Context())
	handlerLogger := logger.WithFields(port.Fields{
		"handler":     "PropertyDetail",
		"property_id": propertyID,
	})

	property, err := h.getPropertyUC.Execute(r.Context(), propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrPropertyNotFound) {
			handlerLogger.Warn("Property not found", nil)
			h.render(w, r, http.StatusNotFound, pageError, "Error", errorView{Message: msgPropertyNotFound})
			return
		}
		handlerLogger.Error("GetProperty use case failed", err, nil)
		h.render(w, r, http.StatusBadGateway, pageError, "Error", errorView{
			Message: loadErrorMessage(err, domain.DetailLoadErrorPrefix),
		})
		return
	}

	handlerLogger.Debug("Rendering property detail", nil)
	h.render(w, r, http.StatusOK, pagePropertyDetail, property.Title, detailView{Property: *property})
}

// NotFound renders the error page for unknown routes.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, pageError, "Error", errorView{Message: "Page not found"})
}

// loadErrorMessage prefers the localized message of a LoadError.
func loadErrorMessage(err error, prefix string) string {
	var loadErr *domain.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Message
	}
	return prefix + domain.CauseMessage(err)
}
