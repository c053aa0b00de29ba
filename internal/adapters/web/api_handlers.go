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

// PropertyAPIHandler serves the listing data as JSON.
type PropertyAPIHandler struct {
	listPropertiesUC usecases_port.ListPropertiesUseCasePort
	getPropertyUC    usecases_port.GetPropertyUseCasePort
}

func NewPropertyAPIHandler(listPropertiesUC usecases_port.ListPropertiesUseCasePort,
	getPropertyUC usecases_port.GetPropertyUseCasePort) *PropertyAPIHandler {
	return &PropertyAPIHandler{
		listPropertiesUC: listPropertiesUC,
		getPropertyUC:    getPropertyUC,
	}
}

// ListProperties handles GET /api/v1/properties?page=N.
func (h *PropertyAPIHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r.URL.Query())
	handlerLogger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
		"handler": "APIListProperties",
		"page":    page,
	})

	result, err := h.listPropertiesUC.Execute(r.Context(), page)
	if err != nil {
		handlerLogger.Error("Use case failed", err, nil)
		WriteJSONError(w, http.StatusBadGateway, loadErrorMessage(err, domain.ListLoadErrorPrefix))
		return
	}

	handlerLogger.Debug("Successfully fetched properties page", port.Fields{"count": len(result.Properties)})
	RespondWithJSON(w, http.StatusOK, toPaginatedPropertiesResponse(result))
}

// GetProperty handles GET /api/v1/properties/{propertyID}.
func (h *PropertyAPIHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	handlerLogger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
		"handler":     "APIGetProperty",
		"property_id": propertyID,
	})

	property, err := h.getPropertyUC.Execute(r.Context(), propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrPropertyNotFound) {
			WriteJSONError(w, http.StatusNotFound, msgPropertyNotFound)
			return
		}
		handlerLogger.Error("GetProperty use case failed", err, nil)
		WriteJSONError(w, http.StatusBadGateway, loadErrorMessage(err, domain.DetailLoadErrorPrefix))
		return
	}

	RespondWithJSON(w, http.StatusOK, toPropertyResponse(*property))
}
