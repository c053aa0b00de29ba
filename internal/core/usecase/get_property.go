package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

type GetPropertyUseCase struct {
	storage port.PropertyStoragePort
}

func NewGetPropertyUseCase(storage port.PropertyStoragePort) *GetPropertyUseCase {
	return &GetPropertyUseCase{storage: storage}
}

func (uc *GetPropertyUseCase) Execute(ctx context.Context, id string) (*domain.Property, error) {
	id = strings.TrimSpace(id)

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "GetProperty",
		"property_id": id,
	})
	ucLogger.Info("Use case started", nil)

	if id == "" {
		ucLogger.Warn("Empty property id", nil)
		return nil, fmt.Errorf("empty id: %w", domain.ErrPropertyNotFound)
	}

	property, err := uc.storage.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPropertyNotFound) {
			ucLogger.Warn("Property not found", nil)
			return nil, err
		}
		ucLogger.Error("Failed to fetch property", err, nil)
		return nil, domain.NewLoadError(domain.DetailLoadErrorPrefix, err)
	}
	if property == nil {
		ucLogger.Warn("Storage returned no property", nil)
		return nil, domain.ErrPropertyNotFound
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"photos": len(property.Photos)})
	return property, nil
}
