package usecase

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

type ListPropertiesUseCase struct {
	storage  port.PropertyStoragePort
	pageSize int
}

func NewListPropertiesUseCase(storage port.PropertyStoragePort) *ListPropertiesUseCase {
	return &ListPropertiesUseCase{
		storage:  storage,
		pageSize: domain.PageSize,
	}
}

func (uc *ListPropertiesUseCase) Execute(ctx context.Context, page int) (*domain.PropertyPage, error) {
	if page < 1 {
		page = 1
	}

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "ListProperties",
		"page":     page,
	})
	ucLogger.Info("Use case started", nil)

	result, err := uc.fetch(ctx, page)
	if err != nil {
		ucLogger.Error("Failed to fetch properties page", err, nil)
		return nil, domain.NewLoadError(domain.ListLoadErrorPrefix, err)
	}

	// a page past the end is served as the last page
	if totalPages := result.TotalPages(); totalPages > 0 && page > totalPages {
		ucLogger.Warn("Requested page is out of range, serving last page", port.Fields{"total_pages": totalPages})
		result, err = uc.fetch(ctx, totalPages)
		if err != nil {
			ucLogger.Error("Failed to fetch last properties page", err, nil)
			return nil, domain.NewLoadError(domain.ListLoadErrorPrefix, err)
		}
	}

	ucLogger.Info("Use case finished successfully", port.Fields{
		"total_count":   result.TotalCount,
		"items_on_page": len(result.Properties),
	})
	return result, nil
}

func (uc *ListPropertiesUseCase) fetch(ctx context.Context, page int) (*domain.PropertyPage, error) {
	from, to := domain.PageBounds(page, uc.pageSize)
	rng, err := uc.storage.FindRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	properties := rng.Properties
	if properties == nil {
		properties = []domain.Property{}
	}
	return &domain.PropertyPage{
		Properties:   properties,
		TotalCount:   rng.TotalCount,
		CurrentPage:  page,
		ItemsPerPage: uc.pageSize,
	}, nil
}
