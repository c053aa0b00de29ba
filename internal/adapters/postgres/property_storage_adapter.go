package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contracts"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

// errRowContract marks a row that was read but breaks the property row contract.
var errRowContract = errors.New("property row breaks the contract")

// PostgresPropertyStorage reads the properties table directly, bypassing
// the data API. Selected with DATA_BACKEND=postgres.
type PostgresPropertyStorage struct {
	pool  *pgxpool.Pool
	table string
}

var _ port.PropertyStoragePort = (*PostgresPropertyStorage)(nil)

func NewPostgresPropertyStorage(pool *pgxpool.Pool, table string) (*PostgresPropertyStorage, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool cannot be nil")
	}
	if table == "" {
		table = "properties"
	}
	return &PostgresPropertyStorage{pool: pool, table: table}, nil
}

// FindRange counts and reads the page inside one read-only transaction so
// both see the same snapshot.
func (a *PostgresPropertyStorage) FindRange(ctx context.Context, from, to int) (*domain.PropertyRange, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresPropertyStorage",
		"method":    "FindRange",
		"from":      from,
		"to":        to,
	})

	if from < 0 || to < from {
		return nil, fmt.Errorf("invalid range %d-%d", from, to)
	}

	tx, err := a.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qb := newQueryBuilder(a.table)

	countQuery, countArgs := qb.countQuery()
	var totalCount int64
	if err := tx.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		repoLogger.Error("Failed to count properties", err, port.Fields{"query": countQuery})
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	if totalCount == 0 || int64(from) >= totalCount {
		repoLogger.Info("No properties in range", port.Fields{"total_count": totalCount})
		return &domain.PropertyRange{Properties: []domain.Property{}, TotalCount: totalCount}, nil
	}

	dataQuery, dataArgs := qb.selectQuery(to-from+1, from)
	rows, err := tx.Query(ctx, dataQuery, dataArgs...)
	if err != nil {
		repoLogger.Error("Failed to query properties", err, port.Fields{"query": dataQuery})
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	properties, err := collectProperties(rows, repoLogger, to-from+1)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	repoLogger.Info("Loaded properties range", port.Fields{
		"total_count":   totalCount,
		"items_on_page": len(properties),
	})
	return &domain.PropertyRange{Properties: properties, TotalCount: totalCount}, nil
}

func (a *PostgresPropertyStorage) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":   "PostgresPropertyStorage",
		"method":      "FindByID",
		"property_id": id,
	})

	qb := newQueryBuilder(a.table)
	qb.addCondition("%s = $%d", "id::text", id)
	query, args := qb.selectQuery(0, 0)

	p, err := scanProperty(a.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			repoLogger.Info("No property with that id", nil)
			return nil, domain.ErrPropertyNotFound
		}
		repoLogger.Error("Failed to query property", err, nil)
		return nil, fmt.Errorf("failed to query property: %w", err)
	}

	return &p, nil
}

// propertyRows is the part of pgx.Rows the page read needs.
type propertyRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// collectProperties scans every row, dropping those that break the row
// contract. Any other scan failure fails the whole page.
func collectProperties(rows propertyRows, logger port.LoggerPort, capacity int) ([]domain.Property, error) {
	properties := make([]domain.Property, 0, capacity)
	for i := 0; rows.Next(); i++ {
		p, err := scanProperty(rows)
		if errors.Is(err, errRowContract) {
			logger.Warn("Skipping property row that breaks the contract", port.Fields{
				"row_index": i,
				"error":     err.Error(),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}
	return properties, nil
}

func scanProperty(row pgx.Row) (domain.Property, error) {
	var (
		p         domain.Property
		raw       string
		lat, lon  *string
		scrapedAt *string
	)

	dest := []interface{}{&raw, &p.ID}
	dest = append(dest,
		&p.Title, &p.Description, &p.ExtraFeatures, &p.Site, &p.Neighborhood,
		&p.PropertyTypeID, &p.PropertyTypeName, &p.PublisherName, &p.PublisherPhone,
		&p.PriceAmount, &p.PriceCurrency, &p.ExpensesAmount, &p.ExpensesCurrency, &p.WhatsApp,
		&p.TotalArea, &p.CoveredArea, &p.Rooms, &p.Bedrooms, &p.Bathrooms, &p.Age,
		&p.Address, &p.Images, &p.URL,
	)
	dest = append(dest, &lat, &lon, &scrapedAt)

	if err := row.Scan(dest...); err != nil {
		return domain.Property{}, err
	}

	if err := contracts.ValidatePropertyRow([]byte(raw)); err != nil {
		return domain.Property{}, fmt.Errorf("%w: id %s: %w", errRowContract, p.ID, err)
	}

	p.Latitude = parseCoordinate(lat)
	p.Longitude = parseCoordinate(lon)
	if scrapedAt != nil {
		p.ScrapedAt = domain.ParseTimestamp(*scrapedAt)
	}
	p.Photos = domain.ParsePhotos(p.Images)
	return p, nil
}

func parseCoordinate(s *string) *float64 {
	if s == nil {
		return nil
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &v
}
