package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contracts"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
	"golang.org/x/sync/errgroup"
)

// PostgREST answers 406 with this code when a single-object request matched no row.
const codeNoRows = "PGRST116"

// Postgres code for a value that cannot be cast to the column type,
// e.g. "abc" against a bigint id.
const codeInvalidTextRepresentation = "22P02"

var _ port.PropertyStoragePort = (*Client)(nil)

func (c *Client) tablePath() string {
	return restPath + url.PathEscape(c.propertyTable)
}

// FindRange runs the exact count and the range query concurrently.
func (c *Client) FindRange(ctx context.Context, from, to int) (*domain.PropertyRange, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "SupabaseClient",
		"method":    "FindRange",
		"from":      from,
		"to":        to,
	})

	if from < 0 || to < from {
		return nil, fmt.Errorf("invalid range %d-%d", from, to)
	}

	var (
		total      int64
		properties []domain.Property
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.countProperties(gctx)
		if err != nil {
			return fmt.Errorf("count properties: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		rows, err := c.fetchRange(gctx, clientLogger, from, to)
		if err != nil {
			return fmt.Errorf("fetch properties: %w", err)
		}
		properties = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		clientLogger.Error("Failed to load properties range", err, nil)
		return nil, err
	}

	clientLogger.Info("Loaded properties range", port.Fields{
		"total_count":   total,
		"items_on_page": len(properties),
	})
	return &domain.PropertyRange{Properties: properties, TotalCount: total}, nil
}

// countProperties issues a HEAD request and reads the total from Content-Range.
func (c *Client) countProperties(ctx context.Context) (int64, error) {
	resp, err := c.doRequest(ctx, request{
		method: http.MethodHead,
		path:   c.tablePath(),
		query:  url.Values{"select": {"id"}},
		headers: map[string]string{
			"Prefer": "count=exact",
		},
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) && resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		return 0, decodeAPIError(resp)
	}
	return parseContentRangeTotal(resp.Header.Get("Content-Range"))
}

func (c *Client) fetchRange(ctx context.Context, logger port.LoggerPort, from, to int) ([]domain.Property, error) {
	resp, err := c.doRequest(ctx, request{
		method: http.MethodGet,
		path:   c.tablePath(),
		query: url.Values{
			"select": {strings.Join(propertyColumns, ",")},
			"order":  {"id.asc"},
		},
		headers: map[string]string{
			"Range-Unit": "items",
			"Range":      fmt.Sprintf("%d-%d", from, to),
		},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// a range past the last row is not an error for a listing
	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		return []domain.Property{}, nil
	}
	if !isSuccess(resp.StatusCode) {
		return nil, decodeAPIError(resp)
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode properties response: %w", err)
	}

	properties := make([]domain.Property, 0, len(rows))
	for i, raw := range rows {
		p, err := decodePropertyRow(raw)
		if err != nil {
			logger.Warn("Skipping property row that breaks the contract", port.Fields{
				"row_index": i,
				"error":     err.Error(),
			})
			continue
		}
		properties = append(properties, p)
	}
	return properties, nil
}

// FindByID requests exactly one row; no row maps to domain.ErrPropertyNotFound.
func (c *Client) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component":   "SupabaseClient",
		"method":      "FindByID",
		"property_id": id,
	})

	resp, err := c.doRequest(ctx, request{
		method: http.MethodGet,
		path:   c.tablePath(),
		query: url.Values{
			"select": {strings.Join(propertyColumns, ",")},
			"id":     {"eq." + id},
		},
		headers: map[string]string{
			"Accept": "application/vnd.pgrst.object+json",
		},
	})
	if err != nil {
		clientLogger.Error("Failed to perform request to data API", err, nil)
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		apiErr := decodeAPIError(resp)
		if apiErr.Code == codeNoRows || apiErr.Code == codeInvalidTextRepresentation || resp.StatusCode == http.StatusNotAcceptable {
			clientLogger.Info("No property with that id", port.Fields{"code": apiErr.Code})
			return nil, fmt.Errorf("%w: %w", domain.ErrPropertyNotFound, apiErr)
		}
		clientLogger.Error("Received non-OK response from data API", apiErr, port.Fields{"status_code": resp.StatusCode})
		return nil, apiErr
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		clientLogger.Error("Failed to decode property response", err, nil)
		return nil, fmt.Errorf("failed to decode property response: %w", err)
	}

	p, err := decodePropertyRow(raw)
	if err != nil {
		clientLogger.Error("Property row breaks the contract", err, nil)
		return nil, err
	}

	clientLogger.Info("Loaded property", port.Fields{"photos": len(p.Photos)})
	return &p, nil
}

func decodePropertyRow(raw json.RawMessage) (domain.Property, error) {
	if err := contracts.ValidatePropertyRow(raw); err != nil {
		return domain.Property{}, err
	}
	var dto propertyRowDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domain.Property{}, fmt.Errorf("failed to decode property row: %w", err)
	}
	return dto.toDomain(), nil
}

// parseContentRangeTotal reads the total out of "0-8/123" or "*/123".
func parseContentRangeTotal(header string) (int64, error) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("missing total in Content-Range %q", header)
	}
	totalStr := header[idx+1:]
	if totalStr == "*" {
		return 0, fmt.Errorf("backend did not report an exact count (Content-Range %q)", header)
	}
	total, err := strconv.ParseInt(totalStr, 10, 64)
	if err != nil || total < 0 {
		return 0, fmt.Errorf("invalid total in Content-Range %q", header)
	}
	return total, nil
}
