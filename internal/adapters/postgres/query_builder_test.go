package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
)

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"properties"`, quoteIdent("properties"))
	assert.Equal(t, `"public"."properties"`, quoteIdent("public.properties"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}

func TestQueryBuilder_CountAndPage(t *testing.T) {
	qb := newQueryBuilder("properties")

	count, args := qb.countQuery()
	assert.Equal(t, `SELECT COUNT(*) FROM "properties"`, count)
	assert.Empty(t, args)

	query, args := qb.selectQuery(9, 18)
	assert.True(t, strings.HasPrefix(query, "SELECT to_jsonb(p)::text, id::text, COALESCE(title::text, ''), "))
	assert.Contains(t, query, `FROM "properties" AS p ORDER BY id ASC LIMIT $1 OFFSET $2`)
	assert.Equal(t, []interface{}{9, 18}, args)
}

func TestQueryBuilder_ByID(t *testing.T) {
	qb := newQueryBuilder("properties")
	qb.addCondition("%s = $%d", "id::text", "42")

	query, args := qb.selectQuery(0, 0)
	assert.True(t, strings.HasSuffix(query, `FROM "properties" AS p WHERE id::text = $1 ORDER BY id ASC`))
	assert.NotContains(t, query, "LIMIT")
	assert.Equal(t, []interface{}{"42"}, args)
}

func TestSelectColumns_MatchesScanOrder(t *testing.T) {
	cols := selectColumns()
	// raw row, id, text columns, latitude, longitude, scraped_at
	require.Len(t, cols, 2+len(textColumns)+3)
	assert.Equal(t, "to_jsonb(p)::text", cols[0])
	assert.Equal(t, "id::text", cols[1])
	assert.Equal(t, "scraped_at::text", cols[len(cols)-1])
	assert.Equal(t, strings.Join(cols, ", "), selectList())

	var dest []interface{}
	row := fakeRow{texts: make([]string, 1+len(textColumns)), raw: `{"id": 1}`}
	row.capture = &dest
	_, err := scanProperty(row)
	require.NoError(t, err)
	assert.Len(t, dest, len(cols))
}

// fakeRow fills the raw row, the string destinations in order and the
// trailing nullable ones.
type fakeRow struct {
	raw       string
	texts     []string
	lat, lon  *string
	scrapedAt *string
	err       error
	capture   *[]interface{}
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.capture != nil {
		*r.capture = dest
	}
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.raw
	n := len(dest) - 3
	for i := 1; i < n; i++ {
		*(dest[i].(*string)) = r.texts[i-1]
	}
	*(dest[n].(**string)) = r.lat
	*(dest[n+1].(**string)) = r.lon
	*(dest[n+2].(**string)) = r.scrapedAt
	return nil
}

func sampleRow(id, title string) fakeRow {
	texts := make([]string, 1+len(textColumns))
	texts[0] = id
	texts[1] = title
	return fakeRow{
		raw:   `{"id": ` + id + `, "title": "` + title + `"}`,
		texts: texts,
	}
}

func TestScanProperty(t *testing.T) {
	row := sampleRow("42", "Depto en Palermo")
	// price_amount and images
	row.texts[10] = "250000"
	row.texts[22] = "https://img/1.jpg|nope|https://img/2.jpg"

	lat, lon := "-34.6", "not-a-number"
	scraped := "2024-05-01 12:00:00-03"
	row.lat, row.lon, row.scrapedAt = &lat, &lon, &scraped

	p, err := scanProperty(row)
	require.NoError(t, err)

	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "Depto en Palermo", p.Title)
	assert.Equal(t, "250000", p.PriceAmount)
	require.NotNil(t, p.Latitude)
	assert.InDelta(t, -34.6, *p.Latitude, 1e-9)
	assert.Nil(t, p.Longitude)
	require.NotNil(t, p.ScrapedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC), *p.ScrapedAt)
	assert.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, p.Photos)
}

func TestScanProperty_UnparseableTimestampIsDropped(t *testing.T) {
	row := sampleRow("7", "Casa")
	scraped := "ayer"
	row.scrapedAt = &scraped

	p, err := scanProperty(row)
	require.NoError(t, err)
	assert.Nil(t, p.ScrapedAt)
}

func TestScanProperty_ContractViolation(t *testing.T) {
	row := sampleRow("7", "Casa")
	row.raw = `{"id": 7, "title": {"es": "Casa"}}`

	_, err := scanProperty(row)
	assert.ErrorIs(t, err, errRowContract)
}

func TestScanProperty_NoRows(t *testing.T) {
	_, err := scanProperty(fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NotErrorIs(t, err, errRowContract)
}

type fakeRows struct {
	rows []fakeRow
	pos  int
	err  error
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...interface{}) error {
	return f.rows[f.pos-1].Scan(dest...)
}

func (f *fakeRows) Err() error { return f.err }

func TestCollectProperties_DropsRowsBreakingTheContract(t *testing.T) {
	bad := sampleRow("2", "Roto")
	bad.raw = `{"title": "Roto"}`

	rows := &fakeRows{rows: []fakeRow{sampleRow("1", "Uno"), bad, sampleRow("3", "Tres")}}
	logger := contextkeys.LoggerFromContext(context.Background())

	properties, err := collectProperties(rows, logger, 9)
	require.NoError(t, err)
	require.Len(t, properties, 2)
	assert.Equal(t, "1", properties[0].ID)
	assert.Equal(t, "3", properties[1].ID)
}

func TestCollectProperties_ScanFailureFailsThePage(t *testing.T) {
	rows := &fakeRows{rows: []fakeRow{sampleRow("1", "Uno"), {err: errors.New("conn reset")}}}
	logger := contextkeys.LoggerFromContext(context.Background())

	_, err := collectProperties(rows, logger, 9)
	assert.ErrorContains(t, err, "conn reset")

	rows = &fakeRows{err: errors.New("read timeout")}
	_, err = collectProperties(rows, logger, 9)
	assert.ErrorContains(t, err, "read timeout")
}
