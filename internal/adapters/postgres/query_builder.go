package postgres

import (
	"fmt"
	"strings"
)

// textColumns are read as text so the scan does not depend on how the
// scraper typed each column.
var textColumns = []string{
	"title", "description", "caractextra", "site", "barrio",
	"tipo_propiedad_id", "tipo_propiedad_nombre", "publisher_nombre", "publisher_telefono",
	"price_amount", "price_currency", "expenses_amount", "expenses_currency", "whatsapp",
	"superficie_total", "superficie_cubierta", "ambientes", "dormitorios", "banos", "antiguedad",
	"address", "images", "url",
}

type queryBuilder struct {
	table      string
	conditions []string
	args       []interface{}
	argID      int
}

func newQueryBuilder(table string) *queryBuilder {
	return &queryBuilder{
		table: quoteIdent(table),
		argID: 1,
		args:  make([]interface{}, 0),
	}
}

func (qb *queryBuilder) addCondition(condition string, fieldName string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.argID))
	qb.args = append(qb.args, arg)
	qb.argID++
}

func (qb *queryBuilder) whereClause() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(qb.conditions, " AND ")
}

func (qb *queryBuilder) countQuery() (string, []interface{}) {
	return "SELECT COUNT(*) FROM " + qb.table + qb.whereClause(), qb.args
}

// selectQuery builds the row query. limit <= 0 means no LIMIT/OFFSET.
func (qb *queryBuilder) selectQuery(limit, offset int) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectList())
	b.WriteString(" FROM ")
	b.WriteString(qb.table)
	b.WriteString(" AS " + rowAlias)
	b.WriteString(qb.whereClause())
	b.WriteString(" ORDER BY id ASC")

	args := append([]interface{}{}, qb.args...)
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", qb.argID, qb.argID+1)
		args = append(args, limit, offset)
	}
	return b.String(), args
}

// rowAlias names the table in the FROM clause so the whole row can be
// read back as JSON for the row contract.
const rowAlias = "p"

// selectColumns yields the raw row, the id, the text columns, the
// coordinates and the scrape timestamp, in the order scanProperty expects.
func selectColumns() []string {
	cols := make([]string, 0, len(textColumns)+5)
	cols = append(cols, "to_jsonb("+rowAlias+")::text", "id::text")
	for _, c := range textColumns {
		cols = append(cols, fmt.Sprintf("COALESCE(%s::text, '')", c))
	}
	cols = append(cols,
		"NULLIF(latitude::text, '')",
		"NULLIF(longitude::text, '')",
		"scraped_at::text",
	)
	return cols
}

func selectList() string {
	return strings.Join(selectColumns(), ", ")
}

// quoteIdent quotes a table name, including schema-qualified ones.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
