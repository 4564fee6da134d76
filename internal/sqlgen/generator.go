package sqlgen

import (
	"fmt"
	"strings"

	"tesseract/internal/queryir"
	"tesseract/internal/schema"
)

// Generate renders a compiled QueryIR as dialect-specific SQL text, per
// spec §4.4. The four calculation shapes (plain aggregate, RCA, growth,
// rate) dispatch to dedicated builders; everything else (drilldowns,
// cuts, measures, top, filter, sort, limit) is shared.
func Generate(ir *queryir.QueryIR, dialectName Type) (string, error) {
	d, err := GetDialect(dialectName)
	if err != nil {
		return "", err
	}
	switch {
	case ir.Rca != nil:
		return d.generateRca(ir)
	case ir.Growth != nil:
		return d.generateGrowth(ir)
	case ir.Rate != nil:
		return d.generateRate(ir)
	default:
		sql, _, err := d.generateAggregate(ir)
		return sql, err
	}
}

// baseQuery is the innermost SELECT ... FROM ... WHERE ... GROUP BY,
// shared as a subquery by growth/rca/rate which each need the grouped
// rows before applying their own window or ratio logic.
type baseQuery struct {
	selectCols []string // "<expr> AS <alias>"
	groupCols  []string // bare <expr>, no alias
	from       string
	where      []string
}

func (d Dialect) buildBase(ir *queryir.QueryIR) baseQuery {
	factAlias := "fact"
	b := baseQuery{from: d.QuoteIdent(ir.Fact.Table.Name) + " AS " + factAlias}

	for _, c := range ir.Fact.Cuts {
		col := factAlias + "." + d.QuoteIdent(c.Column)
		b.where = append(b.where, d.cutPredicate(col, c))
	}

	for _, drill := range ir.Drilldowns {
		alias := "d" + drill.AliasPostfix
		b.from += d.joinClause(drill, factAlias, alias)

		for _, lc := range drill.LevelColumns {
			keyExpr := alias + "." + d.QuoteIdent(lc.KeyColumn)
			b.selectCols = append(b.selectCols, keyExpr+" AS "+d.QuoteIdent(lc.KeyAlias))
			b.groupCols = append(b.groupCols, keyExpr)
			if lc.NameColumn != "" {
				nameExpr := alias + "." + d.QuoteIdent(lc.NameColumn)
				b.selectCols = append(b.selectCols, nameExpr+" AS "+d.QuoteIdent(lc.NameAlias))
				b.groupCols = append(b.groupCols, nameExpr)
			}
			for _, p := range lc.Properties {
				propExpr := alias + "." + d.QuoteIdent(p.Column)
				b.selectCols = append(b.selectCols, propExpr+" AS "+d.QuoteIdent(p.Alias))
				b.groupCols = append(b.groupCols, propExpr)
			}
		}
		for _, c := range drill.Cuts {
			col := alias + "." + d.QuoteIdent(c.Column)
			b.where = append(b.where, d.cutPredicate(col, c))
		}
	}

	for _, m := range ir.Measures {
		col := factAlias + "." + d.QuoteIdent(m.Column)
		b.selectCols = append(b.selectCols, d.aggregateExpr(m, col)+" AS "+d.QuoteIdent(m.Alias))
	}

	return b
}

// joinClause renders one dimension table (or inline VALUES set) joined
// to the fact table on its foreign/primary key pair.
func (d Dialect) joinClause(drill queryir.DrilldownSql, factAlias, alias string) string {
	var table string
	if drill.Table.Inline != nil {
		table = d.inlineTableExpr(*drill.Table.Inline, alias)
		return fmt.Sprintf(" JOIN %s ON %s.%s = %s.%s",
			table, factAlias, d.QuoteIdent(drill.ForeignKey), alias, d.QuoteIdent(drill.PrimaryKey))
	}
	table = d.QuoteIdent(drill.Table.Name) + " AS " + alias
	return fmt.Sprintf(" JOIN %s ON %s.%s = %s.%s",
		table, factAlias, d.QuoteIdent(drill.ForeignKey), alias, d.QuoteIdent(drill.PrimaryKey))
}

// inlineTableExpr renders a schema-less dimension as a UNION ALL of
// literal rows, the one VALUES spelling that parses identically across
// MySQL, Postgres, and ClickHouse, per spec §4.4 "Inline tables".
func (d Dialect) inlineTableExpr(t schema.InlineTable, alias string) string {
	rows := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		cols := make([]string, len(row))
		for j, v := range row {
			cols[j] = d.QuoteString(v) + " AS " + d.QuoteIdent(t.Columns[j])
		}
		rows[i] = "SELECT " + strings.Join(cols, ", ")
	}
	return "(" + strings.Join(rows, " UNION ALL ") + ") AS " + alias
}

func (d Dialect) havingExpr(f *queryir.FilterSql) string {
	clause := fmt.Sprintf("%s %s %d", d.QuoteIdent(f.Column), f.Cmp, f.N)
	if f.Op == "" {
		return clause
	}
	clause2 := fmt.Sprintf("%s %s %d", d.QuoteIdent(f.Column2), f.Cmp2, f.N2)
	return clause + " " + f.Op + " " + clause2
}

// generateAggregate renders the plain grouped-aggregate shape, with
// optional top-N-per-group, HAVING filter, ORDER BY, and LIMIT/OFFSET.
// It returns the rendered SQL and the base query it was built from, so
// growth/rca/rate can reuse the same join/cut/group logic as their
// innermost subquery.
func (d Dialect) generateAggregate(ir *queryir.QueryIR) (string, baseQuery, error) {
	b := d.buildBase(ir)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.selectCols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if len(b.groupCols) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupCols, ", "))
	}

	sql := sb.String()

	if ir.Filter != nil {
		sql = fmt.Sprintf("SELECT * FROM (%s) AS agg WHERE %s", sql, d.havingExpr(ir.Filter))
	}
	if ir.Top != nil {
		sql = d.wrapTop(sql, ir.Top)
	}

	sql = d.applySortLimit(sql, ir)
	return sql, b, nil
}

func (d Dialect) applySortLimit(sql string, ir *queryir.QueryIR) string {
	if len(ir.Sort) > 0 {
		parts := make([]string, len(ir.Sort))
		for i, s := range ir.Sort {
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			parts[i] = d.QuoteIdent(s.Column) + " " + dir
		}
		sql += " ORDER BY " + strings.Join(parts, ", ")
	}
	if ir.Limit != nil {
		sql += fmt.Sprintf(" LIMIT %d", ir.Limit.N)
		if ir.Limit.Offset > 0 {
			sql += fmt.Sprintf(" OFFSET %d", ir.Limit.Offset)
		}
	}
	return sql
}

// wrapTop applies the top_where pre-cutoff filter, then ranks rows
// within each partition and keeps only the first N, per spec §4.4
// "Top-N-per-group". ClickHouse gets its native LIMIT n BY; every
// other dialect gets a ROW_NUMBER() window wrapped in an outer filter.
func (d Dialect) wrapTop(innerSQL string, t *queryir.TopSql) string {
	if t.Where != nil {
		innerSQL = fmt.Sprintf("SELECT * FROM (%s) AS pre WHERE %s", innerSQL, d.havingExpr(t.Where))
	}

	orderBy := make([]string, len(t.SortColumns))
	for i, s := range t.SortColumns {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		orderBy[i] = d.QuoteIdent(s.Column) + " " + dir
	}
	order := strings.Join(orderBy, ", ")

	if d.LimitByNative {
		return fmt.Sprintf(
			"SELECT * FROM (%s) AS ranked ORDER BY %s LIMIT %d BY %s",
			innerSQL, order, t.N, d.QuoteIdent(t.ByColumn),
		)
	}

	return fmt.Sprintf(
		"SELECT * FROM (SELECT ranked.*, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS rn FROM (%s) AS ranked) AS topn WHERE rn <= %d",
		d.QuoteIdent(t.ByColumn), order, innerSQL, t.N,
	)
}
