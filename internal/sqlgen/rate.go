package sqlgen

import (
	"fmt"

	"tesseract/internal/queryir"
)

// generateRate normalizes a measure against the sum over a fixed set of
// members of a pinned level, per spec §4.4 "Rate": every output row's
// measure is divided by the sum of that same measure across the pinned
// member set, independent of the row's own drilldown values. The
// pinned level is assumed fact-resident, the same assumption bindCut
// makes for any cut whose level lives on the cube's own table.
func (d Dialect) generateRate(ir *queryir.QueryIR) (string, error) {
	r := ir.Rate
	if len(ir.Measures) == 0 {
		return "", fmt.Errorf("sqlgen: rate requires at least one measure")
	}
	base, _, err := d.generateAggregate(&queryir.QueryIR{
		Cube:       ir.Cube,
		Fact:       ir.Fact,
		Drilldowns: ir.Drilldowns,
		Measures:   ir.Measures,
	})
	if err != nil {
		return "", err
	}
	measureAlias := d.QuoteIdent(ir.Measures[0].Alias)
	factTable := d.QuoteIdent(ir.Fact.Table.Name) + " AS fact"

	pinnedWhere := []string{d.cutPredicate("fact."+d.QuoteIdent(r.Column), queryir.CutSql{
		Column:  r.Column,
		Members: r.Members,
	})}
	for _, c := range ir.Fact.Cuts {
		pinnedWhere = append(pinnedWhere, d.cutPredicate("fact."+d.QuoteIdent(c.Column), c))
	}
	pinnedSQL := fmt.Sprintf(
		"SELECT %s AS denom FROM %s WHERE %s",
		d.aggregateExpr(ir.Measures[0], "fact."+d.QuoteIdent(ir.Measures[0].Column)), factTable, joinAnd(pinnedWhere),
	)

	sql := fmt.Sprintf(
		"SELECT b.*, b.%s / r.denom AS %s FROM (%s) AS b CROSS JOIN (%s) AS r",
		measureAlias, d.QuoteIdent(r.Alias), base, pinnedSQL,
	)
	if ir.Filter != nil {
		sql = fmt.Sprintf("SELECT * FROM (%s) AS agg WHERE %s", sql, d.havingExpr(ir.Filter))
	}
	if ir.Top != nil {
		sql = d.wrapTop(sql, ir.Top)
	}
	return d.applySortLimit(sql, ir), nil
}

func joinAnd(clauses []string) string {
	if len(clauses) == 0 {
		return "1=1"
	}
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out
}
