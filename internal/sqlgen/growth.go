package sqlgen

import (
	"fmt"
	"strings"

	"tesseract/internal/queryir"
)

// generateGrowth computes period-over-period percentage growth across
// a time level via LAG(), per spec §4.4 "Growth": partitioned by every
// other drilldown, ordered by the time column.
func (d Dialect) generateGrowth(ir *queryir.QueryIR) (string, error) {
	g := ir.Growth
	base, _, err := d.generateAggregate(&queryir.QueryIR{
		Cube:       ir.Cube,
		Fact:       ir.Fact,
		Drilldowns: ir.Drilldowns,
		Measures:   ir.Measures,
	})
	if err != nil {
		return "", err
	}

	partition := ""
	if len(g.PartitionBy) > 0 {
		cols := make([]string, len(g.PartitionBy))
		for i, c := range g.PartitionBy {
			cols[i] = d.QuoteIdent(c)
		}
		partition = "PARTITION BY " + strings.Join(cols, ", ") + " "
	}

	prevAlias := "prev_" + g.Alias
	sql := fmt.Sprintf(
		`SELECT b.*, LAG(b.%s) OVER (%sORDER BY b.%s) AS %s,
  (b.%s - LAG(b.%s) OVER (%sORDER BY b.%s)) / LAG(b.%s) OVER (%sORDER BY b.%s) * 100 AS %s
FROM (%s) AS b`,
		d.QuoteIdent(g.MeasureColumn), partition, d.QuoteIdent(g.TimeColumn), d.QuoteIdent(prevAlias),
		d.QuoteIdent(g.MeasureColumn), d.QuoteIdent(g.MeasureColumn), partition, d.QuoteIdent(g.TimeColumn),
		d.QuoteIdent(g.MeasureColumn), partition, d.QuoteIdent(g.TimeColumn), d.QuoteIdent(g.Alias),
		base,
	)
	if ir.Filter != nil {
		sql = fmt.Sprintf("SELECT * FROM (%s) AS agg WHERE %s", sql, d.havingExpr(ir.Filter))
	}
	if ir.Top != nil {
		sql = d.wrapTop(sql, ir.Top)
	}
	return d.applySortLimit(sql, ir), nil
}
