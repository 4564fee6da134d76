package sqlgen

import (
	"fmt"

	"tesseract/internal/queryir"
)

// generateRca computes a ratio-of-ratios across two drill groups, per
// spec §4.4 "RCA": (value[d1,d2] / total[d1]) / (total[d2] / grand
// total). All four aggregates are computed against the same base
// grouping, then combined in an outer SELECT.
func (d Dialect) generateRca(ir *queryir.QueryIR) (string, error) {
	r := ir.Rca
	base, err := d.rcaBaseSQL(ir)
	if err != nil {
		return "", err
	}

	totalByDim1 := fmt.Sprintf(
		"SELECT %s, SUM(%s) AS t1 FROM (%s) AS b GROUP BY %s",
		d.QuoteIdent(r.Dim1Column), d.QuoteIdent(r.MeasureCol), base, d.QuoteIdent(r.Dim1Column),
	)
	totalByDim2 := fmt.Sprintf(
		"SELECT %s, SUM(%s) AS t2 FROM (%s) AS b GROUP BY %s",
		d.QuoteIdent(r.Dim2Column), d.QuoteIdent(r.MeasureCol), base, d.QuoteIdent(r.Dim2Column),
	)
	grandTotal := fmt.Sprintf("SELECT SUM(%s) AS gt FROM (%s) AS b", d.QuoteIdent(r.MeasureCol), base)

	debugCols := ""
	if ir.Debug {
		debugCols = fmt.Sprintf(", b.%s AS %s, d1.t1 AS %s, d2.t2 AS %s, gt.gt AS %s",
			d.QuoteIdent(r.MeasureCol),
			d.QuoteIdent(r.Alias+"_value"),
			d.QuoteIdent(r.Alias+"_dim1_total"),
			d.QuoteIdent(r.Alias+"_dim2_total"),
			d.QuoteIdent(r.Alias+"_grand_total"),
		)
	}

	sql := fmt.Sprintf(
		`SELECT b.%s, b.%s, b.%s,
  (b.%s / d1.t1) / (d2.t2 / gt.gt) AS %s%s
FROM (%s) AS b
JOIN (%s) AS d1 ON b.%s = d1.%s
JOIN (%s) AS d2 ON b.%s = d2.%s
CROSS JOIN (%s) AS gt`,
		d.QuoteIdent(r.Dim1Column), d.QuoteIdent(r.Dim2Column), d.QuoteIdent(r.MeasureCol),
		d.QuoteIdent(r.MeasureCol), d.QuoteIdent(r.Alias), debugCols,
		base,
		totalByDim1, d.QuoteIdent(r.Dim1Column), d.QuoteIdent(r.Dim1Column),
		totalByDim2, d.QuoteIdent(r.Dim2Column), d.QuoteIdent(r.Dim2Column),
		grandTotal,
	)
	if ir.Filter != nil {
		sql = fmt.Sprintf("SELECT * FROM (%s) AS agg WHERE %s", sql, d.havingExpr(ir.Filter))
	}
	if ir.Top != nil {
		sql = d.wrapTop(sql, ir.Top)
	}
	return d.applySortLimit(sql, ir), nil
}

// DebugHeaders returns the extra header names generateRca appends when
// ir.Debug is set: the raw numerator and the three totals behind the
// ratio, in the same column order generateRca emits them.
func DebugHeaders(alias string) []string {
	return []string{alias + "_value", alias + "_dim1_total", alias + "_dim2_total", alias + "_grand_total"}
}

// rcaBaseSQL is the grouped aggregate the four RCA terms are all
// computed from: the measures grouped by every drilldown in the IR (the
// two RCA drills plus any other drilldowns of the query).
func (d Dialect) rcaBaseSQL(ir *queryir.QueryIR) (string, error) {
	sql, _, err := d.generateAggregate(&queryir.QueryIR{
		Cube:       ir.Cube,
		Fact:       ir.Fact,
		Drilldowns: ir.Drilldowns,
		Measures:   ir.Measures,
	})
	return sql, err
}
