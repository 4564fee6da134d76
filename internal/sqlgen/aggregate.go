package sqlgen

import (
	"fmt"

	"tesseract/internal/queryir"
	"tesseract/internal/schema"
)

// aggregateExpr renders one MeasureSql's aggregation expression. Most
// aggregators map onto a single SQL function; median and quantile fall
// back to the nearest portable approximation per dialect, since not
// every backend ships the same percentile function, per spec §4.4
// "Aggregation".
func (d Dialect) aggregateExpr(m queryir.MeasureSql, col string) string {
	switch m.Aggregator {
	case schema.AggSum:
		return fmt.Sprintf("SUM(%s)", col)
	case schema.AggAvg:
		return fmt.Sprintf("AVG(%s)", col)
	case schema.AggMin:
		return fmt.Sprintf("MIN(%s)", col)
	case schema.AggMax:
		return fmt.Sprintf("MAX(%s)", col)
	case schema.AggCount:
		return fmt.Sprintf("COUNT(%s)", col)
	case schema.AggDistinctCount:
		return fmt.Sprintf("COUNT(DISTINCT %s)", col)
	case schema.AggMedian:
		return d.medianExpr(col)
	case schema.AggQuantile:
		return d.quantileExpr(col, m.QuantileArg)
	case schema.AggBasicWeightedAverage:
		weightCol := d.QuoteIdent(m.WeightCol)
		return fmt.Sprintf("SUM(%s * %s) / SUM(%s)", col, weightCol, weightCol)
	default:
		return fmt.Sprintf("SUM(%s)", col)
	}
}

func (d Dialect) medianExpr(col string) string {
	if d.Name == ClickHouse {
		return fmt.Sprintf("medianExact(%s)", col)
	}
	return fmt.Sprintf("PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY %s)", col)
}

func (d Dialect) quantileExpr(col string, q float64) string {
	if d.Name == ClickHouse {
		return fmt.Sprintf("quantileExact(%v)(%s)", q, col)
	}
	return fmt.Sprintf("PERCENTILE_CONT(%v) WITHIN GROUP (ORDER BY %s)", q, col)
}
