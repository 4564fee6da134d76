package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesseract/internal/queryir"
	"tesseract/internal/schema"
)

// TestGenerateGrowthFormula pins Open Question 2: growth is percentage
// growth, (cur - prev) / prev * 100, via LAG() partitioned by the
// non-time drilldowns and ordered by the time column.
func TestGenerateGrowthFormula(t *testing.T) {
	ir := &queryir.QueryIR{
		Cube: "Sales",
		Fact: queryir.TableSql{Table: schema.Table{Name: "sales"}},
		Drilldowns: []queryir.DrilldownSql{
			{
				Dimension: "Geo", Hierarchy: "Geo", Table: schema.Table{Name: "geo"},
				PrimaryKey: "id", ForeignKey: "geo_id", AliasPostfix: "0",
				LevelColumns: []queryir.LevelColumnSql{{LevelName: "State", KeyColumn: "id", KeyAlias: "id_0", TargetLevel: true}},
			},
			{
				Dimension: "Year", Hierarchy: "Year", Table: schema.Table{Name: "year"},
				PrimaryKey: "id", ForeignKey: "year_id", AliasPostfix: "1",
				LevelColumns: []queryir.LevelColumnSql{{LevelName: "Year", KeyColumn: "id", KeyAlias: "id_1", TargetLevel: true}},
			},
		},
		Measures: []queryir.MeasureSql{{Name: "Sales", Column: "val", Aggregator: schema.AggSum, Alias: "Sales"}},
		Growth: &queryir.GrowthSql{
			TimeColumn:    "id_1",
			MeasureColumn: "Sales",
			PartitionBy:   []string{"id_0"},
			Alias:         "growth",
		},
	}

	sql, err := Generate(ir, Standard)
	require.NoError(t, err)
	assert.Contains(t, sql, `LAG(b."Sales") OVER (PARTITION BY "id_0" ORDER BY b."id_1")`)
	assert.Contains(t, sql, `* 100 AS "growth"`)
	assert.Contains(t, sql, `(b."Sales" - LAG(b."Sales")`)
}

// TestGenerateGrowthNoPartition covers a growth query with no other
// drilldowns: LAG() still orders by time but carries no PARTITION BY.
func TestGenerateGrowthNoPartition(t *testing.T) {
	ir := &queryir.QueryIR{
		Cube: "Sales",
		Fact: queryir.TableSql{Table: schema.Table{Name: "sales"}},
		Drilldowns: []queryir.DrilldownSql{
			{
				Dimension: "Year", Hierarchy: "Year", Table: schema.Table{Name: "year"},
				PrimaryKey: "id", ForeignKey: "year_id", AliasPostfix: "0",
				LevelColumns: []queryir.LevelColumnSql{{LevelName: "Year", KeyColumn: "id", KeyAlias: "id_0", TargetLevel: true}},
			},
		},
		Measures: []queryir.MeasureSql{{Name: "Sales", Column: "val", Aggregator: schema.AggSum, Alias: "Sales"}},
		Growth: &queryir.GrowthSql{
			TimeColumn:    "id_0",
			MeasureColumn: "Sales",
			Alias:         "growth",
		},
	}

	sql, err := Generate(ir, Standard)
	require.NoError(t, err)
	assert.Contains(t, sql, `LAG(b."Sales") OVER (ORDER BY b."id_0")`)
	assert.NotContains(t, sql, "PARTITION BY")
}
