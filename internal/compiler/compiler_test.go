package compiler

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesseract/internal/names"
	"tesseract/internal/query"
	"tesseract/internal/schema"
)

func testSchema() *schema.Schema {
	geo := schema.Dimension{
		Name: "Geo",
		Hierarchies: []schema.Hierarchy{
			{
				Name:       "Geo",
				Table:      schema.Table{Name: "dim_geo"},
				PrimaryKey: schema.Column{Name: "id"},
				ForeignKey: schema.Column{Name: "geo_id"},
				Levels: []schema.Level{
					{Name: "Country", KeyColumn: schema.Column{Name: "country_id"}, NameColumn: &schema.Column{Name: "country_name"}},
					{Name: "State", KeyColumn: schema.Column{Name: "state_id"}, NameColumn: &schema.Column{Name: "state_name"}},
				},
			},
		},
	}
	year := schema.Dimension{
		Name: "Year",
		Hierarchies: []schema.Hierarchy{
			{
				Name:       "Year",
				Table:      schema.Table{Name: "dim_year"},
				PrimaryKey: schema.Column{Name: "id"},
				ForeignKey: schema.Column{Name: "year_id"},
				Levels: []schema.Level{
					{Name: "Year", KeyColumn: schema.Column{Name: "year"}},
				},
			},
		},
	}
	cube := &schema.Cube{
		Name:       "Sales",
		Table:      schema.Table{Name: "fact_sales"},
		Dimensions: []schema.Dimension{geo, year},
		Measures: []schema.Measure{
			{Name: "Sales", Column: schema.Column{Name: "amount"}, Aggregator: schema.AggSum},
			{Name: "Quantity", Column: schema.Column{Name: "qty"}, Aggregator: schema.AggSum},
		},
	}
	return &schema.Schema{Cubes: map[string]*schema.Cube{"Sales": cube}}
}

func TestCompileBasicAggregate(t *testing.T) {
	snap := testSchema()
	q, err := query.ParseURLValues(url.Values{
		"drilldowns": {"Geo.State"},
		"measures":   {"Sales"},
	})
	require.NoError(t, err)

	c := NewCompiler(snap)
	ir, headers, err := c.Compile(context.Background(), "Sales", q)
	require.NoError(t, err)

	assert.Equal(t, "Sales", ir.Cube)
	require.Len(t, ir.Drilldowns, 1)
	require.Len(t, ir.Measures, 1)
	assert.Equal(t, "Sales", ir.Measures[0].Name)
	assert.Contains(t, headers, "Sales")
	assert.Contains(t, headers, "state_id_0")
	assert.Contains(t, headers, "state_name_0")
}

// TestCompileDefaultSort mirrors spec §4.4's default ordering rule:
// with no explicit sort, rows order by drilldown key columns,
// root-to-leaf, ascending.
func TestCompileDefaultSort(t *testing.T) {
	snap := testSchema()
	q, err := query.ParseURLValues(url.Values{
		"drilldowns": {"Geo.State", "Year.Year"},
		"measures":   {"Sales"},
	})
	require.NoError(t, err)

	c := NewCompiler(snap)
	ir, _, err := c.Compile(context.Background(), "Sales", q)
	require.NoError(t, err)
	require.Len(t, ir.Sort, 2)
	assert.Equal(t, "state_id_0", ir.Sort[0].Column)
	assert.False(t, ir.Sort[0].Desc)
	assert.Equal(t, "year_1", ir.Sort[1].Column)
	assert.False(t, ir.Sort[1].Desc)
}

func TestCompileUnknownCube(t *testing.T) {
	snap := testSchema()
	q := query.New()
	c := NewCompiler(snap)
	_, _, err := c.Compile(context.Background(), "Nope", q)
	require.Error(t, err)
}

func TestCompileCutOnDrilldown(t *testing.T) {
	snap := testSchema()
	q, err := query.ParseURLValues(url.Values{
		"drilldowns": {"Geo.State"},
		"cuts":       {"Geo.Country:us"},
		"measures":   {"Sales"},
	})
	require.NoError(t, err)

	c := NewCompiler(snap)
	ir, _, err := c.Compile(context.Background(), "Sales", q)
	require.NoError(t, err)
	require.Len(t, ir.Drilldowns, 1)
	require.Len(t, ir.Drilldowns[0].Cuts, 1)
	assert.Equal(t, "country_id", ir.Drilldowns[0].Cuts[0].Column)
}

// TestCompileRcaDuplicateDrilldown mirrors spec scenario 4: RCA sharing
// a drilldown with the output list is rejected before compilation.
func TestCompileRcaDuplicateDrilldown(t *testing.T) {
	_, err := query.ParseURLValues(url.Values{
		"drilldowns": {"Geo.State"},
		"rca":        {"Geo.State,Year.Year,Sales"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Duplicated drilldown in RCA")
}

func TestCompileRca(t *testing.T) {
	snap := testSchema()
	q, err := query.ParseURLValues(url.Values{
		"rca":      {"Geo.State,Year.Year,Sales"},
		"measures": {"Sales"},
	})
	require.NoError(t, err)

	c := NewCompiler(snap)
	ir, headers, err := c.Compile(context.Background(), "Sales", q)
	require.NoError(t, err)
	require.NotNil(t, ir.Rca)
	assert.Equal(t, "Sales", ir.Rca.MeasureCol)
	assert.Contains(t, headers, "rca")
}

func TestMembersSql(t *testing.T) {
	snap := testSchema()
	sql, headers, err := MembersSql(snap, "Sales", names.LevelName{Dimension: "Geo", Hierarchy: "Geo", Level: "State"})
	require.NoError(t, err)
	assert.Contains(t, sql, "dim_geo")
	assert.Equal(t, []string{"state_id", "state_name"}, []string(headers))
}
