package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesseract/internal/names"
)

func TestParseURLValuesBasic(t *testing.T) {
	q, err := ParseURLValues(url.Values{
		"drilldowns": {"Geo.State", "Year.Year"},
		"measures":   {"Sales"},
		"cuts":       {"Geo.Country:us"},
		"parents":    {"true"},
		"debug":      {"1"},
	})
	require.NoError(t, err)
	assert.Len(t, q.Drilldowns, 2)
	assert.Len(t, q.Measures, 1)
	assert.Len(t, q.Cuts, 1)
	assert.True(t, q.Parents)
	assert.True(t, q.Debug)
	assert.False(t, q.Sparse)
}

func TestParseURLValuesAllScalarTokens(t *testing.T) {
	q, err := ParseURLValues(url.Values{
		"top":       {"5,Geo.State,Sales,desc"},
		"top_where": {"Sales,gt.100"},
		"sort":      {"Sales.desc"},
		"limit":     {"10"},
		"filter":    {"rca,gte.1"},
		"growth":    {"Time.Year,Sales"},
	})
	require.NoError(t, err)
	require.NotNil(t, q.Top)
	assert.Equal(t, int64(5), q.Top.N)
	require.NotNil(t, q.TopWhere)
	require.NotNil(t, q.Sort)
	require.NotNil(t, q.Limit)
	require.NotNil(t, q.Filter)
	require.NotNil(t, q.Growth)
}

func TestParseURLValuesPropagatesParseError(t *testing.T) {
	_, err := ParseURLValues(url.Values{"drilldowns": {"not-a-drilldown!"}})
	require.Error(t, err)
}

func TestValidateRejectsDuplicateRcaDrilldown(t *testing.T) {
	q, err := ParseURLValues(url.Values{
		"drilldowns": {"Geo.State"},
		"rca":        {"Geo.State,Year.Year,Sales"},
	})
	require.Error(t, err)
	assert.Nil(t, q)
	assert.Contains(t, err.Error(), "Duplicated drilldown in RCA")
}

func TestValidateAllowsRcaWithDisjointDrilldowns(t *testing.T) {
	q, err := ParseURLValues(url.Values{
		"drilldowns": {"Product.Category"},
		"rca":        {"Geo.State,Year.Year,Sales"},
	})
	require.NoError(t, err)
	require.NotNil(t, q.Rca)
}

func TestParentsForPerDrilldownOverride(t *testing.T) {
	q := New()
	q.Parents = true
	d, err := names.ParseDrilldown("Geo.State")
	require.NoError(t, err)
	assert.True(t, q.ParentsFor(d))

	q.PerDrilldownParents[d.String()] = false
	assert.False(t, q.ParentsFor(d))
}

func TestParseBoolVariants(t *testing.T) {
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("TRUE"))
	assert.True(t, parseBool("1"))
	assert.False(t, parseBool("false"))
	assert.False(t, parseBool(""))
}
