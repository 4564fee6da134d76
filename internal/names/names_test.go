package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesseract/internal/oerrors"
)

func TestParseLevelNameTwoSegment(t *testing.T) {
	ln, err := ParseLevelName("Geo.State")
	require.NoError(t, err)
	assert.Equal(t, LevelName{Dimension: "Geo", Hierarchy: "Geo", Level: "State"}, ln)
}

func TestParseLevelNameThreeSegment(t *testing.T) {
	ln, err := ParseLevelName("Geo.Geo.State")
	require.NoError(t, err)
	assert.Equal(t, LevelName{Dimension: "Geo", Hierarchy: "Geo", Level: "State"}, ln)
}

func TestParseLevelNameRejectsMalformed(t *testing.T) {
	for _, token := range []string{"", "Geo", "Geo.", "Geo..State", "A.B.C.D"} {
		_, err := ParseLevelName(token)
		require.Error(t, err, token)
		var pe *oerrors.ParseError
		require.ErrorAs(t, err, &pe)
	}
}

// Scenario 1 from spec §8: Parse "Geo.State:01,02,03".
func TestScenario1ParseCut(t *testing.T) {
	cut, err := ParseCut("Geo.State:01,02,03")
	require.NoError(t, err)
	assert.Equal(t, LevelName{Dimension: "Geo", Hierarchy: "Geo", Level: "State"}, cut.Level)
	assert.Equal(t, []string{"01", "02", "03"}, cut.Members)
	assert.Equal(t, MaskInclude, cut.Mask)
	assert.False(t, cut.ForMatch)
}

func TestParseCutExclude(t *testing.T) {
	cut, err := ParseCut("Geo.State:~01,02")
	require.NoError(t, err)
	assert.Equal(t, MaskExclude, cut.Mask)
	assert.Equal(t, []string{"01", "02"}, cut.Members)
}

func TestParseCutForMatch(t *testing.T) {
	cut, err := ParseCut("Geo.State:New*")
	require.NoError(t, err)
	assert.True(t, cut.ForMatch)
}

func TestParseCutRejectsMalformed(t *testing.T) {
	for _, token := range []string{"Geo.State", "Geo.State:", "Geo.State:a,,b", ":01"} {
		_, err := ParseCut(token)
		require.Error(t, err, token)
	}
}

// Scenario 3 from spec §8: Parse "gt.100" as Constraint.
func TestScenario3ParseConstraint(t *testing.T) {
	c, err := ParseConstraint("gt.100")
	require.NoError(t, err)
	assert.Equal(t, Gt, c.Cmp)
	assert.Equal(t, int64(100), c.N)
	assert.Equal(t, ">", c.Cmp.SQL())
}

func TestParseConstraintAllComparisons(t *testing.T) {
	cases := map[string]string{
		"eq.1": "=", "neq.1": "<>", "lt.1": "<", "lte.1": "<=", "gt.1": ">", "gte.1": ">=",
	}
	for token, sql := range cases {
		c, err := ParseConstraint(token)
		require.NoError(t, err, token)
		assert.Equal(t, sql, c.Cmp.SQL(), token)
	}
}

func TestParseMeasureRejectsDots(t *testing.T) {
	_, err := ParseMeasure("Sales.Total")
	require.Error(t, err)
}

func TestParseProperty(t *testing.T) {
	p, err := ParseProperty("Geo.Geo.State.Population")
	require.NoError(t, err)
	assert.Equal(t, "Population", p.Name)
	assert.Equal(t, "State", p.Level.Level)
}

func TestParseSortDirectionCaseSensitive(t *testing.T) {
	_, err := ParseSortDirection("ASC")
	require.Error(t, err)
	d, err := ParseSortDirection("asc")
	require.NoError(t, err)
	assert.Equal(t, Asc, d)
}

func TestParseMeaOrCalcShadowsMeasure(t *testing.T) {
	mc, err := ParseMeaOrCalc("rca")
	require.NoError(t, err)
	assert.True(t, mc.IsCalc)
	assert.Equal(t, CalcRca, mc.Calc)
}

func TestParseMeaOrCalcPlainMeasure(t *testing.T) {
	mc, err := ParseMeaOrCalc("Sales")
	require.NoError(t, err)
	assert.False(t, mc.IsCalc)
	assert.Equal(t, Measure("Sales"), mc.Measure)
}

// Scenario 2 from spec §8: Parse "5,Geo.State,Sales,desc" as TopQuery.
func TestScenario2ParseTopQuery(t *testing.T) {
	tq, err := ParseTopQuery("5,Geo.State,Sales,desc")
	require.NoError(t, err)
	assert.Equal(t, int64(5), tq.N)
	assert.Equal(t, LevelName{Dimension: "Geo", Hierarchy: "Geo", Level: "State"}, tq.By)
	assert.Equal(t, Measure("Sales"), tq.Sort.Measure)
	assert.Equal(t, Desc, tq.Dir)
}

func TestParseTopQueryRejectsMissingField(t *testing.T) {
	_, err := ParseTopQuery("5,Geo.State,Sales")
	require.Error(t, err)
}

func TestParseTopWhereQuery(t *testing.T) {
	twq, err := ParseTopWhereQuery("Sales,gt.100")
	require.NoError(t, err)
	assert.Equal(t, Measure("Sales"), twq.MeaOrCalc.Measure)
	assert.Equal(t, int64(100), twq.Constraint.N)
}

func TestParseFilterQuery(t *testing.T) {
	fq, err := ParseFilterQuery("rca,gte.1")
	require.NoError(t, err)
	assert.True(t, fq.MeaOrCalc.IsCalc)
	assert.Equal(t, Gte, fq.Constraint.Cmp)
}

func TestParseLimitQueryBareN(t *testing.T) {
	lq, err := ParseLimitQuery("10")
	require.NoError(t, err)
	assert.Equal(t, int64(0), lq.Offset)
	assert.Equal(t, int64(10), lq.N)
}

func TestParseLimitQueryOffsetAndN(t *testing.T) {
	lq, err := ParseLimitQuery("5,10")
	require.NoError(t, err)
	assert.Equal(t, int64(5), lq.Offset)
	assert.Equal(t, int64(10), lq.N)
}

func TestParseLimitQueryRejectsNegative(t *testing.T) {
	_, err := ParseLimitQuery("-1")
	require.Error(t, err)
}

func TestParseSortQuery(t *testing.T) {
	sq, err := ParseSortQuery("Sales.desc")
	require.NoError(t, err)
	assert.Equal(t, Measure("Sales"), sq.Measure.Measure)
	assert.Equal(t, Desc, sq.Dir)
}

func TestParseRcaQuery(t *testing.T) {
	rq, err := ParseRcaQuery("Geo.State,Product.Category,Sales")
	require.NoError(t, err)
	assert.Equal(t, "State", rq.Drill1.Level)
	assert.Equal(t, "Category", rq.Drill2.Level)
	assert.Equal(t, Measure("Sales"), rq.Measure)
}

func TestParseGrowthQuery(t *testing.T) {
	gq, err := ParseGrowthQuery("Time.Year,Sales")
	require.NoError(t, err)
	assert.Equal(t, "Year", gq.TimeDrill.Level)
	assert.Equal(t, Measure("Sales"), gq.Measure)
}

func TestParseRateQueryThreeSegmentLevel(t *testing.T) {
	rq, err := ParseRateQuery("Geo.State.01,02")
	require.NoError(t, err)
	assert.Equal(t, LevelName{Dimension: "Geo", Hierarchy: "Geo", Level: "State"}, rq.Level)
	assert.Equal(t, []string{"01", "02"}, rq.Members)
}

func TestParseRateQueryFourSegmentLevel(t *testing.T) {
	rq, err := ParseRateQuery("Geo.Geo.State.01,02")
	require.NoError(t, err)
	assert.Equal(t, LevelName{Dimension: "Geo", Hierarchy: "Geo", Level: "State"}, rq.Level)
	assert.Equal(t, []string{"01", "02"}, rq.Members)
}

// Round-trip property (spec §8 invariant 3): parsing a canonical token and
// re-stringifying the LevelName portion yields the same dotted form.
func TestLevelNameRoundTrip(t *testing.T) {
	for _, token := range []string{"Geo.Geo.State", "Time.Time.Year"} {
		ln, err := ParseLevelName(token)
		require.NoError(t, err)
		assert.Equal(t, token, ln.String())
	}
}
