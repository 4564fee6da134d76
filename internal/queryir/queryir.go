// Package queryir is the physical plan produced by the compiler: the
// Query IR described in spec §3/§4.4. It owns every string the generator
// needs (aliases, table names, member literals) and carries no
// references back into the schema — once built, an IR node is a
// self-contained description of one physical operation.
package queryir

import "tesseract/internal/schema"

// Headers is the ordered list of column names the generated SQL will
// return, per spec §4.3 step 8. Generator output must match 1:1.
type Headers []string

// TableSql is the fact table scan, with any cuts pushed down that
// target a fact-table-resident level.
type TableSql struct {
	Table       schema.Table
	KeptColumns []string
	Cuts        []CutSql
}

// DrilldownSql is one dimension subquery. LevelColumns holds the ordered
// (key[, name]) column pairs from hierarchy root down to and including
// the target level, aliased with AliasPostfix to disambiguate across
// dimension subqueries that might otherwise collide on physical column
// name, per spec §3's aliasing invariant.
type DrilldownSql struct {
	Dimension    string
	Hierarchy    string
	Table        schema.Table
	PrimaryKey   string
	ForeignKey   string
	AliasPostfix string
	LevelColumns []LevelColumnSql
	Cuts         []CutSql
}

// LevelColumnSql is one level's contribution to a DrilldownSql: its
// aliased key column, optional aliased name column, and any aliased
// property columns. TargetLevel marks the deepest level the drilldown
// actually asked for; columns for shallower (parent) levels are only
// present when the query requested parents.
type LevelColumnSql struct {
	LevelName    string
	KeyColumn    string
	KeyAlias     string
	NameColumn   string // empty if the level has no name column
	NameAlias    string
	Properties   []PropertySql
	TargetLevel  bool
}

// PropertySql is one aliased property column.
type PropertySql struct {
	Name   string
	Column string
	Alias  string
}

// CutSql is a member-set filter on one level's key column.
type CutSql struct {
	Column     string
	Members    []string
	MemberType schema.MemberType
	Mask       Mask
	ForMatch   bool
}

// Mask mirrors names.Mask so queryir does not need to import the names
// package merely for this one enum.
type Mask int

const (
	MaskInclude Mask = iota
	MaskExclude
)

// MeasureSql composes <agg>(<column>) [AS <alias>].
type MeasureSql struct {
	Name        string
	Column      string
	Aggregator  schema.Aggregator
	QuantileArg float64
	WeightCol   string
	Alias       string
}

// SortSql orders the result by a single resolved column.
type SortSql struct {
	Column string
	Desc   bool
}

// LimitSql bounds and offsets the result set.
type LimitSql struct {
	Offset int64
	N      int64
}

// FilterSql is a HAVING-stage constraint, applied after the outermost
// aggregation. Op is one of "AND"/"OR" when both clauses are set; a
// single clause leaves Op empty.
type FilterSql struct {
	Column  string
	Cmp     string // SQL comparison operator, e.g. ">="
	N       int64
	Op      string
	Column2 string
	Cmp2    string
	N2      int64
}

// TopSql ranks rows within partitions and keeps only the first N.
type TopSql struct {
	N            int64
	ByColumn     string
	SortColumns  []SortSql
	Where        *FilterSql // top_where, applied before the cutoff
}

// RcaSql computes the four aggregates (numerator, denominator,
// total-by-dim1, total-by-dim2) and their RCA ratio.
type RcaSql struct {
	Dim1Column   string
	Dim2Column   string
	MeasureCol   string
	Alias        string
	Debug        bool
}

// GrowthSql computes period-over-period percentage growth across a time
// level, via LAG() partitioned by the non-time drilldowns.
type GrowthSql struct {
	TimeColumn    string
	MeasureColumn string
	PartitionBy   []string
	Alias         string
}

// RateSql normalizes a measure against a fixed set of members of a
// pinned level.
type RateSql struct {
	Column      string
	Members     []string
	MeasureCol  string
	Alias       string
}

// QueryIR is the complete physical plan for one compiled request.
type QueryIR struct {
	Cube        string
	Dialect     string
	Fact        TableSql
	Drilldowns  []DrilldownSql
	Measures    []MeasureSql
	Sort        []SortSql
	Limit       *LimitSql
	Filter      *FilterSql
	Top         *TopSql
	Rca         *RcaSql
	Growth      *GrowthSql
	Rate        *RateSql
	Sparse      bool
	Debug       bool
	Headers     Headers
}
