// Package query holds the validated, typed user request described in
// spec §3/§4.3: drilldowns, cuts, measures, properties, parents,
// top/top-where/sort/limit, RCA, growth, rate, filters, captions,
// debug/sparse flags. A Query carries no references into the schema —
// only names — and is immutable once Validate succeeds.
package query

import (
	"net/url"
	"strings"

	"tesseract/internal/names"
	"tesseract/internal/oerrors"
)

// Query is constructed empty via New and mutated by parsing URL tokens.
type Query struct {
	Drilldowns []names.Drilldown
	Cuts       []names.Cut
	Measures   []names.Measure
	Properties []names.Property
	Captions   []names.Property

	// Parents, when true, requests parent-level columns for every
	// drilldown. PerDrilldownParents overrides Parents for specific
	// drilldowns, supplementing the flattened boolean the distilled spec
	// carries with the original's per-drilldown override (see
	// SPEC_FULL §4.3, grounded in tesseract-core/src/query.rs).
	Parents              bool
	PerDrilldownParents  map[string]bool

	Top      *names.TopQuery
	TopWhere *names.TopWhereQuery
	Sort     *names.SortQuery
	Limit    *names.LimitQuery
	Filter   *names.FilterQuery
	Rca      *names.RcaQuery
	Growth   *names.GrowthQuery
	Rate     *names.RateQuery

	Debug                 bool
	Sparse                bool
	ExcludeDefaultMembers bool
}

// New constructs an empty Query.
func New() *Query {
	return &Query{PerDrilldownParents: map[string]bool{}}
}

// ParentsFor reports whether parent columns should be emitted for the
// given drilldown, honoring a per-drilldown override before the global
// flag.
func (q *Query) ParentsFor(drill names.Drilldown) bool {
	if v, ok := q.PerDrilldownParents[drill.String()]; ok {
		return v
	}
	return q.Parents
}

// ParseURLValues mutates a fresh Query from repeatable and scalar query
// parameters, per spec §6's "Query string contract". Repeatable:
// drilldowns, cuts, measures, properties. Scalar: top, top_where, sort,
// limit, growth, rca, rate, filter, parents, debug, sparse,
// exclude_default_members.
func ParseURLValues(v url.Values) (*Query, error) {
	q := New()

	for _, tok := range v["drilldowns"] {
		d, err := names.ParseDrilldown(tok)
		if err != nil {
			return nil, err
		}
		q.Drilldowns = append(q.Drilldowns, d)
	}
	for _, tok := range v["cuts"] {
		c, err := names.ParseCut(tok)
		if err != nil {
			return nil, err
		}
		q.Cuts = append(q.Cuts, c)
	}
	for _, tok := range v["measures"] {
		m, err := names.ParseMeasure(tok)
		if err != nil {
			return nil, err
		}
		q.Measures = append(q.Measures, m)
	}
	for _, tok := range v["properties"] {
		p, err := names.ParseProperty(tok)
		if err != nil {
			return nil, err
		}
		q.Properties = append(q.Properties, p)
	}
	for _, tok := range v["captions"] {
		c, err := names.ParseProperty(tok)
		if err != nil {
			return nil, err
		}
		q.Captions = append(q.Captions, c)
	}

	if tok := v.Get("top"); tok != "" {
		top, err := names.ParseTopQuery(tok)
		if err != nil {
			return nil, err
		}
		q.Top = &top
	}
	if tok := v.Get("top_where"); tok != "" {
		tw, err := names.ParseTopWhereQuery(tok)
		if err != nil {
			return nil, err
		}
		q.TopWhere = &tw
	}
	if tok := v.Get("sort"); tok != "" {
		s, err := names.ParseSortQuery(tok)
		if err != nil {
			return nil, err
		}
		q.Sort = &s
	}
	if tok := v.Get("limit"); tok != "" {
		l, err := names.ParseLimitQuery(tok)
		if err != nil {
			return nil, err
		}
		q.Limit = &l
	}
	if tok := v.Get("filter"); tok != "" {
		f, err := names.ParseFilterQuery(tok)
		if err != nil {
			return nil, err
		}
		q.Filter = &f
	}
	if tok := v.Get("rca"); tok != "" {
		r, err := names.ParseRcaQuery(tok)
		if err != nil {
			return nil, err
		}
		q.Rca = &r
	}
	if tok := v.Get("growth"); tok != "" {
		g, err := names.ParseGrowthQuery(tok)
		if err != nil {
			return nil, err
		}
		q.Growth = &g
	}
	if tok := v.Get("rate"); tok != "" {
		r, err := names.ParseRateQuery(tok)
		if err != nil {
			return nil, err
		}
		q.Rate = &r
	}

	q.Parents = parseBool(v.Get("parents"))
	q.Debug = parseBool(v.Get("debug"))
	q.Sparse = parseBool(v.Get("sparse"))
	q.ExcludeDefaultMembers = parseBool(v.Get("exclude_default_members"))

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true") || s == "1"
}

// Validate enforces the one cross-field rule spec §3/§4.3/§8 pin down:
// if RCA is present and drilldowns are non-empty, neither RCA drilldown
// may also appear in the drilldown list.
func (q *Query) Validate() error {
	if q.Rca == nil || len(q.Drilldowns) == 0 {
		return nil
	}
	for _, d := range q.Drilldowns {
		if d == q.Rca.Drill1 || d == q.Rca.Drill2 {
			return &oerrors.ValidationError{
				Msg: "duplicate drilldown in RCA and drilldowns: Duplicated drilldown in RCA " + d.String(),
			}
		}
	}
	return nil
}
