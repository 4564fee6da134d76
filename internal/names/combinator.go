package names

import (
	"strconv"
	"strings"

	"tesseract/internal/oerrors"
)

// splitFields splits token on sep and fails unless the result has
// exactly n non-empty fields. It centralizes the split-then-validate
// shape of the fixed-arity parsers below (top, rca, growth); the
// top-where, limit, sort and rate parsers split their tokens by hand.
func splitFields(kind oerrors.ParseKind, token, sep string, n int) ([]string, error) {
	fields := strings.Split(token, sep)
	if len(fields) != n {
		return nil, &oerrors.ParseError{Kind: kind, Token: token}
	}
	for _, f := range fields {
		if f == "" {
			return nil, &oerrors.ParseError{Kind: kind, Token: token}
		}
	}
	return fields, nil
}

// TopQuery is "n,LevelName,meaOrCalc,dir" — all four fields required.
type TopQuery struct {
	N    int64
	By   LevelName
	Sort MeaOrCalc
	Dir  SortDirection
}

// ParseTopQuery parses a TopQuery token.
func ParseTopQuery(token string) (TopQuery, error) {
	fields, err := splitFields(oerrors.ParseKindTop, token, ",", 4)
	if err != nil {
		return TopQuery{}, err
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return TopQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindTop, Token: token}
	}
	by, err := ParseLevelName(fields[1])
	if err != nil {
		return TopQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindTop, Token: token}
	}
	sort, err := ParseMeaOrCalc(fields[2])
	if err != nil {
		return TopQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindTop, Token: token}
	}
	dir, err := ParseSortDirection(fields[3])
	if err != nil {
		return TopQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindTop, Token: token}
	}
	return TopQuery{N: n, By: by, Sort: sort, Dir: dir}, nil
}

// TopWhereQuery applies a Constraint before top selection.
type TopWhereQuery struct {
	MeaOrCalc  MeaOrCalc
	Constraint Constraint
}

// ParseTopWhereQuery parses a TopWhereQuery token.
func ParseTopWhereQuery(token string) (TopWhereQuery, error) {
	idx := strings.Index(token, ",")
	if idx < 0 {
		return TopWhereQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindTopWhere, Token: token}
	}
	mc, err := ParseMeaOrCalc(token[:idx])
	if err != nil {
		return TopWhereQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindTopWhere, Token: token}
	}
	cons, err := ParseConstraint(token[idx+1:])
	if err != nil {
		return TopWhereQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindTopWhere, Token: token}
	}
	return TopWhereQuery{MeaOrCalc: mc, Constraint: cons}, nil
}

// FilterQuery applies a Constraint after aggregation (HAVING).
type FilterQuery struct {
	MeaOrCalc  MeaOrCalc
	Constraint Constraint
}

// ParseFilterQuery parses a FilterQuery token; shares TopWhereQuery's
// grammar but is kept distinct per spec §4.1 since the two are bound at
// different compiler stages (pre- vs post-aggregation).
func ParseFilterQuery(token string) (FilterQuery, error) {
	twq, err := ParseTopWhereQuery(token)
	if err != nil {
		return FilterQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindFilter, Token: token}
	}
	return FilterQuery(twq), nil
}

// LimitQuery is "n" or "offset,n", both non-negative.
type LimitQuery struct {
	Offset int64
	N      int64
}

// ParseLimitQuery parses a LimitQuery token.
func ParseLimitQuery(token string) (LimitQuery, error) {
	parts := strings.Split(token, ",")
	switch len(parts) {
	case 1:
		n, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || n < 0 {
			return LimitQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindLimit, Token: token}
		}
		return LimitQuery{N: n}, nil
	case 2:
		offset, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || offset < 0 {
			return LimitQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindLimit, Token: token}
		}
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || n < 0 {
			return LimitQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindLimit, Token: token}
		}
		return LimitQuery{Offset: offset, N: n}, nil
	default:
		return LimitQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindLimit, Token: token}
	}
}

// SortQuery names a single measure plus direction: "measure.dir".
type SortQuery struct {
	Measure MeaOrCalc
	Dir     SortDirection
}

// ParseSortQuery parses a SortQuery token.
func ParseSortQuery(token string) (SortQuery, error) {
	idx := strings.LastIndex(token, ".")
	if idx < 0 {
		return SortQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindSort, Token: token}
	}
	mc, err := ParseMeaOrCalc(token[:idx])
	if err != nil {
		return SortQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindSort, Token: token}
	}
	dir, err := ParseSortDirection(token[idx+1:])
	if err != nil {
		return SortQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindSort, Token: token}
	}
	return SortQuery{Measure: mc, Dir: dir}, nil
}

// RcaQuery is "Drill1,Drill2,Measure" — two drills and a measure.
type RcaQuery struct {
	Drill1  Drilldown
	Drill2  Drilldown
	Measure Measure
}

// ParseRcaQuery parses an RcaQuery token.
func ParseRcaQuery(token string) (RcaQuery, error) {
	fields, err := splitFields(oerrors.ParseKindRca, token, ",", 3)
	if err != nil {
		return RcaQuery{}, err
	}
	d1, err := ParseDrilldown(fields[0])
	if err != nil {
		return RcaQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindRca, Token: token}
	}
	d2, err := ParseDrilldown(fields[1])
	if err != nil {
		return RcaQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindRca, Token: token}
	}
	mea, err := ParseMeasure(fields[2])
	if err != nil {
		return RcaQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindRca, Token: token}
	}
	return RcaQuery{Drill1: d1, Drill2: d2, Measure: mea}, nil
}

// GrowthQuery is "TimeDrill,Measure".
type GrowthQuery struct {
	TimeDrill Drilldown
	Measure   Measure
}

// ParseGrowthQuery parses a GrowthQuery token.
func ParseGrowthQuery(token string) (GrowthQuery, error) {
	fields, err := splitFields(oerrors.ParseKindGrowth, token, ",", 2)
	if err != nil {
		return GrowthQuery{}, err
	}
	drill, err := ParseDrilldown(fields[0])
	if err != nil {
		return GrowthQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindGrowth, Token: token}
	}
	mea, err := ParseMeasure(fields[1])
	if err != nil {
		return GrowthQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindGrowth, Token: token}
	}
	return GrowthQuery{TimeDrill: drill, Measure: mea}, nil
}

// RateQuery pins a level (3- or 4-segment: LevelName plus trailing member
// list) to a fixed set of member values: "LevelName.v1,v2,...".
type RateQuery struct {
	Level   LevelName
	Members []string
}

// ParseRateQuery parses a RateQuery token. The level name itself may be
// two or three dotted segments, so the token is split at its last dot:
// everything before it is the level name, everything after it the
// member list: "Dim.Hier.Lvl.v1,v2" or "Dim.Lvl.v1,v2".
func ParseRateQuery(token string) (RateQuery, error) {
	lastDot := strings.LastIndex(token, ".")
	if lastDot < 0 {
		return RateQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindRate, Token: token}
	}
	levelPart, memberPart := token[:lastDot], token[lastDot+1:]
	lvl, err := ParseLevelName(levelPart)
	if err != nil {
		return RateQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindRate, Token: token}
	}
	if memberPart == "" {
		return RateQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindRate, Token: token}
	}
	members := strings.Split(memberPart, ",")
	for _, m := range members {
		if m == "" {
			return RateQuery{}, &oerrors.ParseError{Kind: oerrors.ParseKindRate, Token: token}
		}
	}
	return RateQuery{Level: lvl, Members: members}, nil
}
