// Package names parses the dotted, comma-joined user-facing tokens that
// appear as query-string values: level names, cuts, measures, properties,
// and the various scalar operator tokens (top, sort, growth, rca, rate,
// limit, filter). Every parser here rejects malformed input with a typed
// *oerrors.ParseError; none silently succeed on a token it cannot fully
// consume.
package names

import (
	"strconv"
	"strings"

	"tesseract/internal/oerrors"
)

// LevelName identifies a level within a cube: Dim.Hier.Lvl, or the
// shorthand Dim.Lvl where the hierarchy name defaults to the dimension
// name.
type LevelName struct {
	Dimension string
	Hierarchy string
	Level     string
}

func (l LevelName) String() string {
	return l.Dimension + "." + l.Hierarchy + "." + l.Level
}

// ParseLevelName parses "Dim.Hier.Lvl" or "Dim.Lvl".
func ParseLevelName(token string) (LevelName, error) {
	parts := strings.Split(token, ".")
	switch len(parts) {
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return LevelName{}, &oerrors.ParseError{Kind: oerrors.ParseKindLevelName, Token: token}
		}
		return LevelName{Dimension: parts[0], Hierarchy: parts[0], Level: parts[1]}, nil
	case 3:
		if parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return LevelName{}, &oerrors.ParseError{Kind: oerrors.ParseKindLevelName, Token: token}
		}
		return LevelName{Dimension: parts[0], Hierarchy: parts[1], Level: parts[2]}, nil
	default:
		return LevelName{}, &oerrors.ParseError{Kind: oerrors.ParseKindLevelName, Token: token}
	}
}

// Drilldown has the same grammar as LevelName.
type Drilldown = LevelName

// ParseDrilldown parses a Drilldown token.
func ParseDrilldown(token string) (Drilldown, error) {
	ln, err := ParseLevelName(token)
	if err != nil {
		return LevelName{}, &oerrors.ParseError{Kind: oerrors.ParseKindLevelName, Token: token, Msg: "invalid drilldown"}
	}
	return ln, nil
}

// Measure is a bare name with no dots.
type Measure string

// ParseMeasure parses a Measure token.
func ParseMeasure(token string) (Measure, error) {
	if token == "" || strings.Contains(token, ".") {
		return "", &oerrors.ParseError{Kind: oerrors.ParseKindMeasure, Token: token}
	}
	return Measure(token), nil
}

// Property is anchored to a level: Dim.Hier.Lvl.PropName or
// Dim.Lvl.PropName.
type Property struct {
	Level LevelName
	Name  string
}

// ParseProperty parses a Property token.
func ParseProperty(token string) (Property, error) {
	idx := strings.LastIndex(token, ".")
	if idx < 0 || idx == len(token)-1 {
		return Property{}, &oerrors.ParseError{Kind: oerrors.ParseKindProperty, Token: token}
	}
	levelPart, propName := token[:idx], token[idx+1:]
	lvl, err := ParseLevelName(levelPart)
	if err != nil {
		return Property{}, &oerrors.ParseError{Kind: oerrors.ParseKindProperty, Token: token}
	}
	return Property{Level: lvl, Name: propName}, nil
}

// Mask is the include/exclude polarity of a Cut.
type Mask int

const (
	MaskInclude Mask = iota
	MaskExclude
)

// Cut is a member-set filter on a level: LevelName:[~]m1,m2,...
type Cut struct {
	Level    LevelName
	Members  []string
	Mask     Mask
	ForMatch bool
}

// ParseCut parses a Cut token of the form "LevelName:[~]m1,m2,...".
// ForMatch (LIKE-style matching) is set when any member contains a '*'
// wildcard.
func ParseCut(token string) (Cut, error) {
	idx := strings.Index(token, ":")
	if idx < 0 || idx == len(token)-1 {
		return Cut{}, &oerrors.ParseError{Kind: oerrors.ParseKindCut, Token: token}
	}
	levelPart, memberPart := token[:idx], token[idx+1:]
	lvl, err := ParseLevelName(levelPart)
	if err != nil {
		return Cut{}, &oerrors.ParseError{Kind: oerrors.ParseKindCut, Token: token}
	}

	mask := MaskInclude
	if strings.HasPrefix(memberPart, "~") {
		mask = MaskExclude
		memberPart = memberPart[1:]
	}
	if memberPart == "" {
		return Cut{}, &oerrors.ParseError{Kind: oerrors.ParseKindCut, Token: token}
	}
	members := strings.Split(memberPart, ",")
	forMatch := false
	for _, m := range members {
		if m == "" {
			return Cut{}, &oerrors.ParseError{Kind: oerrors.ParseKindCut, Token: token}
		}
		if strings.Contains(m, "*") {
			forMatch = true
		}
	}
	return Cut{Level: lvl, Members: members, Mask: mask, ForMatch: forMatch}, nil
}

// SortDirection is one of the two case-sensitive direction tokens.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// ParseSortDirection parses "asc" or "desc" (case-sensitive).
func ParseSortDirection(token string) (SortDirection, error) {
	switch token {
	case string(Asc), string(Desc):
		return SortDirection(token), nil
	default:
		return "", &oerrors.ParseError{Kind: oerrors.ParseKindSortDirection, Token: token}
	}
}

// Comparison is a closed set of comparison operators.
type Comparison int

const (
	Eq Comparison = iota
	Neq
	Lt
	Lte
	Gt
	Gte
)

var comparisonTokens = map[string]Comparison{
	"eq": Eq, "neq": Neq, "lt": Lt, "lte": Lte, "gt": Gt, "gte": Gte,
}

// SQL renders the comparison as its SQL operator.
func (c Comparison) SQL() string {
	switch c {
	case Eq:
		return "="
	case Neq:
		return "<>"
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	default:
		return "="
	}
}

// ParseComparison parses one of eq/neq/lt/lte/gt/gte.
func ParseComparison(token string) (Comparison, error) {
	c, ok := comparisonTokens[token]
	if !ok {
		return 0, &oerrors.ParseError{Kind: oerrors.ParseKindComparison, Token: token}
	}
	return c, nil
}

// Constraint is a comparison against an integer threshold: "gt.100".
type Constraint struct {
	Cmp Comparison
	N   int64
}

// ParseConstraint parses "<comparison>.<int>".
func ParseConstraint(token string) (Constraint, error) {
	idx := strings.LastIndex(token, ".")
	if idx < 0 {
		return Constraint{}, &oerrors.ParseError{Kind: oerrors.ParseKindConstraint, Token: token}
	}
	cmp, err := ParseComparison(token[:idx])
	if err != nil {
		return Constraint{}, &oerrors.ParseError{Kind: oerrors.ParseKindConstraint, Token: token}
	}
	n, err := strconv.ParseInt(token[idx+1:], 10, 64)
	if err != nil {
		return Constraint{}, &oerrors.ParseError{Kind: oerrors.ParseKindConstraint, Token: token}
	}
	return Constraint{Cmp: cmp, N: n}, nil
}

// Calculation is a reserved computed-column name that shadows
// same-named measures in top/filter contexts.
type Calculation string

const (
	CalcRca    Calculation = "rca"
	CalcGrowth Calculation = "growth"
)

// ParseCalculation parses "rca" or "growth".
func ParseCalculation(token string) (Calculation, error) {
	switch token {
	case string(CalcRca), string(CalcGrowth):
		return Calculation(token), nil
	default:
		return "", &oerrors.ParseError{Kind: oerrors.ParseKindCalculation, Token: token}
	}
}

// MeaOrCalc is either a plain measure name or a reserved Calculation.
// Calculation always wins when a name collides with a measure, per
// spec §4.1's note that Calculation "shadows same-named measures."
type MeaOrCalc struct {
	Calc    Calculation
	Measure Measure
	IsCalc  bool
}

// ParseMeaOrCalc resolves a token to a Calculation if it matches one of
// the reserved names, else to a plain Measure.
func ParseMeaOrCalc(token string) (MeaOrCalc, error) {
	if calc, err := ParseCalculation(token); err == nil {
		return MeaOrCalc{Calc: calc, IsCalc: true}, nil
	}
	mea, err := ParseMeasure(token)
	if err != nil {
		return MeaOrCalc{}, err
	}
	return MeaOrCalc{Measure: mea}, nil
}
