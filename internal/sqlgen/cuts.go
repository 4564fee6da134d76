package sqlgen

import (
	"fmt"
	"strings"

	"tesseract/internal/queryir"
	"tesseract/internal/schema"
)

// cutPredicate renders one CutSql as a boolean SQL expression against
// its already-qualified column reference, per spec §4.4 "Cut
// placement": member lists become IN/NOT IN lists, unless ForMatch is
// set, in which case every member is a LIKE pattern joined by OR/AND
// under inclusion/exclusion respectively.
func (d Dialect) cutPredicate(qualifiedColumn string, c queryir.CutSql) string {
	if c.ForMatch {
		return d.likePredicate(qualifiedColumn, c)
	}

	members := make([]string, len(c.Members))
	for i, m := range c.Members {
		members[i] = d.memberLiteral(m, c.MemberType)
	}
	list := strings.Join(members, ", ")

	op := "IN"
	if c.Mask == queryir.MaskExclude {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", qualifiedColumn, op, list)
}

func (d Dialect) likePredicate(qualifiedColumn string, c queryir.CutSql) string {
	join, cmp := "OR", "LIKE"
	if c.Mask == queryir.MaskExclude {
		join, cmp = "AND", "NOT LIKE"
	}
	clauses := make([]string, len(c.Members))
	for i, m := range c.Members {
		pattern := strings.ReplaceAll(m, "*", "%")
		clauses[i] = fmt.Sprintf("%s %s %s", qualifiedColumn, cmp, d.QuoteString(pattern))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return "(" + strings.Join(clauses, " "+join+" ") + ")"
}

func (d Dialect) memberLiteral(m string, mt schema.MemberType) string {
	if mt == schema.MemberNumeric {
		return m
	}
	return d.QuoteString(m)
}
