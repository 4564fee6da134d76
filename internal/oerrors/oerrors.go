// Package oerrors defines the typed error taxonomy shared by every stage
// of the query compilation pipeline: parse, validate, compile, backend,
// and format. Every stage returns one of these types rather than a bare
// error so the outermost request handler can map it to an HTTP status
// without re-inspecting message text.
package oerrors

import "fmt"

// ParseKind identifies the token form that failed to parse.
type ParseKind string

const (
	ParseKindLevelName     ParseKind = "level-name"
	ParseKindCut           ParseKind = "cut"
	ParseKindMeasure       ParseKind = "measure"
	ParseKindProperty      ParseKind = "property"
	ParseKindSortDirection ParseKind = "sort-direction"
	ParseKindComparison    ParseKind = "comparison"
	ParseKindConstraint    ParseKind = "constraint"
	ParseKindCalculation   ParseKind = "calculation"
	ParseKindTop           ParseKind = "top"
	ParseKindTopWhere      ParseKind = "top-where"
	ParseKindFilter        ParseKind = "filter"
	ParseKindLimit         ParseKind = "limit"
	ParseKindSort          ParseKind = "sort"
	ParseKindRca           ParseKind = "rca"
	ParseKindGrowth        ParseKind = "growth"
	ParseKindRate          ParseKind = "rate"
	ParseKindLikeNonText   ParseKind = "like-on-non-text"
)

// ParseError reports a malformed user-facing token. Reported as HTTP 400
// with the offending token included, per spec §7.1.
type ParseError struct {
	Kind  ParseKind
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("parse error (%s): %s: %q", e.Kind, e.Msg, e.Token)
	}
	return fmt.Sprintf("parse error (%s): %q", e.Kind, e.Token)
}

// ValidationError reports a well-formed but semantically invalid request,
// e.g. a duplicate RCA/drilldown. Mapped to HTTP 400; unknown cube,
// level or measure names are reported as SchemaError (404) instead.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// SchemaErrorKind enumerates the ways a compile-time name lookup can fail.
type SchemaErrorKind string

const (
	CubeNotFound          SchemaErrorKind = "cube-not-found"
	LevelNotFound         SchemaErrorKind = "level-not-found"
	MeasureNotFound       SchemaErrorKind = "measure-not-found"
	PropertyNotFound      SchemaErrorKind = "property-not-found"
	AmbiguousName         SchemaErrorKind = "ambiguous-name"
	InvalidRca            SchemaErrorKind = "invalid-rca"
	InvalidGrowth         SchemaErrorKind = "invalid-growth"
	InvalidRate           SchemaErrorKind = "invalid-rate"
	InlineTableConflict   SchemaErrorKind = "inline-table-conflict"
)

// SchemaError reports a failure to bind a user-facing name to a schema
// element, per spec §4.2's SchemaError kinds.
type SchemaError struct {
	Kind  SchemaErrorKind
	Cube  string
	Name  string
	Cause error
}

func (e *SchemaError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("schema error (%s): cube %q: %s", e.Kind, e.Cube, e.Name)
	}
	return fmt.Sprintf("schema error (%s): cube %q", e.Kind, e.Cube)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// CompileError reports an internal schema inconsistency discovered while
// binding a validated query to physical IR (missing foreign key,
// conflicting inline table). These are 500-class and should be logged,
// per spec §7.3 — the request was well-formed, the schema was not.
type CompileError struct {
	Msg   string
	Cause error
}

func (e *CompileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("compile error: %s: %v", e.Msg, e.Cause)
	}
	return "compile error: " + e.Msg
}

func (e *CompileError) Unwrap() error { return e.Cause }

// BackendError wraps a connection or query failure from the backend with
// the stable "backend error: " prefix spec §7.4 requires.
type BackendError struct {
	Cause error
}

func (e *BackendError) Error() string { return "backend error: " + e.Cause.Error() }

func (e *BackendError) Unwrap() error { return e.Cause }

// FormatError reports an unsupported response format extension. HTTP 404
// per spec §7.5.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string { return "unsupported format: " + e.Format }
