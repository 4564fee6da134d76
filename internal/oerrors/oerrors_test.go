package oerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseErrorMessage(t *testing.T) {
	e := &ParseError{Kind: ParseKindCut, Token: "Geo.State"}
	assert.Equal(t, `parse error (cut): "Geo.State"`, e.Error())

	e2 := &ParseError{Kind: ParseKindCut, Token: "Geo.State", Msg: "missing members"}
	assert.Equal(t, `parse error (cut): missing members: "Geo.State"`, e2.Error())
}

func TestValidationErrorMessage(t *testing.T) {
	e := &ValidationError{Msg: "Duplicated drilldown in RCA"}
	assert.Equal(t, "Duplicated drilldown in RCA", e.Error())
}

func TestSchemaErrorMessage(t *testing.T) {
	e := &SchemaError{Kind: LevelNotFound, Cube: "Sales", Name: "Geo.Bogus"}
	assert.Equal(t, `schema error (level-not-found): cube "Sales": Geo.Bogus`, e.Error())

	e2 := &SchemaError{Kind: CubeNotFound, Cube: "Nope"}
	assert.Equal(t, `schema error (cube-not-found): cube "Nope"`, e2.Error())
}

func TestSchemaErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := &SchemaError{Kind: LevelNotFound, Cube: "Sales", Cause: cause}
	assert.ErrorIs(t, e, cause)
}

func TestCompileErrorMessage(t *testing.T) {
	e := &CompileError{Msg: "missing foreign key"}
	assert.Equal(t, "compile error: missing foreign key", e.Error())

	cause := errors.New("no such column")
	e2 := &CompileError{Msg: "missing foreign key", Cause: cause}
	assert.Equal(t, "compile error: missing foreign key: no such column", e2.Error())
	assert.ErrorIs(t, e2, cause)
}

func TestBackendErrorStablePrefix(t *testing.T) {
	cause := errors.New("connection refused")
	e := &BackendError{Cause: cause}
	assert.Equal(t, "backend error: connection refused", e.Error())
	assert.ErrorIs(t, e, cause)
}

func TestFormatErrorMessage(t *testing.T) {
	e := &FormatError{Format: "xml"}
	assert.Equal(t, "unsupported format: xml", e.Error())
}
