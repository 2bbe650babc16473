package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/careweather/oneil/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindSyntax, "SyntaxError"},
		{KindModelLoading, "ModelLoadingError"},
		{KindUnitParse, "UnitParseError"},
		{KindUnitEvaluation, "UnitEvaluationError"},
		{KindParameter, "ParameterError"},
		{KindIdentifier, "IdentifierError"},
		{KindDivideByZero, "DivideByZeroError"},
		{KindImportedFunction, "ImportedFunctionError"},
		{Kind(99), "Error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestError_Format(t *testing.T) {
	e := New(KindParameter, "Parameters cannot be re-calculated")
	assert.Equal(t, "ParameterError: Parameters cannot be re-calculated", e.Error())

	e.At(token.Position{File: "sat.on", Line: 4}, "mass: m = 5 : kg\n").For("m")
	assert.Equal(t, "ParameterError sat.on:4 (m): Parameters cannot be re-calculated", e.Error())
	assert.Equal(t, "mass: m = 5 : kg", e.Source)

	// A recorded location is never overwritten.
	e.At(token.Position{File: "other.on", Line: 9}, "x")
	assert.Equal(t, 4, e.Pos.Line)
}

func TestError_NotesAndClone(t *testing.T) {
	e := New(KindUnitEvaluation, "Cannot add m to kg")
	e.WithNote("in (a) + (b)")

	c := e.Clone().WithNote("in ((a) + (b)) * (c)")
	assert.Len(t, e.Notes, 1)
	assert.Len(t, c.Notes, 2)
}

func TestError_WrapAndKind(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(KindImportedFunction, cause, "drag raised an error")
	wrapped := fmt.Errorf("evaluating: %w", e)

	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsKind(wrapped, KindImportedFunction))
	assert.False(t, IsKind(wrapped, KindSyntax))
	assert.True(t, errors.Is(wrapped, New(KindImportedFunction, "")))
	assert.Contains(t, e.Error(), "boom")
}

func TestList(t *testing.T) {
	var l List
	assert.NoError(t, l.Err())

	l = append(l, New(KindSyntax, "one"))
	require.Error(t, l.Err())
	var single *Error
	require.ErrorAs(t, l.Err(), &single)
	assert.Equal(t, "one", single.Message)

	l = append(l, New(KindModelLoading, "two"))
	err := l.Err()
	assert.True(t, IsKind(err, KindModelLoading))
	assert.Equal(t, "SyntaxError: one\nModelLoadingError: two", err.Error())
}

func TestUndefined(t *testing.T) {
	e := Undefined("satellite", []Reference{
		{Name: "zeta", Param: "y", Pos: token.Position{File: "satellite.on", Line: 7}},
		{Name: "omega", Param: "x", Pos: token.Position{File: "satellite.on", Line: 3}},
	})

	assert.Equal(t, KindIdentifier, e.Kind)
	assert.Contains(t, e.Message, "Satellite has undefined arguments: omega, zeta")
	require.Len(t, e.Notes, 2)
	assert.Equal(t, "omega from x (satellite.on:3)", e.Notes[0])
}
