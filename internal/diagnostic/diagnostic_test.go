package diagnostic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/position"
)

func TestMessages(t *testing.T) {
	d := New(TypesDoNotMatch, position.NewSpan(4, 8), "ℤ", "BOOL")
	assert.Equal(t, "types ℤ and BOOL do not match", d.Message())
	assert.Equal(t, "1:5-9: error: types ℤ and BOOL do not match", d.Error())

	// missing arguments are shown, extra ones are ignored
	assert.Equal(t, "unexpected ?, expected ?", New(UnexpectedToken, position.None).Message())
	assert.Equal(t, "error: identifier x is not declared", New(UndeclaredIdentifier, position.None, "x", "y").Error())

	assert.Equal(t, "bound identifier index 3 exceeds binder depth 1",
		Newf(BoundIdentifierIndexOutOfBounds, position.None, 3, 1).Message())
}

func TestKinds(t *testing.T) {
	assert.Equal(t, "TypeCheckFailure", TypeCheckFailure.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, CategorySyntax, UnknownOperator.Category())
	assert.Equal(t, CategoryType, IncompatibleEnvironment.Category())
	assert.Equal(t, CategoryScope, DuplicateIdentifier.Category())
	assert.Equal(t, CategoryStructure, InvalidReplacement.Category())
	for kind := range kindNames {
		_, ok := kindFormats[kind]
		assert.True(t, ok, "%s has no message", kind)
	}
}

func TestErrorsIs(t *testing.T) {
	var err error = New(Circularity, position.None, "τ0", "ℙ(τ0)")
	assert.True(t, errors.Is(err, Circularity))
	assert.False(t, errors.Is(err, TypesDoNotMatch))

	wrapped := fmt.Errorf("checking: %w", err)
	assert.True(t, Is(wrapped, Circularity))

	var d *Diagnostic
	require.ErrorAs(t, wrapped, &d)
	assert.Equal(t, []string{"τ0", "ℙ(τ0)"}, d.Args)
}

func TestList(t *testing.T) {
	var l List
	assert.NoError(t, l.Err())
	l.Add(nil)
	assert.Empty(t, l)

	l.Add(New(TypeUnknown, position.NewSpan(6, 7), "y"), New(TypeUnknown, position.NewSpan(0, 1), "x"))
	l.Add(&Diagnostic{Kind: SyntaxError, Span: position.NewSpan(0, 1), Args: []string{"w"}, Level: LevelWarning})
	require.Error(t, l.Err())
	assert.True(t, l.Has(TypeUnknown))
	assert.False(t, l.Has(Circularity))
	assert.True(t, Is(l.Err(), TypeUnknown))

	l.Sort()
	assert.Equal(t, SyntaxError, l[0].Kind)
	assert.Equal(t, "x", l[1].Args[0])
	assert.Equal(t, "y", l[2].Args[0])
	assert.Contains(t, l.Error(), "1:1-2: warning: syntax error: w\n")

	warnings := List{l[0]}
	assert.False(t, warnings.HasErrors())
	assert.NoError(t, warnings.Err())
}

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "fine") })
	assert.PanicsWithError(t, "invariant violated: bad 3", func() { Assert(false, "bad %d", 3) })
}
