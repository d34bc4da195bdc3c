package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
)

func run(t *testing.T, s *Session, lines ...string) []*Report {
	t.Helper()
	var reports []*Report
	_, err := s.Run(strings.NewReader(strings.Join(lines, "\n")), func(r *Report) {
		reports = append(reports, r)
	})
	require.NoError(t, err)
	return reports
}

func TestSessionThreadsEnvironment(t *testing.T) {
	s := NewSession(Options{})
	reports := run(t, s,
		"# a small context",
		"given S",
		"type r ℙ(S × S)",
		"",
		"pred x ∈ S ∧ r[{x}] ⊆ A",
		"expr card(A)",
	)
	require.Len(t, reports, 4)
	for _, r := range reports {
		require.False(t, r.Failed(), r.Problems)
	}
	assert.Equal(t, 5, reports[2].Line)
	assert.Equal(t, "x ∈ S ∧ r[{x}] ⊆ A", reports[2].Typed)
	assert.Equal(t, "x⦂S, A⦂ℙ(S)", reports[2].Inferred)
	assert.Empty(t, reports[3].Inferred)
	assert.Equal(t, "S⦂ℙ(S), r⦂ℙ(S×S), x⦂S, A⦂ℙ(S)", s.Env().String())

	s.Reset()
	assert.True(t, s.Env().IsEmpty())
}

func TestSessionDerivedPredicates(t *testing.T) {
	s := NewSession(Options{WD: true})
	reports := run(t, s,
		"type f ℙ(ℤ × ℤ)",
		"pred f(a) ÷ b > 0",
		"assign a ≔ f(a)",
		"assign a :∣ a' > a",
	)
	require.Len(t, reports, 4)

	assert.Equal(t, "a ∈ dom(f) ∧ f ∈ ℤ ⇸ ℤ ∧ b ≠ 0", reports[1].WD)

	assign := reports[2]
	assert.Equal(t, "a ∈ dom(f) ∧ f ∈ ℤ ⇸ ℤ", assign.WD)
	assert.Equal(t, "⊤", assign.FIS)
	assert.Equal(t, "a' = f(a)", assign.BA)

	such := reports[3]
	assert.Equal(t, "⊤", such.WD)
	assert.Equal(t, "∃a'·a' > a", such.FIS)
	assert.Equal(t, "a' > a", such.BA)
	require.NotNil(t, such.Formula())
	assert.True(t, such.Formula().IsTypeChecked())
}

func TestSessionPrintOptions(t *testing.T) {
	s := NewSession(Options{Print: ast.PrintOptions{WithTypes: true}, Tree: true})
	reports := run(t, s, "pred x + 1 = y")
	require.Len(t, reports, 1)
	assert.Equal(t, "x⦂ℤ + 1 = y⦂ℤ", reports[0].Typed)
	assert.Contains(t, reports[0].Tree, "EQUAL")
}

func TestSessionProblems(t *testing.T) {
	s := NewSession(Options{})
	var failed []*Report
	n, err := s.Run(strings.NewReader(strings.Join([]string{
		"type x ℤ",
		"pred x = TRUE",
		"pred x ∈ ",
		"type x BOOL",
		"given",
		"expr ∅",
	}, "\n")), func(r *Report) {
		if r.Failed() {
			failed = append(failed, r)
		}
	})
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Len(t, failed, 5)

	assert.True(t, diagnostic.Is(failed[0].Diagnostics().Err(), diagnostic.TypeCheckFailure))
	assert.True(t, diagnostic.Is(failed[2].Diagnostics().Err(), diagnostic.IncompatibleEnvironment))
	assert.True(t, diagnostic.Is(failed[4].Diagnostics().Err(), diagnostic.TypeUnknown))
	assert.NotEmpty(t, failed[1].Problems)

	// failures leave the environment alone
	assert.Equal(t, "x⦂ℤ", s.Env().String())
}

func TestSessionRejectsIllegibleFormulas(t *testing.T) {
	s := NewSession(Options{WD: true})
	reports := run(t, s, "pred n > 0 ∧ (∀n·n ∈ ℕ)", "pred m > 0")
	require.Len(t, reports, 2)

	bad := reports[0]
	require.True(t, bad.Failed())
	assert.True(t, bad.Diagnostics().Has(diagnostic.FreeIdentifierHasBoundOccurrences), bad.Problems)
	assert.True(t, bad.Diagnostics().Has(diagnostic.BoundIdentifierHasFreeOccurrences), bad.Problems)
	assert.Empty(t, bad.Typed)
	assert.Empty(t, bad.WD)
	assert.Nil(t, bad.Formula())
	assert.False(t, s.Env().Contains("n"))

	assert.False(t, reports[1].Failed())
	assert.Equal(t, "m⦂ℤ", s.Env().String())
}

func TestSessionNormalForm(t *testing.T) {
	s := NewSession(Options{Normalize: true})
	reports := run(t, s, "pred ∀x·∀y·x < y ∧ a > 0", "pred a > 0 ∧ b > 0")
	require.Len(t, reports, 2)
	assert.Equal(t, "∀x,y·x < y ∧ a > 0", reports[0].Normal)
	assert.Empty(t, reports[1].Normal)

	var out bytes.Buffer
	reports[0].WriteText(&out, "")
	assert.Contains(t, out.String(), "    normal   ∀x,y·x < y ∧ a > 0\n")
}

func TestSessionUnknownDirective(t *testing.T) {
	s := NewSession(Options{})
	_, err := s.Exec("prove x = x")
	require.ErrorIs(t, err, ErrUnknownDirective)
	assert.Contains(t, err.Error(), `line 1: unknown directive "prove"`)
}

func TestWriteText(t *testing.T) {
	s := NewSession(Options{WD: true})
	reports := run(t, s, "pred a ÷ b = c", "pred a = TRUE")
	require.Len(t, reports, 2)

	var out bytes.Buffer
	for _, r := range reports {
		r.WriteText(&out, "ctx.txt")
	}
	text := out.String()
	assert.Contains(t, text, "ctx.txt:1: a ÷ b = c\n    inferred a⦂ℤ, b⦂ℤ, c⦂ℤ\n    WD  b ≠ 0\n")
	assert.Contains(t, text, "ctx.txt:2: ")
	assert.Contains(t, text, "error: ")
}

func TestLoggerFormat(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger(&out, false, false)
	logger.Debug("hidden")
	logger.Info("checked", "file", "a.txt")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "file=a.txt")

	out.Reset()
	newLogger(&out, false, true).Debug("shown")
	assert.Contains(t, out.String(), "shown")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	PrintVersion(&out, "rodin-check", false)
	assert.Contains(t, out.String(), "rodin-check v"+Version+" (language 2.0.0)")

	out.Reset()
	PrintVersion(&out, "rodin-check", true)
	assert.Contains(t, out.String(), `"language_version": "2.0.0"`)
}
