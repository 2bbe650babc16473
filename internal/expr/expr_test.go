package expr

import (
	"testing"

	"github.com/careweather/oneil/internal/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Tokens(t *testing.T) {
	l := NewLexer("thrust.engine*2.5e-3 -- x // y ** -z <= 'fast'")
	want := []struct {
		typ TokenType
		lit string
		col int
	}{
		{TOKEN_IDENT, "thrust.engine", 1},
		{TOKEN_STAR, "*", 14},
		{TOKEN_NUMBER, "2.5e-3", 15},
		{TOKEN_MINUSMINUS, "--", 22},
		{TOKEN_IDENT, "x", 25},
		{TOKEN_SLASHSLASH, "//", 27},
		{TOKEN_IDENT, "y", 30},
		{TOKEN_POW, "**", 32},
		{TOKEN_MINUS, "-", 35},
		{TOKEN_IDENT, "z", 36},
		{TOKEN_LE, "<=", 38},
		{TOKEN_STRING, "fast", 41},
		{TOKEN_EOF, "", 47},
	}
	for i, w := range want {
		tok := l.NextToken()
		assert.Equal(t, w.typ, tok.Type, "token %d", i)
		assert.Equal(t, w.lit, tok.Literal, "token %d", i)
		assert.Equal(t, w.col, tok.Col, "token %d", i)
	}
}

func TestLexer_Keywords(t *testing.T) {
	l := NewLexer("a and not b or c if d")
	var types []TokenType
	for tok := l.NextToken(); tok.Type != TOKEN_EOF; tok = l.NextToken() {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TOKEN_IDENT, TOKEN_AND, TOKEN_NOT, TOKEN_IDENT, TOKEN_OR, TOKEN_IDENT, TOKEN_IF, TOKEN_IDENT,
	}, types)
}

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a + b * c", "a + b * c"},
		{"(a + b) * c", "(a + b) * c"},
		{"a - (b - c)", "a - (b - c)"},
		{"-x ** 2", "-x ** 2"},
		{"(-x) ** 2", "(-x) ** 2"},
		{"2 ^ 3 ^ 2", "2 ** 3 ** 2"},
		{"(2 ^ 3) ^ 2", "(2 ** 3) ** 2"},
		{"a < b & c >= d", "a < b & c >= d"},
		{"not a == b or c", "not a == b or c"},
		{"not (a or b)", "not (a or b)"},
		{"sqrt(a*b, 2)", "sqrt(a * b, 2)"},
		{"x // y -- z", "x // y -- z"},
		{"1e3 * m", "1e3 * m"},
		{"-3", "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParse_Shape(t *testing.T) {
	n, err := Parse("-x ** 2")
	require.NoError(t, err)
	u, ok := n.(*Unary)
	require.True(t, ok, "negation applies to the power")
	_, ok = u.X.(*Binary)
	assert.True(t, ok)

	n, err = Parse("2 ** -1")
	require.NoError(t, err)
	b := n.(*Binary)
	assert.Equal(t, TOKEN_POW, b.Op)
	assert.Equal(t, -1.0, b.Y.(*Number).Value)

	n, err = Parse("x or y")
	require.NoError(t, err)
	assert.Equal(t, TOKEN_OR, n.(*Binary).Op)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input string
		col   int
	}{
		{"a +", 4},
		{"a b", 3},
		{"(a + b", 7},
		{"a = b", 3},
		{"f(a,", 5},
		{"'open", 1},
		{"a $ b", 3},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			var d *diag.Error
			require.ErrorAs(t, err, &d)
			assert.Equal(t, diag.KindSyntax, d.Kind)
			assert.Equal(t, tt.col, d.Pos.Column)
		})
	}
}

func TestParseClause(t *testing.T) {
	v, c, err := ParseClause("2*x if x >= 0")
	require.NoError(t, err)
	assert.Equal(t, "2 * x", v.String())
	assert.Equal(t, "x >= 0", c.String())

	_, _, err = ParseClause("2*x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected "if"`)

	_, _, err = ParseClause("1 if x < 0 if y")
	assert.Error(t, err)
}

func TestRefs(t *testing.T) {
	n, err := Parse("2*pi*r + mass.engine / max(r, e) - inf + drag(v, 'fast')")
	require.NoError(t, err)
	assert.Equal(t, []string{"r", "mass.engine", "v"}, Refs(n))
	assert.Equal(t, []string{"max", "drag"}, Calls(n))

	builtin := func(name string) bool { return name == "max" }
	assert.False(t, IsLiteral(n, builtin))

	lit, err := Parse("max(2, 3) * pi")
	require.NoError(t, err)
	assert.True(t, IsLiteral(lit, builtin))
}

func TestQualifiedID(t *testing.T) {
	tests := []struct {
		ref   string
		want  QualifiedID
		local bool
	}{
		{ref: "mass", want: QualifiedID{ID: "mass"}, local: true},
		{ref: "thrust.engine", want: QualifiedID{ID: "thrust", Path: []string{"engine"}}},
		{ref: "thrust.engine.stage", want: QualifiedID{ID: "thrust", Path: []string{"engine", "stage"}}},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			q := ParseQualifiedID(tt.ref)
			assert.Equal(t, tt.want, q)
			assert.Equal(t, tt.local, q.IsLocal())
			assert.Equal(t, tt.ref, q.String())
		})
	}

	n, err := Parse("thrust.engine * 2")
	require.NoError(t, err)
	id := n.(*Binary).X.(*Ident)
	assert.Equal(t, QualifiedID{ID: "thrust", Path: []string{"engine"}}, id.Ref)

	nested := ParseQualifiedID("v.cell").In([]string{"pack"})
	assert.Equal(t, "v.pack.cell", nested.String())
	assert.Equal(t, QualifiedID{ID: "v"}, QualifiedID{ID: "v"}.In(nil))
}
