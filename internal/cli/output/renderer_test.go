package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRenderer(out, errOut, mode, 4), out, errOut
}

func TestNewRenderer_Mode(t *testing.T) {
	tests := []struct {
		mode       Mode
		want       Mode
		structured bool
	}{
		{mode: ModeText, want: ModeText},
		{mode: ModeMarkdown, want: ModeMarkdown},
		{mode: ModeJSON, want: ModeJSON, structured: true},
		{mode: ModeYAML, want: ModeYAML, structured: true},
		{mode: "html", want: ModeText},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode)
			assert.Equal(t, tt.want, r.Mode())
			assert.Equal(t, tt.structured, r.Structured())
		})
	}
}

func TestRenderer_Table(t *testing.T) {
	rows := [][]string{{"F", "Force", "20 N"}, {"m", "Mass", "10 kg"}}

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText)
		r.Table([]string{"ID", "Name", "Value"}, rows)
		assert.Contains(t, out.String(), "┌")
		assert.Contains(t, out.String(), "20 N")
	})

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown)
		r.Table([]string{"ID", "Name", "Value"}, rows)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "| ID | Name | Value |", lines[0])
		assert.Equal(t, "| F | Force | 20 N |", lines[2])
	})
}

func TestRenderer_HeaderAndKeyValue(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)
	r.Header(2, "Rover")
	r.KeyValue("Tests", "3/3 passed")
	assert.Equal(t, "## Rover\n\n- **Tests:** 3/3 passed\n", out.String())

	r, out, _ = newTestRenderer(ModeText)
	r.Header(1, "Rover")
	assert.Equal(t, "Rover\n─────\n", out.String())
}

func TestRenderer_Tree(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText)
	require.NoError(t, r.RenderTrees([]Tree{{
		Ref:   "F",
		Value: "20 N",
		Children: []Tree{
			{Ref: "m", Value: "10 kg"},
			{Ref: "pi", Value: "3.142", Constant: true},
		},
	}}))
	s := out.String()
	assert.Contains(t, s, "F: 20 N")
	assert.Contains(t, s, "m: 10 kg")
	assert.Contains(t, s, "pi: 3.142 (constant)")
	assert.Less(t, strings.Index(s, "F: 20 N"), strings.Index(s, "m: 10 kg"))
}

func TestRenderer_Encode(t *testing.T) {
	v := Param{ID: "F", Name: "Force", Value: "20 N"}

	r, out, _ := newTestRenderer(ModeYAML)
	require.NoError(t, r.Encode(v))
	var got Param
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, v, got)
	assert.NotContains(t, out.String(), "min")

	r, out, _ = newTestRenderer(ModeJSON)
	require.NoError(t, r.Encode(v))
	assert.Contains(t, out.String(), `"id": "F"`)
}

func TestDiagnostics(t *testing.T) {
	d := diag.New(diag.KindParameter, "Circular dependency found in path: a=>b=>a").
		For("a").
		At(token.Position{File: "loop.on", Line: 1}, "A: a = b + 1").
		WithNote("imported at rover.on:3")

	r, _, errOut := newTestRenderer(ModeText)
	r.Diagnostics(diag.List{d, diag.New(diag.KindSyntax, "bad line")})

	s := errOut.String()
	assert.Contains(t, s, "Circular dependency found in path: a=>b=>a")
	assert.Contains(t, s, "    | A: a = b + 1")
	assert.Contains(t, s, "    = note: imported at rover.on:3")
	assert.Contains(t, s, "SyntaxError: bad line")

	r.Diagnostics(nil)
	assert.Equal(t, s, errOut.String())
}

func TestFlatten(t *testing.T) {
	one := diag.New(diag.KindIdentifier, "x")
	assert.Equal(t, []*diag.Error{one}, Flatten(one))

	list := diag.List{one, diag.New(diag.KindSyntax, "y")}
	assert.Len(t, Flatten(list), 2)

	plain := Flatten(errors.New("disk full"))
	require.Len(t, plain, 1)
	assert.Equal(t, "disk full", plain[0].Message)
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds(param.Number(2))
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, 2.0, *lo)

	lo, hi = Bounds(param.Option("cruise"))
	assert.Nil(t, lo)
	assert.Nil(t, hi)
}
