package model

import (
	"math"
	"slices"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
	"github.com/careweather/oneil/internal/param"
)

// Eval evaluates an ad hoc expression against the model. References may
// address sub-model parameters ("mass.battery").
func (m *Model) Eval(input string) (param.Value, error) {
	n, err := expr.Parse(input)
	if err != nil {
		return nil, err
	}

	var undefined []diag.Reference
	for _, ref := range expr.Refs(n) {
		if !m.defines(ref) {
			undefined = append(undefined, diag.Reference{Name: ref, Param: "expression"})
		}
	}
	if len(undefined) > 0 {
		return nil, diag.Undefined(m.Name, undefined)
	}
	for _, name := range expr.Calls(n) {
		if !m.callable(name) {
			return nil, diag.Newf(diag.KindIdentifier, "Function %q is not a builtin or an imported function.", name)
		}
	}

	v := param.Eval(n, env{m: m})
	if f, ok := v.(param.Failed); ok {
		return v, f.Err
	}
	if iv, ok := v.(param.Interval); ok {
		iv.Ref = ""
		v = iv
	}
	return v, nil
}

// Independent returns the parameters that are given rather than computed,
// in declaration order.
func (m *Model) Independent() []*param.Parameter {
	var out []*param.Parameter
	for _, p := range m.Parameters() {
		if p.Independent() {
			out = append(out, p)
		}
	}
	return out
}

// Dependents returns the parameters that reference ref. With transitive
// set, parameters that depend on it through others are included. Results
// are qualified relative to m.
func (m *Model) Dependents(ref string, transitive bool) ([]string, error) {
	q := expr.ParseQualifiedID(ref)
	if _, err := m.Lookup(q); err != nil {
		return nil, err
	}
	owner, _ := m.Submodel(q.Path...)

	g := owner.dependencyGraph(false)
	deps := g.GetChildren(q.ID)
	if transitive {
		deps = g.GetDownstreamNodes(q.ID)
	}
	var out []string
	for _, dep := range deps {
		out = append(out, expr.QualifiedID{ID: dep}.In(q.Path).String())
	}

	// Parameters of m that reach into the sub-model directly.
	if !q.IsLocal() {
		for _, p := range m.Parameters() {
			if slices.Contains(p.Refs(), ref) && !slices.Contains(out, p.ID) {
				out = append(out, p.ID)
			}
		}
	}
	return out, nil
}

// TreeNode is one parameter in a dependency tree.
type TreeNode struct {
	// Ref is qualified relative to the model the tree was built from.
	Ref       string
	Param     *param.Parameter
	Constant  bool
	Value     param.Value
	Children  []*TreeNode
	Truncated bool
}

// Tree returns the dependency tree of each ref, down to levels deep.
// Levels <= 0 means no limit. Named constants appear as leaves.
func (m *Model) Tree(refs []string, levels int) ([]*TreeNode, error) {
	out := make([]*TreeNode, 0, len(refs))
	for _, ref := range refs {
		if _, err := m.Lookup(expr.ParseQualifiedID(ref)); err != nil {
			return nil, err
		}
		out = append(out, m.tree(ref, levels, nil))
	}
	return out, nil
}

func (m *Model) tree(ref string, levels int, trail []string) *TreeNode {
	if c, ok := expr.Constants[ref]; ok {
		return &TreeNode{Ref: ref, Constant: true, Value: param.Number(c)}
	}

	q := expr.ParseQualifiedID(ref)
	p, err := m.Lookup(q)
	if err != nil {
		return &TreeNode{Ref: ref, Value: param.Failed{Err: err.(*diag.Error)}}
	}
	node := &TreeNode{Ref: ref, Param: p, Value: p.Value}

	children := treeRefs(p)
	if len(children) == 0 {
		return node
	}
	// A ref already on the trail is part of a cycle.
	if slices.Contains(trail, ref) || levels == 1 {
		node.Truncated = true
		return node
	}

	trail = append(trail, ref)
	for _, child := range children {
		next := child
		if !expr.IsConstant(child) {
			next = expr.ParseQualifiedID(child).In(q.Path).String()
		}
		node.Children = append(node.Children, m.tree(next, levels-1, trail))
	}
	return node
}

// treeRefs lists a parameter's references followed by the constants it
// uses.
func treeRefs(p *param.Parameter) []string {
	refs := p.Refs()
	for _, n := range equationNodes(p.Equation) {
		expr.Walk(n, func(n expr.Node) {
			if id, ok := n.(*expr.Ident); ok && expr.IsConstant(id.Name) && !slices.Contains(refs, id.Name) {
				refs = append(refs, id.Name)
			}
		})
	}
	return refs
}

// Summary counts the parameters of a model.
type Summary struct {
	Model       string
	Design      string
	Parameters  int
	Independent int
	Dependent   int
	Constants   int
	Submodels   int
	Tests       int
	Performance []*param.Parameter
}

// Summarize describes the model's own parameters.
func (m *Model) Summarize() Summary {
	s := Summary{
		Model:      m.Name,
		Design:     m.Design,
		Parameters: len(m.Params),
		Constants:  len(expr.Constants),
		Submodels:  len(m.Submodels),
		Tests:      len(m.Tests),
	}
	for _, p := range m.Parameters() {
		if p.Independent() {
			s.Independent++
		} else {
			s.Dependent++
		}
		if p.Performance {
			s.Performance = append(s.Performance, p)
		}
	}
	return s
}

// Comparison holds one parameter under two designs.
type Comparison struct {
	Ref   string
	Name  string
	Unit  string
	Base  param.Value
	Alt   param.Value
	// Ratio is the base maximum over the alternate maximum, NaN when either
	// value is not numeric.
	Ratio float64
}

// Compare reads refs from two evaluations of the same model.
func Compare(base, alt *Model, refs []string) ([]Comparison, error) {
	out := make([]Comparison, 0, len(refs))
	for _, ref := range refs {
		q := expr.ParseQualifiedID(ref)
		bp, err := base.Lookup(q)
		if err != nil {
			return nil, err
		}
		ap, err := alt.Lookup(q)
		if err != nil {
			return nil, err
		}
		c := Comparison{
			Ref:   ref,
			Name:  bp.Name,
			Unit:  bp.UnitSpelling,
			Base:  bp.Value,
			Alt:   ap.Value,
			Ratio: math.NaN(),
		}
		bv, bok := bp.Value.(param.Interval)
		av, aok := ap.Value.(param.Interval)
		if bok && aok && av.Max != 0 {
			c.Ratio = bv.Max / av.Max
		}
		out = append(out, c)
	}
	return out, nil
}
