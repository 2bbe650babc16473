package expr

import (
	"math"
	"strconv"
	"strings"
)

// Node is an expression tree node.
type Node interface {
	// Col returns the 1-based column the node starts at.
	Col() int
	String() string
	node()
}

// Number is a numeric literal.
type Number struct {
	Value   float64
	Literal string
	Column  int
}

// String is a quoted option literal.
type String struct {
	Value  string
	Column int
}

// Ident is a parameter reference. Dotted names address a sub-model:
// "thrust.engine" is parameter thrust of the sub-model bound to engine.
type Ident struct {
	Name   string
	Ref    QualifiedID
	Column int
}

// Unary is a prefix operation: negation or logical not.
type Unary struct {
	Op     TokenType
	X      Node
	Column int
}

// Binary is an infix operation.
type Binary struct {
	Op     TokenType
	X, Y   Node
	Column int
}

// Call is a function application. Func is a builtin or an imported
// external function.
type Call struct {
	Func   string
	Args   []Node
	Column int
}

func (n *Number) node() {}
func (n *String) node() {}
func (n *Ident) node()  {}
func (n *Unary) node()  {}
func (n *Binary) node() {}
func (n *Call) node()   {}

func (n *Number) Col() int { return n.Column }
func (n *String) Col() int { return n.Column }
func (n *Ident) Col() int  { return n.Column }
func (n *Unary) Col() int  { return n.Column }
func (n *Binary) Col() int { return n.Column }
func (n *Call) Col() int   { return n.Column }

func (n *Number) String() string {
	if n.Literal != "" {
		return n.Literal
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *String) String() string { return "'" + n.Value + "'" }

func (n *Ident) String() string { return n.Name }

func (n *Unary) String() string {
	if n.Op == TOKEN_MINUS {
		return "-" + wrap(n.X, precPrefix)
	}
	return "not " + wrap(n.X, precNot)
}

func (n *Binary) String() string {
	prec := precedences[n.Op]
	// Operands binding as tightly as the operator need parentheses on the
	// right, or on the left for the right-associative **.
	lmin, rmin := prec, prec+1
	if n.Op == TOKEN_POW {
		lmin, rmin = prec+1, prec
	}
	return wrap(n.X, lmin) + " " + n.Op.String() + " " + wrap(n.Y, rmin)
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Func + "(" + strings.Join(args, ", ") + ")"
}

func wrap(n Node, minPrec int) string {
	var p int
	switch x := n.(type) {
	case *Binary:
		p = precedences[x.Op]
	case *Unary:
		p = precPrefix
		if x.Op != TOKEN_MINUS {
			p = precNot
		}
	default:
		return n.String()
	}
	if p < minPrec {
		return "(" + n.String() + ")"
	}
	return n.String()
}

// Constants are the named numeric constants usable in any expression.
var Constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"inf": math.Inf(1),
}

// IsConstant reports whether name is a named constant.
func IsConstant(name string) bool {
	_, ok := Constants[name]
	return ok
}

// Walk calls fn for n and every node below it, depth first.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch x := n.(type) {
	case *Unary:
		Walk(x.X, fn)
	case *Binary:
		Walk(x.X, fn)
		Walk(x.Y, fn)
	case *Call:
		for _, a := range x.Args {
			Walk(a, fn)
		}
	}
}

// Refs returns the free variables of the given trees in first-use order,
// without duplicates. Constants and function names are not free variables.
func Refs(nodes ...Node) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, n := range nodes {
		Walk(n, func(n Node) {
			id, ok := n.(*Ident)
			if !ok || IsConstant(id.Name) || seen[id.Name] {
				return
			}
			seen[id.Name] = true
			refs = append(refs, id.Name)
		})
	}
	return refs
}

// Calls returns the names of every function applied in n.
func Calls(n Node) []string {
	var names []string
	Walk(n, func(n Node) {
		if c, ok := n.(*Call); ok {
			names = append(names, c.Func)
		}
	})
	return names
}

// IsLiteral reports whether n has no free variables and calls no external
// function, so it can be evaluated once at load time.
func IsLiteral(n Node, builtin func(string) bool) bool {
	if len(Refs(n)) > 0 {
		return false
	}
	for _, name := range Calls(n) {
		if !builtin(name) {
			return false
		}
	}
	return true
}
