// Package parser reads Oneil model files.
//
// A model file is line oriented:
//
//	# comment
//	use <model>[(<input>=<ref>, ...)] as <symbol>
//	from <symbol>[.<symbol>...] use <model>[(...)] as <symbol>
//	import <module>
//	section <name>
//	test [{<input>, ...}]: <expression>
//	<id>[.<symbol>...] = <value>[: <units>]          design value
//	[$][*]<name>[(lo, hi)|[opt, ...]]: <id> = <equation>[: <units>]
//	    indented lines are notes, or piecewise clauses starting with "{"
//
// Parsing never stops at the first problem: every malformed line is
// reported, and the returned File holds whatever could be read.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/expr"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/pkg/token"
	"github.com/careweather/oneil/pkg/units"
)

// Ext is the model file extension.
const Ext = ".on"

// Parser parses model files.
type Parser struct {
	// Units resolves unit spellings. Nil means units.Default.
	Units *units.Registry
}

// NewParser creates a parser over the default unit registry.
func NewParser() *Parser {
	return &Parser{Units: units.Default}
}

// Line patterns
var (
	// use battery(v=bus_voltage) as batt
	usePattern = regexp.MustCompile(`^use\s+(\w+)(?:\(([^)]*)\))?\s+as\s+(\w+)\s*$`)
	// from power.cells use battery as batt
	fromPattern = regexp.MustCompile(`^from\s+(\w+(?:\.\w+)*)\s+use\s+(\w+)(?:\(([^)]*)\))?\s+as\s+(\w+)\s*$`)
	// import drag
	importPattern = regexp.MustCompile(`^import\s+(\w+)\s*$`)
	// section Power budget
	sectionStart   = regexp.MustCompile(`^section(\s|$)`)
	sectionPattern = regexp.MustCompile(`^section\s+([\w\s]*)$`)
	// test {v}: P < 10
	testStart   = regexp.MustCompile(`^(\*{1,2}\s*)?test\s*[{:]`)
	testPattern = regexp.MustCompile(`^(\*{1,2}\s*)?test\s*(?:\{(\s*\w+(?:\s*,\s*\w+)*\s*)\})?\s*:(.*)$`)
	// m.engine = 5 : kg
	designPattern = regexp.MustCompile(`^(\*{1,2}\s*)?(\w+(?:\.\w+)*)\s*(=>|=)([^=].*)$`)
	// Mass of bus(0, 100): m = 12 : kg
	paramPattern = regexp.MustCompile(`^\S[^:]*:\s*\w+\s*=`)

	identPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	refPattern   = regexp.MustCompile(`^[A-Za-z_]\w*(?:\.\w+)*$`)
)

// ParseFile parses a model file from disk.
func (p *Parser) ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return p.ParseContent(path, string(content))
}

// ParseContent parses model text. path is used for positions and the
// model name only.
func (p *Parser) ParseContent(path, content string) (*File, error) {
	reg := p.Units
	if reg == nil {
		reg = units.Default
	}
	s := &state{
		file: &File{
			Path: path,
			Name: strings.TrimSuffix(filepath.Base(path), Ext),
		},
		units:     reg,
		ids:       make(map[string]bool),
		symbols:   make(map[string]bool),
		overrides: make(map[string]bool),
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		s.pos = token.Position{File: path, Line: n}
		s.line = strings.TrimRight(scanner.Text(), "\r")
		s.parseLine()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}

	s.finish()
	return s.file, s.errs.Err()
}

// category is the kind of the last declaration, which owns the notes that
// follow it.
type category int

const (
	categoryNone category = iota
	categoryParam
	categoryTest
	categoryDesign
	// categorySkipped follows a declaration that could not be read; its
	// notes and clauses are dropped.
	categorySkipped
)

// state is threaded through every line of one file.
type state struct {
	file  *File
	units *units.Registry

	pos     token.Position
	line    string
	section string
	prev    category
	blank   bool

	ids       map[string]bool
	symbols   map[string]bool
	overrides map[string]bool
	errs      diag.List
}

func (s *state) errorf(kind diag.Kind, format string, args ...any) {
	s.errs = append(s.errs, diag.Newf(kind, format, args...).At(s.pos, s.line))
}

func (s *state) parseLine() {
	line := s.line
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		s.blank = true
		return
	}

	switch {
	case strings.HasPrefix(trimmed, "#"):
	case line[0] == ' ' || line[0] == '\t':
		s.parseContinuation()
	case strings.HasPrefix(line, "use "):
		s.parseUse()
	case strings.HasPrefix(line, "from "):
		s.parseFrom()
	case strings.HasPrefix(line, "import "):
		s.parseImport()
	case sectionStart.MatchString(line):
		s.parseSection()
	case testStart.MatchString(line):
		s.prev = categorySkipped
		s.parseTest()
	case designPattern.MatchString(line):
		s.prev = categorySkipped
		s.parseOverride()
	case paramPattern.MatchString(line):
		s.prev = categorySkipped
		s.parseParameter()
	default:
		s.errorf(diag.KindSyntax, "Invalid syntax.")
	}
	s.blank = false
}

func (s *state) parseContinuation() {
	if s.prev == categorySkipped {
		return
	}
	if text := strings.TrimSpace(s.line); strings.HasPrefix(text, "{") {
		s.parseClauses()
		return
	}

	note := dedent(s.line)
	if s.blank {
		note = "\n" + note
	}
	switch s.prev {
	case categoryParam:
		p := s.file.Params[len(s.file.Params)-1]
		p.Note = joinNote(p.Note, note)
	case categoryTest:
		t := s.file.Tests[len(s.file.Tests)-1]
		t.Note = joinNote(t.Note, note)
	case categoryDesign:
		o := s.file.Overrides[len(s.file.Overrides)-1]
		o.Note = joinNote(o.Note, note)
	default:
		s.file.Note = joinNote(s.file.Note, note)
	}
}

// parseClauses appends continuation clauses to the last parameter, which
// must be piecewise.
func (s *state) parseClauses() {
	if s.prev != categoryParam {
		s.errorf(diag.KindSyntax, "Piecewise clauses must follow a parameter declaration.")
		return
	}
	p := s.file.Params[len(s.file.Params)-1]
	pw, ok := p.Equation.(*param.Piecewise)
	if !ok {
		s.errorf(diag.KindSyntax, "Parameter %s is not piecewise; its equation must start with \"{\".", p.ID)
		return
	}
	a := &assigner{p: p, pos: s.pos, line: s.line}
	pw.Clauses = append(pw.Clauses, a.clauses(segment{text: s.line, col: 1})...)
	s.errs = append(s.errs, a.errs...)
}

func (s *state) parseUse() {
	m := usePattern.FindStringSubmatch(s.line)
	if m == nil {
		s.errorf(diag.KindSyntax, `Use includes must be of the form "use <model> as <symbol>".`)
		return
	}
	s.addUse(&Use{Model: m[1], Inputs: s.bindings(m[2]), Symbol: m[3]})
}

func (s *state) parseFrom() {
	m := fromPattern.FindStringSubmatch(s.line)
	if m == nil {
		s.errorf(diag.KindSyntax, `From includes must be of the form "from <source> use <model> as <symbol>".`)
		return
	}
	s.addUse(&Use{Via: strings.Split(m[1], "."), Model: m[2], Inputs: s.bindings(m[3]), Symbol: m[4]})
}

func (s *state) addUse(u *Use) {
	if s.symbols[u.Symbol] {
		s.errorf(diag.KindModelLoading, "Submodel symbol %q has duplicate definitions.", u.Symbol)
		return
	}
	s.symbols[u.Symbol] = true
	u.Pos = s.pos
	u.Source = s.line
	s.file.Uses = append(s.file.Uses, u)
}

// bindings parses "a=b, c=d.s".
func (s *state) bindings(list string) []Binding {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	var out []Binding
	for _, item := range strings.Split(list, ",") {
		input, ref, ok := strings.Cut(item, "=")
		input, ref = strings.TrimSpace(input), strings.TrimSpace(ref)
		if !ok || !identPattern.MatchString(input) || !refPattern.MatchString(ref) {
			s.errorf(diag.KindSyntax, "Test inputs must be of the form <input>=<parameter>, found %q.", strings.TrimSpace(item))
			continue
		}
		out = append(out, Binding{Input: input, Ref: expr.ParseQualifiedID(ref)})
	}
	return out
}

func (s *state) parseImport() {
	m := importPattern.FindStringSubmatch(s.line)
	if m == nil {
		s.errorf(diag.KindSyntax, `Imports must be of the form "import <module>".`)
		return
	}
	s.file.Imports = append(s.file.Imports, &Import{Module: m[1], Pos: s.pos, Source: s.line})
}

func (s *state) parseSection() {
	m := sectionPattern.FindStringSubmatch(s.line)
	if m == nil {
		s.errorf(diag.KindSyntax, `Sections must be of the form "section <name>" where <name> is only word characters and whitespace.`)
		return
	}
	s.section = strings.TrimSpace(m[1])
}

func (s *state) parseTest() {
	m := testPattern.FindStringSubmatchIndex(s.line)
	if m == nil {
		s.errorf(diag.KindSyntax, `Tests must be of the form "test {<input>, ...}: <expression>" where the inputs are optional.`)
		return
	}
	t := &Test{
		Trace:   m[2] >= 0,
		Section: s.section,
		Pos:     s.pos,
		Source:  s.line,
	}
	if m[4] >= 0 {
		for _, in := range strings.Split(s.line[m[4]:m[5]], ",") {
			t.Inputs = append(t.Inputs, strings.TrimSpace(in))
		}
	}

	body := segment{text: s.line[m[6]:m[7]], col: m[6] + 1}.trim()
	if body.text == "" {
		s.errorf(diag.KindSyntax, "Empty test expression.")
		return
	}
	n, err := expr.Parse(body.text)
	if err != nil {
		s.errs = append(s.errs, rebase(err, s.pos, s.line, body.col))
		return
	}
	t.Expr = n
	t.Text = body.text
	s.file.Tests = append(s.file.Tests, t)
	s.prev = categoryTest
}

func (s *state) parseOverride() {
	m := designPattern.FindStringSubmatchIndex(s.line)
	ref := s.line[m[4]:m[5]]
	o := &Override{
		Target:  expr.ParseQualifiedID(ref),
		Pointer: s.line[m[6]:m[7]] == "=>",
		Trace:   m[2] >= 0,
		Section: s.section,
		Pos:     s.pos,
		Source:  s.line,
	}

	rhs, unit, hasUnit := segment{text: s.line[m[8]:m[9]], col: m[8] + 1}.cut(":")
	o.rhs = rhs.trim()
	o.Equation = o.rhs.text
	if o.Equation == "" {
		s.errorf(diag.KindSyntax, "Design value %s needs an equation or value defined.", ref)
		return
	}
	if hasUnit {
		u, spelling, ok := s.unit(unit)
		if !ok {
			return
		}
		if spelling != "" {
			o.Unit = &u
			o.UnitSpelling = spelling
		}
	}

	if s.overrides[ref] {
		s.errorf(diag.KindSyntax, "Design value %s is set more than once.", ref)
		return
	}
	s.overrides[ref] = true
	s.file.Overrides = append(s.file.Overrides, o)
	s.prev = categoryDesign
}

func (s *state) parseParameter() {
	g := segment{text: s.line, col: 1}
	p := param.New("", "")
	p.Pos = s.pos
	p.Source = s.line
	p.Section = s.section

	if rest, ok := g.cutPrefix("$"); ok {
		p.Performance = true
		g = rest.trim()
	}
	if rest, ok := g.cutPrefix("*"); ok {
		p.Trace = true
		g, _ = rest.cutPrefix("*")
		g = g.trim()
	}

	pre, body, _ := g.cut(":")
	body, unit, hasUnit := body.cut(":")
	if strings.Contains(unit.text, ":") {
		s.errorf(diag.KindSyntax, "Too many colons in parameter declaration.")
		return
	}

	lhs, rhs, pointer := body.cut("=>")
	if !pointer {
		lhs, rhs, _ = body.cut("=")
	}
	p.ID = strings.TrimSpace(lhs.text)
	if !s.checkID(p.ID) {
		return
	}

	if hasUnit {
		u, spelling, ok := s.unit(unit)
		if !ok {
			return
		}
		if spelling != "" {
			p.Unit = u
			p.UnitSpelling = spelling
		}
	}

	if !s.preamble(p, pre) {
		return
	}

	a := &assigner{p: p, pos: s.pos, line: s.line}
	a.assign(rhs, pointer)
	s.errs = append(s.errs, a.errs...)

	s.ids[p.ID] = true
	s.file.Params = append(s.file.Params, p)
	s.prev = categoryParam
}

func (s *state) checkID(id string) bool {
	switch {
	case !identPattern.MatchString(id):
		s.errorf(diag.KindSyntax, "Parameter id %q must be a single word.", id)
	case expr.IsKeyword(id) || expr.IsConstant(id):
		s.errorf(diag.KindIdentifier, "Parameter id %q is a reserved keyword.", id)
	case s.ids[id]:
		s.errorf(diag.KindIdentifier, "Parameter %q is defined more than once.", id)
	default:
		return true
	}
	return false
}

// unit parses the text after the last colon. An empty spelling means the
// value is unitless.
func (s *state) unit(g segment) (units.Unit, string, bool) {
	spelling := strings.TrimSpace(g.text)
	if spelling == "" {
		return units.Unit{Multiplier: 1}, "", true
	}
	u, err := s.units.Parse(spelling)
	if err != nil {
		s.errs = append(s.errs, diag.Wrap(diag.KindUnitParse, err, "Failed to parse units: "+spelling).At(s.pos, s.line))
		return units.Unit{}, "", false
	}
	return u, spelling, true
}

// preamble reads "name", "name(lo, hi)" or "name[opt, ...]".
func (s *state) preamble(p *param.Parameter, g segment) bool {
	g = g.trim()
	name, rest, hasLimits := g.cut("(")
	if hasLimits {
		inner, _, closed := rest.cut(")")
		if !closed {
			s.errorf(diag.KindSyntax, "Missing \")\" after parameter limits.")
			return false
		}
		if !s.limits(p, inner) {
			return false
		}
	} else if name, rest, hasOptions := g.cut("["); hasOptions {
		inner, _, closed := rest.cut("]")
		if !closed {
			s.errorf(diag.KindSyntax, "Missing \"]\" after parameter options.")
			return false
		}
		p.Options = options(inner.text)
		p.Name = strings.TrimSpace(name.text)
	}
	if p.Name == "" {
		p.Name = strings.TrimSpace(name.text)
	}
	if p.Name == "" {
		s.errorf(diag.KindSyntax, "Parameter name cannot be empty.")
		return false
	}
	return true
}

func (s *state) limits(p *param.Parameter, g segment) bool {
	parts := splitTop(g, ',')
	if len(parts) != 2 {
		s.errorf(diag.KindSyntax, "Parameter limits must be of the form (<min>, <max>).")
		return false
	}
	var bounds [2]float64
	for i, part := range parts {
		part = part.trim()
		n, err := expr.Parse(part.text)
		if err != nil {
			s.errs = append(s.errs, rebase(err, s.pos, s.line, part.col))
			return false
		}
		iv, ok := param.Eval(n, constants{}).(param.Interval)
		if !ok || !iv.IsPoint() || !iv.Dim.IsDimensionless() {
			s.errorf(diag.KindSyntax, "Invalid limit: %s.", part.text)
			return false
		}
		bounds[i] = p.Unit.ToBase(iv.Min)
	}
	p.Limits = param.Limits{Min: bounds[0], Max: bounds[1]}
	return true
}

func options(list string) []string {
	var out []string
	for _, o := range strings.Split(list, ",") {
		o = strings.Trim(strings.TrimSpace(o), `'"`)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// finish runs the checks that need the whole file.
func (s *state) finish() {
	for _, p := range s.file.Params {
		if pw, ok := p.Equation.(*param.Piecewise); ok {
			a := &assigner{p: p, pos: p.Pos, line: p.Source}
			a.checkPiecewise(pw)
			s.errs = append(s.errs, a.errs...)
		}
	}
	if len(s.file.Params) == 0 && len(s.file.Tests) == 0 && len(s.file.Overrides) == 0 && len(s.errs) == 0 {
		e := diag.New(diag.KindModelLoading, "Empty model. No parameters, design values, or tests found.")
		e.Pos = token.Position{File: s.file.Path}
		s.errs = append(s.errs, e)
	}
}

// dedent strips one level of indentation from a note line.
func dedent(line string) string {
	if rest, ok := strings.CutPrefix(line, "\t"); ok {
		return strings.TrimRight(rest, " \t")
	}
	if rest, ok := strings.CutPrefix(line, "    "); ok {
		return strings.TrimRight(rest, " \t")
	}
	return strings.TrimSpace(line)
}

func joinNote(note, line string) string {
	if note == "" {
		return strings.TrimLeft(line, "\n")
	}
	return note + "\n" + line
}
