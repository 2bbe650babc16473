package output

import (
	"fmt"
	"math"

	"github.com/careweather/oneil/internal/model"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/internal/state"
	"github.com/careweather/oneil/pkg/units"
)

// Param is the encoded form of a parameter. Min and Max are in base units.
type Param struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Value   string   `json:"value" yaml:"value"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Unit    string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Section string   `json:"section,omitempty" yaml:"section,omitempty"`
	Note    string   `json:"note,omitempty" yaml:"note,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewParam describes p under the qualified reference ref.
func NewParam(ref string, p *param.Parameter, sigfigs int) Param {
	v := Param{
		ID:      ref,
		Name:    p.Name,
		Value:   p.Display(sigfigs),
		Unit:    p.UnitSpelling,
		Section: p.Section,
		Note:    p.Note,
	}
	v.Min, v.Max = Bounds(p.Value)
	if f, ok := p.Value.(param.Failed); ok {
		v.Error = f.Err.Message
	}
	return v
}

// Bounds returns the finite endpoints of a numeric value.
func Bounds(v param.Value) (lo, hi *float64) {
	iv, ok := v.(param.Interval)
	if !ok {
		return nil, nil
	}
	if !math.IsInf(iv.Min, 0) && !math.IsNaN(iv.Min) {
		lo = &iv.Min
	}
	if !math.IsInf(iv.Max, 0) && !math.IsNaN(iv.Max) {
		hi = &iv.Max
	}
	return lo, hi
}

// Summary is the encoded result of evaluating a model.
type Summary struct {
	Model       string  `json:"model" yaml:"model"`
	Path        string  `json:"path" yaml:"path"`
	Design      string  `json:"design" yaml:"design"`
	RunID       string  `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Parameters  int     `json:"parameters" yaml:"parameters"`
	Independent int     `json:"independent" yaml:"independent"`
	Dependent   int     `json:"dependent" yaml:"dependent"`
	Constants   int     `json:"constants" yaml:"constants"`
	Submodels   int     `json:"submodels" yaml:"submodels"`
	TestsPassed int     `json:"tests_passed" yaml:"tests_passed"`
	TestsTotal  int     `json:"tests_total" yaml:"tests_total"`
	Values      []Param `json:"values" yaml:"values"`
	Queries     []Query `json:"queries,omitempty" yaml:"queries,omitempty"`
}

// Query is an expression evaluated against a built model.
type Query struct {
	Expr  string `json:"expr" yaml:"expr"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewSummary describes an evaluated model. With all set, every parameter is
// listed; otherwise only the performance parameters.
func NewSummary(m *model.Model, report *model.TestReport, all bool, sigfigs int) Summary {
	s := m.Summarize()
	out := Summary{
		Model:       s.Model,
		Path:        m.Path,
		Design:      s.Design,
		Parameters:  s.Parameters,
		Independent: s.Independent,
		Dependent:   s.Dependent,
		Constants:   s.Constants,
		Submodels:   s.Submodels,
		Values:      []Param{},
	}
	if report != nil {
		out.TestsPassed = report.Passed
		out.TestsTotal = report.Total
	}
	params := s.Performance
	if all {
		params = m.Parameters()
	}
	for _, p := range params {
		out.Values = append(out.Values, NewParam(p.ID, p, sigfigs))
	}
	return out
}

// RenderSummary writes an evaluation summary.
func (r *Renderer) RenderSummary(s Summary) error {
	if r.Structured() {
		return r.Encode(s)
	}
	r.Header(1, fmt.Sprintf("%s (%s)", s.Model, s.Design))
	r.KeyValue("Parameters", fmt.Sprintf("%d (%d independent, %d dependent)", s.Parameters, s.Independent, s.Dependent))
	r.KeyValue("Constants", fmt.Sprint(s.Constants))
	r.KeyValue("Submodels", fmt.Sprint(s.Submodels))
	r.KeyValue("Tests", fmt.Sprintf("%d/%d passed", s.TestsPassed, s.TestsTotal))
	if s.RunID != "" {
		r.KeyValue("Run", s.RunID)
	}
	r.Println()
	if len(s.Values) > 0 {
		r.Table([]string{"ID", "Name", "Value"}, paramRows(s.Values))
	}
	for _, q := range s.Queries {
		if q.Error != "" {
			r.Printf("%s = %s\n", q.Expr, q.Error)
			continue
		}
		r.Printf("%s = %s\n", q.Expr, q.Value)
	}
	return nil
}

func paramRows(values []Param) [][]string {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v.ID, v.Name, v.Value})
	}
	return rows
}

// Tree is the encoded form of a dependency tree node.
type Tree struct {
	Ref       string `json:"ref" yaml:"ref"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Value     string `json:"value" yaml:"value"`
	Constant  bool   `json:"constant,omitempty" yaml:"constant,omitempty"`
	Truncated bool   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Children  []Tree `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewTree converts a dependency tree.
func NewTree(n *model.TreeNode, sigfigs int) Tree {
	t := Tree{Ref: n.Ref, Constant: n.Constant, Truncated: n.Truncated}
	preferred := ""
	if n.Param != nil {
		t.Name = n.Param.Name
		preferred = n.Param.UnitSpelling
	}
	t.Value = param.FormatValue(n.Value, preferred, sigfigs)
	for _, c := range n.Children {
		t.Children = append(t.Children, NewTree(c, sigfigs))
	}
	return t
}

// RenderTrees writes dependency trees.
func (r *Renderer) RenderTrees(trees []Tree) error {
	if r.Structured() {
		return r.Encode(trees)
	}
	items := make([]TreeItem, len(trees))
	for i, t := range trees {
		items[i] = treeItem(t)
	}
	r.Tree(items)
	return nil
}

func treeItem(t Tree) TreeItem {
	text := t.Ref + ": " + t.Value
	switch {
	case t.Constant:
		text += " (constant)"
	case t.Truncated:
		text += " ..."
	}
	item := TreeItem{Text: text}
	for _, c := range t.Children {
		item.Children = append(item.Children, treeItem(c))
	}
	return item
}

// TestResult is the encoded outcome of one model test.
type TestResult struct {
	Model   string `json:"model" yaml:"model"`
	Test    string `json:"test" yaml:"test"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Passed  bool   `json:"passed" yaml:"passed"`
	Skipped bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TestReport is the encoded result of testing one model file.
type TestReport struct {
	Model   string       `json:"model" yaml:"model"`
	Design  string       `json:"design" yaml:"design"`
	Passed  int          `json:"passed" yaml:"passed"`
	Total   int          `json:"total" yaml:"total"`
	Results []TestResult `json:"results" yaml:"results"`
	Errors  []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewTestReport converts the test results of a model.
func NewTestReport(m *model.Model, report *model.TestReport) TestReport {
	out := TestReport{
		Model:   m.Name,
		Design:  m.Design,
		Passed:  report.Passed,
		Total:   report.Total,
		Results: []TestResult{},
	}
	for _, res := range report.Results {
		tr := TestResult{
			Model:   res.Model,
			Test:    res.Test.Text,
			Line:    res.Test.Pos.Line,
			Passed:  res.Passed,
			Skipped: res.Skipped,
		}
		if res.Err != nil {
			tr.Error = res.Err.Error()
		}
		out.Results = append(out.Results, tr)
	}
	return out
}

// RenderTestReports writes the test results of one or more models.
func (r *Renderer) RenderTestReports(reports []TestReport) error {
	if r.Structured() {
		return r.Encode(reports)
	}
	for _, rep := range reports {
		r.Header(2, fmt.Sprintf("%s (%s): %d/%d passed", rep.Model, rep.Design, rep.Passed, rep.Total))
		rows := make([][]string, 0, len(rep.Results))
		for _, res := range rep.Results {
			rows = append(rows, []string{res.Model, testStatus(res), res.Test})
		}
		if len(rows) > 0 {
			r.Table([]string{"Model", "Status", "Test"}, rows)
		}
		for _, e := range rep.Errors {
			r.Errorf("%s", e)
		}
		r.Println()
	}
	return nil
}

func testStatus(res TestResult) string {
	switch {
	case res.Passed:
		return "pass"
	case res.Skipped:
		return "skip"
	case res.Error != "":
		return "error"
	default:
		return "fail"
	}
}

// Comparison is the encoded form of one compared parameter.
type Comparison struct {
	Ref   string   `json:"ref" yaml:"ref"`
	Name  string   `json:"name" yaml:"name"`
	Base  string   `json:"base" yaml:"base"`
	Alt   string   `json:"alt" yaml:"alt"`
	Ratio *float64 `json:"ratio,omitempty" yaml:"ratio,omitempty"`
}

// Comparisons is the encoded result of comparing two designs.
type Comparisons struct {
	Model      string       `json:"model" yaml:"model"`
	BaseDesign string       `json:"base_design" yaml:"base_design"`
	AltDesign  string       `json:"alt_design" yaml:"alt_design"`
	Values     []Comparison `json:"values" yaml:"values"`
}

// NewComparisons converts the comparison of two evaluations of a model.
func NewComparisons(base, alt *model.Model, cmp []model.Comparison, sigfigs int) Comparisons {
	out := Comparisons{
		Model:      base.Name,
		BaseDesign: base.Design,
		AltDesign:  alt.Design,
		Values:     make([]Comparison, 0, len(cmp)),
	}
	for _, c := range cmp {
		v := Comparison{
			Ref:  c.Ref,
			Name: c.Name,
			Base: param.FormatValue(c.Base, c.Unit, sigfigs),
			Alt:  param.FormatValue(c.Alt, c.Unit, sigfigs),
		}
		if !math.IsNaN(c.Ratio) && !math.IsInf(c.Ratio, 0) {
			ratio := c.Ratio
			v.Ratio = &ratio
		}
		out.Values = append(out.Values, v)
	}
	return out
}

// RenderComparisons writes a design comparison.
func (r *Renderer) RenderComparisons(c Comparisons) error {
	if r.Structured() {
		return r.Encode(c)
	}
	r.Header(1, fmt.Sprintf("%s: %s vs %s", c.Model, c.BaseDesign, c.AltDesign))
	rows := make([][]string, 0, len(c.Values))
	for _, v := range c.Values {
		ratio := "n/a"
		if v.Ratio != nil {
			ratio = formatRatio(*v.Ratio, r.sigfigs)
		}
		rows = append(rows, []string{v.Ref, v.Name, v.Base, v.Alt, ratio})
	}
	r.Table([]string{"ID", "Name", c.BaseDesign, c.AltDesign, "Ratio"}, rows)
	return nil
}

func formatRatio(x float64, sigfigs int) string {
	return param.FormatValue(param.Number(x), "", sigfigs)
}

// Unit is the encoded form of a unit spelling.
type Unit struct {
	Spelling   string             `json:"spelling" yaml:"spelling"`
	Dimension  map[string]float64 `json:"dimension" yaml:"dimension"`
	Multiplier float64            `json:"multiplier" yaml:"multiplier"`
	Decibel    bool               `json:"decibel,omitempty" yaml:"decibel,omitempty"`
}

// NewUnit describes a parsed unit.
func NewUnit(spelling string, u units.Unit) Unit {
	return Unit{
		Spelling:   spelling,
		Dimension:  u.Dimension.Exponents(),
		Multiplier: u.Multiplier,
		Decibel:    u.Decibel,
	}
}

// RenderUnits writes unit descriptions.
func (r *Renderer) RenderUnits(us []Unit) error {
	if r.Structured() {
		return r.Encode(us)
	}
	rows := make([][]string, 0, len(us))
	for _, u := range us {
		dim := "unitless"
		if d, err := units.NewDimension(u.Dimension); err == nil && !d.IsDimensionless() {
			dim = d.String()
		}
		spelling := u.Spelling
		if u.Decibel {
			spelling += " (dB)"
		}
		rows = append(rows, []string{spelling, dim, fmt.Sprintf("%g", u.Multiplier)})
	}
	r.Table([]string{"Unit", "Dimension", "Multiplier"}, rows)
	return nil
}

// Run is the encoded form of a recorded run.
type Run struct {
	ID          string  `json:"id" yaml:"id"`
	Command     string  `json:"command" yaml:"command"`
	Model       string  `json:"model" yaml:"model"`
	Design      string  `json:"design" yaml:"design"`
	Status      string  `json:"status" yaml:"status"`
	TestsPassed int     `json:"tests_passed" yaml:"tests_passed"`
	TestsTotal  int     `json:"tests_total" yaml:"tests_total"`
	Error       string  `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   string  `json:"started_at" yaml:"started_at"`
	Values      []Param `json:"values,omitempty" yaml:"values,omitempty"`
}

// NewRun converts a recorded run.
func NewRun(run *state.Run, values []state.Value) Run {
	out := Run{
		ID:          run.ID,
		Command:     run.Command,
		Model:       run.Model,
		Design:      run.Design,
		Status:      string(run.Status),
		TestsPassed: run.TestsPassed,
		TestsTotal:  run.TestsTotal,
		Error:       run.Error,
		StartedAt:   run.StartedAt.Local().Format("2006-01-02 15:04:05"),
	}
	for _, v := range values {
		out.Values = append(out.Values, Param{ID: v.Ref, Name: v.Name, Value: v.Display, Min: v.Min, Max: v.Max})
	}
	return out
}

// RenderRuns writes a run history listing.
func (r *Renderer) RenderRuns(runs []Run) error {
	if r.Structured() {
		return r.Encode(runs)
	}
	if len(runs) == 0 {
		r.Println("No runs recorded.")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID[:min(8, len(run.ID))],
			run.StartedAt,
			run.Command,
			run.Model,
			run.Design,
			run.Status,
			fmt.Sprintf("%d/%d", run.TestsPassed, run.TestsTotal),
		})
	}
	r.Table([]string{"Run", "Started", "Command", "Model", "Design", "Status", "Tests"}, rows)
	return nil
}

// RenderRun writes one run and its recorded values.
func (r *Renderer) RenderRun(run Run) error {
	if r.Structured() {
		return r.Encode(run)
	}
	r.Header(1, "Run "+run.ID)
	r.KeyValue("Command", run.Command)
	r.KeyValue("Model", run.Model)
	r.KeyValue("Design", run.Design)
	r.KeyValue("Status", run.Status)
	r.KeyValue("Started", run.StartedAt)
	r.KeyValue("Tests", fmt.Sprintf("%d/%d passed", run.TestsPassed, run.TestsTotal))
	if run.Error != "" {
		r.KeyValue("Error", run.Error)
	}
	r.Println()
	if len(run.Values) > 0 {
		r.Table([]string{"ID", "Name", "Value"}, paramRows(run.Values))
	}
	return nil
}
