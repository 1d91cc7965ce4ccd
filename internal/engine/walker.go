package engine

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"

	"covhook.dev/pkg/covhook/internal/jsmodule"
	m "covhook.dev/pkg/covhook/internal/model"
)

// insertion is text spliced into the source at offset. At one offset closers
// go first, innermost first, then openers, outermost first.
type insertion struct {
	offset int
	closer bool
	depth  int
	seq    int
	text   string
}

type walker struct {
	masked         string
	shifts         map[int]int
	lines          []int
	cov            string
	coverage       *m.FileCoverage
	inserts        []insertion
	preambleOffset int
	nextS          int
	nextF          int
	nextB          int
}

func newWalker(analysis jsmodule.Analysis, cov, filename string) *walker {
	lines := []int{0}

	for i := 0; i < len(analysis.Masked); i++ {
		if analysis.Masked[i] == '\n' {
			lines = append(lines, i+1)
		}
	}

	return &walker{
		masked:   analysis.Masked,
		shifts:   analysis.Shifts,
		lines:    lines,
		cov:      cov,
		coverage: m.NewFileCoverage(filename),
	}
}

func (w *walker) open(offset, depth int, text string) {
	w.inserts = append(w.inserts, insertion{offset: offset, depth: depth, seq: len(w.inserts), text: text})
}

func (w *walker) close(offset, depth int, text string) {
	w.inserts = append(w.inserts, insertion{offset: offset, closer: true, depth: depth, seq: len(w.inserts), text: text})
}

// apply splices every insertion into src.
func (w *walker) apply(src string) string {
	sort.SliceStable(w.inserts, func(i, j int) bool {
		a, b := w.inserts[i], w.inserts[j]

		switch {
		case a.offset != b.offset:
			return a.offset < b.offset
		case a.closer != b.closer:
			return a.closer
		case a.depth != b.depth && a.closer:
			return a.depth > b.depth
		case a.depth != b.depth:
			return a.depth < b.depth
		}

		return a.seq < b.seq
	})

	var b strings.Builder

	b.Grow(len(src) + len(w.inserts)*24)

	last := 0

	for _, in := range w.inserts {
		offset := min(max(in.offset, last), len(src))
		b.WriteString(src[last:offset])
		b.WriteString(in.text)
		last = offset
	}

	b.WriteString(src[last:])

	return b.String()
}

func offset(idx file.Idx) int {
	return int(idx) - 1
}

func (w *walker) position(off int) m.Position {
	line := sort.Search(len(w.lines), func(i int) bool { return w.lines[i] > off }) - 1
	if line < 0 {
		line = 0
	}

	return m.Position{Line: line + 1, Column: off - w.lines[line]}
}

func (w *walker) span(start, end int) m.Range {
	return m.Range{Start: w.position(start), End: w.position(end)}
}

func (w *walker) nodeSpan(n ast.Node) m.Range {
	return w.span(w.nodeStart(n), max(offset(n.Idx1()), 0))
}

// nodeStart is the offset of the first character of n. The parser leaves
// IfStatement.If unset, so an if statement is located from its test.
func (w *walker) nodeStart(n ast.Node) int {
	if s, ok := n.(*ast.IfStatement); ok {
		return w.ifKeyword(offset(s.Test.Idx0()))
	}

	return max(offset(n.Idx0()), 0)
}

// ifKeyword scans back from the start of an if test to the if keyword.
func (w *walker) ifKeyword(test int) int {
	test = min(max(test, 0), len(w.masked))

	j := test
	for j > 0 && (isSpace(w.masked[j-1]) || w.masked[j-1] == '(') {
		j--
	}

	if j >= 2 && w.masked[j-2:j] == "if" {
		return j - 2
	}

	if i := strings.LastIndex(w.masked[:test], "if"); i >= 0 {
		return i
	}

	return test
}

func (w *walker) program(p *ast.Program) {
	directives := directiveCount(p.Body)
	if directives > 0 {
		w.preambleOffset = w.statementEnd(p.Body[directives-1])
	}

	w.statements(p.Body, 0, true)
}

// directiveCount counts the leading string-literal expression statements.
func directiveCount(list []ast.Statement) int {
	n := 0

	for _, s := range list {
		es, ok := s.(*ast.ExpressionStatement)
		if !ok {
			break
		}

		if _, ok := es.Expression.(*ast.StringLiteral); !ok {
			break
		}

		n++
	}

	return n
}

func (w *walker) statements(list []ast.Statement, depth int, prologue bool) {
	skip := 0
	if prologue {
		skip = directiveCount(list)
	}

	for i, s := range list {
		if i < skip {
			continue
		}

		w.statement(s, depth)
	}
}

func countable(s ast.Statement) bool {
	switch s.(type) {
	case *ast.BlockStatement, *ast.EmptyStatement, *ast.FunctionDeclaration:
		return false
	}

	return true
}

func (w *walker) statement(s ast.Statement, depth int) {
	if countable(s) {
		start := w.statementStart(s)
		id := w.addStatement(start, offset(s.Idx1()))
		w.open(start, depth+1, fmt.Sprintf("%s.s[%s]++;", w.cov, id))
	}

	w.inner(s, depth)
}

// inner instruments the children of s.
func (w *walker) inner(s ast.Statement, depth int) {
	child := depth + 2

	switch n := s.(type) {
	case *ast.BlockStatement:
		w.statements(n.List, depth, false)
	case *ast.LabelledStatement:
		w.inner(n.Statement, depth)
	case *ast.IfStatement:
		w.ifStatement(n, depth)
	case *ast.ForStatement:
		w.expr(n.Initializer, child)
		w.expr(n.Test, child)
		w.expr(n.Update, child)
		w.body(n.Body, child, "")
	case *ast.ForInStatement:
		w.expr(n.Into, child)
		w.expr(n.Source, child)
		w.body(n.Body, child, "")
	case *ast.ForOfStatement:
		w.expr(n.Into, child)
		w.expr(n.Source, child)
		w.body(n.Body, child, "")
	case *ast.WhileStatement:
		w.expr(n.Test, child)
		w.body(n.Body, child, "")
	case *ast.DoWhileStatement:
		w.body(n.Body, child, "")
		w.expr(n.Test, child)
	case *ast.WithStatement:
		w.expr(n.Object, child)
		w.body(n.Body, child, "")
	case *ast.SwitchStatement:
		w.switchStatement(n, depth)
	case *ast.TryStatement:
		w.statements(n.Body.List, child, false)

		if n.Catch != nil {
			w.expr(n.Catch.Parameter, child)
			w.statements(n.Catch.Body.List, child, false)
		}

		if n.Finally != nil {
			w.statements(n.Finally.List, child, false)
		}
	case *ast.FunctionDeclaration:
		w.function(n.Function, child)
	default:
		w.expr(s, child)
	}
}

// body instruments a control-statement body, wrapping non-block bodies in
// braces. prefix is placed at the top of the body.
func (w *walker) body(s ast.Statement, depth int, prefix string) {
	if block, ok := s.(*ast.BlockStatement); ok {
		if prefix != "" {
			w.open(offset(block.LeftBrace)+1, depth, " "+prefix)
		}

		w.statements(block.List, depth, false)

		return
	}

	w.open(w.statementStart(s), depth, "{ "+prefix)
	w.close(w.statementEnd(s), depth, " }")
	w.statement(s, depth)
}

func (w *walker) bodyEnd(s ast.Statement) int {
	if block, ok := s.(*ast.BlockStatement); ok {
		return offset(block.RightBrace) + 1
	}

	return w.statementEnd(s)
}

func (w *walker) ifStatement(n *ast.IfStatement, depth int) {
	child := depth + 2
	w.expr(n.Test, child)

	alternate := w.nodeSpan(n)
	if n.Alternate != nil {
		alternate = w.nodeSpan(n.Alternate)
	}

	id := w.addBranch("if", n, []m.Range{w.nodeSpan(n.Consequent), alternate})

	w.body(n.Consequent, child, fmt.Sprintf("%s.b[%s][0]++;", w.cov, id))

	if n.Alternate != nil {
		w.body(n.Alternate, child, fmt.Sprintf("%s.b[%s][1]++;", w.cov, id))
		return
	}

	w.close(w.bodyEnd(n.Consequent), depth+1, fmt.Sprintf(" else { %s.b[%s][1]++; }", w.cov, id))
}

func (w *walker) switchStatement(n *ast.SwitchStatement, depth int) {
	child := depth + 2
	w.expr(n.Discriminant, child)

	locations := make([]m.Range, len(n.Body))
	for i, c := range n.Body {
		locations[i] = w.nodeSpan(c)
	}

	id := w.addBranch("switch", n, locations)

	for i, c := range n.Body {
		w.expr(c.Test, child)
		w.open(w.caseColon(c), depth+1, fmt.Sprintf(" %s.b[%s][%d]++;", w.cov, id, i))
		w.statements(c.Consequent, child, false)
	}
}

// caseColon returns the offset just after the colon of a case clause.
func (w *walker) caseColon(c *ast.CaseStatement) int {
	i := offset(c.Case) + len("default")
	if c.Test != nil {
		i = offset(c.Test.Idx1())
	}

	for i < len(w.masked) {
		i = w.skipTrivia(i)

		switch {
		case i >= len(w.masked):
			return len(w.masked)
		case w.masked[i] == ')':
			i++
		case w.masked[i] == ':':
			return i + 1
		default:
			if colon := strings.IndexByte(w.masked[i:], ':'); colon >= 0 {
				return i + colon + 1
			}

			return i
		}
	}

	return i
}

func (w *walker) function(fn *ast.FunctionLiteral, depth int) {
	// Method bodies may carry no function keyword position.
	start := offset(fn.Idx0())
	if start < 0 {
		start = offset(fn.Body.LeftBrace)
	}

	name := ""
	decl := w.span(start, start)

	if fn.Name != nil {
		name = string(fn.Name.Name)
		decl = w.nodeSpan(fn.Name)
	}

	id := w.addFunction(name, decl, w.span(start, offset(fn.Idx1())))

	w.expr(fn.ParameterList, depth+2)
	w.functionBody(fn.Body, depth, fmt.Sprintf(" %s.f[%s]++;", w.cov, id))
}

func (w *walker) arrow(fn *ast.ArrowFunctionLiteral, depth int) {
	loc := w.nodeSpan(fn)
	id := w.addFunction("", m.Range{Start: loc.Start, End: loc.Start}, loc)
	counter := fmt.Sprintf("%s.f[%s]++", w.cov, id)

	w.expr(fn.ParameterList, depth+2)

	switch body := fn.Body.(type) {
	case *ast.BlockStatement:
		w.functionBody(body, depth, " "+counter+";")
	case *ast.ExpressionBody:
		w.open(offset(body.Expression.Idx0()), depth+1, "("+counter+", ")
		w.close(offset(body.Expression.Idx1()), depth+1, ")")
		w.expr(body.Expression, depth+2)
	}
}

func (w *walker) functionBody(body *ast.BlockStatement, depth int, counter string) {
	at := offset(body.LeftBrace) + 1
	if n := directiveCount(body.List); n > 0 {
		at = w.statementEnd(body.List[n-1])
	}

	w.open(at, depth+1, counter)
	w.statements(body.List, depth+2, true)
}

func (w *walker) ternary(n *ast.ConditionalExpression, depth int) {
	child := depth + 2
	w.expr(n.Test, child)

	id := w.addBranch("cond-expr", n, []m.Range{w.nodeSpan(n.Consequent), w.nodeSpan(n.Alternate)})

	for i, branch := range []ast.Expression{n.Consequent, n.Alternate} {
		w.open(offset(branch.Idx0()), depth+1, fmt.Sprintf("(%s.b[%s][%d]++, ", w.cov, id, i))
		w.close(offset(branch.Idx1()), depth+1, ")")
		w.expr(branch, child)
	}
}

// expr walks an arbitrary subtree looking for functions, conditional
// expressions and class static blocks.
func (w *walker) expr(node any, depth int) {
	w.visit(reflect.ValueOf(node), depth)
}

func (w *walker) visit(v reflect.Value, depth int) {
	switch v.Kind() {
	case reflect.Interface:
		if !v.IsNil() {
			w.visit(v.Elem(), depth)
		}
	case reflect.Pointer:
		if v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return
		}

		switch n := v.Interface().(type) {
		case *ast.FunctionLiteral:
			w.function(n, depth)
		case *ast.ArrowFunctionLiteral:
			w.arrow(n, depth)
		case *ast.ConditionalExpression:
			w.ternary(n, depth)
		case *ast.BlockStatement:
			w.statements(n.List, depth, false)
		default:
			w.visit(v.Elem(), depth)
		}
	case reflect.Struct:
		t := v.Type()

		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Name == "DeclarationList" {
				continue
			}

			w.visit(v.Field(i), depth)
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			w.visit(v.Index(i), depth)
		}
	}
}

func (w *walker) addStatement(start, end int) string {
	id := strconv.Itoa(w.nextS)
	w.nextS++

	w.coverage.StatementMap[id] = w.span(start, end)
	w.coverage.S[id] = 0

	return id
}

func (w *walker) addFunction(name string, decl, loc m.Range) string {
	id := strconv.Itoa(w.nextF)
	w.nextF++

	if name == "" {
		name = "(anonymous_" + id + ")"
	}

	w.coverage.FnMap[id] = m.FunctionMapping{Name: name, Decl: decl, Loc: loc, Line: loc.Start.Line}
	w.coverage.F[id] = 0

	return id
}

func (w *walker) addBranch(kind string, n ast.Node, locations []m.Range) string {
	id := strconv.Itoa(w.nextB)
	w.nextB++

	loc := w.nodeSpan(n)
	w.coverage.BranchMap[id] = m.BranchMapping{Loc: loc, Type: kind, Locations: locations, Line: loc.Start.Line}
	w.coverage.B[id] = make([]int, len(locations))

	return id
}

// statementStart is where a counter for s goes: before the export keyword of
// an exported declaration, otherwise before any opening parentheses.
func (w *walker) statementStart(s ast.Statement) int {
	start := w.nodeStart(s)
	if shifted, ok := w.shifts[start]; ok {
		return shifted
	}

	for {
		j := start
		for j > 0 && isSpace(w.masked[j-1]) {
			j--
		}

		if j == 0 || w.masked[j-1] != '(' {
			return start
		}

		start = j - 1
	}
}

// statementEnd extends past closing parentheses and a trailing semicolon.
func (w *walker) statementEnd(s ast.Statement) int {
	end := offset(s.Idx1())

	for i := end; i < len(w.masked); {
		i = w.skipTrivia(i)

		switch {
		case i < len(w.masked) && w.masked[i] == ')':
			i++
			end = i
		case i < len(w.masked) && w.masked[i] == ';':
			return i + 1
		default:
			return end
		}
	}

	return min(end, len(w.masked))
}

func (w *walker) skipTrivia(i int) int {
	for i < len(w.masked) {
		switch {
		case isSpace(w.masked[i]):
			i++
		case strings.HasPrefix(w.masked[i:], "//"):
			nl := strings.IndexByte(w.masked[i:], '\n')
			if nl < 0 {
				return len(w.masked)
			}

			i += nl
		case strings.HasPrefix(w.masked[i:], "/*"):
			end := strings.Index(w.masked[i+2:], "*/")
			if end < 0 {
				return len(w.masked)
			}

			i += end + 4
		default:
			return i
		}
	}

	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
