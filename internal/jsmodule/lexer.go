// Package jsmodule locates ES module syntax in JavaScript source without a
// full parse. It masks module syntax so that script-only parsers accept the
// text, and reports import specifiers for rewriting.
package jsmodule

import (
	"sort"
	"strings"
)

// Specifier is a module specifier literal. Start and End delimit the text
// between the quotes.
type Specifier struct {
	Start   int
	End     int
	Value   string
	Dynamic bool
}

// Analysis is the result of scanning one source text.
type Analysis struct {
	// Masked has the same length and line breaks as the input, with static
	// module syntax blanked out.
	Masked string
	// Specifiers are in source order.
	Specifiers []Specifier
	// HasModuleSyntax reports a static import or export.
	HasModuleSyntax bool
	// Shifts maps the start of an exported declaration in Masked to the start
	// of its export keyword in the input.
	Shifts map[int]int
}

type tokenKind int

const (
	tokNone tokenKind = iota
	tokIdent
	tokValue
	tokPunct
)

// Keywords after which a slash starts a regular expression.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

var declarationKeywords = map[string]bool{
	"var": true, "let": true, "const": true, "function": true, "async": true, "class": true,
}

type scanner struct {
	src      string
	masked   []byte
	pos      int
	stack    []byte
	prevKind tokenKind
	prevText string
	result   Analysis
}

// Analyze scans src.
func Analyze(src string) Analysis {
	s := &scanner{
		src:    src,
		masked: []byte(src),
		result: Analysis{Shifts: map[int]int{}},
	}

	s.run()
	s.result.Masked = string(s.masked)

	return s.result
}

// Rewrite replaces the specifiers for which fn reports a change.
func Rewrite(src string, specs []Specifier, fn func(Specifier) (string, bool)) string {
	sorted := append([]Specifier{}, specs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder

	last := 0

	for _, spec := range sorted {
		replacement, ok := fn(spec)
		if !ok || spec.Start < last {
			continue
		}

		b.WriteString(src[last:spec.Start])
		b.WriteString(replacement)
		last = spec.End
	}

	b.WriteString(src[last:])

	return b.String()
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]

		switch {
		case isSpace(c):
			s.pos++
		case c == '/' && s.peek(1) == '/', c == '/' && s.peek(1) == '*':
			s.pos = s.skipComment(s.pos)
		case c == '\'' || c == '"':
			s.pos = s.skipString(s.pos)
			s.setPrev(tokValue, "")
		case c == '`':
			s.pos++
			s.template()
		case c == '/' && s.regexAllowed():
			s.skipRegex()
		case isIdentStart(c):
			s.word()
		case isDigit(c):
			for s.pos < len(s.src) && (isIdentPart(s.src[s.pos]) || s.src[s.pos] == '.') {
				s.pos++
			}

			s.setPrev(tokValue, "")
		default:
			s.punct(c)
		}
	}
}

func (s *scanner) peek(n int) byte {
	if s.pos+n < len(s.src) {
		return s.src[s.pos+n]
	}

	return 0
}

func (s *scanner) setPrev(kind tokenKind, text string) {
	s.prevKind = kind
	s.prevText = text
}

func (s *scanner) regexAllowed() bool {
	switch s.prevKind {
	case tokNone:
		return true
	case tokValue:
		return false
	case tokIdent:
		return regexKeywords[s.prevText]
	default:
		return s.prevText != ")" && s.prevText != "]"
	}
}

func (s *scanner) punct(c byte) {
	switch c {
	case '{', '(', '[':
		s.stack = append(s.stack, c)
	case '}':
		if n := len(s.stack); n > 0 && s.stack[n-1] == '`' {
			s.stack = s.stack[:n-1]
			s.pos++
			s.template()

			return
		}

		s.pop()
	case ')', ']':
		s.pop()
	}

	s.pos++
	s.setPrev(tokPunct, string(c))
}

func (s *scanner) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
}

// template scans template text up to the closing backtick or the next
// substitution.
func (s *scanner) template() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case '`':
			s.pos++
			s.setPrev(tokValue, "")

			return
		case '$':
			if s.peek(1) == '{' {
				s.stack = append(s.stack, '`')
				s.pos += 2
				s.setPrev(tokPunct, "{")

				return
			}

			s.pos++
		default:
			s.pos++
		}
	}
}

func (s *scanner) skipRegex() {
	j := s.pos + 1
	inClass := false

scan:
	for j < len(s.src) {
		switch s.src[j] {
		case '\\':
			j += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				j++
				break scan
			}
		case '\n', '\r':
			break scan
		}

		j++
	}

	for j < len(s.src) && isIdentPart(s.src[j]) {
		j++
	}

	s.pos = min(j, len(s.src))
	s.setPrev(tokValue, "")
}

func (s *scanner) word() {
	start := s.pos
	end := s.identEnd(start)
	text := s.src[start:end]
	property := s.prevKind == tokPunct && s.prevText == "."

	s.pos = end

	switch {
	case property:
		s.setPrev(tokIdent, text)
	case text == "import":
		s.importKeyword(start, end)
	case text == "export" && len(s.stack) == 0:
		s.exportKeyword(start, end)
	default:
		s.setPrev(tokIdent, text)
	}
}

func (s *scanner) importKeyword(start, end int) {
	next := s.skipTrivia(end)

	switch {
	case next < len(s.src) && s.src[next] == '(':
		s.replace(start, "Object")

		arg := s.skipTrivia(next + 1)
		if arg < len(s.src) && (s.src[arg] == '\'' || s.src[arg] == '"') {
			strEnd := s.skipString(arg)
			after := s.skipTrivia(strEnd)

			if after < len(s.src) && (s.src[after] == ')' || s.src[after] == ',') {
				s.addSpecifier(arg, strEnd, true)
			}
		}

		s.setPrev(tokIdent, "Object")
	case next < len(s.src) && s.src[next] == '.':
		s.replace(start, "Object")
		s.setPrev(tokIdent, "Object")
	case len(s.stack) == 0:
		strStart, strEnd, ok := s.scanToSpecifier(next)
		if !ok {
			s.setPrev(tokIdent, "import")
			return
		}

		stmtEnd := s.statementTail(strEnd)
		s.addSpecifier(strStart, strEnd, false)
		s.blank(start, stmtEnd)
		s.result.HasModuleSyntax = true
		s.pos = stmtEnd
		s.setPrev(tokPunct, ";")
	default:
		s.setPrev(tokIdent, "import")
	}
}

func (s *scanner) exportKeyword(start, end int) {
	next := s.skipTrivia(end)
	if next >= len(s.src) {
		s.setPrev(tokIdent, "export")
		return
	}

	switch c := s.src[next]; {
	case c == '{':
		closeIdx := s.findClose(next)
		if closeIdx < 0 {
			s.setPrev(tokIdent, "export")
			return
		}

		stmtEnd := closeIdx + 1

		if from := s.skipTrivia(stmtEnd); s.wordAt(from) == "from" {
			str := s.skipTrivia(from + 4)
			if str < len(s.src) && (s.src[str] == '\'' || s.src[str] == '"') {
				strEnd := s.skipString(str)
				s.addSpecifier(str, strEnd, false)
				stmtEnd = strEnd
			}
		}

		s.finishExport(start, s.statementTail(stmtEnd))
	case c == '*':
		strStart, strEnd, ok := s.scanToSpecifier(next + 1)
		if !ok {
			s.setPrev(tokIdent, "export")
			return
		}

		s.addSpecifier(strStart, strEnd, false)
		s.finishExport(start, s.statementTail(strEnd))
	default:
		keyword := s.wordAt(next)

		switch {
		case keyword == "default":
			s.exportDefault(start, next)
		case declarationKeywords[keyword]:
			s.blank(start, end)
			s.result.Shifts[next] = start
			s.result.HasModuleSyntax = true
			s.setPrev(tokPunct, ";")
		default:
			s.setPrev(tokIdent, "export")
		}
	}
}

// exportDefault keeps named declarations as declarations and turns anything
// else into a void expression statement.
func (s *scanner) exportDefault(start, keyword int) {
	end := keyword + len("default")
	s.result.HasModuleSyntax = true

	decl := s.skipTrivia(end)
	word := s.wordAt(decl)
	nameAt := decl + len(word)

	if word == "async" {
		nameAt = s.skipTrivia(nameAt)
		if s.wordAt(nameAt) == "function" {
			nameAt += len("function")
		}
	}

	if word == "function" || word == "class" || word == "async" {
		nameAt = s.skipTrivia(nameAt)
		if nameAt < len(s.src) && s.src[nameAt] == '*' {
			nameAt = s.skipTrivia(nameAt + 1)
		}

		if name := s.wordAt(nameAt); name != "" && name != "extends" {
			s.blank(start, end)
			s.result.Shifts[decl] = start
			s.pos = end
			s.setPrev(tokPunct, ";")

			return
		}
	}

	s.blank(start, end)
	s.replace(start, "void")
	s.pos = end
	s.setPrev(tokIdent, "void")
}

func (s *scanner) finishExport(start, end int) {
	s.blank(start, end)
	s.result.HasModuleSyntax = true
	s.pos = end
	s.setPrev(tokPunct, ";")
}

// scanToSpecifier walks import clause tokens up to the specifier literal.
func (s *scanner) scanToSpecifier(i int) (int, int, bool) {
	for i < len(s.src) {
		i = s.skipTrivia(i)
		if i >= len(s.src) {
			break
		}

		switch c := s.src[i]; {
		case c == '\'' || c == '"':
			return i, s.skipString(i), true
		case c == '{':
			closeIdx := s.findClose(i)
			if closeIdx < 0 {
				return 0, 0, false
			}

			i = closeIdx + 1
		case isIdentPart(c):
			i = s.identEnd(i)
		case c == '*' || c == ',':
			i++
		default:
			return 0, 0, false
		}
	}

	return 0, 0, false
}

// statementTail extends past an import attributes clause and a semicolon.
func (s *scanner) statementTail(i int) int {
	j := s.skipTrivia(i)

	if w := s.wordAt(j); w == "with" || w == "assert" {
		brace := s.skipTrivia(j + len(w))
		if brace < len(s.src) && s.src[brace] == '{' {
			if closeIdx := s.findClose(brace); closeIdx >= 0 {
				i = closeIdx + 1
				j = s.skipTrivia(i)
			}
		}
	}

	if j < len(s.src) && s.src[j] == ';' {
		return j + 1
	}

	return i
}

func (s *scanner) addSpecifier(strStart, strEnd int, dynamic bool) {
	end := strEnd - 1
	if end <= strStart || s.src[end] != s.src[strStart] {
		end = strEnd
	}

	s.result.Specifiers = append(s.result.Specifiers, Specifier{
		Start:   strStart + 1,
		End:     end,
		Value:   s.src[strStart+1 : end],
		Dynamic: dynamic,
	})
}

// blank overwrites [start, end) with spaces, keeping line breaks.
func (s *scanner) blank(start, end int) {
	for i := start; i < end && i < len(s.masked); i++ {
		if s.masked[i] != '\n' && s.masked[i] != '\r' {
			s.masked[i] = ' '
		}
	}
}

func (s *scanner) replace(start int, text string) {
	copy(s.masked[start:], text)
}

func (s *scanner) wordAt(i int) string {
	if i >= len(s.src) || !isIdentStart(s.src[i]) {
		return ""
	}

	return s.src[i:s.identEnd(i)]
}

func (s *scanner) identEnd(i int) int {
	for i < len(s.src) && isIdentPart(s.src[i]) {
		i++
	}

	return i
}

// skipString returns the index after the literal starting at i.
func (s *scanner) skipString(i int) int {
	quote := s.src[i]

	for j := i + 1; j < len(s.src); j++ {
		switch s.src[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			if quote != '`' {
				return j
			}
		}
	}

	return len(s.src)
}

func (s *scanner) skipComment(i int) int {
	if s.src[i+1] == '/' {
		if nl := strings.IndexByte(s.src[i:], '\n'); nl >= 0 {
			return i + nl
		}

		return len(s.src)
	}

	if end := strings.Index(s.src[i+2:], "*/"); end >= 0 {
		return i + 2 + end + 2
	}

	return len(s.src)
}

func (s *scanner) skipTrivia(i int) int {
	for i < len(s.src) {
		c := s.src[i]

		switch {
		case isSpace(c):
			i++
		case c == '/' && i+1 < len(s.src) && (s.src[i+1] == '/' || s.src[i+1] == '*'):
			i = s.skipComment(i)
		default:
			return i
		}
	}

	return i
}

// findClose returns the index of the brace matching the one at open, or -1.
func (s *scanner) findClose(open int) int {
	depth := 0

	for i := open; i < len(s.src); {
		c := s.src[i]

		switch {
		case c == '\'' || c == '"' || c == '`':
			i = s.skipString(i)
			continue
		case c == '/' && i+1 < len(s.src) && (s.src[i+1] == '/' || s.src[i+1] == '*'):
			i = s.skipComment(i)
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}

		i++
	}

	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c == '\\' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
