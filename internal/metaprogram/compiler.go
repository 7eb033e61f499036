package metaprogram

import (
	"fmt"
	"strconv"
	"strings"

	"go.starlark.net/syntax"
)

const (
	directivePrefix = "--!"
	entryPoint      = "render"
	indentUnit      = "    "
)

// Program is a compiled metaprogram
type Program struct {
	// Name identifies the source file in diagnostics
	Name string

	// Source is the generated Starlark program
	Source string

	// lines maps generated line numbers (1-based index) to source lines
	lines []int
}

// GeneratedName is the file name positions in the generated program refer to
func (p *Program) GeneratedName() string {
	return p.Name + " (generated)"
}

// SourceLine returns the template line that produced generated line n
func (p *Program) SourceLine(n int) int {
	if n < 1 || n > len(p.lines) {
		return 0
	}

	return p.lines[n-1]
}

// CompileError reports a malformed metaprogram
type CompileError struct {
	Name string
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Msg)
	}

	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

type block struct {
	line int
	head string
}

type generator struct {
	name  string
	out   strings.Builder
	lines []int
	stack []block
}

func (g *generator) write(srcLine int, depth int, stmt string) {
	g.out.WriteString(strings.Repeat(indentUnit, depth))
	g.out.WriteString(stmt)
	g.out.WriteByte('\n')
	g.lines = append(g.lines, srcLine)
}

func (g *generator) depth() int {
	return len(g.stack) + 1
}

func (g *generator) program() *Program {
	return &Program{Name: g.name, Source: g.out.String(), lines: g.lines}
}

// Compile translates plua text into a Starlark program. On failure the
// partially generated program is returned alongside the error.
func Compile(name, text string) (*Program, error) {
	g := &generator{name: name}
	g.write(0, 0, "# generated from "+name)
	g.write(0, 0, "def "+entryPoint+"():")
	g.write(0, 1, "pass")

	lines := strings.Split(text, "\n")
	trailingNewline := strings.HasSuffix(text, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}

	for i, line := range lines {
		n := i + 1
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, directivePrefix) {
			if err := g.directive(n, strings.TrimSpace(strings.TrimPrefix(trimmed, directivePrefix))); err != nil {
				return g.program(), err
			}

			continue
		}

		newline := i < len(lines)-1 || trailingNewline
		stmt, err := emitStatement(line, newline)
		if err != nil {
			return g.program(), &CompileError{Name: name, Line: n, Msg: err.Error()}
		}

		g.write(n, g.depth(), stmt)
	}

	if len(g.stack) > 0 {
		open := g.stack[len(g.stack)-1]
		return g.program(), &CompileError{Name: name, Line: open.line, Msg: fmt.Sprintf("block %q is never closed", open.head)}
	}

	p := g.program()
	if _, err := syntax.Parse(p.GeneratedName(), p.Source, 0); err != nil {
		return p, p.translateSyntaxError(err)
	}

	return p, nil
}

func (g *generator) directive(n int, stmt string) error {
	switch {
	case stmt == "":
		return nil
	case stmt == "end":
		if len(g.stack) == 0 {
			return &CompileError{Name: g.name, Line: n, Msg: "unexpected end"}
		}

		g.stack = g.stack[:len(g.stack)-1]
	case isContinuation(stmt):
		if len(g.stack) == 0 {
			return &CompileError{Name: g.name, Line: n, Msg: fmt.Sprintf("%q without an open block", stmt)}
		}

		g.stack = g.stack[:len(g.stack)-1]
		g.open(n, stmt)
	case strings.HasSuffix(stmt, ":"):
		g.open(n, stmt)
	default:
		g.write(n, g.depth(), stmt)
	}

	return nil
}

func (g *generator) open(n int, stmt string) {
	g.write(n, g.depth(), stmt)
	g.stack = append(g.stack, block{line: n, head: stmt})
	g.write(n, g.depth(), "pass")
}

func isContinuation(stmt string) bool {
	if !strings.HasSuffix(stmt, ":") {
		return false
	}

	return stmt == "else:" || strings.HasPrefix(stmt, "elif ") || strings.HasPrefix(stmt, "elif(")
}

// emitStatement builds the emit(...) call for one template line
func emitStatement(line string, newline bool) (string, error) {
	var parts []string
	rest := line

	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			break
		}

		end, err := closingBrace(rest, start+2)
		if err != nil {
			return "", err
		}

		if start > 0 {
			parts = append(parts, strconv.Quote(rest[:start]))
		}

		expr := strings.TrimSpace(rest[start+2 : end])
		if expr == "" {
			return "", fmt.Errorf("empty interpolation")
		}

		parts = append(parts, "_text("+expr+")")
		rest = rest[end+1:]
	}

	if newline {
		rest += "\n"
	}

	if rest != "" {
		parts = append(parts, strconv.Quote(rest))
	}

	if len(parts) == 0 {
		return "pass", nil
	}

	return "emit(" + strings.Join(parts, ", ") + ")", nil
}

// closingBrace finds the brace ending an interpolation, skipping nested
// braces and quoted strings
func closingBrace(s string, from int) (int, error) {
	depth := 0
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\'', '"':
			end, err := closingQuote(s, i)
			if err != nil {
				return 0, err
			}
			i = end
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}

	return 0, fmt.Errorf("unterminated ${ interpolation")
}

func closingQuote(s string, start int) (int, error) {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i, nil
		}
	}

	return 0, fmt.Errorf("unterminated string in ${ interpolation")
}

func (p *Program) translateSyntaxError(err error) error {
	if serr, ok := err.(syntax.Error); ok {
		return &CompileError{Name: p.Name, Line: p.SourceLine(int(serr.Pos.Line)), Msg: serr.Msg}
	}

	return &CompileError{Name: p.Name, Msg: err.Error()}
}
