package softgl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"cone-renderer/internal/mathutil"
)

// The shading language is the subset of GLSL ES 1.00 a pass-through pipeline
// needs: attribute/uniform/varying declarations of float, vec2-4 and mat4,
// a main() made of assignments, and expressions built from + - * /,
// constructors, swizzles and parentheses. Precision qualifiers, precision
// statements and preprocessor lines are accepted and ignored.

// glslType is the component count of a value: 1 (float), 2-4 (vecN) or 16
// (mat4).
type glslType int

const (
	tFloat glslType = 1
	tVec2  glslType = 2
	tVec3  glslType = 3
	tVec4  glslType = 4
	tMat4  glslType = 16
)

var typeNames = map[string]glslType{
	"float": tFloat,
	"vec2":  tVec2,
	"vec3":  tVec3,
	"vec4":  tVec4,
	"mat4":  tMat4,
}

func (t glslType) String() string {
	for name, v := range typeNames {
		if v == t {
			return name
		}
	}
	return "void"
}

func isVector(t glslType) bool { return t >= tVec2 && t <= tVec4 }

// value holds any shader value; only the first n components are meaningful.
type value struct {
	n int
	v [16]float64
}

func vec4Value(x, y, z, w float64) value {
	return value{n: 4, v: [16]float64{x, y, z, w}}
}

type stage int

const (
	vertexStage stage = iota
	fragmentStage
)

func (s stage) String() string {
	if s == fragmentStage {
		return "fragment"
	}
	return "vertex"
}

type symbolKind int

const (
	symAttribute symbolKind = iota
	symUniform
	symVarying
	symLocal
	symBuiltin
)

var kindNames = [...]string{"attribute", "uniform", "varying", "local", "built-in"}

type symbol struct {
	name    string
	kind    symbolKind
	typ     glslType
	slot    int
	written bool
	read    bool
}

// compiledShader is a checked shader ready to run against an environment of
// len(symbols) values.
type compiledShader struct {
	stage   stage
	symbols []*symbol
	byName  map[string]*symbol
	body    []func(env []value)
	hasMain bool
}

func (s *compiledShader) run(env []value) {
	for _, stmt := range s.body {
		stmt(env)
	}
}

// compileError formats like the reference compiler: "ERROR: 0:<line>: '<token>' : <message>".
type compileError struct {
	line  int
	token string
	msg   string
}

func (e *compileError) Error() string {
	return fmt.Sprintf("ERROR: 0:%d: '%s' : %s", e.line, e.token, e.msg)
}

// compileGLSL parses and type-checks src for the given stage.
func compileGLSL(st stage, src string) (sh *compiledShader, err error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks: toks,
		sh:   &compiledShader{stage: st, byName: make(map[string]*symbol)},
	}
	switch st {
	case vertexStage:
		p.declare("gl_Position", symBuiltin, tVec4, token{})
	case fragmentStage:
		p.declare("gl_FragColor", symBuiltin, tVec4, token{})
	}

	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*compileError)
			if !ok {
				panic(r)
			}
			sh, err = nil, ce
		}
	}()
	p.translationUnit()
	return p.sh, nil
}

// Lexer

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func lex(src string) ([]token, error) {
	var toks []token
	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, &compileError{line: line, token: "/*", msg: "unterminated comment"}
			}
			line += strings.Count(src[i:i+2+end], "\n")
			i += end + 4
		case c == '_' || unicode.IsLetter(rune(c)):
			j := i
			for j < len(src) && (src[j] == '_' || unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j]))) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], line: line})
			i = j
		case unicode.IsDigit(rune(c)) || (c == '.' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			j := i
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
				j++
			}
			if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
				j++
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				for j < len(src) && unicode.IsDigit(rune(src[j])) {
					j++
				}
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j], line: line})
			i = j
		case strings.ContainsRune("(){};,=+-*/.", rune(c)):
			toks = append(toks, token{kind: tokPunct, text: string(c), line: line})
			i++
		default:
			return nil, &compileError{line: line, token: string(c), msg: "syntax error"}
		}
	}
	toks = append(toks, token{kind: tokEOF, line: line})
	return toks, nil
}

// Parser

type parser struct {
	toks []token
	pos  int
	sh   *compiledShader

	// globals initialized outside main run before its body
	inits []func(env []value)
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) fail(t token, format string, args ...any) {
	text := t.text
	if t.kind == tokEOF {
		text = "<EOF>"
	}
	panic(&compileError{line: t.line, token: text, msg: fmt.Sprintf(format, args...)})
}

func (p *parser) expect(text string) token {
	t := p.next()
	if t.text != text || t.kind == tokEOF {
		p.fail(t, "syntax error, expected '%s'", text)
	}
	return t
}

func (p *parser) accept(text string) bool {
	if p.peek().text == text && p.peek().kind != tokEOF {
		p.pos++
		return true
	}
	return false
}

func isPrecision(s string) bool {
	return s == "lowp" || s == "mediump" || s == "highp"
}

func (p *parser) skipPrecision() {
	for isPrecision(p.peek().text) {
		p.next()
	}
}

func (p *parser) declare(name string, kind symbolKind, typ glslType, at token) *symbol {
	if _, dup := p.sh.byName[name]; dup {
		p.fail(at, "redefinition")
	}
	if strings.HasPrefix(name, "gl_") && kind != symBuiltin {
		p.fail(at, "identifiers starting with \"gl_\" are reserved")
	}
	s := &symbol{name: name, kind: kind, typ: typ, slot: len(p.sh.symbols)}
	p.sh.symbols = append(p.sh.symbols, s)
	p.sh.byName[name] = s
	return s
}

func (p *parser) parseType() glslType {
	t := p.next()
	typ, ok := typeNames[t.text]
	if !ok || t.kind != tokIdent {
		p.fail(t, "syntax error, expected a type")
	}
	return typ
}

func (p *parser) ident() token {
	t := p.next()
	if t.kind != tokIdent {
		p.fail(t, "syntax error, expected an identifier")
	}
	if _, reserved := typeNames[t.text]; reserved {
		p.fail(t, "syntax error, type name used as identifier")
	}
	return t
}

func (p *parser) translationUnit() {
	for p.peek().kind != tokEOF {
		t := p.peek()
		if t.text == "precision" {
			p.next()
			p.skipPrecision()
			p.parseType()
			p.expect(";")
			continue
		}

		kind := symLocal
		switch t.text {
		case "attribute":
			if p.sh.stage == fragmentStage {
				p.fail(t, "supported in vertex shaders only")
			}
			kind = symAttribute
			p.next()
		case "uniform":
			kind = symUniform
			p.next()
		case "varying":
			kind = symVarying
			p.next()
		}
		p.skipPrecision()

		if kind == symLocal && p.peek().text == "void" {
			p.function()
			continue
		}

		typ := p.parseType()
		for {
			name := p.ident()
			s := p.declare(name.text, kind, typ, name)
			if kind == symLocal && p.accept("=") {
				e := p.expr()
				p.sh.body = append(p.sh.body, p.assign(s, e, name))
			}
			if !p.accept(",") {
				break
			}
		}
		p.expect(";")
	}
}

func (p *parser) function() {
	p.expect("void")
	name := p.ident()
	if name.text != "main" {
		p.fail(name, "only main() may be defined")
	}
	if p.sh.hasMain {
		p.fail(name, "function already has a body")
	}
	p.expect("(")
	p.accept("void")
	p.expect(")")
	p.expect("{")
	for !p.accept("}") {
		if p.peek().kind == tokEOF {
			p.fail(p.peek(), "syntax error, unexpected end of file")
		}
		p.statement()
	}
	p.sh.hasMain = true
}

func (p *parser) statement() {
	t := p.peek()
	if t.text == "return" {
		p.next()
		p.expect(";")
		return
	}

	p.skipPrecision()
	if _, isType := typeNames[p.peek().text]; isType {
		typ := p.parseType()
		name := p.ident()
		s := p.declare(name.text, symLocal, typ, name)
		if p.accept("=") {
			e := p.expr()
			p.sh.body = append(p.sh.body, p.assign(s, e, name))
		}
		p.expect(";")
		return
	}

	name := p.ident()
	s, ok := p.sh.byName[name.text]
	if !ok {
		p.fail(name, "undeclared identifier")
	}
	p.expect("=")
	e := p.expr()
	p.sh.body = append(p.sh.body, p.assign(s, e, name))
	p.expect(";")
}

func (p *parser) assign(s *symbol, e expr, at token) func(env []value) {
	switch {
	case s.kind == symAttribute || s.kind == symUniform:
		p.fail(at, "l-value required (can't modify %s)", kindNames[s.kind])
	case s.kind == symVarying && p.sh.stage == fragmentStage:
		p.fail(at, "l-value required (can't modify a varying in a fragment shader)")
	}
	if e.typ != s.typ {
		p.fail(at, "cannot convert from '%v' to '%v'", e.typ, s.typ)
	}
	s.written = true
	slot, eval := s.slot, e.eval
	return func(env []value) { env[slot] = eval(env) }
}

// Expressions

type expr struct {
	typ  glslType
	eval func(env []value) value
}

func (p *parser) expr() expr {
	left := p.term()
	for {
		op := p.peek()
		if op.text != "+" && op.text != "-" {
			return left
		}
		p.next()
		left = p.binary(op, left, p.term())
	}
}

func (p *parser) term() expr {
	left := p.unary()
	for {
		op := p.peek()
		if op.text != "*" && op.text != "/" {
			return left
		}
		p.next()
		left = p.binary(op, left, p.unary())
	}
}

func (p *parser) unary() expr {
	if p.accept("-") {
		e := p.unary()
		inner := e.eval
		return expr{typ: e.typ, eval: func(env []value) value {
			v := inner(env)
			for i := 0; i < v.n; i++ {
				v.v[i] = -v.v[i]
			}
			return v
		}}
	}
	p.accept("+")
	return p.postfix(p.primary())
}

func (p *parser) primary() expr {
	t := p.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			p.fail(t, "invalid number")
		}
		v := value{n: 1}
		v.v[0] = f
		return expr{typ: tFloat, eval: func([]value) value { return v }}
	case tokIdent:
		if typ, ok := typeNames[t.text]; ok {
			return p.constructor(t, typ)
		}
		s, ok := p.sh.byName[t.text]
		if !ok {
			p.fail(t, "undeclared identifier")
		}
		s.read = true
		slot := s.slot
		return expr{typ: s.typ, eval: func(env []value) value { return env[slot] }}
	case tokPunct:
		if t.text == "(" {
			e := p.expr()
			p.expect(")")
			return e
		}
	}
	p.fail(t, "syntax error")
	return expr{}
}

func (p *parser) constructor(at token, typ glslType) expr {
	p.expect("(")
	var args []expr
	if !p.accept(")") {
		for {
			args = append(args, p.expr())
			if p.accept(")") {
				break
			}
			p.expect(",")
		}
	}
	if len(args) == 0 {
		p.fail(at, "constructor does not have any arguments")
	}

	if typ == tMat4 {
		switch {
		case len(args) == 1 && args[0].typ == tFloat:
			a := args[0].eval
			return expr{typ: tMat4, eval: func(env []value) value {
				s := a(env).v[0]
				return value{n: 16, v: [16]float64{s, 0, 0, 0, 0, s, 0, 0, 0, 0, s, 0, 0, 0, 0, s}}
			}}
		case len(args) == 1 && args[0].typ == tMat4:
			return args[0]
		}
	}

	total := 0
	for _, a := range args {
		if a.typ == tMat4 {
			p.fail(at, "matrix arguments are not supported in '%v' constructor", typ)
		}
		total += int(a.typ)
	}
	want := int(typ)
	broadcast := len(args) == 1 && args[0].typ == tFloat
	switch {
	case broadcast:
	case total < want:
		p.fail(at, "not enough data provided for construction")
	case total-int(args[len(args)-1].typ) >= want:
		p.fail(at, "too many arguments")
	}

	evals := make([]func([]value) value, len(args))
	for i, a := range args {
		evals[i] = a.eval
	}
	return expr{typ: typ, eval: func(env []value) value {
		out := value{n: want}
		if broadcast {
			s := evals[0](env).v[0]
			for i := 0; i < want; i++ {
				out.v[i] = s
			}
			return out
		}
		k := 0
		for _, ev := range evals {
			v := ev(env)
			for i := 0; i < v.n && k < want; i++ {
				out.v[k] = v.v[i]
				k++
			}
		}
		return out
	}}
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

func (p *parser) postfix(e expr) expr {
	for p.accept(".") {
		field := p.next()
		if field.kind != tokIdent {
			p.fail(field, "syntax error, expected a field selection")
		}
		if !isVector(e.typ) {
			p.fail(field, "field selection requires structure or vector on left hand side")
		}
		idx, ok := swizzleIndices(field.text, int(e.typ))
		if !ok {
			p.fail(field, "vector field selection out of range")
		}
		inner := e.eval
		e = expr{typ: glslType(len(idx)), eval: func(env []value) value {
			v := inner(env)
			out := value{n: len(idx)}
			for i, j := range idx {
				out.v[i] = v.v[j]
			}
			return out
		}}
	}
	return e
}

func swizzleIndices(field string, size int) ([]int, bool) {
	if len(field) == 0 || len(field) > 4 {
		return nil, false
	}
	for _, set := range swizzleSets {
		idx := make([]int, 0, len(field))
		for _, c := range field {
			j := strings.IndexRune(set, c)
			if j < 0 {
				break
			}
			if j >= size {
				return nil, false
			}
			idx = append(idx, j)
		}
		if len(idx) == len(field) {
			return idx, true
		}
	}
	return nil, false
}

func (p *parser) binary(op token, l, r expr) expr {
	le, re := l.eval, r.eval
	bad := func() {
		p.fail(op, "wrong operand types: no operation '%s' exists that takes a left-hand operand of type '%v' and a right operand of type '%v'", op.text, l.typ, r.typ)
	}

	if op.text == "*" {
		switch {
		case l.typ == tMat4 && r.typ == tMat4:
			return expr{typ: tMat4, eval: func(env []value) value {
				m := mathutil.Mat4Mul(mathutil.Mat4(le(env).v), mathutil.Mat4(re(env).v))
				return value{n: 16, v: m}
			}}
		case l.typ == tMat4 && r.typ == tVec4:
			return expr{typ: tVec4, eval: func(env []value) value {
				m := mathutil.Mat4(le(env).v)
				v := re(env).v
				out := m.MulVec4(mathutil.Vec4{v[0], v[1], v[2], v[3]})
				return vec4Value(out[0], out[1], out[2], out[3])
			}}
		case l.typ == tVec4 && r.typ == tMat4:
			// v * M multiplies by the transpose.
			return expr{typ: tVec4, eval: func(env []value) value {
				v := le(env).v
				m := re(env).v
				var out value
				out.n = 4
				for c := 0; c < 4; c++ {
					out.v[c] = m[c*4]*v[0] + m[c*4+1]*v[1] + m[c*4+2]*v[2] + m[c*4+3]*v[3]
				}
				return out
			}}
		}
	}

	var fn func(a, b float64) float64
	switch op.text {
	case "+":
		fn = func(a, b float64) float64 { return a + b }
	case "-":
		fn = func(a, b float64) float64 { return a - b }
	case "*":
		fn = func(a, b float64) float64 { return a * b }
	case "/":
		fn = func(a, b float64) float64 { return a / b }
	}

	typ := l.typ
	switch {
	case l.typ == r.typ:
		if l.typ == tMat4 && (op.text == "/") {
			bad()
		}
	case l.typ == tFloat:
		typ = r.typ
	case r.typ == tFloat:
	default:
		bad()
	}
	lScalar, rScalar := l.typ == tFloat && typ != tFloat, r.typ == tFloat && typ != tFloat
	n := int(typ)
	return expr{typ: typ, eval: func(env []value) value {
		a, b := le(env), re(env)
		out := value{n: n}
		for i := 0; i < n; i++ {
			x, y := a.v[i], b.v[i]
			if lScalar {
				x = a.v[0]
			}
			if rScalar {
				y = b.v[0]
			}
			out.v[i] = fn(x, y)
		}
		return out
	}}
}
