package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stanza-hq/stanza-backend/internal/entity"
	"github.com/stanza-hq/stanza-backend/internal/model"
)

// The filter grammar is a small closed algebra over the entity's own fields:
//
//	expr    := or
//	or      := and (("or" | "||") and)*
//	and     := unary (("and" | "&&") unary)*
//	unary   := ("not" | "!") unary | primary
//	primary := "(" expr ")" | ident op literal
//	op      := "==" | "!=" | "<" | "<=" | ">" | ">="
//	literal := string | number | "true" | "false" | "null"
//
// Field names resolve case-insensitively against the descriptor and literals
// are converted to the field's scalar kind before compilation, so the emitted
// SQL carries only column names, operators and parameter placeholders.

// Filter parses and compiles a filter expression into a predicate. argBase is
// the number of statement parameters already bound before this predicate.
func Filter(d *entity.Descriptor, expr string, ph Placeholder, argBase int) (Predicate, error) {
	p := &filterParser{lex: &lexer{in: expr}, d: d}
	if err := p.advance(); err != nil {
		return Predicate{}, err
	}
	n, err := p.parseOr()
	if err != nil {
		return Predicate{}, err
	}
	if p.tok.kind != tokEOF {
		return Predicate{}, filterErr("unexpected %q", p.tok.text)
	}
	w := &predWriter{ph: ph, base: argBase}
	n.compile(w)
	return Predicate{SQL: w.sb.String(), Args: w.args}, nil
}

func filterErr(format string, a ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidFilter, fmt.Sprintf(format, a...))
}

// --- lexer ---

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokOp
)

type token struct {
	kind tokKind
	text string
}

type lexer struct {
	in  string
	pos int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.in) && (l.in[l.pos] == ' ' || l.in[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.in) {
		return token{kind: tokEOF}, nil
	}
	c := l.in[l.pos]
	switch c {
	case '(':
		l.pos++
		return token{kind: tokLParen, text: "("}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, text: ")"}, nil
	case '\'', '"':
		return l.lexString(c)
	}
	if isOpChar(c) {
		start := l.pos
		for l.pos < len(l.in) && isOpChar(l.in[l.pos]) {
			l.pos++
		}
		op := l.in[start:l.pos]
		switch op {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||", "!":
			return token{kind: tokOp, text: op}, nil
		}
		return token{}, filterErr("unknown operator %q", op)
	}
	if c == '-' || (c >= '0' && c <= '9') {
		start := l.pos
		l.pos++
		for l.pos < len(l.in) && (l.in[l.pos] == '.' || (l.in[l.pos] >= '0' && l.in[l.pos] <= '9')) {
			l.pos++
		}
		return token{kind: tokNumber, text: l.in[start:l.pos]}, nil
	}
	if isIdentChar(c) {
		start := l.pos
		for l.pos < len(l.in) && isIdentChar(l.in[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.in[start:l.pos]}, nil
	}
	return token{}, filterErr("unexpected character %q", string(c))
}

func (l *lexer) lexString(quote byte) (token, error) {
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.in) {
		c := l.in[l.pos]
		if c == '\\' && l.pos+1 < len(l.in) {
			sb.WriteByte(l.in[l.pos+1])
			l.pos += 2
			continue
		}
		if c == quote {
			l.pos++
			return token{kind: tokString, text: sb.String()}, nil
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, filterErr("unterminated string literal")
}

func isOpChar(c byte) bool {
	return c == '=' || c == '!' || c == '<' || c == '>' || c == '&' || c == '|'
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// --- parser ---

type node interface {
	compile(w *predWriter)
}

type binaryNode struct {
	op   string // "AND" or "OR"
	l, r node
}

type notNode struct {
	inner node
}

type cmpNode struct {
	column string
	op     string // SQL operator
	value  any
	isNull bool
}

type predWriter struct {
	sb   strings.Builder
	args []any
	ph   Placeholder
	base int
}

func (w *predWriter) bind(v any) string {
	w.args = append(w.args, v)
	return w.ph(w.base + len(w.args))
}

func (n *binaryNode) compile(w *predWriter) {
	w.sb.WriteString("(")
	n.l.compile(w)
	w.sb.WriteString(" " + n.op + " ")
	n.r.compile(w)
	w.sb.WriteString(")")
}

func (n *notNode) compile(w *predWriter) {
	w.sb.WriteString("NOT (")
	n.inner.compile(w)
	w.sb.WriteString(")")
}

func (n *cmpNode) compile(w *predWriter) {
	if n.isNull {
		if n.op == "=" {
			w.sb.WriteString("t." + n.column + " IS NULL")
		} else {
			w.sb.WriteString("t." + n.column + " IS NOT NULL")
		}
		return
	}
	w.sb.WriteString("t." + n.column + " " + n.op + " " + w.bind(n.value))
}

type filterParser struct {
	lex *lexer
	tok token
	d   *entity.Descriptor
}

func (p *filterParser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *filterParser) keyword(kw string) bool {
	return p.tok.kind == tokIdent && strings.EqualFold(p.tok.text, kw)
}

func (p *filterParser) parseOr() (node, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("or") || (p.tok.kind == tokOp && p.tok.text == "||") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: "OR", l: l, r: r}
	}
	return l, nil
}

func (p *filterParser) parseAnd() (node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("and") || (p.tok.kind == tokOp && p.tok.text == "&&") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: "AND", l: l, r: r}
	}
	return l, nil
}

func (p *filterParser) parseUnary() (node, error) {
	if p.keyword("not") || (p.tok.kind == tokOp && p.tok.text == "!") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *filterParser) parsePrimary() (node, error) {
	if p.tok.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, filterErr("missing closing parenthesis")
		}
		return n, p.advance()
	}
	return p.parseComparison()
}

var sqlOps = map[string]string{
	"==": "=",
	"!=": "<>",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

func (p *filterParser) parseComparison() (node, error) {
	if p.tok.kind != tokIdent {
		return nil, filterErr("expected field name, got %q", p.tok.text)
	}
	f, ok := p.d.FieldByName(p.tok.text)
	if !ok {
		return nil, filterErr("%s has no field %q", p.d.Name, p.tok.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokOp {
		return nil, filterErr("expected comparison operator after %q", f.Name)
	}
	sqlOp, ok := sqlOps[p.tok.text]
	if !ok {
		return nil, filterErr("operator %q is not a comparison", p.tok.text)
	}
	ordered := p.tok.text != "==" && p.tok.text != "!="
	if err := p.advance(); err != nil {
		return nil, err
	}

	n := &cmpNode{column: f.Column, op: sqlOp}
	lit := p.tok
	switch {
	case lit.kind == tokIdent && strings.EqualFold(lit.text, "null"):
		if ordered {
			return nil, filterErr("null only supports == and !=")
		}
		if !f.Nullable {
			return nil, filterErr("%s is not nullable", f.Name)
		}
		n.isNull = true
	case lit.kind == tokString, lit.kind == tokNumber, lit.kind == tokIdent:
		v, err := literalValue(f, lit)
		if err != nil {
			return nil, err
		}
		n.value = v
		if ordered && (f.Kind == entity.KindBool || f.Kind == entity.KindUUID) {
			return nil, filterErr("%s values only support == and !=", f.Kind)
		}
	default:
		return nil, filterErr("expected literal, got %q", lit.text)
	}
	return n, p.advance()
}

// literalValue converts a literal token to the field's scalar kind.
func literalValue(f *entity.Field, t token) (any, error) {
	switch t.kind {
	case tokString:
		switch f.Kind {
		case entity.KindText:
			return t.text, nil
		case entity.KindUUID:
			v, err := uuid.Parse(t.text)
			if err != nil {
				return nil, filterErr("%q is not a valid uuid for %s", t.text, f.Name)
			}
			return v, nil
		case entity.KindTime:
			v, err := time.Parse(time.RFC3339, t.text)
			if err != nil {
				return nil, filterErr("%q is not a valid timestamp for %s", t.text, f.Name)
			}
			return v, nil
		}
		return nil, filterErr("string literal does not match %s field %s", f.Kind, f.Name)
	case tokNumber:
		switch f.Kind {
		case entity.KindInt:
			v, err := strconv.ParseInt(t.text, 10, 64)
			if err != nil {
				return nil, filterErr("%q is not a valid integer for %s", t.text, f.Name)
			}
			return v, nil
		case entity.KindFloat:
			v, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, filterErr("%q is not a valid number for %s", t.text, f.Name)
			}
			return v, nil
		}
		return nil, filterErr("numeric literal does not match %s field %s", f.Kind, f.Name)
	case tokIdent:
		if f.Kind == entity.KindBool {
			if strings.EqualFold(t.text, "true") {
				return true, nil
			}
			if strings.EqualFold(t.text, "false") {
				return false, nil
			}
		}
		return nil, filterErr("unexpected %q after comparison", t.text)
	}
	return nil, filterErr("unexpected %q after comparison", t.text)
}
