package expr

import (
	"github.com/vdd9/frvm/category"
)

// Parse tokenizes and parses input against a finalized registry.
//
// Precedence, high to low: prefix "!"/"?" (binding only to an immediately
// following category token), AND ("." or juxtaposition), OR ("+").
// Parentheses group. A blank input parses to MatchAll.
//
// Parse fails with *SyntaxError on structural faults and with
// *category.UnknownCategoryError on symbolic tokens outside the registry.
func Parse(reg *category.Registry, input string) (Node, error) {
	toks, err := tokenize(reg, input)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return MatchAll{}, nil
	}

	p := &parser{toks: toks, end: len(input)}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t, ok := p.peek(); ok {
		return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected " + describe(t)}
	}
	return node, nil
}

type parser struct {
	toks []token
	pos  int
	end  int // input length, for errors at EOF
}

func (p *parser) peek() (token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token{}, false
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

// parseOr handles "expr ('+' expr)*".
func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Node{left}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			break
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return NAry{Op: OpOr, Children: children}, nil
}

// parseAnd handles "term (('.' term) | term)*": the explicit dot and bare
// juxtaposition are the same connective.
func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []Node{left}
	for {
		t, ok := p.peek()
		if !ok {
			break
		}
		if t.kind == tokAnd {
			p.pos++
		} else if !startsOperand(t.kind) {
			break
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return NAry{Op: OpAnd, Children: children}, nil
}

// parseUnary handles "'!' category | '?' category | category | '(' or ')'".
func (p *parser) parseUnary() (Node, error) {
	t, ok := p.next()
	if !ok {
		return nil, &SyntaxError{Pos: p.end, Msg: "missing operand"}
	}
	switch t.kind {
	case tokBang, tokQuery:
		mode := ModeNo
		if t.kind == tokQuery {
			mode = ModeUnset
		}
		c, ok := p.next()
		if !ok {
			return nil, &SyntaxError{Pos: p.end, Msg: "prefix operator needs a category"}
		}
		if c.kind != tokCategory {
			return nil, &SyntaxError{Pos: c.pos, Msg: "prefix operator must be followed by a category, got " + describe(c)}
		}
		return Leaf{Key: c.key, Index: c.index, Mode: mode}, nil
	case tokCategory:
		return Leaf{Key: t.key, Index: t.index, Mode: ModeYes}, nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		c, ok := p.next()
		if !ok {
			return nil, &SyntaxError{Pos: p.end, Msg: "missing closing parenthesis"}
		}
		if c.kind != tokRParen {
			return nil, &SyntaxError{Pos: c.pos, Msg: "expected closing parenthesis, got " + describe(c)}
		}
		return inner, nil
	default:
		return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected " + describe(t)}
	}
}

// startsOperand reports whether kind can begin a term, which is what makes
// juxtaposition parse as AND.
func startsOperand(kind tokenKind) bool {
	switch kind {
	case tokCategory, tokBang, tokQuery, tokLParen:
		return true
	}
	return false
}

func describe(t token) string {
	switch t.kind {
	case tokCategory:
		return "category " + t.key
	case tokBang:
		return "'!'"
	case tokQuery:
		return "'?'"
	case tokAnd:
		return "'.'"
	case tokOr:
		return "'+'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	}
	return "token"
}
