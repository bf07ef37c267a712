package expr

import (
	"unicode"
	"unicode/utf8"

	"github.com/vdd9/frvm/category"
)

type tokenKind uint8

const (
	tokCategory tokenKind = iota
	tokBang               // !
	tokQuery              // ?
	tokAnd                // .
	tokOr                 // +
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	key   string // category key, for tokCategory
	index int    // registry index, for tokCategory
	pos   int    // byte offset in the input
}

// tokenize splits input into operator and category tokens. Category keys
// are variable-width symbolic sequences, so the lexer asks the registry
// scanner for the longest registered key at each position instead of
// consuming fixed-width characters. Whitespace is insignificant.
func tokenize(reg *category.Registry, input string) ([]token, error) {
	scan := reg.Scan(input)

	var toks []token
	i := 0
	for i < len(input) {
		r, w := utf8.DecodeRuneInString(input[i:])
		if unicode.IsSpace(r) {
			i += w
			continue
		}
		switch r {
		case '!':
			toks = append(toks, token{kind: tokBang, pos: i})
			i += w
		case '?':
			toks = append(toks, token{kind: tokQuery, pos: i})
			i += w
		case '.':
			toks = append(toks, token{kind: tokAnd, pos: i})
			i += w
		case '+':
			toks = append(toks, token{kind: tokOr, pos: i})
			i += w
		case '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i += w
		case ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i += w
		default:
			if tok, ok := scan.LongestAt(i); ok {
				toks = append(toks, token{kind: tokCategory, key: tok.Key, index: tok.Index, pos: i})
				i = tok.End
				continue
			}
			// A symbolic run that is neither an operator nor a registered
			// key: report it as an unknown category so the caller can show
			// the offending token.
			return nil, &category.UnknownCategoryError{Key: unknownRun(scan, input, i)}
		}
	}
	return toks, nil
}

// unknownRun extends from pos until whitespace, an operator character, or
// the start of a registered key.
func unknownRun(scan *category.Scan, input string, pos int) string {
	end := pos
	for end < len(input) {
		r, w := utf8.DecodeRuneInString(input[end:])
		if unicode.IsSpace(r) || isOperator(r) {
			break
		}
		if _, ok := scan.LongestAt(end); ok && end > pos {
			break
		}
		end += w
	}
	return input[pos:end]
}

func isOperator(r rune) bool {
	switch r {
	case '!', '?', '.', '+', '(', ')':
		return true
	}
	return false
}
