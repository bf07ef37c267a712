// Package sidecar implements the tri-state sidecar text grammar: a
// concatenation of sign+key tokens such as "+🥗-🍔" stored one file per
// entity next to the video it describes.
//
// "+" marks a category YES, "-" marks it NO, absence means UNSET. Keys may
// repeat; the last occurrence wins. Tokenization uses the same
// longest-registered-key matching as the query parser, so unknown material
// is skipped without failing the rest of the file.
package sidecar

import (
	"strings"
	"unicode"

	"github.com/vdd9/frvm/category"
	"github.com/vdd9/frvm/model"
)

// Assignments maps a registry index to its explicit state. Only Yes and No
// appear; Unset is represented by absence.
type Assignments map[int]model.State

// Parse decodes sidecar text against a finalized registry.
//
// Malformed or unregistered tokens are returned in skipped and do not
// affect the rest of the file; Parse never fails.
func Parse(reg *category.Registry, text string) (asg Assignments, skipped []string) {
	asg = make(Assignments)

	clean := stripSpace(text)
	scan := reg.Scan(clean)

	i := 0
	for i < len(clean) {
		c := clean[i]
		if c != '+' && c != '-' {
			// No leading sign: skip up to the next token boundary.
			run := takeGarbage(clean, i)
			skipped = append(skipped, clean[i:run])
			i = run
			continue
		}
		st := model.Yes
		if c == '-' {
			st = model.No
		}
		i++
		tok, ok := scan.LongestAt(i)
		if !ok {
			run := takeGarbage(clean, i)
			if run > i {
				skipped = append(skipped, clean[i:run])
			} else {
				// Bare trailing sign.
				skipped = append(skipped, string(c))
			}
			i = run
			continue
		}
		asg[tok.Index] = st
		i = tok.End
	}
	return asg, skipped
}

// Serialize encodes assignments as sidecar text in registry index order.
// Unset entries are omitted.
func Serialize(reg *category.Registry, asg Assignments) string {
	var sb strings.Builder
	for idx := 0; idx < reg.Len(); idx++ {
		switch asg[idx] {
		case model.Yes:
			sb.WriteByte('+')
			sb.WriteString(reg.Key(idx))
		case model.No:
			sb.WriteByte('-')
			sb.WriteString(reg.Key(idx))
		}
	}
	return sb.String()
}

// takeGarbage returns the offset of the next sign character at or after
// pos, or len(s) if none.
func takeGarbage(s string, pos int) int {
	for pos < len(s) && s[pos] != '+' && s[pos] != '-' {
		pos++
	}
	return pos
}

// stripSpace removes all unicode whitespace, which is insignificant in the
// grammar.
func stripSpace(s string) string {
	if !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
