package category

// Token is one matched category occurrence inside a scanned string.
type Token struct {
	Key   string
	Index int // registry index
	Start int // byte offset
	End   int // byte offset past the end
}

// Scan represents one pre-scanned input string. Category keys may be
// multi-codepoint symbolic sequences, so tokenization cannot consume fixed
// width characters; the Aho-Corasick pass finds every key occurrence in one
// sweep and LongestAt answers "which registered key starts here" in O(1).
type Scan struct {
	text    string
	longest map[int]Token // start offset -> longest token at that offset
}

// Scan matches every registered key occurrence in text. The registry must
// be finalized.
func (r *Registry) Scan(text string) *Scan {
	s := &Scan{text: text, longest: make(map[int]Token)}
	if r.ac == nil || text == "" {
		return s
	}
	for _, m := range r.ac.FindAllOverlapping([]byte(text)) {
		key := r.keys[m.PatternID]
		tok := Token{Key: key, Index: m.PatternID, Start: m.Start, End: m.End}
		if prev, ok := s.longest[m.Start]; !ok || tok.End > prev.End {
			s.longest[m.Start] = tok
		}
	}
	return s
}

// LongestAt returns the longest registered key starting exactly at byte
// offset pos, if any.
func (s *Scan) LongestAt(pos int) (Token, bool) {
	tok, ok := s.longest[pos]
	return tok, ok
}
