package indexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/viant/fwdindex/forward"
)

// WordScanner splits source text into identifier-like words and records the
// lexical context each one appeared in: code, comments or string literals.
//
// It understands //, # and /* */ comments and "", '' and `` quoted literals,
// which covers most C-family, Go and scripting sources well enough for a
// forward word index.
type WordScanner struct {
	CaseSensitive bool
}

type scanState int

const (
	inCode scanState = iota
	inLineComment
	inBlockComment
	inQuote
)

// Scan returns every word of data with the bitwise OR of the contexts it occurred in.
func (s *WordScanner) Scan(data []byte) forward.Map {
	result := make(forward.Map)
	s.Visit(data, func(word string, mask forward.OccurrenceMask) {
		result.Add(forward.NewEntry(word, s.CaseSensitive), mask)
	})
	return result
}

// Visit calls fn for each word occurrence in data.
func (s *WordScanner) Visit(data []byte, fn func(word string, mask forward.OccurrenceMask)) {
	state := inCode
	var quote byte
	for i := 0; i < len(data); {
		c := data[i]
		switch state {
		case inCode:
			switch {
			case c == '/' && i+1 < len(data) && data[i+1] == '/':
				state = inLineComment
				i += 2
				continue
			case c == '/' && i+1 < len(data) && data[i+1] == '*':
				state = inBlockComment
				i += 2
				continue
			case c == '#':
				state = inLineComment
				i++
				continue
			case c == '"' || c == '\'' || c == '`':
				state, quote = inQuote, c
				i++
				continue
			}
		case inLineComment:
			if c == '\n' {
				state = inCode
				i++
				continue
			}
		case inBlockComment:
			if c == '*' && i+1 < len(data) && data[i+1] == '/' {
				state = inCode
				i += 2
				continue
			}
		case inQuote:
			if c == '\\' && quote != '`' {
				i += 2
				continue
			}
			if c == quote || (c == '\n' && quote != '`') {
				state = inCode
				i++
				continue
			}
		}
		r, size := utf8.DecodeRune(data[i:])
		if !isWordStart(r) {
			i += size
			continue
		}
		start := i
		for i < len(data) {
			r, size = utf8.DecodeRune(data[i:])
			if !isWordPart(r) {
				break
			}
			i += size
		}
		fn(string(data[start:i]), state.mask())
	}
}

func (s scanState) mask() forward.OccurrenceMask {
	switch s {
	case inLineComment, inBlockComment:
		return forward.InComments
	case inQuote:
		return forward.InStrings
	}
	return forward.InCode
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isWordPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
