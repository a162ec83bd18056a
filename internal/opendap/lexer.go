package opendap

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return fmt.Sprintf("%q", t.text)
	}
	return fmt.Sprintf("`%s`", t.text)
}

const punctChars = "{}[];=:,"

// tokenize splits DDS and DAS documents into words, quoted strings and
// single-character punctuation.
func tokenize(src string) ([]token, error) {
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
			// comment to end of line
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case strings.IndexByte(punctChars, c) >= 0:
			toks = append(toks, token{kind: tokPunct, text: string(c), line: line})
			i++
		case c == '"':
			var sb strings.Builder
			start := line
			i++
			closed := false
			for i < len(src) {
				ch := src[i]
				if ch == '\\' && i+1 < len(src) {
					sb.WriteByte(src[i+1])
					i += 2
					continue
				}
				if ch == '"' {
					closed = true
					i++
					break
				}
				if ch == '\n' {
					line++
				}
				sb.WriteByte(ch)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("line %d: unterminated string", start)
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), line: start})
		default:
			j := i
			for j < len(src) {
				ch := src[j]
				if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '"' || strings.IndexByte(punctChars, ch) >= 0 {
					break
				}
				j++
			}
			toks = append(toks, token{kind: tokWord, text: src[i:j], line: line})
			i = j
		}
	}
	toks = append(toks, token{kind: tokEOF, line: line})
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func newParser(src string) (*parser, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks}, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) isKeyword(s string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.text, s)
}

func (p *parser) expectPunct(s string) error {
	t := p.next()
	if t.kind != tokPunct || t.text != s {
		return fmt.Errorf("line %d: expected `%s`, got %s", t.line, s, t)
	}
	return nil
}

func (p *parser) expectKeyword(s string) error {
	t := p.next()
	if t.kind != tokWord || !strings.EqualFold(t.text, s) {
		return fmt.Errorf("line %d: expected %s, got %s", t.line, s, t)
	}
	return nil
}

func (p *parser) expectName() (string, error) {
	t := p.next()
	if t.kind != tokWord && t.kind != tokString {
		return "", fmt.Errorf("line %d: expected name, got %s", t.line, t)
	}
	return t.text, nil
}
